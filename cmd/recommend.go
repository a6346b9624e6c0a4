package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"options-advisor/internal/dto"
	"options-advisor/internal/repository"
	"options-advisor/internal/service"
)

var (
	accountBalance  float64
	accountDrawdown float64
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print a one-shot strategy recommendation",
	Run:   Recommend,
}

func init() {
	recommendCmd.Flags().Float64Var(&accountBalance, "balance", 25_000, "account balance to size against")
	recommendCmd.Flags().Float64Var(&accountDrawdown, "drawdown", 0, "current account drawdown (0-1)")
}

func Recommend(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}
	defer appDep.Close()

	repo := repository.NewRepository(appDep.cfg, appDep.log, appDep.cache)
	services := service.NewService(appDep.cfg, appDep.log, repo)

	account := dto.AccountInfo{Balance: accountBalance, CurrentDrawdown: accountDrawdown}
	rec, err := services.AdvisorService.GetRecommendation(ctx, account)
	if err != nil {
		log.Fatalf("Failed to generate recommendation: %v", err)
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal recommendation: %v", err)
	}
	fmt.Println(string(out))
}
