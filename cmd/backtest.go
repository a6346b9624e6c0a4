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
	lookbackDays   int
	initialBalance float64
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the strategy backtest over historical data",
	Run:   Backtest,
}

func init() {
	backtestCmd.Flags().IntVar(&lookbackDays, "lookback", 365, "days of history to simulate")
	backtestCmd.Flags().Float64Var(&initialBalance, "balance", 25_000, "starting account balance")
}

func Backtest(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}
	defer appDep.Close()

	repo := repository.NewRepository(appDep.cfg, appDep.log, appDep.cache)
	services := service.NewService(appDep.cfg, appDep.log, repo)

	req := dto.BacktestRequest{LookbackDays: lookbackDays, InitialBalance: initialBalance}
	result, err := services.BacktestService.RunBacktest(ctx, req)
	if err != nil {
		log.Fatalf("Failed to run backtest: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal result: %v", err)
	}
	fmt.Println(string(out))
}
