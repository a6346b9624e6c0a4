package service

import (
	"context"

	"github.com/robfig/cron/v3"

	"options-advisor/config"
	"options-advisor/internal/dto"
	"options-advisor/pkg/logger"
)

// SchedulerService refreshes the recommendation on a cron schedule while
// the server runs.
type SchedulerService interface {
	Start(ctx context.Context) error
	Stop()
}

type schedulerService struct {
	cfg     *config.Config
	log     *logger.Logger
	advisor AdvisorService
	cron    *cron.Cron
}

func NewSchedulerService(cfg *config.Config, log *logger.Logger, advisor AdvisorService) SchedulerService {
	return &schedulerService{
		cfg:     cfg,
		log:     log,
		advisor: advisor,
		cron:    cron.New(cron.WithSeconds()),
	}
}

func (s *schedulerService) Start(ctx context.Context) error {
	if !s.cfg.Scheduler.Enabled {
		s.log.Info("Scheduler disabled, skipping")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.Scheduler.CronSpec, func() {
		// A reference account keeps the scheduled output comparable
		// across runs.
		account := dto.AccountInfo{Balance: 100_000}
		rec, err := s.advisor.GetRecommendation(ctx, account)
		if err != nil {
			s.log.ErrorContext(ctx, "Scheduled recommendation failed", logger.ErrorField(err))
			return
		}

		s.log.InfoContext(ctx, "Scheduled recommendation",
			logger.StringField("strategy", string(rec.Strategy)),
			logger.StringField("bias", string(rec.Bias)),
			logger.FloatField("signal_strength", rec.SignalStrength),
			logger.FloatField("expected_win_rate", rec.ExpectedWinRate),
		)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("Scheduler started", logger.StringField("cron_spec", s.cfg.Scheduler.CronSpec))
	return nil
}

func (s *schedulerService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}
