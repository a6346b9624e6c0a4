package repository

import (
	"options-advisor/config"
	"options-advisor/pkg/cache"
	"options-advisor/pkg/httpclient"
	"options-advisor/pkg/logger"
)

type Repository struct {
	MarketDataRepo  MarketDataRepository
	OptionChainRepo OptionChainRepository
}

func NewRepository(cfg *config.Config, log *logger.Logger, c cache.Cache) *Repository {
	client := httpclient.New(cfg.MarketData.BaseURL, cfg.MarketData.Timeout)

	return &Repository{
		MarketDataRepo:  NewMarketDataRepository(cfg, log, client, c),
		OptionChainRepo: NewOptionChainRepository(cfg, log, client, c),
	}
}
