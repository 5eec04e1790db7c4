package main

import (
	"os"

	"github.com/SlpAus/lotto-mirror-backend/internal/cli"
	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/config"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/startup"
)

func openEnv() (*cli.Env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN); err != nil {
		return nil, err
	}
	if err := startup.InitializeApplication(database.DB); err != nil {
		return nil, err
	}
	return &cli.Env{
		DB:    database.DB,
		API:   lotteryapi.NewHTTPClient(cfg.LotteryAPI.BaseURL, cfg.LotteryAPI.APIKey, cfg.LotteryAPI.Timeout),
		Rules: lottery.Rules{Pick: cfg.Lottery.Pick, Pool: cfg.Lottery.Pool},
	}, nil
}

func main() {
	// the default logger writes to stderr, keeping --format json parseable on stdout
	err := cli.NewRootCommand(openEnv).Execute()
	_ = database.Close()
	if err != nil {
		os.Exit(1)
	}
}
