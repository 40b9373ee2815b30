package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/cppla/dailydraw/config"
	"github.com/cppla/dailydraw/models"
	"github.com/cppla/dailydraw/routes"
	"github.com/cppla/dailydraw/services"
	"github.com/cppla/dailydraw/store"
	"github.com/cppla/dailydraw/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(&models.User{}, &models.Post{}, &models.Comment{})

	rdb, err := utils.InitRedis(cfg)
	if err != nil {
		utils.Logger.Fatal("redis unavailable", zap.Error(err))
	}

	clock := services.SystemClock{}
	kv := store.NewRedisStore(rdb)
	keys := store.NewKeys(cfg.KeyPrefix)

	ledger := services.NewLedger(kv, keys, clock, services.LedgerRules{
		MaxVotesPerDay:       cfg.MaxVotesPerDay,
		MaxImageBase64Length: cfg.MaxImageBase64Length,
	}, utils.Component("ledger"))
	prompts := services.NewPromptEngine(kv, keys, clock, services.PromptRules{
		MinLength:      cfg.PromptMinLength,
		MaxLength:      cfg.PromptMaxLength,
		MaxVotesPerDay: cfg.MaxPromptVotesPerDay,
	}, ledger, utils.Component("prompts"))
	chain := services.NewPromptChain(kv, keys)
	announcer := services.NewGormAnnouncer(db)
	rollover := services.NewRollover(services.RolloverOptions{
		Store:       kv,
		Keys:        keys,
		Clock:       clock,
		Ledger:      ledger,
		Prompts:     prompts,
		Chain:       chain,
		Announcer:   announcer,
		TitlePrefix: cfg.PostTitlePrefix,
		Logger:      utils.Component("rollover"),
	})

	r := routes.SetupRouter(routes.Dependencies{
		DB:       db,
		Ledger:   ledger,
		Prompts:  prompts,
		Chain:    chain,
		Rollover: rollover,
		Posts:    announcer,
		Clock:    clock,
	})

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.RolloverEnabled {
		services.StartDailyRollover(ctx, rollover, cfg.RolloverHourUTC, cfg.RolloverMinuteUTC, utils.Component("scheduler"))
	}

	srv := utils.NewGraceServer(":"+cfg.AppPort, r)
	srv.OnStop(cancel)
	srv.OnStop(func() { _ = rdb.Close() })

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
