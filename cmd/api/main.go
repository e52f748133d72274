package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Yubo0826/portfolio-backend/internal/application/drift"
	"github.com/Yubo0826/portfolio-backend/internal/application/emails"
	"github.com/Yubo0826/portfolio-backend/internal/application/holdings"
	"github.com/Yubo0826/portfolio-backend/internal/config"
	"github.com/Yubo0826/portfolio-backend/internal/infrastructure/database"
	"github.com/Yubo0826/portfolio-backend/internal/infrastructure/marketdata"
	"github.com/Yubo0826/portfolio-backend/internal/interfaces/router"
	"github.com/Yubo0826/portfolio-backend/internal/jobs"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load: " + err.Error())
	}

	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		panic("app create: " + err.Error())
	}

	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			panic("get DB: " + err.Error())
		}
		if err := sqlDB.Ping(); err != nil {
			panic("Postgres connection failed: " + err.Error())
		}
		if err := database.AutoMigrate(db); err != nil {
			panic("migrate: " + err.Error())
		}
		fmt.Println("Postgres connected")
	}
	if rdb != nil {
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			panic("Redis connection failed: " + err.Error())
		}
		fmt.Println("Redis connected")
	}

	if db != nil {
		var quotes marketdata.Quotes = marketdata.NewYahooClient()
		if rdb != nil {
			quotes = marketdata.NewCachedQuotes(quotes, rdb, time.Duration(cfg.QuoteCacheTTL)*time.Second)
		}
		var sender emails.Sender
		if cfg.SendinblueAPIKey != "" {
			sender = &emails.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
		}

		scheduler := jobs.NewScheduler(log.Logger)
		err := scheduler.AddJob(cfg.DriftCron, &jobs.DailyCheck{
			DB:       db,
			Holdings: &holdings.Service{DB: db, Quotes: quotes},
			Drift:    &drift.Service{DB: db, Sender: sender},
		})
		if err != nil {
			panic("schedule daily check: " + err.Error())
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	fmt.Printf("Server running at http://localhost:%s\n", cfg.Port)
	fmt.Println("---")

	if err := app.Listen(":" + cfg.Port); err != nil {
		panic(err)
	}
}
