package router

import (
	"net/http"
	"time"

	allocsvc "github.com/Yubo0826/portfolio-backend/internal/application/allocations"
	cashsvc "github.com/Yubo0826/portfolio-backend/internal/application/cashflows"
	divsvc "github.com/Yubo0826/portfolio-backend/internal/application/dividends"
	driftsvc "github.com/Yubo0826/portfolio-backend/internal/application/drift"
	emailsvc "github.com/Yubo0826/portfolio-backend/internal/application/emails"
	holdsvc "github.com/Yubo0826/portfolio-backend/internal/application/holdings"
	"github.com/Yubo0826/portfolio-backend/internal/application/ledger"
	portsvc "github.com/Yubo0826/portfolio-backend/internal/application/portfolios"
	usersvc "github.com/Yubo0826/portfolio-backend/internal/application/users"
	"github.com/Yubo0826/portfolio-backend/internal/config"
	"github.com/Yubo0826/portfolio-backend/internal/infrastructure/database"
	"github.com/Yubo0826/portfolio-backend/internal/infrastructure/marketdata"
	allochandler "github.com/Yubo0826/portfolio-backend/internal/interfaces/handlers/allocations"
	cashhandler "github.com/Yubo0826/portfolio-backend/internal/interfaces/handlers/cashflows"
	divhandler "github.com/Yubo0826/portfolio-backend/internal/interfaces/handlers/dividends"
	drifthandler "github.com/Yubo0826/portfolio-backend/internal/interfaces/handlers/drift"
	holdhandler "github.com/Yubo0826/portfolio-backend/internal/interfaces/handlers/holdings"
	markethandler "github.com/Yubo0826/portfolio-backend/internal/interfaces/handlers/market"
	porthandler "github.com/Yubo0826/portfolio-backend/internal/interfaces/handlers/portfolios"
	txhandler "github.com/Yubo0826/portfolio-backend/internal/interfaces/handlers/transactions"
	userhandler "github.com/Yubo0826/portfolio-backend/internal/interfaces/handlers/users"
	"github.com/Yubo0826/portfolio-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app and wires every feature against the database
// and the market-data feed. db and rdb are returned so the caller can hand
// them to background jobs and close them on shutdown.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opts)
	}

	yahoo := marketdata.NewYahooClient()
	var quotes marketdata.Quotes = yahoo
	if rdb != nil {
		quotes = marketdata.NewCachedQuotes(quotes, rdb, time.Duration(cfg.QuoteCacheTTL)*time.Second)
	}
	tiingo := marketdata.NewTiingoClient(cfg.TiingoAPIKey)

	mh := &markethandler.Handlers{Quotes: quotes, Yahoo: yahoo, Tiingo: tiingo}
	mg := app.Group("/api/market")
	mg.Get("/quote", mh.Quote)
	mg.Get("/chart", mh.Chart)
	mg.Get("/search", mh.Search)
	mg.Get("/dividends", mh.Dividends)
	mg.Get("/tiingo/prices/:symbol", mh.TiingoPrices)
	mg.Get("/tiingo/search", mh.TiingoSearch)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	if db != nil {
		var emailSender emailsvc.Sender
		if cfg.SendinblueAPIKey != "" {
			emailSender = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
		}

		// Transactions and the holdings they maintain
		txh := &txhandler.Handlers{Service: ledger.New(db)}
		txg := app.Group("/api/transactions")
		txg.Get("/", txh.List)
		txg.Post("/", txh.Create)
		txg.Put("/:id", txh.Update)
		txg.Delete("/", txh.Delete)

		hs := &holdsvc.Service{DB: db, Quotes: quotes}
		hh := &holdhandler.Handlers{Service: hs}
		hg := app.Group("/api/holdings")
		hg.Get("/", hh.List)
		hg.Post("/refresh-prices", hh.RefreshPrices)

		// Portfolios
		ph := &porthandler.Handlers{Service: &portsvc.Service{DB: db}}
		pg := app.Group("/api/portfolios")
		pg.Get("/", ph.List)
		pg.Post("/", ph.Create)
		pg.Put("/:id", ph.Update)
		pg.Delete("/", ph.Delete)

		// Target allocations + drift
		alh := &allochandler.Handlers{Service: &allocsvc.Service{DB: db}}
		alg := app.Group("/api/allocations")
		alg.Get("/", alh.List)
		alg.Post("/", alh.Save)

		drh := &drifthandler.Handlers{Service: &driftsvc.Service{DB: db, Sender: emailSender}}
		app.Get("/api/drift/check", drh.Check)

		// Cash accounts and flows
		csh := &cashhandler.Handlers{Service: &cashsvc.Service{DB: db}}
		cag := app.Group("/api/cash-accounts")
		cag.Get("/", csh.ListAccounts)
		cag.Post("/", csh.CreateAccount)
		cag.Get("/:id", csh.GetAccount)
		cag.Put("/:id", csh.UpdateAccount)
		cag.Delete("/:id", csh.DeleteAccount)

		cfg2 := app.Group("/api/cash-flows")
		cfg2.Get("/", csh.ListFlows)
		cfg2.Post("/", csh.CreateFlow)
		cfg2.Get("/stats", csh.Stats)
		cfg2.Post("/dividends", csh.BackfillDividends)

		// Dividends
		dvh := &divhandler.Handlers{Service: &divsvc.Service{DB: db, Quotes: quotes}}
		dvg := app.Group("/api/dividends")
		dvg.Get("/", dvh.List)
		dvg.Post("/sync", dvh.Sync)

		// Users
		uh := &userhandler.Handlers{Service: &usersvc.Service{DB: db}}
		ug := app.Group("/api/users")
		ug.Post("/", uh.Upsert)
		ug.Get("/settings", uh.GetSettings)
		ug.Put("/settings", uh.UpdateSettings)
	}

	return app, db, rdb, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
