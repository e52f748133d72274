package bootstrap

import (
	"github.com/Yubo0826/portfolio-backend/internal/config"
	"github.com/Yubo0826/portfolio-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for embedding (serverless handlers import this
// package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
