package jobs

import (
	"context"
	"time"

	driftsvc "github.com/Yubo0826/portfolio-backend/internal/application/drift"
	holdsvc "github.com/Yubo0826/portfolio-backend/internal/application/holdings"
	"github.com/Yubo0826/portfolio-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DailyCheck refreshes every holding's current price and then runs the
// drift sweep. Scheduled at midnight by default.
type DailyCheck struct {
	DB       *gorm.DB
	Holdings *holdsvc.Service
	Drift    *driftsvc.Service
	Timeout  time.Duration
}

func (j *DailyCheck) Name() string { return "daily-portfolio-check" }

func (j *DailyCheck) Run() error {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info().Msg("daily check: refreshing holdings and checking drift")

	var portfolios []domain.Portfolio
	if err := j.DB.WithContext(ctx).Find(&portfolios).Error; err != nil {
		return err
	}
	for _, p := range portfolios {
		updated, err := j.Holdings.RefreshPrices(ctx, p.UID, p.ID)
		if err != nil {
			log.Error().Err(err).Uint("portfolio_id", p.ID).Msg("daily check: price refresh failed")
			continue
		}
		log.Debug().Uint("portfolio_id", p.ID).Int("updated", updated).Msg("daily check: prices refreshed")
	}

	return j.Drift.CheckAll(ctx)
}
