package drift

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Yubo0826/portfolio-backend/internal/application/emails"
	"github.com/Yubo0826/portfolio-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultThreshold applies when neither the portfolio nor the user set one.
const DefaultThreshold = 0.05

// Report is one symbol whose actual weight deviates from target beyond the
// threshold. Values are formatted percentages, matching the alert email.
type Report struct {
	Symbol    string `json:"symbol"`
	Target    string `json:"target"`
	Actual    string `json:"actual"`
	Deviation string `json:"deviation"`
}

// Service computes allocation drift and dispatches alerts.
type Service struct {
	DB     *gorm.DB
	Sender emails.Sender
}

// actualAllocations returns each holding's share of the portfolio's total
// market value (current_price x total_shares). Holdings without a price are
// skipped.
func (s *Service) actualAllocations(ctx context.Context, portfolioID uint) (map[string]float64, error) {
	var holdings []domain.Holding
	if err := s.DB.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Find(&holdings).Error; err != nil {
		return nil, err
	}

	totalValue := 0.0
	for _, h := range holdings {
		if h.CurrentPrice == nil || h.TotalShares == 0 {
			continue
		}
		totalValue += *h.CurrentPrice * h.TotalShares
	}

	actuals := make(map[string]float64, len(holdings))
	if totalValue == 0 {
		return actuals, nil
	}
	for _, h := range holdings {
		if h.CurrentPrice == nil || h.TotalShares == 0 {
			continue
		}
		actuals[h.Symbol] = *h.CurrentPrice * h.TotalShares / totalValue
	}
	return actuals, nil
}

// Check compares every allocation target of the portfolio against the actual
// weights; targets are stored as percentages and compared as fractions.
func (s *Service) Check(ctx context.Context, portfolioID uint, uid string, threshold float64) ([]Report, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var allocations []domain.Allocation
	if err := s.DB.WithContext(ctx).
		Where("portfolio_id = ? AND uid = ?", portfolioID, uid).
		Find(&allocations).Error; err != nil {
		return nil, err
	}

	actuals, err := s.actualAllocations(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	var drifts []Report
	for _, alloc := range allocations {
		target := alloc.Target / 100
		actual := actuals[alloc.Symbol]
		deviation := math.Abs(actual - target)
		if deviation > threshold {
			drifts = append(drifts, Report{
				Symbol:    alloc.Symbol,
				Target:    fmt.Sprintf("%.2f%%", target*100),
				Actual:    fmt.Sprintf("%.2f%%", actual*100),
				Deviation: fmt.Sprintf("%.2f%%", deviation*100),
			})
		}
	}
	return drifts, nil
}

// CheckAll runs the drift check for every portfolio, records an alert row for
// each finding and emails the owner when the portfolio opted in. Per-portfolio
// failures are logged and do not stop the sweep.
func (s *Service) CheckAll(ctx context.Context) error {
	var portfolios []domain.Portfolio
	if err := s.DB.WithContext(ctx).Find(&portfolios).Error; err != nil {
		return err
	}

	for _, p := range portfolios {
		threshold := DefaultThreshold
		if p.DriftThreshold != nil && *p.DriftThreshold > 0 {
			threshold = *p.DriftThreshold
		}

		drifts, err := s.Check(ctx, p.ID, p.UID, threshold)
		if err != nil {
			log.Error().Err(err).Uint("portfolio_id", p.ID).Msg("drift check failed")
			continue
		}
		if len(drifts) == 0 {
			continue
		}
		log.Info().
			Uint("portfolio_id", p.ID).
			Str("uid", p.UID).
			Int("drifts", len(drifts)).
			Bool("email_alert", p.EnableEmailAlert).
			Msg("portfolio drifted beyond threshold")

		emailed := false
		if p.EnableEmailAlert && s.Sender != nil {
			var user domain.User
			if err := s.DB.WithContext(ctx).Where("uid = ?", p.UID).First(&user).Error; err != nil {
				log.Error().Err(err).Str("uid", p.UID).Msg("drift alert: owner lookup failed")
			} else {
				subject := fmt.Sprintf("Portfolio %s drifted beyond your threshold", p.Name)
				html := AlertHTML(p.Name, drifts, threshold)
				if err := s.Sender.Send(ctx, user.Email, subject, html); err != nil {
					log.Error().Err(err).Str("email", user.Email).Msg("drift alert email failed")
				} else {
					emailed = true
				}
			}
		}

		payload, err := json.Marshal(drifts)
		if err != nil {
			return err
		}
		alert := domain.DriftAlert{
			UID:         p.UID,
			PortfolioID: p.ID,
			Threshold:   threshold,
			Drifts:      datatypes.JSON(payload),
			EmailSent:   emailed,
		}
		if err := s.DB.WithContext(ctx).Create(&alert).Error; err != nil {
			log.Error().Err(err).Uint("portfolio_id", p.ID).Msg("drift alert: record failed")
		}
	}
	return nil
}
