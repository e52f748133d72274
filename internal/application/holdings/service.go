package holdings

import (
	"context"

	"github.com/Yubo0826/portfolio-backend/internal/domain"
	"github.com/Yubo0826/portfolio-backend/internal/infrastructure/marketdata"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service encapsulates read and refresh operations on derived holdings.
// Mutation of share counts and cost basis belongs to the ledger service.
type Service struct {
	DB     *gorm.DB
	Quotes marketdata.Quotes
}

// View returns holdings for a user, optionally scoped to one portfolio.
func (s *Service) View(ctx context.Context, uid string, portfolioID *uint) ([]domain.Holding, error) {
	q := s.DB.WithContext(ctx).Where("uid = ?", uid)
	if portfolioID != nil {
		q = q.Where("portfolio_id = ?", *portfolioID)
	}
	var holdings []domain.Holding
	if err := q.Order("symbol ASC").Find(&holdings).Error; err != nil {
		return nil, err
	}
	return holdings, nil
}

// RefreshPrices fetches the latest price for every holding in the portfolio
// and stores it as current_price. A symbol whose quote fails is skipped and
// logged; one bad ticker must not block the rest.
func (s *Service) RefreshPrices(ctx context.Context, uid string, portfolioID uint) (int, error) {
	var holdings []domain.Holding
	if err := s.DB.WithContext(ctx).
		Where("uid = ? AND portfolio_id = ?", uid, portfolioID).
		Find(&holdings).Error; err != nil {
		return 0, err
	}

	updated := 0
	for i := range holdings {
		price, err := s.Quotes.LatestPrice(ctx, holdings[i].Symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", holdings[i].Symbol).Msg("quote fetch failed, keeping stale price")
			continue
		}
		if err := s.DB.WithContext(ctx).Model(&holdings[i]).
			Update("current_price", price).Error; err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
