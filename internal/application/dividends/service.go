package dividends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yubo0826/portfolio-backend/internal/domain"
	"github.com/Yubo0826/portfolio-backend/internal/infrastructure/marketdata"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrValidation = errors.New("validation error")

// Service keeps the per-portfolio dividend history synced from the price
// feed's distribution events.
type Service struct {
	DB     *gorm.DB
	Quotes marketdata.Quotes
}

func (s *Service) List(ctx context.Context, uid string, portfolioID uint) ([]domain.Dividend, error) {
	if uid == "" || portfolioID == 0 {
		return nil, fmt.Errorf("%w: uid and portfolio_id are required", ErrValidation)
	}
	var out []domain.Dividend
	if err := s.DB.WithContext(ctx).
		Where("uid = ? AND portfolio_id = ?", uid, portfolioID).
		Order("date DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// symbolStart tracks the earliest purchase date per symbol, the window start
// for fetching distribution events.
type symbolStart struct {
	date time.Time
	name string
}

// Sync fetches distribution events for every symbol the portfolio ever
// transacted, from its first transaction date to now, and inserts the ones not
// recorded yet. Shares credited per event equal the net position held on the
// event date. Upstream failures for one symbol are logged and skipped.
func (s *Service) Sync(ctx context.Context, uid string, portfolioID uint) error {
	if uid == "" || portfolioID == 0 {
		return fmt.Errorf("%w: uid and portfolio_id are required", ErrValidation)
	}

	var transactions []domain.Transaction
	if err := s.DB.WithContext(ctx).
		Where("uid = ? AND portfolio_id = ?", uid, portfolioID).
		Order("transaction_date ASC").
		Find(&transactions).Error; err != nil {
		return err
	}

	starts := map[string]symbolStart{}
	for _, tx := range transactions {
		entry, ok := starts[tx.Symbol]
		if !ok || tx.TransactionDate.Before(entry.date) {
			starts[tx.Symbol] = symbolStart{date: tx.TransactionDate, name: tx.Name}
		}
	}

	now := time.Now()
	for symbol, start := range starts {
		events, err := s.Quotes.Dividends(ctx, symbol, start.date, now)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("dividend sync: fetch failed")
			continue
		}
		for _, ev := range events {
			held := sharesHeldAt(transactions, symbol, ev.Date)
			if held <= 0 {
				continue
			}

			var existing domain.Dividend
			err := s.DB.WithContext(ctx).
				Where("uid = ? AND portfolio_id = ? AND symbol = ? AND date = ?", uid, portfolioID, symbol, ev.Date).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			dividend := domain.Dividend{
				UID:         uid,
				PortfolioID: portfolioID,
				Symbol:      symbol,
				Name:        start.name,
				Shares:      held,
				Amount:      ev.Amount,
				Date:        ev.Date,
			}
			if err := s.DB.WithContext(ctx).Create(&dividend).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// sharesHeldAt is the net signed position in symbol across transactions dated
// on or before at.
func sharesHeldAt(transactions []domain.Transaction, symbol string, at time.Time) float64 {
	total := 0.0
	for _, tx := range transactions {
		if tx.Symbol != symbol || tx.TransactionDate.After(at) {
			continue
		}
		if tx.TransactionType == domain.TxBuy {
			total += tx.Shares
		} else {
			total -= tx.Shares
		}
	}
	return total
}
