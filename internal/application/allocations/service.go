package allocations

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Yubo0826/portfolio-backend/internal/domain"

	"gorm.io/gorm"
)

var ErrValidation = errors.New("validation error")

// Service manages the target allocation of a portfolio. Updates replace the
// whole set and mirror the new targets onto the matching holdings.
type Service struct {
	DB *gorm.DB
}

// Asset is one target row as the API sends it; Target is a percentage
// (25 = 25%).
type Asset struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Target float64 `json:"target"`
}

func (s *Service) List(ctx context.Context, uid string, portfolioID uint) ([]domain.Allocation, error) {
	if uid == "" || portfolioID == 0 {
		return nil, fmt.Errorf("%w: uid and portfolio_id are required", ErrValidation)
	}
	var out []domain.Allocation
	if err := s.DB.WithContext(ctx).
		Where("uid = ? AND portfolio_id = ?", uid, portfolioID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Target = math.Round(out[i].Target*100) / 100
	}
	return out, nil
}

// Replace deletes the existing allocation set and installs assets in its
// place, syncing target_percentage onto the holdings of the same symbols. An
// empty asset list just clears the allocations.
func (s *Service) Replace(ctx context.Context, uid string, portfolioID uint, assets []Asset) ([]domain.Allocation, error) {
	if uid == "" || portfolioID == 0 {
		return nil, fmt.Errorf("%w: uid and portfolio_id are required", ErrValidation)
	}

	var created []domain.Allocation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("uid = ? AND portfolio_id = ?", uid, portfolioID).
			Delete(&domain.Allocation{}).Error; err != nil {
			return err
		}
		if len(assets) == 0 {
			return nil
		}

		created = make([]domain.Allocation, len(assets))
		for i, a := range assets {
			created[i] = domain.Allocation{
				UID:         uid,
				PortfolioID: portfolioID,
				Symbol:      a.Symbol,
				Name:        a.Name,
				Target:      a.Target,
			}
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		for _, a := range assets {
			if err := tx.Model(&domain.Holding{}).
				Where("uid = ? AND portfolio_id = ? AND symbol = ?", uid, portfolioID, a.Symbol).
				Update("target_percentage", a.Target).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
