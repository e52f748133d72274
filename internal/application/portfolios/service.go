package portfolios

import (
	"context"
	"errors"
	"fmt"

	"github.com/Yubo0826/portfolio-backend/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("portfolio not found")
)

// Service manages portfolio CRUD. Deleting portfolios cascades to everything
// keyed under them, in one storage transaction.
type Service struct {
	DB *gorm.DB
}

// CreateInput carries the user-facing fields. DriftThreshold is a percentage
// (5 = 5%) at the API boundary and stored as a fraction.
type CreateInput struct {
	UID              string
	Name             string
	Description      *string
	DriftThreshold   *float64
	EnableEmailAlert bool
}

type UpdateInput struct {
	ID               uint
	Name             string
	Description      *string
	DriftThreshold   *float64
	EnableEmailAlert bool
}

func fractionFromPercent(p *float64) *float64 {
	if p == nil {
		return nil
	}
	f := *p / 100
	return &f
}

// PercentView converts the stored fraction back to percentage form for
// responses.
func PercentView(p *domain.Portfolio) *domain.Portfolio {
	if p != nil && p.DriftThreshold != nil {
		pct := *p.DriftThreshold * 100
		p.DriftThreshold = &pct
	}
	return p
}

func (s *Service) List(ctx context.Context, uid string) ([]domain.Portfolio, error) {
	var out []domain.Portfolio
	if err := s.DB.WithContext(ctx).Where("uid = ?", uid).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	for i := range out {
		PercentView(&out[i])
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Portfolio, error) {
	if in.UID == "" || in.Name == "" {
		return nil, fmt.Errorf("%w: uid and name are required", ErrValidation)
	}
	p := domain.Portfolio{
		UID:              in.UID,
		Name:             in.Name,
		Description:      in.Description,
		DriftThreshold:   fractionFromPercent(in.DriftThreshold),
		EnableEmailAlert: in.EnableEmailAlert,
	}
	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return PercentView(&p), nil
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (*domain.Portfolio, error) {
	if in.ID == 0 || in.Name == "" {
		return nil, fmt.Errorf("%w: id and name are required", ErrValidation)
	}
	var p domain.Portfolio
	err := s.DB.WithContext(ctx).First(&p, in.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Description = in.Description
	p.DriftThreshold = fractionFromPercent(in.DriftThreshold)
	p.EnableEmailAlert = in.EnableEmailAlert
	if err := s.DB.WithContext(ctx).Save(&p).Error; err != nil {
		return nil, err
	}
	return PercentView(&p), nil
}

// Delete removes the portfolios and everything keyed under them: holdings,
// transactions, dividends and allocations, plus cash-flow links to the
// portfolio. All ids must belong to uid.
func (s *Service) Delete(ctx context.Context, uid string, ids []uint) error {
	if uid == "" || len(ids) == 0 {
		return fmt.Errorf("%w: uid and ids are required", ErrValidation)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []domain.Portfolio
		if err := tx.Where("id IN ? AND uid = ?", ids, uid).Find(&owned).Error; err != nil {
			return err
		}
		if len(owned) != len(ids) {
			return ErrNotFound
		}

		if err := tx.Where("id IN ? AND uid = ?", ids, uid).Delete(&domain.Portfolio{}).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{
			&domain.Holding{}, &domain.Transaction{}, &domain.Dividend{}, &domain.Allocation{},
		} {
			if err := tx.Where("portfolio_id IN ? AND uid = ?", ids, uid).Delete(model).Error; err != nil {
				return err
			}
		}
		// Cash flows keep their account history but lose the portfolio link.
		return tx.Model(&domain.CashFlow{}).
			Where("portfolio_id IN ? AND uid = ?", ids, uid).
			Update("portfolio_id", nil).Error
	})
}
