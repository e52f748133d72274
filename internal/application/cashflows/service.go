package cashflows

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Yubo0826/portfolio-backend/internal/domain"
	"github.com/Yubo0826/portfolio-backend/internal/pkg/validation"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("cash account not found")
	// ErrAccountInUse blocks deleting an account that still has flow history.
	ErrAccountInUse = errors.New("cash account has existing cash flow records")
)

// Service manages cash accounts and their flow history.
type Service struct {
	DB *gorm.DB
}

// ---- accounts ----

type AccountInput struct {
	UID         string
	Name        string
	Balance     float64
	Currency    string
	Description *string
}

// ListAccounts returns the user's accounts (newest first) and their summed
// balance.
func (s *Service) ListAccounts(ctx context.Context, uid string) ([]domain.CashAccount, float64, error) {
	if uid == "" {
		return nil, 0, fmt.Errorf("%w: uid is required", ErrValidation)
	}
	var accounts []domain.CashAccount
	if err := s.DB.WithContext(ctx).
		Where("uid = ?", uid).
		Order("created_at DESC").
		Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	total := 0.0
	for _, a := range accounts {
		total += a.Balance
	}
	return accounts, total, nil
}

func (s *Service) CreateAccount(ctx context.Context, in AccountInput) (*domain.CashAccount, error) {
	if in.UID == "" || in.Name == "" {
		return nil, fmt.Errorf("%w: uid and name are required", ErrValidation)
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}
	account := domain.CashAccount{
		UID:         in.UID,
		Name:        in.Name,
		Balance:     in.Balance,
		Currency:    currency,
		Description: in.Description,
	}
	if err := s.DB.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Service) findOwnedAccount(ctx context.Context, id uint, uid string) (*domain.CashAccount, error) {
	var account domain.CashAccount
	err := s.DB.WithContext(ctx).Where("id = ? AND uid = ?", id, uid).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccount patches the provided fields only, after an ownership check.
func (s *Service) UpdateAccount(ctx context.Context, id uint, uid string, name, currency *string, balance *float64, description *string) (*domain.CashAccount, error) {
	account, err := s.findOwnedAccount(ctx, id, uid)
	if err != nil {
		return nil, err
	}
	if name != nil {
		account.Name = *name
	}
	if balance != nil {
		account.Balance = *balance
	}
	if currency != nil {
		account.Currency = *currency
	}
	if description != nil {
		account.Description = description
	}
	if err := s.DB.WithContext(ctx).Save(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes an account without flow history; accounts with flows
// are kept so the history stays auditable.
func (s *Service) DeleteAccount(ctx context.Context, id uint, uid string) error {
	account, err := s.findOwnedAccount(ctx, id, uid)
	if err != nil {
		return err
	}
	var related int64
	if err := s.DB.WithContext(ctx).Model(&domain.CashFlow{}).
		Where("account_id = ?", id).Count(&related).Error; err != nil {
		return err
	}
	if related > 0 {
		return fmt.Errorf("%w: %d records", ErrAccountInUse, related)
	}
	return s.DB.WithContext(ctx).Delete(account).Error
}

// AccountDetail is an account plus its most recent flows.
type AccountDetail struct {
	domain.CashAccount
	CashFlows []domain.CashFlow `json:"cash_flows"`
}

func (s *Service) GetAccount(ctx context.Context, id uint, uid string) (*AccountDetail, error) {
	account, err := s.findOwnedAccount(ctx, id, uid)
	if err != nil {
		return nil, err
	}
	var flows []domain.CashFlow
	if err := s.DB.WithContext(ctx).
		Where("account_id = ?", id).
		Order("date DESC").
		Limit(10).
		Find(&flows).Error; err != nil {
		return nil, err
	}
	return &AccountDetail{CashAccount: *account, CashFlows: flows}, nil
}

// ---- flows ----

// FlowFilter narrows the flow listing; zero values mean "no filter".
type FlowFilter struct {
	UID         string
	PortfolioID *uint
	AccountID   *uint
	FlowType    string
	StartDate   *time.Time
	EndDate     *time.Time
	Page        int
	Limit       int
}

// Pagination echoes the request paging plus totals.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func (s *Service) ListFlows(ctx context.Context, f FlowFilter) ([]domain.CashFlow, *Pagination, error) {
	if f.UID == "" {
		return nil, nil, fmt.Errorf("%w: uid is required", ErrValidation)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}

	q := s.DB.WithContext(ctx).Model(&domain.CashFlow{}).Where("uid = ?", f.UID)
	if f.PortfolioID != nil {
		q = q.Where("portfolio_id = ?", *f.PortfolioID)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.FlowType != "" {
		q = q.Where("flow_type = ?", f.FlowType)
	}
	if f.StartDate != nil {
		q = q.Where("date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("date <= ?", *f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var flows []domain.CashFlow
	if err := q.Order("date DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&flows).Error; err != nil {
		return nil, nil, err
	}

	return flows, &Pagination{
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(f.Limit))),
	}, nil
}

type FlowInput struct {
	UID         string
	AccountID   uint
	PortfolioID *uint
	Amount      float64
	FlowType    string
	Description *string
	Date        time.Time
}

// CreateFlow records a manual flow against an owned account and adjusts the
// balance in the same storage transaction.
func (s *Service) CreateFlow(ctx context.Context, in FlowInput) (*domain.CashFlow, error) {
	if in.UID == "" || in.AccountID == 0 || in.Amount == 0 || in.Date.IsZero() {
		return nil, fmt.Errorf("%w: uid, account_id, amount and date are required", ErrValidation)
	}
	if !validation.IsValidFlowType(in.FlowType) {
		return nil, fmt.Errorf("%w: unknown flow_type %q", ErrValidation, in.FlowType)
	}

	var flow domain.CashFlow
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account domain.CashAccount
		err := tx.Where("id = ? AND uid = ?", in.AccountID, in.UID).First(&account).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		flow = domain.CashFlow{
			UID:         in.UID,
			AccountID:   in.AccountID,
			PortfolioID: in.PortfolioID,
			Amount:      in.Amount,
			FlowType:    in.FlowType,
			Description: in.Description,
			Date:        in.Date,
		}
		if err := tx.Create(&flow).Error; err != nil {
			return err
		}

		account.Balance = math.Round((account.Balance+in.Amount)*100) / 100
		return tx.Save(&account).Error
	})
	if err != nil {
		return nil, err
	}
	return &flow, nil
}

// TypeStat aggregates flows of one type.
type TypeStat struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Stats summarizes a user's flows.
type Stats struct {
	TotalInflow  float64             `json:"total_inflow"`
	TotalOutflow float64             `json:"total_outflow"`
	NetFlow      float64             `json:"net_flow"`
	ByType       map[string]TypeStat `json:"by_type"`
}

func (s *Service) FlowStats(ctx context.Context, uid string, portfolioID *uint) (*Stats, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrValidation)
	}
	q := s.DB.WithContext(ctx).Where("uid = ?", uid)
	if portfolioID != nil {
		q = q.Where("portfolio_id = ?", *portfolioID)
	}
	var flows []domain.CashFlow
	if err := q.Find(&flows).Error; err != nil {
		return nil, err
	}

	stats := Stats{ByType: map[string]TypeStat{}}
	for _, flow := range flows {
		if flow.Amount > 0 {
			stats.TotalInflow += flow.Amount
		} else {
			stats.TotalOutflow += math.Abs(flow.Amount)
		}
		entry := stats.ByType[flow.FlowType]
		entry.Count++
		entry.Total += flow.Amount
		stats.ByType[flow.FlowType] = entry
	}
	stats.NetFlow = stats.TotalInflow - stats.TotalOutflow
	return &stats, nil
}

// BackfillDividends books a dividend cash flow for every dividend recorded
// since the last dividend flow, crediting accountID (or the user's oldest
// account when zero). Returns the flows created.
func (s *Service) BackfillDividends(ctx context.Context, uid string, portfolioID uint, accountID uint) ([]domain.CashFlow, error) {
	if uid == "" || portfolioID == 0 {
		return nil, fmt.Errorf("%w: uid and portfolio_id are required", ErrValidation)
	}

	var created []domain.CashFlow
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account domain.CashAccount
		if accountID != 0 {
			err := tx.Where("id = ? AND uid = ?", accountID, uid).First(&account).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
		} else {
			err := tx.Where("uid = ?", uid).Order("created_at ASC").First(&account).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
		}

		// Only dividends recorded after the last booked dividend flow.
		var last domain.CashFlow
		after := time.Time{}
		err := tx.Where("uid = ? AND portfolio_id = ? AND flow_type = ?", uid, portfolioID, domain.FlowDividend).
			Order("created_at DESC").First(&last).Error
		if err == nil {
			after = last.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var dividends []domain.Dividend
		if err := tx.Where("uid = ? AND portfolio_id = ? AND created_at > ?", uid, portfolioID, after).
			Find(&dividends).Error; err != nil {
			return err
		}

		for _, d := range dividends {
			total := math.Round(d.Amount*d.Shares*100) / 100
			description := fmt.Sprintf("%s dividend (%g shares x $%g)", d.Symbol, d.Shares, d.Amount)
			flow := domain.CashFlow{
				UID:               uid,
				AccountID:         account.ID,
				PortfolioID:       &portfolioID,
				Amount:            total,
				FlowType:          domain.FlowDividend,
				Description:       &description,
				Date:              d.Date,
				RelatedDividendID: &d.ID,
				RelatedSymbol:     &d.Symbol,
			}
			if err := tx.Create(&flow).Error; err != nil {
				return err
			}
			account.Balance = math.Round((account.Balance+total)*100) / 100
			created = append(created, flow)
		}
		if len(created) > 0 {
			return tx.Save(&account).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
