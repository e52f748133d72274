package portfolios

import (
	"context"
	"testing"
	"time"

	"github.com/Yubo0826/portfolio-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPortfolios(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Portfolio{}, &domain.Holding{}, &domain.Transaction{},
		&domain.Dividend{}, &domain.Allocation{}, &domain.CashAccount{}, &domain.CashFlow{},
	))
	return &Service{DB: db}, db
}

func TestCreate_StoresThresholdAsFraction(t *testing.T) {
	svc, db := setupPortfolios(t)
	threshold := 5.0
	p, err := svc.Create(context.Background(), CreateInput{
		UID: "u1", Name: "Core", DriftThreshold: &threshold,
	})
	require.NoError(t, err)
	// Response echoes the percentage form.
	require.NotNil(t, p.DriftThreshold)
	assert.InDelta(t, 5.0, *p.DriftThreshold, 1e-9)

	var stored domain.Portfolio
	require.NoError(t, db.First(&stored, p.ID).Error)
	require.NotNil(t, stored.DriftThreshold)
	assert.InDelta(t, 0.05, *stored.DriftThreshold, 1e-9)
}

func TestCreate_RequiresUIDAndName(t *testing.T) {
	svc, _ := setupPortfolios(t)
	_, err := svc.Create(context.Background(), CreateInput{UID: "u1"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(context.Background(), CreateInput{Name: "Core"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdate_UnknownIDIsNotFound(t *testing.T) {
	svc, _ := setupPortfolios(t)
	_, err := svc.Update(context.Background(), UpdateInput{ID: 99, Name: "Core"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_CascadesOwnedData(t *testing.T) {
	svc, db := setupPortfolios(t)
	p, err := svc.Create(context.Background(), CreateInput{UID: "u1", Name: "Core"})
	require.NoError(t, err)

	require.NoError(t, db.Create(&domain.Holding{
		UID: "u1", PortfolioID: p.ID, Symbol: "AAPL", TotalShares: 10, AvgCost: 100,
	}).Error)
	require.NoError(t, db.Create(&domain.Transaction{
		UID: "u1", PortfolioID: p.ID, Symbol: "AAPL", Shares: 10, Price: 100,
		TransactionType: domain.TxBuy, TransactionDate: time.Now(),
	}).Error)
	require.NoError(t, db.Create(&domain.Allocation{
		UID: "u1", PortfolioID: p.ID, Symbol: "AAPL", Target: 100,
	}).Error)
	account := domain.CashAccount{UID: "u1", Name: "Broker", Balance: 100}
	require.NoError(t, db.Create(&account).Error)
	pid := p.ID
	require.NoError(t, db.Create(&domain.CashFlow{
		UID: "u1", AccountID: account.ID, PortfolioID: &pid, Amount: -100,
		FlowType: domain.FlowStockBuy, Date: time.Now(),
	}).Error)

	require.NoError(t, svc.Delete(context.Background(), "u1", []uint{p.ID}))

	for _, model := range []interface{}{
		&domain.Portfolio{}, &domain.Holding{}, &domain.Transaction{}, &domain.Allocation{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Equal(t, int64(0), count, "expected no rows left in %T", model)
	}

	// The flow survives but loses its portfolio link.
	var flow domain.CashFlow
	require.NoError(t, db.First(&flow).Error)
	assert.Nil(t, flow.PortfolioID)
}

func TestDelete_RejectsForeignPortfolio(t *testing.T) {
	svc, _ := setupPortfolios(t)
	p, err := svc.Create(context.Background(), CreateInput{UID: "u1", Name: "Core"})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "u2", []uint{p.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}
