package allocations

import (
	"context"
	"testing"

	"github.com/Yubo0826/portfolio-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAllocations(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Allocation{}, &domain.Holding{}))
	return &Service{DB: db}, db
}

func TestReplace_InstallsNewSet(t *testing.T) {
	svc, db := setupAllocations(t)

	created, err := svc.Replace(context.Background(), "u1", 1, []Asset{
		{Symbol: "AAPL", Name: "Apple Inc.", Target: 60},
		{Symbol: "MSFT", Name: "Microsoft", Target: 40},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	var rows []domain.Allocation
	require.NoError(t, db.Order("symbol ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "AAPL", rows[0].Symbol)
	assert.InDelta(t, 60.0, rows[0].Target, 1e-9)
}

func TestReplace_DiscardsPreviousSet(t *testing.T) {
	svc, db := setupAllocations(t)

	_, err := svc.Replace(context.Background(), "u1", 1, []Asset{{Symbol: "AAPL", Target: 100}})
	require.NoError(t, err)
	_, err = svc.Replace(context.Background(), "u1", 1, []Asset{{Symbol: "VTI", Target: 100}})
	require.NoError(t, err)

	var rows []domain.Allocation
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "VTI", rows[0].Symbol)
}

func TestReplace_SyncsHoldingTargets(t *testing.T) {
	svc, db := setupAllocations(t)
	require.NoError(t, db.Create(&domain.Holding{
		UID: "u1", PortfolioID: 1, Symbol: "AAPL", TotalShares: 10, AvgCost: 100,
	}).Error)

	_, err := svc.Replace(context.Background(), "u1", 1, []Asset{{Symbol: "AAPL", Target: 35}})
	require.NoError(t, err)

	var h domain.Holding
	require.NoError(t, db.Where("symbol = ?", "AAPL").First(&h).Error)
	require.NotNil(t, h.TargetPercentage)
	assert.InDelta(t, 35.0, *h.TargetPercentage, 1e-9)
}

func TestReplace_EmptyListClears(t *testing.T) {
	svc, db := setupAllocations(t)
	_, err := svc.Replace(context.Background(), "u1", 1, []Asset{{Symbol: "AAPL", Target: 100}})
	require.NoError(t, err)

	created, err := svc.Replace(context.Background(), "u1", 1, nil)
	require.NoError(t, err)
	assert.Empty(t, created)

	var count int64
	require.NoError(t, db.Model(&domain.Allocation{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestReplace_ScopedToOwner(t *testing.T) {
	svc, db := setupAllocations(t)
	_, err := svc.Replace(context.Background(), "u1", 1, []Asset{{Symbol: "AAPL", Target: 100}})
	require.NoError(t, err)
	_, err = svc.Replace(context.Background(), "u2", 1, []Asset{{Symbol: "MSFT", Target: 100}})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.Allocation{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestList_RequiresScope(t *testing.T) {
	svc, _ := setupAllocations(t)
	_, err := svc.List(context.Background(), "", 1)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.List(context.Background(), "u1", 0)
	assert.ErrorIs(t, err, ErrValidation)
}
