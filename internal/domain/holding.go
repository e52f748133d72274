package domain

import "time"

// Holding is the derived aggregate position for one symbol inside one
// portfolio. Exactly one row exists per (uid, portfolio_id, symbol) while the
// net share sum over stored transactions is positive; the row is deleted when
// the position closes. Rows are owned by the ledger service and never edited
// directly.
type Holding struct {
	ID               uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID              string    `gorm:"column:uid;not null;uniqueIndex:idx_holding_key" json:"uid"`
	PortfolioID      uint      `gorm:"column:portfolio_id;not null;uniqueIndex:idx_holding_key" json:"portfolio_id"`
	Symbol           string    `gorm:"column:symbol;not null;uniqueIndex:idx_holding_key" json:"symbol"`
	Name             string    `gorm:"column:name" json:"name"`
	AssetType        string    `gorm:"column:asset_type" json:"asset_type"`
	TotalShares      float64   `gorm:"column:total_shares;type:decimal(18,4);not null" json:"total_shares"`
	AvgCost          float64   `gorm:"column:avg_cost;type:decimal(18,2);not null" json:"avg_cost"`
	CurrentPrice     *float64  `gorm:"column:current_price;type:decimal(18,4)" json:"current_price"`
	TargetPercentage *float64  `gorm:"column:target_percentage;type:decimal(5,2)" json:"target_percentage"`
	LastUpdated      time.Time `gorm:"column:last_updated;not null" json:"last_updated"`
}

func (Holding) TableName() string {
	return "holdings"
}
