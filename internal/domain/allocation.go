package domain

import "time"

// Allocation is a target weight (percentage, e.g. 25 = 25%) for one symbol
// inside one portfolio. The set is replaced wholesale on update.
type Allocation struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID         string    `gorm:"column:uid;not null;index:idx_alloc_scope" json:"uid"`
	PortfolioID uint      `gorm:"column:portfolio_id;not null;index:idx_alloc_scope" json:"portfolio_id"`
	Symbol      string    `gorm:"column:symbol;not null" json:"symbol"`
	Name        string    `gorm:"column:name" json:"name"`
	Target      float64   `gorm:"column:target;type:decimal(5,2);not null" json:"target"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Allocation) TableName() string {
	return "allocation"
}
