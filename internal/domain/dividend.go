package domain

import "time"

// Dividend is one distribution event for a symbol the user held on the
// ex-dividend date. Shares is the net position held at that date; Amount is
// the per-share payout.
type Dividend struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID         string    `gorm:"column:uid;not null;index:idx_dividend_scope" json:"uid"`
	PortfolioID uint      `gorm:"column:portfolio_id;not null;index:idx_dividend_scope" json:"portfolio_id"`
	Symbol      string    `gorm:"column:symbol;not null;index:idx_dividend_scope" json:"symbol"`
	Name        string    `gorm:"column:name" json:"name"`
	Shares      float64   `gorm:"column:shares;type:decimal(18,4);not null" json:"shares"`
	Amount      float64   `gorm:"column:amount;type:decimal(18,6);not null" json:"amount"`
	Date        time.Time `gorm:"column:date;not null" json:"date"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Dividend) TableName() string {
	return "dividends"
}
