package domain

import "time"

// CashAccount is a user cash balance (brokerage cash, bank account, ...).
// Currency is recorded as entered; no conversion is performed.
type CashAccount struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID         string    `gorm:"column:uid;not null;index" json:"uid"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Balance     float64   `gorm:"column:balance;type:decimal(18,2);not null;default:0" json:"balance"`
	Currency    string    `gorm:"column:currency;type:varchar(10);not null;default:USD" json:"currency"`
	Description *string   `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (CashAccount) TableName() string {
	return "cash_accounts"
}
