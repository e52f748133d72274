package domain

import "time"

// Transaction types, stored lowercase.
const (
	TxBuy  = "buy"
	TxSell = "sell"
)

// Transaction is one recorded buy or sell. Rows are only mutated through the
// ledger service so the derived holdings stay consistent.
type Transaction struct {
	ID              uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID             string    `gorm:"column:uid;not null;index:idx_tx_scope" json:"uid"`
	PortfolioID     uint      `gorm:"column:portfolio_id;not null;index:idx_tx_scope" json:"portfolio_id"`
	Symbol          string    `gorm:"column:symbol;not null;index:idx_tx_scope" json:"symbol"`
	Name            string    `gorm:"column:name" json:"name"`
	AssetType       string    `gorm:"column:asset_type" json:"asset_type"`
	Shares          float64   `gorm:"column:shares;type:decimal(18,4);not null" json:"shares"`
	Price           float64   `gorm:"column:price;type:decimal(18,4);not null" json:"price"`
	Fee             float64   `gorm:"column:fee;type:decimal(18,2);not null;default:0" json:"fee"`
	TransactionType string    `gorm:"column:transaction_type;type:varchar(10);not null" json:"transaction_type"`
	TransactionDate time.Time `gorm:"column:transaction_date;not null" json:"transaction_date"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
