package domain

import "time"

// Cash flow types.
const (
	FlowDeposit    = "deposit"
	FlowWithdrawal = "withdrawal"
	FlowStockBuy   = "stock_buy"
	FlowStockSell  = "stock_sell"
	FlowDividend   = "dividend"
)

// CashFlow is one movement on a cash account. Amount is signed: outflows
// (buys, withdrawals) are negative, inflows positive.
type CashFlow struct {
	ID                   uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID                  string    `gorm:"column:uid;not null;index" json:"uid"`
	AccountID            uint      `gorm:"column:account_id;not null;index" json:"account_id"`
	PortfolioID          *uint     `gorm:"column:portfolio_id;index" json:"portfolio_id"`
	Amount               float64   `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	FlowType             string    `gorm:"column:flow_type;type:varchar(20);not null" json:"flow_type"`
	Description          *string   `gorm:"column:description" json:"description"`
	Date                 time.Time `gorm:"column:date;not null" json:"date"`
	RelatedTransactionID *uint     `gorm:"column:related_transaction_id" json:"related_transaction_id"`
	RelatedDividendID    *uint     `gorm:"column:related_dividend_id" json:"related_dividend_id"`
	RelatedSymbol        *string   `gorm:"column:related_symbol" json:"related_symbol"`
	CreatedAt            time.Time `gorm:"column:created_at" json:"created_at"`
}

func (CashFlow) TableName() string {
	return "cash_flows"
}
