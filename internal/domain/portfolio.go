package domain

import "time"

// Portfolio groups transactions, holdings and allocations for one user.
// DriftThreshold is stored as a fraction (0.05 = 5%); the API layer converts
// to/from percentage form.
type Portfolio struct {
	ID               uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID              string    `gorm:"column:uid;not null;index" json:"uid"`
	Name             string    `gorm:"column:name;not null" json:"name"`
	Description      *string   `gorm:"column:description" json:"description"`
	DriftThreshold   *float64  `gorm:"column:drift_threshold;type:decimal(5,4)" json:"drift_threshold"`
	EnableEmailAlert bool      `gorm:"column:enable_email_alert;not null;default:false" json:"enable_email_alert"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}
