package domain

import (
	"time"

	"gorm.io/datatypes"
)

// DriftAlert records one drift-check finding for a portfolio. Drifts holds the
// per-symbol report rows as JSON so the alert history survives later
// allocation changes.
type DriftAlert struct {
	ID          uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID         string         `gorm:"column:uid;not null;index" json:"uid"`
	PortfolioID uint           `gorm:"column:portfolio_id;not null;index" json:"portfolio_id"`
	Threshold   float64        `gorm:"column:threshold;type:decimal(5,4);not null" json:"threshold"`
	Drifts      datatypes.JSON `gorm:"column:drifts" json:"drifts"`
	EmailSent   bool           `gorm:"column:email_sent;not null;default:false" json:"email_sent"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (DriftAlert) TableName() string {
	return "drift_alerts"
}
