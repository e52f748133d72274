package domain

import "time"

// User is an account holder. UID comes from the external auth provider, so
// it is the primary key rather than a generated id.
type User struct {
	UID            string    `gorm:"column:uid;primaryKey" json:"uid"`
	Email          string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	DisplayName    *string   `gorm:"column:display_name" json:"display_name"`
	DriftThreshold *float64  `gorm:"column:drift_threshold;type:decimal(5,4)" json:"drift_threshold"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
