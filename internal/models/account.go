package models

import "time"

// Account is a registered user of the platform.
type Account struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	Company   string    `json:"company" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Account) TableName() string {
	return "accounts"
}
