package model

import "time"

// User is a dev-server account. The password column stores a bcrypt hash.
type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Login     string `gorm:"uniqueIndex;size:255;not null"`
	Password  string `gorm:"not null"`
	CreatedAt time.Time
}
