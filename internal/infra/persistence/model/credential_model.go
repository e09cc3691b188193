// Package model holds the relational persistence shapes mapped by GORM.
package model

import (
	"time"

	"github.com/google/uuid"
)

// CredentialModel mirrors the 'credentials' table.
type CredentialModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email    string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name     string    `gorm:"type:varchar(100)"`
	Photo    string    `gorm:"type:varchar(255);default:default.jpg"`
	Role     string    `gorm:"type:varchar(16);not null;default:user"`
	Password string    `gorm:"column:password_hash;type:varchar(72)"`

	PasswordChangedAt      *time.Time
	PasswordResetDigest    *string    `gorm:"type:char(64);uniqueIndex"`
	PasswordResetExpiresAt *time.Time `gorm:"index"`

	Version   int64 `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (CredentialModel) TableName() string {
	return "credentials"
}
