package model

import (
	"time"

	"github.com/google/uuid"
)

// TourModel mirrors the 'tours' table. List columns are stored as JSON.
type TourModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"type:varchar(40);uniqueIndex;not null"`
	Slug            string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Duration        int       `gorm:"not null"`
	MaxGroupSize    int       `gorm:"not null"`
	Difficulty      string    `gorm:"type:varchar(16);not null"`
	RatingsAverage  float64   `gorm:"default:4.5"`
	RatingsQuantity int
	Price           float64     `gorm:"not null"`
	Summary         string      `gorm:"type:text"`
	Description     string      `gorm:"type:text"`
	ImageCover      string      `gorm:"type:varchar(255)"`
	Images          []string    `gorm:"serializer:json"`
	StartDates      []time.Time `gorm:"serializer:json"`
	CreatedAt       time.Time
}

// TableName explicitly sets the table name for GORM.
func (TourModel) TableName() string {
	return "tours"
}
