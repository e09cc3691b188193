package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Difficulty grades how demanding a tour is.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Tour is a bookable trip shown on the overview and detail pages.
type Tour struct {
	ID              uuid.UUID
	Name            string
	Slug            string
	Duration        int // days
	MaxGroupSize    int
	Difficulty      Difficulty
	RatingsAverage  float64
	RatingsQuantity int
	Price           float64
	Summary         string
	Description     string
	ImageCover      string
	Images          []string
	StartDates      []time.Time
	CreatedAt       time.Time
}

// Clone returns a deep copy of the tour.
func (t *Tour) Clone() *Tour {
	if t == nil {
		return nil
	}

	cloned := *t
	cloned.Images = slices.Clone(t.Images)
	cloned.StartDates = slices.Clone(t.StartDates)

	return &cloned
}
