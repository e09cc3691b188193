// Package seed reads catalogue data files.
package seed

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"tours/internal/domain/entity"

	"github.com/pkg/errors"
)

// tourRecord is one entry of the tours seed file.
type tourRecord struct {
	Name            string      `json:"name"`
	Slug            string      `json:"slug"`
	Duration        int         `json:"duration"`
	MaxGroupSize    int         `json:"maxGroupSize"`
	Difficulty      string      `json:"difficulty"`
	RatingsAverage  float64     `json:"ratingsAverage"`
	RatingsQuantity int         `json:"ratingsQuantity"`
	Price           float64     `json:"price"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description"`
	ImageCover      string      `json:"imageCover"`
	Images          []string    `json:"images"`
	StartDates      []time.Time `json:"startDates"`
}

// LoadToursFile reads the tours seed file at path.
func LoadToursFile(path string) ([]*entity.Tour, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open tours seed file")
	}
	defer f.Close()

	return DecodeTours(f, time.Now())
}

// DecodeTours decodes a JSON array of tours. Entries keep their file order
// through CreatedAt, counted in milliseconds from now.
func DecodeTours(r io.Reader, now time.Time) ([]*entity.Tour, error) {
	var records []tourRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decode tours seed")
	}

	tours := make([]*entity.Tour, 0, len(records))
	for i, rec := range records {
		difficulty := entity.Difficulty(rec.Difficulty)
		switch difficulty {
		case entity.DifficultyEasy, entity.DifficultyMedium, entity.DifficultyDifficult:
		default:
			return nil, errors.Errorf("tour %d (%s): unknown difficulty %q", i, rec.Name, rec.Difficulty)
		}

		tours = append(tours, &entity.Tour{
			Name:            rec.Name,
			Slug:            rec.Slug,
			Duration:        rec.Duration,
			MaxGroupSize:    rec.MaxGroupSize,
			Difficulty:      difficulty,
			RatingsAverage:  rec.RatingsAverage,
			RatingsQuantity: rec.RatingsQuantity,
			Price:           rec.Price,
			Summary:         rec.Summary,
			Description:     rec.Description,
			ImageCover:      rec.ImageCover,
			Images:          rec.Images,
			StartDates:      rec.StartDates,
			CreatedAt:       now.Add(time.Duration(i) * time.Millisecond),
		})
	}

	return tours, nil
}
