package mongo

import (
	"time"

	"tours/internal/domain/entity"

	"github.com/google/uuid"
)

// credentialDocument is the stored shape of a credential in the users collection.
// Reset fields are omitted entirely while no reset is outstanding.
type credentialDocument struct {
	ID       string `bson:"_id"`
	Email    string `bson:"email"`
	Name     string `bson:"name"`
	Photo    string `bson:"photo,omitempty"`
	Role     string `bson:"role"`
	Password string `bson:"password,omitempty"`

	PasswordChangedAt    *time.Time `bson:"passwordChangedAt,omitempty"`
	PasswordResetToken   string     `bson:"passwordResetToken,omitempty"`
	PasswordResetExpires *time.Time `bson:"passwordResetExpires,omitempty"`

	Version   int64     `bson:"version"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// tourDocument is the stored shape of a tour.
type tourDocument struct {
	ID              string      `bson:"_id"`
	Name            string      `bson:"name"`
	Slug            string      `bson:"slug"`
	Duration        int         `bson:"duration"`
	MaxGroupSize    int         `bson:"maxGroupSize"`
	Difficulty      string      `bson:"difficulty"`
	RatingsAverage  float64     `bson:"ratingsAverage"`
	RatingsQuantity int         `bson:"ratingsQuantity"`
	Price           float64     `bson:"price"`
	Summary         string      `bson:"summary"`
	Description     string      `bson:"description,omitempty"`
	ImageCover      string      `bson:"imageCover"`
	Images          []string    `bson:"images,omitempty"`
	StartDates      []time.Time `bson:"startDates,omitempty"`
	CreatedAt       time.Time   `bson:"createdAt"`
}

func toCredentialDocument(c *entity.Credential) *credentialDocument {
	return &credentialDocument{
		ID:                   c.ID.String(),
		Email:                c.Email,
		Name:                 c.Name,
		Photo:                c.Photo,
		Role:                 c.Role.OrDefault().String(),
		Password:             c.PasswordHash,
		PasswordChangedAt:    utcPtr(c.PasswordChangedAt),
		PasswordResetToken:   c.PasswordResetDigest,
		PasswordResetExpires: utcPtr(c.PasswordResetExpiresAt),
		Version:              c.Version,
		CreatedAt:            c.CreatedAt.UTC(),
		UpdatedAt:            c.UpdatedAt.UTC(),
	}
}

func toCredentialEntity(d *credentialDocument) (*entity.Credential, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}

	return &entity.Credential{
		ID:                     id,
		Email:                  d.Email,
		Name:                   d.Name,
		Photo:                  d.Photo,
		Role:                   entity.Role(d.Role).OrDefault(),
		PasswordHash:           d.Password,
		PasswordChangedAt:      d.PasswordChangedAt,
		PasswordResetDigest:    d.PasswordResetToken,
		PasswordResetExpiresAt: d.PasswordResetExpires,
		Version:                d.Version,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}, nil
}

func toTourDocument(t *entity.Tour) *tourDocument {
	return &tourDocument{
		ID:              t.ID.String(),
		Name:            t.Name,
		Slug:            t.Slug,
		Duration:        t.Duration,
		MaxGroupSize:    t.MaxGroupSize,
		Difficulty:      string(t.Difficulty),
		RatingsAverage:  t.RatingsAverage,
		RatingsQuantity: t.RatingsQuantity,
		Price:           t.Price,
		Summary:         t.Summary,
		Description:     t.Description,
		ImageCover:      t.ImageCover,
		Images:          t.Images,
		StartDates:      t.StartDates,
		CreatedAt:       t.CreatedAt.UTC(),
	}
}

func toTourEntity(d *tourDocument) (*entity.Tour, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}

	return &entity.Tour{
		ID:              id,
		Name:            d.Name,
		Slug:            d.Slug,
		Duration:        d.Duration,
		MaxGroupSize:    d.MaxGroupSize,
		Difficulty:      entity.Difficulty(d.Difficulty),
		RatingsAverage:  d.RatingsAverage,
		RatingsQuantity: d.RatingsQuantity,
		Price:           d.Price,
		Summary:         d.Summary,
		Description:     d.Description,
		ImageCover:      d.ImageCover,
		Images:          d.Images,
		StartDates:      d.StartDates,
		CreatedAt:       d.CreatedAt,
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()

	return &u
}
