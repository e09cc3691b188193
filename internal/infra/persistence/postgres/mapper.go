package postgres

import (
	"tours/internal/domain/entity"
	"tours/internal/infra/persistence/model"
)

// toCredentialModel maps a credential entity to its row. An empty reset digest becomes NULL.
func toCredentialModel(c *entity.Credential) *model.CredentialModel {
	credentialM := &model.CredentialModel{
		ID:                     c.ID,
		Email:                  c.Email,
		Name:                   c.Name,
		Photo:                  c.Photo,
		Role:                   c.Role.OrDefault().String(),
		Password:               c.PasswordHash,
		PasswordChangedAt:      c.PasswordChangedAt,
		PasswordResetExpiresAt: c.PasswordResetExpiresAt,
		Version:                c.Version,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
	if c.PasswordResetDigest != "" {
		digest := c.PasswordResetDigest
		credentialM.PasswordResetDigest = &digest
	}

	return credentialM
}

func toCredentialDomain(m *model.CredentialModel) *entity.Credential {
	credential := &entity.Credential{
		ID:                     m.ID,
		Email:                  m.Email,
		Name:                   m.Name,
		Photo:                  m.Photo,
		Role:                   entity.Role(m.Role).OrDefault(),
		PasswordHash:           m.Password,
		PasswordChangedAt:      m.PasswordChangedAt,
		PasswordResetExpiresAt: m.PasswordResetExpiresAt,
		Version:                m.Version,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
	if m.PasswordResetDigest != nil {
		credential.PasswordResetDigest = *m.PasswordResetDigest
	}

	return credential
}

func toTourModel(t *entity.Tour) *model.TourModel {
	return &model.TourModel{
		ID:              t.ID,
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
		CreatedAt:       t.CreatedAt,
	}
}

func toTourDomain(m *model.TourModel) *entity.Tour {
	return &entity.Tour{
		ID:              m.ID,
		Name:            m.Name,
		Slug:            m.Slug,
		Duration:        m.Duration,
		MaxGroupSize:    m.MaxGroupSize,
		Difficulty:      entity.Difficulty(m.Difficulty),
		RatingsAverage:  m.RatingsAverage,
		RatingsQuantity: m.RatingsQuantity,
		Price:           m.Price,
		Summary:         m.Summary,
		Description:     m.Description,
		ImageCover:      m.ImageCover,
		Images:          m.Images,
		StartDates:      m.StartDates,
		CreatedAt:       m.CreatedAt,
	}
}
