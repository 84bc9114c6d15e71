package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/interview-agent/internal/models"
)

type CandidateRepository interface {
	Upsert(ctx context.Context, name, role string) (*models.Candidate, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

// Upsert implements CandidateRepository. Candidates are keyed by name; a
// repeat submission overwrites the role.
func (r *candidateRepository) Upsert(ctx context.Context, name, role string) (*models.Candidate, error) {
	var candidate models.Candidate

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("name = ?", name).First(&candidate).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			candidate = models.Candidate{Name: name, Role: role}
			return tx.Create(&candidate).Error
		}
		if err != nil {
			return err
		}

		if candidate.Role == role {
			return nil
		}
		candidate.Role = role
		return tx.Model(&candidate).Update("role", role).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert candidate: %w", err)
	}

	return &candidate, nil
}

// FindByID implements CandidateRepository.
func (r *candidateRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&candidate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find candidate: %w", err)
	}
	return &candidate, nil
}
