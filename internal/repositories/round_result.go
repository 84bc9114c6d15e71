package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/interview-agent/internal/models"
)

type RoundResultRepository interface {
	Append(ctx context.Context, result *models.RoundResult) error
	FindBySession(ctx context.Context, sessionID uuid.UUID) ([]models.RoundResult, error)
}

type roundResultRepository struct {
	db *gorm.DB
}

func NewRoundResultRepository(db *gorm.DB) RoundResultRepository {
	return &roundResultRepository{db: db}
}

// Append inserts a new attempt for (session, round). Existing rows are never
// updated; the attempt number is one past the highest stored for that round.
func (r *roundResultRepository) Append(ctx context.Context, result *models.RoundResult) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&models.RoundResult{}).
			Where("session_id = ? AND round_no = ?", result.SessionID, result.RoundNo).
			Select("COALESCE(MAX(attempt), 0)").
			Scan(&last).Error; err != nil {
			return err
		}

		result.Attempt = last + 1
		return tx.Omit(clause.Associations).Create(result).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save round result: %w", err)
	}

	return nil
}

func (r *roundResultRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]models.RoundResult, error) {
	var results []models.RoundResult
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("round_no ASC, attempt ASC").
		Find(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find round results: %w", err)
	}

	return results, nil
}
