package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/interview-agent/internal/models"
)

type SessionRepository interface {
	Create(ctx context.Context, candidateID uuid.UUID, role string) (*models.Session, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	AdvanceStage(ctx context.Context, id uuid.UUID, from, to models.Round) error
	Complete(ctx context.Context, id uuid.UUID, finalScore float64, decision models.Decision) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, candidateID uuid.UUID, role string) (*models.Session, error) {
	session := &models.Session{
		CandidateID: candidateID,
		Role:        role,
		Stage:       models.RoundResumeScreening,
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (r *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &session, nil
}

// AdvanceStage moves an open session from one stage to the next. The update
// is conditional on the current stage so a stale caller cannot skip or repeat
// a transition.
func (r *sessionRepository) AdvanceStage(ctx context.Context, id uuid.UUID, from, to models.Round) error {
	if to <= from {
		return fmt.Errorf("stage must move forward, got %d -> %d: %w", from, to, ErrStageConflict)
	}

	result := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND stage = ? AND completed_at IS NULL", id, from).
		Updates(map[string]interface{}{
			"stage":      to,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to advance stage: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("session %s not open at stage %d: %w", id, from, ErrStageConflict)
	}

	return nil
}

// Complete writes the final verdict. It succeeds once per session; later
// calls return ErrSessionCompleted.
func (r *sessionRepository) Complete(ctx context.Context, id uuid.UUID, finalScore float64, decision models.Decision) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND completed_at IS NULL", id).
		Updates(map[string]interface{}{
			"final_score":    finalScore,
			"final_decision": decision,
			"completed_at":   now,
			"updated_at":     now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to complete session: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("session %s: %w", id, ErrSessionCompleted)
	}

	return nil
}
