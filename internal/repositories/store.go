package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/interview-agent/internal/models"
)

// SessionStore is the durable record of candidates, sessions and round
// results. It is the source of truth the gate reloads on every call.
type SessionStore interface {
	UpsertCandidate(ctx context.Context, name, role string) (*models.Candidate, error)
	CreateSession(ctx context.Context, candidateID uuid.UUID, role string) (*models.Session, error)
	SaveRoundResult(ctx context.Context, result *models.RoundResult) error
	AdvanceStage(ctx context.Context, sessionID uuid.UUID, from, to models.Round) error
	CompleteSession(ctx context.Context, sessionID uuid.UUID, finalScore float64, decision models.Decision) error

	FindCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	FindSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	ListRoundResults(ctx context.Context, sessionID uuid.UUID) ([]models.RoundResult, error)

	// Transaction runs fn against a store bound to one database transaction.
	// Any error from fn rolls back every write made through that store.
	Transaction(ctx context.Context, fn func(tx SessionStore) error) error
}

type sessionStore struct {
	db         *gorm.DB
	candidates CandidateRepository
	sessions   SessionRepository
	results    RoundResultRepository
}

func NewSessionStore(db *gorm.DB) SessionStore {
	return &sessionStore{
		db:         db,
		candidates: NewCandidateRepository(db),
		sessions:   NewSessionRepository(db),
		results:    NewRoundResultRepository(db),
	}
}

func (s *sessionStore) UpsertCandidate(ctx context.Context, name, role string) (*models.Candidate, error) {
	return s.candidates.Upsert(ctx, name, role)
}

func (s *sessionStore) CreateSession(ctx context.Context, candidateID uuid.UUID, role string) (*models.Session, error) {
	return s.sessions.Create(ctx, candidateID, role)
}

func (s *sessionStore) SaveRoundResult(ctx context.Context, result *models.RoundResult) error {
	return s.results.Append(ctx, result)
}

func (s *sessionStore) AdvanceStage(ctx context.Context, sessionID uuid.UUID, from, to models.Round) error {
	return s.sessions.AdvanceStage(ctx, sessionID, from, to)
}

func (s *sessionStore) CompleteSession(ctx context.Context, sessionID uuid.UUID, finalScore float64, decision models.Decision) error {
	return s.sessions.Complete(ctx, sessionID, finalScore, decision)
}

func (s *sessionStore) FindCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	return s.candidates.FindByID(ctx, id)
}

func (s *sessionStore) FindSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return s.sessions.FindByID(ctx, id)
}

func (s *sessionStore) ListRoundResults(ctx context.Context, sessionID uuid.UUID) ([]models.RoundResult, error) {
	return s.results.FindBySession(ctx, sessionID)
}

func (s *sessionStore) Transaction(ctx context.Context, fn func(tx SessionStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewSessionStore(tx))
	})
}
