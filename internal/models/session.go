package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Decision string

const (
	DecisionHire Decision = "HIRE"
	DecisionHold Decision = "HOLD"
)

// DecisionFor maps the final round's pass flag to the verdict.
func DecisionFor(passed bool) Decision {
	if passed {
		return DecisionHire
	}
	return DecisionHold
}

// SessionState is the gate state derived from a persisted session.
type SessionState string

const (
	StateAwaitingResumeScreening     SessionState = "AwaitingResumeScreening"
	StateAwaitingTechnicalEvaluation SessionState = "AwaitingTechnicalEvaluation"
	StateAwaitingScenarioEvaluation  SessionState = "AwaitingScenarioEvaluation"
	StateCompleted                   SessionState = "Completed"
)

// Session is one candidate's attempt at the three rounds. Stage only moves
// forward and the session is completed once, after the scenario round. Role
// is fixed at start; the candidate record only keeps the latest role applied for.
type Session struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CandidateID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"candidate_id"`
	Role          string     `gorm:"type:varchar(255);not null;default:''" json:"role"`
	Stage         Round      `gorm:"not null;default:1" json:"stage"`
	FinalScore    *float64   `json:"final_score,omitempty"`
	FinalDecision *Decision  `gorm:"type:text" json:"final_decision,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Candidate Candidate `gorm:"foreignKey:CandidateID" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Session) IsCompleted() bool {
	return s.CompletedAt != nil
}

func (s *Session) State() SessionState {
	if s.IsCompleted() {
		return StateCompleted
	}
	switch s.Stage {
	case RoundTechnical:
		return StateAwaitingTechnicalEvaluation
	case RoundScenario:
		return StateAwaitingScenarioEvaluation
	default:
		return StateAwaitingResumeScreening
	}
}
