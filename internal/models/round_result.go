package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RoundResult is an append-only record of one attempt at one round. A retried
// round gets a new row with the next Attempt number.
type RoundResult struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_round_results_attempt,priority:1" json:"session_id"`
	RoundNo   Round          `gorm:"column:round_no;not null;uniqueIndex:idx_round_results_attempt,priority:2" json:"round_no"`
	Attempt   int            `gorm:"not null;uniqueIndex:idx_round_results_attempt,priority:3" json:"attempt"`
	Owner     string         `gorm:"type:text;not null" json:"owner"`
	Question  string         `gorm:"type:text" json:"question"`
	Answer    string         `gorm:"type:text" json:"answer"`
	RawScore  float64        `gorm:"not null" json:"raw_score"`
	Score     float64        `gorm:"not null" json:"score"`
	Passed    bool           `gorm:"not null" json:"passed"`
	Threshold float64        `gorm:"not null" json:"threshold"`
	Metrics   datatypes.JSON `json:"metrics,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`

	Session Session `gorm:"foreignKey:SessionID" json:"-"`
}

func (RoundResult) TableName() string {
	return "round_results"
}

func (r *RoundResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
