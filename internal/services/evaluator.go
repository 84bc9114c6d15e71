package services

import (
	"context"
	"fmt"
	"math"

	"alfredoptarigan/interview-agent/internal/models"
)

// ResumeScreener scores a resume for the role applied for.
type ResumeScreener interface {
	Screen(ctx context.Context, role, resumeText string) (*ScreeningResult, error)
}

// TechnicalEvaluator turns the checklist answers into a probability of passing.
type TechnicalEvaluator interface {
	Evaluate(ctx context.Context, answers map[string]models.TechnicalAnswer) (*TechnicalResult, error)
}

// ScenarioEvaluator scores a free-text incident handling narrative.
type ScenarioEvaluator interface {
	Evaluate(ctx context.Context, scenarioText string) (*ScenarioResult, error)
}

type ScreeningResult struct {
	Score    float64        `json:"score"`
	Pass     bool           `json:"pass"`
	Reason   string         `json:"reason"`
	Features map[string]any `json:"features,omitempty"`
}

type TechnicalResult struct {
	ProbPass float64        `json:"prob_pass"`
	Pass     bool           `json:"pass"`
	Metrics  map[string]any `json:"metrics,omitempty"`
}

type ScenarioResult struct {
	Score   float64        `json:"score"`
	Pass    bool           `json:"pass"`
	Reason  string         `json:"reason"`
	Metrics map[string]any `json:"metrics,omitempty"`
}

// Evaluators bundles one evaluator per round.
type Evaluators struct {
	Resume    ResumeScreener
	Technical TechnicalEvaluator
	Scenario  ScenarioEvaluator
}

func (e Evaluators) validate() error {
	if e.Resume == nil || e.Technical == nil || e.Scenario == nil {
		return fmt.Errorf("an evaluator is required for every round")
	}
	return nil
}

// evaluation is the normalized outcome of any round's evaluator.
type evaluation struct {
	rawScore float64
	score    float64
	passed   bool
	payload  any
}

func checkScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("score is not a finite number")
	}
	if score < 0 || score > 100 {
		return fmt.Errorf("score %v outside [0,100]", score)
	}
	return nil
}

func (r *ScreeningResult) normalize() (*evaluation, error) {
	if r == nil {
		return nil, fmt.Errorf("empty screening result")
	}
	if err := checkScore(r.Score); err != nil {
		return nil, err
	}
	return &evaluation{rawScore: r.Score, score: r.Score, passed: r.Pass, payload: r}, nil
}

// normalize scales the probability to the 0-100 range stored for round 2.
func (r *TechnicalResult) normalize() (*evaluation, error) {
	if r == nil {
		return nil, fmt.Errorf("empty technical result")
	}
	if math.IsNaN(r.ProbPass) || r.ProbPass < 0 || r.ProbPass > 1 {
		return nil, fmt.Errorf("prob_pass %v outside [0,1]", r.ProbPass)
	}
	scaled := r.ProbPass * 100
	return &evaluation{rawScore: scaled, score: scaled, passed: r.Pass, payload: r}, nil
}

func (r *ScenarioResult) normalize() (*evaluation, error) {
	if r == nil {
		return nil, fmt.Errorf("empty scenario result")
	}
	if err := checkScore(r.Score); err != nil {
		return nil, err
	}
	return &evaluation{rawScore: r.Score, score: r.Score, passed: r.Pass, payload: r}, nil
}
