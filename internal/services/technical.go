package services

import (
	"context"
	"fmt"
	"math"

	"alfredoptarigan/interview-agent/internal/config"
	"alfredoptarigan/interview-agent/internal/models"
)

type logisticTechnicalEvaluator struct {
	checklist config.TechnicalChecklist
}

// NewLogisticTechnicalEvaluator scores the checklist with a logistic model:
// prob = sigmoid(bias + sum of the weights of correctly answered questions).
func NewLogisticTechnicalEvaluator(checklist config.TechnicalChecklist) TechnicalEvaluator {
	return &logisticTechnicalEvaluator{checklist: checklist}
}

// Evaluate implements TechnicalEvaluator.
func (e *logisticTechnicalEvaluator) Evaluate(ctx context.Context, answers map[string]models.TechnicalAnswer) (*TechnicalResult, error) {
	if len(e.checklist.Questions) == 0 {
		return nil, fmt.Errorf("technical checklist is empty")
	}

	logit := e.checklist.Bias
	correct := 0
	for _, q := range e.checklist.Questions {
		if answers[q.ID].Correct {
			logit += q.Weight
			correct++
		}
	}

	prob := 1 / (1 + math.Exp(-logit))

	return &TechnicalResult{
		ProbPass: prob,
		Pass:     prob >= e.checklist.PassProbability,
		Metrics: map[string]any{
			"correct": correct,
			"total":   len(e.checklist.Questions),
			"logit":   logit,
		},
	}, nil
}
