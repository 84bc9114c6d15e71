package services

import (
	"context"
	"log"

	"alfredoptarigan/interview-agent/internal/config"
)

// BuildEvaluators picks the round evaluators for the configured backend. The
// technical checklist is always scored by the logistic model. On the Gemini
// backend an unreachable Qdrant only costs the rubric context.
func BuildEvaluators(ctx context.Context, cfg *config.Config, catalog *config.Catalog) (Evaluators, error) {
	if cfg.Evaluator.Backend != config.EvaluatorBackendGemini {
		return NewHeuristicEvaluators(catalog), nil
	}

	gemini, err := NewGeminiService(ctx, cfg.Gemini)
	if err != nil {
		return Evaluators{}, err
	}

	var rubrics RubricStore
	store, err := NewQdrantRubricStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection)
	if err == nil {
		err = store.InitCollection(ctx)
	}
	if err != nil {
		log.Printf("⚠️ Qdrant unavailable, evaluating without rubric context: %v\n", err)
	} else {
		rubrics = store
		log.Println("✅ Qdrant initialized successfully")
	}

	retries := cfg.Evaluator.RetryMaxAttempts
	return Evaluators{
		Resume:    NewGeminiResumeScreener(gemini, rubrics, catalog, retries),
		Technical: NewLogisticTechnicalEvaluator(catalog.Technical),
		Scenario:  NewGeminiScenarioEvaluator(gemini, rubrics, catalog.Scenario, retries),
	}, nil
}
