package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"alfredoptarigan/interview-agent/internal/config"
)

const (
	evaluatorTemperature float32 = 0.2
	rubricSearchLimit            = 3
)

// llmVerdict is the JSON object both Gemini prompts ask for.
type llmVerdict struct {
	Score  *float64 `json:"score"`
	Pass   *bool    `json:"pass"`
	Reason string   `json:"reason"`
}

type geminiResumeScreener struct {
	gemini     GeminiService
	rubrics    RubricStore
	catalog    *config.Catalog
	prompts    *PromptBuilder
	maxRetries int
}

// NewGeminiResumeScreener screens resumes with Gemini. rubrics may be nil, in
// which case prompts carry no retrieved context.
func NewGeminiResumeScreener(gemini GeminiService, rubrics RubricStore, catalog *config.Catalog, maxRetries int) ResumeScreener {
	return &geminiResumeScreener{
		gemini:     gemini,
		rubrics:    rubrics,
		catalog:    catalog,
		prompts:    NewPromptBuilder(),
		maxRetries: maxRetries,
	}
}

// Screen implements ResumeScreener.
func (s *geminiResumeScreener) Screen(ctx context.Context, role, resumeText string) (*ScreeningResult, error) {
	profile, ok := s.catalog.Role(role)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	rubric := retrieveRubric(ctx, s.gemini, s.rubrics, s.prompts, RubricFilter{DocType: RubricResume, Role: role})
	prompt := s.prompts.BuildResumeScreeningPrompt(profile, resumeText, rubric, defaultResumePassScore)

	raw, err := s.gemini.GenerateTextWithRetry(ctx, prompt, evaluatorTemperature, s.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to screen resume: %w", err)
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		return nil, err
	}

	return &ScreeningResult{
		Score:  *verdict.Score,
		Pass:   *verdict.Pass,
		Reason: verdict.Reason,
		Features: map[string]any{
			"model_output": json.RawMessage(extractJSON(raw)),
		},
	}, nil
}

type geminiScenarioEvaluator struct {
	gemini     GeminiService
	rubrics    RubricStore
	scenario   config.ScenarioPrompt
	prompts    *PromptBuilder
	maxRetries int
}

func NewGeminiScenarioEvaluator(gemini GeminiService, rubrics RubricStore, scenario config.ScenarioPrompt, maxRetries int) ScenarioEvaluator {
	if scenario.PassScore <= 0 {
		scenario.PassScore = 75
	}
	return &geminiScenarioEvaluator{
		gemini:     gemini,
		rubrics:    rubrics,
		scenario:   scenario,
		prompts:    NewPromptBuilder(),
		maxRetries: maxRetries,
	}
}

// Evaluate implements ScenarioEvaluator.
func (e *geminiScenarioEvaluator) Evaluate(ctx context.Context, scenarioText string) (*ScenarioResult, error) {
	rubric := retrieveRubric(ctx, e.gemini, e.rubrics, e.prompts, RubricFilter{DocType: RubricScenario})
	prompt := e.prompts.BuildScenarioPrompt(e.scenario, scenarioText, rubric)

	raw, err := e.gemini.GenerateTextWithRetry(ctx, prompt, evaluatorTemperature, e.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate scenario: %w", err)
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		return nil, err
	}

	return &ScenarioResult{
		Score:  *verdict.Score,
		Pass:   *verdict.Pass,
		Reason: verdict.Reason,
		Metrics: map[string]any{
			"word_count": len(strings.Fields(scenarioText)),
		},
	}, nil
}

// retrieveRubric returns formatted rubric context, or a placeholder when no
// store is configured or retrieval fails.
func retrieveRubric(ctx context.Context, gemini GeminiService, rubrics RubricStore, prompts *PromptBuilder, filter RubricFilter) string {
	if rubrics == nil {
		return FormatRAGContext(nil)
	}

	query := prompts.BuildRetrievalQuery(filter.DocType, filter.Role)
	embedding, err := gemini.GenerateEmbedding(ctx, query)
	if err != nil {
		log.Printf("⚠️ Rubric retrieval skipped: %v\n", err)
		return FormatRAGContext(nil)
	}

	results, err := rubrics.SearchSimilar(ctx, embedding, filter, rubricSearchLimit)
	if err != nil {
		log.Printf("⚠️ Rubric retrieval skipped: %v\n", err)
		return FormatRAGContext(nil)
	}

	return FormatRAGContext(results)
}

// parseVerdict decodes the model's JSON answer. Both score and pass must be
// present; range checks happen when the gate normalizes the result.
func parseVerdict(raw string) (*llmVerdict, error) {
	var v llmVerdict
	if err := json.Unmarshal([]byte(extractJSON(raw)), &v); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}
	if v.Score == nil || v.Pass == nil {
		return nil, fmt.Errorf("model output is missing score or pass")
	}
	return &v, nil
}

// extractJSON trims markdown fences and any prose around the outermost object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end < start {
		return strings.TrimSpace(s)
	}
	return s[start : end+1]
}
