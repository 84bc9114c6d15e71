package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/interview-agent/internal/config"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildResumeScreeningPrompt asks for a 0-100 resume score for the role.
func (pb *PromptBuilder) BuildResumeScreeningPrompt(role config.RoleProfile, resumeText, rubricContext string, passScore float64) string {
	return fmt.Sprintf(`You are an experienced technical recruiter screening a resume for a %s position.

KEY SKILLS FOR THE ROLE:
%s

SCREENING RUBRIC:
%s

CANDIDATE RESUME:
%s

Score how well the resume fits the role on a 0-100 scale. Weigh skill coverage
most heavily, then depth and recency of relevant experience. A score of %.0f or
more means the candidate should move on to the technical round.

Return ONLY JSON in the following format:
{
  "score": <number 0-100>,
  "pass": <true if score >= %.0f>,
  "reason": "<one or two sentences naming the strongest evidence and the biggest gap>"
}`,
		role.Name, strings.Join(role.Skills, ", "), rubricContext, resumeText, passScore, passScore)
}

// BuildScenarioPrompt asks for a 0-100 score of an incident handling answer.
func (pb *PromptBuilder) BuildScenarioPrompt(scenario config.ScenarioPrompt, answer, rubricContext string) string {
	concepts := make([]string, 0, len(scenario.Concepts))
	for _, c := range scenario.Concepts {
		concepts = append(concepts, "- "+c.Name)
	}

	return fmt.Sprintf(`You are a senior site reliability engineer interviewing a candidate.

QUESTION ASKED:
%s

WHAT A STRONG ANSWER COVERS:
%s

SCORING RUBRIC:
%s

CANDIDATE ANSWER:
%s

Score the answer on a 0-100 scale for structure, prioritisation and completeness.
An answer scoring %.0f or more passes.

Return ONLY JSON in the following format:
{
  "score": <number 0-100>,
  "pass": <true if score >= %.0f>,
  "reason": "<one or two sentences on what was handled well and what was missed>"
}`,
		scenario.Question, strings.Join(concepts, "\n"), rubricContext, answer, scenario.PassScore, scenario.PassScore)
}

// BuildRetrievalQuery creates the query text embedded for RAG retrieval.
func (pb *PromptBuilder) BuildRetrievalQuery(docType, role string) string {
	switch docType {
	case RubricResume:
		return fmt.Sprintf("Resume screening criteria and required skills for %s", role)
	case RubricScenario:
		return "Production incident handling evaluation criteria"
	default:
		return role
	}
}

// FormatRAGContext joins retrieved rubric chunks for a prompt.
func FormatRAGContext(results []SearchResult) string {
	if len(results) == 0 {
		return "No rubric available. Use general industry expectations."
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Context %d (Score: %.2f) ---\n%s",
			i+1, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
