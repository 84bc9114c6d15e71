package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"alfredoptarigan/interview-agent/internal/config"
)

const (
	defaultResumePassScore = 60.0
	resumeSkillWeight      = 80.0
	resumeExperienceCap    = 20.0
	pointsPerYear          = 4.0

	scenarioConceptWeight = 85.0
)

var yearsPattern = regexp.MustCompile(`(\d{1,2})\+?\s*(?:years|yrs|year)`)

// termMatcher is a compiled skill or keyword pattern.
type termMatcher struct {
	term    string
	pattern *regexp.Regexp
}

type keywordResumeScreener struct {
	catalog   *config.Catalog
	skills    map[string][]termMatcher
	passScore float64
}

// NewKeywordResumeScreener scores resumes by how many of the role's skills
// they mention, plus a capped bonus for stated years of experience. A skill
// matches as a whole word or its plural, so "api" counts for "APIs".
func NewKeywordResumeScreener(catalog *config.Catalog) ResumeScreener {
	skills := make(map[string][]termMatcher, len(catalog.Roles))
	for _, role := range catalog.Roles {
		skills[role.Name] = compileTerms(role.Skills, `(?:s|es)?\b`)
	}
	return &keywordResumeScreener{catalog: catalog, skills: skills, passScore: defaultResumePassScore}
}

// Screen implements ResumeScreener.
func (s *keywordResumeScreener) Screen(ctx context.Context, role, resumeText string) (*ScreeningResult, error) {
	profile, ok := s.catalog.Role(role)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if len(profile.Skills) == 0 {
		return nil, fmt.Errorf("role %q has no screening skills", role)
	}

	text := strings.ToLower(resumeText)

	var matched, missing []string
	for _, skill := range s.skills[profile.Name] {
		if skill.pattern.MatchString(text) {
			matched = append(matched, skill.term)
		} else {
			missing = append(missing, skill.term)
		}
	}

	need := profile.MinMatches
	if need <= 0 || need > len(profile.Skills) {
		need = len(profile.Skills)
	}
	skillScore := resumeSkillWeight * math.Min(1, float64(len(matched))/float64(need))

	years := yearsOfExperience(text)
	experienceScore := math.Min(float64(years)*pointsPerYear, resumeExperienceCap)

	score := round2(skillScore + experienceScore)
	pass := score >= s.passScore

	var reason string
	if pass {
		reason = fmt.Sprintf("strong match for %s: %s", role, strings.Join(matched, ", "))
	} else {
		reason = fmt.Sprintf("weak match for %s: matched %d of %d required skills", role, len(matched), need)
	}
	if years > 0 {
		reason = fmt.Sprintf("%s; %d years experience", reason, years)
	}

	return &ScreeningResult{
		Score:  score,
		Pass:   pass,
		Reason: reason,
		Features: map[string]any{
			"matched_skills":   matched,
			"missing_skills":   missing,
			"years_experience": years,
			"skill_score":      round2(skillScore),
			"experience_score": experienceScore,
		},
	}, nil
}

type conceptScenarioEvaluator struct {
	scenario config.ScenarioPrompt
	keywords [][]termMatcher
}

// NewConceptScenarioEvaluator scores an incident narrative by which handling
// concepts it covers, plus a small bonus for a developed answer.
func NewConceptScenarioEvaluator(scenario config.ScenarioPrompt) ScenarioEvaluator {
	if scenario.PassScore <= 0 {
		scenario.PassScore = 75
	}
	keywords := make([][]termMatcher, len(scenario.Concepts))
	for i, concept := range scenario.Concepts {
		keywords[i] = compileTerms(concept.Keywords, "")
	}
	return &conceptScenarioEvaluator{scenario: scenario, keywords: keywords}
}

// Evaluate implements ScenarioEvaluator.
func (e *conceptScenarioEvaluator) Evaluate(ctx context.Context, scenarioText string) (*ScenarioResult, error) {
	if len(e.scenario.Concepts) == 0 {
		return nil, fmt.Errorf("scenario has no concepts to score against")
	}

	text := strings.ToLower(scenarioText)

	var covered, missing []string
	for i, concept := range e.scenario.Concepts {
		hit := false
		for _, kw := range e.keywords[i] {
			if kw.pattern.MatchString(text) {
				hit = true
				break
			}
		}
		if hit {
			covered = append(covered, concept.Name)
		} else {
			missing = append(missing, concept.Name)
		}
	}

	conceptScore := scenarioConceptWeight * float64(len(covered)) / float64(len(e.scenario.Concepts))

	words := len(strings.Fields(scenarioText))
	var lengthScore float64
	switch {
	case words >= 80:
		lengthScore = 15
	case words >= 40:
		lengthScore = 8
	}

	score := round2(conceptScore + lengthScore)
	pass := score >= e.scenario.PassScore

	reason := fmt.Sprintf("covered %d of %d incident handling steps", len(covered), len(e.scenario.Concepts))
	if len(missing) > 0 {
		reason = fmt.Sprintf("%s; missing %s", reason, strings.Join(missing, ", "))
	}

	return &ScenarioResult{
		Score:  score,
		Pass:   pass,
		Reason: reason,
		Metrics: map[string]any{
			"covered":       covered,
			"missing":       missing,
			"word_count":    words,
			"concept_score": round2(conceptScore),
			"length_score":  lengthScore,
		},
	}, nil
}

// compileTerms builds patterns that match each term in lower-cased text at a
// word start, followed by suffix. Blank terms are dropped.
func compileTerms(terms []string, suffix string) []termMatcher {
	out := make([]termMatcher, 0, len(terms))
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		out = append(out, termMatcher{
			term:    term,
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + suffix),
		})
	}
	return out
}

func yearsOfExperience(text string) int {
	best := 0
	for _, m := range yearsPattern.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > best {
			best = n
		}
	}
	return best
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewHeuristicEvaluators wires the offline evaluators for every round.
func NewHeuristicEvaluators(catalog *config.Catalog) Evaluators {
	return Evaluators{
		Resume:    NewKeywordResumeScreener(catalog),
		Technical: NewLogisticTechnicalEvaluator(catalog.Technical),
		Scenario:  NewConceptScenarioEvaluator(catalog.Scenario),
	}
}
