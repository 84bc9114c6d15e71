package services_test

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/interview-agent/internal/models"
	"alfredoptarigan/interview-agent/internal/repositories"
	"alfredoptarigan/interview-agent/internal/services"
)

// memoryStore is a SessionStore kept in maps. Transaction snapshots the maps
// and restores them when fn fails.
type memoryStore struct {
	candidates map[uuid.UUID]models.Candidate
	sessions   map[uuid.UUID]models.Session
	results    []models.RoundResult

	failSave     error
	failAdvance  error
	failComplete error
	failFind     error

	completeCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		candidates: make(map[uuid.UUID]models.Candidate),
		sessions:   make(map[uuid.UUID]models.Session),
	}
}

func (m *memoryStore) UpsertCandidate(ctx context.Context, name, role string) (*models.Candidate, error) {
	for id, c := range m.candidates {
		if c.Name == name {
			c.Role = role
			m.candidates[id] = c
			return &c, nil
		}
	}
	c := models.Candidate{ID: uuid.New(), Name: name, Role: role}
	m.candidates[c.ID] = c
	return &c, nil
}

func (m *memoryStore) CreateSession(ctx context.Context, candidateID uuid.UUID, role string) (*models.Session, error) {
	s := models.Session{ID: uuid.New(), CandidateID: candidateID, Role: role, Stage: models.RoundResumeScreening}
	m.sessions[s.ID] = s
	return &s, nil
}

func (m *memoryStore) SaveRoundResult(ctx context.Context, result *models.RoundResult) error {
	if m.failSave != nil {
		return m.failSave
	}
	attempt := 0
	for _, r := range m.results {
		if r.SessionID == result.SessionID && r.RoundNo == result.RoundNo && r.Attempt > attempt {
			attempt = r.Attempt
		}
	}
	result.ID = uuid.New()
	result.Attempt = attempt + 1
	m.results = append(m.results, *result)
	return nil
}

func (m *memoryStore) AdvanceStage(ctx context.Context, sessionID uuid.UUID, from, to models.Round) error {
	if m.failAdvance != nil {
		return m.failAdvance
	}
	s, ok := m.sessions[sessionID]
	if !ok || s.Stage != from || s.CompletedAt != nil {
		return repositories.ErrStageConflict
	}
	s.Stage = to
	m.sessions[sessionID] = s
	return nil
}

func (m *memoryStore) CompleteSession(ctx context.Context, sessionID uuid.UUID, finalScore float64, decision models.Decision) error {
	m.completeCalls++
	if m.failComplete != nil {
		return m.failComplete
	}
	s, ok := m.sessions[sessionID]
	if !ok {
		return repositories.ErrNotFound
	}
	if s.CompletedAt != nil {
		return repositories.ErrSessionCompleted
	}
	now := time.Now()
	s.FinalScore = &finalScore
	s.FinalDecision = &decision
	s.CompletedAt = &now
	m.sessions[sessionID] = s
	return nil
}

func (m *memoryStore) FindCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	c, ok := m.candidates[id]
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", id, repositories.ErrNotFound)
	}
	return &c, nil
}

func (m *memoryStore) FindSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	if m.failFind != nil {
		return nil, m.failFind
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, repositories.ErrNotFound)
	}
	return &s, nil
}

func (m *memoryStore) ListRoundResults(ctx context.Context, sessionID uuid.UUID) ([]models.RoundResult, error) {
	var out []models.RoundResult
	for _, r := range m.results {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) Transaction(ctx context.Context, fn func(tx repositories.SessionStore) error) error {
	candidates := make(map[uuid.UUID]models.Candidate, len(m.candidates))
	for k, v := range m.candidates {
		candidates[k] = v
	}
	sessions := make(map[uuid.UUID]models.Session, len(m.sessions))
	for k, v := range m.sessions {
		sessions[k] = v
	}
	results := append([]models.RoundResult(nil), m.results...)

	if err := fn(m); err != nil {
		m.candidates = candidates
		m.sessions = sessions
		m.results = results
		return err
	}
	return nil
}

func (m *memoryStore) resultsFor(sessionID uuid.UUID, round models.Round) []models.RoundResult {
	var out []models.RoundResult
	for _, r := range m.results {
		if r.SessionID == sessionID && r.RoundNo == round {
			out = append(out, r)
		}
	}
	return out
}

// scriptedEvaluators return queued results in order and count calls.
type scriptedEvaluators struct {
	screening []*services.ScreeningResult
	technical []*services.TechnicalResult
	scenario  []*services.ScenarioResult
	err       error

	screenCalls    int
	technicalCalls int
	scenarioCalls  int
	lastRole       string
}

func (s *scriptedEvaluators) Screen(ctx context.Context, role, resumeText string) (*services.ScreeningResult, error) {
	s.screenCalls++
	s.lastRole = role
	if s.err != nil {
		return nil, s.err
	}
	res := s.screening[0]
	s.screening = s.screening[1:]
	return res, nil
}

func (s *scriptedEvaluators) Evaluate(ctx context.Context, answers map[string]models.TechnicalAnswer) (*services.TechnicalResult, error) {
	s.technicalCalls++
	if s.err != nil {
		return nil, s.err
	}
	res := s.technical[0]
	s.technical = s.technical[1:]
	return res, nil
}

func (s *scriptedEvaluators) bundle() services.Evaluators {
	return services.Evaluators{
		Resume:    s,
		Technical: s,
		Scenario:  scenarioFunc(s.evaluateScenario),
	}
}

func (s *scriptedEvaluators) evaluateScenario(ctx context.Context, text string) (*services.ScenarioResult, error) {
	s.scenarioCalls++
	if s.err != nil {
		return nil, s.err
	}
	res := s.scenario[0]
	s.scenario = s.scenario[1:]
	return res, nil
}

type scenarioFunc func(ctx context.Context, text string) (*services.ScenarioResult, error)

func (f scenarioFunc) Evaluate(ctx context.Context, text string) (*services.ScenarioResult, error) {
	return f(ctx, text)
}

func allCorrect() map[string]models.TechnicalAnswer {
	return map[string]models.TechnicalAnswer{
		"q1": {Correct: true},
		"q2": {Correct: true},
		"q3": {Correct: true},
	}
}
