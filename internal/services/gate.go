package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/interview-agent/internal/config"
	"alfredoptarigan/interview-agent/internal/models"
	"alfredoptarigan/interview-agent/internal/repositories"
)

// RoundInput is what a presentation adapter collected for the active round.
// Only the field belonging to the submitted round is read.
type RoundInput struct {
	ResumeText   string
	Answers      map[string]models.TechnicalAnswer
	ScenarioText string
}

// RoundOutcome is the stored result plus the session as it stands after the
// submission.
type RoundOutcome struct {
	Result    *models.RoundResult
	Session   *models.Session
	Advanced  bool
	Completed bool
}

// SessionSummary is a read-only view of a session and every attempt made so
// far. Rounds that were never attempted are absent from Rounds.
type SessionSummary struct {
	Session   *models.Session
	Candidate *models.Candidate
	Rounds    map[models.Round][]models.RoundResult
}

func (s *SessionSummary) State() models.SessionState {
	return s.Session.State()
}

// Latest returns the most recent attempt at round.
func (s *SessionSummary) Latest(round models.Round) (*models.RoundResult, bool) {
	attempts := s.Rounds[round]
	if len(attempts) == 0 {
		return nil, false
	}
	return &attempts[len(attempts)-1], true
}

func (s *SessionSummary) FinalDecision() *models.Decision {
	return s.Session.FinalDecision
}

// RoundGate walks a session through resume screening, the technical checklist
// and the scenario round. A passed round opens the next one, a failed round
// stays open for another attempt, and the scenario round always completes the
// session with HIRE or HOLD.
type RoundGate interface {
	StartSession(ctx context.Context, candidateName, role string) (*models.Session, error)
	SubmitRound(ctx context.Context, sessionID uuid.UUID, round models.Round, input RoundInput) (*RoundOutcome, error)
	GetSessionSummary(ctx context.Context, sessionID uuid.UUID) (*SessionSummary, error)
}

type roundGate struct {
	store      repositories.SessionStore
	evaluators Evaluators
	catalog    *config.Catalog
	metrics    *GateMetrics
}

func NewRoundGate(
	store repositories.SessionStore,
	evaluators Evaluators,
	catalog *config.Catalog,
	metrics *GateMetrics,
) (RoundGate, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if err := evaluators.validate(); err != nil {
		return nil, err
	}

	return &roundGate{
		store:      store,
		evaluators: evaluators,
		catalog:    catalog,
		metrics:    metrics,
	}, nil
}

// StartSession implements RoundGate.
func (g *roundGate) StartSession(ctx context.Context, candidateName, role string) (*models.Session, error) {
	name := strings.TrimSpace(candidateName)
	if name == "" {
		name = models.UnknownCandidateName
	}

	role = strings.TrimSpace(role)
	if _, ok := g.catalog.Role(role); !ok {
		return nil, newGateError(ErrValidation, uuid.Nil, 0,
			fmt.Errorf("role %q is not offered, choose one of: %s", role, strings.Join(g.catalog.RoleNames(), ", ")))
	}

	var session *models.Session
	err := g.store.Transaction(ctx, func(tx repositories.SessionStore) error {
		candidate, err := tx.UpsertCandidate(ctx, name, role)
		if err != nil {
			return err
		}

		session, err = tx.CreateSession(ctx, candidate.ID, role)
		return err
	})
	if err != nil {
		return nil, newGateError(ErrPersistence, uuid.Nil, 0, err)
	}

	g.metrics.sessionStarted()
	log.Printf("🆕 Session %s started for %s (%s)\n", session.ID, name, role)

	return session, nil
}

// SubmitRound implements RoundGate.
func (g *roundGate) SubmitRound(ctx context.Context, sessionID uuid.UUID, round models.Round, input RoundInput) (outcome *RoundOutcome, err error) {
	defer func() {
		g.metrics.submitted(round, outcome != nil && outcome.Result.Passed, err)
	}()

	if !round.Valid() {
		return nil, newGateError(ErrValidation, sessionID, round, fmt.Errorf("unknown round %d", int(round)))
	}

	session, err := g.loadSession(ctx, sessionID, round)
	if err != nil {
		return nil, err
	}

	if session.IsCompleted() {
		return nil, newGateError(ErrSessionCompleted, sessionID, round,
			fmt.Errorf("final decision %s already recorded", *session.FinalDecision))
	}

	if session.Stage != round {
		return nil, newGateError(ErrStageMismatch, sessionID, round,
			fmt.Errorf("session is at round %d", int(session.Stage)))
	}

	answer, err := g.validateInput(round, input)
	if err != nil {
		return nil, newGateError(ErrValidation, sessionID, round, err)
	}

	eval, err := g.evaluate(ctx, round, session.Role, input)
	if err != nil {
		return nil, newGateError(ErrEvaluator, sessionID, round, err)
	}

	payload, err := json.Marshal(eval.payload)
	if err != nil {
		return nil, newGateError(ErrEvaluator, sessionID, round, fmt.Errorf("failed to encode evaluator output: %w", err))
	}

	result := &models.RoundResult{
		SessionID: session.ID,
		RoundNo:   round,
		Owner:     round.Owner(),
		Question:  round.Question(session.Role),
		Answer:    answer,
		RawScore:  eval.rawScore,
		Score:     eval.score,
		Passed:    eval.passed,
		Threshold: round.Threshold(),
		Metrics:   payload,
	}

	next, advanced := round.Next()
	advanced = advanced && eval.passed
	completed := round == models.FinalRound
	decision := models.DecisionFor(eval.passed)

	err = g.store.Transaction(ctx, func(tx repositories.SessionStore) error {
		if err := tx.SaveRoundResult(ctx, result); err != nil {
			return err
		}
		switch {
		case completed:
			return tx.CompleteSession(ctx, session.ID, eval.score, decision)
		case advanced:
			return tx.AdvanceStage(ctx, session.ID, round, next)
		}
		return nil
	})
	if err != nil {
		return nil, newGateError(persistenceKind(err), sessionID, round, err)
	}

	updated := *session
	if advanced {
		updated.Stage = next
	}
	if completed {
		now := time.Now()
		finalScore := eval.score
		updated.FinalScore = &finalScore
		updated.FinalDecision = &decision
		updated.CompletedAt = &now
		g.metrics.sessionCompleted(decision)
	}

	log.Printf("📝 Session %s round %d attempt %d: score %.2f passed=%t stage=%d\n",
		session.ID, int(round), result.Attempt, result.Score, result.Passed, int(updated.Stage))
	if completed {
		log.Printf("🏁 Session %s completed: %s\n", session.ID, decision)
	}

	return &RoundOutcome{
		Result:    result,
		Session:   &updated,
		Advanced:  advanced,
		Completed: completed,
	}, nil
}

// GetSessionSummary implements RoundGate.
func (g *roundGate) GetSessionSummary(ctx context.Context, sessionID uuid.UUID) (*SessionSummary, error) {
	session, err := g.loadSession(ctx, sessionID, 0)
	if err != nil {
		return nil, err
	}

	candidate, err := g.store.FindCandidate(ctx, session.CandidateID)
	if err != nil {
		return nil, newGateError(ErrPersistence, sessionID, 0, err)
	}

	results, err := g.store.ListRoundResults(ctx, sessionID)
	if err != nil {
		return nil, newGateError(ErrPersistence, sessionID, 0, err)
	}

	rounds := make(map[models.Round][]models.RoundResult)
	for _, r := range results {
		rounds[r.RoundNo] = append(rounds[r.RoundNo], r)
	}

	return &SessionSummary{
		Session:   session,
		Candidate: candidate,
		Rounds:    rounds,
	}, nil
}

func (g *roundGate) loadSession(ctx context.Context, sessionID uuid.UUID, round models.Round) (*models.Session, error) {
	session, err := g.store.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newGateError(ErrSessionNotFound, sessionID, round, err)
		}
		return nil, newGateError(ErrPersistence, sessionID, round, err)
	}
	return session, nil
}

// validateInput checks the active round's input and returns the answer text
// to store with the result.
func (g *roundGate) validateInput(round models.Round, input RoundInput) (string, error) {
	switch round {
	case models.RoundResumeScreening:
		if strings.TrimSpace(input.ResumeText) == "" {
			return "", fmt.Errorf("resume text is required")
		}
		return input.ResumeText, nil

	case models.RoundTechnical:
		if len(input.Answers) == 0 {
			return "", fmt.Errorf("technical answers are required")
		}
		known := make(map[string]struct{}, len(g.catalog.Technical.Questions))
		for _, q := range g.catalog.Technical.Questions {
			known[q.ID] = struct{}{}
			if _, ok := input.Answers[q.ID]; !ok {
				return "", fmt.Errorf("answer for %s is required", q.ID)
			}
		}
		for id := range input.Answers {
			if _, ok := known[id]; !ok {
				return "", fmt.Errorf("unknown technical question %q", id)
			}
		}
		encoded, err := json.Marshal(input.Answers)
		if err != nil {
			return "", fmt.Errorf("failed to encode answers: %w", err)
		}
		return string(encoded), nil

	case models.RoundScenario:
		if strings.TrimSpace(input.ScenarioText) == "" {
			return "", fmt.Errorf("scenario answer is required")
		}
		return input.ScenarioText, nil
	}

	return "", fmt.Errorf("unknown round %d", int(round))
}

func (g *roundGate) evaluate(ctx context.Context, round models.Round, role string, input RoundInput) (*evaluation, error) {
	started := time.Now()
	defer func() { g.metrics.evaluated(round, time.Since(started)) }()

	switch round {
	case models.RoundResumeScreening:
		res, err := g.evaluators.Resume.Screen(ctx, role, input.ResumeText)
		if err != nil {
			return nil, err
		}
		return res.normalize()

	case models.RoundTechnical:
		res, err := g.evaluators.Technical.Evaluate(ctx, input.Answers)
		if err != nil {
			return nil, err
		}
		return res.normalize()

	case models.RoundScenario:
		res, err := g.evaluators.Scenario.Evaluate(ctx, input.ScenarioText)
		if err != nil {
			return nil, err
		}
		return res.normalize()
	}

	return nil, fmt.Errorf("no evaluator for round %d", int(round))
}

// persistenceKind maps store conflicts found inside the submission
// transaction to the gate kind a caller can act on.
func persistenceKind(err error) error {
	switch {
	case errors.Is(err, repositories.ErrSessionCompleted):
		return ErrSessionCompleted
	case errors.Is(err, repositories.ErrStageConflict):
		return ErrStageMismatch
	default:
		return ErrPersistence
	}
}
