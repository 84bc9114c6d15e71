package services

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"alfredoptarigan/interview-agent/internal/models"
)

const metricsNamespace = "interview"

// GateMetrics records what the round gate does. A nil *GateMetrics is valid
// and records nothing.
type GateMetrics struct {
	submissions       *prometheus.CounterVec
	evaluatorDuration *prometheus.HistogramVec
	sessionsStarted   prometheus.Counter
	sessionsCompleted *prometheus.CounterVec
}

func NewGateMetrics(reg prometheus.Registerer) *GateMetrics {
	factory := promauto.With(reg)

	return &GateMetrics{
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gate",
			Name:      "submissions_total",
			Help:      "Round submissions by round and outcome.",
		}, []string{"round", "outcome"}),
		evaluatorDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "gate",
			Name:      "evaluator_duration_seconds",
			Help:      "Time spent in round evaluators.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"round"}),
		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gate",
			Name:      "sessions_started_total",
			Help:      "Sessions created.",
		}),
		sessionsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gate",
			Name:      "sessions_completed_total",
			Help:      "Sessions completed by final decision.",
		}, []string{"decision"}),
	}
}

// Submissions exposes the submission counter, labelled by round and outcome.
func (m *GateMetrics) Submissions() *prometheus.CounterVec {
	return m.submissions
}

// SessionsCompleted exposes the completion counter, labelled by decision.
func (m *GateMetrics) SessionsCompleted() *prometheus.CounterVec {
	return m.sessionsCompleted
}

func (m *GateMetrics) sessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *GateMetrics) sessionCompleted(decision models.Decision) {
	if m == nil {
		return
	}
	m.sessionsCompleted.WithLabelValues(string(decision)).Inc()
}

func (m *GateMetrics) evaluated(round models.Round, took time.Duration) {
	if m == nil {
		return
	}
	m.evaluatorDuration.WithLabelValues(roundLabel(round)).Observe(took.Seconds())
}

func (m *GateMetrics) submitted(round models.Round, passed bool, err error) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(roundLabel(round), outcomeLabel(passed, err)).Inc()
}

func roundLabel(round models.Round) string {
	return strconv.Itoa(int(round))
}

func outcomeLabel(passed bool, err error) string {
	if err == nil {
		if passed {
			return "passed"
		}
		return "failed"
	}

	switch kind := ErrorKind(err); {
	case errors.Is(kind, ErrValidation):
		return "validation_error"
	case errors.Is(kind, ErrEvaluator):
		return "evaluator_error"
	case errors.Is(kind, ErrPersistence):
		return "persistence_error"
	case errors.Is(kind, ErrStageMismatch):
		return "stage_mismatch"
	case errors.Is(kind, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(kind, ErrSessionCompleted):
		return "session_completed"
	default:
		return "error"
	}
}
