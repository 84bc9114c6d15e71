package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"alfredoptarigan/interview-agent/internal/config"
	"alfredoptarigan/interview-agent/internal/models"
	"alfredoptarigan/interview-agent/internal/services"
)

func newGate(store *memoryStore, evals *scriptedEvaluators) (services.RoundGate, *services.GateMetrics) {
	metrics := services.NewGateMetrics(prometheus.NewRegistry())
	gate, err := services.NewRoundGate(store, evals.bundle(), config.DefaultCatalog(), metrics)
	So(err, ShouldBeNil)
	return gate, metrics
}

func TestRoundGate_StartSession(t *testing.T) {
	Convey("Given a gate", t, func() {
		ctx := context.Background()
		store := newMemoryStore()
		gate, _ := newGate(store, &scriptedEvaluators{})

		Convey("When a session is started without a name", func() {
			session, err := gate.StartSession(ctx, "  ", "Backend Engineer")

			Convey("Then the candidate is recorded as Unknown at stage 1", func() {
				So(err, ShouldBeNil)
				So(session.Stage, ShouldEqual, models.RoundResumeScreening)
				So(session.State(), ShouldEqual, models.StateAwaitingResumeScreening)
				cand, err := store.FindCandidate(ctx, session.CandidateID)
				So(err, ShouldBeNil)
				So(cand.Name, ShouldEqual, models.UnknownCandidateName)
				So(cand.Role, ShouldEqual, "Backend Engineer")
			})
		})

		Convey("When the role is not in the catalog", func() {
			_, err := gate.StartSession(ctx, "Ada", "Astronaut")

			Convey("Then it fails validation and stores nothing", func() {
				So(errors.Is(err, services.ErrValidation), ShouldBeTrue)
				So(store.sessions, ShouldBeEmpty)
				So(store.candidates, ShouldBeEmpty)
			})
		})

		Convey("When two unnamed candidates start sessions for different roles", func() {
			evals := &scriptedEvaluators{screening: []*services.ScreeningResult{{Score: 70, Pass: true}}}
			gate, _ := newGate(store, evals)

			first, err := gate.StartSession(ctx, "", "Backend Engineer")
			So(err, ShouldBeNil)
			second, err := gate.StartSession(ctx, "", "ML Engineer")
			So(err, ShouldBeNil)

			outcome, err := gate.SubmitRound(ctx, first.ID, models.RoundResumeScreening,
				services.RoundInput{ResumeText: "Go, REST APIs, PostgreSQL"})
			So(err, ShouldBeNil)

			Convey("Then each session keeps the role it was started with", func() {
				So(first.CandidateID, ShouldEqual, second.CandidateID)
				So(second.Role, ShouldEqual, "ML Engineer")
				So(evals.lastRole, ShouldEqual, "Backend Engineer")
				So(outcome.Result.Question, ShouldEqual, "Resume Screening for Backend Engineer")

				summary, err := gate.GetSessionSummary(ctx, first.ID)
				So(err, ShouldBeNil)
				So(summary.Session.Role, ShouldEqual, "Backend Engineer")
				So(summary.Candidate.Role, ShouldEqual, "ML Engineer")
			})
		})
	})
}

func TestRoundGate_SubmitRound(t *testing.T) {
	Convey("Given a started session", t, func() {
		ctx := context.Background()
		store := newMemoryStore()
		evals := &scriptedEvaluators{}
		gate, metrics := newGate(store, evals)

		session, err := gate.StartSession(ctx, "", "Backend Engineer")
		So(err, ShouldBeNil)

		Convey("When round 1 passes", func() {
			evals.screening = []*services.ScreeningResult{{Score: 82, Pass: true, Reason: "strong match"}}
			outcome, err := gate.SubmitRound(ctx, session.ID, models.RoundResumeScreening,
				services.RoundInput{ResumeText: "5 years backend, REST APIs, PostgreSQL"})

			Convey("Then the stage moves to 2 and one result is stored", func() {
				So(err, ShouldBeNil)
				So(outcome.Advanced, ShouldBeTrue)
				So(outcome.Completed, ShouldBeFalse)
				So(outcome.Session.Stage, ShouldEqual, models.RoundTechnical)
				So(evals.lastRole, ShouldEqual, "Backend Engineer")

				stored, _ := store.FindSession(ctx, session.ID)
				So(stored.Stage, ShouldEqual, models.RoundTechnical)

				results := store.resultsFor(session.ID, models.RoundResumeScreening)
				So(results, ShouldHaveLength, 1)
				So(results[0].RawScore, ShouldEqual, 82.0)
				So(results[0].Score, ShouldEqual, 82.0)
				So(results[0].Passed, ShouldBeTrue)
				So(results[0].Threshold, ShouldEqual, 60.0)
				So(results[0].Owner, ShouldEqual, "Level 1 Screening")
				So(results[0].Question, ShouldEqual, "Resume Screening for Backend Engineer")
				So(results[0].Answer, ShouldEqual, "5 years backend, REST APIs, PostgreSQL")

				var payload map[string]any
				So(json.Unmarshal(results[0].Metrics, &payload), ShouldBeNil)
				So(payload["reason"], ShouldEqual, "strong match")

				So(testutil.ToFloat64(metrics.Submissions().WithLabelValues("1", "passed")), ShouldEqual, 1)
			})
		})

		Convey("When round 1 fails and is retried", func() {
			evals.screening = []*services.ScreeningResult{
				{Score: 40, Pass: false, Reason: "weak"},
				{Score: 75, Pass: true, Reason: "better"},
			}
			first, err := gate.SubmitRound(ctx, session.ID, models.RoundResumeScreening, services.RoundInput{ResumeText: "junior"})
			So(err, ShouldBeNil)

			Convey("Then the first attempt leaves the stage at 1", func() {
				So(first.Advanced, ShouldBeFalse)
				So(first.Session.Stage, ShouldEqual, models.RoundResumeScreening)
				So(first.Result.Passed, ShouldBeFalse)
				So(store.resultsFor(session.ID, models.RoundResumeScreening), ShouldHaveLength, 1)
			})

			Convey("Then a passing retry advances and appends a second result", func() {
				second, err := gate.SubmitRound(ctx, session.ID, models.RoundResumeScreening, services.RoundInput{ResumeText: "senior"})
				So(err, ShouldBeNil)
				So(second.Session.Stage, ShouldEqual, models.RoundTechnical)

				results := store.resultsFor(session.ID, models.RoundResumeScreening)
				So(results, ShouldHaveLength, 2)
				So(results[0].Attempt, ShouldEqual, 1)
				So(results[0].Passed, ShouldBeFalse)
				So(results[1].Attempt, ShouldEqual, 2)
				So(results[1].Passed, ShouldBeTrue)
			})
		})

		Convey("When the pipeline runs to a failed scenario round", func() {
			evals.screening = []*services.ScreeningResult{{Score: 82, Pass: true}}
			evals.technical = []*services.TechnicalResult{{ProbPass: 0.68, Pass: true}}
			evals.scenario = []*services.ScenarioResult{{Score: 60, Pass: false, Reason: "thin"}}

			_, err := gate.SubmitRound(ctx, session.ID, models.RoundResumeScreening, services.RoundInput{ResumeText: "resume"})
			So(err, ShouldBeNil)
			tech, err := gate.SubmitRound(ctx, session.ID, models.RoundTechnical, services.RoundInput{Answers: allCorrect()})
			So(err, ShouldBeNil)
			final, err := gate.SubmitRound(ctx, session.ID, models.RoundScenario, services.RoundInput{ScenarioText: "restart it"})
			So(err, ShouldBeNil)

			Convey("Then round 2 stores the probability scaled to 0-100", func() {
				So(tech.Result.RawScore, ShouldAlmostEqual, 68.0, 1e-9)
				So(tech.Result.Score, ShouldAlmostEqual, 68.0, 1e-9)
				So(tech.Result.Threshold, ShouldEqual, 50.0)
				So(tech.Result.Answer, ShouldEqual, `{"q1":{"correct":true},"q2":{"correct":true},"q3":{"correct":true}}`)
			})

			Convey("Then the session completes with HOLD and stays at stage 3", func() {
				So(final.Completed, ShouldBeTrue)
				So(final.Advanced, ShouldBeFalse)
				So(final.Result.Threshold, ShouldEqual, 75.0)
				So(final.Session.Stage, ShouldEqual, models.RoundScenario)
				So(*final.Session.FinalDecision, ShouldEqual, models.DecisionHold)
				So(final.Session.State(), ShouldEqual, models.StateCompleted)

				stored, _ := store.FindSession(ctx, session.ID)
				So(stored.IsCompleted(), ShouldBeTrue)
				So(*stored.FinalDecision, ShouldEqual, models.DecisionHold)
				So(*stored.FinalScore, ShouldEqual, 60.0)
				So(store.completeCalls, ShouldEqual, 1)
				So(testutil.ToFloat64(metrics.SessionsCompleted().WithLabelValues("HOLD")), ShouldEqual, 1)
			})

			Convey("Then any further submission is refused without evaluating", func() {
				_, err := gate.SubmitRound(ctx, session.ID, models.RoundScenario, services.RoundInput{ScenarioText: "again"})
				So(errors.Is(err, services.ErrSessionCompleted), ShouldBeTrue)
				So(evals.scenarioCalls, ShouldEqual, 1)
				So(store.completeCalls, ShouldEqual, 1)
			})
		})

		Convey("When the scenario round passes", func() {
			store.sessions[session.ID] = models.Session{ID: session.ID, CandidateID: session.CandidateID, Stage: models.RoundScenario}
			evals.scenario = []*services.ScenarioResult{{Score: 90, Pass: true}}

			outcome, err := gate.SubmitRound(ctx, session.ID, models.RoundScenario, services.RoundInput{ScenarioText: "detect, mitigate, communicate"})

			Convey("Then the decision is HIRE", func() {
				So(err, ShouldBeNil)
				So(*outcome.Session.FinalDecision, ShouldEqual, models.DecisionHire)
				So(*outcome.Session.FinalScore, ShouldEqual, 90.0)
			})
		})

		Convey("When the evaluator disagrees with the threshold", func() {
			evals.screening = []*services.ScreeningResult{{Score: 95, Pass: false}}
			outcome, err := gate.SubmitRound(ctx, session.ID, models.RoundResumeScreening, services.RoundInput{ResumeText: "resume"})

			Convey("Then the evaluator's pass flag decides", func() {
				So(err, ShouldBeNil)
				So(outcome.Result.Passed, ShouldBeFalse)
				So(outcome.Session.Stage, ShouldEqual, models.RoundResumeScreening)
			})
		})

		Convey("When a later round is submitted early", func() {
			_, err := gate.SubmitRound(ctx, session.ID, models.RoundScenario, services.RoundInput{ScenarioText: "story"})

			Convey("Then it fails with a stage mismatch and writes nothing", func() {
				So(errors.Is(err, services.ErrStageMismatch), ShouldBeTrue)
				var gateErr *services.GateError
				So(errors.As(err, &gateErr), ShouldBeTrue)
				So(gateErr.SessionID, ShouldEqual, session.ID)
				So(gateErr.Round, ShouldEqual, models.RoundScenario)
				So(store.results, ShouldBeEmpty)
				So(evals.scenarioCalls, ShouldEqual, 0)
				So(testutil.ToFloat64(metrics.Submissions().WithLabelValues("3", "stage_mismatch")), ShouldEqual, 1)
			})
		})

		Convey("When the input is blank", func() {
			_, err := gate.SubmitRound(ctx, session.ID, models.RoundResumeScreening, services.RoundInput{ResumeText: "   \n"})

			Convey("Then it fails validation without calling the evaluator", func() {
				So(errors.Is(err, services.ErrValidation), ShouldBeTrue)
				So(evals.screenCalls, ShouldEqual, 0)
				So(store.results, ShouldBeEmpty)
			})
		})

		Convey("When technical answers are incomplete or unknown", func() {
			store.sessions[session.ID] = models.Session{ID: session.ID, CandidateID: session.CandidateID, Stage: models.RoundTechnical}

			_, missing := gate.SubmitRound(ctx, session.ID, models.RoundTechnical, services.RoundInput{
				Answers: map[string]models.TechnicalAnswer{"q1": {Correct: true}},
			})
			answers := allCorrect()
			answers["q9"] = models.TechnicalAnswer{Correct: true}
			_, unknown := gate.SubmitRound(ctx, session.ID, models.RoundTechnical, services.RoundInput{Answers: answers})
			_, empty := gate.SubmitRound(ctx, session.ID, models.RoundTechnical, services.RoundInput{})

			Convey("Then each is a validation error", func() {
				So(errors.Is(missing, services.ErrValidation), ShouldBeTrue)
				So(errors.Is(unknown, services.ErrValidation), ShouldBeTrue)
				So(errors.Is(empty, services.ErrValidation), ShouldBeTrue)
				So(evals.technicalCalls, ShouldEqual, 0)
			})
		})

		Convey("When the round number is outside the set", func() {
			_, err := gate.SubmitRound(ctx, session.ID, models.Round(7), services.RoundInput{ResumeText: "resume"})
			So(errors.Is(err, services.ErrValidation), ShouldBeTrue)
		})

		Convey("When the evaluator fails", func() {
			evals.err = errors.New("model unavailable")
			_, err := gate.SubmitRound(ctx, session.ID, models.RoundResumeScreening, services.RoundInput{ResumeText: "resume"})

			Convey("Then it is an evaluator error and nothing is written", func() {
				So(errors.Is(err, services.ErrEvaluator), ShouldBeTrue)
				So(errors.Is(err, evals.err), ShouldBeTrue)
				So(store.results, ShouldBeEmpty)
			})
		})

		Convey("When the evaluator returns a malformed result", func() {
			store.sessions[session.ID] = models.Session{ID: session.ID, CandidateID: session.CandidateID, Stage: models.RoundTechnical}
			evals.technical = []*services.TechnicalResult{{ProbPass: 1.7, Pass: true}}
			_, err := gate.SubmitRound(ctx, session.ID, models.RoundTechnical, services.RoundInput{Answers: allCorrect()})

			Convey("Then it is an evaluator error and nothing is written", func() {
				So(errors.Is(err, services.ErrEvaluator), ShouldBeTrue)
				So(store.results, ShouldBeEmpty)
			})
		})

		Convey("When the evaluator returns NaN", func() {
			evals.screening = []*services.ScreeningResult{{Score: math.NaN(), Pass: true}}
			_, err := gate.SubmitRound(ctx, session.ID, models.RoundResumeScreening, services.RoundInput{ResumeText: "resume"})
			So(errors.Is(err, services.ErrEvaluator), ShouldBeTrue)
		})

		Convey("When the stage update fails after the result is written", func() {
			store.failAdvance = errors.New("disk full")
			evals.screening = []*services.ScreeningResult{{Score: 82, Pass: true}}
			outcome, err := gate.SubmitRound(ctx, session.ID, models.RoundResumeScreening, services.RoundInput{ResumeText: "resume"})

			Convey("Then the whole submission is rolled back", func() {
				So(outcome, ShouldBeNil)
				So(errors.Is(err, services.ErrPersistence), ShouldBeTrue)
				So(store.results, ShouldBeEmpty)
				stored, _ := store.FindSession(ctx, session.ID)
				So(stored.Stage, ShouldEqual, models.RoundResumeScreening)
			})
		})

		Convey("When completing the session fails", func() {
			store.sessions[session.ID] = models.Session{ID: session.ID, CandidateID: session.CandidateID, Stage: models.RoundScenario}
			store.failComplete = errors.New("connection reset")
			evals.scenario = []*services.ScenarioResult{{Score: 90, Pass: true}}
			_, err := gate.SubmitRound(ctx, session.ID, models.RoundScenario, services.RoundInput{ScenarioText: "story"})

			Convey("Then no result survives and the session stays open", func() {
				So(errors.Is(err, services.ErrPersistence), ShouldBeTrue)
				So(store.results, ShouldBeEmpty)
				stored, _ := store.FindSession(ctx, session.ID)
				So(stored.IsCompleted(), ShouldBeFalse)
			})
		})

		Convey("When the session does not exist", func() {
			_, err := gate.SubmitRound(ctx, uuid.New(), models.RoundResumeScreening, services.RoundInput{ResumeText: "resume"})
			So(errors.Is(err, services.ErrSessionNotFound), ShouldBeTrue)
		})

		Convey("When the store cannot be read", func() {
			store.failFind = errors.New("timeout")
			_, err := gate.SubmitRound(ctx, session.ID, models.RoundResumeScreening, services.RoundInput{ResumeText: "resume"})
			So(errors.Is(err, services.ErrPersistence), ShouldBeTrue)
		})
	})
}

func TestRoundGate_GetSessionSummary(t *testing.T) {
	Convey("Given a session that has only passed round 1", t, func() {
		ctx := context.Background()
		store := newMemoryStore()
		evals := &scriptedEvaluators{
			screening: []*services.ScreeningResult{{Score: 40, Pass: false}, {Score: 82, Pass: true}},
		}
		gate, _ := newGate(store, evals)

		session, err := gate.StartSession(ctx, "Grace", "Data Engineer")
		So(err, ShouldBeNil)
		for i := 0; i < 2; i++ {
			_, err := gate.SubmitRound(ctx, session.ID, models.RoundResumeScreening, services.RoundInput{ResumeText: "resume"})
			So(err, ShouldBeNil)
		}

		summary, err := gate.GetSessionSummary(ctx, session.ID)

		Convey("Then missing rounds are absent and attempts are grouped", func() {
			So(err, ShouldBeNil)
			So(summary.Candidate.Name, ShouldEqual, "Grace")
			So(summary.State(), ShouldEqual, models.StateAwaitingTechnicalEvaluation)
			So(summary.Rounds[models.RoundResumeScreening], ShouldHaveLength, 2)
			_, ok := summary.Rounds[models.RoundTechnical]
			So(ok, ShouldBeFalse)
			So(summary.FinalDecision(), ShouldBeNil)

			latest, ok := summary.Latest(models.RoundResumeScreening)
			So(ok, ShouldBeTrue)
			So(latest.Attempt, ShouldEqual, 2)
			_, ok = summary.Latest(models.RoundScenario)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given an unknown session", t, func() {
		gate, _ := newGate(newMemoryStore(), &scriptedEvaluators{})
		_, err := gate.GetSessionSummary(context.Background(), uuid.New())
		So(errors.Is(err, services.ErrSessionNotFound), ShouldBeTrue)
	})
}

func TestNewRoundGate(t *testing.T) {
	Convey("Given missing collaborators", t, func() {
		_, err := services.NewRoundGate(newMemoryStore(), services.Evaluators{}, config.DefaultCatalog(), nil)
		So(err, ShouldNotBeNil)

		_, err = services.NewRoundGate(nil, (&scriptedEvaluators{}).bundle(), config.DefaultCatalog(), nil)
		So(err, ShouldNotBeNil)
	})

	Convey("Given nil metrics", t, func() {
		evals := &scriptedEvaluators{screening: []*services.ScreeningResult{{Score: 70, Pass: true}}}
		gate, err := services.NewRoundGate(newMemoryStore(), evals.bundle(), config.DefaultCatalog(), nil)
		So(err, ShouldBeNil)

		session, err := gate.StartSession(context.Background(), "Linus", "ML Engineer")
		So(err, ShouldBeNil)
		_, err = gate.SubmitRound(context.Background(), session.ID, models.RoundResumeScreening, services.RoundInput{ResumeText: "cv"})
		So(err, ShouldBeNil)
	})
}
