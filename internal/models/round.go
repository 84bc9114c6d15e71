package models

import (
	"fmt"
)

// Round is one of the three gated evaluation steps. The set is closed: values
// outside it never reach an evaluator.
type Round int

const (
	RoundResumeScreening Round = iota + 1
	RoundTechnical
	RoundScenario
)

// FinalRound is the round whose outcome completes a session.
const FinalRound = RoundScenario

type roundInfo struct {
	name      string
	owner     string
	question  string
	threshold float64
}

var roundTable = map[Round]roundInfo{
	RoundResumeScreening: {name: "resume_screening", owner: "Level 1 Screening", question: "Resume Screening for %s", threshold: 60.0},
	// Threshold is on the probability-of-pass scale multiplied by 100.
	RoundTechnical: {name: "technical", owner: "Level 2 Technical", question: "Technical Evaluation", threshold: 50.0},
	RoundScenario:  {name: "scenario", owner: "Level 3 Scenario", question: "Production Incident Handling", threshold: 75.0},
}

// Rounds lists every round in the order a session walks them.
func Rounds() []Round {
	return []Round{RoundResumeScreening, RoundTechnical, RoundScenario}
}

func ParseRound(n int) (Round, error) {
	r := Round(n)
	if !r.Valid() {
		return 0, fmt.Errorf("round must be between %d and %d, got %d", RoundResumeScreening, FinalRound, n)
	}
	return r, nil
}

func (r Round) Valid() bool {
	_, ok := roundTable[r]
	return ok
}

func (r Round) String() string {
	if info, ok := roundTable[r]; ok {
		return info.name
	}
	return fmt.Sprintf("round(%d)", int(r))
}

// Owner is the label recorded on every result of this round.
func (r Round) Owner() string {
	return roundTable[r].owner
}

// Question is the prompt text recorded with a result. Only resume screening
// mentions the role.
func (r Round) Question(role string) string {
	if r == RoundResumeScreening {
		return fmt.Sprintf(roundTable[r].question, role)
	}
	return roundTable[r].question
}

// Threshold is the pass/fail cutoff stored for audit. The evaluator alone
// decides pass or fail.
func (r Round) Threshold() float64 {
	return roundTable[r].threshold
}

// Next returns the round after r, or false when r is the final round.
func (r Round) Next() (Round, bool) {
	if r >= FinalRound || !r.Valid() {
		return r, false
	}
	return r + 1, true
}
