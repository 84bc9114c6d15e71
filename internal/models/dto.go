package models

type StartSessionRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type TechnicalAnswer struct {
	Correct bool `json:"correct"`
}

type SubmitRoundRequest struct {
	ResumeText   string                     `json:"resume_text"`
	Answers      map[string]TechnicalAnswer `json:"answers"`
	ScenarioText string                     `json:"scenario_text"`
}

type SessionResponse struct {
	Session   *Session     `json:"session"`
	Candidate *Candidate   `json:"candidate,omitempty"`
	State     SessionState `json:"state"`
}

type RoundOutcomeResponse struct {
	Result    *RoundResult `json:"result"`
	Session   *Session     `json:"session"`
	State     SessionState `json:"state"`
	Advanced  bool         `json:"advanced"`
	Completed bool         `json:"completed"`
}

type RoundAttemptsResponse struct {
	Attempts []RoundResult `json:"attempts"`
	Latest   *RoundResult  `json:"latest"`
}

type SessionSummaryResponse struct {
	Session       *Session                         `json:"session"`
	Candidate     *Candidate                       `json:"candidate"`
	State         SessionState                     `json:"state"`
	Rounds        map[string]RoundAttemptsResponse `json:"rounds"`
	FinalDecision *Decision                        `json:"final_decision,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Round     int    `json:"round,omitempty"`
}
