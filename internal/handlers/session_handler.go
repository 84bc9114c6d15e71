package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/interview-agent/internal/config"
	"alfredoptarigan/interview-agent/internal/models"
	"alfredoptarigan/interview-agent/internal/services"
)

type SessionHandler struct {
	gate    services.RoundGate
	catalog *config.Catalog
}

func NewSessionHandler(gate services.RoundGate, catalog *config.Catalog) *SessionHandler {
	return &SessionHandler{
		gate:    gate,
		catalog: catalog,
	}
}

// HandleStartSession handles POST /sessions
func (h *SessionHandler) HandleStartSession(c *fiber.Ctx) error {
	var req models.StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	session, err := h.gate.StartSession(c.UserContext(), req.Name, req.Role)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.SessionResponse{
		Session: session,
		State:   session.State(),
	})
}

// HandleGetSession handles GET /sessions/:id
func (h *SessionHandler) HandleGetSession(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return badRequest(c, "Invalid session ID format")
	}

	summary, err := h.gate.GetSessionSummary(c.UserContext(), sessionID)
	if err != nil {
		return respondError(c, err)
	}

	rounds := make(map[string]models.RoundAttemptsResponse, len(summary.Rounds))
	for round, attempts := range summary.Rounds {
		latest, _ := summary.Latest(round)
		rounds[round.String()] = models.RoundAttemptsResponse{
			Attempts: attempts,
			Latest:   latest,
		}
	}

	return c.JSON(models.SessionSummaryResponse{
		Session:       summary.Session,
		Candidate:     summary.Candidate,
		State:         summary.State(),
		Rounds:        rounds,
		FinalDecision: summary.FinalDecision(),
	})
}

// HandleGetCatalog handles GET /catalog
func (h *SessionHandler) HandleGetCatalog(c *fiber.Ctx) error {
	return c.JSON(h.catalog)
}
