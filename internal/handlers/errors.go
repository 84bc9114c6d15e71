package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/interview-agent/internal/models"
	"alfredoptarigan/interview-agent/internal/services"
)

var errorKinds = []struct {
	kind   error
	name   string
	status int
}{
	{services.ErrValidation, "validation", fiber.StatusBadRequest},
	{services.ErrSessionNotFound, "session_not_found", fiber.StatusNotFound},
	{services.ErrStageMismatch, "stage_mismatch", fiber.StatusConflict},
	{services.ErrSessionCompleted, "session_completed", fiber.StatusConflict},
	{services.ErrEvaluator, "evaluator", fiber.StatusBadGateway},
	{services.ErrPersistence, "persistence", fiber.StatusInternalServerError},
}

// respondError renders a gate failure with the status its kind maps to.
func respondError(c *fiber.Ctx, err error) error {
	body := models.ErrorResponse{Error: err.Error()}
	status := fiber.StatusInternalServerError

	var gateErr *services.GateError
	if errors.As(err, &gateErr) {
		if gateErr.SessionID != uuid.Nil {
			body.SessionID = gateErr.SessionID.String()
		}
		body.Round = int(gateErr.Round)
		for _, k := range errorKinds {
			if errors.Is(gateErr.Kind, k.kind) {
				body.Kind = k.name
				status = k.status
				break
			}
		}
	}

	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: msg,
		Kind:  "validation",
	})
}

func parseSessionID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}
