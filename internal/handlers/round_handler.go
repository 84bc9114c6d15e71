package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/interview-agent/internal/models"
	"alfredoptarigan/interview-agent/internal/services"
)

type RoundHandler struct {
	gate    services.RoundGate
	storage services.StorageService
	parser  services.DocumentParser
}

func NewRoundHandler(
	gate services.RoundGate,
	storage services.StorageService,
	parser services.DocumentParser,
) *RoundHandler {
	return &RoundHandler{
		gate:    gate,
		storage: storage,
		parser:  parser,
	}
}

// HandleSubmitRound handles POST /sessions/:id/rounds/:round. Round 1 also
// accepts a multipart upload in the "resume" field; the upload is removed once
// its text is extracted.
func (h *RoundHandler) HandleSubmitRound(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return badRequest(c, "Invalid session ID format")
	}

	n, err := c.ParamsInt("round")
	if err != nil {
		return badRequest(c, "Invalid round number")
	}
	round, err := models.ParseRound(n)
	if err != nil {
		return badRequest(c, err.Error())
	}

	input, err := h.readInput(c, sessionID, round)
	if err != nil {
		return badRequest(c, err.Error())
	}

	outcome, err := h.gate.SubmitRound(c.UserContext(), sessionID, round, input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.RoundOutcomeResponse{
		Result:    outcome.Result,
		Session:   outcome.Session,
		State:     outcome.Session.State(),
		Advanced:  outcome.Advanced,
		Completed: outcome.Completed,
	})
}

func (h *RoundHandler) readInput(c *fiber.Ctx, sessionID uuid.UUID, round models.Round) (services.RoundInput, error) {
	if round == models.RoundResumeScreening && strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		text, err := h.extractResume(c, sessionID)
		if err != nil {
			return services.RoundInput{}, err
		}
		return services.RoundInput{ResumeText: text}, nil
	}

	var req models.SubmitRoundRequest
	if err := c.BodyParser(&req); err != nil {
		return services.RoundInput{}, errors.New("invalid request payload")
	}

	return services.RoundInput{
		ResumeText:   req.ResumeText,
		Answers:      req.Answers,
		ScenarioText: req.ScenarioText,
	}, nil
}

func (h *RoundHandler) extractResume(c *fiber.Ctx, sessionID uuid.UUID) (string, error) {
	file, err := c.FormFile("resume")
	if err != nil {
		return "", fmt.Errorf("resume file is required")
	}

	path, err := h.storage.SaveResume(file, sessionID)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFormat) {
			return "", err
		}
		log.Printf("❌ Failed to store resume for session %s: %v\n", sessionID, err)
		return "", fmt.Errorf("failed to store resume: %w", err)
	}
	// Only the extracted text is kept, whatever the gate decides.
	defer func() {
		if err := h.storage.DeleteFile(path); err != nil {
			log.Printf("⚠️ Failed to remove resume upload %s: %v\n", path, err)
		}
	}()

	text, err := h.parser.ExtractText(path)
	if err != nil {
		return "", fmt.Errorf("failed to read resume: %w", err)
	}

	log.Printf("📄 Resume %s extracted (%d chars)\n", file.Filename, len(text))
	return text, nil
}
