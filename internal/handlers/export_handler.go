package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/interview-agent/internal/services"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	gate services.RoundGate
}

func NewExportHandler(gate services.RoundGate) *ExportHandler {
	return &ExportHandler{gate: gate}
}

// HandleExport handles GET /sessions/:id/export
func (h *ExportHandler) HandleExport(c *fiber.Ctx) error {
	sessionID, err := parseSessionID(c)
	if err != nil {
		return badRequest(c, "Invalid session ID format")
	}

	summary, err := h.gate.GetSessionSummary(c.UserContext(), sessionID)
	if err != nil {
		return respondError(c, err)
	}

	var buf bytes.Buffer
	if err := services.ExportSummary(&buf, summary); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, xlsxMIME)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="session_%s.xlsx"`, sessionID))
	return c.Send(buf.Bytes())
}
