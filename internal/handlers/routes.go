package handlers

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the interview API on router.
func RegisterRoutes(router fiber.Router, sessions *SessionHandler, rounds *RoundHandler, export *ExportHandler) {
	router.Get("/catalog", sessions.HandleGetCatalog)
	router.Post("/sessions", sessions.HandleStartSession)
	router.Get("/sessions/:id", sessions.HandleGetSession)
	router.Post("/sessions/:id/rounds/:round", rounds.HandleSubmitRound)
	router.Get("/sessions/:id/export", export.HandleExport)
}
