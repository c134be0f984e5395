package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(app *fiber.App, h *Handler, ws *WebSocketHandler) {
	app.Get("/", h.IndexPage)
	app.Get("/healthz", h.Health)
	app.Get("/api/transcripts", h.ListTranscripts)
	app.Get("/api/transcripts/:id", h.GetTranscript)
	app.Get("/ws/interview", ws.WebSocketMiddleware, websocket.New(ws.HandleWebSocket))
}
