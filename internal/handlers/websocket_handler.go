package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"

	"github.com/latestcomment/go-interview-room/internal/services"
)

const (
	paramsKey     = "session_params"
	inboundBuffer = 16
)

type WebSocketHandler struct {
	Service *services.InterviewService
	ctx     context.Context
}

// NewWebSocketHandler ties every session to ctx, cancelled on server shutdown.
func NewWebSocketHandler(ctx context.Context, service *services.InterviewService) *WebSocketHandler {
	return &WebSocketHandler{Service: service, ctx: ctx}
}

// WebSocketMiddleware rejects plain requests and bad query parameters before
// the upgrade, so the client gets a real HTTP status.
func (h *WebSocketHandler) WebSocketMiddleware(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	params, err := services.ParseSessionParams(c.Query("pos"), c.Query("rounds"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	c.Locals(paramsKey, params)
	return c.Next()
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	params, ok := c.Locals(paramsKey).(services.SessionParams)
	if !ok {
		_ = c.Close()
		return
	}

	channel, ctx := services.OpenChannel(h.ctx, c, inboundBuffer)
	defer func() {
		_ = channel.Close()
	}()
	if err := h.Service.Run(ctx, channel, params); err != nil {
		log.Error().Err(err).Str("subject", params.Subject).Msg("interview session failed")
	}
}
