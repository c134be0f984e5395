package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/latestcomment/go-interview-room/internal/models"
	"github.com/latestcomment/go-interview-room/internal/services"
)

const (
	defaultTranscriptLimit = 20
	maxTranscriptLimit     = 100
)

type TranscriptReader interface {
	Get(id string) (models.Transcript, error)
	List(limit int) ([]models.Transcript, error)
}

type Handler struct {
	Transcripts TranscriptReader
}

func NewHandler(transcripts TranscriptReader) *Handler {
	return &Handler{Transcripts: transcripts}
}

func (h *Handler) IndexPage(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"DefaultSubject": services.DefaultSubject,
		"DefaultRounds":  services.DefaultRounds,
	})
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handler) ListTranscripts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultTranscriptLimit)
	if limit < 1 || limit > maxTranscriptLimit {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 100")
	}
	transcripts, err := h.Transcripts.List(limit)
	if err != nil {
		return err
	}
	return c.JSON(transcripts)
}

func (h *Handler) GetTranscript(c *fiber.Ctx) error {
	t, err := h.Transcripts.Get(c.Params("id"))
	if errors.Is(err, services.ErrTranscriptNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "transcript not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(t)
}
