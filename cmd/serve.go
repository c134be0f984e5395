package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/latestcomment/go-interview-room/internal/config"
	"github.com/latestcomment/go-interview-room/internal/handlers"
	"github.com/latestcomment/go-interview-room/internal/roles"
	"github.com/latestcomment/go-interview-room/internal/services"
)

func runServe(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	catalog, err := roles.Load(cfg.RolesFile)
	if err != nil {
		return err
	}

	transcripts, err := services.OpenTranscriptService(cfg.TranscriptDir)
	if err != nil {
		return err
	}
	defer func() {
		log.Info().Msg("closing transcript store")
		_ = transcripts.Close()
	}()

	ai := services.NewAIService(modelConfig(cfg))
	interview := services.NewInterviewService(ai, catalog, transcripts)

	engine := html.New(cfg.TemplatesDir, ".html")
	app := fiber.New(fiber.Config{
		Views:                 engine,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Static("/static", cfg.TemplatesDir)

	h := handlers.NewHandler(transcripts)
	ws := handlers.NewWebSocketHandler(ctx, interview)
	handlers.RegisterRoutes(app, h, ws)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Address()).Str("model", ai.Model()).Msg("🚀 interview server running")
		return app.Listen(cfg.Address())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down gracefully...")
		return app.ShutdownWithTimeout(cfg.ShutdownTimeout)
	})
	return g.Wait()
}

func modelConfig(cfg config.Config) services.ModelConfig {
	return services.ModelConfig{
		APIKey:    cfg.ModelAPIKey,
		BaseURL:   cfg.ModelBaseURL,
		Model:     cfg.ModelName,
		MaxTokens: cfg.ModelMaxTokens,
		Timeout:   cfg.RequestTimeout,
	}
}
