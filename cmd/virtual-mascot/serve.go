package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/virtual-mascot/internal/api/http"
	"github.com/i474232898/virtual-mascot/internal/chat"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API used by the mascot renderer.

The server shuts down gracefully on SIGINT/SIGTERM or when a user says goodbye.`,
	RunE: runServe,
}

func newFiberApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "virtual-mascot",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	// An exit message ends the session like a signal does.
	exitRequested := make(chan struct{}, 1)
	unsubscribe := a.bus.Subscribe(func(e chat.DisplayEvent) {
		if e.Kind == chat.EventExit {
			select {
			case exitRequested <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	if err := a.start(); err != nil {
		return err
	}

	app := newFiberApp()

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Submitter:       a.orch,
		Events:          a.inbox,
		History:         a.history,
		Weather:         a.weather,
		Mascot:          a.mascot,
		DefaultLocation: a.cfg.DefaultLocation,
		MaxHistory:      a.cfg.MaxHistoryEntries,
	})

	listenErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Addr()).Msg("http server listening")
		listenErr <- app.Listen(a.cfg.Addr())
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("signal received, shutting down")
	case <-exitRequested:
		a.log.Info().Msg("exit requested, shutting down")
	case err := <-listenErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("error during shutdown")
	}
	return nil
}
