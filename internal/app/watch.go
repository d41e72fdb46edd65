package app

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/zenith-desktop/zenith/internal/api/http"
	"github.com/zenith-desktop/zenith/internal/scheduler"
	"github.com/zenith-desktop/zenith/internal/weather"
)

// WatchInterval returns the refresh interval from config.json, falling back
// to weather.DefaultInterval when the record is unreadable or non-positive.
func (r *Runtime) WatchInterval() time.Duration {
	cfg, err := r.Config.Load(r.Settings.DefaultInterval)
	if err != nil {
		r.Logger.Warn("could not read interval; using default", "error", err, "interval", weather.DefaultInterval)
		return weather.DefaultInterval * time.Second
	}
	if cfg.Interval <= 0 {
		r.Logger.Warn("configured interval is not positive; using default", "interval", cfg.Interval)
		return weather.DefaultInterval * time.Second
	}
	return time.Duration(cfg.Interval) * time.Second
}

// Watch re-runs the pipeline every interval until ctx is cancelled. When a
// listen address is configured it also serves the status API.
func (r *Runtime) Watch(ctx context.Context) error {
	interval := r.WatchInterval()

	sched := scheduler.New(interval, 0, r.RunOnce, r.Logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	var server *fiber.App
	serveErr := make(chan error, 1)
	if addr := r.Settings.ListenAddr; addr != "" {
		server = NewStatusServer(r)
		go func() {
			r.Logger.Info("status API listening", "addr", addr)
			serveErr <- server.Listen(addr)
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.ShutdownWithContext(shutdownCtx); err != nil {
			r.Logger.Warn("error during status API shutdown", "error", err)
		}
	}
	r.Logger.Info("watch stopped")
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// NewStatusServer builds the Fiber app serving r's status.
func NewStatusServer(r *Runtime) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "zenith",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(recover.New())
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		r.Logger.Debug("status API request", "method", c.Method(), "path", c.Path(), "status", c.Response().StatusCode())
		return err
	})

	httpapi.RegisterRoutes(app, r.Status)
	return app
}
