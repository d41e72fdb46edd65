package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/zenith-desktop/zenith/internal/store"
	"github.com/zenith-desktop/zenith/internal/weather"
)

var validate = validator.New()

// StatusSource is what the routes read from.
type StatusSource interface {
	Latest() (weather.RunReport, error)
	LatestSample() (weather.Sample, error)
	Counters() (runs, consecutiveFailures int)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, status StatusSource) {
	app.Get("/health", func(c *fiber.Ctx) error {
		runs, failures := status.Counters()
		state := "ok"
		if failures >= 2 {
			state = "degraded"
		}
		return c.JSON(fiber.Map{
			"status":              state,
			"service":             "zenith",
			"runs":                runs,
			"consecutiveFailures": failures,
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/status", func(c *fiber.Ctx) error {
		report, err := status.Latest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no run has completed yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read status")
		}
		return c.JSON(report)
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		sample, err := status.LatestSample()
		if err != nil {
			if errors.Is(err, store.ErrNoSample) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather data")
		}
		return c.JSON(fiber.Map{
			"sample":   sample,
			"category": weather.Classify(sample.WeatherCode),
		})
	})

	v1.Get("/classify", func(c *fiber.Ctx) error {
		var q classifyQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{
			"code":     *q.Code,
			"category": weather.Classify(*q.Code),
		})
	})
}

// classifyQuery holds query parameters for the classify endpoint.
type classifyQuery struct {
	Code *int `validate:"required"`
}

func (q *classifyQuery) bind(c *fiber.Ctx) error {
	raw := c.Query("code")
	if raw == "" {
		return nil
	}
	code, err := strconv.Atoi(raw)
	if err != nil {
		return errors.New("code must be an integer")
	}
	q.Code = &code
	return nil
}
