package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/virtual-mascot/internal/chat"
	"github.com/i474232898/virtual-mascot/internal/mascot"
	"github.com/i474232898/virtual-mascot/internal/store"
)

var validate = validator.New()

// MaxLocationLength bounds the location accepted by the weather endpoint.
const MaxLocationLength = 100

// Submitter accepts user messages.
type Submitter interface {
	Submit(text string) (chat.Submission, error)
}

// EventSource returns buffered events after a cursor.
type EventSource interface {
	Since(after uint64) []store.Record
	Cursor() uint64
}

// MascotState reports the headless mascot.
type MascotState interface {
	State() mascot.State
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Submitter       Submitter
	Events          EventSource
	History         chat.HistoryStore
	Weather         chat.WeatherLookup
	Mascot          MascotState
	DefaultLocation string
	MaxHistory      int
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.MaxHistory <= 0 {
		deps.MaxHistory = 100
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	v1.Post("/messages", func(c *fiber.Ctx) error {
		var req messageRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sub, err := deps.Submitter.Submit(req.Text)
		if err != nil {
			switch {
			case errors.Is(err, chat.ErrEmptyInput):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, chat.ErrClosed):
				return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to submit message")
		}

		return c.Status(fiber.StatusAccepted).JSON(sub)
	})

	v1.Get("/events", func(c *fiber.Ctx) error {
		var q eventsQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records := deps.Events.Since(q.After)
		if records == nil {
			records = []store.Record{}
		}
		return c.JSON(fiber.Map{
			"cursor": deps.Events.Cursor(),
			"events": records,
		})
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		q := historyQuery{Limit: deps.MaxHistory}
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Var(q.Limit, "gte=1,lte="+strconv.Itoa(deps.MaxHistory)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(deps.MaxHistory))
		}

		turns := deps.History.Recent(c.UserContext(), q.Limit)
		if turns == nil {
			turns = []chat.Turn{}
		}
		return c.JSON(fiber.Map{"turns": turns})
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		loc := c.Query("location", deps.DefaultLocation)
		if err := validate.Var(loc, "required,max="+strconv.Itoa(MaxLocationLength)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "location must be 1 to "+strconv.Itoa(MaxLocationLength)+" characters")
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"summary":  deps.Weather.Lookup(c.UserContext(), loc),
		})
	})

	v1.Get("/mascot", func(c *fiber.Ctx) error {
		return c.JSON(deps.Mascot.State())
	})
}

// messageRequest is the body of POST /api/v1/messages.
type messageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// eventsQuery holds query parameters for the events endpoint.
type eventsQuery struct {
	After uint64
}

func (q *eventsQuery) bind(c *fiber.Ctx) error {
	s := c.Query("after")
	if s == "" {
		return nil
	}
	after, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return errors.New("after must be a non-negative integer")
	}
	q.After = after
	return nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Limit int
}

func (q *historyQuery) bind(c *fiber.Ctx) error {
	s := c.Query("limit")
	if s == "" {
		return nil
	}
	limit, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("limit must be an integer")
	}
	q.Limit = limit
	return nil
}
