// Package api implements the REST API for evaluating formulas, rolling dice
// and reading the report log.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/lemonberrylabs/dicebot/pkg/calc"
	"github.com/lemonberrylabs/dicebot/pkg/command"
	"github.com/lemonberrylabs/dicebot/pkg/store"
	"github.com/lemonberrylabs/dicebot/pkg/types"
)

// Server is the HTTP API server.
type Server struct {
	app   *fiber.App
	svc   *command.Service
	store *store.Store
	log   logrus.FieldLogger
}

// New creates a new API server.
func New(svc *command.Service, s *store.Store, log logrus.FieldLogger) *Server {
	srv := &Server{
		svc:   svc,
		store: s,
		log:   log,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		UnescapePath:          true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/v1")
	v1.Post("/calc", srv.calc)
	v1.Post("/roll", srv.roll)
	v1.Get("/operators", srv.listOperators)
	v1.Get("/targets", srv.listTargets)
	v1.Get("/targets/:target/reports", srv.listReports)
	v1.Delete("/targets/:target/reports", srv.clearReports)
	v1.Get("/reports/:id", srv.getReport)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// --- Command Handlers ---

type calcRequest struct {
	Expression string `json:"expression"`
	Times      int    `json:"times"`
	Target     string `json:"target"`
	Nick       string `json:"nick"`
}

type rollRequest struct {
	Notation string `json:"notation"`
	Times    int    `json:"times"`
	Target   string `json:"target"`
	Nick     string `json:"nick"`
}

func (s *Server) calc(c *fiber.Ctx) error {
	var req calcRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), "")
	}
	if req.Expression == "" {
		return errorJSON(c, http.StatusBadRequest, "expression is required", string(types.KindInvalidArgument))
	}

	outcomes, err := s.svc.Calc(c.UserContext(), command.Request{
		Target: req.Target,
		Nick:   req.Nick,
		Args:   req.Expression,
		Times:  max(req.Times, 1),
	})
	return s.respond(c, outcomes, err)
}

func (s *Server) roll(c *fiber.Ctx) error {
	var req rollRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), "")
	}
	if req.Notation == "" {
		return errorJSON(c, http.StatusBadRequest, "notation is required", string(types.KindInvalidArgument))
	}

	outcomes, err := s.svc.Roll(c.UserContext(), command.Request{
		Target: req.Target,
		Nick:   req.Nick,
		Args:   req.Notation,
		Times:  max(req.Times, 1),
	})
	return s.respond(c, outcomes, err)
}

// respond writes the outcomes of one command. A single failed evaluation is
// reported as an error; repeated commands list each result.
func (s *Server) respond(c *fiber.Ctx, outcomes []command.Outcome, err error) error {
	if err != nil {
		return evalErrorJSON(c, err)
	}
	if len(outcomes) == 1 && outcomes[0].Err != nil {
		return evalErrorJSON(c, outcomes[0].Err)
	}

	items := make([]fiber.Map, len(outcomes))
	for i, out := range outcomes {
		items[i] = OutcomeToJSON(out)
	}
	return c.JSON(fiber.Map{"outcomes": items})
}

// --- Report Handlers ---

func (s *Server) listOperators(c *fiber.Ctx) error {
	ops := calc.Operators()
	items := make([]fiber.Map, len(ops))
	for i, op := range ops {
		items[i] = fiber.Map{
			"symbol": string(op.Symbol),
			"name":   op.Name,
			"rank":   op.Rank,
			"arity":  op.Arity.String(),
		}
	}
	return c.JSON(fiber.Map{"operators": items})
}

func (s *Server) listTargets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"targets": s.store.Targets()})
}

func (s *Server) listReports(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return errorJSON(c, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw), string(types.KindInvalidArgument))
		}
		limit = n
	}

	target := c.Params("target")
	return c.JSON(fiber.Map{
		"target":  target,
		"reports": s.store.List(target, limit),
	})
}

func (s *Server) clearReports(c *fiber.Ctx) error {
	target := c.Params("target")
	s.store.Clear(target)
	s.log.WithField("target", target).Info("reports cleared")
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) getReport(c *fiber.Ctx) error {
	r, err := s.store.Get(c.Params("id"))
	if err != nil {
		return errorJSON(c, http.StatusNotFound, err.Error(), "")
	}
	return c.JSON(r)
}

// --- JSON helpers ---

// OutcomeToJSON converts a command outcome to its JSON representation.
func OutcomeToJSON(out command.Outcome) fiber.Map {
	m := fiber.Map{
		"command": out.Command,
		"input":   out.Input,
		"text":    out.Text,
	}
	if out.Err != nil {
		m["error"] = fiber.Map{
			"reason":  string(types.KindOf(out.Err)),
			"message": out.Err.Error(),
		}
		return m
	}
	m["value"] = out.Value
	if r := out.Roll; r != nil {
		roll := fiber.Map{
			"count": r.Count,
			"sides": r.Sides,
			"dice":  r.Dice,
			"sum":   r.Sum,
			"total": r.Total,
		}
		if r.Modified() {
			roll["op"] = string(r.Op)
			roll["modifier"] = r.Modifier
		}
		m["roll"] = roll
	}
	return m
}

func evalErrorJSON(c *fiber.Ctx, err error) error {
	var evalErr *types.EvalError
	if errors.As(err, &evalErr) {
		return errorJSON(c, http.StatusBadRequest, evalErr.Error(), string(evalErr.Kind))
	}
	return errorJSON(c, http.StatusInternalServerError, err.Error(), "")
}

func errorJSON(c *fiber.Ctx, code int, message, reason string) error {
	body := fiber.Map{
		"code":    code,
		"message": message,
		"status":  statusName(code),
	}
	if reason != "" {
		body["reason"] = reason
	}
	return c.Status(code).JSON(fiber.Map{"error": body})
}

func statusName(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "INVALID_ARGUMENT"
	case http.StatusNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL"
	}
}
