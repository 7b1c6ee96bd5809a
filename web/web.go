// Package web provides the embedded web UI for browsing reports and running
// commands from a browser.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/dicebot/pkg/calc"
	"github.com/lemonberrylabs/dicebot/pkg/command"
	"github.com/lemonberrylabs/dicebot/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultTarget receives commands submitted without a target.
const DefaultTarget = "web"

// reportLimit bounds the reports shown on a target page.
const reportLimit = 50

// Handler serves the web UI pages.
type Handler struct {
	svc     *command.Service
	store   *store.Store
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Error     string
	Data      any
}

// New creates a new web UI handler.
func New(svc *command.Service, s *store.Store) *Handler {
	return &Handler{
		svc:   svc,
		store: s,
		funcMap: template.FuncMap{
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"truncate":   truncate,
			"targetPath": targetPath,
			"statusIcon": statusIcon,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, pd pageData) error {
	// Each page is parsed with the layout on its own so define blocks do not
	// collide across pages.
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Get("/ui/targets/:target", h.targetDetail)
	app.Post("/ui/calc", h.runCalc)
	app.Post("/ui/roll", h.runRoll)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Targets   []store.TargetSummary
	Operators []calc.Operator
	Total     int
}

type targetContent struct {
	Target      string
	Reports     []*store.Report
	FailedCount int
}

// --- Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	return h.renderDashboard(c, "")
}

func (h *Handler) renderDashboard(c *fiber.Ctx, errMsg string) error {
	targets := h.store.Targets()
	total := 0
	for _, t := range targets {
		total += t.Count
	}
	return h.render(c, "dashboard.html", pageData{
		NavActive: "dashboard",
		Error:     errMsg,
		Data: dashboardContent{
			Targets:   targets,
			Operators: calc.Operators(),
			Total:     total,
		},
	})
}

func (h *Handler) targetDetail(c *fiber.Ctx) error {
	target := c.Params("target")
	reports := h.store.List(target, reportLimit)
	if len(reports) == 0 {
		c.Status(fiber.StatusNotFound)
		return h.render(c, "not_found.html", pageData{Data: target})
	}

	failed := 0
	for _, r := range reports {
		if r.Failed {
			failed++
		}
	}
	return h.render(c, "target.html", pageData{
		NavActive: "targets",
		Data: targetContent{
			Target:      target,
			Reports:     reports,
			FailedCount: failed,
		},
	})
}

func (h *Handler) runCalc(c *fiber.Ctx) error {
	return h.run(c, h.svc.Calc)
}

func (h *Handler) runRoll(c *fiber.Ctx) error {
	return h.run(c, h.svc.Roll)
}

// run executes a submitted command and shows the target's report log. Every
// outcome, failed or not, is recorded there.
func (h *Handler) run(c *fiber.Ctx, exec func(context.Context, command.Request) ([]command.Outcome, error)) error {
	target := strings.TrimSpace(c.FormValue("target"))
	if target == "" {
		target = DefaultTarget
	}

	_, err := exec(c.UserContext(), command.Request{
		Target: target,
		Nick:   strings.TrimSpace(c.FormValue("nick")),
		Args:   c.FormValue("args"),
	})
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return h.renderDashboard(c, err.Error())
	}
	return c.Redirect(targetPath(target), fiber.StatusSeeOther)
}

// --- Template Helpers ---

func targetPath(target string) string {
	return "/ui/targets/" + url.PathEscape(target)
}

func statusIcon(failed bool) template.HTML {
	if failed {
		return "&#10007;"
	}
	return "&#10003;"
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
