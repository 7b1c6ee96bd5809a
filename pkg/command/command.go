// Package command implements the CALC and ROLL bot commands on top of the
// evaluators: argument handling, repetition, result formatting, logging and
// delivery to the report log.
package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lemonberrylabs/dicebot/pkg/calc"
	"github.com/lemonberrylabs/dicebot/pkg/dice"
	"github.com/lemonberrylabs/dicebot/pkg/logging"
	"github.com/lemonberrylabs/dicebot/pkg/store"
	"github.com/lemonberrylabs/dicebot/pkg/types"
)

// DefaultMaxRepeat caps the [times] argument.
const DefaultMaxRepeat = 10

// Usage lines reported for missing arguments.
const (
	CalcUsage = "Syntax: CALC [times] <expression>"
	RollUsage = "Syntax: ROLL [times] [dice]d<sides>"
)

// Request is one command invocation.
type Request struct {
	Target string // channel or nick the reply is delivered to
	Nick   string // invoking user
	Args   string // "[times] <expression>"

	// Times, when positive, is the repeat count and Args is taken whole.
	Times int
}

// Outcome is the result of one repetition of a command.
type Outcome struct {
	Command store.Command
	Input   string
	Value   float64          // CALC result
	Roll    *dice.RollReport // ROLL result
	Text    string           // formatted reply line
	Err     error
}

// Service runs commands.
type Service struct {
	calc      *calc.Evaluator
	roller    *dice.Roller
	store     *store.Store
	log       logrus.FieldLogger
	maxRepeat int
}

// Option configures a Service.
type Option func(*Service)

// WithStore delivers every outcome to s.
func WithStore(s *store.Store) Option {
	return func(svc *Service) {
		svc.store = s
	}
}

// WithLogger sets the logger used to record executed commands.
func WithLogger(l logrus.FieldLogger) Option {
	return func(svc *Service) {
		svc.log = l
	}
}

// WithMaxRepeat caps the [times] argument. Values below one are ignored.
func WithMaxRepeat(n int) Option {
	return func(svc *Service) {
		if n >= 1 {
			svc.maxRepeat = n
		}
	}
}

// New creates a Service drawing dice from src (nil selects the default
// source).
func New(src dice.Source, opts ...Option) *Service {
	svc := &Service{
		calc:      calc.New(src),
		roller:    dice.NewRoller(src),
		maxRepeat: DefaultMaxRepeat,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.log == nil {
		svc.log = logging.Discard()
	}
	return svc
}

// Calc runs CALC. The returned error covers malformed arguments only;
// evaluation failures are reported per Outcome.
func (s *Service) Calc(ctx context.Context, req Request) ([]Outcome, error) {
	times, expr, err := s.splitArgs(req, isCalcStart)
	if err != nil {
		return nil, types.Errorf(types.KindInvalidArgument, CalcUsage)
	}

	outcomes := make([]Outcome, 0, times)
	for i := 0; i < times; i++ {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out := Outcome{Command: store.CommandCalc, Input: expr}
		out.Value, out.Err = s.calc.Evaluate(expr)
		if out.Err != nil {
			out.Text = FormatError(out.Err)
		} else {
			out.Text = FormatCalc(expr, out.Value)
		}
		s.deliver(req, out)
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// Roll runs ROLL.
func (s *Service) Roll(ctx context.Context, req Request) ([]Outcome, error) {
	times, notation, err := s.splitArgs(req, isDigitStart)
	if err != nil {
		return nil, types.Errorf(types.KindInvalidArgument, RollUsage)
	}

	outcomes := make([]Outcome, 0, times)
	for i := 0; i < times; i++ {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out := Outcome{Command: store.CommandRoll, Input: notation}
		report, err := s.roller.RollNotation(notation)
		if err != nil {
			out.Err = err
			out.Text = FormatError(err)
		} else {
			out.Roll = &report
			out.Value = report.Total
			out.Text = FormatRoll(req.Nick, report)
		}
		s.deliver(req, out)
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (s *Service) deliver(req Request, out Outcome) {
	entry := s.log.WithFields(logrus.Fields{
		"command": out.Command,
		"target":  req.Target,
		"nick":    req.Nick,
		"input":   out.Input,
	})
	if out.Err != nil {
		entry.WithField("kind", types.KindOf(out.Err)).Info("command failed")
	} else {
		entry.WithField("result", out.Value).Info("command executed")
	}

	if s.store == nil || req.Target == "" {
		return
	}
	if _, err := s.store.Append(store.Report{
		Target:  req.Target,
		Nick:    req.Nick,
		Command: out.Command,
		Input:   out.Input,
		Text:    out.Text,
		Failed:  out.Err != nil,
	}); err != nil {
		entry.WithError(err).Warn("failed to record report")
	}
}

// splitArgs separates an optional leading repeat count from the command
// text. A leading integer is a count only when more text follows and that
// text can begin the command's input, so "CALC 2 + 3" is a single sum.
func (s *Service) splitArgs(req Request, canStart func(byte) bool) (int, string, error) {
	args := strings.TrimSpace(req.Args)
	if args == "" {
		return 0, "", fmt.Errorf("missing arguments")
	}
	if req.Times > 0 {
		return s.clampRepeat(req.Times), args, nil
	}

	first, rest, found := strings.Cut(args, " ")
	if !found {
		first, rest, found = strings.Cut(args, "\t")
	}
	rest = strings.TrimSpace(rest)
	if !found || rest == "" || !canStart(rest[0]) {
		return 1, args, nil
	}

	n, err := strconv.Atoi(first)
	if err != nil {
		return 1, args, nil
	}
	return s.clampRepeat(n), rest, nil
}

func (s *Service) clampRepeat(n int) int {
	return min(max(n, 1), s.maxRepeat)
}

// isCalcStart reports whether ch can begin a formula on its own.
func isCalcStart(ch byte) bool {
	switch {
	case ch >= '0' && ch <= '9', ch == '.', ch == '(':
		return true
	case ch == '~', ch == '!', ch == 'd':
		return true
	default:
		return false
	}
}

func isDigitStart(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
