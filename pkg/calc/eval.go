package calc

import (
	"github.com/lemonberrylabs/dicebot/pkg/dice"
	"github.com/lemonberrylabs/dicebot/pkg/types"
)

// MaxDepth is the maximum number of frames on the evaluation stack.
const MaxDepth = 128

type state int

const (
	awaitingValue state = iota
	awaitingOperator
)

// frame is one suspended operator group: either a real parenthesis or an
// outer, looser-binding operator waiting on a tighter one.
type frame struct {
	total float64
	op    byte
	rank  int
	brace bool
}

// Evaluator evaluates CALC formulas. It holds no per-call state and is safe
// for concurrent use when its Source is.
type Evaluator struct {
	src dice.Source
}

// New creates an Evaluator drawing dice from src. A nil src selects
// dice.DefaultSource.
func New(src dice.Source) *Evaluator {
	if src == nil {
		src = dice.DefaultSource
	}
	return &Evaluator{src: src}
}

// Evaluate validates and evaluates input using dice.DefaultSource.
func Evaluate(input string) (float64, error) {
	return New(nil).Evaluate(input)
}

// Evaluate validates and evaluates a single formula.
func (e *Evaluator) Evaluate(input string) (float64, error) {
	if err := Validate(input); err != nil {
		return 0, err
	}
	m := newMachine(e.src, input)
	return m.run()
}

// machine is the per-call evaluation state.
type machine struct {
	src   dice.Source
	input string
	pos   int

	expect  state
	pending byte // prefix operator waiting for its operand, 0 if none

	total  float64 // accumulated left operand of op
	value  float64 // most recent operand or partial result
	op     byte
	rank   int
	frames []frame
}

func newMachine(src dice.Source, input string) *machine {
	return &machine{
		src:    src,
		input:  input,
		op:     '+',
		rank:   rankAdd,
		frames: make([]frame, 0, 8),
	}
}

func (m *machine) run() (float64, error) {
	m.pos = skipSpace(m.input, 0)
	for m.pos < len(m.input) {
		var err error
		if m.expect == awaitingValue {
			err = m.readValue()
		} else {
			err = m.readOperator()
		}
		if err != nil {
			return 0, err
		}
		m.pos = skipSpace(m.input, m.pos)
	}

	if m.expect == awaitingValue {
		return 0, types.NewMissingValueError(m.pos)
	}

	// Fold the outstanding value into every suspended group.
	for {
		if err := m.fold(); err != nil {
			return 0, err
		}
		if len(m.frames) == 0 {
			break
		}
		m.pop()
	}
	return m.value, nil
}

func (m *machine) readValue() error {
	if v, end, ok := scanLiteral(m.input, m.pos); ok {
		if m.pending != 0 {
			// Prefix operators take no left operand.
			res, err := Apply(m.src, m.pending, 0, v)
			if err != nil {
				return err
			}
			v = res
			m.pending = 0
		}
		m.value = v
		m.pos = end
		m.expect = awaitingOperator
		return nil
	}

	ch := m.input[m.pos]
	if ch == '(' {
		if m.pending != 0 {
			return types.NewMissingValueError(m.pos)
		}
		if err := m.push(true); err != nil {
			return err
		}
		m.total = 0
		m.op = '+'
		m.rank = rankAdd
		m.pos++
		return nil
	}

	op, ok := Lookup(ch)
	if !ok || !op.Prefix() || m.pending != 0 {
		return types.NewMissingValueError(m.pos)
	}
	m.pending = ch
	m.pos++
	return nil
}

func (m *machine) readOperator() error {
	ch := m.input[m.pos]
	consume := true
	if ch == '(' {
		// "2(3)" multiplies; the parenthesis is read again as a value.
		ch = '*'
		consume = false
	}

	if ch == ')' {
		if err := m.closeBrace(); err != nil {
			return err
		}
		m.pos++
		return nil
	}

	op, ok := Lookup(ch)
	if !ok || op.Arity == Unary {
		return types.NewMissingOperatorError(m.pos)
	}

	if op.Rank < m.rank {
		// The new operator binds tighter: suspend the current group.
		if err := m.push(false); err != nil {
			return err
		}
		m.total = m.value
	} else {
		// Earlier operators of equal or tighter rank resolve first.
		for {
			if err := m.fold(); err != nil {
				return err
			}
			if len(m.frames) == 0 {
				break
			}
			top := m.frames[len(m.frames)-1]
			if top.brace || op.Rank < top.rank {
				break
			}
			m.pop()
		}
		m.total = m.value
	}

	m.op = ch
	m.rank = op.Rank
	m.expect = awaitingValue
	if consume {
		m.pos++
	}
	return nil
}

// closeBrace unwinds frames up to and including the nearest parenthesis.
func (m *machine) closeBrace() error {
	for {
		if len(m.frames) == 0 {
			return types.NewMismatchedBracesError(m.pos)
		}
		if err := m.fold(); err != nil {
			return err
		}
		if m.pop().brace {
			return nil
		}
	}
}

// fold applies the pending operator to the running total and current value.
func (m *machine) fold() error {
	v, err := Apply(m.src, m.op, m.total, m.value)
	if err != nil {
		return err
	}
	m.value = v
	return nil
}

func (m *machine) push(brace bool) error {
	if len(m.frames) >= MaxDepth {
		return types.NewTooDeeplyNestedError(MaxDepth)
	}
	m.frames = append(m.frames, frame{total: m.total, op: m.op, rank: m.rank, brace: brace})
	return nil
}

func (m *machine) pop() frame {
	f := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]
	m.total = f.total
	m.op = f.op
	m.rank = f.rank
	return f
}
