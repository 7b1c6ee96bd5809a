package dice

import (
	"strconv"
	"strings"

	"github.com/lemonberrylabs/dicebot/pkg/types"
)

// Limits for dice notation.
const (
	MaxDice  = 100
	MaxSides = 100
)

// Syntax is the usage line reported for malformed notation.
const Syntax = "XdY [ {-|+|*|/} Z ]"

// Notation is a parsed XdY [op Z] expression.
type Notation struct {
	Raw      string
	Count    int
	Sides    int
	Op       byte // 0 when there is no modifier
	Modifier int
}

// RollReport is the outcome of rolling a Notation.
type RollReport struct {
	Notation string
	Count    int
	Sides    int
	Dice     []int // individual die results in roll order
	Sum      int   // sum of Dice before the modifier
	Op       byte
	Modifier int
	Total    float64 // Sum with the modifier applied
}

// Modified reports whether a trailing modifier was applied.
func (r RollReport) Modified() bool {
	return r.Op != 0
}

// ParseNotation parses "XdY [ {+|-|*|/} Z ]".
func ParseNotation(input string) (Notation, error) {
	s := &scanner{input: input}
	s.skipSpace()

	start := s.pos
	x, ok := s.readUint()
	if !ok {
		return Notation{}, syntaxError(start)
	}
	if x < 1 || x > MaxDice {
		return Notation{}, types.NewError(types.KindTooManyDice, start,
			"only 1-100 dice may be thrown at once")
	}

	if s.pos >= len(s.input) || (s.input[s.pos] != 'd' && s.input[s.pos] != 'D') {
		return Notation{}, syntaxError(s.pos)
	}
	s.pos++

	start = s.pos
	y, ok := s.readUint()
	if !ok {
		return Notation{}, syntaxError(start)
	}
	if y < 1 || y > MaxSides {
		return Notation{}, types.NewError(types.KindTooManySides, start,
			"only 1-100 sides may be used on a dice")
	}

	n := Notation{Raw: strings.TrimSpace(input), Count: int(x), Sides: int(y)}

	s.skipSpace()
	if s.pos < len(s.input) {
		op := s.input[s.pos]
		if strings.IndexByte("+-*/", op) < 0 {
			return Notation{}, syntaxError(s.pos)
		}
		s.pos++
		s.skipSpace()
		start = s.pos
		z, ok := s.readUint()
		if !ok {
			return Notation{}, syntaxError(start)
		}
		s.skipSpace()
		if s.pos < len(s.input) {
			return Notation{}, syntaxError(s.pos)
		}
		if op == '/' && z == 0 {
			return Notation{}, types.NewError(types.KindDivideByZero, start, "can't divide by zero")
		}
		n.Op = op
		n.Modifier = int(z)
	}

	return n, nil
}

// Roller rolls dice notation against an injected Source.
type Roller struct {
	src Source
}

// NewRoller creates a Roller. A nil src selects DefaultSource.
func NewRoller(src Source) *Roller {
	if src == nil {
		src = DefaultSource
	}
	return &Roller{src: src}
}

// Roll rolls a parsed notation.
func (r *Roller) Roll(n Notation) RollReport {
	results, sum := Roll(r.src, n.Count, n.Sides)

	total := float64(sum)
	switch n.Op {
	case '+':
		total += float64(n.Modifier)
	case '-':
		total -= float64(n.Modifier)
	case '*':
		total *= float64(n.Modifier)
	case '/':
		total /= float64(n.Modifier)
	}

	return RollReport{
		Notation: n.Raw,
		Count:    n.Count,
		Sides:    n.Sides,
		Dice:     results,
		Sum:      sum,
		Op:       n.Op,
		Modifier: n.Modifier,
		Total:    total,
	}
}

// RollNotation parses and rolls input.
func (r *Roller) RollNotation(input string) (RollReport, error) {
	n, err := ParseNotation(input)
	if err != nil {
		return RollReport{}, err
	}
	return r.Roll(n), nil
}

// RollNotation parses and rolls input using DefaultSource.
func RollNotation(input string) (RollReport, error) {
	return NewRoller(nil).RollNotation(input)
}

func syntaxError(pos int) *types.EvalError {
	return types.NewError(types.KindInvalidSyntax, pos, "Syntax: "+Syntax)
}

type scanner struct {
	input string
	pos   int
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.input) && isSpace(s.input[s.pos]) {
		s.pos++
	}
}

// readUint reads an unsigned decimal integer. Values that do not fit in 31
// bits saturate so range checks still reject them.
func (s *scanner) readUint() (uint64, bool) {
	start := s.pos
	for s.pos < len(s.input) && s.input[s.pos] >= '0' && s.input[s.pos] <= '9' {
		s.pos++
	}
	if s.pos == start {
		return 0, false
	}
	v, err := strconv.ParseUint(s.input[start:s.pos], 10, 31)
	if err != nil {
		return 1<<31 - 1, true
	}
	return v, true
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}
