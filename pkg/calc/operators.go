package calc

import (
	"math"

	"github.com/lemonberrylabs/dicebot/pkg/dice"
	"github.com/lemonberrylabs/dicebot/pkg/types"
)

// Bounds on the dice operator inside formulas.
const (
	MaxFormulaDice  = 10000
	MaxFormulaSides = math.MaxInt32
)

// Apply applies op to its operands. Unary operators ignore lhs.
func Apply(src dice.Source, op byte, lhs, rhs float64) (float64, error) {
	switch op {
	case '~':
		return float64(^truncate(rhs)), nil
	case '!':
		if rhs == 0 {
			return 1, nil
		}
		return 0, nil
	case 'd':
		return rollFormulaDice(src, lhs, rhs)
	case '*':
		return lhs * rhs, nil
	case '/', '%', '\\':
		// The modulus check runs on the truncated divisor, so 5 % 0.5 is
		// a division by zero.
		if rhs == 0 || (op == '%' && truncate(rhs) == 0) {
			return 0, types.NewDivideByZeroError()
		}
		switch op {
		case '/':
			return lhs / rhs, nil
		case '%':
			return float64(truncate(lhs) % truncate(rhs)), nil
		default:
			return math.Trunc(lhs / rhs), nil
		}
	case '^':
		return math.Pow(lhs, rhs), nil
	case '+':
		return lhs + rhs, nil
	case '-':
		return lhs - rhs, nil
	case '&':
		return float64(truncate(lhs) & truncate(rhs)), nil
	case '$':
		return float64(truncate(lhs) ^ truncate(rhs)), nil
	case '|':
		return float64(truncate(lhs) | truncate(rhs)), nil
	default:
		return 0, types.NewUnknownOperatorError(op)
	}
}

// rollFormulaDice rolls lhs dice of rhs sides. Zero operands default to one,
// a fractional count rolls ceil(count) dice and a negative count rolls none.
func rollFormulaDice(src dice.Source, lhs, rhs float64) (float64, error) {
	if lhs == 0 {
		lhs = 1
	}
	if rhs == 0 {
		rhs = 1
	}

	sides := math.Floor(rhs)
	if !(sides >= 1) {
		return 0, types.Errorf(types.KindInvalidSides, "dice must have at least one side, got %g", rhs)
	}
	if sides > MaxFormulaSides {
		return 0, types.Errorf(types.KindTooManySides, "dice may have at most %d sides", MaxFormulaSides)
	}

	count := 0.0
	if lhs > 0 {
		count = math.Ceil(lhs)
	}
	if count > MaxFormulaDice {
		return 0, types.Errorf(types.KindTooManyDice, "at most %d dice may be rolled at once", MaxFormulaDice)
	}

	_, sum := dice.Roll(src, int(count), int(sides))
	return float64(sum), nil
}

// truncate converts toward zero, saturating at the int64 range. NaN becomes 0.
func truncate(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(v)
	}
}
