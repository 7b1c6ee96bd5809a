package calc

import (
	"strconv"

	"github.com/lemonberrylabs/dicebot/pkg/types"
)

// MaxExpressionLength is the maximum allowed length for a single expression.
const MaxExpressionLength = 4096

// integerLimit is the magnitude above which literals are parsed as floats.
const integerLimit = 2000000000

// Validate checks the character set and brace balance of input before any
// evaluation happens.
func Validate(input string) error {
	if len(input) > MaxExpressionLength {
		return types.Errorf(types.KindInvalidArgument,
			"expression exceeds maximum length of %d characters", MaxExpressionLength)
	}

	blank := true
	braces := 0
	for i := 0; i < len(input); i++ {
		ch := input[i]
		switch {
		case ch == '(':
			braces++
		case ch == ')':
			braces--
			if braces < 0 {
				return types.NewMismatchedBracesError(i)
			}
		case isSpace(ch):
			continue
		case isDigit(ch), ch == '.':
		case rankOf(ch) != 0:
		default:
			return types.NewInvalidCharacterError(ch, i)
		}
		blank = false
	}

	if blank {
		return types.Errorf(types.KindMissingValue, "empty expression")
	}
	if braces != 0 {
		return types.NewMismatchedBracesError(len(input))
	}
	return nil
}

// scanLiteral reads a signed decimal literal starting at pos. The integer
// form is tried first; a fractional part or a magnitude beyond integerLimit
// falls back to float parsing. ok is false when no digits are present.
func scanLiteral(input string, pos int) (value float64, end int, ok bool) {
	i := pos
	if i < len(input) && (input[i] == '+' || input[i] == '-') {
		i++
	}
	digitsStart := i
	for i < len(input) && isDigit(input[i]) {
		i++
	}
	intEnd := i

	if intEnd > digitsStart && (intEnd >= len(input) || input[intEnd] != '.') {
		n, err := strconv.ParseInt(input[pos:intEnd], 10, 64)
		if err == nil && n >= -integerLimit && n <= integerLimit {
			return float64(n), intEnd, true
		}
	}

	fracDigits := 0
	if i < len(input) && input[i] == '.' {
		j := i + 1
		for j < len(input) && isDigit(input[j]) {
			j++
		}
		fracDigits = j - i - 1
		if intEnd > digitsStart || fracDigits > 0 {
			i = j
		}
	}
	if intEnd == digitsStart && fracDigits == 0 {
		return 0, pos, false
	}

	// Overflowing literals come back as ±Inf with a range error; the value
	// itself is still meaningful.
	f, _ := strconv.ParseFloat(input[pos:i], 64)
	return f, i, true
}

func skipSpace(input string, pos int) int {
	for pos < len(input) && isSpace(input[pos]) {
		pos++
	}
	return pos
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}
