package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lemonberrylabs/dicebot/pkg/dice"
	"github.com/lemonberrylabs/dicebot/pkg/types"
)

// Echoed expressions longer than echoLimit are shortened to their first
// echoHead and last echoTail bytes.
const (
	echoLimit = 250
	echoHead  = 150
	echoTail  = 10
)

// FormatCalc renders "expr = value" with up to eight significant digits.
func FormatCalc(expr string, value float64) string {
	return EchoExpression(expr) + " = " + formatNumber(value)
}

// EchoExpression shortens long expressions for display.
func EchoExpression(expr string) string {
	if len(expr) <= echoLimit {
		return expr
	}
	return expr[:echoHead] + "..." + expr[len(expr)-echoTail:]
}

// FormatRoll renders "nick rolled XdY: a b c  <Total: T>", with the modifier
// shown as "<Total: T(+Z) = R>" when one was applied.
func FormatRoll(nick string, r dice.RollReport) string {
	if nick == "" {
		nick = "You"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s rolled %dd%d: ", nick, r.Count, r.Sides)
	for _, d := range r.Dice {
		b.WriteString(strconv.Itoa(d))
		b.WriteByte(' ')
	}
	if r.Modified() {
		fmt.Fprintf(&b, " <Total: %d(%c%d) = %s>", r.Sum, r.Op, r.Modifier, formatNumber(r.Total))
	} else {
		fmt.Fprintf(&b, " <Total: %d>", r.Sum)
	}
	return b.String()
}

// FormatError renders an error reply. Classified errors show their message
// without the position suffix.
func FormatError(err error) string {
	var evalErr *types.EvalError
	if errors.As(err, &evalErr) {
		return "Error: " + evalErr.Message
	}
	return "Error: " + err.Error()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 8, 64)
}
