package command

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonberrylabs/dicebot/pkg/dice"
	"github.com/lemonberrylabs/dicebot/pkg/store"
	"github.com/lemonberrylabs/dicebot/pkg/types"
)

// highSource always rolls the highest face.
type highSource struct{}

func (highSource) IntN(n int) int { return n - 1 }

func TestCalc(t *testing.T) {
	svc := New(highSource{})

	tests := []struct {
		name  string
		args  string
		count int
		text  string
	}{
		{"simple", "1 + 2 * 3", 1, "1 + 2 * 3 = 7"},
		{"leading number is an operand", "2 + 3", 1, "2 + 3 = 5"},
		{"repeat", "3 2d6", 3, "2d6 = 12"},
		{"repeat clamped", "50 1", 10, "1 = 1"},
		{"repeat floor", "0 4", 1, "4 = 4"},
		{"fraction", "1 / 3", 1, "1 / 3 = 0.33333333"},
		{"large", "2 ^ 70", 1, "2 ^ 70 = 1.1805916e+21"},
		{"error", "(1 + 2", 1, "Error: mismatched braces '( )' in expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcomes, err := svc.Calc(context.Background(), Request{Args: tt.args})
			require.NoError(t, err)
			require.Len(t, outcomes, tt.count)
			for _, out := range outcomes {
				assert.Equal(t, store.CommandCalc, out.Command)
				assert.Equal(t, tt.text, out.Text)
			}
		})
	}
}

func TestCalcMissingArguments(t *testing.T) {
	_, err := New(nil).Calc(context.Background(), Request{Args: "   "})
	require.Error(t, err)
	assert.True(t, types.HasKind(err, types.KindInvalidArgument))
	assert.Equal(t, CalcUsage, err.Error())
}

func TestCalcErrorKind(t *testing.T) {
	outcomes, err := New(nil).Calc(context.Background(), Request{Args: "4 / 0"})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, types.ErrDivideByZero)
	assert.True(t, strings.HasPrefix(outcomes[0].Text, "Error: "))
}

func TestRoll(t *testing.T) {
	svc := New(highSource{})

	tests := []struct {
		name  string
		args  string
		count int
		text  string
		total float64
	}{
		{"plain", "3d6", 1, "alice rolled 3d6: 6 6 6  <Total: 18>", 18},
		{"modifier", "2d10 + 3", 1, "alice rolled 2d10: 10 10  <Total: 20(+3) = 23>", 23},
		{"divide", "1d7/2", 1, "alice rolled 1d7: 7  <Total: 7(/2) = 3.5>", 3.5},
		{"repeat", "2 1d4", 2, "alice rolled 1d4: 4  <Total: 4>", 4},
		{"syntax", "d6", 1, "Error: Syntax: " + dice.Syntax, 0},
		{"too many dice", "101d6", 1, "Error: only 1-100 dice may be thrown at once", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcomes, err := svc.Roll(context.Background(), Request{Nick: "alice", Args: tt.args})
			require.NoError(t, err)
			require.Len(t, outcomes, tt.count)
			for _, out := range outcomes {
				assert.Equal(t, store.CommandRoll, out.Command)
				assert.Equal(t, tt.text, out.Text)
				assert.Equal(t, tt.total, out.Value)
				assert.Equal(t, out.Err == nil, out.Roll != nil)
			}
		})
	}
}

func TestRollMissingArguments(t *testing.T) {
	_, err := New(nil).Roll(context.Background(), Request{})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestWithMaxRepeat(t *testing.T) {
	svc := New(nil, WithMaxRepeat(3))
	outcomes, err := svc.Roll(context.Background(), Request{Args: "9 1d6"})
	require.NoError(t, err)
	assert.Len(t, outcomes, 3)

	svc = New(nil, WithMaxRepeat(0))
	outcomes, err = svc.Roll(context.Background(), Request{Args: "12 1d6"})
	require.NoError(t, err)
	assert.Len(t, outcomes, DefaultMaxRepeat)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := New(nil).Calc(ctx, Request{Args: "5 1+1"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, outcomes)
}

func TestDeliverRecordsAndLogs(t *testing.T) {
	logger, hook := test.NewNullLogger()
	reports := store.New(10)
	svc := New(highSource{}, WithStore(reports), WithLogger(logger))

	_, err := svc.Roll(context.Background(), Request{Target: "#dice", Nick: "bob", Args: "2 1d20"})
	require.NoError(t, err)
	_, err = svc.Calc(context.Background(), Request{Target: "#dice", Nick: "bob", Args: "1 +"})
	require.NoError(t, err)

	list := reports.List("#dice", 0)
	require.Len(t, list, 3)
	assert.Equal(t, store.CommandCalc, list[0].Command)
	assert.True(t, list[0].Failed)
	assert.Equal(t, "bob rolled 1d20: 20  <Total: 20>", list[1].Text)
	assert.False(t, list[1].Failed)

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, "command executed", entries[0].Message)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, "#dice", entries[0].Data["target"])
	assert.Equal(t, "command failed", entries[2].Message)
	assert.Equal(t, types.KindMissingValue, entries[2].Data["kind"])
}

func TestDeliverSkipsAnonymousTarget(t *testing.T) {
	reports := store.New(10)
	svc := New(nil, WithStore(reports))

	_, err := svc.Calc(context.Background(), Request{Args: "1+1"})
	require.NoError(t, err)
	assert.Empty(t, reports.Targets())
}

func TestEchoExpression(t *testing.T) {
	short := strings.Repeat("1+", 100) + "1"
	assert.Equal(t, short, EchoExpression(short))

	long := strings.Repeat("1+", 200) + "123456789"
	echoed := EchoExpression(long)
	assert.Equal(t, long[:150]+"..."+long[len(long)-10:], echoed)
	assert.True(t, strings.HasSuffix(echoed, "+123456789"))
}

func TestFormatRollWithoutNick(t *testing.T) {
	text := FormatRoll("", dice.RollReport{Count: 1, Sides: 2, Dice: []int{2}, Sum: 2})
	assert.Equal(t, "You rolled 1d2: 2  <Total: 2>", text)
}

func TestExplicitTimes(t *testing.T) {
	svc := New(highSource{})

	outcomes, err := svc.Calc(context.Background(), Request{Args: "3 4", Times: 2})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "3 4", outcomes[0].Input)
	assert.ErrorIs(t, outcomes[0].Err, types.ErrMissingOperator)

	outcomes, err = svc.Roll(context.Background(), Request{Args: "1d6", Times: 99})
	require.NoError(t, err)
	assert.Len(t, outcomes, DefaultMaxRepeat)
}
