package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndList(t *testing.T) {
	s := New(0)

	for i := 0; i < 3; i++ {
		_, err := s.Append(Report{Target: "#dice", Command: CommandCalc, Input: fmt.Sprint(i), Text: fmt.Sprint(i)})
		require.NoError(t, err)
	}

	got := s.List("#dice", 0)
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].Input, "newest first")
	assert.Equal(t, "0", got[2].Input)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Time.IsZero())

	limited := s.List("#dice", 2)
	require.Len(t, limited, 2)
	assert.Equal(t, "1", limited[1].Input)

	assert.Empty(t, s.List("#other", 0))
}

func TestAppendRequiresTarget(t *testing.T) {
	s := New(0)
	_, err := s.Append(Report{Command: CommandRoll})
	assert.Error(t, err)
}

func TestCapacityEvictsOldest(t *testing.T) {
	s := New(2)
	for i := 0; i < 5; i++ {
		_, err := s.Append(Report{Target: "nick", Input: fmt.Sprint(i)})
		require.NoError(t, err)
	}

	got := s.List("nick", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "4", got[0].Input)
	assert.Equal(t, "3", got[1].Input)
}

func TestGetAndTargets(t *testing.T) {
	s := New(0)
	r, err := s.Append(Report{Target: "#b", Command: CommandRoll, Text: "x"})
	require.NoError(t, err)
	_, err = s.Append(Report{Target: "#a", Command: CommandCalc})
	require.NoError(t, err)
	_, err = s.Append(Report{Target: "#a", Command: CommandCalc})
	require.NoError(t, err)

	got, err := s.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Text)

	_, err = s.Get("missing")
	assert.Error(t, err)

	targets := s.Targets()
	require.Len(t, targets, 2)
	assert.Equal(t, "#a", targets[0].Target)
	assert.Equal(t, 2, targets[0].Count)
	assert.Equal(t, "#b", targets[1].Target)

	s.Clear("#a")
	assert.Len(t, s.Targets(), 1)
}

func TestListReturnsCopies(t *testing.T) {
	s := New(0)
	_, err := s.Append(Report{Target: "#c", Text: "original"})
	require.NoError(t, err)

	got := s.List("#c", 0)
	got[0].Text = "changed"
	assert.Equal(t, "original", s.List("#c", 0)[0].Text)
}

func TestConcurrentAppend(t *testing.T) {
	s := New(1000)
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, _ = s.Append(Report{Target: "#load"})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, s.List("#load", 0), 500)
}
