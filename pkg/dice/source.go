// Package dice implements the random source and the XdY dice-notation roller.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Source supplies uniform random integers.
//
// Implementations must be safe for concurrent use.
type Source interface {
	// IntN returns a uniform random int in [0, n). n must be > 0.
	IntN(n int) int
}

type runtimeSource struct{}

func (runtimeSource) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultSource draws from the runtime's process-wide ChaCha8 generator. It is
// seeded from the operating system, is not reproducible and tolerates
// concurrent use.
var DefaultSource Source = runtimeSource{}

// SeededSource is a deterministic Source for tests and replays.
type SeededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource creates a deterministic source. Two sources created with the
// same seed produce the same sequence.
func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN implements Source.
func (s *SeededSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// rollDie rolls one die with the given number of sides.
func rollDie(src Source, sides int) int {
	return src.IntN(sides) + 1
}

// Roll draws count dice of the given sides and returns each result and the sum.
// Callers validate count >= 0 and sides >= 1.
func Roll(src Source, count, sides int) ([]int, int) {
	results := make([]int, count)
	sum := 0
	for i := range results {
		v := rollDie(src, sides)
		results[i] = v
		sum += v
	}
	return results, sum
}
