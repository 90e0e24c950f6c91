package lottery

import (
	"math/rand"
	"sync"
	"time"
)

// Source yields uniform draws in [0, 1). The engine takes it as a seam
// so distribution tests can run deterministically.
type Source interface {
	Float64() float64
}

// lockedSource guards a math/rand generator for concurrent draws.
// Cryptographic randomness is not required here; draw weights are
// public configuration, not secrets.
type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSource creates a time-seeded draw source
func NewSource() Source {
	return &lockedSource{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededSource creates a deterministic draw source
func NewSeededSource(seed int64) Source {
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}
