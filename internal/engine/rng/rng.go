// Package rng is the random source every generator draws from. Production code
// uses a time-seeded locked PCG; tests inject a seeded or scripted Source.
package rng

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source yields uniform integers in [0, n). n must be positive.
type Source interface {
	IntN(n int) int
}

// Locked is a Source safe for concurrent use.
type Locked struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewLocked(seed uint64) *Locked {
	return &Locked{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeSeeded returns a Locked source seeded from the wall clock.
func NewTimeSeeded() *Locked {
	return NewLocked(uint64(time.Now().UnixNano()))
}

func (l *Locked) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// Seeded returns an unlocked deterministic source for single goroutine use.
func Seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Between returns a uniform integer in [lo, hi]. It returns lo when hi < lo.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Choice returns a uniformly selected element of items, which must be non-empty.
func Choice[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}

// Shuffle permutes items in place (Fisher-Yates).
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Scripted replays fixed draws, then falls back to Fallback (or zero) once the
// script is exhausted. Draws outside [0, n) are reduced modulo n.
type Scripted struct {
	Draws    []int
	Fallback Source
	pos      int
}

func (s *Scripted) IntN(n int) int {
	if s.pos < len(s.Draws) {
		v := s.Draws[s.pos]
		s.pos++
		return ((v % n) + n) % n
	}
	if s.Fallback != nil {
		return s.Fallback.IntN(n)
	}
	return 0
}
