// Package distractor builds the shuffled option sets shown with each exercise.
package distractor

import (
	"fmt"

	"kids_math/internal/engine/rng"
)

const (
	// DefaultCount is the option count used across the app, correct answer included.
	DefaultCount = 4
	// MaxFailedDraws is how many rejected candidates in a row trigger widening.
	MaxFailedDraws = 32
	// MaxWidenings bounds widening before the deterministic fallback takes over.
	MaxWidenings = 8
	widenStep    = 3
)

// DefaultPerturbations are the offsets applied to the correct answer.
var DefaultPerturbations = []int{-3, -2, -1, 1, 2, 3}

// Policy draws numeric distractors by perturbing the correct answer. Candidates
// below Min or already chosen are rejected.
type Policy struct {
	Perturbations []int
	Min           int
	Count         int
}

// Positive is the policy for answers that must stay strictly positive.
func Positive() Policy {
	return Policy{Perturbations: DefaultPerturbations, Min: 1, Count: DefaultCount}
}

// NonNegative allows zero as a distractor.
func NonNegative() Policy {
	return Policy{Perturbations: DefaultPerturbations, Min: 0, Count: DefaultCount}
}

// Options returns Count distinct values containing correct exactly once, in
// random order. After MaxFailedDraws rejections in a row the perturbation
// magnitude grows by widenStep; after MaxWidenings it falls back to correct+1,
// correct+2, ... so it always terminates.
func (p Policy) Options(src rng.Source, correct int) []int {
	count := p.Count
	if count <= 0 {
		count = DefaultCount
	}
	perts := append([]int(nil), p.Perturbations...)

	out := make([]int, 0, count)
	out = append(out, correct)
	used := map[int]bool{correct: true}

	failures, widenings := 0, 0
	for len(out) < count {
		if widenings > MaxWidenings {
			for k := 1; len(out) < count; k++ {
				if c := correct + k; c >= p.Min && !used[c] {
					used[c] = true
					out = append(out, c)
				}
			}
			break
		}
		if len(perts) == 0 || failures >= MaxFailedDraws {
			perts = widen(perts)
			failures = 0
			widenings++
			continue
		}

		c := correct + rng.Choice(src, perts)
		if c < p.Min || used[c] {
			failures++
			continue
		}
		used[c] = true
		out = append(out, c)
		failures = 0
	}

	rng.Shuffle(src, out)
	return out
}

func widen(perts []int) []int {
	top := 0
	for _, d := range perts {
		top = max(top, d, -d)
	}
	for m := top + 1; m <= top+widenStep; m++ {
		perts = append(perts, -m, m)
	}
	return perts
}

// Categorical picks count-1 distinct distractors from pool (values equal to
// correct and repeats are ignored) and returns them with correct, shuffled.
func Categorical[T comparable](src rng.Source, correct T, pool []T, count int) ([]T, error) {
	if count <= 0 {
		count = DefaultCount
	}
	seen := map[T]bool{correct: true}
	candidates := make([]T, 0, len(pool))
	for _, v := range pool {
		if !seen[v] {
			seen[v] = true
			candidates = append(candidates, v)
		}
	}
	if len(candidates) < count-1 {
		return nil, fmt.Errorf("distractor pool has %d candidates, need %d", len(candidates), count-1)
	}

	rng.Shuffle(src, candidates)
	out := append([]T{correct}, candidates[:count-1]...)
	rng.Shuffle(src, out)
	return out, nil
}
