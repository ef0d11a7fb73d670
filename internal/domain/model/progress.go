package model

import "time"

const (
	// MaxStars caps the per-type star counter.
	MaxStars = 5
	// DefaultProgressTotal is the number of correct answers that completes a type.
	DefaultProgressTotal = 5
)

// UserProgress is the per-(user, exercise type) completion and star counter.
type UserProgress struct {
	ID              string       `json:"id"`
	UserID          string       `json:"userId"`
	ExerciseType    ExerciseType `json:"exerciseType"`
	Completed       int          `json:"completed"`
	Total           int          `json:"total"`
	Stars           int          `json:"stars"`
	LastCompletedAt *time.Time   `json:"lastCompletedAt"`
}

// Advance applies one correct answer: completed and stars grow by one, clamped at
// Total and MaxStars, and LastCompletedAt moves to at. It returns the new row and
// the number of stars gained (0 once saturated).
func (p UserProgress) Advance(at time.Time) (UserProgress, int) {
	next := p
	next.Completed = min(p.Completed+1, p.Total)
	next.Stars = min(p.Stars+1, MaxStars)
	ts := at
	next.LastCompletedAt = &ts
	return next, next.Stars - p.Stars
}

// Saturated reports whether further correct answers change nothing but the timestamp.
func (p UserProgress) Saturated() bool {
	return p.Completed >= p.Total && p.Stars >= MaxStars
}
