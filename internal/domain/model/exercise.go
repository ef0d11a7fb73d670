package model

import (
	"encoding/json"
	"fmt"
)

// OptionCount is the number of candidate answers shown for every exercise.
const OptionCount = 4

// Exercise is a generated (or catalog) question. Generated ids are random and
// not guaranteed unique.
type Exercise struct {
	ID         int          `json:"id"`
	Slug       string       `json:"slug,omitempty"`
	Type       ExerciseType `json:"type"`
	Difficulty int          `json:"difficulty"`
	Problem    Problem      `json:"problem"`
	Options    []Answer     `json:"options"`
}

// CorrectAnswer returns the problem's answer.
func (e *Exercise) CorrectAnswer() Answer {
	return e.Problem.Answer()
}

// CheckOptions verifies the option set: OptionCount distinct values containing
// the correct answer exactly once.
func (e *Exercise) CheckOptions() error {
	if e.Problem == nil {
		return fmt.Errorf("exercise %d has no problem", e.ID)
	}
	if len(e.Options) != OptionCount {
		return fmt.Errorf("exercise %d has %d options, want %d", e.ID, len(e.Options), OptionCount)
	}
	correct := e.CorrectAnswer()
	seen := make(map[Answer]struct{}, len(e.Options))
	hits := 0
	for _, o := range e.Options {
		if _, dup := seen[o]; dup {
			return fmt.Errorf("exercise %d has duplicate option %s", e.ID, o)
		}
		seen[o] = struct{}{}
		if o == correct {
			hits++
		}
	}
	if hits != 1 {
		return fmt.Errorf("exercise %d contains the correct answer %d times", e.ID, hits)
	}
	return nil
}

func (e *Exercise) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID         int             `json:"id"`
		Slug       string          `json:"slug"`
		Type       ExerciseType    `json:"type"`
		Difficulty int             `json:"difficulty"`
		Problem    json.RawMessage `json:"problem"`
		Options    []Answer        `json:"options"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	problem, err := DecodeProblem(aux.Type, aux.Problem)
	if err != nil {
		return err
	}
	*e = Exercise{
		ID:         aux.ID,
		Slug:       aux.Slug,
		Type:       aux.Type,
		Difficulty: aux.Difficulty,
		Problem:    problem,
		Options:    aux.Options,
	}
	return nil
}
