// Package generator produces random exercises, one rule per exercise type.
package generator

import (
	"errors"
	"fmt"

	"kids_math/internal/domain/model"
	"kids_math/internal/engine/distractor"
	"kids_math/internal/engine/rng"
)

var (
	ErrUnknownType       = errors.New("unknown exercise type")
	ErrInvalidDifficulty = errors.New("difficulty must be between 1 and 4")

	errEmptyWordBank = errors.New("word problem bank is empty")
)

// maxExerciseID bounds the random exercise id. Ids are not unique.
const maxExerciseID = 10000

type rule func(src rng.Source, difficulty int) (model.Problem, []model.Answer, error)

// Generator builds exercises from an injected random source. It is safe for
// concurrent use when the source is.
type Generator struct {
	src   rng.Source
	words []WordTemplate
	rules map[model.ExerciseType]rule
}

type Option func(*Generator)

// WithWordBank replaces the built-in word problem bank.
func WithWordBank(bank []WordTemplate) Option {
	return func(g *Generator) { g.words = bank }
}

func New(src rng.Source, opts ...Option) *Generator {
	g := &Generator{src: src, words: DefaultWordBank()}
	for _, opt := range opts {
		opt(g)
	}
	g.rules = map[model.ExerciseType]rule{
		model.TypeAddition:          addition,
		model.TypeSubtraction:       subtraction,
		model.TypeCounting:          counting,
		model.TypeNumberRecognition: numberRecognition,
		model.TypeShapes:            shapes,
		model.TypeMultiplication:    multiplication,
		model.TypeDivision:          division,
		model.TypeFractions:         fractions,
		model.TypeWordProblems:      g.wordProblem,
		model.TypeTimeTelling:       timeTelling,
	}
	return g
}

// Generate returns a fresh exercise of type t at the given difficulty.
func (g *Generator) Generate(t model.ExerciseType, difficulty int) (model.Exercise, error) {
	r, ok := g.rules[t]
	if !ok {
		return model.Exercise{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	if !model.ValidDifficulty(difficulty) {
		return model.Exercise{}, fmt.Errorf("%w: got %d", ErrInvalidDifficulty, difficulty)
	}

	id := g.src.IntN(maxExerciseID)
	problem, options, err := r(g.src, difficulty)
	if err != nil {
		return model.Exercise{}, fmt.Errorf("generate %s: %w", t, err)
	}
	ex := model.Exercise{ID: id, Type: t, Difficulty: difficulty, Problem: problem, Options: options}
	if wp, ok := problem.(model.WordProblem); ok {
		ex.Slug = wp.Template
	}
	return ex, nil
}

func numericOptions(src rng.Source, p distractor.Policy, correct int) []model.Answer {
	return model.NumberAnswers(p.Options(src, correct))
}
