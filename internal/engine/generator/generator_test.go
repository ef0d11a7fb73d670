package generator

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kids_math/internal/domain/model"
	"kids_math/internal/engine/rng"
)

var clockPattern = regexp.MustCompile(`^(1[0-2]|[1-9]):[0-5][0-9]$`)

func TestGenerateOptionInvariants(t *testing.T) {
	g := New(rng.Seeded(2024))
	for _, typ := range model.AllExerciseTypes() {
		for d := model.MinDifficulty; d <= model.MaxDifficulty; d++ {
			for range 200 {
				ex, err := g.Generate(typ, d)
				require.NoError(t, err)
				require.Equal(t, typ, ex.Type)
				require.Equal(t, d, ex.Difficulty)
				require.Equal(t, typ, ex.Problem.Kind())
				require.NoError(t, ex.CheckOptions(), "%s/%d", typ, d)
				assert.GreaterOrEqual(t, ex.ID, 0)
				assert.Less(t, ex.ID, 10000)
			}
		}
	}
}

func TestGenerateTypeRules(t *testing.T) {
	g := New(rng.Seeded(7))
	for d := model.MinDifficulty; d <= model.MaxDifficulty; d++ {
		for range 300 {
			ex, err := g.Generate(model.TypeAddition, d)
			require.NoError(t, err)
			add := ex.Problem.(model.AdditionProblem)
			assert.Equal(t, add.FirstNumber+add.SecondNumber, add.CorrectAnswer)
			assert.LessOrEqual(t, add.FirstNumber, additionMax[d-1])
			assert.Contains(t, objectMotifs, add.VisualType)

			ex, err = g.Generate(model.TypeSubtraction, d)
			require.NoError(t, err)
			sub := ex.Problem.(model.SubtractionProblem)
			assert.LessOrEqual(t, sub.SecondNumber, sub.FirstNumber)
			assert.GreaterOrEqual(t, sub.FirstNumber, 5)
			assert.LessOrEqual(t, sub.FirstNumber, subtractionMax[d-1]+5)
			assert.Equal(t, sub.FirstNumber-sub.SecondNumber, sub.CorrectAnswer)
			for _, o := range ex.Options {
				assert.GreaterOrEqual(t, o.Number, 0)
			}

			ex, err = g.Generate(model.TypeMultiplication, d)
			require.NoError(t, err)
			mul := ex.Problem.(model.MultiplicationProblem)
			assert.Equal(t, mul.FirstNumber*mul.SecondNumber, mul.CorrectAnswer)
			assert.LessOrEqual(t, mul.FirstNumber, multiplicationMax(d))
			for _, o := range ex.Options {
				assert.GreaterOrEqual(t, o.Number, 0)
			}

			ex, err = g.Generate(model.TypeDivision, d)
			require.NoError(t, err)
			div := ex.Problem.(model.DivisionProblem)
			assert.Equal(t, div.SecondNumber*div.CorrectAnswer, div.FirstNumber)
			assert.GreaterOrEqual(t, div.SecondNumber, 2)
			assert.LessOrEqual(t, div.SecondNumber, 11)

			for _, typ := range []model.ExerciseType{model.TypeCounting, model.TypeNumberRecognition} {
				ex, err = g.Generate(typ, d)
				require.NoError(t, err)
				for _, o := range ex.Options {
					assert.Positive(t, o.Number, "%s option", typ)
				}
			}

			ex, err = g.Generate(model.TypeFractions, d)
			require.NoError(t, err)
			frac := ex.Problem.(model.FractionProblem)
			assert.Contains(t, Denominators, frac.Denominator)
			assert.Positive(t, frac.Numerator)
			assert.LessOrEqual(t, frac.Numerator, frac.Denominator)
			assert.Equal(t, FormatFraction(frac.Numerator, frac.Denominator), frac.CorrectAnswer)

			ex, err = g.Generate(model.TypeShapes, d)
			require.NoError(t, err)
			for _, o := range ex.Options {
				assert.Contains(t, shapeVocabulary(d), o.Text)
			}
		}
	}
}

func TestAdditionWithMockedDraws(t *testing.T) {
	// id, first operand (1+4), second operand (1+2), then anything.
	src := &rng.Scripted{Draws: []int{1234, 4, 2}, Fallback: rng.Seeded(1)}
	ex, err := New(src).Generate(model.TypeAddition, 1)
	require.NoError(t, err)

	add := ex.Problem.(model.AdditionProblem)
	assert.Equal(t, 1234, ex.ID)
	assert.Equal(t, 5, add.FirstNumber)
	assert.Equal(t, 3, add.SecondNumber)
	assert.Equal(t, 8, add.CorrectAnswer)
	assert.Equal(t, 1, countAnswer(ex.Options, model.NumberAnswer(8)))
}

func TestTimeTellingWithMockedDraws(t *testing.T) {
	// id, hour (1+2), minute index 2 -> 30.
	src := &rng.Scripted{Draws: []int{77, 2, 2}, Fallback: rng.Seeded(1)}
	ex, err := New(src).Generate(model.TypeTimeTelling, 1)
	require.NoError(t, err)

	tp := ex.Problem.(model.TimeProblem)
	assert.Equal(t, 3, tp.Hours)
	assert.Equal(t, 30, tp.Minutes)
	assert.Equal(t, "3:30", tp.CorrectAnswer)
	require.NoError(t, ex.CheckOptions())
	for _, o := range ex.Options {
		require.True(t, o.IsText)
		assert.Regexp(t, clockPattern, o.Text)
	}
}

func TestTimeTellingOptionsAreClockTimes(t *testing.T) {
	g := New(rng.Seeded(3))
	for range 500 {
		ex, err := g.Generate(model.TypeTimeTelling, 2)
		require.NoError(t, err)
		for _, o := range ex.Options {
			assert.Regexp(t, clockPattern, o.Text)
			mins, _ := strconv.Atoi(strings.Split(o.Text, ":")[1])
			assert.Zero(t, mins%15)
		}
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "12:00", FormatClock(0, 0))
	assert.Equal(t, "12:45", FormatClock(12, 45))
	assert.Equal(t, "1:05", FormatClock(13, 5))
}

func TestGenerateRejectsBadInput(t *testing.T) {
	g := New(rng.Seeded(1))

	_, err := g.Generate(model.ExerciseType("geometry"), 1)
	assert.ErrorIs(t, err, ErrUnknownType)

	for _, d := range []int{0, 5, -1} {
		_, err = g.Generate(model.TypeAddition, d)
		assert.ErrorIs(t, err, ErrInvalidDifficulty)
	}
}

func TestWordBank(t *testing.T) {
	keys := map[string]bool{}
	for _, w := range DefaultWordBank() {
		assert.NotEmpty(t, w.Key())
		assert.False(t, keys[w.Key()], "duplicate key %s", w.Key())
		keys[w.Key()] = true
		assert.True(t, model.ValidDifficulty(w.Difficulty))
		assert.Equal(t, w.Answer, evaluate(t, w), w.Title)
	}
	assert.True(t, keys["emma-and-the-marbles"])
}

func TestWordProblemRespectsDifficulty(t *testing.T) {
	g := New(rng.Seeded(12))
	byKey := map[string]WordTemplate{}
	for _, w := range DefaultWordBank() {
		byKey[w.Key()] = w
	}
	for range 200 {
		ex, err := g.Generate(model.TypeWordProblems, 1)
		require.NoError(t, err)
		wp := ex.Problem.(model.WordProblem)
		assert.Equal(t, wp.Template, ex.Slug)
		assert.Equal(t, 1, byKey[wp.Template].Difficulty)
	}
}

func TestCustomWordBank(t *testing.T) {
	bank := []WordTemplate{{Title: "Only one", Story: "1 + 1?", Operands: []int{1, 1}, Operation: "addition", Answer: 2, Difficulty: 4}}
	ex, err := New(rng.Seeded(1), WithWordBank(bank)).Generate(model.TypeWordProblems, 1)
	require.NoError(t, err)
	assert.Equal(t, "only-one", ex.Slug)
	require.NoError(t, ex.CheckOptions())

	_, err = New(rng.Seeded(1), WithWordBank(nil)).Generate(model.TypeWordProblems, 1)
	assert.Error(t, err)
}

func evaluate(t *testing.T, w WordTemplate) int {
	t.Helper()
	ops := w.Operands
	switch w.Operation {
	case "addition":
		sum := 0
		for _, v := range ops {
			sum += v
		}
		return sum
	case "subtraction":
		return ops[0] - ops[1]
	case "multiplication":
		return ops[0] * ops[1]
	case "division":
		return ops[0] / ops[1]
	case "mixed":
		return ops[0] - ops[1] + ops[2]
	}
	t.Fatalf("unknown operation %s", w.Operation)
	return 0
}

func countAnswer(opts []model.Answer, want model.Answer) int {
	n := 0
	for _, o := range opts {
		if o == want {
			n++
		}
	}
	return n
}
