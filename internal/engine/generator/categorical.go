package generator

import (
	"fmt"

	"kids_math/internal/domain/model"
	"kids_math/internal/engine/distractor"
	"kids_math/internal/engine/rng"
)

var (
	basicShapes    = []string{"circle", "square", "triangle", "rectangle"}
	advancedShapes = []string{"circle", "square", "triangle", "rectangle", "pentagon", "hexagon", "oval", "diamond"}

	// Denominators is the fixed set fractions are drawn from.
	Denominators = []int{2, 3, 4, 5, 6, 8, 10}

	clockMinutes = []int{0, 15, 30, 45}
	// Offsets in minutes used for nearby clock times.
	clockOffsets = []int{-60, -30, -15, 15, 30, 60}
)

const minutesPerDial = 12 * 60

func shapeVocabulary(difficulty int) []string {
	if difficulty <= 2 {
		return basicShapes
	}
	return advancedShapes
}

func shapes(src rng.Source, difficulty int) (model.Problem, []model.Answer, error) {
	vocab := shapeVocabulary(difficulty)
	shape := rng.Choice(src, vocab)
	opts, err := distractor.Categorical(src, shape, vocab, distractor.DefaultCount)
	if err != nil {
		return nil, nil, err
	}
	return model.ShapeProblem{Shape: shape, CorrectAnswer: shape}, model.TextAnswers(opts), nil
}

func fractions(src rng.Source, _ int) (model.Problem, []model.Answer, error) {
	d := rng.Choice(src, Denominators)
	n := rng.Between(src, 1, d)
	answer := FormatFraction(n, d)

	var pool []string
	for _, other := range Denominators {
		if other != d && n <= other {
			pool = append(pool, FormatFraction(n, other))
		}
	}
	for other := 1; other <= d; other++ {
		if other != n {
			pool = append(pool, FormatFraction(other, d))
		}
	}
	opts, err := distractor.Categorical(src, answer, pool, distractor.DefaultCount)
	if err != nil {
		return nil, nil, err
	}
	p := model.FractionProblem{Numerator: n, Denominator: d, CorrectAnswer: answer, VisualType: "pie"}
	return p, model.TextAnswers(opts), nil
}

func FormatFraction(n, d int) string {
	return fmt.Sprintf("%d/%d", n, d)
}

func timeTelling(src rng.Source, _ int) (model.Problem, []model.Answer, error) {
	hours := rng.Between(src, 1, 12)
	minutes := rng.Choice(src, clockMinutes)
	answer := FormatClock(hours, minutes)

	base := (hours%12)*60 + minutes
	pool := make([]string, 0, len(clockOffsets))
	for _, off := range clockOffsets {
		t := ((base+off)%minutesPerDial + minutesPerDial) % minutesPerDial
		pool = append(pool, FormatClock(t/60, t%60))
	}
	opts, err := distractor.Categorical(src, answer, pool, distractor.DefaultCount)
	if err != nil {
		return nil, nil, err
	}
	p := model.TimeProblem{Hours: hours, Minutes: minutes, CorrectAnswer: answer, VisualType: "analog"}
	return p, model.TextAnswers(opts), nil
}

// FormatClock renders a 12-hour dial reading as "H:MM"; hour 0 reads as 12.
func FormatClock(hours, minutes int) string {
	if hours%12 == 0 {
		hours = 12
	} else {
		hours %= 12
	}
	return fmt.Sprintf("%d:%02d", hours, minutes)
}
