package generator

import (
	"kids_math/internal/domain/model"
	"kids_math/internal/engine/distractor"
	"kids_math/internal/engine/rng"
)

// Operand upper bounds indexed by difficulty-1.
var (
	additionMax    = [4]int{10, 20, 50, 100}
	subtractionMax = [4]int{15, 30, 75, 150}
	countingMax    = [4]int{15, 25, 50, 100}
	recognitionMax = [4]int{20, 50, 100, 1000}
)

var (
	objectMotifs   = []string{"apples", "stars", "hearts", "flowers"}
	countingMotifs = []string{"circles", "stars", "hearts", "flowers"}
)

const (
	minMinuend  = 5
	minDivisor  = 2
	maxDivisor  = 11
	maxQuotient = 10
)

func multiplicationMax(difficulty int) int {
	if difficulty == 3 {
		return 10
	}
	return 12
}

func addition(src rng.Source, difficulty int) (model.Problem, []model.Answer, error) {
	limit := additionMax[difficulty-1]
	a := rng.Between(src, 1, limit)
	b := rng.Between(src, 1, limit)
	p := model.AdditionProblem{Operands: model.Operands{
		FirstNumber:   a,
		SecondNumber:  b,
		Operation:     "+",
		CorrectAnswer: a + b,
		VisualType:    rng.Choice(src, objectMotifs),
	}}
	return p, numericOptions(src, distractor.Positive(), p.CorrectAnswer), nil
}

func subtraction(src rng.Source, difficulty int) (model.Problem, []model.Answer, error) {
	minuend := rng.Between(src, minMinuend, subtractionMax[difficulty-1]+minMinuend)
	subtrahend := rng.Between(src, 1, minuend)
	p := model.SubtractionProblem{Operands: model.Operands{
		FirstNumber:   minuend,
		SecondNumber:  subtrahend,
		Operation:     "-",
		CorrectAnswer: minuend - subtrahend,
		VisualType:    rng.Choice(src, objectMotifs),
	}}
	return p, numericOptions(src, distractor.NonNegative(), p.CorrectAnswer), nil
}

func counting(src rng.Source, difficulty int) (model.Problem, []model.Answer, error) {
	n := rng.Between(src, 1, countingMax[difficulty-1])
	p := model.CountingProblem{Objects: n, VisualType: rng.Choice(src, countingMotifs), CorrectAnswer: n}
	return p, numericOptions(src, distractor.Positive(), n), nil
}

func numberRecognition(src rng.Source, difficulty int) (model.Problem, []model.Answer, error) {
	n := rng.Between(src, 1, recognitionMax[difficulty-1])
	p := model.NumberRecognitionProblem{Number: n, CorrectAnswer: n}
	return p, numericOptions(src, distractor.Positive(), n), nil
}

// multiplication perturbs the product by one factor so wrong answers look like
// a neighbouring row of the times table.
func multiplication(src rng.Source, difficulty int) (model.Problem, []model.Answer, error) {
	limit := multiplicationMax(difficulty)
	a := rng.Between(src, 1, limit)
	b := rng.Between(src, 1, limit)
	p := model.MultiplicationProblem{Operands: model.Operands{
		FirstNumber:   a,
		SecondNumber:  b,
		Operation:     "×",
		CorrectAnswer: a * b,
		VisualType:    "groups",
	}}
	policy := distractor.Policy{Perturbations: []int{a, -a, b, -b}, Min: 0, Count: distractor.DefaultCount}
	return p, numericOptions(src, policy, p.CorrectAnswer), nil
}

func division(src rng.Source, _ int) (model.Problem, []model.Answer, error) {
	divisor := rng.Between(src, minDivisor, maxDivisor)
	quotient := rng.Between(src, 1, maxQuotient)
	p := model.DivisionProblem{Operands: model.Operands{
		FirstNumber:   divisor * quotient,
		SecondNumber:  divisor,
		Operation:     "÷",
		CorrectAnswer: quotient,
		VisualType:    "groups",
	}}
	return p, numericOptions(src, distractor.Positive(), quotient), nil
}
