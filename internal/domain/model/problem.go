package model

import (
	"encoding/json"
	"fmt"
)

// Problem is the type-specific payload of an exercise. Every exercise type has
// exactly one concrete variant; consumers switch on the concrete type.
type Problem interface {
	Kind() ExerciseType
	Answer() Answer
}

// Operands is shared by the four two-operand arithmetic variants.
type Operands struct {
	FirstNumber   int    `json:"firstNumber"`
	SecondNumber  int    `json:"secondNumber"`
	Operation     string `json:"operation"`
	CorrectAnswer int    `json:"correctAnswer"`
	VisualType    string `json:"visualType"`
}

type AdditionProblem struct{ Operands }

type SubtractionProblem struct{ Operands }

type MultiplicationProblem struct{ Operands }

type DivisionProblem struct{ Operands }

type CountingProblem struct {
	Objects       int    `json:"objects"`
	VisualType    string `json:"visualType"`
	CorrectAnswer int    `json:"correctAnswer"`
}

type NumberRecognitionProblem struct {
	Number        int `json:"number"`
	CorrectAnswer int `json:"correctAnswer"`
}

type ShapeProblem struct {
	Shape         string `json:"shape"`
	CorrectAnswer string `json:"correctAnswer"`
}

type FractionProblem struct {
	Numerator     int    `json:"numerator"`
	Denominator   int    `json:"denominator"`
	CorrectAnswer string `json:"correctAnswer"`
	VisualType    string `json:"visualType"`
}

type WordProblem struct {
	Template      string `json:"template"`
	Story         string `json:"story"`
	Operands      []int  `json:"operands"`
	Operation     string `json:"operation"`
	CorrectAnswer int    `json:"correctAnswer"`
}

type TimeProblem struct {
	Hours         int    `json:"hours"`
	Minutes       int    `json:"minutes"`
	CorrectAnswer string `json:"correctAnswer"`
	VisualType    string `json:"visualType"`
}

func (AdditionProblem) Kind() ExerciseType          { return TypeAddition }
func (SubtractionProblem) Kind() ExerciseType       { return TypeSubtraction }
func (MultiplicationProblem) Kind() ExerciseType    { return TypeMultiplication }
func (DivisionProblem) Kind() ExerciseType          { return TypeDivision }
func (CountingProblem) Kind() ExerciseType          { return TypeCounting }
func (NumberRecognitionProblem) Kind() ExerciseType { return TypeNumberRecognition }
func (ShapeProblem) Kind() ExerciseType             { return TypeShapes }
func (FractionProblem) Kind() ExerciseType          { return TypeFractions }
func (WordProblem) Kind() ExerciseType              { return TypeWordProblems }
func (TimeProblem) Kind() ExerciseType              { return TypeTimeTelling }

func (o Operands) Answer() Answer                 { return NumberAnswer(o.CorrectAnswer) }
func (p CountingProblem) Answer() Answer          { return NumberAnswer(p.CorrectAnswer) }
func (p NumberRecognitionProblem) Answer() Answer { return NumberAnswer(p.CorrectAnswer) }
func (p ShapeProblem) Answer() Answer             { return TextAnswer(p.CorrectAnswer) }
func (p FractionProblem) Answer() Answer          { return TextAnswer(p.CorrectAnswer) }
func (p WordProblem) Answer() Answer              { return NumberAnswer(p.CorrectAnswer) }
func (p TimeProblem) Answer() Answer              { return TextAnswer(p.CorrectAnswer) }

// DecodeProblem decodes a stored problem payload into the variant for t.
func DecodeProblem(t ExerciseType, raw []byte) (Problem, error) {
	switch t {
	case TypeAddition:
		return decodeAs[AdditionProblem](t, raw)
	case TypeSubtraction:
		return decodeAs[SubtractionProblem](t, raw)
	case TypeMultiplication:
		return decodeAs[MultiplicationProblem](t, raw)
	case TypeDivision:
		return decodeAs[DivisionProblem](t, raw)
	case TypeCounting:
		return decodeAs[CountingProblem](t, raw)
	case TypeNumberRecognition:
		return decodeAs[NumberRecognitionProblem](t, raw)
	case TypeShapes:
		return decodeAs[ShapeProblem](t, raw)
	case TypeFractions:
		return decodeAs[FractionProblem](t, raw)
	case TypeWordProblems:
		return decodeAs[WordProblem](t, raw)
	case TypeTimeTelling:
		return decodeAs[TimeProblem](t, raw)
	default:
		return nil, fmt.Errorf("unknown exercise type %q", t)
	}
}

func decodeAs[T Problem](t ExerciseType, raw []byte) (Problem, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s problem: %w", t, err)
	}
	return v, nil
}
