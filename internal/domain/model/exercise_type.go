package model

import "strings"

type ExerciseType string

const (
	TypeAddition          ExerciseType = "addition"
	TypeSubtraction       ExerciseType = "subtraction"
	TypeCounting          ExerciseType = "counting"
	TypeNumberRecognition ExerciseType = "number_recognition"
	TypeShapes            ExerciseType = "shapes"
	TypeMultiplication    ExerciseType = "multiplication"
	TypeDivision          ExerciseType = "division"
	TypeFractions         ExerciseType = "fractions"
	TypeWordProblems      ExerciseType = "word_problems"
	TypeTimeTelling       ExerciseType = "time_telling"
)

const (
	MinDifficulty = 1
	MaxDifficulty = 4
)

// AllExerciseTypes returns every exercise type in display order.
func AllExerciseTypes() []ExerciseType {
	return []ExerciseType{
		TypeAddition, TypeSubtraction, TypeCounting, TypeNumberRecognition, TypeShapes,
		TypeMultiplication, TypeDivision, TypeFractions, TypeWordProblems, TypeTimeTelling,
	}
}

func (t ExerciseType) Valid() bool {
	for _, known := range AllExerciseTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseExerciseType accepts the canonical name with surrounding whitespace or
// upper case letters and reports whether it is known.
func ParseExerciseType(s string) (ExerciseType, bool) {
	t := ExerciseType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// ValidDifficulty reports whether d is inside the 1..4 grade band.
func ValidDifficulty(d int) bool {
	return d >= MinDifficulty && d <= MaxDifficulty
}
