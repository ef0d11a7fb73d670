package repository

import (
	"context"
	"slices"

	"github.com/gosimple/slug"

	"kids_math/internal/domain/model"
)

func catalogEntry(title string, t model.ExerciseType, difficulty int, p model.Problem, options []model.Answer) model.Exercise {
	return model.Exercise{Slug: slug.Make(title), Type: t, Difficulty: difficulty, Problem: p, Options: options}
}

// DemoCatalog is the static starter catalog, one exercise per type.
func DemoCatalog() []model.Exercise {
	return []model.Exercise{
		catalogEntry("Five apples plus three", model.TypeAddition, 1,
			model.AdditionProblem{Operands: model.Operands{FirstNumber: 5, SecondNumber: 3, Operation: "+", CorrectAnswer: 8, VisualType: "apples"}},
			model.NumberAnswers([]int{6, 7, 8, 9})),
		catalogEntry("Ten stars minus four", model.TypeSubtraction, 1,
			model.SubtractionProblem{Operands: model.Operands{FirstNumber: 10, SecondNumber: 4, Operation: "-", CorrectAnswer: 6, VisualType: "stars"}},
			model.NumberAnswers([]int{5, 6, 7, 8})),
		catalogEntry("Count seven circles", model.TypeCounting, 1,
			model.CountingProblem{Objects: 7, VisualType: "circles", CorrectAnswer: 7},
			model.NumberAnswers([]int{6, 7, 8, 9})),
		catalogEntry("Find fifteen", model.TypeNumberRecognition, 1,
			model.NumberRecognitionProblem{Number: 15, CorrectAnswer: 15},
			model.NumberAnswers([]int{13, 14, 15, 16})),
		catalogEntry("Spot the circle", model.TypeShapes, 1,
			model.ShapeProblem{Shape: "circle", CorrectAnswer: "circle"},
			model.TextAnswers([]string{"circle", "square", "triangle", "rectangle"})),
		catalogEntry("Six groups of four", model.TypeMultiplication, 3,
			model.MultiplicationProblem{Operands: model.Operands{FirstNumber: 6, SecondNumber: 4, Operation: "×", CorrectAnswer: 24, VisualType: "groups"}},
			model.NumberAnswers([]int{20, 22, 24, 26})),
		catalogEntry("Fifteen shared by three", model.TypeDivision, 3,
			model.DivisionProblem{Operands: model.Operands{FirstNumber: 15, SecondNumber: 3, Operation: "÷", CorrectAnswer: 5, VisualType: "groups"}},
			model.NumberAnswers([]int{4, 5, 6, 7})),
		catalogEntry("Half a pie", model.TypeFractions, 3,
			model.FractionProblem{Numerator: 1, Denominator: 2, CorrectAnswer: "1/2", VisualType: "pie"},
			model.TextAnswers([]string{"1/2", "1/3", "1/4", "2/3"})),
		catalogEntry("Sarah and the stickers", model.TypeWordProblems, 4,
			model.WordProblem{
				Template:      "sarah-and-the-stickers",
				Story:         "Sarah has 12 stickers. She gives 3 to her friend and buys 7 more. How many stickers does she have now?",
				Operands:      []int{12, 3, 7},
				Operation:     "mixed",
				CorrectAnswer: 16,
			},
			model.NumberAnswers([]int{14, 15, 16, 17})),
		catalogEntry("Half past three", model.TypeTimeTelling, 2,
			model.TimeProblem{Hours: 3, Minutes: 30, CorrectAnswer: "3:30", VisualType: "analog"},
			model.TextAnswers([]string{"3:30", "3:00", "4:30", "2:30"})),
	}
}

// SeedCatalog upserts the demo catalog.
func SeedCatalog(ctx context.Context, repo ExerciseRepository) error {
	for _, ex := range DemoCatalog() {
		if err := repo.Upsert(ctx, &ex); err != nil {
			return err
		}
	}
	return nil
}

// DemoProgress is the starting progress of the demo learner, keyed by type.
var DemoProgress = map[model.ExerciseType]int{
	model.TypeAddition:          3,
	model.TypeSubtraction:       2,
	model.TypeCounting:          4,
	model.TypeNumberRecognition: 5,
	model.TypeShapes:            1,
	model.TypeMultiplication:    2,
	model.TypeDivision:          1,
	model.TypeFractions:         0,
	model.TypeWordProblems:      0,
	model.TypeTimeTelling:       1,
}

const (
	DemoUsername = "student"
	DemoLevel    = 2
)

// sortProgress orders rows by exercise type display order.
func sortProgress(rows []model.UserProgress) []model.UserProgress {
	rank := make(map[model.ExerciseType]int, len(model.AllExerciseTypes()))
	for i, t := range model.AllExerciseTypes() {
		rank[t] = i
	}
	slices.SortStableFunc(rows, func(a, b model.UserProgress) int {
		return rank[a.ExerciseType] - rank[b.ExerciseType]
	})
	return rows
}
