package generator

import (
	"github.com/gosimple/slug"

	"kids_math/internal/domain/model"
	"kids_math/internal/engine/distractor"
	"kids_math/internal/engine/rng"
)

// WordTemplate is a pre-authored story with its operands and answer.
type WordTemplate struct {
	Title      string
	Story      string
	Operands   []int
	Operation  string
	Answer     int
	Difficulty int
}

// Key is the stable identifier of the template.
func (w WordTemplate) Key() string {
	return slug.Make(w.Title)
}

// DefaultWordBank returns the built-in stories, easiest first.
func DefaultWordBank() []WordTemplate {
	return []WordTemplate{
		{
			Title:      "Balls in a bag",
			Story:      "A bag contains 8 red balls and 12 blue balls. How many balls are in the bag in total?",
			Operands:   []int{8, 12},
			Operation:  "addition",
			Answer:     20,
			Difficulty: 1,
		},
		{
			Title:      "Apples for lunch",
			Story:      "Tom has 9 apples and eats 3 of them. How many apples are left?",
			Operands:   []int{9, 3},
			Operation:  "subtraction",
			Answer:     6,
			Difficulty: 1,
		},
		{
			Title:      "Emma and the marbles",
			Story:      "Emma has 15 marbles. She gives 4 to her brother and finds 7 more. How many marbles does she have now?",
			Operands:   []int{15, 4, 7},
			Operation:  "mixed",
			Answer:     18,
			Difficulty: 2,
		},
		{
			Title:      "Sarah and the stickers",
			Story:      "Sarah has 12 stickers. She gives 3 to her friend and buys 7 more. How many stickers does she have now?",
			Operands:   []int{12, 3, 7},
			Operation:  "mixed",
			Answer:     16,
			Difficulty: 2,
		},
		{
			Title:      "Class teams",
			Story:      "There are 24 students in a class. If they form teams of 6, how many teams will there be?",
			Operands:   []int{24, 6},
			Operation:  "division",
			Answer:     4,
			Difficulty: 3,
		},
		{
			Title:      "Boxes of crayons",
			Story:      "There are 4 boxes with 5 crayons in each box. How many crayons are there altogether?",
			Operands:   []int{4, 5},
			Operation:  "multiplication",
			Answer:     20,
			Difficulty: 3,
		},
		{
			Title:      "Cookie bags",
			Story:      "A baker makes 36 cookies and puts 9 cookies in each bag. How many bags does the baker fill?",
			Operands:   []int{36, 9},
			Operation:  "division",
			Answer:     4,
			Difficulty: 4,
		},
		{
			Title:      "Reading week",
			Story:      "Lily reads 14 pages on Monday, 19 pages on Tuesday and 8 pages on Wednesday. How many pages does she read?",
			Operands:   []int{14, 19, 8},
			Operation:  "addition",
			Answer:     41,
			Difficulty: 4,
		},
	}
}

// wordProblem picks a story at or below the requested difficulty, falling back
// to the whole bank when nothing qualifies.
func (g *Generator) wordProblem(src rng.Source, difficulty int) (model.Problem, []model.Answer, error) {
	eligible := make([]WordTemplate, 0, len(g.words))
	for _, w := range g.words {
		if w.Difficulty <= difficulty {
			eligible = append(eligible, w)
		}
	}
	if len(eligible) == 0 {
		eligible = g.words
	}
	if len(eligible) == 0 {
		return nil, nil, errEmptyWordBank
	}

	w := rng.Choice(src, eligible)
	p := model.WordProblem{
		Template:      w.Key(),
		Story:         w.Story,
		Operands:      append([]int(nil), w.Operands...),
		Operation:     w.Operation,
		CorrectAnswer: w.Answer,
	}
	return p, numericOptions(src, distractor.NonNegative(), w.Answer), nil
}
