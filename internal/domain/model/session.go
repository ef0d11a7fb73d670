package model

import "time"

// Session is the immutable record of one answer attempt.
type Session struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	ExerciseID   int          `json:"exerciseId"`
	ExerciseType ExerciseType `json:"exerciseType"`
	IsCorrect    bool         `json:"isCorrect"`
	TimeSpent    int          `json:"timeSpent"` // seconds
	CompletedAt  time.Time    `json:"completedAt"`
}
