package model

import (
	"time"
)

// User is a learner account. TotalStars only grows.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CurrentLevel int       `json:"currentLevel"`
	TotalStars   int       `json:"totalStars"`
	CreatedAt    time.Time `json:"createdAt"`
}
