package model

import (
	"math"
	"time"
)

// DayActivity marks whether the learner practised on one day of the current week.
type DayActivity struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Sessions  int    `json:"sessions"`
	Completed bool   `json:"completed"`
}

type TypeSummary struct {
	ExerciseType ExerciseType `json:"exerciseType"`
	Attempts     int          `json:"attempts"`
	Correct      int          `json:"correct"`
	Accuracy     int          `json:"accuracy"`
	TimeSpent    int          `json:"timeSpent"`
	Completed    int          `json:"completed"`
	Total        int          `json:"total"`
	Stars        int          `json:"stars"`
	Mastered     bool         `json:"mastered"`
}

// Report is the parent dashboard summary derived from sessions and progress rows.
type Report struct {
	UserID         string        `json:"userId"`
	GeneratedAt    time.Time     `json:"generatedAt"`
	TotalProblems  int           `json:"totalProblems"`
	CorrectAnswers int           `json:"correctAnswers"`
	Accuracy       int           `json:"accuracy"`
	TotalTimeSpent int           `json:"totalTimeSpent"`
	WeeklyActivity []DayActivity `json:"weeklyActivity"`
	CompletedDays  int           `json:"completedDays"`
	PerType        []TypeSummary `json:"perType"`
}

// BuildReport aggregates sessions and progress as of now. The week starts on
// Sunday in now's location; accuracy is a rounded percentage, 0 without attempts.
func BuildReport(userID string, sessions []Session, progress []UserProgress, now time.Time) Report {
	r := Report{UserID: userID, GeneratedAt: now}

	byType := make(map[ExerciseType]*TypeSummary, len(AllExerciseTypes()))
	perType := make([]TypeSummary, len(AllExerciseTypes()))
	for i, t := range AllExerciseTypes() {
		perType[i] = TypeSummary{ExerciseType: t, Total: DefaultProgressTotal}
		byType[t] = &perType[i]
	}
	for _, p := range progress {
		if ts, ok := byType[p.ExerciseType]; ok {
			ts.Completed, ts.Total, ts.Stars = p.Completed, p.Total, p.Stars
			ts.Mastered = p.Saturated()
		}
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	r.WeeklyActivity = make([]DayActivity, 7)
	for i := range r.WeeklyActivity {
		day := weekStart.AddDate(0, 0, i)
		r.WeeklyActivity[i] = DayActivity{Date: day.Format(time.DateOnly), Weekday: day.Weekday().String()[:3]}
	}

	for _, s := range sessions {
		r.TotalProblems++
		r.TotalTimeSpent += s.TimeSpent
		if s.IsCorrect {
			r.CorrectAnswers++
		}
		if ts, ok := byType[s.ExerciseType]; ok {
			ts.Attempts++
			ts.TimeSpent += s.TimeSpent
			if s.IsCorrect {
				ts.Correct++
			}
		}
		local := s.CompletedAt.In(now.Location())
		ly, lm, ld := local.Date()
		offset := int(math.Round(time.Date(ly, lm, ld, 0, 0, 0, 0, now.Location()).Sub(weekStart).Hours() / 24))
		if offset >= 0 && offset < 7 {
			r.WeeklyActivity[offset].Sessions++
			r.WeeklyActivity[offset].Completed = true
		}
	}

	for _, day := range r.WeeklyActivity {
		if day.Completed {
			r.CompletedDays++
		}
	}
	r.Accuracy = percent(r.CorrectAnswers, r.TotalProblems)
	for i := range perType {
		perType[i].Accuracy = percent(perType[i].Correct, perType[i].Attempts)
	}
	r.PerType = perType
	return r
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
