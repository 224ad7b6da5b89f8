package profile

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/repcoach/internal/session"
)

const (
	StepGoal      = 8000
	CalorieTarget = 2200

	dateLayout = "2006-01-02"
)

var muscleGroups = []string{
	"Chest", "Back", "Biceps", "Triceps", "Shoulders",
	"Quads", "Hamstrings", "Glutes", "Calves", "Abs",
}

type DailyActivity struct {
	CardioMinutes  int `json:"cardioTime"`
	WorkoutMinutes int `json:"workoutTime"`
}

type BestLift struct {
	Exercise string `json:"exercise"`
	Weight   int    `json:"weight"`
}

type WeeklyHighlights struct {
	CaloriesBurned int      `json:"caloriesBurned"`
	BestLift       BestLift `json:"bestLift"`
	Streak         int      `json:"streak"`
}

type HistoryEntry struct {
	Date string `json:"date"`
	session.Summary
}

type StrengthSeries struct {
	Label  string `json:"label"`
	MoveID string `json:"exerciseId"`
	Data   []int  `json:"data"`
}

type StrengthChart struct {
	Labels []string         `json:"labels"`
	Series []StrengthSeries `json:"datasets"`
}

type MuscleReadiness struct {
	Name      string `json:"name"`
	Readiness string `json:"readiness"`
}

type Goal struct {
	Name     string `json:"name"`
	Progress int    `json:"progress"`
}

type Goals struct {
	Primary Goal     `json:"primary"`
	Badges  []string `json:"badges"`
}

// FitnessData is the per-user activity aggregate shown on the dashboard.
type FitnessData struct {
	Steps            int               `json:"steps"`
	CaloriesBurned   int               `json:"caloriesBurned"`
	DailyActivity    DailyActivity     `json:"dailyActivity"`
	WeeklyHighlights WeeklyHighlights  `json:"weeklyHighlights"`
	History          []HistoryEntry    `json:"workoutHistory"`
	Strength         StrengthChart     `json:"strengthData"`
	RecoveryScore    int               `json:"recoveryScore"`
	MuscleReadiness  []MuscleReadiness `json:"muscleReadiness"`
	Goals            Goals             `json:"goals"`
	// Heatmap counts workouts per day, keyed by YYYY-MM-DD.
	Heatmap map[string]int `json:"calendarHeatmapData"`
}

type Stats struct {
	Steps              int `json:"steps"`
	CaloriesBurned     int `json:"caloriesBurned"`
	StepGoal           int `json:"stepGoal"`
	CalorieTarget      int `json:"calorieTarget"`
	StepGoalPercentage int `json:"stepGoalPercentage"`
	CaloriesRemaining  int `json:"caloriesRemaining"`
}

// InitialFitnessData is what a freshly registered user starts with.
func InitialFitnessData(now time.Time) *FitnessData {
	heatmap := map[string]int{}
	year, month, _ := now.Date()
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, now.Location()).Day()
	for day := 1; day <= daysInMonth; day++ {
		d := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
		count := 0
		if day%3 == 0 {
			count = 1
		}
		heatmap[d.Format(dateLayout)] = count
	}

	readiness := make([]MuscleReadiness, 0, len(muscleGroups))
	for _, m := range muscleGroups {
		readiness = append(readiness, MuscleReadiness{Name: m, Readiness: "fresh"})
	}

	return &FitnessData{
		Steps:          4230,
		CaloriesBurned: 320,
		DailyActivity: DailyActivity{
			CardioMinutes:  15,
			WorkoutMinutes: 45,
		},
		WeeklyHighlights: WeeklyHighlights{
			CaloriesBurned: 1240,
			BestLift:       BestLift{Exercise: "Squat", Weight: 80},
			Streak:         4,
		},
		History: []HistoryEntry{},
		Strength: StrengthChart{
			Labels: []string{"May", "Jun", "Jul", "Aug"},
			Series: []StrengthSeries{
				{Label: "Squat (reps)", MoveID: "squat", Data: []int{12, 15, 18, 22}},
				{Label: "Push-ups (reps)", MoveID: "push-up", Data: []int{10, 12, 14, 20}},
				{Label: "Plank (seconds)", MoveID: "plank", Data: []int{30, 45, 60, 75}},
			},
		},
		RecoveryScore:   85,
		MuscleReadiness: readiness,
		Goals: Goals{
			Primary: Goal{Name: "Reach 10,000 steps daily", Progress: 42},
			Badges:  []string{"Early Bird", "First Squat"},
		},
		Heatmap: heatmap,
	}
}

// ApplyWorkout folds a completed session summary into the aggregate.
func (f *FitnessData) ApplyWorkout(summary session.Summary, day time.Time) {
	date := day.Format(dateLayout)

	entry := HistoryEntry{Date: date, Summary: summary}
	entry.Breakdown = slices.Clone(summary.Breakdown)
	f.History = append([]HistoryEntry{entry}, f.History...)

	f.CaloriesBurned += summary.Calories
	f.DailyActivity.WorkoutMinutes += int(math.Round(float64(summary.DurationSeconds) / 60))

	if last := len(f.Strength.Labels) - 1; last >= 0 {
		for _, b := range summary.Breakdown {
			for i := range f.Strength.Series {
				s := &f.Strength.Series[i]
				if s.MoveID != b.MoveID || len(s.Data) <= last {
					continue
				}
				s.Data[last] = max(s.Data[last], breakdownValue(b.Result))
			}
		}
	}

	if f.Heatmap == nil {
		f.Heatmap = map[string]int{}
	}
	f.Heatmap[date]++

	f.WeeklyHighlights.CaloriesBurned += summary.Calories
	f.WeeklyHighlights.Streak = max(f.WeeklyHighlights.Streak, 1)
}

// breakdownValue reads the per-set target out of "3x12" or "2x45s".
func breakdownValue(result string) int {
	if _, after, found := strings.Cut(result, "x"); found {
		result = after
	}
	end := 0
	for end < len(result) && result[end] >= '0' && result[end] <= '9' {
		end++
	}
	v, err := strconv.Atoi(result[:end])
	if err != nil {
		return 0
	}
	return v
}

func (f *FitnessData) Stats() Stats {
	pct := int(math.Round(float64(f.Steps) / StepGoal * 100))
	return Stats{
		Steps:              f.Steps,
		CaloriesBurned:     f.CaloriesBurned,
		StepGoal:           StepGoal,
		CalorieTarget:      CalorieTarget,
		StepGoalPercentage: min(pct, 100),
		CaloriesRemaining:  max(0, CalorieTarget-f.CaloriesBurned),
	}
}

func (f *FitnessData) Clone() *FitnessData {
	if f == nil {
		return nil
	}
	c := *f
	c.History = make([]HistoryEntry, len(f.History))
	for i, h := range f.History {
		h.Breakdown = slices.Clone(h.Breakdown)
		c.History[i] = h
	}
	c.Strength.Labels = slices.Clone(f.Strength.Labels)
	c.Strength.Series = make([]StrengthSeries, len(f.Strength.Series))
	for i, s := range f.Strength.Series {
		s.Data = slices.Clone(s.Data)
		c.Strength.Series[i] = s
	}
	c.MuscleReadiness = slices.Clone(f.MuscleReadiness)
	c.Goals.Badges = slices.Clone(f.Goals.Badges)
	c.Heatmap = make(map[string]int, len(f.Heatmap))
	for k, v := range f.Heatmap {
		c.Heatmap[k] = v
	}
	return &c
}
