package scoring

import (
	"math"
	"time"
)

// Config holds configurable scoring constants for one game template.
type Config struct {
	BasePoints           int           `json:"base_points"`
	TimeBonus            int           `json:"time_bonus"`
	StreakBonus          int           `json:"streak_bonus"`
	DifficultyMultiplier float64       `json:"difficulty_multiplier"`
	TimePerQuestion      time.Duration `json:"time_per_question"`
}

// DefaultConfig returns the constants used by the basic arithmetic template.
func DefaultConfig() Config {
	return Config{
		BasePoints:           10,
		TimeBonus:            5,
		StreakBonus:          2,
		DifficultyMultiplier: 1,
		TimePerQuestion:      15 * time.Second,
	}
}

// Engine computes per-answer points with configurable constants.
type Engine struct {
	config Config
}

// NewEngine creates a scoring engine with the provided config.
// A zero difficulty multiplier is treated as 1 so misconfigured
// templates don't zero out every answer.
func NewEngine(config Config) *Engine {
	if config.DifficultyMultiplier == 0 {
		config.DifficultyMultiplier = 1
	}
	return &Engine{config: config}
}

// Score computes points for a single answer.
// Formula: (base + time_bonus + streak_bonus) * difficulty_multiplier
// - base: always awarded if correct
// - time_bonus: floor(timeBonus * timeRatio), only when more than half the
//   question budget remains (timeRatio > 0.5)
// - streak_bonus: streakBonus * min(streak-1, 5) from the second consecutive
//   correct answer onward
// The bonuses are additive before the multiplier, and a correct answer is
// always worth at least 1 point.
//
// streak is the consecutive-correct count including this answer.
func (e *Engine) Score(isCorrect bool, timeSpent time.Duration, streak int) int {
	if !isCorrect {
		return 0
	}

	points := e.config.BasePoints

	if e.config.TimePerQuestion > 0 {
		timeRatio := 1 - float64(timeSpent)/float64(e.config.TimePerQuestion)
		if timeRatio > 0.5 {
			points += int(math.Floor(float64(e.config.TimeBonus) * timeRatio))
		}
	}

	if streak >= 2 {
		capped := streak - 1
		if capped > 5 {
			capped = 5
		}
		points += e.config.StreakBonus * capped
	}

	final := int(math.Floor(float64(points) * e.config.DifficultyMultiplier))
	if final < 1 {
		final = 1
	}
	return final
}
