package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/onlymaths/onlymaths/internal/game/scoring"
)

// ErrUnknownTemplate is returned when a template ID does not exist.
var ErrUnknownTemplate = errors.New("unknown game template")

// Template describes a playable game: generation config plus scoring
// constants and time budgets.
type Template struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	Category    string         `json:"category"`
	Difficulty  string         `json:"difficulty"` // easy|medium|hard|mixed
	Config      Config         `json:"config"`
	Scoring     scoring.Config `json:"scoring"`
	TimeLimit   time.Duration  `json:"time_limit"` // whole-session budget
}

var builtinTemplates = []Template{
	{
		ID:          "arithmetic-basic",
		Name:        "Basic Arithmetic",
		Description: "Simple addition and subtraction problems",
		Type:        "arithmetic",
		Category:    "math",
		Difficulty:  "easy",
		Config: Config{
			Operations:    []Operation{OpAdd, OpSubtract},
			Min:           1,
			Max:           20,
			Count:         10,
			AllowNegative: false,
		},
		Scoring: scoring.Config{
			BasePoints:           10,
			TimeBonus:            5,
			StreakBonus:          2,
			DifficultyMultiplier: 1,
			TimePerQuestion:      15 * time.Second,
		},
		TimeLimit: 150 * time.Second,
	},
	{
		ID:          "arithmetic-advanced",
		Name:        "Advanced Arithmetic",
		Description: "Multiplication and division challenges",
		Type:        "arithmetic",
		Category:    "math",
		Difficulty:  "hard",
		Config: Config{
			Operations:    []Operation{OpMultiply, OpDivide},
			Min:           2,
			Max:           12,
			Count:         15,
			AllowNegative: false,
		},
		Scoring: scoring.Config{
			BasePoints:           15,
			TimeBonus:            8,
			StreakBonus:          3,
			DifficultyMultiplier: 2,
			TimePerQuestion:      20 * time.Second,
		},
		TimeLimit: 300 * time.Second,
	},
}

// Templates returns the built-in game templates in a stable order.
func Templates() []Template {
	return append([]Template(nil), builtinTemplates...)
}

// TemplateByID looks up a built-in template.
func TemplateByID(id string) (Template, error) {
	for _, t := range builtinTemplates {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
}
