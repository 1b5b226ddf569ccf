package game

import (
	"fmt"
)

// Operation is an arithmetic operation symbol.
type Operation string

// Supported operations.
const (
	OpAdd      Operation = "+"
	OpSubtract Operation = "-"
	OpMultiply Operation = "*"
	OpDivide   Operation = "/"
)

func (op Operation) valid() bool {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		return true
	}
	return false
}

// Config drives question generation for a session.
type Config struct {
	Operations     []Operation `json:"operations"`
	Min            int         `json:"min"`
	Max            int         `json:"max"`
	Count          int         `json:"count"`
	AllowNegative  bool        `json:"allow_negative"`
	MultipleChoice bool        `json:"multiple_choice"`
}

// Validate reports whether the config can be handed to the generator at all.
// Satisfiability (e.g. a non-negative constraint the operand range can never
// meet) is only detectable by the generator's retry cap.
func (c Config) Validate() error {
	if c.Count <= 0 {
		return fmt.Errorf("%w: question count must be positive", ErrInvalidConfig)
	}
	if len(c.Operations) == 0 {
		return fmt.Errorf("%w: at least one operation required", ErrInvalidConfig)
	}
	for _, op := range c.Operations {
		if !op.valid() {
			return fmt.Errorf("%w: unknown operation %q", ErrInvalidConfig, op)
		}
	}
	if c.Min > c.Max {
		return fmt.Errorf("%w: operand range [%d,%d] is empty", ErrInvalidConfig, c.Min, c.Max)
	}
	return nil
}

// Question is an immutable arithmetic problem. The engine never mutates
// questions; per-question outcomes live in separate Answer records.
type Question struct {
	Number    int       `json:"number"` // 1-based position in the session
	Operand1  int       `json:"operand1"`
	Operand2  int       `json:"operand2"`
	Operation Operation `json:"operation"`
	Text      string    `json:"text"`
	Answer    float64   `json:"answer"`
	Options   []float64 `json:"options,omitempty"` // multiple-choice mode only
}

// Answer records the outcome of one submitted answer. Append-only.
type Answer struct {
	QuestionNumber int     `json:"question_number"`
	Submitted      string  `json:"submitted"`
	CorrectAnswer  float64 `json:"correct_answer"`
	IsCorrect      bool    `json:"is_correct"`
	TimeSpentMs    int64   `json:"time_spent_ms"`
	Points         int     `json:"points"`
	StreakAfter    int     `json:"streak_after"`
}

// Progress is a read-only projection of session position.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}
