package game

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

var (
	// ErrInvalidConfig marks structurally invalid generation configs.
	ErrInvalidConfig = errors.New("invalid generation config")

	// ErrUnsatisfiableConfig marks configs that produced no valid question
	// within the retry budget (e.g. a non-negative constraint an all-negative
	// operand range can never satisfy).
	ErrUnsatisfiableConfig = errors.New("config cannot produce a valid question")
)

// The original had no bound on the rejection-sampling loop; a pathological
// config would spin forever. Cap attempts per question instead.
const maxAttemptsPerQuestion = 1000

const optionCount = 4

// Generate produces exactly cfg.Count questions by rejection sampling.
// Pass rng for deterministic output in tests; nil uses a time-seeded source.
func Generate(cfg Config, rng *rand.Rand) ([]Question, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	questions := make([]Question, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		q, err := generateOne(cfg, rng, i+1)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func generateOne(cfg Config, rng *rand.Rand, number int) (Question, error) {
	for attempt := 0; attempt < maxAttemptsPerQuestion; attempt++ {
		op := cfg.Operations[rng.Intn(len(cfg.Operations))]
		a := randBetween(rng, cfg.Min, cfg.Max)
		b := randBetween(rng, cfg.Min, cfg.Max)

		// Division questions keep the quotient integer-friendly: the dividend
		// is derived from the divisor rather than drawn from the range.
		if op == OpDivide {
			if b == 0 {
				continue
			}
			a = b * randBetween(rng, 2, 10)
		}

		answer, ok := compute(a, op, b)
		if !ok {
			continue
		}
		if !cfg.AllowNegative && answer < 0 {
			continue
		}

		q := Question{
			Number:    number,
			Operand1:  a,
			Operand2:  b,
			Operation: op,
			Text:      fmt.Sprintf("%d %s %d", a, op, b),
			Answer:    answer,
		}
		if cfg.MultipleChoice {
			q.Options = choiceOptions(answer, rng)
		}
		return q, nil
	}
	return Question{}, fmt.Errorf("%w: gave up after %d attempts (question %d)",
		ErrUnsatisfiableConfig, maxAttemptsPerQuestion, number)
}

func compute(a int, op Operation, b int) (float64, bool) {
	switch op {
	case OpAdd:
		return float64(a + b), true
	case OpSubtract:
		return float64(a - b), true
	case OpMultiply:
		return float64(a * b), true
	case OpDivide:
		if b == 0 {
			return 0, false
		}
		return round2(float64(a) / float64(b)), true
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// choiceOptions returns the correct answer plus 3 distractors within
// ±max(|answer|/2, 10), deduplicated and non-negative, shuffled.
func choiceOptions(answer float64, rng *rand.Rand) []float64 {
	options := []float64{answer}
	spread := int(math.Max(math.Abs(answer*0.5), 10))

	// Bounded so an all-negative candidate window cannot spin forever; after
	// the budget the non-negative filter is relaxed.
	for attempt := 0; len(options) < optionCount; attempt++ {
		offset := float64(randBetween(rng, -spread, spread))
		option := answer + offset
		if option == answer || contains(options, option) {
			continue
		}
		if option < 0 && attempt < maxAttemptsPerQuestion {
			continue
		}
		options = append(options, option)
	}

	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

func contains(values []float64, v float64) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// randBetween returns a uniform integer in [min, max].
func randBetween(rng *rand.Rand, min, max int) int {
	if min >= max {
		return min
	}
	return min + rng.Intn(max-min+1)
}
