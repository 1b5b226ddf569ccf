package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testConfig(multiplier float64) Config {
	return Config{
		BasePoints:           10,
		TimeBonus:            5,
		StreakBonus:          2,
		DifficultyMultiplier: multiplier,
		TimePerQuestion:      15 * time.Second,
	}
}

func TestScore_Incorrect(t *testing.T) {
	e := NewEngine(testConfig(1))

	assert.Equal(t, 0, e.Score(false, 0, 0))
	assert.Equal(t, 0, e.Score(false, time.Second, 7))
	assert.Equal(t, 0, e.Score(false, time.Hour, 3))
}

func TestScore_InstantAnswer(t *testing.T) {
	e := NewEngine(testConfig(1))

	// timeRatio=1 -> full time bonus; streak 1 earns no streak bonus.
	assert.Equal(t, 15, e.Score(true, 0, 1))
}

func TestScore_FullTimeUsed(t *testing.T) {
	e := NewEngine(testConfig(1))

	// timeRatio=0 -> no time bonus; streak 3 -> 2 * min(2,5) = 4.
	assert.Equal(t, 14, e.Score(true, 15*time.Second, 3))
}

func TestScore_DifficultyMultiplier(t *testing.T) {
	e := NewEngine(testConfig(2))

	// Same inputs as the streak case, doubled after the bonuses.
	assert.Equal(t, 28, e.Score(true, 15*time.Second, 3))
}

func TestScore_StreakBonusCaps(t *testing.T) {
	e := NewEngine(testConfig(1))

	// Streak bonus caps at streak 6: min(streak-1, 5).
	atCap := e.Score(true, 15*time.Second, 6)
	beyondCap := e.Score(true, 15*time.Second, 50)
	assert.Equal(t, 10+2*5, atCap)
	assert.Equal(t, atCap, beyondCap)
}

func TestScore_TimeBonusThreshold(t *testing.T) {
	e := NewEngine(testConfig(1))

	// Exactly half the budget spent leaves timeRatio=0.5, which is not
	// strictly greater than 0.5, so no bonus.
	assert.Equal(t, 10, e.Score(true, 7500*time.Millisecond, 1))

	// Just under half spent earns floor(5 * ratio).
	assert.Equal(t, 12, e.Score(true, 7*time.Second, 1)) // ratio=0.5333 -> floor(2.66)=2
}

func TestScore_OvertimeAnswer(t *testing.T) {
	e := NewEngine(testConfig(1))

	// Negative timeRatio: base only.
	assert.Equal(t, 10, e.Score(true, 30*time.Second, 1))
}

func TestScore_MinimumOnePoint(t *testing.T) {
	e := NewEngine(Config{
		BasePoints:           1,
		DifficultyMultiplier: 0.1,
		TimePerQuestion:      15 * time.Second,
	})

	// floor(1 * 0.1) = 0, clamped up: a correct answer is never worth 0.
	assert.Equal(t, 1, e.Score(true, 15*time.Second, 1))
}

func TestScore_ZeroMultiplierDefaultsToOne(t *testing.T) {
	cfg := testConfig(0)
	e := NewEngine(cfg)

	assert.Equal(t, 10, e.Score(true, 15*time.Second, 1))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10, cfg.BasePoints)
	assert.Equal(t, 15*time.Second, cfg.TimePerQuestion)
}
