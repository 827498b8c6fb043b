package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateLevelScenario(t *testing.T) {
	cases := map[int]int{
		0:    1,
		99:   1,
		100:  2,
		249:  2,
		250:  3,
		499:  3,
		500:  4,
		999:  4,
		1000: 5,
		1500: 6,
	}
	for xp, want := range cases {
		assert.Equal(t, want, CalculateLevel(xp), "xp=%d", xp)
	}
}

func TestCalculateLevelClampsNegative(t *testing.T) {
	assert.Equal(t, 1, CalculateLevel(-50))
	assert.Equal(t, 100, XPToNextLevel(-50))
}

func TestCalculateLevelMonotonic(t *testing.T) {
	prev := CalculateLevel(0)
	for xp := 0; xp <= 10000; xp++ {
		lvl := CalculateLevel(xp)
		assert.GreaterOrEqual(t, lvl, 1)
		if lvl < prev {
			t.Fatalf("level decreased at xp=%d: %d -> %d", xp, prev, lvl)
		}
		prev = lvl
	}
}

func TestXPForLevelRoundTrip(t *testing.T) {
	for level := 1; level <= 200; level++ {
		assert.Equal(t, level, CalculateLevel(XPForLevel(level)), "level=%d", level)
		if level > 1 {
			assert.Equal(t, level-1, CalculateLevel(XPForLevel(level)-1), "just below level=%d", level)
		}
	}
	assert.Equal(t, 0, XPForLevel(0))
	assert.Equal(t, 0, XPForLevel(-3))
}

func TestBoundaryConsistency(t *testing.T) {
	for xp := 0; xp <= 5000; xp += 7 {
		lvl := CalculateLevel(xp)
		assert.Equal(t, lvl, CalculateLevel(XPForLevel(lvl)))
		assert.Greater(t, XPToNextLevel(xp), 0)
		assert.Equal(t, lvl+1, CalculateLevel(xp+XPToNextLevel(xp)))
	}
}

func TestLevelProgress(t *testing.T) {
	info := LevelProgress(175)
	assert.Equal(t, LevelInfo{
		Level:         2,
		XP:            175,
		LevelFloorXP:  100,
		NextLevelXP:   250,
		XPToNextLevel: 75,
		Percent:       50,
	}, info)

	info = LevelProgress(750)
	assert.Equal(t, 4, info.Level)
	assert.Equal(t, 1000, info.NextLevelXP)
	assert.Equal(t, 50, info.Percent)
}
