// Package gamification holds the pure leveling, scoring and badge rules.
package gamification

const (
	levelTwoXP   = 100
	levelThreeXP = 250
	levelFourXP  = 500
	levelStepXP  = 500
)

// CalculateLevel maps cumulative XP to a level >= 1. Negative XP is clamped
// to 0, so it always yields level 1. There is no level cap.
func CalculateLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	switch {
	case xp < levelTwoXP:
		return 1
	case xp < levelThreeXP:
		return 2
	case xp < levelFourXP:
		return 3
	default:
		return 4 + (xp-levelFourXP)/levelStepXP
	}
}

// XPForLevel returns the minimum XP required for level. Levels below 1 are
// treated as level 1.
func XPForLevel(level int) int {
	switch {
	case level <= 1:
		return 0
	case level == 2:
		return levelTwoXP
	case level == 3:
		return levelThreeXP
	default:
		return levelFourXP + (level-4)*levelStepXP
	}
}

// XPToNextLevel returns how much XP is missing to reach the next level.
// The result is always > 0.
func XPToNextLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return XPForLevel(CalculateLevel(xp)+1) - xp
}

// LevelInfo describes where a XP total sits inside its level.
type LevelInfo struct {
	Level         int `json:"level"`
	XP            int `json:"xp"`
	LevelFloorXP  int `json:"levelFloorXp"`
	NextLevelXP   int `json:"nextLevelXp"`
	XPToNextLevel int `json:"xpToNextLevel"`
	Percent       int `json:"percent"`
}

func LevelProgress(xp int) LevelInfo {
	if xp < 0 {
		xp = 0
	}
	level := CalculateLevel(xp)
	floor := XPForLevel(level)
	next := XPForLevel(level + 1)
	return LevelInfo{
		Level:         level,
		XP:            xp,
		LevelFloorXP:  floor,
		NextLevelXP:   next,
		XPToNextLevel: next - xp,
		Percent:       (xp - floor) * 100 / (next - floor),
	}
}
