package gamification

import (
	"sort"
	"time"

	"finquest/catalog"

	"github.com/jinzhu/now"
)

// Facts is what the badge rules are evaluated against.
type Facts struct {
	LessonsCompleted int
	CourseProgress   map[string]int
	Level            int
	PerfectQuizzes   int
	CompletionTimes  []time.Time
	At               time.Time
}

// EligibleBadges returns every badge code whose predicate holds for f. The
// caller filters out codes that were already granted.
func EligibleBadges(f Facts) []string {
	var codes []string

	if f.LessonsCompleted >= 1 {
		codes = append(codes, catalog.BadgeFirstLesson)
	}
	if f.LessonsCompleted >= 10 {
		codes = append(codes, catalog.BadgeLessons10)
	}
	if f.LessonsCompleted >= 50 {
		codes = append(codes, catalog.BadgeLessons50)
	}

	courseIDs := make([]string, 0, len(f.CourseProgress))
	for id := range f.CourseProgress {
		courseIDs = append(courseIDs, id)
	}
	sort.Strings(courseIDs)
	for _, id := range courseIDs {
		if f.CourseProgress[id] == 100 {
			codes = append(codes, catalog.CourseBadge(id))
		}
	}

	for _, lvl := range catalog.LevelBadgeThresholds {
		if f.Level >= lvl {
			codes = append(codes, catalog.LevelBadge(lvl))
		}
	}

	if f.PerfectQuizzes >= 1 {
		codes = append(codes, catalog.BadgePerfectQuiz)
	}
	if f.PerfectQuizzes >= 5 {
		codes = append(codes, catalog.BadgePerfectQuiz5)
	}

	streak := CurrentStreak(f.CompletionTimes, f.At)
	if streak >= 3 {
		codes = append(codes, catalog.BadgeStreak3)
	}
	if streak >= 7 {
		codes = append(codes, catalog.BadgeStreak7)
	}

	return codes
}

// CurrentStreak counts consecutive UTC calendar days with activity, ending
// today or yesterday relative to at.
func CurrentStreak(times []time.Time, at time.Time) int {
	if len(times) == 0 {
		return 0
	}
	days := make(map[time.Time]bool, len(times))
	for _, t := range times {
		days[now.With(t.UTC()).BeginningOfDay()] = true
	}

	day := now.With(at.UTC()).BeginningOfDay()
	if !days[day] {
		day = day.AddDate(0, 0, -1)
		if !days[day] {
			return 0
		}
	}

	streak := 0
	for days[day] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
