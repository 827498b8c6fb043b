package catalog

import (
	"strconv"
	"strings"
)

// Badge is a static achievement definition.
type Badge struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	BadgeFirstLesson  = "first_lesson"
	BadgePerfectQuiz  = "perfect_quiz"
	BadgePerfectQuiz5 = "perfect_quiz_5"
	BadgeStreak3      = "streak_3"
	BadgeStreak7      = "streak_7"
	BadgeLessons10    = "lessons_10"
	BadgeLessons50    = "lessons_50"
	courseBadgePrefix = "course_completed_"
	levelBadgePrefix  = "level_"
)

var badges = map[string]Badge{
	BadgeFirstLesson:  {Code: BadgeFirstLesson, Name: "Premiers pas", Description: "Terminer une première leçon"},
	BadgePerfectQuiz:  {Code: BadgePerfectQuiz, Name: "Sans faute", Description: "Obtenir 100 % à un quiz"},
	BadgePerfectQuiz5: {Code: BadgePerfectQuiz5, Name: "Perfectionniste", Description: "Obtenir 100 % à cinq quiz"},
	BadgeStreak3:      {Code: BadgeStreak3, Name: "Régulier", Description: "Apprendre trois jours d'affilée"},
	BadgeStreak7:      {Code: BadgeStreak7, Name: "Assidu", Description: "Apprendre sept jours d'affilée"},
	BadgeLessons10:    {Code: BadgeLessons10, Name: "Studieux", Description: "Terminer dix leçons"},
	BadgeLessons50:    {Code: BadgeLessons50, Name: "Érudit", Description: "Terminer cinquante leçons"},
	LevelBadge(2):     {Code: LevelBadge(2), Name: "Niveau 2", Description: "Atteindre le niveau 2"},
	LevelBadge(3):     {Code: LevelBadge(3), Name: "Niveau 3", Description: "Atteindre le niveau 3"},
	LevelBadge(5):     {Code: LevelBadge(5), Name: "Niveau 5", Description: "Atteindre le niveau 5"},
	LevelBadge(10):    {Code: LevelBadge(10), Name: "Niveau 10", Description: "Atteindre le niveau 10"},
}

// LevelBadgeThresholds are the levels that unlock a badge.
var LevelBadgeThresholds = []int{2, 3, 5, 10}

// CourseBadge returns the badge code granted when a course reaches 100%.
func CourseBadge(courseID string) string {
	return courseBadgePrefix + courseID
}

// LevelBadge returns the badge code granted when a level is reached.
func LevelBadge(level int) string {
	return levelBadgePrefix + strconv.Itoa(level)
}

// FindBadge resolves a badge code, including per-course completion badges.
func FindBadge(code string) (Badge, bool) {
	if b, ok := badges[code]; ok {
		return b, true
	}
	if strings.HasPrefix(code, courseBadgePrefix) {
		course, ok := FindCourse(strings.TrimPrefix(code, courseBadgePrefix))
		if !ok {
			return Badge{}, false
		}
		return Badge{Code: code, Name: "Diplômé : " + course.Title, Description: "Terminer le parcours " + course.Title}, true
	}
	return Badge{}, false
}
