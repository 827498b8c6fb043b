package gamification

import (
	"math"

	"finquest/catalog"
)

// DefaultPassingScore is used when a quiz is submitted without one.
const DefaultPassingScore = 70

// XPRewards is the XP granted per completed action.
type XPRewards struct {
	Lesson       int
	Quiz         int
	PerfectBonus int
}

func DefaultXPRewards() XPRewards {
	return XPRewards{Lesson: 10, Quiz: 20, PerfectBonus: 10}
}

// ForLesson returns the XP for completing a lesson of the given kind. Quiz
// lessons completed with a perfect score earn the bonus on top.
func (r XPRewards) ForLesson(kind catalog.LessonKind, perfect bool) int {
	if kind != catalog.LessonKindQuiz {
		return r.Lesson
	}
	if perfect {
		return r.Quiz + r.PerfectBonus
	}
	return r.Quiz
}

// QuizScore is the outcome of grading a submission.
type QuizScore struct {
	Score   int
	Correct int
	Total   int
	Passed  bool
}

// ScoreQuiz grades answers against the answer key. Total is the size of the
// key; unanswered questions count as wrong.
func ScoreQuiz(answers, correct map[string]string, passingScore int) QuizScore {
	total := len(correct)
	if total == 0 {
		return QuizScore{}
	}
	hits := 0
	for question, want := range correct {
		if got, ok := answers[question]; ok && got == want {
			hits++
		}
	}
	score := int(math.Round(100 * float64(hits) / float64(total)))
	return QuizScore{Score: score, Correct: hits, Total: total, Passed: score >= passingScore}
}

// IsLessonUnlocked reports whether the lesson at order is available. The
// first lesson is always unlocked; lesson N needs lesson N-1 completed.
func IsLessonUnlocked(order int, lessons []catalog.Lesson, completed map[string]bool) bool {
	if order <= 1 {
		return true
	}
	for _, l := range lessons {
		if l.Order == order-1 {
			return completed[l.Slug]
		}
	}
	return false
}

// CandidateProgress is the completion percentage after finishing the lesson
// at 1-based lessonIndex, clamped to [0, 100].
func CandidateProgress(lessonIndex, totalLessons int) int {
	if totalLessons <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(lessonIndex) / float64(totalLessons)))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
