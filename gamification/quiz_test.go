package gamification

import (
	"testing"

	"finquest/catalog"

	"github.com/stretchr/testify/assert"
)

func TestScoreQuiz(t *testing.T) {
	key := map[string]string{"q1": "a", "q2": "b", "q3": "c"}

	s := ScoreQuiz(map[string]string{"q1": "a", "q2": "b", "q3": "c"}, key, 70)
	assert.Equal(t, QuizScore{Score: 100, Correct: 3, Total: 3, Passed: true}, s)

	s = ScoreQuiz(map[string]string{"q1": "a", "q2": "b"}, key, 70)
	assert.Equal(t, 67, s.Score)
	assert.False(t, s.Passed)

	s = ScoreQuiz(map[string]string{"q1": "a", "q2": "b"}, key, 60)
	assert.True(t, s.Passed)

	s = ScoreQuiz(map[string]string{"q9": "a"}, key, 70)
	assert.Equal(t, 0, s.Score)

	assert.Equal(t, QuizScore{}, ScoreQuiz(nil, nil, 70))
}

func TestPassedMatchesThreshold(t *testing.T) {
	key := map[string]string{"q1": "a", "q2": "a", "q3": "a", "q4": "a", "q5": "a", "q6": "a", "q7": "a", "q8": "a", "q9": "a", "q10": "a"}
	answers := map[string]string{}
	for i, q := range []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8", "q9", "q10"} {
		answers[q] = "a"
		s := ScoreQuiz(answers, key, DefaultPassingScore)
		assert.Equal(t, (i+1)*10, s.Score)
		assert.Equal(t, s.Score >= DefaultPassingScore, s.Passed)
	}
}

func TestXPRewards(t *testing.T) {
	r := DefaultXPRewards()
	assert.Equal(t, 10, r.ForLesson(catalog.LessonKindLesson, false))
	assert.Equal(t, 10, r.ForLesson(catalog.LessonKindLesson, true))
	assert.Equal(t, 20, r.ForLesson(catalog.LessonKindQuiz, false))
	assert.Equal(t, 30, r.ForLesson(catalog.LessonKindQuiz, true))
}

func TestIsLessonUnlocked(t *testing.T) {
	lessons := []catalog.Lesson{
		{Slug: "a", Order: 1},
		{Slug: "b", Order: 2},
		{Slug: "c", Order: 3},
	}

	assert.True(t, IsLessonUnlocked(1, lessons, nil))
	assert.False(t, IsLessonUnlocked(2, lessons, nil))
	assert.True(t, IsLessonUnlocked(2, lessons, map[string]bool{"a": true}))
	assert.False(t, IsLessonUnlocked(3, lessons, map[string]bool{"a": true}))
	assert.True(t, IsLessonUnlocked(3, lessons, map[string]bool{"b": true}))
	assert.False(t, IsLessonUnlocked(9, lessons, map[string]bool{"a": true, "b": true, "c": true}))
}

func TestCandidateProgress(t *testing.T) {
	assert.Equal(t, 20, CandidateProgress(1, 5))
	assert.Equal(t, 60, CandidateProgress(3, 5))
	assert.Equal(t, 100, CandidateProgress(5, 5))
	assert.Equal(t, 33, CandidateProgress(1, 3))
	assert.Equal(t, 67, CandidateProgress(2, 3))
	assert.Equal(t, 100, CandidateProgress(7, 5))
	assert.Equal(t, 0, CandidateProgress(-1, 5))
	assert.Equal(t, 0, CandidateProgress(1, 0))
}
