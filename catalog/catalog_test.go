package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseLessonsAreContiguous(t *testing.T) {
	for _, c := range Courses() {
		require.NotEmpty(t, c.Lessons, c.ID)
		seen := map[string]bool{}
		for i, l := range c.Lessons {
			assert.Equal(t, i+1, l.Order, "%s/%s", c.ID, l.Slug)
			assert.False(t, seen[l.Slug], "duplicate slug %s in %s", l.Slug, c.ID)
			seen[l.Slug] = true
			if l.Kind == LessonKindQuiz {
				assert.NotEmpty(t, l.AnswerKey, "%s/%s has no answer key", c.ID, l.Slug)
			}
		}
	}
}

func TestFindCourse(t *testing.T) {
	c, ok := FindCourse("corp-basics")
	require.True(t, ok)
	assert.Equal(t, 5, c.TotalLessons())

	l, ok := c.Lesson("tresorerie")
	require.True(t, ok)
	assert.Equal(t, 4, l.Order)

	_, ok = c.Lesson("missing")
	assert.False(t, ok)

	_, ok = FindCourse("nope")
	assert.False(t, ok)
}

func TestFindBadge(t *testing.T) {
	b, ok := FindBadge(BadgeFirstLesson)
	require.True(t, ok)
	assert.Equal(t, "first_lesson", b.Code)

	b, ok = FindBadge(CourseBadge("corp-basics"))
	require.True(t, ok)
	assert.Equal(t, "course_completed_corp-basics", b.Code)
	assert.Contains(t, b.Name, "Finance d'entreprise")

	_, ok = FindBadge(CourseBadge("unknown"))
	assert.False(t, ok)

	for _, lvl := range LevelBadgeThresholds {
		_, ok := FindBadge(LevelBadge(lvl))
		assert.True(t, ok, lvl)
	}
}
