// Package catalog holds the static course and badge definitions. It is
// read-only at runtime.
package catalog

import "sort"

type LessonKind string

const (
	LessonKindLesson LessonKind = "lesson"
	LessonKindQuiz   LessonKind = "quiz"
)

// Lesson is one step of a course. Order is 1-based and contiguous.
type Lesson struct {
	Slug      string            `json:"slug"`
	Title     string            `json:"title"`
	Order     int               `json:"order"`
	Kind      LessonKind        `json:"kind"`
	AnswerKey map[string]string `json:"-"`
}

// Course is an ordered collection of lessons. A course is also the module
// lessons are completed in.
type Course struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Lessons     []Lesson `json:"lessons"`
}

func (c Course) TotalLessons() int { return len(c.Lessons) }

// Lesson looks up a lesson by slug.
func (c Course) Lesson(slug string) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Slug == slug {
			return l, true
		}
	}
	return Lesson{}, false
}

var courses = []Course{
	{
		ID:          "corp-basics",
		Title:       "Finance d'entreprise : les bases",
		Description: "Lire un bilan, un compte de résultat et piloter la trésorerie.",
		Lessons: []Lesson{
			{Slug: "introduction", Title: "Le rôle de la finance d'entreprise", Order: 1, Kind: LessonKindLesson},
			{Slug: "bilan", Title: "Comprendre le bilan", Order: 2, Kind: LessonKindLesson},
			{Slug: "compte-de-resultat", Title: "Le compte de résultat", Order: 3, Kind: LessonKindLesson},
			{Slug: "tresorerie", Title: "Trésorerie et BFR", Order: 4, Kind: LessonKindLesson},
			{Slug: "quiz-fondamentaux", Title: "Quiz : fondamentaux", Order: 5, Kind: LessonKindQuiz, AnswerKey: map[string]string{
				"q1": "b", "q2": "a", "q3": "d", "q4": "c", "q5": "a",
			}},
		},
	},
	{
		ID:          "marches-financiers",
		Title:       "Marchés financiers",
		Description: "Actions, obligations et mécanismes de valorisation.",
		Lessons: []Lesson{
			{Slug: "actions", Title: "Les actions", Order: 1, Kind: LessonKindLesson},
			{Slug: "obligations", Title: "Les obligations", Order: 2, Kind: LessonKindLesson},
			{Slug: "valorisation", Title: "Méthodes de valorisation", Order: 3, Kind: LessonKindLesson},
			{Slug: "quiz-marches", Title: "Quiz : marchés", Order: 4, Kind: LessonKindQuiz, AnswerKey: map[string]string{
				"q1": "c", "q2": "c", "q3": "a", "q4": "b",
			}},
		},
	},
	{
		ID:          "entretien-banque",
		Title:       "Préparer un entretien en banque",
		Description: "Questions techniques, fit et simulation d'entretien.",
		Lessons: []Lesson{
			{Slug: "metiers", Title: "Panorama des métiers", Order: 1, Kind: LessonKindLesson},
			{Slug: "questions-techniques", Title: "Questions techniques classiques", Order: 2, Kind: LessonKindLesson},
			{Slug: "quiz-entretien", Title: "Quiz : entretien", Order: 3, Kind: LessonKindQuiz, AnswerKey: map[string]string{
				"q1": "a", "q2": "d", "q3": "b",
			}},
		},
	},
}

var coursesByID = func() map[string]Course {
	m := make(map[string]Course, len(courses))
	for _, c := range courses {
		sort.Slice(c.Lessons, func(i, j int) bool { return c.Lessons[i].Order < c.Lessons[j].Order })
		m[c.ID] = c
	}
	return m
}()

// Courses returns every course in catalog order.
func Courses() []Course {
	out := make([]Course, len(courses))
	copy(out, courses)
	return out
}

// FindCourse returns the course with the given id.
func FindCourse(id string) (Course, bool) {
	c, ok := coursesByID[id]
	return c, ok
}
