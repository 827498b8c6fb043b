package models

import (
	"time"

	"gorm.io/datatypes"
)

// CourseProgress is the completion percentage of a course. It never decreases.
type CourseProgress struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_course_progress_user_course,priority:1" json:"userId"`
	CourseID  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_course_progress_user_course,priority:2" json:"courseId"`
	Progress  int       `gorm:"not null" json:"progress"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (CourseProgress) TableName() string {
	return "course_progress"
}

// LessonCompletion records that a user finished a lesson. Insert-only.
type LessonCompletion struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	UserID      string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_lesson_completion_unique,priority:1" json:"userId"`
	ModuleID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_lesson_completion_unique,priority:2" json:"moduleId"`
	LessonSlug  string    `gorm:"type:varchar(120);not null;uniqueIndex:idx_lesson_completion_unique,priority:3" json:"lessonSlug"`
	CompletedAt time.Time `gorm:"not null;index" json:"completedAt"`
}

func (LessonCompletion) TableName() string {
	return "lesson_completion"
}

// QuizResult holds the latest attempt of a quiz; retries overwrite it.
type QuizResult struct {
	ID            uint              `gorm:"primaryKey" json:"-"`
	UserID        string            `gorm:"type:varchar(36);not null;uniqueIndex:idx_quiz_results_unique,priority:1" json:"userId"`
	LessonSlug    string            `gorm:"type:varchar(120);not null;uniqueIndex:idx_quiz_results_unique,priority:2" json:"lessonSlug"`
	ModuleID      string            `gorm:"type:varchar(64);not null;uniqueIndex:idx_quiz_results_unique,priority:3" json:"moduleId"`
	Score         int               `gorm:"not null" json:"score"`
	Passed        bool              `gorm:"not null" json:"passed"`
	PassingScore  int               `gorm:"not null" json:"passingScore"`
	Answers       datatypes.JSONMap `json:"answers"`
	QuestionCount int               `gorm:"not null" json:"questionCount"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
