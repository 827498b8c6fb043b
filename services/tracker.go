package services

import (
	"context"
	"strings"

	"finquest/apperr"
	"finquest/catalog"
	"finquest/gamification"
	"finquest/models"
	"finquest/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompletionResult is returned by every lesson completion, first or repeated.
type CompletionResult struct {
	ModuleID        string   `json:"moduleId"`
	LessonSlug      string   `json:"lessonSlug"`
	FirstCompletion bool     `json:"firstCompletion"`
	XPAwarded       int      `json:"xpAwarded"`
	XP              int      `json:"xp"`
	Level           int      `json:"level"`
	Progress        int      `json:"progress"`
	NewBadges       []string `json:"newBadges"`
}

// QuizOutcome is the graded latest attempt of a quiz.
type QuizOutcome struct {
	ModuleID     string            `json:"moduleId"`
	LessonSlug   string            `json:"lessonSlug"`
	Score        int               `json:"score"`
	Passed       bool              `json:"passed"`
	Correct      int               `json:"correct"`
	Total        int               `json:"total"`
	PassingScore int               `json:"passingScore"`
	NewBadges    []string          `json:"newBadges"`
	Completion   *CompletionResult `json:"completion,omitempty"`
}

type LessonState struct {
	Slug      string             `json:"slug"`
	Title     string             `json:"title"`
	Order     int                `json:"order"`
	Kind      catalog.LessonKind `json:"kind"`
	Completed bool               `json:"completed"`
	Unlocked  bool               `json:"unlocked"`
	Quiz      *models.QuizResult `json:"quiz,omitempty"`
}

type ModuleState struct {
	ModuleID string        `json:"moduleId"`
	Title    string        `json:"title"`
	Progress int           `json:"progress"`
	Lessons  []LessonState `json:"lessons"`
}

type TrackerService struct {
	db           *gorm.DB
	locker       UserLocker
	rewards      gamification.XPRewards
	passingScore int
	badges       *BadgeService
	now          clock
}

func NewTrackerService(db *gorm.DB, locker UserLocker, rewards gamification.XPRewards, passingScore int, badges *BadgeService) *TrackerService {
	if passingScore < 0 || passingScore > 100 {
		passingScore = gamification.DefaultPassingScore
	}
	return &TrackerService{
		db:           db,
		locker:       locker,
		rewards:      rewards,
		passingScore: passingScore,
		badges:       badges,
		now:          utcNow,
	}
}

func findLesson(moduleID, lessonSlug string) (catalog.Course, catalog.Lesson, error) {
	course, ok := catalog.FindCourse(moduleID)
	if !ok {
		return catalog.Course{}, catalog.Lesson{}, apperr.NotFound("Module not found")
	}
	lesson, ok := course.Lesson(lessonSlug)
	if !ok {
		return catalog.Course{}, catalog.Lesson{}, apperr.NotFound("Lesson not found")
	}
	return course, lesson, nil
}

// CompleteLesson records the completion of a lesson. XP is awarded only the
// first time; repeated calls return the current state without side effects.
// Locked lessons and quiz lessons without a passing attempt are rejected.
func (s *TrackerService) CompleteLesson(ctx context.Context, userID, moduleID, lessonSlug string) (*CompletionResult, error) {
	return s.completeLesson(ctx, userID, moduleID, lessonSlug, false)
}

// ForceCompleteLesson completes a lesson regardless of unlock and quiz state.
func (s *TrackerService) ForceCompleteLesson(ctx context.Context, userID, moduleID, lessonSlug string) (*CompletionResult, error) {
	return s.completeLesson(ctx, userID, moduleID, lessonSlug, true)
}

func (s *TrackerService) completeLesson(ctx context.Context, userID, moduleID, lessonSlug string, force bool) (*CompletionResult, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	course, lesson, err := findLesson(moduleID, lessonSlug)
	if err != nil {
		return nil, err
	}

	unlock, err := lockUser(ctx, s.locker, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &CompletionResult{ModuleID: course.ID, LessonSlug: lesson.Slug, NewBadges: []string{}}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var completed []string
		if err := tx.Model(&models.LessonCompletion{}).
			Where("user_id = ? AND module_id = ?", userID, course.ID).
			Pluck("lesson_slug", &completed).Error; err != nil {
			return err
		}
		done := make(map[string]bool, len(completed))
		for _, slug := range completed {
			done[slug] = true
		}

		if !force && !done[lesson.Slug] && !gamification.IsLessonUnlocked(lesson.Order, course.Lessons, done) {
			return apperr.Validation("Lesson is locked: complete the previous lesson first", map[string]interface{}{
				"moduleId":   course.ID,
				"lessonSlug": lesson.Slug,
			})
		}

		perfect := false
		if lesson.Kind == catalog.LessonKindQuiz {
			var attempts []models.QuizResult
			if err := tx.Where("user_id = ? AND lesson_slug = ? AND module_id = ?", userID, lesson.Slug, course.ID).
				Limit(1).Find(&attempts).Error; err != nil {
				return err
			}
			if !force && !done[lesson.Slug] && (len(attempts) == 0 || !attempts[0].Passed) {
				return apperr.Validation("Pass the quiz before completing this lesson", map[string]interface{}{
					"lessonSlug": lesson.Slug,
				})
			}
			perfect = len(attempts) == 1 && attempts[0].Score == 100
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}, {Name: "lesson_slug"}},
			DoNothing: true,
		}).Create(&models.LessonCompletion{
			UserID:      userID,
			ModuleID:    course.ID,
			LessonSlug:  lesson.Slug,
			CompletedAt: s.now(),
		})
		if res.Error != nil {
			return res.Error
		}
		result.FirstCompletion = res.RowsAffected == 1

		xp := 0
		if result.FirstCompletion {
			xp = s.rewards.ForLesson(lesson.Kind, perfect)
		}
		profile, err := addXP(tx, userID, xp)
		if err != nil {
			return err
		}
		result.XPAwarded = xp
		result.XP = profile.XP
		result.Level = profile.Level

		progress, err := raiseProgress(tx, userID, course.ID, gamification.CandidateProgress(lesson.Order, course.TotalLessons()), s.now)
		if err != nil {
			return err
		}
		result.Progress = progress
		return nil
	})
	if err != nil {
		return nil, storeError("complete_lesson", userID, err)
	}

	if result.XPAwarded > 0 {
		utils.XPAwarded.Add(float64(result.XPAwarded))
		utils.Log.Infow("lesson completed", "userId", userID, "moduleId", course.ID, "lesson", lesson.Slug,
			"xp", result.XPAwarded, "level", result.Level, "progress", result.Progress)
	}

	// evaluated on every call so a failed evaluation is retried by completing again
	event := EventLessonCompleted
	if result.Progress == 100 {
		event = EventCourseProgress
	}
	granted, err := s.badges.evaluate(ctx, userID, event)
	if err != nil {
		return result, err
	}
	if granted != nil {
		result.NewBadges = granted
	}
	return result, nil
}

// SubmitQuiz grades answers against correct and stores the attempt,
// replacing any previous one even when the new score is lower. It grants no
// XP by itself. A negative passingScore selects the default; 0 lets every
// attempt pass.
func (s *TrackerService) SubmitQuiz(ctx context.Context, userID, moduleID, lessonSlug string, answers, correct map[string]string, passingScore int) (*QuizOutcome, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	moduleID = strings.TrimSpace(moduleID)
	lessonSlug = strings.TrimSpace(lessonSlug)
	if moduleID == "" || lessonSlug == "" {
		return nil, apperr.Validation("moduleId and lessonSlug are required", nil)
	}
	if len(correct) == 0 {
		return nil, apperr.Validation("Quiz has no questions", map[string]interface{}{"lessonSlug": lessonSlug})
	}
	if passingScore < 0 {
		passingScore = gamification.DefaultPassingScore
	}
	if passingScore > 100 {
		return nil, apperr.Validation("passingScore must be between 0 and 100", map[string]interface{}{"passingScore": passingScore})
	}

	unlock, err := lockUser(ctx, s.locker, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	graded := gamification.ScoreQuiz(answers, correct, passingScore)
	stored := make(datatypes.JSONMap, len(answers))
	for q, a := range answers {
		stored[q] = a
	}
	ts := s.now()
	row := models.QuizResult{
		UserID:        userID,
		LessonSlug:    lessonSlug,
		ModuleID:      moduleID,
		Score:         graded.Score,
		Passed:        graded.Passed,
		PassingScore:  passingScore,
		Answers:       stored,
		QuestionCount: graded.Total,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_slug"}, {Name: "module_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "passed", "passing_score", "answers", "question_count", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, storeError("submit_quiz", userID, err)
	}

	outcome := &QuizOutcome{
		ModuleID:     moduleID,
		LessonSlug:   lessonSlug,
		Score:        graded.Score,
		Passed:       graded.Passed,
		Correct:      graded.Correct,
		Total:        graded.Total,
		PassingScore: passingScore,
		NewBadges:    []string{},
	}
	granted, err := s.badges.evaluate(ctx, userID, EventQuizSubmitted)
	if err != nil {
		return outcome, err
	}
	if granted != nil {
		outcome.NewBadges = granted
	}
	return outcome, nil
}

// SubmitLessonQuiz grades a catalog quiz against its answer key and, when the
// attempt passes, completes the lesson.
func (s *TrackerService) SubmitLessonQuiz(ctx context.Context, userID, moduleID, lessonSlug string, answers map[string]string) (*QuizOutcome, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	course, lesson, err := findLesson(moduleID, lessonSlug)
	if err != nil {
		return nil, err
	}
	if lesson.Kind != catalog.LessonKindQuiz {
		return nil, apperr.Validation("Lesson is not a quiz", map[string]interface{}{"lessonSlug": lesson.Slug})
	}

	state, err := s.ModuleState(ctx, userID, course.ID)
	if err != nil {
		return nil, err
	}
	for _, l := range state.Lessons {
		if l.Slug == lesson.Slug && !l.Unlocked {
			return nil, apperr.Validation("Lesson is locked: complete the previous lesson first", map[string]interface{}{
				"moduleId":   course.ID,
				"lessonSlug": lesson.Slug,
			})
		}
	}

	outcome, err := s.SubmitQuiz(ctx, userID, course.ID, lesson.Slug, answers, lesson.AnswerKey, s.passingScore)
	if err != nil {
		return outcome, err
	}
	if !outcome.Passed {
		return outcome, nil
	}

	completion, err := s.CompleteLesson(ctx, userID, course.ID, lesson.Slug)
	if completion != nil {
		outcome.Completion = completion
		outcome.NewBadges = append(outcome.NewBadges, completion.NewBadges...)
	}
	return outcome, err
}

// ResetQuiz deletes the stored attempt so the quiz can be retaken from
// scratch. Completion and XP already earned are kept.
func (s *TrackerService) ResetQuiz(ctx context.Context, userID, moduleID, lessonSlug string) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	unlock, err := lockUser(ctx, s.locker, userID)
	if err != nil {
		return err
	}
	defer unlock()

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND lesson_slug = ? AND module_id = ?", userID, lessonSlug, moduleID).
		Delete(&models.QuizResult{})
	if res.Error != nil {
		return storeError("reset_quiz", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("No quiz attempt to reset")
	}
	return nil
}

// ModuleState derives the completed and unlocked flags of every lesson of a
// module from the completion records.
func (s *TrackerService) ModuleState(ctx context.Context, userID, moduleID string) (*ModuleState, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	course, ok := catalog.FindCourse(moduleID)
	if !ok {
		return nil, apperr.NotFound("Module not found")
	}
	db := s.db.WithContext(ctx)

	var completed []string
	if err := db.Model(&models.LessonCompletion{}).
		Where("user_id = ? AND module_id = ?", userID, course.ID).
		Pluck("lesson_slug", &completed).Error; err != nil {
		return nil, storeError("module_state", userID, err)
	}
	done := make(map[string]bool, len(completed))
	for _, slug := range completed {
		done[slug] = true
	}

	var quizzes []models.QuizResult
	if err := db.Where("user_id = ? AND module_id = ?", userID, course.ID).Find(&quizzes).Error; err != nil {
		return nil, storeError("module_state", userID, err)
	}
	bySlug := make(map[string]*models.QuizResult, len(quizzes))
	for i := range quizzes {
		bySlug[quizzes[i].LessonSlug] = &quizzes[i]
	}

	var progress []int
	if err := db.Model(&models.CourseProgress{}).
		Where("user_id = ? AND course_id = ?", userID, course.ID).
		Pluck("progress", &progress).Error; err != nil {
		return nil, storeError("module_state", userID, err)
	}

	state := &ModuleState{ModuleID: course.ID, Title: course.Title, Lessons: make([]LessonState, 0, len(course.Lessons))}
	if len(progress) == 1 {
		state.Progress = progress[0]
	}
	for _, l := range course.Lessons {
		state.Lessons = append(state.Lessons, LessonState{
			Slug:      l.Slug,
			Title:     l.Title,
			Order:     l.Order,
			Kind:      l.Kind,
			Completed: done[l.Slug],
			Unlocked:  gamification.IsLessonUnlocked(l.Order, course.Lessons, done),
			Quiz:      bySlug[l.Slug],
		})
	}
	return state, nil
}
