package services

import (
	"context"

	"finquest/apperr"
	"finquest/catalog"
	"finquest/gamification"
	"finquest/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressService struct {
	db     *gorm.DB
	locker UserLocker
	now    clock
}

func NewProgressService(db *gorm.DB, locker UserLocker) *ProgressService {
	return &ProgressService{db: db, locker: locker, now: utcNow}
}

// CourseProgressView is the progress of one catalog course, 0 when untouched.
type CourseProgressView struct {
	CourseID     string `json:"courseId"`
	Title        string `json:"title"`
	Progress     int    `json:"progress"`
	TotalLessons int    `json:"totalLessons"`
	Completed    bool   `json:"completed"`
}

// UpdateCourseProgress records that the lesson at 1-based lessonIndex was
// completed and returns the stored percentage, which never decreases.
func (s *ProgressService) UpdateCourseProgress(ctx context.Context, userID, courseID string, lessonIndex, totalLessons int) (int, error) {
	if err := requireUserID(userID); err != nil {
		return 0, err
	}
	if courseID == "" || totalLessons <= 0 {
		return 0, apperr.Validation("courseId and a positive lesson count are required", map[string]interface{}{
			"courseId":     courseID,
			"totalLessons": totalLessons,
		})
	}
	unlock, err := lockUser(ctx, s.locker, userID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	var stored int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := raiseProgress(tx, userID, courseID, gamification.CandidateProgress(lessonIndex, totalLessons), s.now)
		stored = p
		return err
	})
	if err != nil {
		return 0, storeError("update_course_progress", userID, err)
	}
	return stored, nil
}

// GetCourseProgress lists every catalog course with the user's progress.
func (s *ProgressService) GetCourseProgress(ctx context.Context, userID string) ([]CourseProgressView, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	var rows []models.CourseProgress
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, storeError("get_course_progress", userID, err)
	}
	byCourse := make(map[string]int, len(rows))
	for _, r := range rows {
		byCourse[r.CourseID] = r.Progress
	}

	courses := catalog.Courses()
	out := make([]CourseProgressView, 0, len(courses))
	for _, c := range courses {
		p := byCourse[c.ID]
		out = append(out, CourseProgressView{
			CourseID:     c.ID,
			Title:        c.Title,
			Progress:     p,
			TotalLessons: c.TotalLessons(),
			Completed:    p == 100,
		})
	}
	return out, nil
}

// raiseProgress inserts the row if absent, otherwise applies candidate only
// when it exceeds the stored value. Returns the stored value.
func raiseProgress(tx *gorm.DB, userID, courseID string, candidate int, now clock) (int, error) {
	ts := now()
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&models.CourseProgress{UserID: userID, CourseID: courseID, Progress: candidate, UpdatedAt: ts})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		if err := tx.Model(&models.CourseProgress{}).
			Where("user_id = ? AND course_id = ? AND progress < ?", userID, courseID, candidate).
			Updates(map[string]interface{}{"progress": candidate, "updated_at": ts}).Error; err != nil {
			return 0, err
		}
	}

	var row models.CourseProgress
	if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&row).Error; err != nil {
		return 0, err
	}
	return row.Progress, nil
}
