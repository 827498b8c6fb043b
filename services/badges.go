package services

import (
	"context"
	"time"

	"finquest/catalog"
	"finquest/gamification"
	"finquest/models"
	"finquest/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeEvent names the fact that triggered an evaluation.
type BadgeEvent string

const (
	EventLessonCompleted BadgeEvent = "lesson_completed"
	EventCourseProgress  BadgeEvent = "course_progress"
	EventQuizSubmitted   BadgeEvent = "quiz_submitted"
)

// BadgeNotifier is told about every newly granted badge.
type BadgeNotifier interface {
	NotifyBadgeUnlocked(email, badgeName, badgeDescription string)
}

// EarnedBadge is a grant joined with its static definition.
type EarnedBadge struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

type BadgeService struct {
	db       *gorm.DB
	locker   UserLocker
	notifier BadgeNotifier
	now      clock
}

func NewBadgeService(db *gorm.DB, locker UserLocker, notifier BadgeNotifier) *BadgeService {
	return &BadgeService{db: db, locker: locker, notifier: notifier, now: utcNow}
}

// EvaluateBadges checks every badge rule against the user's committed facts
// and grants the ones not yet held. It returns only the codes granted by this
// call; grants that lose a race to a concurrent call are not errors.
func (s *BadgeService) EvaluateBadges(ctx context.Context, userID string, event BadgeEvent) ([]string, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	unlock, err := lockUser(ctx, s.locker, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.evaluate(ctx, userID, event)
}

func (s *BadgeService) evaluate(ctx context.Context, userID string, event BadgeEvent) ([]string, error) {
	db := s.db.WithContext(ctx)

	facts, err := s.gatherFacts(db, userID)
	if err != nil {
		return nil, storeError("badge_facts", userID, err)
	}

	var held []string
	if err := db.Model(&models.UserBadge{}).Where("user_id = ?", userID).Pluck("badge_code", &held).Error; err != nil {
		return nil, storeError("badge_list", userID, err)
	}
	owned := make(map[string]bool, len(held))
	for _, code := range held {
		owned[code] = true
	}

	var granted []string
	for _, code := range gamification.EligibleBadges(facts) {
		if owned[code] {
			continue
		}
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_code"}},
			DoNothing: true,
		}).Create(&models.UserBadge{UserID: userID, BadgeCode: code, UnlockedAt: facts.At})
		if res.Error != nil {
			return granted, storeError("badge_grant", userID, res.Error)
		}
		if res.RowsAffected == 1 {
			granted = append(granted, code)
			utils.BadgesGranted.WithLabelValues(code).Inc()
		}
	}

	if len(granted) > 0 {
		utils.Log.Infow("badges granted", "userId", userID, "event", event, "codes", granted)
		s.notify(db, userID, granted)
	}
	return granted, nil
}

func (s *BadgeService) gatherFacts(db *gorm.DB, userID string) (gamification.Facts, error) {
	facts := gamification.Facts{At: s.now(), CourseProgress: map[string]int{}}

	var completions []models.LessonCompletion
	if err := db.Select("completed_at").Where("user_id = ?", userID).Find(&completions).Error; err != nil {
		return facts, err
	}
	facts.LessonsCompleted = len(completions)
	for _, c := range completions {
		facts.CompletionTimes = append(facts.CompletionTimes, c.CompletedAt)
	}

	var progress []models.CourseProgress
	if err := db.Where("user_id = ?", userID).Find(&progress).Error; err != nil {
		return facts, err
	}
	for _, p := range progress {
		facts.CourseProgress[p.CourseID] = p.Progress
	}

	var xp []int
	if err := db.Model(&models.Profile{}).Where("id = ?", userID).Pluck("xp", &xp).Error; err != nil {
		return facts, err
	}
	facts.Level = 1
	if len(xp) == 1 {
		facts.Level = gamification.CalculateLevel(xp[0])
	}

	var perfect int64
	if err := db.Model(&models.QuizResult{}).Where("user_id = ? AND score = ?", userID, 100).Count(&perfect).Error; err != nil {
		return facts, err
	}
	facts.PerfectQuizzes = int(perfect)

	return facts, nil
}

func (s *BadgeService) notify(db *gorm.DB, userID string, codes []string) {
	if s.notifier == nil {
		return
	}
	var emails []string
	if err := db.Model(&models.Profile{}).Where("id = ?", userID).Pluck("email", &emails).Error; err != nil || len(emails) == 0 || emails[0] == "" {
		return
	}
	for _, code := range codes {
		if b, ok := catalog.FindBadge(code); ok {
			s.notifier.NotifyBadgeUnlocked(emails[0], b.Name, b.Description)
		}
	}
}

// ListBadges returns the user's badges in unlock order.
func (s *BadgeService) ListBadges(ctx context.Context, userID string) ([]EarnedBadge, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	var rows []models.UserBadge
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, storeError("list_badges", userID, err)
	}

	out := make([]EarnedBadge, 0, len(rows))
	for _, r := range rows {
		b, ok := catalog.FindBadge(r.BadgeCode)
		if !ok {
			b = catalog.Badge{Code: r.BadgeCode, Name: r.BadgeCode}
		}
		out = append(out, EarnedBadge{Code: r.BadgeCode, Name: b.Name, Description: b.Description, UnlockedAt: r.UnlockedAt})
	}
	return out, nil
}
