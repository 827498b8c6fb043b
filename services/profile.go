package services

import (
	"context"
	"strings"

	"finquest/gamification"
	"finquest/models"
	"finquest/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileView is a profile with its position inside the current level.
type ProfileView struct {
	models.Profile
	Progress gamification.LevelInfo `json:"levelProgress"`
}

type ProfileService struct {
	db     *gorm.DB
	locker UserLocker
	now    clock
}

func NewProfileService(db *gorm.DB, locker UserLocker) *ProfileService {
	return &ProfileService{db: db, locker: locker, now: utcNow}
}

// EnsureProfile creates the profile and wallet account of a user on first
// sight. Calling it again only refreshes the e-mail.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID, email string) (*models.Profile, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)

	var profile models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := ensureProfileRow(tx, userID, email)
		if err != nil {
			return err
		}
		if err := ensureWalletAccount(tx, userID); err != nil {
			return err
		}
		if err := tx.First(&profile, "id = ?", userID).Error; err != nil {
			return err
		}
		if !created && email != "" && profile.Email != email {
			profile.Email = email
			return tx.Model(&profile).Update("email", email).Error
		}
		return nil
	})
	if err != nil {
		return nil, storeError("ensure_profile", userID, err)
	}
	return &profile, nil
}

// GetProfile returns the profile, rewriting a level that no longer matches
// the stored XP.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*ProfileView, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		return nil, storeError("get_profile", userID, err)
	}

	if want := gamification.CalculateLevel(profile.XP); profile.Level != want {
		utils.Log.Warnw("stale level corrected", "userId", userID, "xp", profile.XP, "stored", profile.Level, "level", want)
		if err := s.db.WithContext(ctx).Model(&models.Profile{}).
			Where("id = ?", userID).
			Update("level", want).Error; err != nil {
			return nil, storeError("fix_level", userID, err)
		}
		profile.Level = want
	}

	return &ProfileView{Profile: profile, Progress: gamification.LevelProgress(profile.XP)}, nil
}

// ResetAccount wipes the learning history of a user: completions, quiz
// results, course progress and badges. XP goes back to 0. The wallet is kept.
func (s *ProfileService) ResetAccount(ctx context.Context, userID string) error {
	if err := requireUserID(userID); err != nil {
		return err
	}
	unlock, err := lockUser(ctx, s.locker, userID)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&models.LessonCompletion{},
			&models.QuizResult{},
			&models.CourseProgress{},
			&models.UserBadge{},
		} {
			if err := tx.Where("user_id = ?", userID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Profile{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{"xp": 0, "level": 1, "updated_at": s.now()}).Error
	})
	if err != nil {
		return storeError("reset_account", userID, err)
	}
	utils.Log.Infow("account reset", "userId", userID)
	return nil
}

func ensureProfileRow(tx *gorm.DB, userID, email string) (bool, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&models.Profile{ID: userID, Email: email, XP: 0, Level: 1})
	return res.RowsAffected == 1, res.Error
}

// addXP adds amount to the profile and stores the matching level. The caller
// must hold the user lock.
func addXP(tx *gorm.DB, userID string, amount int) (*models.Profile, error) {
	if _, err := ensureProfileRow(tx, userID, ""); err != nil {
		return nil, err
	}
	if amount > 0 {
		if err := tx.Model(&models.Profile{}).
			Where("id = ?", userID).
			Update("xp", gorm.Expr("xp + ?", amount)).Error; err != nil {
			return nil, err
		}
	}

	var profile models.Profile
	if err := tx.First(&profile, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	if profile.XP < 0 {
		profile.XP = 0
	}
	level := gamification.CalculateLevel(profile.XP)
	if level != profile.Level {
		if err := tx.Model(&models.Profile{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{"xp": profile.XP, "level": level}).Error; err != nil {
			return nil, err
		}
		profile.Level = level
	}
	return &profile, nil
}
