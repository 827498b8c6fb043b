// Package services implements the gamification, wallet and AI feedback
// operations. Every operation takes the user id explicitly.
package services

import (
	"context"
	"errors"
	"time"

	"finquest/apperr"
	"finquest/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

func requireUserID(userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return apperr.Validation("Invalid user id", map[string]interface{}{"userId": userID})
	}
	return nil
}

// storeError logs a persistence failure and turns it into an upstream error.
// Errors that already carry a kind pass through untouched.
func storeError(op, userID string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Record not found")
	}
	utils.Log.Errorw("store operation failed", "op", op, "userId", userID, "error", err)
	return apperr.Upstream("Database unavailable, please retry", err)
}

func lockUser(ctx context.Context, locker UserLocker, userID string) (func(), error) {
	unlock, err := locker.Lock(ctx, userID)
	if err != nil {
		utils.Log.Warnw("user lock not acquired", "userId", userID, "error", err)
		return nil, apperr.Upstream("Service busy, please retry", err)
	}
	return unlock, nil
}
