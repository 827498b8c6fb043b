package services

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"finquest/config"
	"finquest/database"
	"finquest/gamification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentBadge struct {
	email string
	name  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentBadge
}

func (f *fakeNotifier) NotifyBadgeUnlocked(email, badgeName, badgeDescription string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentBadge{email: email, name: badgeName})
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fixture struct {
	db       *gorm.DB
	locker   *MemoryLocker
	notifier *fakeNotifier
	profiles *ProfileService
	progress *ProgressService
	badges   *BadgeService
	tracker  *TrackerService
	wallet   *WalletService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectDb(&config.Config{
		DBDriver: "sqlite",
		DBName:   filepath.Join(t.TempDir(), "finquest_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	locker := NewMemoryLocker()
	notifier := &fakeNotifier{}
	badges := NewBadgeService(db, locker, notifier)
	return &fixture{
		db:       db,
		locker:   locker,
		notifier: notifier,
		profiles: NewProfileService(db, locker),
		progress: NewProgressService(db, locker),
		badges:   badges,
		tracker:  NewTrackerService(db, locker, gamification.DefaultXPRewards(), 70, badges),
		wallet:   NewWalletService(db, locker, 5),
	}
}

// setClock pins the time seen by every service of the fixture.
func (f *fixture) setClock(at time.Time) {
	now := func() time.Time { return at }
	f.profiles.now = now
	f.progress.now = now
	f.badges.now = now
	f.tracker.now = now
	f.wallet.now = now
}

func newUserID() string {
	return uuid.NewString()
}
