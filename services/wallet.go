package services

import (
	"context"
	"strings"
	"time"

	"finquest/apperr"
	"finquest/models"
	"finquest/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BonusCategory credits also count towards the bonus balance.
const BonusCategory = "bonus"

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// TransactionInput is one credit or debit to apply to a wallet.
type TransactionInput struct {
	Type        models.TransactionType
	Category    string
	Amount      int64
	Label       string
	Metadata    map[string]interface{}
	ReferenceID *string
}

type WalletSummary struct {
	TotalCredits       int64                      `json:"totalCredits"`
	BonusCredits       int64                      `json:"bonusCredits"`
	LifetimeCredits    int64                      `json:"lifetimeCredits"`
	LastTransactionAt  *time.Time                 `json:"lastTransactionAt"`
	RecentTransactions []models.WalletTransaction `json:"recentTransactions"`
	CategoryBreakdown  map[string]int64           `json:"categoryBreakdown"`
}

type TransactionFilter struct {
	Page     int
	Limit    int
	Category string
	Type     models.TransactionType
}

type TransactionPage struct {
	Page  int                        `json:"page"`
	Limit int                        `json:"limit"`
	Total int64                      `json:"total"`
	Items []models.WalletTransaction `json:"items"`
}

// BalanceMismatch is an account whose stored totals disagree with its ledger.
type BalanceMismatch struct {
	UserID           string `json:"userId"`
	StoredTotal      int64  `json:"storedTotal"`
	LedgerTotal      int64  `json:"ledgerTotal"`
	StoredLifetime   int64  `json:"storedLifetime"`
	LedgerLifetime   int64  `json:"ledgerLifetime"`
	LastBalanceAfter int64  `json:"lastBalanceAfter"`
	// first seq whose BalanceAfter does not match the running sum
	BrokenSeq *int64 `json:"brokenSeq,omitempty"`
}

type WalletService struct {
	db          *gorm.DB
	locker      UserLocker
	recentLimit int
	now         clock
}

func NewWalletService(db *gorm.DB, locker UserLocker, recentLimit int) *WalletService {
	if recentLimit <= 0 {
		recentLimit = defaultPageLimit
	}
	return &WalletService{db: db, locker: locker, recentLimit: recentLimit, now: utcNow}
}

func ensureWalletAccount(tx *gorm.DB, userID string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.WalletAccount{UserID: userID}).Error
}

func normalizeTransaction(in *TransactionInput) error {
	in.Type = models.TransactionType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Label = strings.TrimSpace(in.Label)
	if in.Category == "" {
		in.Category = models.DefaultCategory
	}

	errs := map[string]interface{}{}
	if !in.Type.Valid() {
		errs["type"] = "type must be credit or debit"
	}
	if in.Amount <= 0 {
		errs["amount"] = "amount must be greater than 0"
	}
	if in.Label == "" {
		errs["label"] = "label is required"
	}
	if len(errs) > 0 {
		return apperr.Validation("Invalid transaction", errs)
	}
	return nil
}

// ApplyTransaction appends one entry to the user's ledger and updates the
// materialized balance atomically. A debit larger than the balance is
// rejected with an insufficient balance error and nothing is written.
func (s *WalletService) ApplyTransaction(ctx context.Context, userID string, in TransactionInput) (*models.WalletTransaction, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	if err := normalizeTransaction(&in); err != nil {
		return nil, err
	}

	unlock, err := lockUser(ctx, s.locker, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var entry models.WalletTransaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureWalletAccount(tx, userID); err != nil {
			return err
		}
		var account models.WalletAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "user_id = ?", userID).Error; err != nil {
			return err
		}

		total := account.TotalCredits
		bonus := account.BonusCredits
		lifetime := account.LifetimeCredits
		switch in.Type {
		case models.TransactionTypeCredit:
			total += in.Amount
			lifetime += in.Amount
			if in.Category == BonusCategory {
				bonus += in.Amount
			}
		case models.TransactionTypeDebit:
			if in.Amount > total {
				return apperr.InsufficientBalance(in.Amount, total)
			}
			total -= in.Amount
			if bonus > total {
				bonus = total
			}
		}

		ts := s.now()
		entry = models.WalletTransaction{
			ID:           uuid.NewString(),
			UserID:       userID,
			Seq:          account.TransactionCount + 1,
			Type:         in.Type,
			Category:     in.Category,
			Amount:       in.Amount,
			BalanceAfter: total,
			Label:        in.Label,
			ReferenceID:  in.ReferenceID,
			Status:       models.TransactionStatusCompleted,
			OccurredAt:   ts,
		}
		if len(in.Metadata) > 0 {
			entry.Metadata = datatypes.JSONMap(in.Metadata)
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		return tx.Model(&models.WalletAccount{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"total_credits":       total,
				"bonus_credits":       bonus,
				"lifetime_credits":    lifetime,
				"transaction_count":   entry.Seq,
				"last_transaction_at": ts,
				"updated_at":          ts,
			}).Error
	})
	if err != nil {
		if apperr.Is(err, apperr.KindInsufficientBalance) {
			utils.WalletRejections.Inc()
			utils.Log.Infow("debit rejected", "userId", userID, "amount", in.Amount, "category", in.Category)
			return nil, err
		}
		return nil, storeError("apply_transaction", userID, err)
	}

	utils.WalletTransactions.WithLabelValues(string(in.Type), in.Category).Inc()
	utils.Log.Infow("wallet transaction applied", "userId", userID, "type", in.Type, "category", in.Category,
		"amount", in.Amount, "balanceAfter", entry.BalanceAfter)
	return &entry, nil
}

// GetSummary returns the balances, the most recent transactions and the net
// amount per category.
func (s *WalletService) GetSummary(ctx context.Context, userID string) (*WalletSummary, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	summary := &WalletSummary{
		RecentTransactions: []models.WalletTransaction{},
		CategoryBreakdown:  map[string]int64{},
	}

	var accounts []models.WalletAccount
	if err := db.Where("user_id = ?", userID).Limit(1).Find(&accounts).Error; err != nil {
		return nil, storeError("wallet_summary", userID, err)
	}
	if len(accounts) == 0 {
		return summary, nil
	}
	account := accounts[0]
	summary.TotalCredits = account.TotalCredits
	summary.BonusCredits = account.BonusCredits
	summary.LifetimeCredits = account.LifetimeCredits
	summary.LastTransactionAt = account.LastTransactionAt

	if err := db.Where("user_id = ?", userID).
		Order("seq DESC").
		Limit(s.recentLimit).
		Find(&summary.RecentTransactions).Error; err != nil {
		return nil, storeError("wallet_summary", userID, err)
	}

	var rows []struct {
		Category string
		Net      int64
	}
	if err := db.Model(&models.WalletTransaction{}).
		Select("category, SUM(CASE WHEN type = ? THEN amount ELSE -amount END) AS net", models.TransactionTypeCredit).
		Where("user_id = ?", userID).
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, storeError("wallet_summary", userID, err)
	}
	for _, r := range rows {
		summary.CategoryBreakdown[r.Category] = r.Net
	}
	return summary, nil
}

// ListTransactions returns one page of the ledger, most recent first.
func (s *WalletService) ListTransactions(ctx context.Context, userID string, f TransactionFilter) (*TransactionPage, error) {
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.Validation("type must be credit or debit", map[string]interface{}{"type": f.Type})
	}

	query := s.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("user_id = ?", userID)
	if c := strings.ToLower(strings.TrimSpace(f.Category)); c != "" {
		query = query.Where("category = ?", c)
	}
	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}

	page := &TransactionPage{Page: f.Page, Limit: f.Limit, Items: []models.WalletTransaction{}}
	if err := query.Count(&page.Total).Error; err != nil {
		return nil, storeError("list_transactions", userID, err)
	}
	if err := query.
		Order("seq DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&page.Items).Error; err != nil {
		return nil, storeError("list_transactions", userID, err)
	}
	return page, nil
}

// ledgerTally is one user's ledger replayed in seq order.
type ledgerTally struct {
	net       int64
	lifetime  int64
	last      int64
	brokenSeq *int64
}

// Reconcile replays every ledger in seq order and reports the accounts whose
// stored totals, or whose BalanceAfter snapshots, disagree with the replay.
// It never writes.
func (s *WalletService) Reconcile(ctx context.Context) ([]BalanceMismatch, error) {
	db := s.db.WithContext(ctx)

	// accounts first: the row cursor below holds the connection until it is closed
	var accounts []models.WalletAccount
	if err := db.Find(&accounts).Error; err != nil {
		return nil, storeError("reconcile", "", err)
	}

	rows, err := db.Model(&models.WalletTransaction{}).
		Select("user_id, seq, type, amount, balance_after").
		Order("user_id ASC, seq ASC").
		Rows()
	if err != nil {
		return nil, storeError("reconcile", "", err)
	}
	defer rows.Close()

	ledger := make(map[string]*ledgerTally)
	for rows.Next() {
		var t models.WalletTransaction
		if err := db.ScanRows(rows, &t); err != nil {
			return nil, storeError("reconcile", "", err)
		}
		tally, ok := ledger[t.UserID]
		if !ok {
			tally = &ledgerTally{}
			ledger[t.UserID] = tally
		}
		tally.net += t.SignedAmount()
		if t.Type == models.TransactionTypeCredit {
			tally.lifetime += t.Amount
		}
		if tally.brokenSeq == nil && t.BalanceAfter != tally.net {
			seq := t.Seq
			tally.brokenSeq = &seq
		}
		tally.last = t.BalanceAfter
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("reconcile", "", err)
	}

	mismatches := []BalanceMismatch{}
	for _, a := range accounts {
		l, ok := ledger[a.UserID]
		if !ok {
			l = &ledgerTally{}
		}
		if a.TotalCredits == l.net && a.LifetimeCredits == l.lifetime && l.last == a.TotalCredits && l.brokenSeq == nil {
			continue
		}
		mismatches = append(mismatches, BalanceMismatch{
			UserID:           a.UserID,
			StoredTotal:      a.TotalCredits,
			LedgerTotal:      l.net,
			StoredLifetime:   a.LifetimeCredits,
			LedgerLifetime:   l.lifetime,
			LastBalanceAfter: l.last,
			BrokenSeq:        l.brokenSeq,
		})
	}
	for _, m := range mismatches {
		utils.Log.Warnw("wallet balance mismatch", "userId", m.UserID, "stored", m.StoredTotal,
			"ledger", m.LedgerTotal, "lastBalanceAfter", m.LastBalanceAfter, "brokenSeq", m.BrokenSeq)
	}
	return mismatches, nil
}

// ReconcileAll runs Reconcile and returns the number of mismatching accounts.
func (s *WalletService) ReconcileAll(ctx context.Context) (int, error) {
	m, err := s.Reconcile(ctx)
	return len(m), err
}
