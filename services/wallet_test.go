package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"finquest/apperr"
	"finquest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func credit(amount int64, category string) TransactionInput {
	return TransactionInput{Type: models.TransactionTypeCredit, Category: category, Amount: amount, Label: "credit " + category}
}

func debit(amount int64, category string) TransactionInput {
	return TransactionInput{Type: models.TransactionTypeDebit, Category: category, Amount: amount, Label: "debit " + category}
}

func TestWalletScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := newUserID()

	tx, err := f.wallet.ApplyTransaction(ctx, user, credit(100, "bonus"))
	require.NoError(t, err)
	assert.Equal(t, int64(100), tx.BalanceAfter)

	tx, err = f.wallet.ApplyTransaction(ctx, user, debit(30, "simulation"))
	require.NoError(t, err)
	assert.Equal(t, int64(70), tx.BalanceAfter)

	_, err = f.wallet.ApplyTransaction(ctx, user, debit(100, "simulation"))
	require.Error(t, err)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, apperr.KindInsufficientBalance, ae.Kind)
	assert.Equal(t, int64(100), ae.Details["attempted"])
	assert.Equal(t, int64(70), ae.Details["balance"])
	assert.Contains(t, ae.Message, "short by 30")

	summary, err := f.wallet.GetSummary(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(70), summary.TotalCredits)
	assert.Equal(t, int64(100), summary.LifetimeCredits)
	assert.Equal(t, int64(70), summary.BonusCredits)
	assert.NotNil(t, summary.LastTransactionAt)
	assert.Len(t, summary.RecentTransactions, 2)
	assert.Equal(t, map[string]int64{"bonus": 100, "simulation": -30}, summary.CategoryBreakdown)
}

func TestWalletBalanceMatchesLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := newUserID()

	ops := []TransactionInput{
		credit(50, "quiz"), debit(20, "simulation"), credit(5, ""), debit(35, "coaching"),
		credit(120, "achat"), debit(1, "simulation"), debit(500, "simulation"), credit(3, "bonus"),
	}
	for _, op := range ops {
		_, err := f.wallet.ApplyTransaction(ctx, user, op)
		if err != nil {
			require.True(t, apperr.Is(err, apperr.KindInsufficientBalance))
		}
	}

	page, err := f.wallet.ListTransactions(ctx, user, TransactionFilter{Limit: 100})
	require.NoError(t, err)
	require.Equal(t, int64(7), page.Total)

	var running, lifetime int64
	for i := len(page.Items) - 1; i >= 0; i-- {
		item := page.Items[i]
		running += item.SignedAmount()
		if item.Type == models.TransactionTypeCredit {
			lifetime += item.Amount
		}
		assert.Equal(t, running, item.BalanceAfter, "seq %d", item.Seq)
		assert.GreaterOrEqual(t, item.BalanceAfter, int64(0))
	}

	summary, err := f.wallet.GetSummary(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, running, summary.TotalCredits)
	assert.Equal(t, lifetime, summary.LifetimeCredits)
	assert.Equal(t, int64(122), summary.TotalCredits)
	assert.LessOrEqual(t, summary.BonusCredits, summary.TotalCredits)

	mismatches, err := f.wallet.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestRejectedDebitLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := newUserID()

	_, err := f.wallet.ApplyTransaction(ctx, user, credit(10, "quiz"))
	require.NoError(t, err)
	before, err := f.wallet.GetSummary(ctx, user)
	require.NoError(t, err)

	_, err = f.wallet.ApplyTransaction(ctx, user, debit(11, "simulation"))
	require.True(t, apperr.Is(err, apperr.KindInsufficientBalance))

	after, err := f.wallet.GetSummary(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, before.TotalCredits, after.TotalCredits)
	assert.Equal(t, before.LifetimeCredits, after.LifetimeCredits)
	assert.Equal(t, before.LastTransactionAt.Unix(), after.LastTransactionAt.Unix())
	assert.Len(t, after.RecentTransactions, 1)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := newUserID()

	_, err := f.wallet.ApplyTransaction(ctx, user, credit(100, "achat"))
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.wallet.ApplyTransaction(ctx, user, debit(10, "simulation"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperr.Is(err, apperr.KindInsufficientBalance):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, rejected)

	summary, err := f.wallet.GetSummary(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalCredits)
}

func TestApplyTransactionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := newUserID()

	cases := []TransactionInput{
		{Type: "refund", Amount: 10, Label: "x"},
		{Type: models.TransactionTypeCredit, Amount: 0, Label: "x"},
		{Type: models.TransactionTypeCredit, Amount: -5, Label: "x"},
		{Type: models.TransactionTypeCredit, Amount: 5, Label: "  "},
	}
	for _, in := range cases {
		_, err := f.wallet.ApplyTransaction(ctx, user, in)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%+v", in)
	}

	tx, err := f.wallet.ApplyTransaction(ctx, user, TransactionInput{
		Type: "CREDIT", Amount: 5, Label: "gift", Metadata: map[string]interface{}{"source": "test"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCategory, tx.Category)
	assert.Equal(t, "test", tx.Metadata["source"])
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
}

func TestListTransactionsPagingAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := newUserID()

	for i := 0; i < 12; i++ {
		_, err := f.wallet.ApplyTransaction(ctx, user, credit(int64(i+1), "quiz"))
		require.NoError(t, err)
	}
	_, err := f.wallet.ApplyTransaction(ctx, user, debit(3, "simulation"))
	require.NoError(t, err)

	page, err := f.wallet.ListTransactions(ctx, user, TransactionFilter{Page: 0, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, int64(13), page.Total)
	require.Len(t, page.Items, 10)
	assert.Equal(t, int64(13), page.Items[0].Seq)
	assert.Equal(t, models.TransactionTypeDebit, page.Items[0].Type)

	page, err = f.wallet.ListTransactions(ctx, user, TransactionFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)

	page, err = f.wallet.ListTransactions(ctx, user, TransactionFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)

	page, err = f.wallet.ListTransactions(ctx, user, TransactionFilter{Category: "simulation"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = f.wallet.ListTransactions(ctx, user, TransactionFilter{Type: models.TransactionTypeCredit})
	require.NoError(t, err)
	assert.Equal(t, int64(12), page.Total)

	_, err = f.wallet.ListTransactions(ctx, user, TransactionFilter{Type: "refund"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestGetSummaryWithoutAccount(t *testing.T) {
	f := newFixture(t)
	summary, err := f.wallet.GetSummary(context.Background(), newUserID())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalCredits)
	assert.Empty(t, summary.RecentTransactions)
	assert.Empty(t, summary.CategoryBreakdown)
}

func TestReconcileDetectsTampering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := newUserID()

	_, err := f.wallet.ApplyTransaction(ctx, user, credit(40, "quiz"))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.WalletAccount{}).Where("user_id = ?", user).
		Update("total_credits", 400).Error)

	mismatches, err := f.wallet.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, user, mismatches[0].UserID)
	assert.Equal(t, int64(400), mismatches[0].StoredTotal)
	assert.Equal(t, int64(40), mismatches[0].LedgerTotal)

	n, err := f.wallet.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReconcileDetectsBrokenBalanceAfter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := newUserID()
	clean := newUserID()

	_, err := f.wallet.ApplyTransaction(ctx, user, credit(40, "quiz"))
	require.NoError(t, err)
	_, err = f.wallet.ApplyTransaction(ctx, user, debit(10, "courses"))
	require.NoError(t, err)
	_, err = f.wallet.ApplyTransaction(ctx, clean, credit(5, "quiz"))
	require.NoError(t, err)

	mismatches, err := f.wallet.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	require.NoError(t, f.db.Model(&models.WalletTransaction{}).
		Where("user_id = ? AND seq = ?", user, 2).
		Update("balance_after", 999).Error)

	mismatches, err = f.wallet.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	m := mismatches[0]
	assert.Equal(t, user, m.UserID)
	assert.Equal(t, int64(30), m.StoredTotal)
	assert.Equal(t, int64(30), m.LedgerTotal)
	assert.Equal(t, int64(999), m.LastBalanceAfter)
	require.NotNil(t, m.BrokenSeq)
	assert.Equal(t, int64(2), *m.BrokenSeq)
}

func TestReconcileDetectsBrokenMiddleSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := newUserID()

	for _, in := range []TransactionInput{credit(40, "quiz"), debit(10, "courses"), credit(5, "bonus")} {
		_, err := f.wallet.ApplyTransaction(ctx, user, in)
		require.NoError(t, err)
	}
	require.NoError(t, f.db.Model(&models.WalletTransaction{}).
		Where("user_id = ? AND seq = ?", user, 2).
		Update("balance_after", 31).Error)

	mismatches, err := f.wallet.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, int64(35), mismatches[0].LastBalanceAfter)
	require.NotNil(t, mismatches[0].BrokenSeq)
	assert.Equal(t, int64(2), *mismatches[0].BrokenSeq)
}
