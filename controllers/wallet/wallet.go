package walletController

import (
	"finquest/middleware"
	"finquest/models"
	"finquest/services"
	walletValidator "finquest/validators/wallet"

	"github.com/gofiber/fiber/v2"
)

func toInput(r *walletValidator.TransactionRequest) services.TransactionInput {
	return services.TransactionInput{
		Type:        models.TransactionType(r.Type),
		Category:    r.Category,
		Amount:      r.Amount,
		Label:       r.Label,
		Metadata:    r.Metadata,
		ReferenceID: r.ReferenceID,
	}
}

// GetSummary returns balances, recent activity and the spending breakdown
func GetSummary(wallet *services.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summary, err := wallet.GetSummary(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Wallet summary fetched!", summary)
	}
}

// ListTransactions returns one page of the user's transaction history
func ListTransactions(wallet *services.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData, ok := c.Locals("validatedListQuery").(*walletValidator.ListQuery)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		page, err := wallet.ListTransactions(c.UserContext(), middleware.UserID(c), services.TransactionFilter{
			Page:     reqData.Page,
			Limit:    reqData.Limit,
			Category: reqData.Category,
			Type:     models.TransactionType(reqData.Type),
		})
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Transactions fetched!", page)
	}
}

// CreateTransaction applies a credit or debit to the caller's wallet
func CreateTransaction(wallet *services.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData, ok := c.Locals("validatedTransaction").(*walletValidator.TransactionRequest)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		txn, err := wallet.ApplyTransaction(c.UserContext(), middleware.UserID(c), toInput(reqData))
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}
		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Transaction recorded!", fiber.Map{
			"transaction": txn,
		})
	}
}

// AdminTransaction applies a credit or debit to another user's wallet
func AdminTransaction(wallet *services.WalletService, profiles *services.ProfileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData, ok := c.Locals("validatedAdminTransaction").(*walletValidator.AdminTransactionRequest)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		if _, err := profiles.EnsureProfile(c.UserContext(), reqData.UserID, ""); err != nil {
			return middleware.ErrorResponse(c, err)
		}
		txn, err := wallet.ApplyTransaction(c.UserContext(), reqData.UserID, toInput(&reqData.TransactionRequest))
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}
		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Transaction recorded!", fiber.Map{
			"transaction": txn,
		})
	}
}

// Reconcile compares every stored balance with its ledger
func Reconcile(wallet *services.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mismatches, err := wallet.Reconcile(c.UserContext())
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}
		if mismatches == nil {
			mismatches = []services.BalanceMismatch{}
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Reconciliation complete!", fiber.Map{
			"mismatches": mismatches,
		})
	}
}
