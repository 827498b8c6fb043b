package walletRoutes

import (
	walletController "finquest/controllers/wallet"
	"finquest/services"
	walletValidator "finquest/validators/wallet"

	"github.com/gofiber/fiber/v2"
)

// SetupWalletRoutes mounts the wallet endpoints on an authenticated router.
func SetupWalletRoutes(router fiber.Router, wallet *services.WalletService) {
	walletGroup := router.Group("/wallet")

	walletGroup.Get("/summary", walletController.GetSummary(wallet))
	walletGroup.Get("/transactions", walletValidator.ListTransactions(), walletController.ListTransactions(wallet))
	walletGroup.Post("/transactions", walletValidator.CreateTransaction(), walletController.CreateTransaction(wallet))
}
