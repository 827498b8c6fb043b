package adminRoutes

import (
	learningController "finquest/controllers/learning"
	walletController "finquest/controllers/wallet"
	"finquest/middleware"
	"finquest/services"
	learningValidator "finquest/validators/learning"
	walletValidator "finquest/validators/wallet"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes mounts the service-role endpoints. They must be registered
// before any catch-all user middleware so admins are not provisioned as users.
func SetupAdminRoutes(router fiber.Router, wallet *services.WalletService, profiles *services.ProfileService, h *learningController.Handlers) {
	adminGroup := router.Group("/admin", middleware.JWTMiddleware, middleware.RequireRole(middleware.ServiceRole))

	adminGroup.Post("/wallet/transactions", walletValidator.AdminTransaction(), walletController.AdminTransaction(wallet, profiles))
	adminGroup.Post("/wallet/reconcile", walletController.Reconcile(wallet))
	adminGroup.Post("/users/:userId/modules/:moduleId/lessons/:lessonSlug/complete", learningValidator.LessonParams(), h.ForceComplete)
}
