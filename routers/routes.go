package routers

import (
	"context"

	learningController "finquest/controllers/learning"
	"finquest/middleware"
	"finquest/routers/adminRoutes"
	"finquest/routers/interviewRoutes"
	"finquest/routers/learningRoutes"
	"finquest/routers/walletRoutes"
	"finquest/services"
	"finquest/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const bodyLimit = 8 << 20

// Deps is everything the HTTP layer needs.
type Deps struct {
	Profiles   *services.ProfileService
	Progress   *services.ProgressService
	Tracker    *services.TrackerService
	Badges     *services.BadgeService
	Wallet     *services.WalletService
	Interviews *services.InterviewService

	AccessLog          bool
	ProvisionCacheSize int // 0 selects the middleware default
}

// NewApp builds the fiber app with every route mounted.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return middleware.ErrorResponse(c, err)
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if d.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}

	Setup(app, d)
	return app
}

// Setup registers the public, admin and user routes in that order.
func Setup(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", nil)
	})
	app.Get("/metrics", utils.MetricsHandler())

	learning := &learningController.Handlers{
		Profiles: d.Profiles,
		Progress: d.Progress,
		Tracker:  d.Tracker,
		Badges:   d.Badges,
	}

	adminRoutes.SetupAdminRoutes(app, d.Wallet, d.Profiles, learning)

	ensure := func(ctx context.Context, userID, email string) error {
		_, err := d.Profiles.EnsureProfile(ctx, userID, email)
		return err
	}
	api := app.Group("", middleware.JWTMiddleware, middleware.ProvisionUser(ensure, d.ProvisionCacheSize))

	learningRoutes.SetupLearningRoutes(api, learning)
	walletRoutes.SetupWalletRoutes(api, d.Wallet)
	interviewRoutes.SetupInterviewRoutes(api, d.Interviews)
}
