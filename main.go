package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finquest/clients/openai"
	"finquest/config"
	"finquest/database"
	"finquest/gamification"
	"finquest/routers"
	"finquest/services"
	"finquest/utils"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	if err := utils.InitLogger(cfg.LogLevel, cfg.LogDev); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer utils.SyncLogger()

	db, err := database.ConnectDb(cfg)
	if err != nil {
		utils.Log.Fatalw("database connection failed", "driver", cfg.DBDriver, "error", err)
	}
	utils.Log.Infow("database connected", "driver", cfg.DBDriver)

	var locker services.UserLocker = services.NewMemoryLocker()
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisLocker, err := services.NewRedisLockerFromURL(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			utils.Log.Fatalw("redis connection failed", "error", err)
		}
		defer redisLocker.Close()
		locker = redisLocker
		utils.Log.Infow("using redis user locks")
	}

	mailer := utils.NewMailer(cfg.SendgridAPIKey, cfg.EmailSender)
	if !mailer.Enabled() {
		utils.Log.Warnw("SENDGRID_API_KEY is empty, badge e-mails are disabled")
	}

	timeout := time.Duration(cfg.OpenAITimeoutSeconds) * time.Second
	ai := openai.New(openai.Config{
		APIKey:          cfg.OpenAIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		Model:           cfg.OpenAIModel,
		VisionModel:     cfg.OpenAIVisionModel,
		TranscribeModel: cfg.OpenAITranscribeModel,
		Timeout:         timeout,
		MaxRetries:      cfg.OpenAIMaxRetries,
	})

	rewards := gamification.XPRewards{
		Lesson:       cfg.XPLesson,
		Quiz:         cfg.XPQuiz,
		PerfectBonus: cfg.XPPerfectBonus,
	}
	badges := services.NewBadgeService(db, locker, mailer)
	wallet := services.NewWalletService(db, locker, cfg.WalletRecentLimit)

	app := routers.NewApp(routers.Deps{
		Profiles:           services.NewProfileService(db, locker),
		Progress:           services.NewProgressService(db, locker),
		Tracker:            services.NewTrackerService(db, locker, rewards, cfg.QuizPassingScore, badges),
		Badges:             badges,
		Wallet:             wallet,
		Interviews:         services.NewInterviewService(ai, timeout),
		AccessLog:          true,
		ProvisionCacheSize: cfg.ProvisionCacheSize,
	})

	scheduler, err := utils.InitializeLedgerScheduler(cfg.ReconcileCron, wallet)
	if err != nil {
		utils.Log.Fatalw("invalid RECONCILE_CRON", "schedule", cfg.ReconcileCron, "error", err)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		utils.Log.Infow("shutting down")
		<-scheduler.Stop().Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			utils.Log.Errorw("shutdown failed", "error", err)
		}
	}()

	utils.Log.Infow("server is running", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		utils.Log.Fatalw("server stopped", "error", err)
	}
}
