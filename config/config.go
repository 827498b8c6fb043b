package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port string

	DBDriver   string // postgres, sqlite, mysql
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTKey string // Supabase project JWT secret

	XPLesson         int
	XPQuiz           int
	XPPerfectBonus   int
	QuizPassingScore int

	WalletRecentLimit int
	ReconcileCron     string

	OpenAIKey             string
	OpenAIBaseURL         string
	OpenAIModel           string
	OpenAIVisionModel     string
	OpenAITranscribeModel string
	OpenAITimeoutSeconds  int
	OpenAIMaxRetries      int

	RedisURL string

	ProvisionCacheSize int

	SendgridAPIKey string
	EmailSender    string

	LogLevel string
	LogDev   bool
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port: getEnv("PORT", "3000"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "finquest"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTKey: getEnv("SUPABASE_JWT_SECRET", "defaultSecret"),

		XPLesson:         getEnvInt("XP_LESSON", 10),
		XPQuiz:           getEnvInt("XP_QUIZ", 20),
		XPPerfectBonus:   getEnvInt("XP_PERFECT_BONUS", 10),
		QuizPassingScore: getEnvInt("QUIZ_PASSING_SCORE", 70),

		WalletRecentLimit: getEnvInt("WALLET_RECENT_LIMIT", 10),
		ReconcileCron:     getEnv("RECONCILE_CRON", "0 3 * * *"),

		OpenAIKey:             getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIVisionModel:     getEnv("OPENAI_VISION_MODEL", "gpt-4o-mini"),
		OpenAITranscribeModel: getEnv("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
		OpenAITimeoutSeconds:  getEnvInt("OPENAI_TIMEOUT_SECONDS", 60),
		OpenAIMaxRetries:      getEnvInt("OPENAI_MAX_RETRIES", 2),

		RedisURL: getEnv("REDIS_URL", ""),

		ProvisionCacheSize: getEnvInt("PROVISION_CACHE_SIZE", 10000),

		SendgridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@finquest.app"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogDev:   getEnv("LOG_DEV", "") == "1",
	}

	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default SUPABASE_JWT_SECRET. Update it in your environment.")
	}
	if AppConfig.OpenAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY is empty. AI feedback endpoints will report unavailable.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
