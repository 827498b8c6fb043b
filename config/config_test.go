package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("XP_QUIZ", "")
	t.Setenv("DB_DRIVER", "")
	LoadConfig()

	assert.Equal(t, "3000", AppConfig.Port)
	assert.Equal(t, "postgres", AppConfig.DBDriver)
	assert.Equal(t, 10, AppConfig.XPLesson)
	assert.Equal(t, 20, AppConfig.XPQuiz)
	assert.Equal(t, 10, AppConfig.XPPerfectBonus)
	assert.Equal(t, 70, AppConfig.QuizPassingScore)
	assert.Equal(t, "0 3 * * *", AppConfig.ReconcileCron)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("XP_QUIZ", "35")
	t.Setenv("LOG_DEV", "1")
	LoadConfig()

	assert.Equal(t, "8080", AppConfig.Port)
	assert.Equal(t, "sqlite", AppConfig.DBDriver)
	assert.Equal(t, 35, AppConfig.XPQuiz)
	assert.True(t, AppConfig.LogDev)
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("FINQUEST_TEST_INT", "abc")
	assert.Equal(t, 7, getEnvInt("FINQUEST_TEST_INT", 7))
}
