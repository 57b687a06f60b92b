package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr          string
	LogLevel          string
	RequestTimeout    time.Duration
	CompletionTimeout time.Duration
	MaxHistory        int
	ChunkDelay        time.Duration
	OpenRouter        OpenRouterConfig
	Telegram          TelegramConfig
}

type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type TelegramConfig struct {
	BotToken   string
	APIBaseURL string
}

// Load читает конфигурацию из окружения.
// Файл .env подхватывается, если есть; его отсутствие не ошибка.
// Токен бота и ключ API обязательны: без них процесс не стартует.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config

	cfg.HTTPAddr = getEnv("HTTP_ADDR", "")
	if cfg.HTTPAddr == "" {
		// Дашборд исторически слушает порт из PORT (по умолчанию 5000).
		cfg.HTTPAddr = ":" + getEnv("PORT", "5000")
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	reqTimeout, err := parseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_CLIENT_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = reqTimeout

	complTimeout, err := parseDuration(getEnv("COMPLETION_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse COMPLETION_TIMEOUT: %w", err)
	}
	cfg.CompletionTimeout = complTimeout

	maxHistory, err := parseIntDefault(getEnv("MAX_HISTORY", ""), 20)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_HISTORY: %w", err)
	}
	if maxHistory <= 0 {
		return Config{}, fmt.Errorf("MAX_HISTORY must be positive, got %d", maxHistory)
	}
	cfg.MaxHistory = maxHistory

	chunkDelay, err := parseDuration(getEnv("CHUNK_DELAY", "100ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CHUNK_DELAY: %w", err)
	}
	cfg.ChunkDelay = chunkDelay

	cfg.OpenRouter = OpenRouterConfig{
		APIKey:  getEnv("OPENROUTER_API_KEY", ""),
		BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		Model:   getEnv("OPENROUTER_MODEL", "openai/gpt-4o"),
	}
	if cfg.OpenRouter.APIKey == "" {
		return Config{}, fmt.Errorf("OPENROUTER_API_KEY environment variable is required")
	}

	cfg.Telegram = TelegramConfig{
		BotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		APIBaseURL: getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
	}
	if cfg.Telegram.BotToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is required")
	}

	return cfg, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	return time.ParseDuration(value)
}

// parseIntDefault разбирает необязательное целое со значением по умолчанию.
func parseIntDefault(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	return strconv.Atoi(value)
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}
