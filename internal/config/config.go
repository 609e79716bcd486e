package config

import (
	"fmt"
	"log"
	"time"

	"mimic-server/internal/utils"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию игрового сервера.
type Config struct {
	// Настройки сервера
	Port               string   `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel           string   `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding        string   `envconfig:"LOG_ENCODING" default:"json"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Настройки игры.
	// MaxPathLength читается один раз при старте процесса; движок и клиент
	// должны использовать одно и то же значение.
	MaxPathLength        int           `envconfig:"MAX_PATH_LENGTH" default:"12"`
	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`

	// Настройки AI
	AIProvider        string        `envconfig:"AI_PROVIDER" default:"openai"`
	AIBaseURL         string        `envconfig:"AI_BASE_URL" default:"https://api.groq.com/openai/v1"`
	AIModel           string        `envconfig:"AI_MODEL" default:"llama-3.1-8b-instant"`
	AIScoringModel    string        `envconfig:"AI_SCORING_MODEL" default:"llama-3.3-70b-versatile"`
	AICompletionModel string        `envconfig:"AI_COMPLETION_MODEL" default:"llama-3.1-8b-instant"`
	AITimeout         time.Duration `envconfig:"AI_TIMEOUT" default:"30s"`
	// Секретное поле БЕЗ envconfig тега
	AIAPIKey string
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов.
func LoadConfig() (*Config, error) {
	var cfg Config
	// Загружаем НЕсекретные переменные
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Ключ AI API обязателен только для openai-совместимых провайдеров;
	// локальная Ollama работает без него.
	if cfg.AIProvider != "ollama" {
		var loadErr error
		cfg.AIAPIKey, loadErr = utils.ReadSecret("ai_api_key")
		if loadErr != nil {
			return nil, loadErr
		}
	}

	if cfg.MaxPathLength <= 0 {
		return nil, fmt.Errorf("MAX_PATH_LENGTH должен быть положительным, получено %d", cfg.MaxPathLength)
	}

	// Логируем загруженную конфигурацию (кроме ключей)
	log.Printf("Конфигурация загружена (секреты из файлов):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  Max Path Length: %d", cfg.MaxPathLength)
	log.Printf("  Session TTL: %v", cfg.SessionTTL)
	log.Printf("  Session Sweep Interval: %v", cfg.SessionSweepInterval)
	log.Printf("  AI Provider: %s", cfg.AIProvider)
	log.Printf("  AI Base URL: %s", cfg.AIBaseURL)
	log.Printf("  AI Model: %s", cfg.AIModel)
	log.Printf("  AI Scoring Model: %s", cfg.AIScoringModel)
	log.Printf("  AI Completion Model: %s", cfg.AICompletionModel)
	log.Printf("  AI Timeout: %v", cfg.AITimeout)
	if cfg.AIAPIKey != "" {
		log.Println("  AI API Key: [ЗАГРУЖЕН]")
	}

	return &cfg, nil
}
