package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting of the bot process.
type Config struct {
	Server ServerConfig
	Bot    BotConfig
	OCR    OCRConfig
	AI     AIConfig
}

// Load reads configuration from environment variables and validates the
// pieces that must be present at startup.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	bot, err := loadBotConfig()
	if err != nil {
		return nil, err
	}

	ocr, err := loadOCRConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Bot: bot, OCR: ocr, AI: ai}, nil
}

// ServerConfig describes the ops HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// BotConfig describes the Telegram side of the bot.
type BotConfig struct {
	Token          string
	RestartCommand string
	PriceUSD       int
}

func loadBotConfig() (BotConfig, error) {
	token := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if token == "" {
		return BotConfig{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	price := 100
	if override, err := parseOptionalIntEnv("PRICE_USD"); err != nil {
		return BotConfig{}, err
	} else if override != nil {
		if *override <= 0 {
			return BotConfig{}, fmt.Errorf("PRICE_USD must be positive, got %d", *override)
		}
		price = *override
	}

	return BotConfig{
		Token:          token,
		RestartCommand: getEnvOrDefault("RESTART_COMMAND", "/restart"),
		PriceUSD:       price,
	}, nil
}

// OCRConfig describes the document extraction backend. Both document models
// share credentials and polling schedule; only the model ids differ.
type OCRConfig struct {
	APIKey          string
	PassportModelID string
	VehicleModelID  string
	BaseURL         string
	InitialDelay    time.Duration
	PollInterval    time.Duration
	MaxAttempts     int
}

func loadOCRConfig() (OCRConfig, error) {
	apiKey := strings.TrimSpace(os.Getenv("MINDEE_API_KEY"))
	if apiKey == "" {
		return OCRConfig{}, fmt.Errorf("MINDEE_API_KEY is required")
	}

	passportModel := strings.TrimSpace(os.Getenv("MINDEE_PASSPORT_MODEL_ID"))
	if passportModel == "" {
		return OCRConfig{}, fmt.Errorf("MINDEE_PASSPORT_MODEL_ID is required")
	}

	vehicleModel := strings.TrimSpace(os.Getenv("MINDEE_VEHICLE_MODEL_ID"))
	if vehicleModel == "" {
		return OCRConfig{}, fmt.Errorf("MINDEE_VEHICLE_MODEL_ID is required")
	}

	initialDelay, err := parseSecondsEnv("OCR_INITIAL_DELAY_SECONDS", 3*time.Second)
	if err != nil {
		return OCRConfig{}, err
	}

	pollInterval, err := parseSecondsEnv("OCR_POLL_INTERVAL_SECONDS", 2*time.Second)
	if err != nil {
		return OCRConfig{}, err
	}

	maxAttempts := 30
	if override, err := parseOptionalIntEnv("OCR_MAX_ATTEMPTS"); err != nil {
		return OCRConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return OCRConfig{}, fmt.Errorf("OCR_MAX_ATTEMPTS must be at least 1, got %d", *override)
		}
		maxAttempts = *override
	}

	return OCRConfig{
		APIKey:          apiKey,
		PassportModelID: passportModel,
		VehicleModelID:  vehicleModel,
		BaseURL:         getEnvOrDefault("OCR_BASE_URL", ""),
		InitialDelay:    initialDelay,
		PollInterval:    pollInterval,
		MaxAttempts:     maxAttempts,
	}, nil
}

// AIConfig describes the chat model used for answers and policy rendering.
type AIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Region  string
}

func loadAIConfig() (AIConfig, error) {
	return AIConfig{
		APIKey:  strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		Model:   strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL: getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:  getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}, nil
}

// Enabled reports whether the required model credentials were provided.
func (c AIConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// NewChatModel creates a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ARK_API_KEY and ARK_MODEL are required for the AI capability")
	}

	cfg := &ark.ChatModelConfig{
		BaseURL: c.BaseURL,
		Region:  c.Region,
		APIKey:  c.APIKey,
		Model:   c.Model,
	}

	return ark.NewChatModel(ctx, cfg)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseSecondsEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	override, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if override == nil {
		return defaultValue, nil
	}
	if *override < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", key, *override)
	}
	return time.Duration(*override) * time.Second, nil
}
