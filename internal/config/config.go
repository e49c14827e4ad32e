package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vglazkov/euro-oracle/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string

	BotToken           string
	TelegramAPIBaseURL string
	TelegramPollTime   time.Duration

	DataAPIToken            string
	DataAPIBaseURL          string
	DataAuthURL             string
	DataAPITimeout          time.Duration
	DataCircuitFailureCount int
	DataCircuitOpenTimeout  time.Duration

	DBURL string

	SeasonID      int64
	SyncInterval  time.Duration
	DisplayTZ     string
	NotifyWorkers int
	StatusAddr    string
	StatusEnabled bool

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	botToken := strings.TrimSpace(getEnv("BOT_TOKEN", ""))
	if botToken == "" {
		return Config{}, fmt.Errorf("BOT_TOKEN is required")
	}

	pollTime, err := time.ParseDuration(getEnv("TELEGRAM_POLL_TIME", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TELEGRAM_POLL_TIME: %w", err)
	}
	if pollTime <= 0 {
		return Config{}, fmt.Errorf("TELEGRAM_POLL_TIME must be > 0")
	}

	dataAPIToken := strings.TrimSpace(getEnv("DATA_API_TOKEN", ""))
	if dataAPIToken == "" {
		return Config{}, fmt.Errorf("DATA_API_TOKEN is required")
	}

	dataAPITimeout, err := time.ParseDuration(getEnv("DATA_API_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DATA_API_TIMEOUT: %w", err)
	}
	if dataAPITimeout <= 0 {
		return Config{}, fmt.Errorf("DATA_API_TIMEOUT must be > 0")
	}

	dataCircuitFailureCount, err := getEnvAsInt("DATA_API_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse DATA_API_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if dataCircuitFailureCount <= 0 {
		return Config{}, fmt.Errorf("DATA_API_CIRCUIT_FAILURE_COUNT must be > 0")
	}
	dataCircuitOpenTimeout, err := time.ParseDuration(getEnv("DATA_API_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DATA_API_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if dataCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("DATA_API_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}

	dbURL := strings.TrimSpace(getEnv("DATABASE_URL", ""))
	if dbURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	seasonID, err := getEnvAsInt("SEASON_ID", 797)
	if err != nil {
		return Config{}, fmt.Errorf("parse SEASON_ID: %w", err)
	}
	if seasonID <= 0 {
		return Config{}, fmt.Errorf("SEASON_ID must be > 0")
	}

	syncInterval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_INTERVAL: %w", err)
	}
	if syncInterval <= 0 {
		return Config{}, fmt.Errorf("SYNC_INTERVAL must be > 0")
	}

	displayTZ := strings.TrimSpace(getEnv("DISPLAY_TIMEZONE", "Asia/Yekaterinburg"))
	if _, err := time.LoadLocation(displayTZ); err != nil {
		return Config{}, fmt.Errorf("parse DISPLAY_TIMEZONE: %w", err)
	}

	notifyWorkers, err := getEnvAsInt("NOTIFY_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_WORKERS: %w", err)
	}
	if notifyWorkers <= 0 {
		return Config{}, fmt.Errorf("NOTIFY_WORKERS must be > 0")
	}

	statusEnabled, err := strconv.ParseBool(getEnv("STATUS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATUS_ENABLED: %w", err)
	}
	statusAddr := strings.TrimSpace(getEnv("STATUS_ADDR", ":8080"))
	if statusEnabled && statusAddr == "" {
		return Config{}, fmt.Errorf("STATUS_ADDR is required when STATUS_ENABLED=true")
	}

	logLevel, err := logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	return Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("SERVICE_NAME", "euro-oracle"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),

		BotToken:           botToken,
		TelegramAPIBaseURL: strings.TrimSpace(getEnv("TELEGRAM_API_BASE_URL", "")),
		TelegramPollTime:   pollTime,

		DataAPIToken:            dataAPIToken,
		DataAPIBaseURL:          strings.TrimSpace(getEnv("DATA_API_BASE_URL", "")),
		DataAuthURL:             strings.TrimSpace(getEnv("DATA_AUTH_URL", "")),
		DataAPITimeout:          dataAPITimeout,
		DataCircuitFailureCount: dataCircuitFailureCount,
		DataCircuitOpenTimeout:  dataCircuitOpenTimeout,

		DBURL: dbURL,

		SeasonID:      int64(seasonID),
		SyncInterval:  syncInterval,
		DisplayTZ:     displayTZ,
		NotifyWorkers: notifyWorkers,
		StatusAddr:    statusAddr,
		StatusEnabled: statusEnabled,

		LogLevel: logLevel,
	}, nil
}

func parseAppEnv(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case EnvDev, EnvStage, EnvProd:
		return v, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}
