package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Application identity reported by *IDN? and the HTTP status endpoint.
const (
	AppTitle   = "Table Control"
	AppVersion = "1.0.0"
)

// AppConfig holds the full application configuration.
type AppConfig struct {
	ServerPort string
	GinMode    string
	Controller ControllerConfig
	Legacy     RemoteServerConfig
	SCPI       RemoteServerConfig
	Kafka      KafkaConfig
	Database   DatabaseConfig
	Logging    LoggerConfig
}

// ControllerConfig tunes the table controller worker.
type ControllerConfig struct {
	QueueTimeout   time.Duration // idle wait on the command queue
	MotionTimeout  time.Duration // per motion step
	UpdateInterval time.Duration // auto-poll cadence
}

// RemoteServerConfig configures one of the line-oriented TCP servers.
type RemoteServerConfig struct {
	Enabled bool
	Host    string
	Port    int
}

// KafkaConfig configures the optional telemetry producer.
type KafkaConfig struct {
	Enabled bool
	Broker  string
	Topic   string
}

// DatabaseConfig configures the position bookmark store.
type DatabaseConfig struct {
	Path string
}

// LoggerConfig holds logger settings.
type LoggerConfig struct {
	Enable     bool
	LogsDir    string
	Level      string
	SavingDays int
}

// LoadConfiguration reads configuration from a .env file or the environment.
func LoadConfiguration() (*AppConfig, error) {
	_ = godotenv.Load()

	config := &AppConfig{
		ServerPort: getEnv("APP_PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "release"),
		Controller: ControllerConfig{
			QueueTimeout:   getEnvAsMillis("TABLE_QUEUE_TIMEOUT_MS", 10),
			MotionTimeout:  getEnvAsMillis("TABLE_MOTION_TIMEOUT_MS", 60_000),
			UpdateInterval: getEnvAsMillis("TABLE_UPDATE_INTERVAL_MS", 1_000),
		},
		Legacy: RemoteServerConfig{
			Enabled: getEnvAsBool("LEGACY_SERVER_ENABLE", true),
			Host:    getEnv("LEGACY_SERVER_HOST", "localhost"),
			Port:    getEnvAsInt("LEGACY_SERVER_PORT", 6345),
		},
		SCPI: RemoteServerConfig{
			Enabled: getEnvAsBool("SCPI_SERVER_ENABLE", true),
			Host:    getEnv("SCPI_SERVER_HOST", "localhost"),
			Port:    getEnvAsInt("SCPI_SERVER_PORT", 4000),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLE", false),
			Broker:  getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:   getEnv("KAFKA_TOPIC", "table_events"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./table_control.db"),
		},
		Logging: LoggerConfig{
			Enable:     getEnvAsBool("LOGGER_ENABLE", true),
			LogsDir:    getEnv("LOGGER_LOGS_DIR", ""),
			Level:      getEnv("LOGGER_LOG_LEVEL", "INFO"),
			SavingDays: getEnvAsInt("LOGGER_SAVING_DAYS", 7),
		},
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsMillis(name string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(name, defaultValue)) * time.Millisecond
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	val, _ := strconv.ParseBool(value)
	return val
}
