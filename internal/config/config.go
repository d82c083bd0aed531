package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит конфигурацию приложения
type Config struct {
	Environment string
	Server      ServerConfig
	MySQL       MySQLConfig
	Redis       RedisConfig
	Engine      EngineConfig
	Monitoring  MonitoringConfig
	Features    FeaturesConfig
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Address      string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// MySQLConfig конфигурация MySQL (пинги и дневники)
type MySQLConfig struct {
	DSN          string
	MaxIdleConns int
	MaxOpenConns int
}

// RedisConfig конфигурация Redis (кэш завершенных дневников)
type RedisConfig struct {
	URL          string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DiaryTTL     time.Duration
}

// EngineConfig конфигурация движка восстановления дневника
type EngineConfig struct {
	// Потолок GPS-точности: пинги с худшей точностью отбрасываются (метры)
	MaxAccuracyM float64
	// Границы дневного окна для синтетических визитов (часы UTC)
	DayWindowStartHour int
	DayWindowEndHour   int
}

// MonitoringConfig конфигурация мониторинга
type MonitoringConfig struct {
	MetricsEnabled bool
	LogLevel       string
	LogFormat      string
}

// FeaturesConfig флаги функций
type FeaturesConfig struct {
	// Включает инъекцию синтетических (red herring) визитов и поездок
	SyntheticEntries bool
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Address:      getEnv("SERVER_ADDRESS", ":8080"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		MySQL: MySQLConfig{
			DSN:          getEnv("MYSQL_DSN", ""),
			MaxIdleConns: getInt("MYSQL_MAX_IDLE_CONNS", 10),
			MaxOpenConns: getInt("MYSQL_MAX_OPEN_CONNS", 50),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", "redis://localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getInt("REDIS_DB", 0),
			PoolSize:     getInt("REDIS_POOL_SIZE", 50),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 5),
			DiaryTTL:     getDuration("REDIS_DIARY_TTL", 24*time.Hour),
		},
		Engine: EngineConfig{
			MaxAccuracyM:       getFloat("ENGINE_MAX_ACCURACY_M", 100),
			DayWindowStartHour: getInt("ENGINE_DAY_WINDOW_START_HOUR", 7),
			DayWindowEndHour:   getInt("ENGINE_DAY_WINDOW_END_HOUR", 22),
		},
		Monitoring: MonitoringConfig{
			MetricsEnabled: getBool("METRICS_ENABLED", true),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "text"),
		},
		Features: FeaturesConfig{
			SyntheticEntries: getBool("ENABLE_SYNTHETIC_ENTRIES", true),
		},
	}

	// Валидация
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.MySQL.DSN == "" {
		return fmt.Errorf("MYSQL_DSN is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Engine.MaxAccuracyM <= 0 {
		return fmt.Errorf("ENGINE_MAX_ACCURACY_M must be positive")
	}

	if c.Engine.DayWindowStartHour < 0 || c.Engine.DayWindowStartHour > 23 {
		return fmt.Errorf("ENGINE_DAY_WINDOW_START_HOUR must be between 0 and 23")
	}

	if c.Engine.DayWindowEndHour <= c.Engine.DayWindowStartHour || c.Engine.DayWindowEndHour > 24 {
		return fmt.Errorf("ENGINE_DAY_WINDOW_END_HOUR must be between start hour and 24")
	}

	return nil
}

// Helper функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
