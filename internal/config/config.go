package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config структура конфигурации
type Config struct {
	JWTSecret           string
	DatabaseURL         string
	DatabaseConfig      DatabaseConfig
	RedisURL            string
	EventChannel        string // канал Redis для доменных событий
	HTTPAddr            string // адрес Fiber-приложения
	WSAddr              string // адрес WebSocket-сервера
	AutoReleaseInterval time.Duration
	AutoReleaseBatch    int
	AppEnv              string
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// LoadConfig загружает переменные из .env
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "swaply_user"),
		Password: getEnv("PGPASSWORD", "swaply_pass"),
		Name:     getEnv("PGDATABASE", "swaply"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	// Формируем строку подключения к базе данных
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	cfg := &Config{
		JWTSecret:           getEnv("JWT_SECRET", ""),
		DatabaseURL:         dbURL,
		DatabaseConfig:      dbConfig,
		RedisURL:            getEnv("REDIS_URL", ""),
		EventChannel:        getEnv("EVENT_CHANNEL", "swaply.events"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		WSAddr:              getEnv("WS_ADDR", ":8081"),
		AutoReleaseInterval: getEnvDuration("AUTO_RELEASE_INTERVAL", time.Minute),
		AutoReleaseBatch:    getEnvInt("AUTO_RELEASE_BATCH", 100),
		AppEnv:              getEnv("APP_ENV", "production"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("❌ Ошибка: Не заданы обязательные переменные окружения")
	}

	return cfg
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как time.Duration
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("⚠️ Неверный формат %s, используем значение по умолчанию %v", key, defaultValue)
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("⚠️ Неверный формат %s, используем значение по умолчанию %d", key, defaultValue)
	}
	return defaultValue
}
