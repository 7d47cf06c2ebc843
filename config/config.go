package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	SMTP     SMTPConfig
	Reminder ReminderConfig
}

type ServerConfig struct {
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// StoreConfig 選擇 Event Store 後端：postgres、mongo 或 memory
type StoreConfig struct {
	Backend string
	// UseRedis 為 true 時，event lock、提醒去重與通知佇列都改用 Redis
	UseRedis bool
	// SeedUsers memory 後端啟動時載入的使用者，格式 uuid=email,uuid=email
	SeedUsers string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MongoConfig struct {
	URI      string
	Database string
}

// SMTPConfig Host 為空時不寄信，只寫 log
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type ReminderConfig struct {
	Cron     string
	Timezone string
	// LedgerTTL 提醒去重紀錄保留時間
	LedgerTTL time.Duration
}

var AppConfig *Config

func LoadConfig() *Config {
	// .env 不存在時直接使用環境變數
	_ = godotenv.Load()

	AppConfig = &Config{
		Server:   GetServerConfig(),
		Store:    GetStoreConfig(),
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		Mongo:    GetMongoConfig(),
		SMTP:     GetSMTPConfig(),
		Reminder: GetReminderConfig(),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     "localhost",
		Port:     "5433", // 測試 DB 用 5433 port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	testRedisConfig := RedisConfig{
		Host:     "localhost",
		Port:     "6380", // 測試 Redis 用 6380 port
		Password: "",
		DB:       1,
	}

	return &Config{
		Server:   ServerConfig{Port: "0", LogLevel: "debug", ShutdownTimeout: time.Second},
		Store:    StoreConfig{Backend: "memory"},
		Database: *testConfig,
		Redis:    testRedisConfig,
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27018", // 測試 Mongo 用 27018 port
			Database: "test_db",
		},
		Reminder: ReminderConfig{Cron: "0 0 * * *", Timezone: "UTC", LedgerTTL: time.Hour},
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func GetStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:   getEnv("STORE_BACKEND", "postgres"),
		UseRedis:  getEnvBool("USE_REDIS", true),
		SeedUsers: getEnv("SEED_USERS", ""),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func GetMongoConfig() MongoConfig {
	return MongoConfig{
		URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database: getEnv("MONGO_DB", "events"),
	}
}

func GetSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     getEnv("SMTP_PORT", "587"),
		Username: getEnv("SMTP_USER", ""),
		Password: getEnv("SMTP_PASS", ""),
		From:     getEnv("SMTP_FROM", "info@demomailtrap.com"),
	}
}

func GetReminderConfig() ReminderConfig {
	return ReminderConfig{
		Cron:      getEnv("REMINDER_CRON", "0 0 * * *"),
		Timezone:  getEnv("REMINDER_TIMEZONE", "UTC"),
		LedgerTTL: getEnvDuration("REMINDER_LEDGER_TTL", 96*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		panic(err)
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		panic(err)
	}
	return value
}
