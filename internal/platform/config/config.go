package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	APIPort string
	LogMode string
	JWTKey  []byte
	JWTExp  time.Duration

	StorageDriver string
	SeedDemoUser  bool
	DemoPassword  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ReportQueueName       string
	ReportLockTTLSeconds  int
	ReportCacheTTLSeconds int
	RunWorkerInProcess    bool

	ProgressTotalPerType int
	SessionsDefaultLimit int
	SessionsMaxLimit     int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:       getEnv("API_PORT", "8080"),
		LogMode:       getEnv("LOG_MODE", "dev"),
		JWTKey:        []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:        time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		SeedDemoUser:  getEnvAsBool("SEED_DEMO_USER", true),
		DemoPassword:  getEnv("DEMO_PASSWORD", "student"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "user"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "kids_math_db"),
		DBSslMode:     getEnv("DB_SSLMODE", "disable"),
		RedisEnabled:  getEnvAsBool("REDIS_ENABLED", true),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		ReportQueueName:       getEnv("REPORT_QUEUE_NAME", "report_refresh_queue"),
		ReportLockTTLSeconds:  getEnvAsInt("REPORT_LOCK_TTL_SECONDS", 30),
		ReportCacheTTLSeconds: getEnvAsInt("REPORT_CACHE_TTL_SECONDS", 600),
		RunWorkerInProcess:    getEnvAsBool("RUN_WORKER_IN_PROCESS", true),

		ProgressTotalPerType: getEnvAsInt("PROGRESS_TOTAL_PER_TYPE", 5),
		SessionsDefaultLimit: getEnvAsInt("SESSIONS_DEFAULT_LIMIT", 50),
		SessionsMaxLimit:     getEnvAsInt("SESSIONS_MAX_LIMIT", 200),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
