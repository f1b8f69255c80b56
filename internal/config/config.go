package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      *AppConfig
	Database *DatabaseConfig
	Redis    *RedisConfig
	SMTP     *SMTPConfig
	OAuth    *OAuthConfig
	Security *SecurityConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Port        int
	Host        string
	BaseURL     string
	ClientURL   string
	LogLevel    string
	LogFormat   string
}

type SecurityConfig struct {
	JWTSecret          string
	JWTRefreshSecret   string
	JWTVerifySecret    string
	JWTResetSecret     string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	VerifyTokenTTL     time.Duration
	ResetTokenTTL      time.Duration
	BcryptCost         int
	LoginFailureDelay  time.Duration
	RateLimitEnabled   bool
	RateLimitWindow    time.Duration
	RateLimitMax       int
	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	config := &Config{
		App:      loadAppConfig(),
		Database: loadDatabaseConfig(),
		Redis:    loadRedisConfig(),
		SMTP:     loadSMTPConfig(),
		OAuth:    loadOAuthConfig(),
		Security: loadSecurityConfig(),
	}

	return config, nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", "ReferX"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnvAsInt("APP_PORT", 5000),
		Host:        getEnv("APP_HOST", "localhost"),
		BaseURL:     getEnv("APP_BASE_URL", "http://localhost:5000"),
		ClientURL:   getEnv("CLIENT_URL", "http://localhost:3000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", "change-me-access-secret"),
		JWTRefreshSecret:   getEnv("JWT_REFRESH_SECRET", "change-me-refresh-secret"),
		JWTVerifySecret:    getEnv("JWT_VERIFY_SECRET", "change-me-verify-secret"),
		JWTResetSecret:     getEnv("JWT_RESET_SECRET", "change-me-reset-secret"),
		AccessTokenTTL:     getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL:    getEnvAsDuration("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		VerifyTokenTTL:     getEnvAsDuration("JWT_VERIFY_TOKEN_TTL", time.Hour),
		ResetTokenTTL:      getEnvAsDuration("JWT_RESET_TOKEN_TTL", 10*time.Minute),
		BcryptCost:         getEnvAsInt("BCRYPT_COST", 10),
		LoginFailureDelay:  getEnvAsDuration("LOGIN_FAILURE_DELAY", time.Second),
		RateLimitEnabled:   getEnvAsBool("RATE_LIMIT_ENABLED", true),
		RateLimitWindow:    getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:       getEnvAsInt("RATE_LIMIT_MAX", 100),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{getEnv("CLIENT_URL", "http://localhost:3000")}),
	}
}

func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
