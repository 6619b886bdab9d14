package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	Environment string

	RunMigrations bool
	RunSeed       bool
	MaxBodyBytes  int64

	SeedAdminEmail    string
	SeedAdminPassword string

	RateLimitPerMinute int
	MetricsEnabled     bool

	// Fallback payroll policy. Company settings stored in the database
	// take precedence when a settings row exists.
	OvertimeMultiplier      float64
	HolidayMultiplier       float64
	WeeklyOvertimeThreshold float64

	GeofenceRadiusMiles float64
	GraceMinutes        int
	GeoAcquireTimeout   time.Duration
	MonitorInterval     time.Duration
	IPLookupURL         string
}

func Load() Config {
	return Config{
		Addr:                    getEnv("APP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		Environment:             getEnv("APP_ENV", "development"),
		RunMigrations:           getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                 getEnvBool("RUN_SEED", true),
		SeedAdminEmail:          getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:       getEnv("SEED_ADMIN_PASSWORD", ""),
		MaxBodyBytes:            int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:      getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MetricsEnabled:          getEnvBool("METRICS_ENABLED", true),
		OvertimeMultiplier:      getEnvFloat("OVERTIME_MULTIPLIER", 1.5),
		HolidayMultiplier:       getEnvFloat("HOLIDAY_MULTIPLIER", 2.0),
		WeeklyOvertimeThreshold: getEnvFloat("WEEKLY_OVERTIME_THRESHOLD", 40),
		GeofenceRadiusMiles:     getEnvFloat("GEOFENCE_RADIUS_MILES", 0.25),
		GraceMinutes:            getEnvInt("CLOCK_IN_GRACE_MINUTES", 10),
		GeoAcquireTimeout:       getEnvDuration("GEO_ACQUIRE_TIMEOUT", 10*time.Second),
		MonitorInterval:         getEnvDuration("LOCATION_MONITOR_INTERVAL", 5*time.Minute),
		IPLookupURL:             getEnv("IP_LOOKUP_URL", "https://ipapi.co"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.OvertimeMultiplier < 1 {
		return fmt.Errorf("OVERTIME_MULTIPLIER must be at least 1")
	}
	if c.WeeklyOvertimeThreshold <= 0 {
		return fmt.Errorf("WEEKLY_OVERTIME_THRESHOLD must be positive")
	}
	if c.GeofenceRadiusMiles <= 0 {
		return fmt.Errorf("GEOFENCE_RADIUS_MILES must be positive")
	}
	if c.GraceMinutes < 0 {
		return fmt.Errorf("CLOCK_IN_GRACE_MINUTES must not be negative")
	}
	return nil
}
