package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string
	MySQLDSN  string
	RedisAddr string

	// DebounceWindow coalesces broadcast emission per item; zero disables.
	DebounceWindow time.Duration

	AutomationInterval time.Duration

	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SMTPFrom       string
	AlertRecipient string
}

// Load reads configuration from the environment, consulting a .env file
// when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		MySQLDSN:           getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/stocklive?parseTime=true"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		DebounceWindow:     getDuration("DEBOUNCE_WINDOW", 5*time.Second),
		AutomationInterval: getDuration("AUTOMATION_INTERVAL", 15*time.Minute),
		SMTPHost:           getEnv("SMTP_HOST", "localhost"),
		SMTPPort:           getInt("SMTP_PORT", 587),
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:           getEnv("SMTP_FROM", "stocklive@localhost"),
		AlertRecipient:     getEnv("ALERT_RECIPIENT", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
