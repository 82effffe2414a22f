package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	port := getEnv("PORT")
	cfg := Config{
		DBName:             getEnv("DB_NAME"),
		Port:               port,
		SecretKey:          getEnv("SECRET_KEY"),
		BaseURL:            strings.TrimRight(getEnvDefault("BASE_URL", "http://localhost:"+port), "/"),
		AdminEmail:         strings.ToLower(strings.TrimSpace(getEnvDefault("ADMIN_EMAIL", ""))),
		UploadDir:          getEnvDefault("UPLOAD_DIR", "static/uploads"),
		MaxUploadMB:        int64(getEnvInt("MAX_UPLOAD_MB", 50)),
		SessionTTL:         time.Duration(getEnvInt("SESSION_TTL_HOURS", 720)) * time.Hour,
		SecureCookies:      getEnvBool("SECURE_COOKIES", false),
		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 20),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),
		Google: GoogleConfig{
			ClientID:     getEnvDefault("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnvDefault("GOOGLE_CLIENT_SECRET", ""),
		},
		Slack: SlackConfig{
			Token:     getEnvDefault("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnvDefault("SLACK_CHANNEL_ID", ""),
		},
		Turso: TursoConfig{
			PrimaryURL: getEnvDefault("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnvDefault("TURSO_AUTH_TOKEN", ""),
		},
	}
	return cfg
}

func getEnvDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn("Invalid integer in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warn("Invalid boolean in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return b
}
