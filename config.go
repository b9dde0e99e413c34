package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries all deployment settings, loaded from the environment.
type Config struct {
	Port         string
	DBPath       string
	JWTSecret    string
	CookieName   string
	CookieSecure bool
	CORSOrigins  []string
	StaticDir    string
	SessionTTL   time.Duration
}

func loadConfig() Config {
	ttlHours := 24 * 7
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ttlHours = parsed
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-default-secret-key-change-in-production"
	}

	return Config{
		Port:         getenv("PORT", "3001"),
		DBPath:       getenv("DB_PATH", "./taskdeck.db"),
		JWTSecret:    jwtSecret,
		CookieName:   getenv("COOKIE_NAME", "taskdeck_session"),
		CookieSecure: os.Getenv("COOKIE_SECURE") == "true",
		CORSOrigins:  splitOrigins(getenv("CORS_ORIGINS", "http://localhost:5173")),
		StaticDir:    getenv("STATIC_DIR", "./"),
		SessionTTL:   time.Duration(ttlHours) * time.Hour,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
