package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Addr     string
	DataDir  string
	DBPath   string
	SiteDir  string
	PagesDir string
	LogLevel string

	// BaseURL is the origin fragment paths are resolved against.
	BaseURL string
	// ProxyURL, when set, routes all fragment fetches through the proxy.
	ProxyURL string
	// TrustedOrigins are injected without sanitization.
	TrustedOrigins []string
	// BrowserOrigins are fetched with a Chrome TLS fingerprint.
	BrowserOrigins []string

	RefreshInterval time.Duration
	FetchTimeout    time.Duration

	AdminPassword string
	JWTSecret     string
}

func Load() Config {
	dataDir := getenv("STITCH_DATA_DIR", "data")
	dbPath := os.Getenv("STITCH_DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "stitch.db")
	}
	siteDir := os.Getenv("STITCH_SITE_DIR")
	if siteDir == "" {
		siteDir = detectSiteDir()
	}

	return Config{
		Addr:            getenv("STITCH_ADDR", ":8080"),
		DataDir:         filepath.Clean(dataDir),
		DBPath:          filepath.Clean(dbPath),
		SiteDir:         filepath.Clean(siteDir),
		PagesDir:        filepath.Clean(getenv("STITCH_PAGES_DIR", "site/pages")),
		LogLevel:        getenv("STITCH_LOG_LEVEL", "info"),
		BaseURL:         getenv("STITCH_BASE_URL", "http://localhost:8080"),
		ProxyURL:        os.Getenv("STITCH_PROXY_URL"),
		TrustedOrigins:  splitList(os.Getenv("STITCH_TRUSTED_ORIGINS")),
		BrowserOrigins:  splitList(os.Getenv("STITCH_BROWSER_ORIGINS")),
		RefreshInterval: getduration("STITCH_REFRESH_INTERVAL", 30*time.Minute),
		FetchTimeout:    getduration("STITCH_FETCH_TIMEOUT", 20*time.Second),
		AdminPassword:   os.Getenv("STITCH_ADMIN_PASSWORD"),
		JWTSecret:       os.Getenv("STITCH_JWT_SECRET"),
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func detectSiteDir() string {
	candidates := []string{
		"./site",
		"../site",
	}
	for _, candidate := range candidates {
		indexPath := filepath.Join(candidate, "index.html")
		if info, err := os.Stat(indexPath); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return "./site"
}
