package portalapi

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	defaultListenAddr       = ":9090"
	defaultCasinoTimeout    = 5 * time.Second
	defaultAllowedOrigin    = "http://localhost:8000"
	defaultSessionIssuer    = "casino-portal"
	defaultSessionCookie    = "portal_session"
	defaultSessionTTL       = 12 * time.Hour
	defaultReconcileBatch   = 50
	defaultHistoryLimit     = 20
	maxHistoryLimit         = 200
	shutdownTimeout         = 5 * time.Second
	minimumSigningKeyLength = 16
)

// Config aggregates runtime settings for the portal API.
type Config struct {
	ListenAddr        string
	CasinoAPIURL      string
	CasinoTimeout     time.Duration
	AllowedOrigins    []string
	SessionSigningKey string
	SessionIssuer     string
	SessionCookieName string
	SessionTTL        time.Duration
	CookieSecure      bool
	DatabaseURL       string
	JournalBackend    string
	HealthAddr        string
	ReconcileInterval time.Duration
	ReconcileBatch    int
	ServiceToken      string
	Seed              uint64
}

// Validate ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	cfg.CasinoAPIURL = strings.TrimSpace(cfg.CasinoAPIURL)
	if cfg.CasinoTimeout <= 0 {
		cfg.CasinoTimeout = defaultCasinoTimeout
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	cfg.SessionIssuer = defaultIfEmpty(cfg.SessionIssuer, defaultSessionIssuer)
	cfg.SessionCookieName = defaultIfEmpty(cfg.SessionCookieName, defaultSessionCookie)
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.ReconcileBatch <= 0 {
		cfg.ReconcileBatch = defaultReconcileBatch
	}
	if cfg.CasinoAPIURL == "" {
		return fmt.Errorf("casino api url is required")
	}
	parsed, err := url.Parse(cfg.CasinoAPIURL)
	if err != nil || !parsed.IsAbs() {
		return fmt.Errorf("casino api url must be absolute, got %q", cfg.CasinoAPIURL)
	}
	if len(cfg.SessionSigningKey) < minimumSigningKeyLength {
		return fmt.Errorf("session signing key must be at least %d bytes", minimumSigningKeyLength)
	}
	if cfg.ReconcileInterval < 0 {
		return fmt.Errorf("reconcile interval must not be negative")
	}
	if cfg.ReconcileInterval > 0 {
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return fmt.Errorf("reconciliation requires a database url")
		}
		if strings.TrimSpace(cfg.ServiceToken) == "" {
			return fmt.Errorf("reconciliation requires a service token")
		}
	}
	return nil
}

// JournalEnabled reports whether plays are persisted.
func (cfg Config) JournalEnabled() bool {
	return strings.TrimSpace(cfg.DatabaseURL) != ""
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
