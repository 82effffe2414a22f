package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName      string
	Port        string
	BaseURL     string
	SecretKey   string
	AdminEmail  string
	UploadDir   string
	MaxUploadMB int64
	SessionTTL  time.Duration
	// Marks session cookies Secure. Enable behind TLS.
	SecureCookies      bool
	LoginRatePerMinute int
	// Addresses or CIDRs of reverse proxies whose X-Forwarded-For is believed.
	TrustedProxies []string
	Google             GoogleConfig
	Slack              SlackConfig
	Turso              TursoConfig
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

// Enabled reports whether Google login is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type SlackConfig struct {
	Token     string
	ChannelID string
}

// Enabled reports whether Slack notifications are configured.
func (s SlackConfig) Enabled() bool {
	return s.Token != "" && s.ChannelID != ""
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
