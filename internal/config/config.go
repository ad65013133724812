package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr          string
	DatabaseURL   string
	SecretKey     string
	SessionTTL    time.Duration
	SecureCookies bool
	RedisAddr     string
	Mail          Mail
	Google        Google
}

// Mail is the outbound relay. Username is also the operator mailbox receiving contact messages.
type Mail struct {
	Server   string
	Port     int
	Username string
	Password string
}

type Google struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether Google sign-in is configured.
func (g Google) Enabled() bool {
	return g.ClientID != ""
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Addr:        withDefault(getenv("ADDR"), ":8080"),
		DatabaseURL: getenv("DB_URL"),
		SecretKey:   getenv("SECRET_KEY"),
		RedisAddr:   getenv("REDIS_ADDR"),
		Mail: Mail{
			Server:   withDefault(getenv("MAIL_SERVER"), "smtp.gmail.com"),
			Username: getenv("MAIL_USERNAME"),
			Password: getenv("MAIL_PASSWORD"),
		},
		Google: Google{
			ClientID:     getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: getenv("GOOGLE_CLIENT_SECRET"),
			CallbackURL:  getenv("GOOGLE_CALLBACK_URL"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DB_URL is required")
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}

	var err error
	cfg.SessionTTL, err = time.ParseDuration(withDefault(getenv("SESSION_TTL"), "24h"))
	if err != nil || cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL: invalid duration %q", getenv("SESSION_TTL"))
	}

	cfg.SecureCookies, err = strconv.ParseBool(withDefault(getenv("SECURE_COOKIES"), "false"))
	if err != nil {
		return nil, fmt.Errorf("SECURE_COOKIES: %w", err)
	}

	cfg.Mail.Port, err = strconv.Atoi(withDefault(getenv("MAIL_PORT"), "587"))
	if err != nil {
		return nil, fmt.Errorf("MAIL_PORT: %w", err)
	}

	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
