package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogLevel    string

	DatabaseURL string

	TokenSecret []byte
	TokenMaxAge time.Duration
	BcryptCost  int

	SessionCookie string
	LoginPath     string
	APIPrefix     string

	RoutesPublic        []string
	RoutesAuthenticated []string
	RoutesRole          string

	CSRFEnabled bool

	KafkaBrokers []string
	KafkaTopic   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

const (
	defaultRoutesPublic = "=/,/login,/register,/courses,/health," +
		"/api/auth/login,/api/auth/register,/api/auth/logout,/api/auth/google"
	defaultRoutesAuthenticated = "/dashboard,/api"
	defaultRoutesRole          = "admin=/dashboard/admin|/api/admin;instructor=/dashboard/instructor|/api/instructor"
)

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v, using system environment", err)
	}

	maxAge, err := EnvDurationDefault("TOKEN_MAX_AGE", 720*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "course-auth"),
		Env:         EnvDefault("APP_ENV", "development"),
		HTTPAddr:    EnvDefault("HTTP_ADDR", ":8080"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		TokenSecret: []byte(os.Getenv("TOKEN_SECRET")),
		TokenMaxAge: maxAge,
		BcryptCost:  EnvIntDefault("BCRYPT_COST", 10),

		SessionCookie: EnvDefault("SESSION_COOKIE", "auth_token"),
		LoginPath:     EnvDefault("LOGIN_PATH", "/login"),
		APIPrefix:     EnvDefault("API_PREFIX", "/api/"),

		RoutesPublic:        CSV(EnvDefault("ROUTES_PUBLIC", defaultRoutesPublic)),
		RoutesAuthenticated: CSV(EnvDefault("ROUTES_AUTHENTICATED", defaultRoutesAuthenticated)),
		RoutesRole:          EnvDefault("ROUTES_ROLE", defaultRoutesRole),

		CSRFEnabled: EnvBoolDefault("CSRF_ENABLED", true),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "account_events"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("missing required env DATABASE_URL"))
	}
	if len(c.TokenSecret) < 32 {
		errs = append(errs, errors.New("TOKEN_SECRET must be at least 32 bytes"))
	}
	if c.TokenMaxAge <= 0 {
		errs = append(errs, errors.New("TOKEN_MAX_AGE must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST %d out of range 4..31", c.BcryptCost))
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		errs = append(errs, errors.New("LOGIN_PATH must start with /"))
	}
	if c.FederatedEnabled() && c.GoogleRedirectURL == "" {
		errs = append(errs, errors.New("GOOGLE_REDIRECT_URL is required when GOOGLE_CLIENT_ID is set"))
	}
	return errors.Join(errs...)
}

func (c *Config) Production() bool { return c.Env == "production" }

func (c *Config) FederatedEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 }

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
