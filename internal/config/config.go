package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Twilio TwilioConfig
	Telnyx TelnyxConfig
	ML     MLConfig
	LLM    LLMConfig
	Dialer DialerConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicBaseURL is the externally reachable base URL providers call
	// back into (status webhooks, media websocket). Required: without it
	// no webhook ever arrives and every call stays undecided.
	PublicBaseURL string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

type TelnyxConfig struct {
	APIKey       string
	ConnectionID string
	FromNumber   string
}

type MLConfig struct {
	// BaseURL of the audio inference service; empty disables the
	// streaming strategy's primary path.
	BaseURL string
}

type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type DialerConfig struct {
	// MaxConcurrentCalls caps in-flight detection calls across the process.
	MaxConcurrentCalls int

	// DefaultCountryCode prefixes bare national numbers (e.g. "+1").
	DefaultCountryCode string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	if c.DB.Host != "" {
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
		c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
		c.DB.Password = os.Getenv("DB_PASSWORD")
		c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
		c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
		if c.DB.SSLMode == "" {
			c.DB.SSLMode = "disable"
		}
	}

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.TokenTTL = mustDuration("JWT_TOKEN_TTL")
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = time.Hour
	}

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.FromNumber = strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER"))

	c.Telnyx.APIKey = os.Getenv("TELNYX_API_KEY")
	c.Telnyx.ConnectionID = strings.TrimSpace(os.Getenv("TELNYX_CONNECTION_ID"))
	c.Telnyx.FromNumber = strings.TrimSpace(os.Getenv("TELNYX_FROM_NUMBER"))

	c.ML.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("ML_SERVICE_URL")), "/")

	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("LLM_BASE_URL")), "/")
	c.LLM.APIKey = os.Getenv("LLM_API_KEY")
	c.LLM.Model = strings.TrimSpace(os.Getenv("LLM_MODEL"))

	c.Dialer.MaxConcurrentCalls = optionalInt("MAX_CONCURRENT_CALLS", 10, &parseErrs)
	c.Dialer.DefaultCountryCode = strings.TrimSpace(os.Getenv("DEFAULT_COUNTRY_CODE"))
	if c.Dialer.DefaultCountryCode == "" {
		c.Dialer.DefaultCountryCode = "+1"
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.PublicBaseURL == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required"))
	} else if !strings.HasPrefix(c.App.PublicBaseURL, "http://") && !strings.HasPrefix(c.App.PublicBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an http(s) URL, got %q", c.App.PublicBaseURL))
	}

	// The call store degrades to memory when DB_HOST is unset; production
	// must not run on a volatile store.
	if c.DB.Host == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_HOST is required in production"))
		}
	} else {
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required"))
		}
		if !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}

	// Twilio is the baseline provider and the universal fallback target.
	if c.Twilio.AccountSID == "" {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID is required"))
	}
	if c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required"))
	}
	if c.Twilio.FromNumber == "" {
		errs = append(errs, errors.New("TWILIO_FROM_NUMBER is required"))
	}

	// Telnyx, ML and LLM are optional; their strategies degrade to native
	// AMD when unset. Partial Telnyx config is a misconfiguration though.
	telnyxSet := 0
	if c.Telnyx.APIKey != "" {
		telnyxSet++
	}
	if c.Telnyx.ConnectionID != "" {
		telnyxSet++
	}
	if c.Telnyx.FromNumber != "" {
		telnyxSet++
	}
	if telnyxSet > 0 && telnyxSet < 3 {
		errs = append(errs, errors.New("TELNYX_API_KEY, TELNYX_CONNECTION_ID and TELNYX_FROM_NUMBER must be set together"))
	}

	if c.Dialer.MaxConcurrentCalls <= 0 {
		errs = append(errs, fmt.Errorf("MAX_CONCURRENT_CALLS must be positive, got %d", c.Dialer.MaxConcurrentCalls))
	}
	if !strings.HasPrefix(c.Dialer.DefaultCountryCode, "+") {
		errs = append(errs, fmt.Errorf("DEFAULT_COUNTRY_CODE must start with '+', got %q", c.Dialer.DefaultCountryCode))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string, def int, parseErrs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*parseErrs = append(*parseErrs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return def
	}
	return n
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
