package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
)

const (
	StoreDriverMySQL  = "mysql"
	StoreDriverMemory = "memory"
)

type Config struct {
	App      AppConfig
	HTTP     ServerConfig
	GRPC     ServerConfig
	Store    StoreConfig
	JWT      JWTConfig
	Tokens   TokenConfig
	Password PasswordConfig
	Mail     MailConfig
	Log      LogConfig
}

type AppConfig struct {
	PublicBaseURL string
}

type ServerConfig struct {
	Host string
	Port string
}

type StoreConfig struct {
	Driver      string
	MySQLDSN    string
	AutoMigrate bool
}

type JWTConfig struct {
	Secret     string
	Algorithm  string
	SessionTTL time.Duration
}

type TokenConfig struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

type PasswordConfig struct {
	Policy     PasswordPolicy
	BcryptCost int
}

// MailConfig describes the outbound SMTP relay. An empty Host disables
// delivery and mail is only logged.
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	RequireTLS  bool
	SendTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	store := StoreConfig{
		Driver:      strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMySQL)),
		MySQLDSN:    os.Getenv("MYSQL_DSN"),
		AutoMigrate: getBoolEnv("DB_AUTO_MIGRATE", false),
	}
	switch store.Driver {
	case StoreDriverMySQL:
		if store.MySQLDSN == "" {
			return nil, errors.New("MYSQL_DSN environment variable is required")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", store.Driver)
	}

	cfg := &Config{
		App: AppConfig{
			PublicBaseURL: strings.TrimRight(getEnv("APP_PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		Store: store,
		JWT: JWTConfig{
			Secret:     jwtSecret,
			Algorithm:  strings.ToUpper(getEnv("JWT_ALGORITHM", "HS256")),
			SessionTTL: getDurationEnv("JWT_SESSION_TTL", 60*time.Minute),
		},
		Tokens: TokenConfig{
			VerificationTTL: getDurationEnv("VERIFICATION_TOKEN_TTL", 60*time.Minute),
			ResetTTL:        getDurationEnv("RESET_TOKEN_TTL", 30*time.Minute),
		},
		Password: PasswordConfig{
			Policy:     loadPasswordPolicy(),
			BcryptCost: getIntEnv("PASSWORD_BCRYPT_COST", 10),
		},
		Mail: MailConfig{
			Host:        os.Getenv("MAIL_HOST"),
			Port:        getIntEnv("MAIL_PORT", 587),
			Username:    os.Getenv("MAIL_USERNAME"),
			Password:    os.Getenv("MAIL_PASSWORD"),
			From:        getEnv("MAIL_FROM", "no-reply@localhost"),
			RequireTLS:  getBoolEnv("MAIL_TLS", true),
			SendTimeout: time.Duration(getIntEnv("MAIL_SEND_TIMEOUT", 10)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return c.Store.MySQLDSN
}

func (c *Config) validate() error {
	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWT.Algorithm)
	}
	if c.JWT.SessionTTL <= 0 {
		return errors.New("JWT_SESSION_TTL must be positive")
	}
	if c.Tokens.VerificationTTL <= 0 {
		return errors.New("VERIFICATION_TOKEN_TTL must be positive")
	}
	if c.Tokens.ResetTTL <= 0 {
		return errors.New("RESET_TOKEN_TTL must be positive")
	}
	if c.Mail.SendTimeout <= 0 {
		return errors.New("MAIL_SEND_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 1),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", false),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", false),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", false),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", false),
	}
}
