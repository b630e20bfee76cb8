package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/validator"
	"github.com/joho/godotenv"
)

const (
	StoreDriverFile     = "file"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	App      AppConfig
	Store    StoreConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Shift    ShiftConfig
	Backup   BackupConfig
	CORS     CORSConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	Timezone *time.Location
}

type StoreConfig struct {
	Driver      string
	Path        string
	LockTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

type ShiftConfig struct {
	Epoch            calendar.Date
	SlotStart        string
	SlotEnd          string
	SlotStep         time.Duration
	ManagerOnlySlots []string
	MonthlyQuota     int
	RotationFile     string
}

type BackupConfig struct {
	Dir      string
	Keep     int
	Interval time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads envFile (default ".env") into the environment, then builds the config.
// A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		slog.Debug("No env file, using process environment", "path", envFile)
	}

	var errs validator.ValidationErrors
	p := parser{errs: &errs}
	config := &Config{}

	// Application configuration
	config.App = AppConfig{
		Port:     p.int("APP_PORT", 8080),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: p.location("TIMEZONE", "America/Bogota"),
	}

	config.Store = StoreConfig{
		Driver:      getEnv("STORE_DRIVER", StoreDriverFile),
		Path:        getEnv("STORE_PATH", "data/shiftclock.json"),
		LockTimeout: p.duration("STORE_LOCK_TIMEOUT", 5*time.Second),
	}

	// Database configuration
	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     p.int("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "shiftclock"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(p.int("DB_MAX_CONNS", 10)),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: p.duration("JWT_ACCESS_EXPIRATION_TIME", time.Hour),
	}

	config.Shift = ShiftConfig{
		Epoch:            p.date("ROTATION_EPOCH", "2024-01-01"),
		SlotStart:        getEnv("SLOT_START", "05:00"),
		SlotEnd:          getEnv("SLOT_END", "22:00"),
		SlotStep:         p.duration("SLOT_STEP", 30*time.Minute),
		ManagerOnlySlots: getEnvSlice("MANAGER_ONLY_SLOTS", []string{"06:30", "08:00"}),
		MonthlyQuota:     p.int("MONTHLY_SHIFT_QUOTA", 4),
		RotationFile:     getEnv("ROTATION_FILE", ""),
	}

	config.Backup = BackupConfig{
		Dir:      getEnv("BACKUP_DIR", "data"),
		Keep:     p.int("BACKUP_KEEP", 5),
		Interval: p.duration("BACKUP_INTERVAL", 240*time.Hour),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration parse failed: %w", errs)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// Validate checks the settings every entry point needs. The JWT secret is only required
// by the API and is checked there.
func (c *Config) Validate() error {
	var errs validator.ValidationErrors

	switch c.Store.Driver {
	case StoreDriverFile, StoreDriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, validator.ValidationError{Field: "STORE_PATH", Message: "STORE_PATH is required"})
		}
	case StoreDriverPostgres:
		if c.Database.Password == "" {
			errs = append(errs, validator.ValidationError{Field: "DB_PASSWORD", Message: "DB_PASSWORD is required"})
		}
	default:
		errs = append(errs, validator.ValidationError{
			Field:   "STORE_DRIVER",
			Message: fmt.Sprintf("STORE_DRIVER must be one of %s, %s, %s", StoreDriverFile, StoreDriverSQLite, StoreDriverPostgres),
		})
	}
	if c.App.Port < 1 || c.App.Port > 65535 {
		errs = append(errs, validator.ValidationError{Field: "APP_PORT", Message: "APP_PORT must be between 1 and 65535"})
	}
	if c.Store.LockTimeout <= 0 {
		errs = append(errs, validator.ValidationError{Field: "STORE_LOCK_TIMEOUT", Message: "STORE_LOCK_TIMEOUT must be positive"})
	}
	for _, slot := range c.Shift.ManagerOnlySlots {
		if !validator.IsValidClock(slot) {
			errs = append(errs, validator.ValidationError{Field: "MANAGER_ONLY_SLOTS", Message: fmt.Sprintf("%q is not HH:MM", slot)})
		}
	}
	if c.Shift.MonthlyQuota < 0 {
		errs = append(errs, validator.ValidationError{Field: "MONTHLY_SHIFT_QUOTA", Message: "MONTHLY_SHIFT_QUOTA must not be negative"})
	}
	if c.Backup.Keep < 1 {
		errs = append(errs, validator.ValidationError{Field: "BACKUP_KEEP", Message: "BACKUP_KEEP must be at least 1"})
	}
	if c.Backup.Interval <= 0 {
		errs = append(errs, validator.ValidationError{Field: "BACKUP_INTERVAL", Message: "BACKUP_INTERVAL must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	errs *validator.ValidationErrors
}

func (p parser) fail(key, raw, want string) {
	*p.errs = append(*p.errs, validator.ValidationError{
		Field:   key,
		Message: fmt.Sprintf("invalid %s %q: want %s", key, raw, want),
	})
}

func (p parser) int(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, "an integer")
		return fallback
	}
	return v
}

func (p parser) duration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, "a duration such as 5s or 240h")
		return fallback
	}
	return v
}

func (p parser) location(key, fallback string) *time.Location {
	raw := getEnv(key, fallback)
	loc, err := time.LoadLocation(raw)
	if err != nil {
		p.fail(key, raw, "an IANA time zone")
		return time.UTC
	}
	return loc
}

func (p parser) date(key, fallback string) calendar.Date {
	raw := getEnv(key, fallback)
	d, err := calendar.Parse(raw)
	if err != nil {
		p.fail(key, raw, "YYYY-MM-DD")
		return calendar.MustParse(fallback)
	}
	return d
}
