package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/vytor/sbx/internal/logger"
)

type Config struct {
	LogLevel       string `env:"SBX_LOG_LEVEL" validate:"required,oneof=DEBUG INFO WARN WARNING ERROR"`
	LogColor       bool   `env:"SBX_LOG_COLOR"`
	Editor         string `env:"SBX_EDITOR" validate:"required"`
	JournalEnabled bool   `env:"SBX_JOURNAL_ENABLED"`
	JournalPath    string `env:"SBX_JOURNAL_PATH" validate:"required_if=JournalEnabled true"`
	Addr           string `env:"SBX_ADDR" validate:"required,hostname_port"`
	StatsDays      int    `env:"SBX_STATS_DAYS" validate:"gte=1,lte=3650"`
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the tool still runs when .env is absent.
	_ = godotenv.Load()

	return Config{
		LogLevel:       strings.ToUpper(envOr("SBX_LOG_LEVEL", "WARN")),
		LogColor:       envBoolOr("SBX_LOG_COLOR", true),
		Editor:         envOr("SBX_EDITOR", envOr("EDITOR", "vi")),
		JournalEnabled: envBoolOr("SBX_JOURNAL_ENABLED", true),
		JournalPath:    expandHome(envOr("SBX_JOURNAL_PATH", filepath.Join("~", ".sbx", "journal.db"))),
		Addr:           envOr("SBX_ADDR", "127.0.0.1:8421"),
		StatsDays:      envIntOr("SBX_STATS_DAYS", 30),
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their environment key.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if key := f.Tag.Get("env"); key != "" {
			return key
		}
		return f.Name
	})
	return v
}

// Validate checks every field and reports all violations at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s cannot be empty", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s must be between 1 and 3650, got %v", fe.Field(), fe.Value())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got %q", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// Level returns the parsed log level.
func (c Config) Level() logger.Level {
	return logger.ParseLevel(c.LogLevel)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		logger.Warn("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		logger.Warn("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
