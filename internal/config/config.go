package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mrlokans/kobohighlights/internal/logging"
	"github.com/mrlokans/kobohighlights/internal/scheduler"
)

type (
	Config struct {
		HTTP
		Global
		Upload
		Session
		Security
		Log logging.Options
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Upload struct {
		MaxSizeMB     int64
		RatePerMinute int
		RateBurst     int
	}
	Session struct {
		Lifetime      time.Duration
		IdleTimeout   time.Duration
		SweepSchedule string
	}
	Security struct {
		SecureCookies      bool
		CSRFSecret         string   // 32 bytes; empty disables CSRF protection
		CORSAllowedOrigins []string // empty disables CORS
	}
)

// LoadDotEnv loads variables from the given files into the environment.
// Missing files are ignored and already set variables win.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("max_upload_size_mb", 100)
	v.SetDefault("upload_rate_per_minute", 10)
	v.SetDefault("upload_rate_burst", 3)
	v.SetDefault("session_lifetime", "2h")
	v.SetDefault("session_idle_timeout", "30m")
	v.SetDefault("session_sweep_schedule", "*/5 * * * *") // Every 5 minutes
	v.SetDefault("secure_cookies", false)
	v.SetDefault("csrf_secret", "")
	v.SetDefault("cors_allowed_origins", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", logging.FormatAuto)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Upload: Upload{
			MaxSizeMB:     v.GetInt64("MAX_UPLOAD_SIZE_MB"),
			RatePerMinute: v.GetInt("UPLOAD_RATE_PER_MINUTE"),
			RateBurst:     v.GetInt("UPLOAD_RATE_BURST"),
		},
		Session: Session{
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			IdleTimeout:   v.GetDuration("SESSION_IDLE_TIMEOUT"),
			SweepSchedule: v.GetString("SESSION_SWEEP_SCHEDULE"),
		},
		Security: Security{
			SecureCookies:      v.GetBool("SECURE_COOKIES"),
			CSRFSecret:         v.GetString("CSRF_SECRET"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Log: logging.Options{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Upload.MaxSizeMB << 20
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.HTTP,
		validation.Field(&c.HTTP.Port, validation.Required, validation.Min(int32(1)), validation.Max(int32(65535))),
	); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := validation.ValidateStruct(&c.Global,
		validation.Field(&c.Global.ShutdownTimeoutInSeconds, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("global: %w", err)
	}
	if err := validation.ValidateStruct(&c.Upload,
		validation.Field(&c.Upload.MaxSizeMB, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.Upload.RatePerMinute, validation.Required, validation.Min(1)),
		validation.Field(&c.Upload.RateBurst, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if err := validation.ValidateStruct(&c.Session,
		validation.Field(&c.Session.Lifetime, validation.Required, validation.Min(time.Minute)),
		// The sweeper is the only thing that releases abandoned workspaces.
		validation.Field(&c.Session.IdleTimeout, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.Session.SweepSchedule, validation.Required, validation.By(validSchedule)),
	); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := validation.ValidateStruct(&c.Security,
		validation.Field(&c.Security.CSRFSecret, validation.When(c.Security.CSRFSecret != "", validation.Length(32, 0))),
	); err != nil {
		return fmt.Errorf("security: %w", err)
	}
	if err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.In("trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled")),
		validation.Field(&c.Log.Format, validation.In(logging.FormatAuto, logging.FormatConsole, logging.FormatJSON)),
	); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func validSchedule(value any) error {
	schedule, _ := value.(string)
	return scheduler.ValidateSchedule(schedule)
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
