package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables, applies defaults and
// validates the result. Every bad variable is reported, not just the first.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// loadStruct fills tagged fields of v, recursing into nested structs.
//
// Tags:
//
//	env:"NAME"        variable to read
//	envAlt:"NAME"     fallback variable (e.g. PORT on PaaS hosts)
//	default:"value"   used when neither variable is set
//	required:"true"   fail when unset and no default applies
//	unit:"bytes"      accept sizes like 512KB or 50MiB
func loadStruct(v reflect.Value) error {
	var errs []error
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fv); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}
		value, ok := lookupEnv(name, field.Tag.Get("envAlt"))
		if !ok {
			if field.Tag.Get("required") == "true" {
				errs = append(errs, fmt.Errorf("required environment variable %s is not set", name))
				continue
			}
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}

		if err := setField(fv, value, field.Tag.Get("unit")); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", name, value, err))
		}
	}
	return errors.Join(errs...)
}

// lookupEnv returns the first non-empty value of name or alt.
func lookupEnv(name, alt string) (string, bool) {
	if v := os.Getenv(name); v != "" {
		return v, true
	}
	if alt != "" {
		if v := os.Getenv(alt); v != "" {
			return v, true
		}
	}
	return "", false
}

func setField(field reflect.Value, value, unit string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))

	case unit == "bytes":
		n, err := parseByteSize(value)
		if err != nil {
			return err
		}
		field.SetInt(n)

	case field.Kind() == reflect.String:
		field.SetString(value)

	case field.Kind() == reflect.Int, field.Kind() == reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)

	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		var items []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		field.Set(reflect.ValueOf(items))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Type())
	}
	return nil
}

var byteUnits = []struct {
	suffix string
	scale  int64
}{
	{"kib", 1 << 10}, {"mib", 1 << 20}, {"gib", 1 << 30},
	{"kb", 1 << 10}, {"mb", 1 << 20}, {"gb", 1 << 30},
	{"k", 1 << 10}, {"m", 1 << 20}, {"g", 1 << 30},
	{"b", 1},
}

// parseByteSize reads a plain byte count or a count with a binary unit
// suffix. KB and KiB both mean 1024 bytes.
func parseByteSize(s string) (int64, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	scale := int64(1)
	for _, u := range byteUnits {
		if strings.HasSuffix(lower, u.suffix) {
			lower, scale = strings.TrimSpace(strings.TrimSuffix(lower, u.suffix)), u.scale
			break
		}
	}
	n, err := strconv.ParseInt(lower, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * scale, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		add("SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		add("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Source.MaxBytes <= 0 {
		add("SOURCE_MAX_BYTES must be positive")
	}
	if c.Source.FetchTimeout <= 0 {
		add("SOURCE_FETCH_TIMEOUT must be positive")
	}
	if src := c.Source.DefaultSource; src != "" && !c.Source.AllowLocal && !isRemoteSource(src) {
		add("SHEETVIEW_DEFAULT_SOURCE (%q) is a local path but SOURCE_ALLOW_LOCAL is false", src)
	}

	if c.Session.TTL <= 0 {
		add("SESSION_TTL must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		add("SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.Session.MaxSessions <= 0 {
		add("SESSION_MAX must be positive")
	}

	if c.Load.MaxConcurrent <= 0 {
		add("LOAD_MAX_CONCURRENT must be positive")
	}
	if c.Load.MaxWait <= 0 {
		add("LOAD_MAX_WAIT must be positive")
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		add("RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.LoadLimit <= 0 {
		add("RATE_LIMIT_LOAD must be positive when rate limiting is enabled")
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		add("REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func isRemoteSource(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// String summarizes the config for logging with API keys masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Addr: %q}, "+
		"Source: {MaxBytes: %d, AllowLocal: %v, AllowPrivate: %v, Default: %q}, "+
		"Session: {TTL: %s, Max: %d}, "+
		"Load: {MaxConcurrent: %d, MaxWait: %s}, "+
		"Export: {CSVBOM: %v}, "+
		"Rate: {Enabled: %v, RequestsPerMinute: %d, Load: %d}, "+
		"Security: {RequireAPIKey: %v, APIKeys: [%d MASKED]}, "+
		"Logging: {Level: %q, Format: %q}}",
		c.Server.Addr(),
		c.Source.MaxBytes, c.Source.AllowLocal, c.Source.AllowPrivate, c.Source.DefaultSource,
		c.Session.TTL, c.Session.MaxSessions,
		c.Load.MaxConcurrent, c.Load.MaxWait,
		c.Export.CSVBOM,
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.LoadLimit,
		c.Security.RequireAPIKey, len(c.Security.APIKeys),
		c.Logging.Level, c.Logging.Format,
	)
}
