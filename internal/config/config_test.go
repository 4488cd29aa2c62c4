package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// validConfig returns a config that passes Validate.
func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Source:  SourceConfig{MaxBytes: 1 << 20, FetchTimeout: time.Second},
		Session: SessionConfig{TTL: time.Hour, SweepInterval: time.Minute, MaxSessions: 10},
		Load:    LoadConfig{MaxConcurrent: 2, MaxWait: time.Second},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100, LoadLimit: 10},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Source.MaxBytes != 52428800 {
		t.Errorf("Source.MaxBytes = %d, want %d", cfg.Source.MaxBytes, 52428800)
	}
	if cfg.Source.AllowLocal {
		t.Error("Source.AllowLocal = true, want false")
	}
	if cfg.Source.AllowPrivate {
		t.Error("Source.AllowPrivate = true, want false")
	}
	if cfg.Session.TTL != time.Hour {
		t.Errorf("Session.TTL = %v, want %v", cfg.Session.TTL, time.Hour)
	}
	if cfg.Load.MaxConcurrent != 4 {
		t.Errorf("Load.MaxConcurrent = %d, want %d", cfg.Load.MaxConcurrent, 4)
	}
	if !cfg.Export.CSVBOM {
		t.Error("Export.CSVBOM = false, want true")
	}
	if cfg.Rate.RequestsPerMinute != 120 {
		t.Errorf("Rate.RequestsPerMinute = %d, want %d", cfg.Rate.RequestsPerMinute, 120)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOAD_MAX_CONCURRENT", "10")
	t.Setenv("SOURCE_ALLOW_LOCAL", "true")
	t.Setenv("SOURCE_ALLOW_PRIVATE", "true")
	t.Setenv("SHEETVIEW_DEFAULT_SOURCE", "https://example.com/book.xlsx")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Load.MaxConcurrent != 10 {
		t.Errorf("Load.MaxConcurrent = %d, want %d", cfg.Load.MaxConcurrent, 10)
	}
	if !cfg.Source.AllowLocal {
		t.Error("Source.AllowLocal = false, want true")
	}
	if !cfg.Source.AllowPrivate {
		t.Error("Source.AllowPrivate = false, want true")
	}
	if cfg.Source.DefaultSource != "https://example.com/book.xlsx" {
		t.Errorf("Source.DefaultSource = %q, want %q", cfg.Source.DefaultSource, "https://example.com/book.xlsx")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("DEFAULT_FILE_URL", "https://example.com/alt.csv")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}
	if cfg.Source.DefaultSource != "https://example.com/alt.csv" {
		t.Errorf("Source.DefaultSource = %q, want %q", cfg.Source.DefaultSource, "https://example.com/alt.csv")
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("LOAD_MAX_WAIT", "1m30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Session.TTL != 45*time.Minute {
		t.Errorf("Session.TTL = %v, want %v", cfg.Session.TTL, 45*time.Minute)
	}
	if cfg.Load.MaxWait != 90*time.Second {
		t.Errorf("Load.MaxWait = %v, want %v", cfg.Load.MaxWait, 90*time.Second)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "SESSION_TTL") {
		t.Errorf("error should mention SESSION_TTL: %v", err)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")
	t.Setenv("REQUIRE_API_KEY", "true")
	t.Setenv("API_KEYS", "k1,,k2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if !reflect.DeepEqual(cfg.Security.TrustedProxies, expected) {
		t.Errorf("TrustedProxies = %q, want %q", cfg.Security.TrustedProxies, expected)
	}
	if !reflect.DeepEqual(cfg.Security.APIKeys, []string{"k1", "k2"}) {
		t.Errorf("APIKeys = %q, want %q", cfg.Security.APIKeys, []string{"k1", "k2"})
	}
}

func TestLoadStruct_Required(t *testing.T) {
	var target struct {
		Name string `env:"SHEETVIEW_TEST_REQUIRED" required:"true"`
	}

	if err := loadStruct(reflect.ValueOf(&target).Elem()); err == nil {
		t.Fatal("loadStruct() expected error for missing required variable")
	}

	t.Setenv("SHEETVIEW_TEST_REQUIRED", "set")
	if err := loadStruct(reflect.ValueOf(&target).Elem()); err != nil {
		t.Fatalf("loadStruct() error = %v", err)
	}
	if target.Name != "set" {
		t.Errorf("Name = %q, want %q", target.Name, "set")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"zero max bytes", func(c *Config) { c.Source.MaxBytes = 0 }, "SOURCE_MAX_BYTES"},
		{"zero session ttl", func(c *Config) { c.Session.TTL = 0 }, "SESSION_TTL"},
		{"zero max sessions", func(c *Config) { c.Session.MaxSessions = 0 }, "SESSION_MAX"},
		{"zero load slots", func(c *Config) { c.Load.MaxConcurrent = 0 }, "LOAD_MAX_CONCURRENT"},
		{"rate enabled without limit", func(c *Config) { c.Rate.RequestsPerMinute = 0 }, "RATE_LIMIT_REQUESTS_PER_MINUTE"},
		{"rate disabled without limit", func(c *Config) { c.Rate = RateLimitConfig{} }, ""},
		{"api key required without keys", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"local default source", func(c *Config) { c.Source.DefaultSource = "/data/book.xlsx" }, "SOURCE_ALLOW_LOCAL"},
		{"local default source allowed", func(c *Config) {
			c.Source.DefaultSource = "/data/book.xlsx"
			c.Source.AllowLocal = true
		}, ""},
		{"remote default source", func(c *Config) { c.Source.DefaultSource = "https://host/book.xlsx" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %s: %v", tt.wantErr, err)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"::1", 443, "[::1]:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		got := cfg.Addr()
		if got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksAPIKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Security.APIKeys = []string{"super-secret-key"}

	str := cfg.String()
	if strings.Contains(str, "super-secret-key") {
		t.Error("String() should mask API keys")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1048576", 1048576, false},
		{"512KB", 512 << 10, false},
		{"50MiB", 50 << 20, false},
		{"2 gb", 2 << 30, false},
		{"10m", 10 << 20, false},
		{"100b", 100, false},
		{"lots", 0, true},
		{"-5MB", 0, true},
		{"MB", 0, true},
	}

	for _, tt := range tests {
		got, err := parseByteSize(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseByteSize(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseByteSize(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseByteSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLoad_ByteSize(t *testing.T) {
	t.Setenv("SOURCE_MAX_BYTES", "10MB")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source.MaxBytes != 10<<20 {
		t.Errorf("Source.MaxBytes = %d, want %d", cfg.Source.MaxBytes, 10<<20)
	}
}

func TestLoad_ReportsEveryBadVariable(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("SERVER_PORT", "eighty")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error")
	}
	for _, name := range []string{"SESSION_TTL", "SERVER_PORT"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should mention %s: %v", name, err)
		}
	}
}
