package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Load applies defaults, then an optional
// YAML or TOML file named by CONFIG_FILE, then environment overrides.
type Config struct {
	Server       Server             `yaml:"server" toml:"server"`
	Database     DatabaseConfig     `yaml:"database" toml:"database"`
	Redis        RedisConfig        `yaml:"redis" toml:"redis"`
	Kafka        KafkaConfig        `yaml:"kafka" toml:"kafka"`
	Storage      StorageConfig      `yaml:"storage" toml:"storage"`
	Oracle       OracleConfig       `yaml:"oracle" toml:"oracle"`
	Verification VerificationConfig `yaml:"verification" toml:"verification"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit" toml:"rate_limit"`
	Audit        AuditConfig        `yaml:"audit" toml:"audit"`
	Logging      LoggingConfig      `yaml:"logging" toml:"logging"`
	Seed         SeedConfig         `yaml:"seed" toml:"seed"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr" toml:"addr"`
	JWTSigningKey   string        `yaml:"jwt_signing_key" toml:"jwt_signing_key"`
	JWTIssuer       string        `yaml:"jwt_issuer" toml:"jwt_issuer"`
	JWTAudience     string        `yaml:"jwt_audience" toml:"jwt_audience"`
	AdminToken      string        `yaml:"admin_token" toml:"admin_token"`
	ReadTimeout     time.Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" toml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `yaml:"url" toml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" toml:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `yaml:"url" toml:"url"`
	PoolSize     int           `yaml:"pool_size" toml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" toml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" toml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout"`
}

type KafkaConfig struct {
	Brokers        []string      `yaml:"brokers" toml:"brokers"`
	ClientID       string        `yaml:"client_id" toml:"client_id"`
	AuditTopic     string        `yaml:"audit_topic" toml:"audit_topic"`
	ProduceTimeout time.Duration `yaml:"produce_timeout" toml:"produce_timeout"`
}

// StorageConfig selects the object storage backend: "ftp" or "memory".
type StorageConfig struct {
	Backend       string        `yaml:"backend" toml:"backend"`
	Bucket        string        `yaml:"bucket" toml:"bucket"`
	PublicBaseURL string        `yaml:"public_base_url" toml:"public_base_url"`
	FTPAddr       string        `yaml:"ftp_addr" toml:"ftp_addr"`
	FTPUser       string        `yaml:"ftp_user" toml:"ftp_user"`
	FTPPassword   string        `yaml:"ftp_password" toml:"ftp_password"`
	FTPTimeout    time.Duration `yaml:"ftp_timeout" toml:"ftp_timeout"`
}

type OracleConfig struct {
	Endpoint      string        `yaml:"endpoint" toml:"endpoint"`
	APIKey        string        `yaml:"api_key" toml:"api_key"`
	Model         string        `yaml:"model" toml:"model"`
	Timeout       time.Duration `yaml:"timeout" toml:"timeout"`
	MaxImageBytes int64         `yaml:"max_image_bytes" toml:"max_image_bytes"`
}

type VerificationConfig struct {
	ImageFetchTimeout  time.Duration `yaml:"image_fetch_timeout" toml:"image_fetch_timeout"`
	MaxUploadBytes     int64         `yaml:"max_upload_bytes" toml:"max_upload_bytes"`
	DuplicateFailOpen  bool          `yaml:"duplicate_fail_open" toml:"duplicate_fail_open"`
	SuspiciousWindow   time.Duration `yaml:"suspicious_window" toml:"suspicious_window"`
	SuspiciousMaxCount int           `yaml:"suspicious_max_count" toml:"suspicious_max_count"`
	SuspiciousMinScore int           `yaml:"suspicious_min_score" toml:"suspicious_min_score"`
}

type Limit struct {
	Requests int           `yaml:"requests" toml:"requests"`
	Window   time.Duration `yaml:"window" toml:"window"`
}

type RateLimitConfig struct {
	Disabled bool  `yaml:"disabled" toml:"disabled"`
	Standard Limit `yaml:"standard" toml:"standard"`
	Strict   Limit `yaml:"strict" toml:"strict"`
}

type AuditConfig struct {
	BufferSize       int           `yaml:"buffer_size" toml:"buffer_size"`
	BreakerThreshold int           `yaml:"breaker_threshold" toml:"breaker_threshold"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown" toml:"breaker_cooldown"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// SeedConfig names a YAML file of workers and reports loaded into the
// in-memory stores when no database is configured.
type SeedConfig struct {
	File string `yaml:"file" toml:"file"`
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			JWTSigningKey:   "dev-secret-key-change-in-production",
			JWTIssuer:       "civicproof",
			JWTAudience:     "civicproof-workers",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			ClientID:       "civicproof",
			AuditTopic:     "civicproof.security-logs",
			ProduceTimeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			Backend:    "memory",
			Bucket:     "resolution-images",
			FTPTimeout: 10 * time.Second,
		},
		Oracle: OracleConfig{
			Endpoint:      "https://generativelanguage.googleapis.com/v1beta",
			Model:         "gemini-2.0-flash",
			Timeout:       15 * time.Second,
			MaxImageBytes: 10 << 20,
		},
		Verification: VerificationConfig{
			ImageFetchTimeout:  10 * time.Second,
			MaxUploadBytes:     5 << 20,
			DuplicateFailOpen:  true,
			SuspiciousWindow:   24 * time.Hour,
			SuspiciousMaxCount: 5,
			SuspiciousMinScore: 30,
		},
		RateLimit: RateLimitConfig{
			Standard: Limit{Requests: 100, Window: 15 * time.Minute},
			Strict:   Limit{Requests: 10, Window: time.Hour},
		},
		Audit: AuditConfig{
			BufferSize:       1024,
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional file and the environment.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML (.yaml/.yml) or TOML (.toml) file over cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse toml config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "CIVICPROOF_ADDR")
	setString(&cfg.Server.JWTSigningKey, "JWT_SIGNING_KEY")
	setString(&cfg.Server.JWTIssuer, "JWT_ISSUER")
	setString(&cfg.Server.JWTAudience, "JWT_AUDIENCE")
	setString(&cfg.Server.AdminToken, "ADMIN_API_TOKEN")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	setString(&cfg.Kafka.AuditTopic, "KAFKA_AUDIT_TOPIC")
	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Storage.PublicBaseURL, "STORAGE_PUBLIC_BASE_URL")
	setString(&cfg.Storage.FTPAddr, "FTP_ADDR")
	setString(&cfg.Storage.FTPUser, "FTP_USER")
	setString(&cfg.Storage.FTPPassword, "FTP_PASSWORD")
	setString(&cfg.Oracle.Endpoint, "ORACLE_ENDPOINT")
	setString(&cfg.Oracle.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Oracle.Model, "ORACLE_MODEL")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	setString(&cfg.Seed.File, "SEED_FILE")

	durations := map[string]*time.Duration{
		"ORACLE_TIMEOUT":          &cfg.Oracle.Timeout,
		"VERIFY_FETCH_TIMEOUT":    &cfg.Verification.ImageFetchTimeout,
		"SERVER_SHUTDOWN_TIMEOUT": &cfg.Server.ShutdownTimeout,
		"SERVER_WRITE_TIMEOUT":    &cfg.Server.WriteTimeout,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	if err := setBool(&cfg.RateLimit.Disabled, "RATE_LIMIT_DISABLED"); err != nil {
		return err
	}
	failClosed := !cfg.Verification.DuplicateFailOpen
	if err := setBool(&failClosed, "VERIFY_DUPLICATE_FAIL_CLOSED"); err != nil {
		return err
	}
	cfg.Verification.DuplicateFailOpen = !failClosed
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
