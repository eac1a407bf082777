// Package config loads process configuration from an optional YAML file
// and environment variables. Environment variables override the file;
// command-line flags override both.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/justapithecus/s3lake/internal/relay"
	"github.com/justapithecus/s3lake/internal/store"
)

// Environment variable names.
const (
	EnvRegion          = "AWS_REGION"
	EnvBucket          = "S3_BUCKET_NAME"
	EnvEndpoint        = "S3_ENDPOINT_URL"
	EnvForcePathStyle  = "S3_FORCE_PATH_STYLE"
	EnvAccessKeyID     = "S3_ACCESS_KEY_ID"
	EnvSecretAccessKey = "S3_SECRET_ACCESS_KEY"
	EnvSessionToken    = "S3_SESSION_TOKEN"
	EnvVerifyChecksum  = "S3_VERIFY_CHECKSUM"
	EnvListenAddr      = "MCP_LISTEN_ADDR"
	EnvStream          = "MCP_STREAM_RESPONSES"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvAgentARN        = "AGENT_ARN"
	EnvBearerToken     = "BEARER_TOKEN"
	EnvRelayRegion     = "RELAY_REGION"
	EnvRelayTimeout    = "RELAY_TIMEOUT"

	// EnvConfigFile names a YAML file applied before the other variables.
	EnvConfigFile = "S3LAKE_CONFIG"
)

// Defaults.
const (
	DefaultRegion     = "us-east-1"
	DefaultListenAddr = "0.0.0.0:8000"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
)

// Config is the full process configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Relay  RelayConfig  `yaml:"relay"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig configures the S3 client.
type StoreConfig struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`

	// VerifyChecksum checks fetched bodies against single-part ETags.
	VerifyChecksum bool `yaml:"verify_checksum"`
}

// ClientConfig converts the store settings for store.NewS3Client.
func (s StoreConfig) ClientConfig() store.ClientConfig {
	return store.ClientConfig{
		Region:          s.Region,
		Endpoint:        s.Endpoint,
		UsePathStyle:    s.ForcePathStyle,
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		SessionToken:    s.SessionToken,
	}
}

// ServerConfig configures the HTTP tool server.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	// Stream answers clients that accept text/event-stream with SSE frames.
	Stream bool `yaml:"stream"`
}

// RelayConfig configures the stdio relay and remote test client.
type RelayConfig struct {
	AgentARN    string `yaml:"agent_arn"`
	BearerToken string `yaml:"bearer_token"`

	// Region overrides the region parsed from AgentARN.
	Region  string        `yaml:"region"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Store:  StoreConfig{Region: DefaultRegion},
		Server: ServerConfig{ListenAddr: DefaultListenAddr, Stream: true},
		Relay:  RelayConfig{Timeout: relay.DefaultTimeout},
		Log:    LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// Load builds the configuration: Default, then the YAML file named by
// S3LAKE_CONFIG (if set), then the environment.
func Load(getenv func(string) string) (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(getenv(EnvConfigFile)); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	return applyEnv(cfg, getenv)
}

// FromEnv builds a configuration from getenv, starting from Default.
// Malformed booleans and durations are an error naming the variable.
func FromEnv(getenv func(string) string) (Config, error) {
	return applyEnv(Default(), getenv)
}

// LoadFile decodes the YAML file at path over cfg. Keys absent from the
// file keep their current values; unknown keys are an error.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return decodeYAML(data, cfg)
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg Config, getenv func(string) string) (Config, error) {
	var errs []string

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q is not a boolean", key, v))
			return
		}
		*dst = b
	}

	str(EnvRegion, &cfg.Store.Region)
	str(EnvBucket, &cfg.Store.Bucket)
	str(EnvEndpoint, &cfg.Store.Endpoint)
	boolean(EnvForcePathStyle, &cfg.Store.ForcePathStyle)
	str(EnvAccessKeyID, &cfg.Store.AccessKeyID)
	str(EnvSecretAccessKey, &cfg.Store.SecretAccessKey)
	str(EnvSessionToken, &cfg.Store.SessionToken)
	boolean(EnvVerifyChecksum, &cfg.Store.VerifyChecksum)

	str(EnvListenAddr, &cfg.Server.ListenAddr)
	boolean(EnvStream, &cfg.Server.Stream)

	str(EnvLogLevel, &cfg.Log.Level)
	str(EnvLogFormat, &cfg.Log.Format)

	str(EnvAgentARN, &cfg.Relay.AgentARN)
	str(EnvBearerToken, &cfg.Relay.BearerToken)
	str(EnvRelayRegion, &cfg.Relay.Region)
	if v := strings.TrimSpace(getenv(EnvRelayTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q is not a duration", EnvRelayTimeout, v))
		} else {
			cfg.Relay.Timeout = d
		}
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	var errs []string

	if c.Store.Region == "" {
		errs = append(errs, "store region is required")
	}
	if (c.Store.AccessKeyID == "") != (c.Store.SecretAccessKey == "") {
		errs = append(errs, fmt.Sprintf("%s and %s must be set together", EnvAccessKeyID, EnvSecretAccessKey))
	}
	if c.Server.ListenAddr == "" {
		errs = append(errs, "listen address is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format: %q", c.Log.Format))
	}
	if c.Relay.Timeout <= 0 {
		errs = append(errs, "relay timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateRelay checks the settings the relay needs on top of Validate.
func (c *Config) ValidateRelay() error {
	if c.Relay.AgentARN == "" {
		return fmt.Errorf("configuration errors: %s is required", EnvAgentARN)
	}
	if _, err := relay.ParseARN(c.Relay.AgentARN); err != nil {
		return fmt.Errorf("configuration errors: %s: %w", EnvAgentARN, err)
	}
	return nil
}
