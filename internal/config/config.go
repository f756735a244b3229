package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageRemote = "remote"
	StorageMinio  = "minio"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		IdleTimeout  time.Duration `yaml:"idleTimeout"`
		CORSOrigins  []string      `yaml:"corsOrigins"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`

	LLM struct {
		Provider   string        `yaml:"provider"` // azure | openai
		BaseURL    string        `yaml:"baseURL"`
		APIKey     string        `yaml:"apiKey"`
		Model      string        `yaml:"model"` // deployment id for azure
		APIVersion string        `yaml:"apiVersion"`
		Timeout    time.Duration `yaml:"timeout"`
		// ReasoningModel drops temperature and sends max_completion_tokens.
		ReasoningModel bool `yaml:"reasoningModel"`
	} `yaml:"llm"`

	Documents struct {
		CredentialURL  string        `yaml:"credentialURL"`
		ExtractURL     string        `yaml:"extractURL"`
		MaxUploadBytes int64         `yaml:"maxUploadBytes"`
		PreviewChars   int           `yaml:"previewChars"`
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"documents"`

	Storage struct {
		Provider string `yaml:"provider"` // remote | minio
		Minio    struct {
			Endpoint     string        `yaml:"endpoint"`
			AccessKey    string        `yaml:"accessKey"`
			SecretKey    string        `yaml:"secretKey"`
			BucketName   string        `yaml:"bucketName"`
			Region       string        `yaml:"region"`
			UseSSL       bool          `yaml:"useSSL"`
			Prefix       string        `yaml:"prefix"`
			Expiry       time.Duration `yaml:"expiry"`
			EnsureBucket bool          `yaml:"ensureBucket"`
		} `yaml:"minio"`
	} `yaml:"storage"`

	Limits struct {
		MaxTextChars      int     `yaml:"maxTextChars"`
		RequestsPerSecond float64 `yaml:"requestsPerSecond"`
		Burst             int     `yaml:"burst"`
	} `yaml:"limits"`
}

// Load reads the YAML file at path (skipped when path is empty), applies
// secrets from the environment and a local .env, fills defaults and
// validates the result.
func Load(path string) (*Config, error) {
	// .env is optional; deployments set real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.LLM.APIKey, "LLM_API_KEY")
	setFromEnv(&c.LLM.BaseURL, "LLM_BASE_URL")
	setFromEnv(&c.LLM.Model, "LLM_MODEL")
	setFromEnv(&c.Storage.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setFromEnv(&c.Storage.Minio.SecretKey, "MINIO_SECRET_KEY")
	setFromEnv(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "azure"
	}
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 90 * time.Second
	}
	if c.Documents.MaxUploadBytes == 0 {
		c.Documents.MaxUploadBytes = 10 << 20
	}
	if c.Documents.PreviewChars == 0 {
		c.Documents.PreviewChars = 500
	}
	if c.Documents.Timeout == 0 {
		c.Documents.Timeout = 60 * time.Second
	}
	// A document analysis runs three document calls and one llm call in
	// sequence; the response must not be cut off before they can finish.
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 3*c.Documents.Timeout + c.LLM.Timeout + 30*time.Second
	}
	if c.Storage.Provider == "" {
		c.Storage.Provider = StorageRemote
	}
	c.Storage.Provider = strings.ToLower(c.Storage.Provider)
	if c.Storage.Minio.Expiry == 0 {
		c.Storage.Minio.Expiry = 15 * time.Minute
	}
	if c.Limits.MaxTextChars == 0 {
		c.Limits.MaxTextChars = 10000
	}
	if c.Limits.RequestsPerSecond == 0 {
		c.Limits.RequestsPerSecond = 2
	}
	if c.Limits.Burst == 0 {
		c.Limits.Burst = 5
	}
}

// validate reports every problem at once.
func (c *Config) validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535 (got: %d)", c.Server.Port))
	}

	switch c.LLM.Provider {
	case "azure":
		if c.LLM.BaseURL == "" {
			errs = append(errs, errors.New("llm.baseURL (or LLM_BASE_URL) is required for the azure provider"))
		}
	case "openai":
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be one of: azure, openai (got: %s)", c.LLM.Provider))
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("LLM_API_KEY is required"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model (or LLM_MODEL) is required"))
	}

	if c.Documents.ExtractURL == "" {
		errs = append(errs, errors.New("documents.extractURL is required"))
	}
	if c.Documents.MaxUploadBytes < 0 {
		errs = append(errs, errors.New("documents.maxUploadBytes must be positive"))
	}

	switch c.Storage.Provider {
	case StorageRemote:
		if c.Documents.CredentialURL == "" {
			errs = append(errs, errors.New("documents.credentialURL is required for the remote storage provider"))
		}
	case StorageMinio:
		m := c.Storage.Minio
		if m.Endpoint == "" || m.BucketName == "" {
			errs = append(errs, errors.New("storage.minio.endpoint and storage.minio.bucketName are required"))
		}
		if m.AccessKey == "" || m.SecretKey == "" {
			errs = append(errs, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.provider must be one of: remote, minio (got: %s)", c.Storage.Provider))
	}

	if c.Limits.MaxTextChars < 0 || c.Limits.RequestsPerSecond < 0 || c.Limits.Burst < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%w", errors.Join(errs...))
	}
	return nil
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
