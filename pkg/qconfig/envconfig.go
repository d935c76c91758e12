package qconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/quatton/pbsub/pkg/kv"
	"github.com/quatton/pbsub/pkg/qart"
)

// BackendEnv holds credentials for the optional archive and record stores.
// Variables are read with the PBSUB_ prefix, e.g. PBSUB_S3_ENDPOINT.
type BackendEnv struct {
	Environment    string `envconfig:"ENVIRONMENT" default:"development"`
	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey    string `envconfig:"S3_SECRET_KEY"`
	S3Bucket       string `envconfig:"S3_BUCKET" default:"pbsub"`
	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	S3UseSSL       bool   `envconfig:"S3_USE_SSL" default:"false"`
	S3Prefix       string `envconfig:"S3_PREFIX"`
	ValkeyAddr     string `envconfig:"VALKEY_ADDR" default:"localhost:6379"`
	ValkeyPassword string `envconfig:"VALKEY_PASSWORD"`
	ValkeyDB       int    `envconfig:"VALKEY_DB" default:"0"`
}

// IsDev reports whether PBSUB_ENVIRONMENT selects development (the default).
func IsDev() bool {
	env := strings.ToLower(os.Getenv(EnvPrefix + "_ENVIRONMENT"))
	return env == "development" || env == "dev" || env == ""
}

// LoadBackendEnv reads backend credentials from the environment, loading a
// .env file first in development. Only the backends the config enables are
// validated.
func LoadBackendEnv(cfg *Config) (*BackendEnv, error) {
	if IsDev() {
		// a missing .env is normal
		_ = godotenv.Load()
	}

	var env BackendEnv
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var errors []string

	if cfg.Archive.Enabled {
		if env.S3Endpoint == "" {
			errors = append(errors, "  ❌ PBSUB_S3_ENDPOINT is required when archive.enabled is set")
		}
		if (env.S3AccessKey == "") != (env.S3SecretKey == "") {
			errors = append(errors, "  ❌ Both PBSUB_S3_ACCESS_KEY and PBSUB_S3_SECRET_KEY must be set together")
		}
	}

	if cfg.KV.Backend == BackendValkey && env.ValkeyAddr == "" {
		errors = append(errors, "  ❌ PBSUB_VALKEY_ADDR is required when kv.backend is valkey")
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return &env, nil
}

// S3Config converts the environment into a qart.S3Config.
func (e *BackendEnv) S3Config() qart.S3Config {
	return qart.S3Config{
		Endpoint:  e.S3Endpoint,
		AccessKey: e.S3AccessKey,
		SecretKey: e.S3SecretKey,
		Bucket:    e.S3Bucket,
		Region:    e.S3Region,
		UseSSL:    e.S3UseSSL,
		Prefix:    e.S3Prefix,
	}
}

// ValkeyConfig converts the environment into a kv.ValkeyConfig.
func (e *BackendEnv) ValkeyConfig() kv.ValkeyConfig {
	return kv.ValkeyConfig{
		Addr:     e.ValkeyAddr,
		Password: e.ValkeyPassword,
		DB:       e.ValkeyDB,
	}
}

func MaskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// Print writes the effective configuration with secrets masked.
func Print(fmtr func(string, ...interface{}), cfg *Config, env *BackendEnv) {
	fmtr("📋 Configuration:\n")
	if f := cfg.ConfigFileUsed(); f != "" {
		fmtr("  Config file: %s\n", f)
	}
	fmtr("  qsub: %s\n", cfg.Qsub)
	fmtr("  Working dir: %s\n", cfg.WorkDir)
	fmtr("  Memory hint: %d MB\n", cfg.Memory)
	fmtr("  Log level: %s\n", cfg.LogLevel)
	fmtr("  Lock TTL: %s\n", cfg.LockTTL)
	fmtr("  Record TTL: %s\n", cfg.RecordTTL)
	fmtr("  KV backend: %s\n", cfg.KV.Backend)

	if env == nil {
		return
	}

	if cfg.KV.Backend == BackendValkey {
		fmtr("    Valkey: %s db=%d password=%s\n", env.ValkeyAddr, env.ValkeyDB, MaskSecret(env.ValkeyPassword))
	}

	if cfg.Archive.Enabled {
		fmtr("  Archive: ✓ Enabled\n")
		fmtr("    Endpoint: %s (ssl=%t)\n", env.S3Endpoint, env.S3UseSSL)
		fmtr("    Bucket: %s\n", env.S3Bucket)
		if env.S3Prefix != "" {
			fmtr("    Key prefix: %s\n", env.S3Prefix)
		}
		fmtr("    Access key: %s\n", MaskSecret(env.S3AccessKey))
		fmtr("    Secret key: %s\n", MaskSecret(env.S3SecretKey))
	} else {
		fmtr("  Archive: ✗ Disabled\n")
	}
}
