package qconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Qsub      string        `mapstructure:"qsub"`
	WorkDir   string        `mapstructure:"workdir"`
	Memory    int           `mapstructure:"memory"`
	LogLevel  string        `mapstructure:"logLevel"`
	LockTTL   time.Duration `mapstructure:"lockTTL"`
	RecordTTL time.Duration `mapstructure:"recordTTL"`
	Archive   ArchiveConfig `mapstructure:"archive"`
	KV        KVConfig      `mapstructure:"kv"`

	v *viper.Viper // instance-specific viper
}

type ArchiveConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type KVConfig struct {
	// Backend is "memory" or "valkey".
	Backend string `mapstructure:"backend"`
}

const (
	EnvPrefix  = "PBSUB"
	ConfigRoot = ".pbsub"

	QsubKey       = "qsub"
	WorkDirKey    = "workdir"
	MemoryKey     = "memory"
	LogLevelKey   = "logLevel"
	LockTTLKey    = "lockTTL"
	RecordTTLKey  = "recordTTL"
	ArchiveKey    = "archive.enabled"
	KVBackendKey  = "kv.backend"
	BackendMemory = "memory"
	BackendValkey = "valkey"
)

// LoadConfig creates a new Config instance with its own viper.
// With cfgFile empty, pbsub.yaml (or .yml, .pbsub.yaml) in the current
// directory is read and .pbsub/config.yaml is merged over it.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else {
		// Project config (tracked)
		for _, name := range []string{"pbsub.yaml", "pbsub.yml", ".pbsub.yaml"} {
			if _, err := os.Stat(name); err == nil {
				v.SetConfigFile(name)
				if err := v.ReadInConfig(); err != nil {
					return nil, fmt.Errorf("reading config file %s: %w", name, err)
				}
				break
			}
		}

		// Local overrides (untracked)
		localConfigPath := filepath.Join(ConfigRoot, "config.yaml")
		if _, err := os.Stat(localConfigPath); err == nil {
			v.SetConfigFile(localConfigPath)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("merging local config: %w", err)
			}
		}
	}

	setDefaults(v)

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.v = v
	return &cfg, nil
}

// Reload re-reads values from the underlying viper, picking up flags bound
// after LoadConfig.
func (c *Config) Reload() error {
	fresh, err := decode(c.v)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}

func (c *Config) validate() error {
	var problems []string
	if c.Qsub == "" {
		problems = append(problems, "qsub must not be empty")
	}
	if c.Memory < 0 {
		problems = append(problems, "memory must not be negative")
	}
	switch c.KV.Backend {
	case BackendMemory, BackendValkey:
	default:
		problems = append(problems, fmt.Sprintf("kv.backend must be %q or %q, got %q", BackendMemory, BackendValkey, c.KV.Backend))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	cwd, _ := os.Getwd()
	v.SetDefault(QsubKey, "qsub")
	v.SetDefault(WorkDirKey, cwd)
	v.SetDefault(MemoryKey, 512)
	v.SetDefault(LogLevelKey, "info")
	v.SetDefault(LockTTLKey, "10m")
	v.SetDefault(RecordTTLKey, "168h")
	v.SetDefault(ArchiveKey, false)
	v.SetDefault(KVBackendKey, BackendMemory)
}

// GetString returns a string value from the underlying viper instance
func (c *Config) GetString(key string) string {
	if c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

// Viper returns the underlying viper instance
// Useful for CLI flag binding
func (c *Config) Viper() *viper.Viper {
	return c.v
}

// ConfigFileUsed returns the config file that was used (if any)
func (c *Config) ConfigFileUsed() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}
