package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/KevinKickass/VirtualSpectrometer/internal/types"
	"github.com/spf13/viper"
)

// EnvConfigPath names the variable that overrides the config file location.
const EnvConfigPath = "VSPEC_CONFIG"

const DefaultPath = "configs/config.yaml"

type Config struct {
	Server    ServerConfig            `mapstructure:"server"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Profiles  ProfilesConfig          `mapstructure:"device_profiles"`
	Waveform  types.WaveformConfig    `mapstructure:"waveform"`
	Streaming StreamingConfig         `mapstructure:"streaming"`
	Devices   []types.ConnectedDevice `mapstructure:"devices"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type ProfilesConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

// StreamingConfig drives the free-running acquisition loop per device.
type StreamingConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// Path returns the config file to load: VSPEC_CONFIG if set, DefaultPath otherwise.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults setzen
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("device_profiles.search_paths", []string{"./configs/profiles"})
	v.SetDefault("waveform.strategy", "analytic")
	v.SetDefault("streaming.enabled", false)
	v.SetDefault("streaming.interval", "1s")

	// VSPEC_SERVER_HTTP_PORT -> server.http_port
	v.SetEnvPrefix("VSPEC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid server.http_port %d", c.Server.HTTPPort)
	}
	if c.Streaming.Enabled && c.Streaming.Interval <= 0 {
		return fmt.Errorf("streaming.interval must be positive, got %s", c.Streaming.Interval)
	}

	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("devices[%d]: name is required", i)
		}
		if d.Profile == "" {
			return fmt.Errorf("device %s: profile is required", d.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("device %s: duplicate name", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}
