package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. DYNAI_PREDICTOR_ENDPOINT.
const EnvPrefix = "DYNAI"

type Config struct {
	Predictor struct {
		Endpoint      string            `mapstructure:"endpoint"`
		Timeout       time.Duration     `mapstructure:"timeout"`
		Headers       map[string]string `mapstructure:"headers"`
		SecurityGroup string            `mapstructure:"security_group"`
	} `mapstructure:"predictor"`

	// Retry applies to message submission only.
	Retry struct {
		MaxAttempts int           `mapstructure:"max_attempts"`
		BaseDelay   time.Duration `mapstructure:"base_delay"`
		MaxDelay    time.Duration `mapstructure:"max_delay"`
	} `mapstructure:"retry"`

	Similarity struct {
		AccuracyLimit    float64 `mapstructure:"accuracy_limit"`
		BlockLimit       int     `mapstructure:"block_limit"`
		PredictThreshold int     `mapstructure:"predict_threshold"` // 0-100
	} `mapstructure:"similarity"`

	Session struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"session"`

	// State selects where session state is kept between CLI invocations.
	State struct {
		Driver string `mapstructure:"driver"` // memory, sqlite or postgres
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"state"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // text or json
	} `mapstructure:"log"`

	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"server"`
}

// Addr returns the listen address for the HTTP API.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("predictor.endpoint", "")
	v.SetDefault("predictor.timeout", 30*time.Second)
	v.SetDefault("predictor.security_group", "default")

	v.SetDefault("retry.max_attempts", 10)
	v.SetDefault("retry.base_delay", 100*time.Millisecond)
	v.SetDefault("retry.max_delay", 5*time.Second)

	v.SetDefault("similarity.accuracy_limit", 0.6)
	v.SetDefault("similarity.block_limit", 2)
	v.SetDefault("similarity.predict_threshold", 75)

	v.SetDefault("session.name", "default")

	v.SetDefault("state.driver", "sqlite")
	v.SetDefault("state.dsn", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
}

// LoadConfig reads configuration from configFile when set, otherwise from
// config.yaml in the working directory or $HOME/.dynai. Environment variables
// override file values; a missing config file is not an error.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.dynai")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return &config, nil
}
