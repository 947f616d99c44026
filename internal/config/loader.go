// Package config provides configuration management for the F1 predictor.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "F1PREDICT"

// DefaultRoster is the entry list used when neither qualifying nor the
// previous round names the field.
var DefaultRoster = []string{
	"VER", "PER", "LEC", "SAI", "NOR", "PIA", "HAM", "RUS", "ALO", "STR",
	"TSU", "RIC", "ALB", "SAR", "ZHO", "BOT", "MAG", "HUL", "GAS", "OCO",
}

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for every field.
// A missing file is not an error; the defaults and environment are used.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// LoadDotEnv exports the variables of a dotenv file that are not already set.
// A missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return fmt.Errorf("failed to export %s: %w", name, err)
		}
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The forecast key keeps its conventional unprefixed name.
	_ = v.BindEnv("weather.api_key", envPrefix+"_WEATHER_API_KEY", "OPENWEATHER_API_KEY")
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if len(cfg.Roster.Fallback) == 0 && !v.IsSet("roster.fallback") {
		cfg.Roster.Fallback = append([]string(nil), DefaultRoster...)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "f1predict")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("data_source.jolpica_url", "https://api.jolpi.ca/ergast/f1")
	v.SetDefault("data_source.openf1_url", "https://api.openf1.org/v1")
	v.SetDefault("data_source.timeout_seconds", 30)
	v.SetDefault("data_source.max_retries", 3)
	v.SetDefault("data_source.rate_limit", 4.0)
	v.SetDefault("data_source.cache_ttl_minutes", 60)

	v.SetDefault("weather.api_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("weather.timeout_seconds", 5)

	v.SetDefault("models.dir", "models")

	v.SetDefault("training.estimators", 100)
	v.SetDefault("training.learning_rate", 0.1)
	v.SetDefault("training.max_depth", 3)
	v.SetDefault("training.min_samples_leaf", 2)

	v.SetDefault("stats.avg_finish_window", 5)
	v.SetDefault("stats.reliability_window", 20)

	v.SetDefault("practice.min_stint_laps", 5)
	v.SetDefault("practice.quick_lap_threshold", 1.07)

	v.SetDefault("defaults.track_temp", 25.0)
	v.SetDefault("defaults.overtake_difficulty", 5.0)
	v.SetDefault("defaults.driver_avg_pos", 10.5)
	v.SetDefault("defaults.driver_dnf_rate", 0.1)
	v.SetDefault("defaults.quali_delta_teammate", 0.0)
	v.SetDefault("defaults.reliability_score", 0.95)
	v.SetDefault("defaults.race_pace", 0.0)
	v.SetDefault("defaults.tire_degradation", 0.05)
	v.SetDefault("defaults.top_speed", 310.0)
	v.SetDefault("defaults.rain_probability", 0.0)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "f1predict.db")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 4)

	v.SetDefault("publisher.channel", "f1predict:predictions")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("schedule.cron", "0 */6 * * *")
	v.SetDefault("schedule.health_port", "8080")
}
