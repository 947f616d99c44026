// Package config provides configuration management for the F1 predictor.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	DataSource DataSourceConfig `mapstructure:"data_source" validate:"required"`
	Weather    WeatherConfig    `mapstructure:"weather" validate:"required"`
	Models     ModelsConfig     `mapstructure:"models" validate:"required"`
	Training   TrainingConfig   `mapstructure:"training" validate:"required"`
	Stats      StatsConfig      `mapstructure:"stats" validate:"required"`
	Practice   PracticeConfig   `mapstructure:"practice" validate:"required"`
	Defaults   DefaultsConfig   `mapstructure:"defaults" validate:"required"`
	Roster     RosterConfig     `mapstructure:"roster"`
	Storage    StorageConfig    `mapstructure:"storage" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Publisher  PublisherConfig  `mapstructure:"publisher"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DataSourceConfig configures the session data feeds
type DataSourceConfig struct {
	JolpicaURL      string  `mapstructure:"jolpica_url" validate:"required,url"`
	OpenF1URL       string  `mapstructure:"openf1_url" validate:"required,url"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries      int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit       float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	CacheDir        string  `mapstructure:"cache_dir"`
	CacheTTLMinutes int     `mapstructure:"cache_ttl_minutes" validate:"required,gt=0"`
}

// WeatherConfig configures the forecast provider
type WeatherConfig struct {
	APIURL         string `mapstructure:"api_url" validate:"required,url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// ModelsConfig locates the model artifacts
type ModelsConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// TrainingConfig holds the boosting hyperparameters
type TrainingConfig struct {
	Estimators     int     `mapstructure:"estimators" validate:"required,gt=0"`
	LearningRate   float64 `mapstructure:"learning_rate" validate:"required,gt=0,lte=1"`
	MaxDepth       int     `mapstructure:"max_depth" validate:"required,gt=0,lte=8"`
	MinSamplesLeaf int     `mapstructure:"min_samples_leaf" validate:"required,gt=0"`
}

// StatsConfig sets the historical windows
type StatsConfig struct {
	AvgFinishWindow   int `mapstructure:"avg_finish_window" validate:"required,gt=0"`
	ReliabilityWindow int `mapstructure:"reliability_window" validate:"required,gt=0"`
}

// PracticeConfig tunes long-run detection
type PracticeConfig struct {
	MinStintLaps      int     `mapstructure:"min_stint_laps" validate:"required,gt=1"`
	QuickLapThreshold float64 `mapstructure:"quick_lap_threshold" validate:"required,gt=1"`
}

// DefaultsConfig holds every fallback value the feature builder may use.
// Population averages stand in for rookies, field constants for missing practice.
type DefaultsConfig struct {
	TrackTemp          float64 `mapstructure:"track_temp"`
	OvertakeDifficulty float64 `mapstructure:"overtake_difficulty" validate:"gte=1,lte=10"`
	DriverAvgPos       float64 `mapstructure:"driver_avg_pos" validate:"gte=1"`
	DriverDNFRate      float64 `mapstructure:"driver_dnf_rate" validate:"gte=0,lte=1"`
	QualiDeltaTeammate float64 `mapstructure:"quali_delta_teammate"`
	ReliabilityScore   float64 `mapstructure:"reliability_score" validate:"gte=0,lte=1"`
	RacePace           float64 `mapstructure:"race_pace" validate:"gte=0"`
	TireDegradation    float64 `mapstructure:"tire_degradation"`
	TopSpeed           float64 `mapstructure:"top_speed" validate:"gte=0"`
	RainProbability    float64 `mapstructure:"rain_probability" validate:"gte=0,lte=1"`
}

// RosterConfig holds the entry list used when no event data names one
type RosterConfig struct {
	Fallback []string `mapstructure:"fallback" validate:"drivercodes"`
}

// StorageConfig selects where prediction runs are recorded
type StorageConfig struct {
	Driver     string `mapstructure:"driver" validate:"required,storagedriver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig represents PostgreSQL connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
}

// PublisherConfig configures Redis publication of scheduled runs
type PublisherConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	RedisURL string `mapstructure:"redis_url"`
	Channel  string `mapstructure:"channel"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Path     string `mapstructure:"path"`
	Textfile string `mapstructure:"textfile"`
}

// ScheduleConfig configures the watch command
type ScheduleConfig struct {
	Cron       string `mapstructure:"cron"`
	HealthPort string `mapstructure:"health_port"`
}

// SecretsConfig enables the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// CacheDir returns the session cache directory, defaulting under the user cache dir.
func (c *Config) CacheDir() string {
	if c.DataSource.CacheDir != "" {
		return c.DataSource.CacheDir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "f1predict")
}

// DataSourceTimeout returns the HTTP timeout for session data requests.
func (c *Config) DataSourceTimeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutSeconds) * time.Second
}

// WeatherTimeout returns the bound on a single forecast fetch.
func (c *Config) WeatherTimeout() time.Duration {
	return time.Duration(c.Weather.TimeoutSeconds) * time.Second
}

// CacheTTL returns the in-memory cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.DataSource.CacheTTLMinutes) * time.Minute
}
