// Package config loads the geotask client configuration from config.yaml in
// the configuration directory, with GEOTASK_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/geotask/internal/logging"
	"github.com/mesh-intelligence/geotask/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "GEOTASK"
)

// Location sources.
const (
	SourceIP     = "ip"
	SourceStatic = "static"
	SourceNone   = "none"
)

// Configuration errors.
var (
	ErrInvalidAPIURL  = errors.New("api_url must be an absolute http(s) URL")
	ErrUnknownSource  = errors.New("unknown location source")
	ErrInvalidTimeout = errors.New("timeouts must be positive")
	ErrStaticNoCoords = errors.New("static location source needs latitude and longitude")
)

// Config is the full client configuration.
type Config struct {
	APIURL         string         `mapstructure:"api_url" yaml:"api_url"`
	RequestTimeout time.Duration  `mapstructure:"request_timeout" yaml:"request_timeout"`
	DataDir        string         `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	Log            logging.Config `mapstructure:"log" yaml:"log"`
	Location       LocationConfig `mapstructure:"location" yaml:"location"`
	Map            MapConfig      `mapstructure:"map" yaml:"map"`
}

// LocationConfig selects and tunes the position source.
type LocationConfig struct {
	Source       string        `mapstructure:"source" yaml:"source"`
	Latitude     float64       `mapstructure:"latitude" yaml:"latitude"`
	Longitude    float64       `mapstructure:"longitude" yaml:"longitude"`
	Accuracy     float64       `mapstructure:"accuracy" yaml:"accuracy"`
	IPEndpoint   string        `mapstructure:"ip_endpoint" yaml:"ip_endpoint"`
	HighAccuracy bool          `mapstructure:"high_accuracy" yaml:"high_accuracy"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaximumAge   time.Duration `mapstructure:"maximum_age" yaml:"maximum_age"`
	Cache        bool          `mapstructure:"cache" yaml:"cache"`
	History      int           `mapstructure:"history" yaml:"history"`
}

// MapConfig holds the fallback centers used when no position is available.
type MapConfig struct {
	CenterLatitude     float64 `mapstructure:"center_latitude" yaml:"center_latitude"`
	CenterLongitude    float64 `mapstructure:"center_longitude" yaml:"center_longitude"`
	DashboardLatitude  float64 `mapstructure:"dashboard_latitude" yaml:"dashboard_latitude"`
	DashboardLongitude float64 `mapstructure:"dashboard_longitude" yaml:"dashboard_longitude"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:         "http://localhost:5000/api",
		RequestTimeout: 30 * time.Second,
		Log: logging.Config{
			Level:  "warn",
			Format: logging.FormatText,
		},
		Location: LocationConfig{
			Source:       SourceIP,
			IPEndpoint:   "http://ip-api.com/json/?fields=status,message,lat,lon",
			HighAccuracy: true,
			Timeout:      10 * time.Second,
			MaximumAge:   5 * time.Minute,
			Cache:        true,
			History:      types.DefaultFixHistory,
		},
		Map: MapConfig{
			CenterLatitude:     19.076,
			CenterLongitude:    72.8777,
			DashboardLatitude:  40.7128,
			DashboardLongitude: -74.0060,
		},
	}
}

// setDefaults registers every key so environment overrides apply to Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file_path", d.Log.FilePath)
	v.SetDefault("location.source", d.Location.Source)
	v.SetDefault("location.latitude", d.Location.Latitude)
	v.SetDefault("location.longitude", d.Location.Longitude)
	v.SetDefault("location.accuracy", d.Location.Accuracy)
	v.SetDefault("location.ip_endpoint", d.Location.IPEndpoint)
	v.SetDefault("location.high_accuracy", d.Location.HighAccuracy)
	v.SetDefault("location.timeout", d.Location.Timeout)
	v.SetDefault("location.maximum_age", d.Location.MaximumAge)
	v.SetDefault("location.cache", d.Location.Cache)
	v.SetDefault("location.history", d.Location.History)
	v.SetDefault("map.center_latitude", d.Map.CenterLatitude)
	v.SetDefault("map.center_longitude", d.Map.CenterLongitude)
	v.SetDefault("map.dashboard_latitude", d.Map.DashboardLatitude)
	v.SetDefault("map.dashboard_longitude", d.Map.DashboardLongitude)
}

// Load reads config.yaml from configDir using Viper. It creates the directory
// and a default config.yaml on first run. A missing config.yaml is not an
// error. GEOTASK_* variables override file values (GEOTASK_LOCATION_SOURCE
// for location.source), except data_dir: GEOTASK_DATA_DIR only applies when
// the file leaves it empty, and is read by paths.ResolveDataDir.
func Load(configDir string) (Config, error) {
	if err := EnsureConfigDir(configDir); err != nil {
		return Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := EnsureDefaultConfigFile(configDir); err != nil {
		return Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	// GEOTASK_DATA_DIR ranks below data_dir from the file (see
	// paths.ResolveDataDir), so read it before env lookup is enabled.
	dataDir := v.GetString("data_dir")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.DataDir = dataDir
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot check by type alone.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAPIURL, c.APIURL)
	}
	if c.RequestTimeout <= 0 || c.Location.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Location.History < 0 {
		return types.ErrInvalidHistory
	}
	switch c.Location.Source {
	case SourceIP, SourceNone:
	case SourceStatic:
		if c.Location.Latitude == 0 && c.Location.Longitude == 0 {
			return ErrStaticNoCoords
		}
	default:
		return fmt.Errorf("%w: %q (valid: ip, static, none)", ErrUnknownSource, c.Location.Source)
	}
	return nil
}

// EnsureConfigDir creates the config directory if it does not exist.
func EnsureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// EnsureDefaultConfigFile writes the default config.yaml if the file does not
// exist. It never overwrites an existing file.
func EnsureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# geotask client configuration\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}

// Path returns the config.yaml path inside configDir.
func Path(configDir string) string {
	return filepath.Join(configDir, configFileExt)
}
