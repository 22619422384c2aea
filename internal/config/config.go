// Package config loads application configuration from config.yaml and
// OCCMAP_* environment variables, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Map    MapConfig    `yaml:"map" mapstructure:"map"`
	Render RenderConfig `yaml:"render" mapstructure:"render"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// MapConfig configures the geospatial pipeline.
type MapConfig struct {
	TargetEPSG     int      `yaml:"target_epsg" mapstructure:"target_epsg"`
	NameKey        string   `yaml:"name_key" mapstructure:"name_key"`
	GroupKey       string   `yaml:"group_key" mapstructure:"group_key"`
	ExcludeRegions []string `yaml:"exclude_regions" mapstructure:"exclude_regions"`
	LatColumn      string   `yaml:"lat_column" mapstructure:"lat_column"`
	LonColumn      string   `yaml:"lon_column" mapstructure:"lon_column"`
	SpeciesColumn  string   `yaml:"species_column" mapstructure:"species_column"`
	Delimiter      string   `yaml:"delimiter" mapstructure:"delimiter"`
}

// RenderConfig configures output image generation.
type RenderConfig struct {
	OutputDir    string  `yaml:"output_dir" mapstructure:"output_dir"`
	WidthInches  float64 `yaml:"width_inches" mapstructure:"width_inches"`
	HeightInches float64 `yaml:"height_inches" mapstructure:"height_inches"`
	DPI          int     `yaml:"dpi" mapstructure:"dpi"`
	RampLow      string  `yaml:"ramp_low" mapstructure:"ramp_low"`
	RampHigh     string  `yaml:"ramp_high" mapstructure:"ramp_high"`
}

// StoreConfig configures the optional run store. An empty driver
// disables persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml (optional) and the
// environment, applying defaults for everything else.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OCCMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("map.target_epsg", 4326)
	v.SetDefault("map.name_key", "NAME")
	v.SetDefault("map.group_key", "STUSPS")
	v.SetDefault("map.exclude_regions", []string{"Alaska", "Hawaii", "Puerto Rico"})
	v.SetDefault("map.lat_column", "decimalLatitude")
	v.SetDefault("map.lon_column", "decimalLongitude")
	v.SetDefault("map.species_column", "species")
	v.SetDefault("map.delimiter", ",")
	v.SetDefault("render.output_dir", ".")
	v.SetDefault("render.width_inches", 12.0)
	v.SetDefault("render.height_inches", 7.0)
	v.SetDefault("render.dpi", 150)
	v.SetDefault("render.ramp_low", "#FFFFFF")
	v.SetDefault("render.ramp_high", "#FFBF00")
	v.SetDefault("store.driver", "")
	v.SetDefault("store.path", "occmap.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger builds the global zap logger from LogConfig.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
