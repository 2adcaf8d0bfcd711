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
	Raster   RasterConfig   `yaml:"raster" mapstructure:"raster"`
	Boundary BoundaryConfig `yaml:"boundary" mapstructure:"boundary"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// RasterConfig locates the gridded climate dataset.
type RasterConfig struct {
	// PathTemplate is a file path with a {var} placeholder substituted by the
	// variable's short code, e.g. "data/{var}_ens_mean_0.1deg_reg_v29.0e.nc".
	PathTemplate string `yaml:"path_template" mapstructure:"path_template"`
	Variable     string `yaml:"variable" mapstructure:"variable"`
}

// BoundaryConfig configures the administrative boundary provider.
type BoundaryConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`
	Country  string `yaml:"country" mapstructure:"country"`
	Level    int    `yaml:"level" mapstructure:"level"`
}

// AnalysisConfig holds the exceedance parameters.
type AnalysisConfig struct {
	// Threshold in the raster's units; a day counts as critical only when its
	// value is strictly greater than this.
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
	Workers   int     `yaml:"workers" mapstructure:"workers"`
}

// ReportConfig configures rendered outputs.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	MapWidth  int    `yaml:"map_width" mapstructure:"map_width"`
	MapHeight int    `yaml:"map_height" mapstructure:"map_height"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HEATDAYS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("raster.path_template", "data/{var}_ens_mean_0.1deg_reg.nc")
	v.SetDefault("raster.variable", "tx")
	v.SetDefault("boundary.base_url", "https://geodata.ucdavis.edu/gadm/gadm4.1/shp")
	v.SetDefault("boundary.cache_dir", "data/gadm")
	v.SetDefault("boundary.country", "FRA")
	v.SetDefault("boundary.level", 2)
	v.SetDefault("analysis.threshold", 34.0)
	v.SetDefault("analysis.workers", 0)
	v.SetDefault("report.output_dir", "out")
	v.SetDefault("report.map_width", 900)
	v.SetDefault("report.map_height", 900)
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

// InitLogger initializes the global zap logger.
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
