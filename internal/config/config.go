package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/defstat/internal/utils"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Source discovery
	DataDir          string   `mapstructure:"data_dir" yaml:"data_dir"`
	SourceURL        string   `mapstructure:"source_url" yaml:"source_url"`
	FilePattern      string   `mapstructure:"file_pattern" yaml:"file_pattern"`
	LookbackYears    int      `mapstructure:"lookback_years" yaml:"lookback_years"`
	EthnicityColumns []string `mapstructure:"ethnicity_columns" yaml:"ethnicity_columns"`

	// Charts
	Layout      string `mapstructure:"layout" yaml:"layout"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`
	ChartFormat string `mapstructure:"chart_format" yaml:"chart_format"`

	// HTTP/Retry configuration
	HTTPTimeoutSec     int     `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	HTTPRequestsPerSec float64 `mapstructure:"http_requests_per_sec" yaml:"http_requests_per_sec"`
	RetryMaxAttempts   int     `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs   int     `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs    int     `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local server
	ServerPort int `mapstructure:"server_port" yaml:"server_port"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Dir returns ~/.defstat.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "resolve home dir")
	}
	return filepath.Join(home, ".defstat"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.defstat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "mkdir config dir")
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "marshal yaml")
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return eris.Wrap(err, "write config")
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
// A .env file in the working directory, if present, feeds the environment.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DEFSTAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_dir", "./data")
	v.SetDefault("source_url", "")
	v.SetDefault("file_pattern", "defendants_%d.xlsx")
	v.SetDefault("lookback_years", 0)
	v.SetDefault("ethnicity_columns", []string{"ethnicity", "race", "race/ethnicity", "race_ethnicity", "defendant race"})
	v.SetDefault("layout", "split")
	v.SetDefault("chart_width", 480)
	v.SetDefault("chart_height", 480)
	v.SetDefault("chart_format", "svg")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("http_requests_per_sec", 2.0)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("server_port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, eris.Wrap(err, "read config")
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, eris.Wrap(err, "unmarshal config")
	}
	return &c, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(level, format string) error {
	var zapCfg zap.Config
	if format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return eris.Wrap(err, "parse log level")
	}
	zapCfg.Level.SetLevel(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
