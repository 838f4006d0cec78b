package config

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/aouyang1/go-pcrforecast"
	"github.com/aouyang1/go-pcrforecast/internal/logger"
	"github.com/aouyang1/go-pcrforecast/source"
	"github.com/aouyang1/go-pcrforecast/ssa"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "PCRFORECAST"

// Config represents the complete application configuration
type Config struct {
	Source   SourceConfig   `mapstructure:"source" yaml:"source"`
	Forecast ForecastConfig `mapstructure:"forecast" yaml:"forecast"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

// SourceConfig holds the CSV download and cache configuration
type SourceConfig struct {
	CacheDir          string  `mapstructure:"cache_dir" yaml:"cache_dir" default:"." validate:"required"`
	Refresh           bool    `mapstructure:"refresh" yaml:"refresh"`
	TestedURL         string  `mapstructure:"tested_url" yaml:"tested_url" default:"https://www.mhlw.go.jp/content/pcr_tested_daily.csv" validate:"required,url"`
	TestedFile        string  `mapstructure:"tested_file" yaml:"tested_file" default:"pcr_tested_daily.csv" validate:"required"`
	PositiveURL       string  `mapstructure:"positive_url" yaml:"positive_url" default:"https://www.mhlw.go.jp/content/pcr_positive_daily.csv" validate:"required,url"`
	PositiveFile      string  `mapstructure:"positive_file" yaml:"positive_file" default:"pcr_positive_daily.csv" validate:"required"`
	Timeout           string  `mapstructure:"timeout" yaml:"timeout" default:"30s" validate:"duration"`
	MaxRetries        int     `mapstructure:"max_retries" yaml:"max_retries" default:"3" validate:"gte=0,lte=10"`
	BaseDelay         string  `mapstructure:"base_delay" yaml:"base_delay" default:"500ms" validate:"duration"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" default:"1" validate:"gt=0"`
	BreakerFailures   uint32  `mapstructure:"breaker_failures" yaml:"breaker_failures" default:"3" validate:"gte=1"`
	BreakerTimeout    string  `mapstructure:"breaker_timeout" yaml:"breaker_timeout" default:"60s" validate:"duration"`
}

// ForecastConfig holds the pipeline and model configuration
type ForecastConfig struct {
	MovingAverageWindow int     `mapstructure:"moving_average_window" yaml:"moving_average_window" default:"7" validate:"gte=1"`
	WindowSize          int     `mapstructure:"window_size" yaml:"window_size" default:"14" validate:"gte=2"`
	SeriesLength        int     `mapstructure:"series_length" yaml:"series_length" default:"30" validate:"gtfield=WindowSize"`
	TrainSize           int     `mapstructure:"train_size" yaml:"train_size" validate:"gte=0"`
	Horizon             int     `mapstructure:"horizon" yaml:"horizon" default:"90" validate:"gte=1"`
	ConfidenceLevel     float64 `mapstructure:"confidence_level" yaml:"confidence_level" default:"0.95" validate:"gt=0,lt=1"`
	EnergyThreshold     float64 `mapstructure:"energy_threshold" yaml:"energy_threshold" default:"0.95" validate:"gt=0,lte=1"`
	MaxRank             int     `mapstructure:"max_rank" yaml:"max_rank" validate:"gte=0"`
	AdaptationRate      float64 `mapstructure:"adaptation_rate" yaml:"adaptation_rate" default:"0.5" validate:"gt=0,lte=1"`
	Stabilize           bool    `mapstructure:"stabilize" yaml:"stabilize" default:"true"`
	DetectOutliers      bool    `mapstructure:"detect_outliers" yaml:"detect_outliers" default:"true"`
}

// OutputConfig holds how results are presented
type OutputConfig struct {
	Chart  string `mapstructure:"chart" yaml:"chart" default:"forecast.html"`
	Format string `mapstructure:"format" yaml:"format" default:"table" validate:"oneof=table json"`
	Tail   int    `mapstructure:"tail" yaml:"tail" default:"14"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `mapstructure:"output" yaml:"output" default:"stderr" validate:"required"`
}

// ServerConfig holds the HTTP service configuration
type ServerConfig struct {
	Addr         string `mapstructure:"addr" yaml:"addr" default:":8080" validate:"required"`
	ReadTimeout  string `mapstructure:"read_timeout" yaml:"read_timeout" default:"10s" validate:"duration"`
	WriteTimeout string `mapstructure:"write_timeout" yaml:"write_timeout" default:"30s" validate:"duration"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes" yaml:"max_body_bytes" default:"10485760" validate:"gt=0"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("duration", validateDuration); err != nil {
		panic(err)
	}
}

func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d >= 0
}

// Default returns the configuration with every default applied
func Default() (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to set defaults: %w", err)
	}
	return &cfg, nil
}

// Load reads configuration from an optional file and PCRFORECAST_* environment variables on
// top of the defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	setDefaults(v, "", reflect.ValueOf(cfg).Elem())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every leaf of the defaulted struct with viper so environment variables
// can override keys that do not appear in the file
func setDefaults(v *viper.Viper, prefix string, rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		key := rt.Field(i).Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		if rv.Field(i).Kind() == reflect.Struct {
			setDefaults(v, key, rv.Field(i))
			continue
		}
		v.SetDefault(key, rv.Field(i).Interface())
	}
}

// Validate checks struct level rules and then the model options they map to
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.ForecastOptions().Validate(); err != nil {
		return fmt.Errorf("invalid forecast config: %w", err)
	}
	return nil
}

// ForecastOptions maps the forecast section onto the pipeline options
func (c *Config) ForecastOptions() *pcrforecast.Options {
	f := c.Forecast
	opt := &pcrforecast.Options{
		MovingAverageWindow: f.MovingAverageWindow,
		SSAOptions: &ssa.Options{
			WindowSize:      f.WindowSize,
			SeriesLength:    f.SeriesLength,
			TrainSize:       f.TrainSize,
			Horizon:         f.Horizon,
			ConfidenceLevel: f.ConfidenceLevel,
			EnergyThreshold: f.EnergyThreshold,
			MaxRank:         f.MaxRank,
			AdaptationRate:  f.AdaptationRate,
			Stabilize:       f.Stabilize,
		},
	}
	if f.DetectOutliers {
		opt.OutlierOptions = pcrforecast.NewOutlierOptions()
	}
	return opt
}

// FetcherOptions maps the source section onto the downloader options. Durations are validated
// on load so parse failures fall back to zero.
func (c *Config) FetcherOptions() *source.FetcherOptions {
	s := c.Source
	opt := source.NewDefaultFetcherOptions()
	opt.CacheDir = s.CacheDir
	opt.Refresh = s.Refresh
	opt.Timeout = parseDuration(s.Timeout)
	opt.MaxRetries = s.MaxRetries
	opt.BaseDelay = parseDuration(s.BaseDelay)
	opt.RequestsPerSecond = s.RequestsPerSecond
	opt.BreakerFailures = s.BreakerFailures
	opt.BreakerTimeout = parseDuration(s.BreakerTimeout)
	return opt
}

// Sources returns the tested and positive sources
func (c *Config) Sources() (source.Source, source.Source) {
	tested := source.TestedDaily()
	tested.URL = c.Source.TestedURL
	tested.Filename = c.Source.TestedFile

	positive := source.PositiveDaily()
	positive.URL = c.Source.PositiveURL
	positive.Filename = c.Source.PositiveFile
	return tested, positive
}

func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return parseDuration(c.ReadTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return parseDuration(c.WriteTimeout)
}

// WriteYAML writes the effective configuration
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
