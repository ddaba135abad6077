package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g.
// OUTLIERWATCH_SOURCE_PATH or OUTLIERWATCH_LOGGING_LEVEL.
const EnvPrefix = "OUTLIERWATCH"

type Config struct {
	Source   SourceConfig   `yaml:"source" envconfig:"SOURCE"`
	Clean    CleanConfig    `yaml:"clean" envconfig:"CLEAN"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Insights InsightsConfig `yaml:"insights" envconfig:"INSIGHTS"`
	Sink     SinkConfig     `yaml:"sink" envconfig:"SINK"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

type SourceConfig struct {
	Type    string         `yaml:"type"`
	Path    string         `yaml:"path"`
	DSN     string         `yaml:"dsn"`
	Query   string         `yaml:"query"`
	Timeout time.Duration  `yaml:"timeout"`
	Columns []ColumnConfig `yaml:"columns" ignored:"true"`
}

// ColumnConfig declares the type of a source column. Undeclared columns
// are inferred from the data.
type ColumnConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type CleanConfig struct {
	Exclude []ExcludeRule `yaml:"exclude" ignored:"true"`
	Drop    []string      `yaml:"drop"`
}

// ExcludeRule drops every row whose column equals value.
type ExcludeRule struct {
	Column string `yaml:"column"`
	Value  string `yaml:"value"`
}

type AnalysisConfig struct {
	// Columns to measure; empty means every numeric column.
	Columns   []string `yaml:"columns"`
	Transform string   `yaml:"transform"`
	Parallel  bool     `yaml:"parallel"`
}

type InsightsConfig struct {
	Enabled        bool    `yaml:"enabled"`
	GroupBy        string  `yaml:"groupBy"`
	PriceColumn    string  `yaml:"priceColumn"`
	VolumeColumn   string  `yaml:"volumeColumn"`
	PLUColumn      string  `yaml:"pluColumn"`
	TopN           int     `yaml:"topN"`
	Rent           float64 `yaml:"rent"`
	FoodShare      float64 `yaml:"foodShare"`
	BreakfastShare float64 `yaml:"breakfastShare"`
	DaysPerMonth   int     `yaml:"daysPerMonth"`
	DaysPerWeek    int     `yaml:"daysPerWeek"`
}

// Budget is the daily avocado budget derived from rent.
func (c InsightsConfig) Budget() float64 {
	if c.DaysPerMonth == 0 {
		return 0
	}
	return c.Rent * c.FoodShare * c.BreakfastShare / float64(c.DaysPerMonth)
}

type SinkConfig struct {
	Type    string        `yaml:"type"`
	Path    string        `yaml:"path"`
	Brokers []string      `yaml:"brokers"`
	Topic   string        `yaml:"topic"`
	Timeout time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	SourceCSV    = "csv"
	SourceMySQL  = "mysql"
	SourceSQLite = "sqlite"

	TransformNone       = "none"
	TransformYeoJohnson = "yeo-johnson"

	SinkText  = "text"
	SinkJSON  = "json"
	SinkXLSX  = "xlsx"
	SinkKafka = "kafka"
)

// Default returns the configuration used for the avocado sales dataset.
func Default() *Config {
	cfg := &Config{
		Source: SourceConfig{Type: SourceCSV, Path: "./Dataset/avocado.csv"},
		Clean: CleanConfig{
			Exclude: []ExcludeRule{{Column: "region", Value: "TotalUS"}},
			Drop:    []string{"Unnamed: 0", "Date"},
		},
		Analysis: AnalysisConfig{Transform: TransformYeoJohnson},
		Insights: InsightsConfig{Enabled: true},
	}
	cfg.setDefaults()
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}

	_, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from OUTLIERWATCH_* environment variables.
// Unset variables leave the current values alone.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("load config from env: %w", err)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 5 * time.Second
	}
	if c.Analysis.Transform == "" {
		c.Analysis.Transform = TransformNone
	}
	if c.Sink.Type == "" {
		c.Sink.Type = SinkText
	}
	if c.Sink.Timeout == 0 {
		c.Sink.Timeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	in := &c.Insights
	if in.GroupBy == "" {
		in.GroupBy = "region"
	}
	if in.PriceColumn == "" {
		in.PriceColumn = "AveragePrice"
	}
	if in.VolumeColumn == "" {
		in.VolumeColumn = "Total Volume"
	}
	if in.PLUColumn == "" {
		in.PLUColumn = "4046"
	}
	if in.TopN == 0 {
		in.TopN = 10
	}
	if in.Rent == 0 {
		in.Rent = 2000
	}
	if in.FoodShare == 0 {
		in.FoodShare = 0.4
	}
	if in.BreakfastShare == 0 {
		in.BreakfastShare = 0.2
	}
	if in.DaysPerMonth == 0 {
		in.DaysPerMonth = 30
	}
	if in.DaysPerWeek == 0 {
		in.DaysPerWeek = 7
	}
}

func (c *Config) Validate() error {
	switch c.Source.Type {
	case SourceCSV:
		if c.Source.Path == "" {
			return errors.New("source.path is required for csv sources")
		}
	case SourceMySQL, SourceSQLite:
		if c.Source.DSN == "" {
			return fmt.Errorf("source.dsn is required for %s sources", c.Source.Type)
		}
		if c.Source.Query == "" {
			return fmt.Errorf("source.query is required for %s sources", c.Source.Type)
		}
	default:
		return errors.New("source.type must be csv, mysql or sqlite")
	}
	for _, col := range c.Source.Columns {
		if col.Name == "" {
			return errors.New("source.columns[].name is required")
		}
		if col.Type == "" {
			return fmt.Errorf("source column %s must define type", col.Name)
		}
	}

	for _, rule := range c.Clean.Exclude {
		if rule.Column == "" {
			return errors.New("clean.exclude[].column is required")
		}
	}

	switch c.Analysis.Transform {
	case TransformNone, TransformYeoJohnson:
	default:
		return fmt.Errorf("analysis.transform must be %s or %s", TransformNone, TransformYeoJohnson)
	}

	if c.Insights.TopN < 0 {
		return errors.New("insights.topN must not be negative")
	}
	if c.Insights.DaysPerMonth < 0 || c.Insights.DaysPerWeek < 0 {
		return errors.New("insights day counts must not be negative")
	}

	switch c.Sink.Type {
	case SinkText, SinkJSON:
	case SinkXLSX:
		if c.Sink.Path == "" {
			return errors.New("sink.path is required for xlsx sinks")
		}
	case SinkKafka:
		if len(c.Sink.Brokers) == 0 {
			return errors.New("sink.brokers is required for kafka sinks")
		}
		if c.Sink.Topic == "" {
			return errors.New("sink.topic is required for kafka sinks")
		}
	default:
		return errors.New("sink.type must be text, json, xlsx or kafka")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported", c.Logging.Format)
	}
	return nil
}
