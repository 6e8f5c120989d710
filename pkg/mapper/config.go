package mapper

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages mapper configuration using Viper
type Config struct {
	v   *viper.Viper
	out io.Writer
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Mapping parameters; an empty strategy is assembled from the other keys
	v.SetDefault("mapping.strategy", "")
	v.SetDefault("mapping.bipart_strategy", "")
	v.SetDefault("mapping.policy", "ngsize")
	v.SetDefault("mapping.job_tie", true)
	v.SetDefault("mapping.map_tie", true)
	v.SetDefault("mapping.parallel", false)
	v.SetDefault("mapping.external_gains", true)

	v.SetDefault("algorithm.random_seed", time.Now().UnixNano())

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", true)

	v.SetDefault("analysis.track_moves", false)
	v.SetDefault("analysis.output_file", "moves.jsonl")

	return &Config{v: v, out: os.Stderr}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Getters for mapping parameters
func (c *Config) Strategy() string       { return c.v.GetString("mapping.strategy") }
func (c *Config) BipartStrategy() string { return c.v.GetString("mapping.bipart_strategy") }
func (c *Config) Policy() string         { return c.v.GetString("mapping.policy") }
func (c *Config) JobTie() bool           { return c.v.GetBool("mapping.job_tie") }
func (c *Config) MapTie() bool           { return c.v.GetBool("mapping.map_tie") }
func (c *Config) Parallel() bool         { return c.v.GetBool("mapping.parallel") }
func (c *Config) ExternalGains() bool    { return c.v.GetBool("mapping.external_gains") }

func (c *Config) RandomSeed() int64 { return c.v.GetInt64("algorithm.random_seed") }

func (c *Config) LogLevel() string     { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }

func (c *Config) EnableMoveTracking() bool   { return c.v.GetBool("analysis.track_moves") }
func (c *Config) TrackingOutputFile() string { return c.v.GetString("analysis.output_file") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// SetLogOutput redirects the logs of the mapper, standard error by default.
func (c *Config) SetLogOutput(w io.Writer) {
	c.out = w
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        c.out,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "mapper").Logger()
}
