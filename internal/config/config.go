package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultOutputName is the file written beside the catalog when no output
// path is given.
const DefaultOutputName = "SolarCollectors2017.idf"

// Config holds the run settings, populated from command-line arguments and
// environment variables.
type Config struct {
	CatalogPath string
	IDDDir      string
	OutputPath  string

	LogLevel        string
	LogFormat       string
	MetricsTextfile string

	// Optional record publishing; disabled when KafkaBrokers is empty.
	KafkaBrokers    []string
	KafkaSinkTopic  string
	ShutdownTimeout time.Duration
}

// PublishEnabled reports whether records are published after the run.
func (c *Config) PublishEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load parses args (without the program name) and reads the environment,
// applying defaults where unset. The catalog path and IDD directory are taken
// from -catalog and -idd-dir, or from the first two positional arguments.
func Load(args []string, output io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("srcc2idf", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: srcc2idf [-out file.idf] <catalog.csv> <idd-dir>")
		fs.PrintDefaults()
	}

	cfg := &Config{}
	fs.StringVar(&cfg.CatalogPath, "catalog", "", "SRCC catalog CSV file")
	fs.StringVar(&cfg.IDDDir, "idd-dir", "", "directory holding Energy+.idd")
	fs.StringVar(&cfg.OutputPath, "out", "", "output IDF (default <catalog dir>/"+DefaultOutputName+")")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if cfg.CatalogPath == "" && len(rest) > 0 {
		cfg.CatalogPath, rest = rest[0], rest[1:]
	}
	if cfg.IDDDir == "" && len(rest) > 0 {
		cfg.IDDDir, rest = rest[0], rest[1:]
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}

	if cfg.CatalogPath == "" {
		return nil, errors.New("catalog path is required (-catalog or first argument)")
	}
	if cfg.IDDDir == "" {
		return nil, errors.New("IDD directory is required (-idd-dir or second argument)")
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(filepath.Dir(cfg.CatalogPath), DefaultOutputName)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg.LogLevel = sharedcfg.EnvOrDefault("LOG_LEVEL", "info")
	cfg.LogFormat = strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "text"))
	cfg.MetricsTextfile = sharedcfg.EnvOrDefault("METRICS_TEXTFILE", "")
	cfg.KafkaSinkTopic = sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "solar-collector-performance")
	cfg.ShutdownTimeout = shutdownTimeout
	if brokers := sharedcfg.EnvOrDefault("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.PublishEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}
