package config

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCatalog = "data/SRCC_2017.csv"
	testIDDDir  = "/usr/local/EnergyPlus-9-4-0"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load([]string{testCatalog, testIDDDir}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, testCatalog, cfg.CatalogPath)
	assert.Equal(t, testIDDDir, cfg.IDDDir)
	assert.Equal(t, filepath.Join("data", DefaultOutputName), cfg.OutputPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.PublishEnabled())
	assert.Equal(t, "solar-collector-performance", cfg.KafkaSinkTopic)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load([]string{
		"-catalog", testCatalog,
		"-idd-dir", testIDDDir,
		"-out", "/tmp/collectors.idf",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, testCatalog, cfg.CatalogPath)
	assert.Equal(t, testIDDDir, cfg.IDDDir)
	assert.Equal(t, "/tmp/collectors.idf", cfg.OutputPath)
}

func TestLoad_FlagAndPositional(t *testing.T) {
	cfg, err := Load([]string{"-idd-dir", testIDDDir, testCatalog}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, testCatalog, cfg.CatalogPath)
	assert.Equal(t, testIDDDir, cfg.IDDDir)
}

func TestLoad_CatalogInWorkingDirectory(t *testing.T) {
	cfg, err := Load([]string{"catalog.csv", testIDDDir}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputName, cfg.OutputPath)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/srcc2idf.prom")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load([]string{testCatalog, testIDDDir}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/var/lib/node_exporter/srcc2idf.prom", cfg.MetricsTextfile)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.PublishEnabled())
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_MissingArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no arguments", args: nil, want: "catalog path"},
		{name: "catalog only", args: []string{testCatalog}, want: "IDD directory"},
		{name: "flag catalog only", args: []string{"-catalog", testCatalog}, want: "IDD directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args, io.Discard)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ExtraArguments(t *testing.T) {
	_, err := Load([]string{testCatalog, testIDDDir, "extra"}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extra")
}

func TestLoad_UnknownFlag(t *testing.T) {
	_, err := Load([]string{"-bogus", testCatalog, testIDDDir}, io.Discard)
	assert.Error(t, err)
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load([]string{testCatalog, testIDDDir}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load([]string{testCatalog, testIDDDir}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}
