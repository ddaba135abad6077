package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := "../../examples/avocado.yaml"
	if _, err := os.Stat(path); err != nil {
		t.Skip("examples config not present")
	}
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, SourceCSV, cfg.Source.Type)
	assert.Equal(t, []ExcludeRule{{Column: "region", Value: "TotalUS"}}, cfg.Clean.Exclude)
	assert.Equal(t, []string{"Unnamed: 0", "Date"}, cfg.Clean.Drop)
	assert.Equal(t, TransformYeoJohnson, cfg.Analysis.Transform)
	assert.True(t, cfg.Analysis.Parallel)
	assert.Equal(t, "4046", cfg.Insights.PLUColumn)
	assert.Equal(t, "Total Volume", cfg.Insights.VolumeColumn)
	assert.Len(t, cfg.Source.Columns, 2)
}

func TestLoadConfig_MySQLExample(t *testing.T) {
	path := "../../examples/mysql.yaml"
	if _, err := os.Stat(path); err != nil {
		t.Skip("examples config not present")
	}
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, SourceMySQL, cfg.Source.Type)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, SinkKafka, cfg.Sink.Type)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Sink.Brokers)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "source:\n  type: csv\n  path: data.csv\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, TransformNone, cfg.Analysis.Transform)
	assert.Equal(t, SinkText, cfg.Sink.Type)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "region", cfg.Insights.GroupBy)
	assert.Equal(t, 10, cfg.Insights.TopN)
	assert.InDelta(t, 2000*0.4*0.2/30, cfg.Insights.Budget(), 1e-12)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "source:\n  type: csv\n  path: data.csv\nlogging:\n  level: info\n")
	t.Setenv("OUTLIERWATCH_SOURCE_PATH", "other.csv")
	t.Setenv("OUTLIERWATCH_LOGGING_LEVEL", "debug")
	t.Setenv("OUTLIERWATCH_ANALYSIS_COLUMNS", "AveragePrice,4046")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "other.csv", cfg.Source.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"AveragePrice", "4046"}, cfg.Analysis.Columns)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown source", "source:\n  type: notmysql\n"},
		{"csv without path", "source:\n  type: csv\n"},
		{"sql without query", "source:\n  type: mysql\n  dsn: u@tcp(h)/db\n"},
		{"column without type", "source:\n  type: csv\n  path: a.csv\n  columns:\n    - name: x\n"},
		{"bad transform", "source:\n  type: csv\n  path: a.csv\nanalysis:\n  transform: box-cox\n"},
		{"xlsx without path", "source:\n  type: csv\n  path: a.csv\nsink:\n  type: xlsx\n"},
		{"kafka without topic", "source:\n  type: csv\n  path: a.csv\nsink:\n  type: kafka\n  brokers: [b:9092]\n"},
		{"bad level", "source:\n  type: csv\n  path: a.csv\nlogging:\n  level: loud\n"},
		{"exclude without column", "source:\n  type: csv\n  path: a.csv\nclean:\n  exclude:\n    - value: TotalUS\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("")
	require.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"Unnamed: 0", "Date"}, cfg.Clean.Drop)
	assert.True(t, cfg.Insights.Enabled)
}
