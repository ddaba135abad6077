package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/config"
	"github.com/alexanderjulianmartinez/outlier-watch/pkg/types"
)

type fakeWriter struct {
	msgs     []kafka.Message
	deadline bool
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, f.deadline = ctx.Deadline()
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func result() *types.AnalysisResult {
	return &types.AnalysisResult{
		Source:         "csv:avocado.csv",
		RowsIn:         10,
		RowsAfterClean: 8,
		RowsOut:        6,
		Transform:      config.TransformNone,
		NullCounts:     []types.NullCount{{Column: "AveragePrice", Missing: 0}},
		Columns: []types.ColumnResult{
			{Column: "AveragePrice", Outliers: 2, SkewBefore: types.Skew{Value: 0.6, Defined: true}, SkewAfter: types.Skew{Value: 0.1, Defined: true}, Severity: "MODERATE"},
			{Column: "year", SkewBefore: types.Skew{Value: math.NaN()}, SkewAfter: types.Skew{Value: math.NaN()}, Severity: "UNDEFINED"},
		},
		Warnings: []string{"something"},
	}
}

func TestMessages(t *testing.T) {
	msgs, err := messages(result())
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, "AveragePrice", string(msgs[0].Key))
	assert.Equal(t, "year", string(msgs[1].Key))
	assert.Equal(t, SummaryKey, string(msgs[2].Key))
	assert.Equal(t, "column", string(msgs[0].Headers[0].Value))
	assert.Equal(t, SummaryKey, string(msgs[2].Headers[0].Value))

	var col map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Value, &col))
	assert.Equal(t, "csv:avocado.csv", col["source"])
	assert.Equal(t, "AveragePrice", col["column"])
	assert.Equal(t, float64(2), col["outliers"])
	assert.Equal(t, 0.6, col["skewBefore"])

	require.NoError(t, json.Unmarshal(msgs[1].Value, &col))
	assert.Nil(t, col["skewBefore"])
	assert.Contains(t, col, "q1")
	assert.Nil(t, col["q1"])

	var summary map[string]any
	require.NoError(t, json.Unmarshal(msgs[2].Value, &summary))
	assert.Equal(t, float64(2), summary["rowsRemoved"])
	assert.Equal(t, []any{"AveragePrice", "year"}, summary["columns"])
	assert.NotContains(t, summary, "insights")
}

func TestSinkWrite(t *testing.T) {
	fw := &fakeWriter{}
	s := &Sink{w: fw, topic: "outliers", timeout: time.Second}
	assert.Equal(t, "kafka:outliers", s.Name())

	require.NoError(t, s.Write(context.Background(), result()))
	assert.Len(t, fw.msgs, 3)
	assert.True(t, fw.deadline)

	require.NoError(t, s.Close())
	assert.True(t, fw.closed)
}

func TestSinkWriteError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	s := &Sink{w: fw, topic: "outliers"}
	err := s.Write(context.Background(), result())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.False(t, fw.deadline)
}

func TestNew(t *testing.T) {
	s := New(config.SinkConfig{Brokers: []string{"a:9092, b:9092", " "}, Topic: "outliers", Timeout: time.Second})
	w, ok := s.w.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "outliers", w.Topic)
	assert.Equal(t, "a:9092,b:9092", w.Addr.String())
	require.NoError(t, s.Close())
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:1", "b:2", "c:3"}, splitBrokers([]string{"a:1,b:2", "", " c:3 "}))
	assert.Nil(t, splitBrokers(nil))
}
