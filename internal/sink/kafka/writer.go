// Package kafka publishes analysis results to a Kafka topic: one message
// per analysed column keyed by column name, followed by a summary message.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/config"
	"github.com/alexanderjulianmartinez/outlier-watch/pkg/types"
)

// SummaryKey is the message key of the per-run summary.
const SummaryKey = "summary"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Sink struct {
	w       messageWriter
	topic   string
	timeout time.Duration
}

func New(cfg config.SinkConfig) *Sink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(splitBrokers(cfg.Brokers)...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Lz4,
		WriteTimeout: cfg.Timeout,
	}
	return &Sink{w: w, topic: cfg.Topic, timeout: cfg.Timeout}
}

func (s *Sink) Name() string {
	return "kafka:" + s.topic
}

func (s *Sink) Write(ctx context.Context, res *types.AnalysisResult) error {
	msgs, err := messages(res)
	if err != nil {
		return err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.w.Close()
}

type columnMessage struct {
	Source string `json:"source"`
	types.ColumnResult
}

type summaryMessage struct {
	Source         string            `json:"source"`
	RowsIn         int               `json:"rowsIn"`
	RowsAfterClean int               `json:"rowsAfterClean"`
	RowsOut        int               `json:"rowsOut"`
	RowsRemoved    int               `json:"rowsRemoved"`
	Transform      string            `json:"transform"`
	Columns        []string          `json:"columns"`
	NullCounts     []types.NullCount `json:"nullCounts"`
	Insights       *types.Insights   `json:"insights,omitempty"`
	Warnings       []string          `json:"warnings,omitempty"`
}

// messages builds the column messages in result order and appends the
// summary last. Every message carries a "kind" header.
func messages(res *types.AnalysisResult) ([]kafka.Message, error) {
	out := make([]kafka.Message, 0, len(res.Columns)+1)
	names := make([]string, 0, len(res.Columns))
	for _, c := range res.Columns {
		value, err := json.Marshal(columnMessage{Source: res.Source, ColumnResult: c})
		if err != nil {
			return nil, fmt.Errorf("encode column %s: %w", c.Column, err)
		}
		out = append(out, kafka.Message{
			Key:     []byte(c.Column),
			Value:   value,
			Headers: []kafka.Header{{Key: "kind", Value: []byte("column")}},
		})
		names = append(names, c.Column)
	}

	value, err := json.Marshal(summaryMessage{
		Source:         res.Source,
		RowsIn:         res.RowsIn,
		RowsAfterClean: res.RowsAfterClean,
		RowsOut:        res.RowsOut,
		RowsRemoved:    res.RowsRemoved(),
		Transform:      res.Transform,
		Columns:        names,
		NullCounts:     res.NullCounts,
		Insights:       res.Insights,
		Warnings:       res.Warnings,
	})
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	out = append(out, kafka.Message{
		Key:     []byte(SummaryKey),
		Value:   value,
		Headers: []kafka.Header{{Key: "kind", Value: []byte(SummaryKey)}},
	})
	return out, nil
}

// splitBrokers accepts entries that are themselves comma separated lists
// and drops blanks.
func splitBrokers(entries []string) []string {
	var out []string
	for _, entry := range entries {
		for _, b := range strings.Split(entry, ",") {
			if b = strings.TrimSpace(b); b != "" {
				out = append(out, b)
			}
		}
	}
	return out
}
