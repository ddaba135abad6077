// Package sink writes analysis results to their destination.
package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/config"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/sink/kafka"
	"github.com/alexanderjulianmartinez/outlier-watch/pkg/types"
)

type Sink interface {
	Name() string
	Write(ctx context.Context, res *types.AnalysisResult) error
	Close() error
}

// New builds the sink selected by cfg. Text and JSON sinks write to w.
func New(cfg config.SinkConfig, w io.Writer) (Sink, error) {
	switch cfg.Type {
	case config.SinkText, "":
		return NewText(w), nil
	case config.SinkJSON:
		return NewJSON(w), nil
	case config.SinkXLSX:
		return NewXLSX(cfg.Path), nil
	case config.SinkKafka:
		return kafka.New(cfg), nil
	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Type)
	}
}
