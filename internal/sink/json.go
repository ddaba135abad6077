package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/alexanderjulianmartinez/outlier-watch/pkg/types"
)

// JSON writes the result as one indented document.
type JSON struct {
	w io.Writer
}

func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

func (j *JSON) Name() string { return "json" }

func (j *JSON) Close() error { return nil }

func (j *JSON) Write(_ context.Context, res *types.AnalysisResult) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
