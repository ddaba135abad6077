// Package csvfile loads a table from a CSV file with a header row.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/source"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/table"
)

type Loader struct {
	path     string
	declared source.Declared
}

func New(path string, declared source.Declared) *Loader {
	return &Loader{path: path, declared: declared}
}

func (l *Loader) Name() string {
	return "csv:" + l.path
}

func (l *Loader) Load(ctx context.Context) (*table.Table, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return Read(ctx, f, l.declared)
}

// Read parses CSV from r. The first record is the header.
func Read(ctx context.Context, r io.Reader, declared source.Declared) (*table.Table, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var records [][]string
	for {
		if len(records)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, rec)
	}
	return source.FromStrings(header, records, declared)
}
