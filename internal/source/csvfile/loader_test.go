package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/source"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/table"
	"github.com/alexanderjulianmartinez/outlier-watch/pkg/types"
)

func TestLoadSample(t *testing.T) {
	path := "../../../testdata/avocado_sample.csv"
	if _, err := os.Stat(path); err != nil {
		t.Skip("sample dataset not present")
	}
	l := New(path, source.Declared{"year": table.Numeric})
	assert.Equal(t, "csv:"+path, l.Name())

	tbl, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, tbl.Len())

	schema := tbl.Schema()
	assert.Equal(t, "Unnamed: 0", schema.Names()[0])
	assert.Equal(t, []string{
		"Unnamed: 0", "AveragePrice", "Total Volume", "4046", "4225", "4770",
		"Total Bags", "Small Bags", "Large Bags", "XLarge Bags", "year",
	}, schema.Numeric())
	col, _, ok := schema.Lookup("Date")
	require.True(t, ok)
	assert.Equal(t, table.String, col.Kind)
}

func TestReadMissingCells(t *testing.T) {
	data := "price,region\n1.5,Albany\n,Boise\nNaN,\n"
	tbl, err := Read(context.Background(), strings.NewReader(data), nil)
	require.NoError(t, err)
	assert.Equal(t, []types.NullCount{{Column: "price", Missing: 2}, {Column: "region", Missing: 1}}, tbl.NullCounts())
}

func TestReadErrors(t *testing.T) {
	_, err := Read(context.Background(), strings.NewReader(""), nil)
	require.Error(t, err)

	_, err = Read(context.Background(), strings.NewReader("a,b\n1,2\n3\n"), nil)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Read(ctx, strings.NewReader("a\n1\n"), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "none.csv"), nil).Load(context.Background())
	require.Error(t, err)
}
