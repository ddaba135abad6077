package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/config"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/table"
)

// Source produces the table the analysis runs on.
type Source interface {
	Name() string
	Load(ctx context.Context) (*table.Table, error)
}

// Declared maps column names to kinds fixed by configuration. Columns that
// are not declared get their kind inferred from the data.
type Declared map[string]table.Kind

func ParseDeclared(cols []config.ColumnConfig) (Declared, error) {
	out := make(Declared, len(cols))
	for _, c := range cols {
		kind, err := table.ParseKind(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		out[c.Name] = kind
	}
	return out, nil
}

// IsMissing reports whether a raw cell denotes a missing value.
func IsMissing(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "NA", "N/A", "NaN", "nan", "null", "NULL":
		return true
	}
	return false
}
