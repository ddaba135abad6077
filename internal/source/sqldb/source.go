// Package sqldb loads a table from the result set of a SQL query. MySQL and
// SQLite drivers are registered.
package sqldb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/source"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/table"
)

// DriverName maps a configured source type to a database/sql driver name.
func DriverName(sourceType string) (string, error) {
	switch sourceType {
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported sql source %q", sourceType)
	}
}

// Open connects and pings the database within timeout.
func Open(ctx context.Context, driver, dsn string, timeout time.Duration) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s ping failed: %w", driver, err)
	}
	return db, nil
}

type Source struct {
	db       *sqlx.DB
	query    string
	declared source.Declared
}

func New(db *sqlx.DB, query string, declared source.Declared) *Source {
	return &Source{db: db, query: query, declared: declared}
}

func (s *Source) Name() string {
	return s.db.DriverName()
}

// Load runs the query. Column kinds come from the declared set first, then
// from the database type name, and are inferred from the values when the
// driver reports no type (e.g. computed expressions). NULL is missing.
func (s *Source) Load(ctx context.Context) (*table.Table, error) {
	rows, err := s.db.QueryxContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	header := make([]string, len(colTypes))
	kinds := source.Declared{}
	for i, ct := range colTypes {
		header[i] = ct.Name()
		if k, ok := s.declared[ct.Name()]; ok {
			kinds[ct.Name()] = k
		} else if k, ok := KindForDatabaseType(ct.DatabaseTypeName()); ok {
			kinds[ct.Name()] = k
		}
	}

	var records [][]string
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = format(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return source.FromStrings(header, records, kinds)
}

var numericTypes = map[string]bool{
	"TINYINT":   true,
	"SMALLINT":  true,
	"MEDIUMINT": true,
	"INT":       true,
	"INTEGER":   true,
	"BIGINT":    true,
	"INT2":      true,
	"INT4":      true,
	"INT8":      true,
	"FLOAT":     true,
	"FLOAT4":    true,
	"FLOAT8":    true,
	"DOUBLE":    true,
	"REAL":      true,
	"DECIMAL":   true,
	"DEC":       true,
	"FIXED":     true,
	"NUMERIC":   true,
}

// KindForDatabaseType maps a driver type name such as "DECIMAL(10,2)" or
// MySQL's "UNSIGNED BIGINT" onto a column kind by its base type. ok is
// false when the name is empty.
func KindForDatabaseType(name string) (table.Kind, bool) {
	base, _, _ := strings.Cut(strings.ToUpper(strings.TrimSpace(name)), "(")
	fields := strings.Fields(base)
	if len(fields) == 0 {
		return table.String, false
	}
	if len(fields) > 1 && (fields[0] == "UNSIGNED" || fields[0] == "SIGNED") {
		fields = fields[1:]
	}
	if numericTypes[fields[0]] {
		return table.Numeric, true
	}
	return table.String, true
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
