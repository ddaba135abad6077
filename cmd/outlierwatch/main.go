package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/analysis"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/config"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/logging"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/outlier"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/sink"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/source"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/source/csvfile"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/source/sqldb"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/table"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "outlierwatch error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) < 2 {
		printUsage(stdout)
		return nil
	}

	switch args[1] {
	case "analyze":
		return runAnalyze(ctx, args[2:], stdout, stderr)
	case "check":
		return runCheck(ctx, args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", args[1])
	}
}

func runAnalyze(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config.yaml (defaults apply when omitted)")
	input := fs.String("input", "", "CSV file to analyse; overrides the configured source")
	sinkType := fs.String("sink", "", "Output sink: text, json, xlsx or kafka")
	output := fs.String("output", "", "Output path for the xlsx sink")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *input != "" {
		cfg.Source.Type = config.SourceCSV
		cfg.Source.Path = *input
	}
	if *sinkType != "" {
		cfg.Sink.Type = *sinkType
	}
	if *output != "" {
		cfg.Sink.Path = *output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Logging, stderr)

	src, closeSource, err := openSource(ctx, cfg.Source)
	if err != nil {
		return err
	}
	defer closeSource()

	tbl, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", src.Name(), err)
	}
	logger.Info("loaded table",
		slog.String("source", src.Name()),
		slog.Int("rows", tbl.Len()),
		slog.Int("columns", tbl.Schema().Len()))

	res, err := analysis.Run(ctx, logger, tbl, analysis.FromConfig(cfg))
	if err != nil {
		return err
	}
	res.Source = src.Name()

	out, err := sink.New(cfg.Sink, stdout)
	if err != nil {
		return err
	}
	if err := out.Write(ctx, res); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", out.Name(), err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out.Name(), err)
	}
	logger.Info("analysis written",
		slog.String("sink", out.Name()),
		slog.Int("columns", len(res.Columns)),
		slog.Int("rows_removed", res.RowsRemoved()))
	return nil
}

func runCheck(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config.yaml")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *configPath == "" {
		return fmt.Errorf("missing required flag: --config")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Loaded config successfully")
	fmt.Fprintf(stdout, "Source: %s\n", cfg.Source.Type)

	src, closeSource, err := openSource(ctx, cfg.Source)
	if err != nil {
		return err
	}
	defer closeSource()

	tbl, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", src.Name(), err)
	}
	opts := analysis.FromConfig(cfg)
	cleaned, err := analysis.Clean(tbl, opts.Exclude, opts.Drop)
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	columns := opts.Columns
	if len(columns) == 0 {
		columns = cleaned.Schema().Numeric()
	}
	if _, err := outlier.New(cleaned.Schema(), columns); err != nil {
		return fmt.Errorf("analysis columns: %w", err)
	}
	if in := opts.Insights; in != nil {
		if _, _, ok := cleaned.Schema().Lookup(in.GroupBy); !ok {
			return fmt.Errorf("insights: %w", &table.UnknownColumnError{Column: in.GroupBy})
		}
		if err := cleaned.Schema().RequireNumeric([]string{in.PriceColumn, in.VolumeColumn, in.PLUColumn}); err != nil {
			return fmt.Errorf("insights: %w", err)
		}
	}

	fmt.Fprintf(stdout, "Rows: %d (%d after cleaning)\n", tbl.Len(), cleaned.Len())
	fmt.Fprintf(stdout, "Columns to analyse: %d\n", len(columns))
	fmt.Fprintf(stdout, "Sink: %s\n", cfg.Sink.Type)
	return nil
}

// loadConfig reads path, or starts from the built-in defaults when path is
// empty. Environment overrides apply in both cases.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSource(ctx context.Context, cfg config.SourceConfig) (source.Source, func(), error) {
	declared, err := source.ParseDeclared(cfg.Columns)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Type {
	case config.SourceCSV:
		return csvfile.New(cfg.Path, declared), func() {}, nil
	default:
		driver, err := sqldb.DriverName(cfg.Type)
		if err != nil {
			return nil, nil, err
		}
		db, err := sqldb.Open(ctx, driver, cfg.DSN, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return sqldb.New(db, cfg.Query, declared), func() { db.Close() }, nil
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `OutlierWatch - IQR outlier and skewness analysis for tabular data

Usage:
  outlierwatch analyze [--config <path>] [--input <csv>] [--sink <type>] [--output <path>]
  outlierwatch check --config <path>

Commands:
  analyze   Clean the table, remove outliers and report skewness
  check     Validate the config and the source columns
  help      Show this help message
`)
}
