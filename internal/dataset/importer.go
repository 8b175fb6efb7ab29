package dataset

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hrsight/hrsight/internal/query"
	"github.com/hrsight/hrsight/internal/schema"
	"github.com/hrsight/hrsight/internal/storage"
)

const (
	FormatParquet = "parquet"
	FormatSQLite  = "sqlite"
)

type Options struct {
	CSVPath    string
	Format     string
	OutputPath string
	// Upload sends the parquet file to the object store under ObjectKey, or
	// the default dataset key when ObjectKey is empty.
	Upload    bool
	ObjectKey string
	Snapshot  bool
}

type Result struct {
	Rows        int
	Bytes       int64
	OutputPath  string
	ObjectKey   string
	SnapshotKey string
}

type Importer struct {
	store      storage.ObjectStore
	descriptor schema.Descriptor
	logger     *slog.Logger
	now        func() time.Time
}

func NewImporter(store storage.ObjectStore, descriptor schema.Descriptor, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, descriptor: descriptor, logger: logger, now: time.Now}
}

func (i *Importer) Import(ctx context.Context, opts Options) (Result, error) {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = FormatParquet
	}
	if opts.CSVPath == "" {
		return Result{}, fmt.Errorf("csv path is required")
	}

	file, err := os.Open(opts.CSVPath)
	if err != nil {
		return Result{}, fmt.Errorf("open csv %q: %w", opts.CSVPath, err)
	}
	rows, err := ReadCSV(file, i.descriptor)
	_ = file.Close()
	if err != nil {
		return Result{}, err
	}

	switch format {
	case FormatSQLite:
		return i.importSQLite(ctx, opts, rows)
	case FormatParquet:
		return i.importParquet(ctx, opts, rows)
	default:
		return Result{}, fmt.Errorf("unsupported import format %q", opts.Format)
	}
}

func (i *Importer) importSQLite(ctx context.Context, opts Options, rows []Employee) (Result, error) {
	if opts.OutputPath == "" {
		return Result{}, fmt.Errorf("output path is required for sqlite import")
	}
	if opts.Upload {
		return Result{}, fmt.Errorf("upload is only supported for parquet imports")
	}
	if err := WriteSQLite(ctx, opts.OutputPath, i.descriptor, rows); err != nil {
		return Result{}, err
	}
	result := Result{Rows: len(rows), OutputPath: opts.OutputPath}
	if info, err := os.Stat(opts.OutputPath); err == nil {
		result.Bytes = info.Size()
	}
	i.logger.InfoContext(ctx, "dataset_imported",
		slog.String("format", FormatSQLite),
		slog.String("path", opts.OutputPath),
		slog.Int("rows", result.Rows),
	)
	return result, nil
}

func (i *Importer) importParquet(ctx context.Context, opts Options, rows []Employee) (Result, error) {
	if opts.OutputPath == "" && !opts.Upload {
		return Result{}, fmt.Errorf("output path or upload is required")
	}
	data, err := EncodeParquet(rows)
	if err != nil {
		return Result{}, err
	}
	result := Result{Rows: len(rows), Bytes: int64(len(data))}

	if opts.OutputPath != "" {
		if dir := filepath.Dir(opts.OutputPath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return Result{}, fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(opts.OutputPath, data, 0o644); err != nil {
			return Result{}, fmt.Errorf("write parquet file: %w", err)
		}
		result.OutputPath = opts.OutputPath
	}

	if opts.Upload {
		if i.store == nil {
			return Result{}, fmt.Errorf("object store is required for upload")
		}
		key := opts.ObjectKey
		if key == "" {
			key, err = storage.BuildDatasetKey(i.descriptor.Table(), FormatParquet)
			if err != nil {
				return Result{}, err
			}
		}
		if err := i.put(ctx, key, data); err != nil {
			return Result{}, err
		}
		result.ObjectKey = key

		if opts.Snapshot {
			snapshotKey, err := storage.BuildSnapshotKey(i.descriptor.Table(), FormatParquet, i.now())
			if err != nil {
				return Result{}, err
			}
			if err := i.put(ctx, snapshotKey, data); err != nil {
				return Result{}, err
			}
			result.SnapshotKey = snapshotKey
		}
	}

	i.logger.InfoContext(ctx, "dataset_imported",
		slog.String("format", FormatParquet),
		slog.String("path", result.OutputPath),
		slog.String("object_key", result.ObjectKey),
		slog.String("snapshot_key", result.SnapshotKey),
		slog.Int("rows", result.Rows),
		slog.Int64("bytes", result.Bytes),
	)
	return result, nil
}

func (i *Importer) put(ctx context.Context, key string, data []byte) error {
	if _, err := i.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{
		ContentType: "application/vnd.apache.parquet",
	}); err != nil {
		return fmt.Errorf("upload %q: %w", key, err)
	}
	return nil
}

// VerifyStatement is the per-department headcount run after an import.
func VerifyStatement(table string) string {
	return fmt.Sprintf("SELECT Department, COUNT(*) AS count FROM %s GROUP BY Department ORDER BY count DESC", table)
}

func Verify(ctx context.Context, engine query.Engine, table string) (query.Result, error) {
	result, err := engine.Execute(ctx, query.Request{SQL: VerifyStatement(table)})
	if err != nil {
		return query.Result{}, fmt.Errorf("verify import: %w", err)
	}
	return result, nil
}
