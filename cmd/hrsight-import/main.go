package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hrsight/hrsight/internal/config"
	"github.com/hrsight/hrsight/internal/dataset"
	"github.com/hrsight/hrsight/internal/observability"
	"github.com/hrsight/hrsight/internal/query"
	duckdbengine "github.com/hrsight/hrsight/internal/query/duckdb"
	sqliteengine "github.com/hrsight/hrsight/internal/query/sqlite"
	"github.com/hrsight/hrsight/internal/schema"
	"github.com/hrsight/hrsight/internal/storage"
	s3store "github.com/hrsight/hrsight/internal/storage/s3"
)

func main() {
	csvPath := flag.String("csv", "data/raw/WA_Fn-UseC_-HR-Employee-Attrition.csv", "source csv file")
	format := flag.String("format", dataset.FormatSQLite, "output format: sqlite|parquet")
	out := flag.String("out", "", "output file; defaults to HRSIGHT_DATASET_PATH for sqlite")
	upload := flag.Bool("upload", false, "upload the parquet file to the object store")
	key := flag.String("key", "", "object key for -upload; defaults to HRSIGHT_DATASET_OBJECT_KEY or the dataset key")
	snapshot := flag.Bool("snapshot", false, "also upload a timestamped snapshot")
	verify := flag.Bool("verify", true, "run a headcount query against the imported data")
	flag.Parse()

	cfg, err := config.LoadFromEnv("hrsight-import")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	opts := dataset.Options{
		CSVPath:    *csvPath,
		Format:     strings.ToLower(strings.TrimSpace(*format)),
		OutputPath: *out,
		Upload:     *upload,
		ObjectKey:  firstNonEmpty(*key, cfg.Dataset.ObjectKey),
		Snapshot:   *snapshot,
	}
	if opts.OutputPath == "" && opts.Format == dataset.FormatSQLite {
		opts.OutputPath = cfg.Dataset.Path
	}

	var store storage.ObjectStore
	var bucketStore *s3store.Store
	if opts.Upload {
		if !cfg.ObjectStore.Enabled {
			fmt.Fprintln(os.Stderr, "-upload requires HRSIGHT_OBJECTSTORE_ENABLED=true")
			os.Exit(1)
		}
		s3, err := s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "object store error: %v\n", err)
			os.Exit(1)
		}
		store = s3
		bucketStore = s3
	}

	importer := dataset.NewImporter(store, schema.Employees, logger)
	result, err := importer.Import(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("imported %d row(s)\n", result.Rows)
	if result.OutputPath != "" {
		fmt.Printf("  file: %s (%d bytes)\n", result.OutputPath, result.Bytes)
	}
	if result.ObjectKey != "" {
		fmt.Printf("  object: %s\n", objectLocation(bucketStore, result.ObjectKey))
	}
	if result.SnapshotKey != "" {
		fmt.Printf("  snapshot: %s\n", objectLocation(bucketStore, result.SnapshotKey))
	}

	if !*verify {
		return
	}
	engine, err := verifyEngine(store, opts.Format, result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify setup failed: %v\n", err)
		os.Exit(1)
	}
	headcount, err := dataset.Verify(ctx, engine, schema.EmployeesTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	for _, row := range headcount.Rows {
		if len(row) == 2 {
			fmt.Printf("  %v: %v\n", row[0], row[1])
		}
	}
}

func verifyEngine(store storage.ObjectStore, format string, result dataset.Result) (query.Engine, error) {
	if format == dataset.FormatSQLite {
		return sqliteengine.NewEngine(result.OutputPath, schema.EmployeesTable)
	}
	source := duckdbengine.Source{Table: schema.EmployeesTable, Format: dataset.FormatParquet}
	if result.OutputPath != "" {
		source.Path = result.OutputPath
		store = nil
	} else {
		source.ObjectKey = result.ObjectKey
	}
	return duckdbengine.NewEngine(store, source)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func objectLocation(store *s3store.Store, key string) string {
	if store == nil {
		return key
	}
	location, err := store.Location(key)
	if err != nil {
		return key
	}
	return location
}
