package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

var dataFormats = map[string]string{
	"parquet": "parquet",
	"csv":     "csv",
	"duckdb":  "duckdb",
}

// BuildDatasetKey returns the key of the live dataset file for a table.
func BuildDatasetKey(tableName, format string) (string, error) {
	ext, err := datasetExtension(tableName, format)
	if err != nil {
		return "", err
	}
	return path.Join(tableName, fmt.Sprintf("%s.%s", tableName, ext)), nil
}

// BuildSnapshotKey returns a dated key for keeping earlier imports around.
func BuildSnapshotKey(tableName, format string, importedAt time.Time) (string, error) {
	ext, err := datasetExtension(tableName, format)
	if err != nil {
		return "", err
	}
	ts := importedAt.UTC()
	return path.Join(
		tableName,
		"snapshots",
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("%s-%d.%s", tableName, ts.Unix(), ext),
	), nil
}

func datasetExtension(tableName, format string) (string, error) {
	if err := validatePathComponent(tableName, "table name"); err != nil {
		return "", err
	}
	ext, ok := dataFormats[format]
	if !ok {
		return "", fmt.Errorf("unsupported dataset format: %q", format)
	}
	return ext, nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
