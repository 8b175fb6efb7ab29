package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hrsight/hrsight/internal/cli/hrsightctl"
)

func main() {
	timeout := parseDurationWithDefault(strings.TrimSpace(os.Getenv("HRSIGHT_CLI_TIMEOUT")), 90*time.Second)
	options := hrsightctl.Options{
		BaseURL: envOr("HRSIGHT_API_URL", "http://localhost:8080"),
		Timeout: timeout,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}

	ctx, cancel := context.WithCancel(context.Background())
	code := hrsightctl.Run(ctx, os.Args[1:], options)
	cancel()
	os.Exit(code)
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseDurationWithDefault(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid HRSIGHT_CLI_TIMEOUT %q; using %s\n", raw, fallback)
		return fallback
	}
	return parsed
}
