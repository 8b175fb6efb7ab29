package hrsightctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type askBody struct {
	Question string           `json:"question"`
	History  []historyMessage `json:"history,omitempty"`
}

type askResult struct {
	Answer         string `json:"answer"`
	SQL            string `json:"sql"`
	Source         string `json:"source"`
	GeneratorCalls int    `json:"generator_calls"`
	Repaired       bool   `json:"repaired"`
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("hrsightctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "hrsight API base URL")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 90*time.Second), "HTTP timeout (e.g. 30s)")
	historyPath := fs.String("history", "", "JSON file with prior turns [{role, content}] for follow-up questions")
	limit := fs.Int("limit", 0, "number of audit entries to list")
	rawJSON := fs.Bool("json", false, "print the raw JSON response for ask")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	question := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
	method := http.MethodGet
	path := ""
	var payload any
	switch command {
	case "health":
		path = "/v1/health"
	case "ready":
		path = "/v1/ready"
	case "schema":
		path = "/v1/schema"
	case "audit":
		path = "/v1/audit"
		if *limit > 0 {
			path += "?" + url.Values{"limit": []string{strconv.Itoa(*limit)}}.Encode()
		}
	case "ask", "generate":
		if question == "" {
			_, _ = fmt.Fprintf(stderr, "%s requires a question\n\n", command)
			writeUsage(stderr)
			return 2
		}
		history, err := loadHistory(*historyPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "load history: %v\n", err)
			return 2
		}
		method, payload = http.MethodPost, askBody{Question: question, History: history}
		path = "/v1/ask"
		if command == "generate" {
			path = "/v1/sql/generate"
		}
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	endpoint := strings.TrimRight(*baseURL, "/") + path
	code, responseBody, err := doRequest(ctx, client, method, endpoint, payload)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if command == "ask" && !*rawJSON {
		if printAnswer(stdout, responseBody) {
			return 0
		}
	}
	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

func doRequest(ctx context.Context, client *http.Client, method, url string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, responseBody, nil
}

func loadHistory(path string) ([]historyMessage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var history []historyMessage
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return history, nil
}

func printAnswer(w io.Writer, raw []byte) bool {
	var result askResult
	if err := json.Unmarshal(raw, &result); err != nil || result.SQL == "" {
		return false
	}
	_, _ = fmt.Fprintln(w, result.Answer)
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintf(w, "sql: %s\n", result.SQL)
	note := fmt.Sprintf("source: %s, generator calls: %d", result.Source, result.GeneratorCalls)
	if result.Repaired {
		note += ", repaired"
	}
	_, _ = fmt.Fprintln(w, note)
	return true
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: hrsightctl [flags] <command> [question]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health             GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready              GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  schema             GET /v1/schema")
	_, _ = fmt.Fprintln(w, "  ask <question>     POST /v1/ask")
	_, _ = fmt.Fprintln(w, "  generate <question> POST /v1/sql/generate")
	_, _ = fmt.Fprintln(w, "  audit              GET /v1/audit")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
