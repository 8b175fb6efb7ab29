package deployments

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type ruleFile struct {
	Groups []struct {
		Name  string `yaml:"name"`
		Rules []struct {
			Record string            `yaml:"record"`
			Alert  string            `yaml:"alert"`
			Expr   string            `yaml:"expr"`
			Labels map[string]string `yaml:"labels"`
		} `yaml:"rules"`
	} `yaml:"groups"`
}

func TestPrometheusRecordingRulesContainExpectedRecords(t *testing.T) {
	rules := readRules(t, "hrsight_recording_rules.yaml")

	records := map[string]string{}
	for _, group := range rules.Groups {
		for _, rule := range group.Rules {
			records[rule.Record] = rule.Expr
		}
	}

	required := map[string]string{
		"hrsight:slo_ask_latency_seconds_p95": "hrsight_ask_duration_seconds_bucket",
		"hrsight:slo_ask_error_rate_5m":       "hrsight_ask_duration_seconds_count",
		"hrsight:slo_repair_rate_15m":         "hrsight_repairs_total",
		"hrsight:slo_repair_failures_15m":     "hrsight_repairs_total",
		"hrsight:slo_generated_share_1h":      "hrsight_statement_source_total",
		"hrsight:slo_http_error_rate_5m":      "hrsight_http_requests_total",
	}
	for record, metric := range required {
		expr, ok := records[record]
		if !ok {
			t.Fatalf("recording rules missing record %q", record)
		}
		if !strings.Contains(expr, metric) {
			t.Fatalf("record %q does not reference %q: %s", record, metric, expr)
		}
	}
}

func TestPrometheusRulesContainExpectedAlerts(t *testing.T) {
	rules := readRules(t, "hrsight_rules.yaml")
	recordings := readRules(t, "hrsight_recording_rules.yaml")

	known := map[string]struct{}{}
	for _, group := range recordings.Groups {
		for _, rule := range group.Rules {
			known[rule.Record] = struct{}{}
		}
	}

	alerts := map[string]struct{}{}
	for _, group := range rules.Groups {
		for _, rule := range group.Rules {
			alerts[rule.Alert] = struct{}{}
			severity := rule.Labels["severity"]
			if severity != "warning" && severity != "critical" {
				t.Fatalf("alert %q has severity %q", rule.Alert, severity)
			}
			record := strings.Fields(rule.Expr)[0]
			if _, ok := known[record]; !ok {
				t.Fatalf("alert %q uses unknown record %q", rule.Alert, record)
			}
		}
	}

	for _, name := range []string{
		"HRSightAskLatencyP95High",
		"HRSightAskErrorRateHigh",
		"HRSightRepairFailuresDetected",
		"HRSightHTTPErrorRateHigh",
	} {
		if _, ok := alerts[name]; !ok {
			t.Fatalf("rules missing alert %q", name)
		}
	}
}

func TestPrometheusScrapeExampleContainsMetricsPathAndRules(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(repoRoot(t), "deployments", "observability", "prometheus", "prometheus-scrape.example.yaml"))
	if err != nil {
		t.Fatalf("read scrape example: %v", err)
	}
	text := string(content)

	for _, token := range []string{
		"metrics_path: /v1/metrics",
		"hrsight_rules.yaml",
		"hrsight_recording_rules.yaml",
		"job_name: hrsight-api",
	} {
		if !strings.Contains(text, token) {
			t.Fatalf("scrape example missing %q", token)
		}
	}
}

func readRules(t *testing.T, name string) ruleFile {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(repoRoot(t), "deployments", "observability", "prometheus", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	var rules ruleFile
	if err := yaml.Unmarshal(content, &rules); err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	if len(rules.Groups) == 0 {
		t.Fatalf("%s has no rule groups", name)
	}
	return rules
}

func repoRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), ".."))
}
