package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDisabledMetricsAreNoop(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	m.RecordToolRun("lupdate", 1, time.Second)
	m.RecordConfigRead(ConfigReadOK)

	if m.Registry() != nil {
		t.Error("disabled metrics should not have a registry")
	}
	if err := m.WriteTextfile(); err != nil {
		t.Errorf("WriteTextfile on disabled metrics: %v", err)
	}

	var nilMetrics *Metrics
	nilMetrics.RecordToolRun("lupdate", 0, time.Second)
	nilMetrics.RecordConfigRead(ConfigReadFault)
}

func TestRecordToolRun(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: true, Namespace: "qtvs"})
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	m.RecordToolRun("lrelease", 0, 10*time.Millisecond)
	m.RecordToolRun("lrelease", 2, 10*time.Millisecond)
	m.RecordToolRun("lrelease", 2, 10*time.Millisecond)

	if got := testutil.ToFloat64(m.toolRuns.WithLabelValues("lrelease", "2")); got != 2 {
		t.Errorf("expected 2 failed runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.toolRuns.WithLabelValues("lrelease", "0")); got != 1 {
		t.Errorf("expected 1 successful run, got %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qtvs.prom")
	m, err := NewMetrics(MetricsConfig{Enabled: true, Namespace: "qtvs", TextfilePath: path})
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	m.RecordConfigRead(ConfigReadMissing)

	if err := m.WriteTextfile(); err != nil {
		t.Fatalf("failed to write textfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), `qtvs_qconfig_reads_total{result="missing"} 1`) {
		t.Errorf("textfile missing config read sample:\n%s", data)
	}
}
