package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// executeCommand runs the root command with args and returns stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	t.Setenv("QTDIR", "")
	t.Setenv("QTVS_DB", filepath.Join(t.TempDir(), "versions.db"))

	root := newRootCommand("test", "none", "today")
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeQtInstall(t *testing.T, qconfig string) string {
	t.Helper()

	qtdir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(qtdir, "mkspecs"), 0755); err != nil {
		t.Fatalf("failed to create mkspecs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(qtdir, "mkspecs", "qconfig.pri"), []byte(qconfig), 0644); err != nil {
		t.Fatalf("failed to write qconfig.pri: %v", err)
	}
	return qtdir
}

func TestConfigShowText(t *testing.T) {
	qtdir := writeQtInstall(t, "CONFIG += static\nDEFAULT_SIGNATURE = C:\\sign.cer\n")

	out, _, err := executeCommand(t, "config", "show", "--qtdir", qtdir)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "Static build:   yes") {
		t.Errorf("missing static line:\n%s", out)
	}
	if !strings.Contains(out, `Signature file: C:\sign.cer`) {
		t.Errorf("missing signature line:\n%s", out)
	}
}

func TestConfigShowJSONMissingInstall(t *testing.T) {
	qtdir := filepath.Join(t.TempDir(), "missing")

	out, _, err := executeCommand(t, "config", "show", "--qtdir", qtdir, "-o", "json")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}

	var view buildConfigView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if view.Static || view.SignatureFile != nil {
		t.Errorf("expected defaults, got %+v", view)
	}
}

func TestConfigShowWithoutQtDir(t *testing.T) {
	_, _, err := executeCommand(t, "config", "show")
	if err == nil {
		t.Fatal("expected error without a Qt directory")
	}
	if code := ExitCodeFor(err); code != ExitConfigError {
		t.Errorf("expected exit code %d, got %d", ExitConfigError, code)
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	_, _, err := executeCommand(t, "config", "show", "--qtdir", t.TempDir(), "-o", "xml")
	if ExitCodeFor(err) != ExitConfigError {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestVersionsLifecycle(t *testing.T) {
	qtdir := writeQtInstall(t, "CONFIG static\n")
	t.Setenv("QTDIR", "")
	db := filepath.Join(t.TempDir(), "versions.db")

	run := func(args ...string) string {
		t.Helper()
		root := newRootCommand("test", "none", "today")
		var stdout bytes.Buffer
		root.SetOut(&stdout)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{"--db", db}, args...))
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
		return stdout.String()
	}

	run("versions", "add", "dev", qtdir, "--default")

	list := run("versions", "list")
	if !strings.Contains(list, "dev *") || !strings.Contains(list, "yes") {
		t.Errorf("unexpected list output:\n%s", list)
	}

	show := run("config", "show", "--qtdir", "@dev")
	if !strings.Contains(show, "Static build:   yes") {
		t.Errorf("@dev not resolved:\n%s", show)
	}

	// Default version is used when --qtdir is empty.
	show = run("config", "show")
	if !strings.Contains(show, qtdir) {
		t.Errorf("default version not used:\n%s", show)
	}

	if err := os.WriteFile(filepath.Join(qtdir, "mkspecs", "qconfig.pri"), []byte("CONFIG shared\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite qconfig.pri: %v", err)
	}
	refresh := run("versions", "refresh")
	if !strings.Contains(refresh, "Refreshed dev (static: no)") {
		t.Errorf("unexpected refresh output:\n%s", refresh)
	}

	run("versions", "remove", "dev")
	if list := run("versions", "list"); strings.Contains(list, "dev") {
		t.Errorf("version not removed:\n%s", list)
	}
}

func TestVersionsUnknownName(t *testing.T) {
	_, _, err := executeCommand(t, "config", "show", "--qtdir", "@nope")
	if ExitCodeFor(err) != ExitConfigError {
		t.Errorf("expected config error for unknown version, got %v", err)
	}
}

func TestRunToolExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the tool")
	}

	qtdir := t.TempDir()
	bin := filepath.Join(qtdir, "bin")
	if err := os.MkdirAll(bin, 0755); err != nil {
		t.Fatalf("failed to create bin: %v", err)
	}
	script := "#!/bin/sh\necho \"QTDIR=$QTDIR\"\necho 'no such file' >&2\nexit 4\n"
	if err := os.WriteFile(filepath.Join(bin, "lupdate"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write tool: %v", err)
	}

	codes := filepath.Join(t.TempDir(), "codes.yaml")
	yaml := "codes:\n  - code: 4\n    message: Cannot open input.\n    resolution: Check the file name.\n"
	if err := os.WriteFile(codes, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write codes: %v", err)
	}

	out, errOut, err := executeCommand(t, "run", "--qtdir", qtdir, "--codes", codes, "lupdate", "-ts", "x.ts")
	if ExitCodeFor(err) != 4 {
		t.Fatalf("expected exit code 4, got %v (%d)", err, ExitCodeFor(err))
	}
	if !Reported(err) {
		t.Error("tool failure should be marked as reported")
	}
	if !strings.Contains(out, "QTDIR="+qtdir) {
		t.Errorf("QTDIR not passed to tool:\n%s", out)
	}
	if !strings.Contains(errOut, "Cannot open input.\nCheck the file name.") {
		t.Errorf("unexpected error display:\n%s", errOut)
	}
}

func TestRunMetricsUseDefaultBuckets(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the tool")
	}

	qtdir := t.TempDir()
	bin := filepath.Join(qtdir, "bin")
	if err := os.MkdirAll(bin, 0755); err != nil {
		t.Fatalf("failed to create bin: %v", err)
	}
	if err := os.WriteFile(filepath.Join(bin, "lrelease"), []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatalf("failed to write tool: %v", err)
	}

	textfile := filepath.Join(t.TempDir(), "qtvs.prom")
	if _, _, err := executeCommand(t, "run", "--qtdir", qtdir, "--metrics-textfile", textfile, "lrelease"); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if err := metrics.WriteTextfile(); err != nil {
		t.Fatalf("failed to write metrics: %v", err)
	}

	data, err := os.ReadFile(textfile)
	if err != nil {
		t.Fatalf("failed to read metrics: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `qtvs_tool_runs_total{exit_code="0",tool="lrelease"} 1`) {
		t.Errorf("tool run not counted:\n%s", out)
	}
	// 60s is a default qtvs bucket but not a prometheus default one.
	if !strings.Contains(out, `qtvs_tool_run_duration_seconds_bucket{tool="lrelease",le="60"} 1`) {
		t.Errorf("default histogram buckets not used:\n%s", out)
	}
}

func TestRunMissingTool(t *testing.T) {
	_, _, err := executeCommand(t, "run", "--qtdir", t.TempDir(), "lrelease")
	if ExitCodeFor(err) != ExitConfigError {
		t.Errorf("expected config error for missing tool, got %v", err)
	}
}

func TestToolExitCode(t *testing.T) {
	tests := map[int]int{1: 1, 4: 4, 255: 255, 256: ExitError, -1: ExitError, 0: ExitError}
	for in, want := range tests {
		if got := toolExitCode(in); got != want {
			t.Errorf("toolExitCode(%d) = %d, want %d", in, got, want)
		}
	}
}
