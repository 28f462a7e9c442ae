package qtprocess

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/qtvstools/qtvs/pkg/telemetry"
)

// maxStderrLineSize bounds a single stderr line kept from a tool.
var maxStderrLineSize = 10 * 1024 * 1024 // 10 MB

// UnspecifiedError is the message returned for exit codes missing from the
// error code table.
const UnspecifiedError = "An unspecified error occurred."

// Process launches Qt tools and resolves their exit codes to display text.
//
// The error code table is swapped with SetErrorCodes without locking;
// callers that change it while other goroutines resolve codes must
// serialize those calls themselves.
type Process struct {
	table    *ErrorCodeTable
	fallback string
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
}

// Option configures a Process.
type Option func(*Process)

// WithLogger sets the logger that receives tool stderr lines and run summaries.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Process) {
		p.logger = telemetry.ComponentLogger(logger, "qtprocess")
	}
}

// WithFallbackMessage replaces UnspecifiedError for unknown codes, e.g. with
// a localized string.
func WithFallbackMessage(msg string) Option {
	return func(p *Process) {
		p.fallback = msg
	}
}

// WithMetrics records every run on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Process) {
		p.metrics = m
	}
}

// New creates a Process with no error code table.
func New(opts ...Option) *Process {
	p := &Process{
		fallback: UnspecifiedError,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetErrorCodes installs or replaces the error code table. nil removes it.
func (p *Process) SetErrorCodes(table *ErrorCodeTable) {
	p.table = table
}

// ErrorMessage returns the message for code, or the fallback message when
// the code is unknown or no table is installed.
func (p *Process) ErrorMessage(code int) string {
	if ec, ok := p.table.Lookup(code); ok {
		return ec.Message
	}
	return p.fallback
}

// SolutionHint returns the suggested resolution for code. There is no
// fallback: unknown codes report false.
func (p *Process) SolutionHint(code int) (string, bool) {
	if ec, ok := p.table.Lookup(code); ok {
		return ec.Resolution, true
	}
	return "", false
}

// ToolPath returns the path of a Qt tool inside the installation's bin
// directory, adding .exe on Windows when tool has no extension.
func ToolPath(qtdir, tool string) string {
	if runtime.GOOS == "windows" && filepath.Ext(tool) == "" {
		tool += ".exe"
	}
	return filepath.Join(qtdir, "bin", tool)
}

// Request describes one tool invocation.
type Request struct {
	// Program is the executable to run.
	Program string

	// Args are passed to Program unchanged.
	Args []string

	// WorkDir is the working directory. Empty means the current one.
	WorkDir string

	// Env is added on top of the current environment.
	Env map[string]string
}

// Result describes a finished tool run.
type Result struct {
	// ExitCode is the process exit code.
	ExitCode int `json:"exit_code"`

	// Stdout is the captured standard output.
	Stdout string `json:"stdout,omitempty"`

	// Stderr holds the trimmed, non-empty standard error lines.
	Stderr []string `json:"stderr,omitempty"`

	// Duration is the wall-clock run time.
	Duration time.Duration `json:"duration"`
}

// Run executes the tool and waits for it. Standard error is streamed line by
// line to the logger while the tool runs.
//
// A tool that cannot be started yields a ClassStart *ToolError and no result.
// A non-zero exit yields the result together with a ClassExit *ToolError
// whose message and hint come from the error code table.
func (p *Process) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Program == "" {
		return nil, fmt.Errorf("program is required")
	}

	cmd := exec.CommandContext(ctx, req.Program, req.Args...)
	cmd.Dir = req.WorkDir
	if len(req.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), req.Env)
	}

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, newStartError(req.Program, err)
	}

	logger := p.logger.With().Str("program", req.Program).Logger()
	logger.Info().
		Strs("args", req.Args).
		Str("workdir", req.WorkDir).
		Msg("Starting tool")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, newStartError(req.Program, err)
	}

	result := &Result{}
	scanner := bufio.NewScanner(stderrPipe)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStderrLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		result.Stderr = append(result.Stderr, line)
		logger.Warn().Msg("--- " + line)
	}
	if err := scanner.Err(); err != nil {
		logger.Warn().Err(err).Msg("Stopped reading tool stderr")
	}
	// The tool blocks on a full pipe if stderr is left unread.
	if _, err := io.Copy(io.Discard, stderrPipe); err != nil {
		logger.Debug().Err(err).Msg("Failed to drain tool stderr")
	}

	waitErr := cmd.Wait()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", req.Program, waitErr)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s interrupted: %w", req.Program, ctxErr)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	p.metrics.RecordToolRun(toolName(req.Program), result.ExitCode, result.Duration)

	if result.ExitCode == 0 {
		logger.Info().
			Int("exit_code", 0).
			Dur("duration", result.Duration).
			Msg("Tool finished")
		return result, nil
	}

	toolErr := newExitError(req.Program, result.ExitCode, p.ErrorMessage(result.ExitCode))
	if hint, ok := p.SolutionHint(result.ExitCode); ok {
		toolErr = toolErr.WithHint(hint)
	}

	logger.Error().
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration).
		Msg(toolErr.Message)

	return result, toolErr
}

// mergeEnv overlays extra on base, keeping base order and appending new keys
// in sorted order.
func mergeEnv(base []string, extra map[string]string) []string {
	env := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(extra))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if v, ok := lookupEnvKey(extra, key); ok {
			env = append(env, key+"="+v)
			seen[key] = true
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !seenEnvKey(seen, k) {
			env = append(env, k+"="+extra[k])
		}
	}
	return env
}

// Environment keys are case-insensitive on Windows.
func lookupEnvKey(m map[string]string, key string) (string, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	if runtime.GOOS != "windows" {
		return "", false
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func seenEnvKey(seen map[string]bool, key string) bool {
	if seen[key] {
		return true
	}
	if runtime.GOOS != "windows" {
		return false
	}
	for k := range seen {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func toolName(program string) string {
	base := filepath.Base(program)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
