package qtconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/qtvstools/qtvs/pkg/telemetry"
)

const (
	configDirective    = "CONFIG"
	signatureDirective = "DEFAULT_SIGNATURE"
)

// BuildConfig holds the facts derived from one scan of qconfig.pri.
// The zero value is the "nothing configured" result: shared build, no signature.
type BuildConfig struct {
	isStaticBuild bool
	signatureFile *string
}

// IsStaticBuild reports whether Qt was built as static libraries.
func (c *BuildConfig) IsStaticBuild() bool {
	return c.isStaticBuild
}

// SignatureFile returns the DEFAULT_SIGNATURE path, if one was set.
func (c *BuildConfig) SignatureFile() (string, bool) {
	if c.signatureFile == nil {
		return "", false
	}
	return *c.signatureFile, true
}

// Path returns the location of qconfig.pri below a Qt installation directory.
func Path(qtdir string) string {
	return filepath.Join(qtdir, "mkspecs", "qconfig.pri")
}

// Read derives the build configuration of the Qt installation in qtdir.
//
// Read never fails. A missing qconfig.pri yields the defaults. A read fault
// abandons the scan, keeps whatever was derived before it, and is reported
// only as a warning on the configured logger. Use Load to receive the fault.
func Read(qtdir string, opts ...Option) *BuildConfig {
	cfg, _ := Load(qtdir, opts...)
	return cfg
}

// Load is Read with the read fault returned to the caller. The returned
// config is never nil; on error it holds the partial result of the scan.
// A missing file is not an error.
func Load(qtdir string, opts ...Option) (*BuildConfig, error) {
	o := newOptions(opts)
	path := Path(qtdir)
	logger := o.logger.With().Str("path", path).Logger()

	cfg := &BuildConfig{}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug().Msg("qconfig.pri not found, using defaults")
			o.metrics.RecordConfigRead(telemetry.ConfigReadMissing)
			return cfg, nil
		}
		logger.Warn().Err(err).Msg("Failed to open qconfig.pri, using defaults")
		o.metrics.RecordConfigRead(telemetry.ConfigReadFault)
		return cfg, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if err := cfg.scan(file); err != nil {
		logger.Warn().Err(err).Msg("Failed to read qconfig.pri, keeping partial result")
		o.metrics.RecordConfigRead(telemetry.ConfigReadFault)
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}

	logger.Debug().
		Bool("static", cfg.isStaticBuild).
		Bool("has_signature", cfg.signatureFile != nil).
		Msg("qconfig.pri parsed")
	o.metrics.RecordConfigRead(telemetry.ConfigReadOK)

	return cfg, nil
}

// Parse scans qconfig.pri content from r. On a read error the partial
// result is returned together with the error.
func Parse(r io.Reader) (*BuildConfig, error) {
	cfg := &BuildConfig{}
	err := cfg.scan(r)
	return cfg, err
}

// scan applies every line of r to c, top to bottom. Later directives
// override earlier ones.
// scan applies every complete line of r. Lines have no length limit; a line
// cut short by a read fault is not applied.
func (c *BuildConfig) scan(r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		switch {
		case err == nil:
			c.applyLine(strings.TrimSpace(line))
		case errors.Is(err, io.EOF):
			c.applyLine(strings.TrimSpace(line))
			return nil
		default:
			return err
		}
	}
}

func (c *BuildConfig) applyLine(line string) {
	switch {
	case strings.HasPrefix(line, configDirective):
		for _, word := range splitWords(line[len(configDirective):]) {
			switch word {
			case "static":
				c.isStaticBuild = true
			case "shared":
				c.isStaticBuild = false
			}
		}

	case strings.HasPrefix(line, signatureDirective):
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			return
		}
		value := strings.TrimSpace(line[idx+1:])
		c.signatureFile = &value
	}
}

// splitWords splits on runs of spaces and tabs only.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t'
	})
}
