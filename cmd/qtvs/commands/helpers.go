package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qtvstools/qtvs/pkg/stores"
)

// openStore opens and migrates the version registry at --db.
func openStore(ctx context.Context) (*stores.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, dataError("failed to create registry directory: %w", err)
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: dbPath})
	if err != nil {
		return nil, dataError("%w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, dataError("failed to open registry %s: %w", dbPath, err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, dataError("failed to migrate registry %s: %w", dbPath, err)
	}
	return store, nil
}

// resolveQtDir turns --qtdir into a directory. "@name" looks the name up in
// the registry; an empty value falls back to the registry default.
func resolveQtDir(ctx context.Context) (string, error) {
	if qtDir != "" && !strings.HasPrefix(qtDir, "@") {
		return qtDir, nil
	}

	if qtDir == "" {
		if _, err := os.Stat(dbPath); err != nil {
			return "", configError("no Qt directory: pass --qtdir or set QTDIR")
		}
	}

	store, err := openStore(ctx)
	if err != nil {
		return "", err
	}
	defer store.Close()

	var v *stores.QtVersion
	if qtDir == "" {
		v, err = store.GetDefault(ctx)
	} else {
		v, err = store.GetVersion(ctx, strings.TrimPrefix(qtDir, "@"))
	}
	if errors.Is(err, stores.ErrNotFound) {
		if qtDir == "" {
			return "", configError("no Qt directory: pass --qtdir, set QTDIR or register a default version")
		}
		return "", configError("%w", err)
	}
	if err != nil {
		return "", dataError("%w", err)
	}

	return v.QtDir, nil
}

// printOutput writes v as JSON or YAML, or calls text for the text format.
func printOutput(w io.Writer, v any, text func(io.Writer) error) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func fprintf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
