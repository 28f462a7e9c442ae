package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	"github.com/qtvstools/qtvs/pkg/qtconfig"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var validate = validator.New()

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	cfg  Config
	path string
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 4
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 2
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		cfg:  cfg,
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
}

// CommitTx commits a transaction
func (s *SQLiteStore) CommitTx(tx *sql.Tx) error {
	return tx.Commit()
}

// RollbackTx rolls back a transaction
func (s *SQLiteStore) RollbackTx(tx *sql.Tx) error {
	return tx.Rollback()
}

const versionColumns = `id, name, qt_dir, is_static, signature_file, is_default, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*QtVersion, error) {
	v := &QtVersion{}
	var signature sql.NullString
	err := row.Scan(
		&v.ID,
		&v.Name,
		&v.QtDir,
		&v.IsStatic,
		&signature,
		&v.IsDefault,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if signature.Valid {
		v.SignatureFile = &signature.String
	}
	return v, nil
}

// AddVersion registers a new Qt version. ID and timestamps are filled in
// when empty. A version with IsDefault set replaces the current default in
// the same transaction, so a failed insert leaves the old default in place.
func (s *SQLiteStore) AddVersion(ctx context.Context, v *QtVersion) (err error) {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid qt version: %w", err)
	}

	now := time.Now().UTC()
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = s.RollbackTx(tx)
		}
	}()

	if v.IsDefault {
		if _, err = tx.ExecContext(ctx, `UPDATE qt_versions SET is_default = 0 WHERE is_default = 1`); err != nil {
			return fmt.Errorf("failed to clear default: %w", err)
		}
	}

	query := `
		INSERT INTO qt_versions (` + versionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		v.ID,
		v.Name,
		v.QtDir,
		v.IsStatic,
		v.SignatureFile,
		v.IsDefault,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add qt version %s: %w", v.Name, err)
	}

	if err = s.CommitTx(tx); err != nil {
		return fmt.Errorf("failed to commit qt version %s: %w", v.Name, err)
	}

	return nil
}

// GetVersion retrieves a Qt version by name
func (s *SQLiteStore) GetVersion(ctx context.Context, name string) (*QtVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM qt_versions WHERE name = ?`

	v, err := scanVersion(s.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get qt version: %w", err)
	}

	return v, nil
}

// ListVersions lists all Qt versions ordered by name
func (s *SQLiteStore) ListVersions(ctx context.Context) ([]*QtVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM qt_versions ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list qt versions: %w", err)
	}
	defer rows.Close()

	versions := []*QtVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan qt version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating qt versions: %w", err)
	}

	return versions, nil
}

// DeleteVersion deletes a Qt version by name
func (s *SQLiteStore) DeleteVersion(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM qt_versions WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete qt version: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}

// UpdateBuildConfig stores a fresh build configuration snapshot for a version.
func (s *SQLiteStore) UpdateBuildConfig(ctx context.Context, name string, cfg *qtconfig.BuildConfig) error {
	var v QtVersion
	v.ApplyBuildConfig(cfg)

	query := `
		UPDATE qt_versions
		SET is_static = ?, signature_file = ?, updated_at = ?
		WHERE name = ?
	`

	result, err := s.db.ExecContext(ctx, query, v.IsStatic, v.SignatureFile, time.Now().UTC(), name)
	if err != nil {
		return fmt.Errorf("failed to update build config: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}

// SetDefault marks a version as the default, clearing the previous one.
func (s *SQLiteStore) SetDefault(ctx context.Context, name string) (err error) {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = s.RollbackTx(tx)
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE qt_versions SET is_default = 0 WHERE is_default = 1`); err != nil {
		return fmt.Errorf("failed to clear default: %w", err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE qt_versions SET is_default = 1 WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to set default: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		err = fmt.Errorf("%w: %s", ErrNotFound, name)
		return err
	}

	if err = s.CommitTx(tx); err != nil {
		return fmt.Errorf("failed to commit default: %w", err)
	}

	return nil
}

// GetDefault returns the default Qt version.
func (s *SQLiteStore) GetDefault(ctx context.Context) (*QtVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM qt_versions WHERE is_default = 1 LIMIT 1`

	v, err := scanVersion(s.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no default version", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default qt version: %w", err)
	}

	return v, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}

var _ Store = (*SQLiteStore)(nil)
