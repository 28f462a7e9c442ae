package stores

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/qtvstools/qtvs/pkg/qtconfig"
)

// ErrNotFound is returned when a Qt version does not exist.
var ErrNotFound = errors.New("qt version not found")

// QtVersion is a named Qt installation with a snapshot of its build configuration.
type QtVersion struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name" validate:"required,max=64,excludes=@"`
	QtDir         string    `json:"qt_dir" yaml:"qt_dir" validate:"required"`
	IsStatic      bool      `json:"is_static" yaml:"is_static"`
	SignatureFile *string   `json:"signature_file,omitempty" yaml:"signature_file,omitempty"`
	IsDefault     bool      `json:"is_default" yaml:"is_default"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// ApplyBuildConfig copies the facts of cfg into the version.
func (v *QtVersion) ApplyBuildConfig(cfg *qtconfig.BuildConfig) {
	v.IsStatic = cfg.IsStaticBuild()
	v.SignatureFile = nil
	if sig, ok := cfg.SignatureFile(); ok {
		v.SignatureFile = &sig
	}
}

// Store defines the interface for the persistence layer
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	HealthCheck(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// QtVersion operations
	AddVersion(ctx context.Context, v *QtVersion) error
	GetVersion(ctx context.Context, name string) (*QtVersion, error)
	ListVersions(ctx context.Context) ([]*QtVersion, error)
	DeleteVersion(ctx context.Context, name string) error
	UpdateBuildConfig(ctx context.Context, name string, cfg *qtconfig.BuildConfig) error
	SetDefault(ctx context.Context, name string) error
	GetDefault(ctx context.Context) (*QtVersion, error)
}
