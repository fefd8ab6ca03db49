package dataset

import (
	"context"
	"fmt"
	"os"

	"housing-dashboard/internal/config"

	"github.com/pkg/errors"
)

// ErrUnsupportedSource is returned for an unknown dataset type
var ErrUnsupportedSource = errors.New("unsupported dataset source")

// Table is a raw tabular read: a header row and string cells.
// Rows may be shorter than Columns; missing cells read as empty.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Source reads the initiative table from somewhere
type Source interface {
	// Name identifies the source in logs and status output
	Name() string
	// Version changes whenever the underlying data changes. An empty version
	// means the source cannot tell, and only an explicit reload refreshes it.
	Version(ctx context.Context) (string, error)
	Load(ctx context.Context) (*Table, error)
}

// NewSource builds the Source described by the dataset config
func NewSource(cfg config.Dataset) (Source, error) {
	switch cfg.Type {
	case "csv":
		return &CSVSource{Path: cfg.Path}, nil
	case "xlsx":
		return &XLSXSource{Path: cfg.Path, Sheet: cfg.Sheet}, nil
	case "postgres":
		return NewSQLSource("postgres", cfg.DSN, cfg.Table), nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.Path
		}
		return NewSQLSource("sqlite", dsn, cfg.Table), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedSource, "%q", cfg.Type)
}

// fileVersion derives a version from file size and modification time
func fileVersion(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrapf(err, "stat %s", path)
	}
	return fmt.Sprintf("%d-%d", info.Size(), info.ModTime().UnixNano()), nil
}
