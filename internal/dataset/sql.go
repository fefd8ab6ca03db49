package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLSource reads every row of one table through database/sql.
// Supported drivers are "postgres" (lib/pq) and "sqlite" (modernc).
type SQLSource struct {
	driver string
	dsn    string
	table  string

	mu sync.Mutex
	db *sql.DB
}

func NewSQLSource(driver, dsn, table string) *SQLSource {
	return &SQLSource{driver: driver, dsn: dsn, table: table}
}

// NewSQLSourceFromDB wraps an already opened connection
func NewSQLSourceFromDB(driver string, db *sql.DB, table string) *SQLSource {
	return &SQLSource{driver: driver, table: table, db: db}
}

func (s *SQLSource) Name() string {
	return s.driver + ":" + s.table
}

// Version is unknown for SQL tables; they refresh on explicit reload only
func (s *SQLSource) Version(ctx context.Context) (string, error) {
	return "", nil
}

func (s *SQLSource) connect(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", s.driver)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping %s", s.driver)
	}
	s.db = db
	return db, nil
}

func (s *SQLSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// ListTables returns the user tables visible to the connection
func (s *SQLSource) ListTables(ctx context.Context) ([]string, error) {
	db, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`
	if s.driver == "postgres" {
		query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name`
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan table name")
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (s *SQLSource) Load(ctx context.Context) (*Table, error) {
	db, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	// The table name is interpolated, so it must be one the database reports
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(tables, s.table) {
		return nil, errors.Errorf("table %q not found", s.table)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+pq.QuoteIdentifier(s.table))
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", s.table)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "read columns")
	}

	table := &Table{Columns: columns, Rows: [][]string{}}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}

		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = cellString(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rows")
	}
	return table, nil
}

// cellString renders a scanned driver value as the text a spreadsheet would show
func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format("2006-01-02")
	}
	return fmt.Sprint(v)
}
