package query

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Postgres executes element queries by loading the dataset into a
// transaction-scoped temporary table.
type Postgres struct {
	db      *sqlx.DB
	logger  *slog.Logger
	timeout time.Duration
}

// OpenPostgres connects to the database at dsn.
func OpenPostgres(ctx context.Context, dsn string, timeout time.Duration, logger *slog.Logger) (*Postgres, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewPostgres(db, timeout, logger), nil
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(db *sqlx.DB, timeout time.Duration, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Postgres{db: db, logger: logger.With("component", "query_executor"), timeout: timeout}
}

// Close releases the pool.
func (p *Postgres) Close() error { return p.db.Close() }

// Execute implements Executor. Nothing is persisted: the table is dropped
// when the transaction ends.
func (p *Postgres) Execute(ctx context.Context, q string, rows []dataset.Row) ([]dataset.Row, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	start := time.Now()

	cols := dataset.ColumnsOf(rows)
	types := columnTypes(rows, cols)
	table := "dashloom_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, createTableSQL(table, cols, types)); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	if len(cols) > 0 {
		if err := copyRows(ctx, tx, table, cols, types, rows); err != nil {
			return nil, err
		}
	}

	stmt := Rewrite(q, table, cols)
	rs, err := tx.QueryxContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	out := []dataset.Row{}
	for rs.Next() {
		m := map[string]any{}
		if err := rs.MapScan(m); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(dataset.Row, len(m))
		for k, v := range m {
			row[k] = normalize(v)
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	p.logger.Debug("query executed", "rows_in", len(rows), "rows_out", len(out), "elapsed", time.Since(start))
	return out, nil
}

type sqlType string

const (
	sqlNumeric sqlType = "DOUBLE PRECISION"
	sqlBool    sqlType = "BOOLEAN"
	sqlText    sqlType = "TEXT"
)

// columnTypes picks the narrowest type every non-null value of a column fits.
func columnTypes(rows []dataset.Row, cols []string) map[string]sqlType {
	types := make(map[string]sqlType, len(cols))
	for _, c := range cols {
		numeric, boolean, seen := true, true, false
		for _, r := range rows {
			v, ok := r[c]
			if !ok || v == nil {
				continue
			}
			seen = true
			if _, isNum := dataset.AsFloat(v); !isNum {
				numeric = false
			}
			if _, isBool := v.(bool); !isBool {
				boolean = false
			}
		}
		switch {
		case !seen:
			types[c] = sqlText
		case numeric:
			types[c] = sqlNumeric
		case boolean:
			types[c] = sqlBool
		default:
			types[c] = sqlText
		}
	}
	return types
}

func createTableSQL(table string, cols []string, types map[string]sqlType) string {
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		defs = append(defs, pq.QuoteIdentifier(c)+" "+string(types[c]))
	}
	return fmt.Sprintf("CREATE TEMP TABLE %s (%s) ON COMMIT DROP", pq.QuoteIdentifier(table), strings.Join(defs, ", "))
}

// copyRows bulk-loads rows with COPY FROM STDIN in a single round trip.
func copyRows(ctx context.Context, tx *sqlx.Tx, table string, cols []string, types map[string]sqlType, rows []dataset.Row) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, cols...))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}
	defer stmt.Close()
	args := make([]any, len(cols))
	for _, r := range rows {
		if r == nil {
			continue
		}
		for i, c := range cols {
			args[i] = bindValue(r[c], types[c])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("copy row: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flush copy: %w", err)
	}
	return nil
}

func bindValue(v any, t sqlType) any {
	if v == nil {
		return nil
	}
	switch t {
	case sqlNumeric:
		f, _ := dataset.AsFloat(v)
		return f
	case sqlBool:
		return v
	}
	return dataset.String(v)
}

// normalize maps driver values onto the Row value domain.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, bool, string, float64:
		return t
	case []byte:
		s := string(t)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	case time.Time:
		return t.Format(time.RFC3339)
	}
	if f, ok := dataset.AsFloat(v); ok {
		return f
	}
	return fmt.Sprint(v)
}
