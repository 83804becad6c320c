package tabular

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens a SQLite database at the given path for use as a local sheet.
// It creates the parent directory, enables WAL and sets connection pool settings.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Row shifting runs in a single transaction; one writer keeps SQLite from
	// returning SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the cell table. It is idempotent.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS cells (
			sheet TEXT NOT NULL,
			row INTEGER NOT NULL,
			col INTEGER NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (sheet, row, col)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cells_sheet_row ON cells (sheet, row);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// SQLiteClient implements Client over a local cell table with the same
// positional semantics as a spreadsheet. Only non-empty cells are stored.
type SQLiteClient struct {
	db    *sql.DB
	sheet string
}

// NewSQLiteClient creates a client for one sheet in the database.
func NewSQLiteClient(db *sql.DB, sheet string) *SQLiteClient {
	return &SQLiteClient{db: db, sheet: sheet}
}

// Opener returns an Opener that checks the connection before handing out the client.
func (c *SQLiteClient) Opener() Opener {
	return func(ctx context.Context) (Client, error) {
		if err := c.db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("%w: ping sqlite: %w", ErrUnavailable, err)
		}
		return c, nil
	}
}

// ReadRange returns the populated rows of r.
func (c *SQLiteClient) ReadRange(ctx context.Context, r Range) ([][]string, error) {
	first, last, err := columnSpan(r)
	if err != nil {
		return nil, fmt.Errorf("read range: %w", err)
	}
	start := r.StartRow()

	rows, err := c.db.QueryContext(ctx,
		`SELECT row, col, value FROM cells
		 WHERE sheet = ? AND row >= ? AND (? = 0 OR row <= ?) AND col BETWEEN ? AND ?
		 ORDER BY row, col`,
		c.sheet, start, r.ToRow, r.ToRow, first, last,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: read range: %w", ErrUnavailable, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out [][]string
	for rows.Next() {
		var row, col int
		var value string
		if err := rows.Scan(&row, &col, &value); err != nil {
			return nil, fmt.Errorf("%w: scan cell: %w", ErrUnavailable, err)
		}
		idx := row - start
		for len(out) <= idx {
			out = append(out, nil)
		}
		offset := col - first
		for len(out[idx]) <= offset {
			out[idx] = append(out[idx], "")
		}
		out[idx][offset] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read range: %w", ErrUnavailable, err)
	}

	for i := range out {
		if out[i] == nil {
			out[i] = []string{}
		}
	}
	return trimRows(out), nil
}

// AppendRows writes rows after the last populated row of the sheet.
func (c *SQLiteClient) AppendRows(ctx context.Context, r Range, rows [][]string) error {
	first, last, err := columnSpan(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteRejected, err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin append: %w", ErrUnavailable, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var maxRow sql.NullInt64
	if err := tx.QueryRowContext(ctx, "SELECT MAX(row) FROM cells WHERE sheet = ?", c.sheet).Scan(&maxRow); err != nil {
		return fmt.Errorf("%w: find last row: %w", ErrUnavailable, err)
	}
	next := int(maxRow.Int64) + 1

	if err := writeCells(ctx, tx, c.sheet, next, first, last, rows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit append: %w", ErrUnavailable, err)
	}
	return nil
}

// UpdateRange overwrites cells starting at the range origin. Empty strings clear cells.
func (c *SQLiteClient) UpdateRange(ctx context.Context, r Range, rows [][]string) error {
	first, last, err := columnSpan(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteRejected, err)
	}
	if r.ToRow > 0 && r.StartRow()+len(rows)-1 > r.ToRow {
		return fmt.Errorf("%w: %d rows do not fit in %s", ErrWriteRejected, len(rows), r.A1(c.sheet))
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin update: %w", ErrUnavailable, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := writeCells(ctx, tx, c.sheet, r.StartRow(), first, last, rows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit update: %w", ErrUnavailable, err)
	}
	return nil
}

// DeleteRows removes the 0-based rows [start, endExclusive) and shifts later rows up.
func (c *SQLiteClient) DeleteRows(ctx context.Context, start, endExclusive int) error {
	if start < 0 || endExclusive <= start {
		return fmt.Errorf("%w: invalid row span [%d, %d)", ErrWriteRejected, start, endExclusive)
	}
	count := endExclusive - start

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin delete: %w", ErrUnavailable, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Rows are stored 1-based, so 0-based [start, end) is (start, end].
	stmts := []struct {
		query string
		args  []any
	}{
		{"DELETE FROM cells WHERE sheet = ? AND row > ? AND row <= ?", []any{c.sheet, start, endExclusive}},
		// Shift through negative rows so the primary key never collides mid-update.
		{"UPDATE cells SET row = -(row - ?) WHERE sheet = ? AND row > ?", []any{count, c.sheet, endExclusive}},
		{"UPDATE cells SET row = -row WHERE sheet = ? AND row < 0", []any{c.sheet}},
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("%w: delete rows: %w", ErrUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit delete: %w", ErrUnavailable, err)
	}
	return nil
}

func writeCells(ctx context.Context, tx *sql.Tx, sheet string, startRow, first, last int, rows [][]string) error {
	for i, row := range rows {
		if len(row) > last-first+1 {
			return fmt.Errorf("%w: row %d has %d cells, range allows %d", ErrWriteRejected, i, len(row), last-first+1)
		}
		for j, value := range row {
			var err error
			if value == "" {
				_, err = tx.ExecContext(ctx,
					"DELETE FROM cells WHERE sheet = ? AND row = ? AND col = ?",
					sheet, startRow+i, first+j)
			} else {
				_, err = tx.ExecContext(ctx,
					`INSERT INTO cells (sheet, row, col, value) VALUES (?, ?, ?, ?)
					 ON CONFLICT (sheet, row, col) DO UPDATE SET value = excluded.value`,
					sheet, startRow+i, first+j, value)
			}
			if err != nil {
				return fmt.Errorf("%w: write cell: %w", ErrUnavailable, err)
			}
		}
	}
	return nil
}

func columnSpan(r Range) (int, int, error) {
	first, err := ColumnIndex(r.FromColumn)
	if err != nil {
		return 0, 0, err
	}
	last, err := ColumnIndex(r.ToColumn)
	if err != nil {
		return 0, 0, err
	}
	if last < first {
		return 0, 0, fmt.Errorf("column %s precedes %s", r.ToColumn, r.FromColumn)
	}
	return first, last, nil
}
