package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ScheduleCache = (*SQLiteCache)(nil)

// SQLiteCache implements ScheduleCache backed by a SQLite database.
type SQLiteCache struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS schedule_cells (
	calendar TEXT    NOT NULL,
	date     INTEGER NOT NULL, -- unix seconds, midnight UTC
	label    TEXT    NOT NULL,
	seq      INTEGER NOT NULL,
	ts       INTEGER NOT NULL, -- unix milliseconds, UTC
	PRIMARY KEY (calendar, date, label)
);
CREATE INDEX IF NOT EXISTS idx_schedule_cells_range
	ON schedule_cells (calendar, date);
`

// NewSQLiteCache opens (or creates) the cache database at dbPath and applies
// the schema.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Put upserts cells for a calendar inside one transaction.
func (c *SQLiteCache) Put(ctx context.Context, calendar string, cells []ScheduleCell) error {
	if len(cells) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO schedule_cells (calendar, date, label, seq, ts)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, cell := range cells {
		if _, err := stmt.ExecContext(ctx, calendar,
			cell.Date.Unix(), cell.Label, cell.Seq, cell.Time.UnixMilli()); err != nil {
			return fmt.Errorf("upserting cell %s/%s: %w",
				cell.Date.Format("2006-01-02"), cell.Label, err)
		}
	}
	return tx.Commit()
}

// Get returns cached cells for dates in [start, end], ordered by date and
// column position.
func (c *SQLiteCache) Get(ctx context.Context, calendar string, start, end time.Time) ([]ScheduleCell, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT date, label, seq, ts FROM schedule_cells
		WHERE calendar = ? AND date BETWEEN ? AND ?
		ORDER BY date, seq`,
		calendar, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []ScheduleCell
	for rows.Next() {
		var dateSec, tsMilli int64
		var cell ScheduleCell
		if err := rows.Scan(&dateSec, &cell.Label, &cell.Seq, &tsMilli); err != nil {
			return nil, err
		}
		cell.Date = time.Unix(dateSec, 0).UTC()
		cell.Time = time.UnixMilli(tsMilli).UTC()
		cells = append(cells, cell)
	}
	return cells, rows.Err()
}

// Coverage returns the first and last cached date for a calendar.
func (c *SQLiteCache) Coverage(ctx context.Context, calendar string) (time.Time, time.Time, bool, error) {
	var first, last sql.NullInt64
	err := c.db.QueryRowContext(ctx, `
		SELECT MIN(date), MAX(date) FROM schedule_cells WHERE calendar = ?`,
		calendar).Scan(&first, &last)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if !first.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	return time.Unix(first.Int64, 0).UTC(), time.Unix(last.Int64, 0).UTC(), true, nil
}
