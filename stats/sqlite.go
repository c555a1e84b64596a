package stats

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tebeka/atexit"

	"gitlab.com/lologarithm/climatesim/climate"
)

const createTicks = `CREATE TABLE IF NOT EXISTS ticks (
	run         TEXT    NOT NULL,
	tick        INTEGER NOT NULL,
	time        INTEGER NOT NULL,
	ats         INTEGER NOT NULL,
	water_valve INTEGER NOT NULL,
	fan         INTEGER NOT NULL,
	mode        TEXT    NOT NULL
);`

// SQLiteRecorder batches snapshots into the ticks table of a sqlite file.
// Pending rows are flushed when the batch fills, on History, on Close and
// when the process exits through atexit.
type SQLiteRecorder struct {
	*sql.DB

	mu        sync.Mutex
	pending   []climate.Snapshot
	batchSize int
	exitID    atexit.HandlerID
}

// NewSQLiteRecorder opens (or creates) the database at path.
func NewSQLiteRecorder(path string, batchSize int) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return NewSQLiteRecorderWithDB(db, batchSize)
}

// NewSQLiteRecorderWithDB records into an already open database.
func NewSQLiteRecorderWithDB(db *sql.DB, batchSize int) (*SQLiteRecorder, error) {
	if batchSize <= 0 {
		batchSize = 1
	}
	if _, err := db.Exec(createTicks); err != nil {
		return nil, fmt.Errorf("creating ticks table: %w", err)
	}
	r := &SQLiteRecorder{DB: db, batchSize: batchSize}
	r.exitID = atexit.Register(func() { r.Flush() })
	return r, nil
}

func (r *SQLiteRecorder) Display(s climate.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, s)
	if len(r.pending) >= r.batchSize {
		return r.flush()
	}
	return nil
}

// Flush writes every pending row in one transaction.
func (r *SQLiteRecorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

func (r *SQLiteRecorder) flush() error {
	if len(r.pending) == 0 {
		return nil
	}
	tx, err := r.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT INTO ticks VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, s := range r.pending {
		_, err := stmt.Exec(s.Run, s.Tick, s.Time.UnixNano(), s.ATS, s.WaterValve, s.Fan, s.Mode.String())
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting tick %d: %w", s.Tick, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	r.pending = nil
	return nil
}

func (r *SQLiteRecorder) History(limit int) ([]climate.Snapshot, error) {
	if err := r.Flush(); err != nil {
		return nil, err
	}
	q := "SELECT run, tick, time, ats, water_valve, fan, mode FROM ticks ORDER BY rowid"
	if limit > 0 {
		q = fmt.Sprintf("SELECT * FROM (SELECT rowid AS id, run, tick, time, ats, water_valve, fan, mode FROM ticks ORDER BY rowid DESC LIMIT %d) ORDER BY id", limit)
	}
	rows, err := r.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []climate.Snapshot{}
	for rows.Next() {
		var (
			s    climate.Snapshot
			id   int64
			nano int64
			mode string
		)
		dest := []any{&s.Run, &s.Tick, &nano, &s.ATS, &s.WaterValve, &s.Fan, &mode}
		if limit > 0 {
			dest = append([]any{&id}, dest...)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		s.Time = time.Unix(0, nano)
		if m, ok := climate.ParseMode(mode); ok {
			s.Mode = m
		}
		events = append(events, s)
	}
	return events, rows.Err()
}

// Close flushes what is pending and closes the database even when the
// flush fails.
func (r *SQLiteRecorder) Close() error {
	r.exitID.Cancel()
	return errors.Join(r.Flush(), r.DB.Close())
}
