// Package history records finished search runs in a SQLite database so they
// can be listed and replayed later.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/treesearch/api"
)

// ErrLocked is returned by Open when another process holds the database.
var ErrLocked = errors.New("history database is locked by another process")

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	root TEXT NOT NULL,
	pattern TEXT NOT NULL,
	algorithm TEXT NOT NULL,
	find_all INTEGER NOT NULL,
	max_depth INTEGER NOT NULL,
	max_fanout INTEGER NOT NULL,
	total_nodes INTEGER NOT NULL,
	visited INTEGER NOT NULL,
	found INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

CREATE TABLE IF NOT EXISTS visits (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	path TEXT NOT NULL,
	found INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
) WITHOUT ROWID;
`

// Run is one row of the runs table.
type Run struct {
	ID         string
	Root       string
	Pattern    string
	Algorithm  api.Algorithm
	FindAll    bool
	MaxDepth   int
	MaxFanout  int
	TotalNodes int
	Visited    int
	Found      int
	StartedAt  time.Time
	Duration   time.Duration
}

// Visit is one step of a recorded traversal order.
type Visit struct {
	Seq   int
	Path  string
	Found bool
}

// Recorder writes runs to a SQLite file. It holds an advisory lock on
// <path>.lock for its whole lifetime.
type Recorder struct {
	db     *sql.DB
	lock   *flock.Flock
	logger *zap.Logger
	mu     sync.Mutex
}

// Open opens or creates the database at path.
func Open(path string, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Recorder{db: db, lock: lock, logger: logger}, nil
}

// Record stores res and its traversal order, returning the new run ID.
func (r *Recorder) Record(res *api.Result) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	tx, err := r.db.Begin()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	req := res.Request
	_, err = tx.Exec(`
		INSERT INTO runs (id, root, pattern, algorithm, find_all, max_depth, max_fanout,
			total_nodes, visited, found, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, req.RootPath, req.Pattern, string(req.Algorithm), boolInt(req.FindAll),
		req.MaxDepth, req.MaxFanout, res.TotalNodes, len(res.Visited), len(res.Found),
		res.StartedAt.UnixNano(), int64(res.Duration))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO visits (run_id, seq, path, found) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer func() { _ = stmt.Close() }()

	found := make(map[string]struct{}, len(res.Found))
	for _, p := range res.Found {
		found[p] = struct{}{}
	}
	for i, p := range res.Order {
		_, isFound := found[p]
		if _, err := stmt.Exec(id, i, p, boolInt(isFound)); err != nil {
			return "", fmt.Errorf("insert visit %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	r.logger.Debug("run recorded", zap.String("id", id), zap.Int("visits", len(res.Order)))
	return id, nil
}

// Runs lists the most recent runs first. A non-positive limit lists all.
func (r *Recorder) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(`
		SELECT id, root, pattern, algorithm, find_all, max_depth, max_fanout,
			total_nodes, visited, found, started_at, duration_ns
		FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get returns the run with the given ID.
func (r *Recorder) Get(id string) (Run, error) {
	row := r.db.QueryRow(`
		SELECT id, root, pattern, algorithm, find_all, max_depth, max_fanout,
			total_nodes, visited, found, started_at, duration_ns
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Visits returns the recorded traversal order of a run.
func (r *Recorder) Visits(id string) ([]Visit, error) {
	rows, err := r.db.Query(`SELECT seq, path, found FROM visits WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Visit
	for rows.Next() {
		var (
			v     Visit
			found int
		)
		if err := rows.Scan(&v.Seq, &v.Path, &found); err != nil {
			return nil, err
		}
		v.Found = found != 0
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close closes the database and releases the lock.
func (r *Recorder) Close() error {
	err := r.db.Close()
	if uerr := r.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run        Run
		algo       string
		findAll    int
		startedAt  int64
		durationNs int64
	)
	err := s.Scan(&run.ID, &run.Root, &run.Pattern, &algo, &findAll, &run.MaxDepth, &run.MaxFanout,
		&run.TotalNodes, &run.Visited, &run.Found, &startedAt, &durationNs)
	if err != nil {
		return Run{}, err
	}
	run.Algorithm = api.Algorithm(algo)
	run.FindAll = findAll != 0
	run.StartedAt = time.Unix(0, startedAt)
	run.Duration = time.Duration(durationNs)
	return run, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
