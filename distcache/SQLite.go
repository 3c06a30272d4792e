package distcache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists caches to a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the SQLite database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("openSQLite: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("openSQLite: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("openSQLite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("openSQLite: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("openSQLite: %w", err)
	}
	return &SQLiteStore{db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS distances (
			scene TEXT NOT NULL,
			x INTEGER NOT NULL,
			z INTEGER NOT NULL,
			target TEXT NOT NULL,
			distance REAL NOT NULL,
			PRIMARY KEY (scene, x, z, target)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Save writes all entries of the cache, replacing existing entries for
// the same scene, cell, and target. Saving a cache with a grid size
// different from the stored one fails.
func (s *SQLiteStore) Save(ctx context.Context, c *Cache) error {
	stored, ok, err := s.gridSize(ctx)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if ok && stored != c.GridSize() {
		return fmt.Errorf("save: cache grid size %v does not match stored "+
			"grid size %v", c.GridSize(), stored)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key, value)
		VALUES ('grid_size', ?)`,
		strconv.FormatFloat(c.GridSize(), 'g', -1, 64)); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO
		distances(scene, x, z, target, distance) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer stmt.Close()

	for _, e := range c.Entries() {
		if _, err := stmt.ExecContext(ctx, e.Scene, e.X, e.Z, e.Target,
			e.Distance); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return tx.Commit()
}

// Load reads the stored cache. If scenes are given, only their entries
// are read.
func (s *SQLiteStore) Load(ctx context.Context, scenes ...string) (*Cache,
	error) {
	gridSize, ok, err := s.gridSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("load: database holds no cache")
	}

	c := New(gridSize)
	if len(scenes) == 0 {
		if err := s.loadScene(ctx, c, `SELECT scene, x, z, target, distance
			FROM distances ORDER BY rowid`); err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		return c, nil
	}

	for _, scene := range scenes {
		if err := s.loadScene(ctx, c, `SELECT scene, x, z, target, distance
			FROM distances WHERE scene = ? ORDER BY rowid`, scene); err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
	}
	return c, nil
}

func (s *SQLiteStore) loadScene(ctx context.Context, c *Cache, query string,
	args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Scene, &e.X, &e.Z, &e.Target,
			&e.Distance); err != nil {
			return err
		}
		c.AddEntry(e)
	}
	return rows.Err()
}

func (s *SQLiteStore) gridSize(ctx context.Context) (float64, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'grid_size'`).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}

	g, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("illegal grid size %q: %w", value, err)
	}
	return g, true, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
