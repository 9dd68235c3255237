package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/theodtasia/sna-recommendation-system/internal/edge"
	"github.com/theodtasia/sna-recommendation-system/internal/edgecache"
)

// DB wraps the SQLite index over the edge cache. The cache files stay the
// source of truth; the index is rebuilt from them and can be deleted freely.
type DB struct {
	db *sql.DB
}

// CacheReader is the read side of the edge cache.
type CacheReader interface {
	LoadTestEdges(day int) (*edgecache.TestEdgeSet, error)
	LoadEdgeAttributes(day int) (*edgecache.AttributeTable, error)
}

// DayStatus summarizes the cached data of one day.
type DayStatus struct {
	Day          int  `json:"day"`
	HasTestEdges bool `json:"has_test_edges"`
	Positives    int  `json:"positives"`
	Negatives    int  `json:"negatives"`
	HasAttrs     bool `json:"has_attrs"`
	AttrEntries  int  `json:"attr_entries"`
}

// TestEdgeRow is one indexed test pair.
type TestEdgeRow struct {
	Day    int   `json:"day"`
	U      int64 `json:"u"`
	V      int64 `json:"v"`
	Target bool  `json:"target"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS days (
			day INTEGER PRIMARY KEY,
			has_test_edges INTEGER NOT NULL,
			positives INTEGER NOT NULL,
			negatives INTEGER NOT NULL,
			has_attrs INTEGER NOT NULL,
			attr_entries INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS test_edges (
			day INTEGER NOT NULL,
			u INTEGER NOT NULL,
			v INTEGER NOT NULL,
			target INTEGER NOT NULL,
			PRIMARY KEY (day, u, v)
		);

		CREATE INDEX IF NOT EXISTS idx_test_edges_u ON test_edges(day, u);
		CREATE INDEX IF NOT EXISTS idx_test_edges_v ON test_edges(day, v);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromCache clears the index and rebuilds it from days 0..numDays-1
// of the cache. Days whose test edges were never built are recorded as
// missing rather than failing the rebuild. Returns the number of indexed pairs.
func (d *DB) RebuildFromCache(cache CacheReader, numDays int) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM days"); err != nil {
		return 0, fmt.Errorf("clearing days table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM test_edges"); err != nil {
		return 0, fmt.Errorf("clearing test_edges table: %w", err)
	}

	dayStmt, err := tx.Prepare(`
		INSERT INTO days (day, has_test_edges, positives, negatives, has_attrs, attr_entries)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing days insert: %w", err)
	}
	defer dayStmt.Close()

	edgeStmt, err := tx.Prepare(`
		INSERT INTO test_edges (day, u, v, target) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing test_edges insert: %w", err)
	}
	defer edgeStmt.Close()

	count := 0
	for day := 0; day < numDays; day++ {
		status := DayStatus{Day: day}

		set, err := cache.LoadTestEdges(day)
		switch {
		case errors.Is(err, edgecache.ErrTestEdgesNotFound):
		case err != nil:
			return 0, fmt.Errorf("reading test edges for day %d: %w", day, err)
		default:
			status.HasTestEdges = true
			status.Positives = set.NumPositives()
			status.Negatives = set.Len() - status.Positives
			for i, p := range set.Edges {
				if _, err := edgeStmt.Exec(day, p.U, p.V, set.Targets[i]); err != nil {
					return 0, fmt.Errorf("inserting test edge %v for day %d: %w", p, day, err)
				}
				count++
			}
		}

		attrs, err := cache.LoadEdgeAttributes(day)
		if err != nil {
			return 0, fmt.Errorf("reading edge attributes for day %d: %w", day, err)
		}
		if attrs != nil {
			status.HasAttrs = true
			status.AttrEntries = attrs.Len()
		}

		_, err = dayStmt.Exec(day, status.HasTestEdges, status.Positives, status.Negatives,
			status.HasAttrs, status.AttrEntries)
		if err != nil {
			return 0, fmt.Errorf("inserting status for day %d: %w", day, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing index: %w", err)
	}
	return count, nil
}

// ListDays returns the status of every indexed day in day order.
func (d *DB) ListDays() ([]DayStatus, error) {
	rows, err := d.db.Query(`
		SELECT day, has_test_edges, positives, negatives, has_attrs, attr_entries
		FROM days ORDER BY day
	`)
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}
	defer rows.Close()

	var days []DayStatus
	for rows.Next() {
		s, err := scanDay(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, *s)
	}
	return days, rows.Err()
}

// GetDay returns the status of one day, or nil if it was not indexed.
func (d *DB) GetDay(day int) (*DayStatus, error) {
	row := d.db.QueryRow(`
		SELECT day, has_test_edges, positives, negatives, has_attrs, attr_entries
		FROM days WHERE day = ?
	`, day)
	s, err := scanDay(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// TestEdgesOf returns the indexed test pairs of day that touch node.
func (d *DB) TestEdgesOf(day int, node int64) ([]TestEdgeRow, error) {
	rows, err := d.db.Query(`
		SELECT day, u, v, target FROM test_edges
		WHERE day = ? AND (u = ? OR v = ?)
		ORDER BY target DESC, u, v
	`, day, node, node)
	if err != nil {
		return nil, fmt.Errorf("querying test edges of %d: %w", node, err)
	}
	defer rows.Close()

	var out []TestEdgeRow
	for rows.Next() {
		var r TestEdgeRow
		if err := rows.Scan(&r.Day, &r.U, &r.V, &r.Target); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// IsTestEdge reports whether the pair (v,u) is indexed for day, and whether
// it is a positive.
func (d *DB) IsTestEdge(day int, v, u int64) (found, target bool, err error) {
	k := edge.NewKey(v, u)
	err = d.db.QueryRow(`
		SELECT target FROM test_edges WHERE day = ? AND u = ? AND v = ?
	`, day, k.U, k.V).Scan(&target)
	if err == sql.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, target, nil
}

// CountTestEdges returns the number of indexed test pairs.
func (d *DB) CountTestEdges() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM test_edges").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDay(s scanner) (*DayStatus, error) {
	var st DayStatus
	err := s.Scan(&st.Day, &st.HasTestEdges, &st.Positives, &st.Negatives, &st.HasAttrs, &st.AttrEntries)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
