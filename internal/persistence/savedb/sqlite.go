package savedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"transitcraft.sim/internal/persistence/snapshot"
)

// SaveDB stores named save slots. Saves are rare and small, so writes run
// synchronously on the caller; a single connection keeps sqlite happy.
type SaveDB struct {
	db *sql.DB
}

type SlotInfo struct {
	Slot         string
	WorldID      string
	Seed         int64
	HoursRun     int
	Balance      float64
	Satisfaction float64
	SavedAt      time.Time
}

func Open(path string) (*SaveDB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS saves (
		slot TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		seed INTEGER NOT NULL,
		hours_run INTEGER NOT NULL,
		balance REAL NOT NULL,
		satisfaction REAL NOT NULL,
		saved_at TEXT NOT NULL,
		snapshot BLOB NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SaveDB{db: db}, nil
}

func (s *SaveDB) Close() error { return s.db.Close() }

// Save writes or replaces a slot.
func (s *SaveDB) Save(slot string, v *snapshot.V1, balance, satisfaction float64) error {
	if slot == "" {
		return fmt.Errorf("empty slot name")
	}
	raw, err := snapshot.Encode(v)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO saves
		(slot, world_id, seed, hours_run, balance, satisfaction, saved_at, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			world_id=excluded.world_id, seed=excluded.seed,
			hours_run=excluded.hours_run, balance=excluded.balance,
			satisfaction=excluded.satisfaction,
			saved_at=excluded.saved_at, snapshot=excluded.snapshot`,
		slot, v.WorldID, v.Seed, v.HoursRun, balance, satisfaction,
		time.Now().UTC().Format(time.RFC3339), raw)
	return err
}

// Load reads and decodes a slot.
func (s *SaveDB) Load(slot string) (*snapshot.V1, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT snapshot FROM saves WHERE slot = ?`, slot).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("save slot %q not found", slot)
	}
	if err != nil {
		return nil, err
	}
	return snapshot.Decode(raw)
}

// List returns slot metadata, newest first.
func (s *SaveDB) List() ([]SlotInfo, error) {
	rows, err := s.db.Query(`SELECT slot, world_id, seed, hours_run, balance, satisfaction, saved_at
		FROM saves ORDER BY saved_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SlotInfo
	for rows.Next() {
		var info SlotInfo
		var savedAt string
		if err := rows.Scan(&info.Slot, &info.WorldID, &info.Seed, &info.HoursRun,
			&info.Balance, &info.Satisfaction, &savedAt); err != nil {
			return nil, err
		}
		info.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *SaveDB) Delete(slot string) error {
	res, err := s.db.Exec(`DELETE FROM saves WHERE slot = ?`, slot)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("save slot %q not found", slot)
	}
	return nil
}
