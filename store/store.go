// Modul: store.go
// Beschreibung: Persistente History der Benchmark-Laeufe.
// Enthaelt Run- und Row-Typen sowie den Store mit lazy Datenbank-Initialisierung.

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/larch-ml/larch/envconfig"
)

// Run beschreibt einen abgeschlossenen Benchmark-Lauf
type Run struct {
	ID        string    `json:"id"`
	Started   time.Time `json:"started"`
	Device    string    `json:"device"`
	Test      string    `json:"test"`
	Fuser     string    `json:"fuser"`
	Warmup    int       `json:"warmup"`
	Repeat    int       `json:"repeat"`
	InnerLoop int       `json:"inner_loop"`
	Version   string    `json:"version"`

	// Rows wird von ListRuns aus der Datenbank gezaehlt
	Rows int `json:"rows"`
}

// Row ist eine einzelne Ergebniszeile eines Laufs
type Row struct {
	Name       string  `json:"name"`
	Device     string  `json:"device"`
	Experiment string  `json:"experiment"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	PValue     float64 `json:"pvalue"`
}

type Store struct {
	// DBPath allows overriding the default database path (mainly for testing)
	DBPath string

	// dbMu protects database initialization only
	dbMu sync.Mutex
	db   *database
}

func (s *Store) ensureDB() error {
	// Fast path: check if db is already initialized
	if s.db != nil {
		return nil
	}

	// Slow path: initialize database with lock
	s.dbMu.Lock()
	defer s.dbMu.Unlock()

	// Double-check after acquiring lock
	if s.db != nil {
		return nil
	}

	dbPath := s.DBPath
	if dbPath == "" {
		dbPath = envconfig.HistoryFile()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}

	database, err := newDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	s.db = database
	return nil
}

// SaveRun persistiert einen Lauf und seine Ergebniszeilen
func (s *Store) SaveRun(run Run, rows []Row) error {
	if err := s.ensureDB(); err != nil {
		return err
	}

	return s.db.saveRun(run, rows)
}

// ListRuns gibt alle persistierten Laeufe zurueck, neueste zuerst
func (s *Store) ListRuns() ([]Run, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	return s.db.listRuns()
}

// RunRows gibt die Ergebniszeilen eines Laufs zurueck
func (s *Store) RunRows(runID string) ([]Row, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	return s.db.runRows(runID)
}

func (s *Store) Close() error {
	s.dbMu.Lock()
	defer s.dbMu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
