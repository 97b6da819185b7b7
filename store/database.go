// database.go - Kern-Datenbank-Funktionen
// Enthaelt: database struct, newDatabase, Close, init, Schema-Version-Handling

package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite-Treiber registrieren
)

// currentSchemaVersion definiert die aktuelle Datenbank-Schema-Version.
// Wird bei Schema-Aenderungen erhoeht, die Migrationen erfordern.
const currentSchemaVersion = 1

// database umhuellt die SQLite-Verbindung.
// SQLite verwaltet sein eigenes Locking fuer konkurrierende Zugriffe:
// - Mehrere Leser koennen gleichzeitig auf die Datenbank zugreifen
// - Schreiber werden serialisiert (nur ein Schreiber gleichzeitig)
// - WAL-Modus erlaubt Lesern, Schreiber nicht zu blockieren
// Daher benoetigen wir keine Application-Level-Locks fuer Datenbankoperationen.
type database struct {
	conn *sql.DB
}

// newDatabase erstellt eine neue Datenbankverbindung
func newDatabase(dbPath string) (*database, error) {
	// Datenbankverbindung oeffnen
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verbindung testen
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &database{conn: conn}

	// Schema initialisieren
	if err := db.init(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return db, nil
}

// Close schliesst die Datenbankverbindung
func (db *database) Close() error {
	_, _ = db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
	return db.conn.Close()
}

// init initialisiert das Datenbankschema
func (db *database) init() error {
	if _, err := db.conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		schema_version INTEGER NOT NULL DEFAULT %d
	);

	-- Standard-Meta-Zeile einfuegen falls nicht vorhanden
	INSERT OR IGNORE INTO meta (id) VALUES (1);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		device TEXT NOT NULL,
		test TEXT NOT NULL,
		fuser TEXT NOT NULL DEFAULT '',
		warmup INTEGER NOT NULL DEFAULT 0,
		repeat INTEGER NOT NULL DEFAULT 0,
		inner_loop INTEGER NOT NULL DEFAULT 0,
		version TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS run_rows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		device TEXT NOT NULL,
		experiment TEXT NOT NULL,
		metric TEXT NOT NULL,
		value REAL NOT NULL,
		pvalue REAL NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_run_rows_run_id ON run_rows(run_id);
	`, currentSchemaVersion)

	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}

	// Schema-Version pruefen und bei Bedarf migrieren
	if err := db.migrate(); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	return nil
}

// migrate fuehrt Datenbank-Schema-Migrationen durch.
// Neue Migrationspfade kommen hier dazu, sobald currentSchemaVersion waechst.
func (db *database) migrate() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	if version == currentSchemaVersion {
		return nil
	}

	// Unbekannte Version - auf aktuell setzen
	return db.setSchemaVersion(currentSchemaVersion)
}

// getSchemaVersion gibt die aktuelle Schema-Version zurueck
func (db *database) getSchemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow("SELECT schema_version FROM meta").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("get schema version: %w", err)
	}
	return version, nil
}

// setSchemaVersion setzt die Schema-Version
func (db *database) setSchemaVersion(version int) error {
	_, err := db.conn.Exec("UPDATE meta SET schema_version = ?", version)
	if err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}
