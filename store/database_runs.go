// database_runs.go - Run CRUD Operationen
// Enthaelt: saveRun, listRuns, runRows

package store

import (
	"fmt"
	"time"
)

// saveRun speichert einen Lauf samt Ergebniszeilen.
// Ein bereits vorhandener Lauf mit derselben ID wird ersetzt.
func (db *database) saveRun(run Run, rows []Row) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO runs (id, started_at, device, test, fuser, warmup, repeat, inner_loop, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			device = excluded.device,
			test = excluded.test,
			fuser = excluded.fuser,
			warmup = excluded.warmup,
			repeat = excluded.repeat,
			inner_loop = excluded.inner_loop,
			version = excluded.version
	`

	_, err = tx.Exec(query,
		run.ID,
		run.Started,
		run.Device,
		run.Test,
		run.Fuser,
		run.Warmup,
		run.Repeat,
		run.InnerLoop,
		run.Version,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	// Bestehende Zeilen loeschen (werden alle neu eingefuegt)
	if _, err := tx.Exec("DELETE FROM run_rows WHERE run_id = ?", run.ID); err != nil {
		return fmt.Errorf("delete run rows: %w", err)
	}

	for _, row := range rows {
		_, err := tx.Exec(`
			INSERT INTO run_rows (run_id, name, device, experiment, metric, value, pvalue)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, row.Name, row.Device, row.Experiment, row.Metric, row.Value, row.PValue)
		if err != nil {
			return fmt.Errorf("insert run row: %w", err)
		}
	}

	return tx.Commit()
}

// listRuns gibt alle Laeufe mit Zeilenanzahl zurueck, neueste zuerst
func (db *database) listRuns() ([]Run, error) {
	query := `
		SELECT
			r.id, r.started_at, r.device, r.test, r.fuser,
			r.warmup, r.repeat, r.inner_loop, r.version,
			COUNT(rr.id) as row_count
		FROM runs r
		LEFT JOIN run_rows rr ON r.id = rr.run_id
		GROUP BY r.id
		ORDER BY r.started_at DESC
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt time.Time

		err := rows.Scan(
			&run.ID,
			&startedAt,
			&run.Device,
			&run.Test,
			&run.Fuser,
			&run.Warmup,
			&run.Repeat,
			&run.InnerLoop,
			&run.Version,
			&run.Rows,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.Started = startedAt
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// runRows gibt die Ergebniszeilen eines Laufs in Einfuegereihenfolge zurueck
func (db *database) runRows(runID string) ([]Row, error) {
	query := `
		SELECT name, device, experiment, metric, value, pvalue
		FROM run_rows
		WHERE run_id = ?
		ORDER BY id
	`

	rows, err := db.conn.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("query run rows: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var row Row
		err := rows.Scan(
			&row.Name,
			&row.Device,
			&row.Experiment,
			&row.Metric,
			&row.Value,
			&row.PValue,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return result, nil
}
