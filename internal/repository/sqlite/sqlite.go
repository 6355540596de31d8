package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wifiroamd/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite.
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the history database and migrates the schema.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS roam_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		action TEXT NOT NULL,
		ssid TEXT NOT NULL,
		signal INTEGER NOT NULL,
		previous_ssid TEXT NOT NULL DEFAULT '',
		previous_signal INTEGER NOT NULL DEFAULT 0,
		delta INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_roam_events_timestamp ON roam_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_roam_events_action ON roam_events(action);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveEvent appends a roam event and fills in its ID.
func (r *Repository) SaveEvent(ctx context.Context, event *domain.RoamEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO roam_events
			(timestamp, action, ssid, signal, previous_ssid, previous_signal, delta, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.Timestamp, string(event.Action), event.SSID, event.Signal,
		event.PreviousSSID, event.PreviousSignal, event.Delta, event.Outcome, event.Detail)
	if err != nil {
		return fmt.Errorf("failed to save roam event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event id: %w", err)
	}
	event.ID = id

	return nil
}

// RecentEvents returns up to limit events, newest first.
func (r *Repository) RecentEvents(ctx context.Context, limit int) ([]domain.RoamEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, action, ssid, signal, previous_ssid, previous_signal, delta, outcome, detail
		FROM roam_events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query roam events: %w", err)
	}
	defer rows.Close()

	var events []domain.RoamEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// LastConnectEvent returns the most recent connect or switch event.
func (r *Repository) LastConnectEvent(ctx context.Context) (*domain.RoamEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, action, ssid, signal, previous_ssid, previous_signal, delta, outcome, detail
		FROM roam_events
		WHERE action IN (?, ?)
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`, string(domain.ActionConnect), string(domain.ActionSwitch))
	if err != nil {
		return nil, fmt.Errorf("failed to query last connect: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	event, err := scanEvent(rows)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// PruneBefore deletes events older than cutoff.
func (r *Repository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM roam_events WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune roam events: %w", err)
	}
	return result.RowsAffected()
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

func scanEvent(rows *sql.Rows) (domain.RoamEvent, error) {
	var event domain.RoamEvent
	var action string
	err := rows.Scan(&event.ID, &event.Timestamp, &action, &event.SSID, &event.Signal,
		&event.PreviousSSID, &event.PreviousSignal, &event.Delta, &event.Outcome, &event.Detail)
	if err != nil {
		return event, fmt.Errorf("failed to scan roam event: %w", err)
	}
	event.Action = domain.Action(action)
	return event, nil
}
