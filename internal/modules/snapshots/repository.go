package snapshots

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository provides snapshot persistence on ledger.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// Insert stores a snapshot with its payload
func (r *Repository) Insert(snapshot *Snapshot) error {
	_, err := r.db.Exec(`
		INSERT INTO snapshots (id, taken_at, total_value, total_cost, total_pl, partial, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID, snapshot.TakenAt, snapshot.TotalValue, snapshot.TotalCost,
		snapshot.TotalPL, snapshot.Partial, snapshot.Payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// GetByID returns one snapshot with its payload, or nil when unknown
func (r *Repository) GetByID(id string) (*Snapshot, error) {
	var s Snapshot
	err := r.db.QueryRow(`
		SELECT id, taken_at, total_value, total_cost, total_pl, partial, payload
		FROM snapshots WHERE id = ?`, id,
	).Scan(&s.ID, &s.TakenAt, &s.TotalValue, &s.TotalCost, &s.TotalPL, &s.Partial, &s.Payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return &s, nil
}

// List returns snapshot summaries newest first, payloads excluded
func (r *Repository) List() ([]Snapshot, error) {
	rows, err := r.db.Query(`
		SELECT id, taken_at, total_value, total_cost, total_pl, partial
		FROM snapshots ORDER BY taken_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.TakenAt, &s.TotalValue, &s.TotalCost, &s.TotalPL, &s.Partial); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

// Delete removes one snapshot. Returns false when the ID is unknown.
func (r *Repository) Delete(id string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete snapshot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// DeleteBefore removes all snapshots taken before the given timestamp
// and returns how many were removed
func (r *Repository) DeleteBefore(unix int64) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE taken_at < ?`, unix)
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if affected > 0 {
		r.log.Info().Int64("count", affected).Msg("Deleted old snapshots")
	}

	return affected, nil
}
