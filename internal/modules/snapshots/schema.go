package snapshots

import "database/sql"

// SnapshotsSchema ensures the snapshots table exists in ledger.db.
// Payload holds the msgpack position detail; the summary columns are
// denormalized so listing never touches the blobs.
const SnapshotsSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    taken_at INTEGER NOT NULL,
    total_value REAL NOT NULL,
    total_cost REAL NOT NULL,
    total_pl REAL NOT NULL,
    partial INTEGER NOT NULL DEFAULT 0,
    payload BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(SnapshotsSchema)
	return err
}
