package snapshots

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	err = InitSchema(db)
	require.NoError(t, err)

	return db
}

func testSnapshot(id string, takenAt int64) *Snapshot {
	return &Snapshot{
		ID:         id,
		TakenAt:    takenAt,
		TotalValue: 1200,
		TotalCost:  1000,
		TotalPL:    200,
		Payload:    []byte{0x80},
	}
}

func TestInsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	snapshot := testSnapshot("snap-1", 1700000000)
	snapshot.Partial = true
	require.NoError(t, repo.Insert(snapshot))

	got, err := repo.GetByID("snap-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1700000000), got.TakenAt)
	assert.Equal(t, 1200.0, got.TotalValue)
	assert.True(t, got.Partial)
	assert.Equal(t, []byte{0x80}, got.Payload)
}

func TestGetUnknown(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())

	got, err := repo.GetByID("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListNewestFirstWithoutPayloads(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())
	require.NoError(t, repo.Insert(testSnapshot("older", 1700000000)))
	require.NoError(t, repo.Insert(testSnapshot("newer", 1700086400)))

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "newer", list[0].ID)
	assert.Equal(t, "older", list[1].ID)
	assert.Nil(t, list[0].Payload)
}

func TestDeleteSnapshot(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())
	require.NoError(t, repo.Insert(testSnapshot("snap-1", 1700000000)))

	deleted, err := repo.Delete("snap-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete("snap-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteBefore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, zerolog.Nop())
	require.NoError(t, repo.Insert(testSnapshot("ancient", 1000)))
	require.NoError(t, repo.Insert(testSnapshot("old", 2000)))
	require.NoError(t, repo.Insert(testSnapshot("current", 3000)))

	count, err := repo.DeleteBefore(3000)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "current", list[0].ID)
}
