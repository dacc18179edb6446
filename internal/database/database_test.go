package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary database with a validated schema
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.ValidateSchema()
	require.NoError(t, err)

	return db
}

func testEntry(uuid, name string, size int64) Entry {
	return Entry{
		UUID: uuid,
		Name: name,
		Hash: "hash-" + uuid,
		Path: "/source/" + uuid + ".mkv",
		Size: size,
	}
}

func insertTestEntry(t *testing.T, db *DB, entry Entry) {
	t.Helper()
	declared := NewMetadata(entry.UUID, KindDeclared)
	actual := NewMetadata(entry.UUID, KindActual)
	require.NoError(t, db.InsertFile(entry, []Metadata{declared, actual}))
}

func TestValidateSchemaFreshDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	// First call creates the schema and reports the mismatch
	valid, err := db.ValidateSchema()
	require.NoError(t, err)
	require.False(t, valid)

	// Second call sees its own schema
	valid, err = db.ValidateSchema()
	require.NoError(t, err)
	require.True(t, valid)
}

func TestValidateSchemaDriftDropsTables(t *testing.T) {
	db := setupTestDB(t)

	insertTestEntry(t, db, testEntry("u1", "Some Movie", 100))

	// Simulate drift from an older build
	_, err := db.DB().Exec("ALTER TABLE entries ADD COLUMN stray TEXT")
	require.NoError(t, err)

	valid, err := db.ValidateSchema()
	require.NoError(t, err)
	require.False(t, valid)

	// The drifted tables were dropped wholesale, data included
	entries, err := db.ListEntries()
	require.NoError(t, err)
	require.Empty(t, entries)

	valid, err = db.ValidateSchema()
	require.NoError(t, err)
	require.True(t, valid)
}

func TestInsertFileAndGetters(t *testing.T) {
	db := setupTestDB(t)

	entry := testEntry("u1", "Some Movie", 1<<30)
	declared := NewMetadata("u1", KindDeclared)
	declared.Codec = "h264"
	declared.Resolution = "1920x1080"
	actual := NewMetadata("u1", KindActual)
	actual.Codec = "h264"
	actual.Framerate = 23.976
	actual.Extra["bitrate"] = 8_000_000

	require.NoError(t, db.InsertFile(entry, []Metadata{declared, actual}))

	got, err := db.GetEntryByUUID("u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, entry, *got)

	byKey, err := db.GetEntryByHashAndPath(entry.Hash, entry.Path)
	require.NoError(t, err)
	require.NotNil(t, byKey)
	require.Equal(t, "u1", byKey.UUID)

	// Progress row was created pending
	progress, err := db.GetProgress("u1")
	require.NoError(t, err)
	require.NotNil(t, progress)
	require.Equal(t, StatusPending, progress.Status)
	require.Equal(t, 0.0, progress.Progress)
	require.Nil(t, progress.Workfile)

	meta, err := db.GetMetadata("u1", KindDeclared)
	require.NoError(t, err)
	require.NotNil(t, meta)
	require.Equal(t, "h264", meta.Codec)
	require.Equal(t, "1920x1080", meta.Resolution)

	all, err := db.GetAllMetadata("u1")
	require.NoError(t, err)
	require.Len(t, all, 2)

	gotActual, err := db.GetMetadata("u1", KindActual)
	require.NoError(t, err)
	require.Equal(t, 23.976, gotActual.Framerate)
	// JSON numbers come back as float64
	require.Equal(t, float64(8_000_000), gotActual.Extra["bitrate"])
}

func TestInsertFileIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	entry := testEntry("u1", "Some Movie", 100)
	insertTestEntry(t, db, entry)

	// Re-inserting doesn't clobber progress
	require.NoError(t, db.SetStatus("u1", StatusDone))
	insertTestEntry(t, db, entry)

	progress, err := db.GetProgress("u1")
	require.NoError(t, err)
	require.Equal(t, StatusDone, progress.Status)

	entries, err := db.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestGettersReturnNilWhenMissing(t *testing.T) {
	db := setupTestDB(t)

	entry, err := db.GetEntryByUUID("nope")
	require.NoError(t, err)
	require.Nil(t, entry)

	progress, err := db.GetProgress("nope")
	require.NoError(t, err)
	require.Nil(t, progress)

	meta, err := db.GetMetadata("nope", KindActual)
	require.NoError(t, err)
	require.Nil(t, meta)
}

func TestListEntriesInsertionOrder(t *testing.T) {
	db := setupTestDB(t)

	insertTestEntry(t, db, testEntry("u1", "First", 10))
	insertTestEntry(t, db, testEntry("u2", "Second", 30))
	insertTestEntry(t, db, testEntry("u3", "Third", 20))

	entries, err := db.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, []string{"u1", "u2", "u3"},
		[]string{entries[0].UUID, entries[1].UUID, entries[2].UUID})
}

func TestUpdateProgressPartial(t *testing.T) {
	db := setupTestDB(t)
	insertTestEntry(t, db, testEntry("u1", "Movie", 100))

	status := StatusInProgress
	progressVal := 42.5
	frame := int64(1000)
	total := int64(2400)
	workfile := "/workdir/u1.mkv"

	require.NoError(t, db.UpdateProgress("u1", ProgressUpdate{
		Status:       &status,
		Progress:     &progressVal,
		FrameCurrent: &frame,
		FrameTotal:   &total,
		Workfile:     &sql.NullString{String: workfile, Valid: true},
	}))

	p, err := db.GetProgress("u1")
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, p.Status)
	require.Equal(t, 42.5, p.Progress)
	require.Equal(t, int64(1000), p.FrameCurrent)
	require.Equal(t, int64(2400), p.FrameTotal)
	require.NotNil(t, p.Workfile)
	require.Equal(t, workfile, *p.Workfile)

	// Partial update: only progress changes, everything else untouched
	newProgress := 50.0
	require.NoError(t, db.UpdateProgress("u1", ProgressUpdate{Progress: &newProgress}))

	p, err = db.GetProgress("u1")
	require.NoError(t, err)
	require.Equal(t, 50.0, p.Progress)
	require.Equal(t, StatusInProgress, p.Status)
	require.NotNil(t, p.Workfile)

	// Clearing the workfile stores NULL
	done := StatusDone
	require.NoError(t, db.UpdateProgress("u1", ProgressUpdate{
		Status:   &done,
		Workfile: &sql.NullString{},
	}))

	p, err = db.GetProgress("u1")
	require.NoError(t, err)
	require.Equal(t, StatusDone, p.Status)
	require.Nil(t, p.Workfile)
}

func TestUpdateProgressNoFieldsIsNoop(t *testing.T) {
	db := setupTestDB(t)
	insertTestEntry(t, db, testEntry("u1", "Movie", 100))

	require.NoError(t, db.UpdateProgress("u1", ProgressUpdate{}))

	p, err := db.GetProgress("u1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, p.Status)
}

func TestCountByStatus(t *testing.T) {
	db := setupTestDB(t)

	insertTestEntry(t, db, testEntry("u1", "A", 10))
	insertTestEntry(t, db, testEntry("u2", "B", 20))
	insertTestEntry(t, db, testEntry("u3", "C", 30))
	require.NoError(t, db.SetStatus("u2", StatusDone))
	require.NoError(t, db.SetStatus("u3", StatusQueued))

	counts, err := db.CountByStatus()
	require.NoError(t, err)
	require.Equal(t, 1, counts[StatusPending])
	require.Equal(t, 1, counts[StatusDone])
	require.Equal(t, 1, counts[StatusQueued])
	require.Equal(t, 0, counts[StatusInProgress])
}

func TestHasActiveQueue(t *testing.T) {
	db := setupTestDB(t)
	insertTestEntry(t, db, testEntry("u1", "A", 10))

	active, err := db.HasActiveQueue()
	require.NoError(t, err)
	require.False(t, active)

	require.NoError(t, db.SetStatus("u1", StatusQueued))
	active, err = db.HasActiveQueue()
	require.NoError(t, err)
	require.True(t, active)

	require.NoError(t, db.SetStatus("u1", StatusInProgress))
	active, err = db.HasActiveQueue()
	require.NoError(t, err)
	require.True(t, active)

	require.NoError(t, db.SetStatus("u1", StatusDone))
	active, err = db.HasActiveQueue()
	require.NoError(t, err)
	require.False(t, active)
}

func TestQueryBestCandidate(t *testing.T) {
	db := setupTestDB(t)

	best, err := db.QueryBestCandidate()
	require.NoError(t, err)
	require.Nil(t, best)

	insertTestEntry(t, db, testEntry("small", "Small", 100))
	insertTestEntry(t, db, testEntry("big", "Big", 5000))
	insertTestEntry(t, db, testEntry("big2", "Big Too", 5000))

	// Largest wins; ties break by insertion order
	best, err = db.QueryBestCandidate()
	require.NoError(t, err)
	require.NotNil(t, best)
	require.Equal(t, "big", best.UUID)

	// Non-pending entries are not candidates
	require.NoError(t, db.SetStatus("big", StatusDone))
	require.NoError(t, db.SetStatus("big2", StatusOptimum))

	best, err = db.QueryBestCandidate()
	require.NoError(t, err)
	require.Equal(t, "small", best.UUID)
}

func TestPickNextQueued(t *testing.T) {
	db := setupTestDB(t)

	next, err := db.PickNextQueued()
	require.NoError(t, err)
	require.Nil(t, next)

	insertTestEntry(t, db, testEntry("u1", "A", 10))
	insertTestEntry(t, db, testEntry("u2", "B", 20))
	require.NoError(t, db.SetStatus("u2", StatusQueued))
	require.NoError(t, db.SetStatus("u1", StatusQueued))

	// Oldest-inserted queued entry first, regardless of queue order
	next, err = db.PickNextQueued()
	require.NoError(t, err)
	require.Equal(t, "u1", next.UUID)
}

func TestResetInProgress(t *testing.T) {
	db := setupTestDB(t)
	insertTestEntry(t, db, testEntry("u1", "A", 10))
	insertTestEntry(t, db, testEntry("u2", "B", 20))

	status := StatusInProgress
	progressVal := 55.0
	require.NoError(t, db.UpdateProgress("u1", ProgressUpdate{
		Status:   &status,
		Progress: &progressVal,
		Workfile: &sql.NullString{String: "/workdir/u1.mkv", Valid: true},
	}))

	n, err := db.ResetInProgress()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	p, err := db.GetProgress("u1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, p.Status)
	require.Equal(t, 0.0, p.Progress)
	require.Nil(t, p.Workfile)

	// Untouched rows stay put
	p2, err := db.GetProgress("u2")
	require.NoError(t, err)
	require.Equal(t, StatusPending, p2.Status)
}

func TestForeignKeysEnforced(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.DB().Exec(
		"INSERT INTO progress (uuid, status) VALUES ('orphan', 'pending')")
	require.Error(t, err)

	_, err = db.DB().Exec(
		"INSERT INTO metadata (uuid, kind) VALUES ('orphan', 'actual')")
	require.Error(t, err)
}
