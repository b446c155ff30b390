package store

import (
	"context"
	"crypto/rand"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelog/carelog/internal/config"
	"github.com/carelog/carelog/internal/logger"
	"github.com/carelog/carelog/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "carelog.db")
	db, err := Open(context.Background(), config.Storage{DSN: dsn}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func newTestStore(t *testing.T) DurableStore {
	t.Helper()
	return New(openTestDB(t), NewMemoryCache(1<<20), logger.Nop())
}

func testRecord(t *testing.T, aad string) models.EncryptedRecord {
	t.Helper()

	nonce := make([]byte, 12)
	ciphertext := make([]byte, 48)
	_, err := rand.Read(nonce)
	require.NoError(t, err)
	_, err = rand.Read(ciphertext)
	require.NoError(t, err)

	return models.EncryptedRecord{
		Algorithm:  models.AlgAESGCM,
		KeyVersion: 1,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		Metadata:   aad,
	}
}

func TestStore_WriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := testRecord(t, "entries:1")
	require.NoError(t, s.Write(ctx, "entries", "1", want))

	got, err := s.Read(ctx, "entries", "1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_ReadMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Read(context.Background(), "entries", "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReadFallsBackToDurablePath(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	writer := New(db, NewMemoryCache(1<<20), logger.Nop())
	want := testRecord(t, "entries:1")
	require.NoError(t, writer.Write(ctx, "entries", "1", want))

	// A store with a cold cache must serve the read from SQLite.
	reader := New(db, NewMemoryCache(1<<20), logger.Nop())
	got, err := reader.Read(ctx, "entries", "1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_CacheQuotaDoesNotBlockWrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// A one-byte cache rejects every record; writes must still succeed.
	s := New(db, NewMemoryCache(1), logger.Nop())

	want := testRecord(t, "entries:1")
	require.NoError(t, s.Write(ctx, "entries", "1", want))

	got, err := s.Read(ctx, "entries", "1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_DurableWriteFailurePropagates(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec("INSERT INTO entries").WillReturnError(assert.AnError)

	cache := NewMemoryCache(1 << 20)
	s := New(&DB{DB: mockDB, logger: logger.Nop()}, cache, logger.Nop())

	err = s.Write(context.Background(), "entries", "1", testRecord(t, ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	// The optimistic cache entry must not survive a failed durable write.
	_, ok := cache.Get("entries:1")
	assert.False(t, ok)
}

func TestStore_DeleteRemovesEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "entries", "1", testRecord(t, "")))
	require.NoError(t, s.Delete(ctx, "entries", "1"))

	_, err := s.Read(ctx, "entries", "1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing entry is a no-op.
	require.NoError(t, s.Delete(ctx, "entries", "1"))
}

func TestStore_MarkSyncedIsAdvisory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "entries", "1", testRecord(t, "")))
	require.NoError(t, s.MarkSynced(ctx, "entries", "1"))

	entries, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Synced)

	// A rewrite resets the flag.
	require.NoError(t, s.Write(ctx, "entries", "1", testRecord(t, "")))
	entries, err = s.ListAll(ctx)
	require.NoError(t, err)
	assert.False(t, entries[0].Synced)
}

func TestStore_QueryByTableSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table := Table("medications")
	recA := testRecord(t, "")
	recB := testRecord(t, "")
	require.NoError(t, s.Write(ctx, table.Namespace(), "a", recA))
	require.NoError(t, s.Write(ctx, table.Namespace(), "b", recB))

	entries, err := s.QueryByTable(ctx, table)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)

	// Restartable: a second invocation yields a fresh, equal snapshot.
	again, err := s.QueryByTable(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, entries, again)
}

func TestStore_TablePrefixIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// "meds" must not leak into a scan of "med" despite the shared prefix.
	require.NoError(t, s.Write(ctx, Table("med").Namespace(), "1", testRecord(t, "")))
	require.NoError(t, s.Write(ctx, Table("meds").Namespace(), "2", testRecord(t, "")))

	entries, err := s.QueryByTable(ctx, Table("med"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].ID)
}

func TestStore_UpsertTableReplacesContents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table := Table("settings")
	require.NoError(t, s.Write(ctx, table.Namespace(), "stale", testRecord(t, "")))

	items := map[string]models.EncryptedRecord{
		"theme": testRecord(t, ""),
		"units": testRecord(t, ""),
	}
	require.NoError(t, s.UpsertTable(ctx, table, items))

	entries, err := s.QueryByTable(ctx, table)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	ids := []string{entries[0].ID, entries[1].ID}
	assert.ElementsMatch(t, []string{"theme", "units"}, ids)
}

func TestStore_DeleteTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table := Table("settings")
	require.NoError(t, s.Write(ctx, table.Namespace(), "theme", testRecord(t, "")))
	require.NoError(t, s.Write(ctx, "entries", "1", testRecord(t, "")))

	require.NoError(t, s.DeleteTable(ctx, table))

	entries, err := s.QueryByTable(ctx, table)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Other namespaces are untouched.
	_, err = s.Read(ctx, "entries", "1")
	require.NoError(t, err)
}

func TestStore_ReplaceAllSwapsPayloadsAndMeta(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "entries", "1", testRecord(t, "")))
	require.NoError(t, s.SetMeta(ctx, "key_version", "1"))

	entries, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	rotated := testRecord(t, "")
	rotated.KeyVersion = 2
	entries[0].Payload = rotated

	require.NoError(t, s.ReplaceAll(ctx, entries, map[string]string{"key_version": "2"}))

	got, err := s.Read(ctx, "entries", "1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.KeyVersion)

	version, err := s.GetMeta(ctx, "key_version")
	require.NoError(t, err)
	assert.Equal(t, "2", version)
}

func TestStore_MetaRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetMeta(ctx, "salt")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetMeta(ctx, "salt", "0011223344"))
	value, err := s.GetMeta(ctx, "salt")
	require.NoError(t, err)
	assert.Equal(t, "0011223344", value)

	// Overwrite keeps the latest value.
	require.NoError(t, s.SetMeta(ctx, "salt", "ffee"))
	value, err = s.GetMeta(ctx, "salt")
	require.NoError(t, err)
	assert.Equal(t, "ffee", value)
}

func TestStore_CrashMidWriteLeavesNoTornValue(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "carelog.db")
	ctx := context.Background()

	db, err := Open(ctx, config.Storage{DSN: dsn}, logger.Nop())
	require.NoError(t, err)

	s := New(db, NewMemoryCache(1<<20), logger.Nop())
	recA := testRecord(t, "entries:A")
	require.NoError(t, s.Write(ctx, "entries", "A", recA))

	// Simulate a crash mid-write of B: the statement runs inside an open
	// transaction whose connection dies before commit. SQLite rolls the
	// write back on the next open.
	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	tx, err := conn.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, upsertEntry, "entries:B", "entries", "B", `{"alg":"aes-256-gcm"}`, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, conn.Raw(func(driverConn any) error {
		return driverConn.(io.Closer).Close()
	}))
	_ = db.Close()

	reopened, err := Open(ctx, config.Storage{DSN: dsn}, logger.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	s2 := New(reopened, NewMemoryCache(1<<20), logger.Nop())

	gotA, err := s2.Read(ctx, "entries", "A")
	require.NoError(t, err)
	assert.Equal(t, recA, gotA)

	_, err = s2.Read(ctx, "entries", "B")
	assert.ErrorIs(t, err, ErrNotFound)
}
