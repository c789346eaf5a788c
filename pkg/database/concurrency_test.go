package database

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bookstore-app/store/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestConfig uses a file database so that lock contention between
// connections would be observable.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewForTest()
	cfg.DatabaseFilePath = filepath.Join(t.TempDir(), "test.db")
	cfg.DatabaseMaxRetries = 0
	cfg.DatabaseBusyTimeout = 1_000_000
	return cfg
}

func TestConcurrentWrites(t *testing.T) {
	t.Parallel()

	db, err := New(newTestConfig(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE likes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reader TEXT NOT NULL,
		book_id INTEGER NOT NULL
	)`)
	require.NoError(t, err)

	const numReaders = 20
	const likesPerReader = 25

	var wg sync.WaitGroup
	var failures atomic.Int32
	for r := 0; r < numReaders; r++ {
		wg.Add(1)
		go func(readerID int) {
			defer wg.Done()
			for i := 0; i < likesPerReader; i++ {
				_, err := db.Exec("INSERT INTO likes (reader, book_id) VALUES (?, ?)", fmt.Sprintf("reader-%d", readerID), i)
				if err != nil {
					failures.Add(1)
				}
			}
		}(r)
	}
	wg.Wait()

	assert.Equal(t, int32(0), failures.Load())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM likes").Scan(&count))
	assert.Equal(t, numReaders*likesPerReader, count)
}

func TestIsUniqueConstraintError(t *testing.T) {
	t.Parallel()

	db, err := New(newTestConfig(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE pairs (a INTEGER NOT NULL, b INTEGER NOT NULL, UNIQUE (a, b))`)
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO pairs (a, b) VALUES (1, 2)")
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO pairs (a, b) VALUES (1, 2)")
	require.Error(t, err)
	assert.True(t, IsUniqueConstraintError(err))

	assert.False(t, IsUniqueConstraintError(nil))
	assert.False(t, IsUniqueConstraintError(fmt.Errorf("database is locked")))
}

// TestWriteLockHeldByAnotherStore opens two stores on one file, the way the
// API and cmd/seed share a database, and checks that a write blocked by the
// other store's transaction is retried until the lock is released.
func TestWriteLockHeldByAnotherStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "shared.db")
	open := func(maxRetries int) *config.Config {
		cfg := config.NewForTest()
		cfg.DatabaseFilePath = path
		cfg.DatabaseBusyTimeout = 0
		cfg.DatabaseMaxRetries = maxRetries
		return cfg
	}

	holder, err := New(open(0))
	require.NoError(t, err)
	defer holder.Close()
	_, err = holder.Exec(`CREATE TABLE likes (id INTEGER PRIMARY KEY AUTOINCREMENT, reader TEXT NOT NULL)`)
	require.NoError(t, err)

	impatient, err := New(open(0))
	require.NoError(t, err)
	defer impatient.Close()

	patient, err := New(open(8))
	require.NoError(t, err)
	defer patient.Close()

	ctx := context.Background()
	tx, err := holder.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "INSERT INTO likes (reader) VALUES ('holder')")
	require.NoError(t, err)

	_, err = impatient.ExecContext(ctx, "INSERT INTO likes (reader) VALUES ('impatient')")
	require.Error(t, err)
	assert.True(t, isBusyError(err))

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = tx.Commit()
	}()

	_, err = patient.ExecContext(ctx, "INSERT INTO likes (reader) VALUES ('patient')")
	require.NoError(t, err)

	var count int
	require.NoError(t, patient.QueryRow("SELECT COUNT(*) FROM likes").Scan(&count))
	assert.Equal(t, 2, count)
}
