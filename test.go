package mysqlstore

import (
	"path"
	"testing"

	"github.com/nuts-foundation/sqlite"
	"github.com/stretchr/testify/require"
)

// NewTestStore returns a store backed by a SQLite database in a test-scoped
// directory. It exercises the same initialization path as a MySQL store:
// table creation on first use, catalog verification and the readiness gate.
func NewTestStore(t *testing.T, opts ...Option) *Store {
	return NewTestStoreWithConfig(t, DefaultConfig(), opts...)
}

// NewTestStoreWithConfig is NewTestStore with control over the configuration.
func NewTestStoreWithConfig(t *testing.T, config Config, opts ...Option) *Store {
	store, err := newStore(sqlite.Open(path.Join(t.TempDir(), "sessions.db")), sqliteDialect{}, config, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
