package mysqlstore

import (
	"errors"
)

// ErrNotReady is returned by every operation issued after the store's one-time
// initialization has failed. It is a store-wide, terminal condition: no query is
// attempted and the store will not recover without being reconstructed.
// The initialization cause is attached, so errors.Is can distinguish it from
// per-operation query failures.
var ErrNotReady = errors.New("session store is not ready")

// ErrTableNotVisible is the initialization failure raised when the session table
// was created but did not become visible in the database catalog within the
// configured timeout. It drives the store into its terminal failed state.
var ErrTableNotVisible = errors.New("session table not visible within timeout")
