package mysqlstore

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// openDB opens the gorm handle backing a store. The underlying pool is
// configured to keep no idle connections: every operation runs on a dedicated
// connection that is physically closed when released. This store targets
// short-lived execution environments where an abandoned runtime cannot clean
// up after itself; a leaked idle connection there counts against the
// database's connection budget until the server times it out.
func openDB(dialector gorm.Dialector, logger *logrus.Entry) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	underlying, err := db.DB()
	if err != nil {
		return nil, err
	}
	underlying.SetMaxIdleConns(0)
	return db, nil
}

// withConnection runs fn on a connection dedicated to this call, carrying ctx.
// The connection is released on every exit path, whether fn succeeds, fn fails
// or acquisition itself fails; with zero idle connections in the pool, release
// closes the connection.
func (s *Store) withConnection(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Connection(fn)
}

func (s *Store) closeDB() error {
	underlying, err := s.db.DB()
	if err != nil {
		return err
	}
	return underlying.Close()
}
