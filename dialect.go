package mysqlstore

import (
	"fmt"
	"time"
)

var nowFunc = time.Now

// dialect captures the database-specific corners of the store: the DDL shape of
// the session table, how to probe the catalog for its visibility and the clock
// used to judge whether a row is still live.
type dialect interface {
	name() string
	// createTableStatements returns the DDL creating the session table (and its
	// expiry index) only if it does not exist yet.
	createTableStatements(table string) []string
	// tableExistsQuery returns a query yielding one row when the table named by
	// its single parameter is visible in the catalog, and no rows otherwise.
	tableExistsQuery() string
	// liveClause returns a condition matching rows whose expiry has not passed.
	liveClause() (string, []interface{})
	// expiredClause returns a condition matching rows whose expiry has passed.
	expiredClause() (string, []interface{})
}

type mysqlDialect struct{}

func (mysqlDialect) name() string { return "mysql" }

// The column types and the index name are an on-disk contract: tools that
// inspect the table directly rely on TIMESTAMP(6) precision and `expires_idx`.
func (mysqlDialect) createTableStatements(table string) []string {
	return []string{fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS `%s` ("+
			"`id` VARCHAR(255) NOT NULL, "+
			"`session` JSON NOT NULL, "+
			"`expires` TIMESTAMP(6) NOT NULL, "+
			"PRIMARY KEY (`id`), "+
			"INDEX `expires_idx` (`expires`))", table)}
}

func (mysqlDialect) tableExistsQuery() string {
	return "SHOW TABLES LIKE ?"
}

// Liveness is judged by the database server's clock, not the caller's, so clock
// skew between the two cannot resurrect or prematurely kill a session.
func (mysqlDialect) liveClause() (string, []interface{}) {
	return "expires >= NOW(6)", nil
}

func (mysqlDialect) expiredClause() (string, []interface{}) {
	return "expires < NOW(6)", nil
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

func (sqliteDialect) createTableStatements(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" ("id" TEXT NOT NULL PRIMARY KEY, "session" TEXT NOT NULL, "expires" DATETIME NOT NULL)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "expires_idx" ON "%s" ("expires")`, table),
	}
}

func (sqliteDialect) tableExistsQuery() string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?"
}

// SQLite runs in-process, so there is no second clock to skew against.
// Evaluating nowFunc on the caller side also lets tests control the clock.
func (sqliteDialect) liveClause() (string, []interface{}) {
	return "expires >= ?", []interface{}{nowFunc().UTC()}
}

func (sqliteDialect) expiredClause() (string, []interface{}) {
	return "expires < ?", []interface{}{nowFunc().UTC()}
}
