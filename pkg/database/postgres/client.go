package pg

import (
	"database/sql"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive
)

// Open returns a DB connection pool for the provided connection URL using
// the pgx driver.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
