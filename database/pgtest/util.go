package pgtest

import (
	"database/sql"
	"fmt"

	"github.com/ory/dockertest/v3"
)

const (
	containerTimeoutSec = 300
	password            = "test-password"
	database            = "restoflow"
)

// StartPostgresDB launches a throwaway postgres container and returns its
// connection URL.
func StartPostgresDB(pool *dockertest.Pool) (string, func(), error) {
	resource, err := pool.Run("postgres", "14", []string{
		"POSTGRES_PASSWORD=" + password,
		"POSTGRES_DB=" + database,
	})
	if err != nil {
		return "", nil, err
	}

	// Hard kill the container in case a test run leaks it.
	_ = resource.Expire(containerTimeoutSec)

	databaseURL := fmt.Sprintf(
		"postgres://postgres:%s@localhost:%s/%s?sslmode=disable",
		password,
		resource.GetPort("5432/tcp"),
		database,
	)

	closeFn := func() {
		_ = pool.Purge(resource)
	}

	return databaseURL, closeFn, nil
}

// WaitForConnection blocks until the database accepts connections, then
// returns an open handle.
func WaitForConnection(pool *dockertest.Pool, databaseURL string) (*sql.DB, error) {
	var db *sql.DB

	err := pool.Retry(func() error {
		var err error
		db, err = sql.Open("pgx", databaseURL)
		if err != nil {
			return err
		}
		return db.Ping()
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}
