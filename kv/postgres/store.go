package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/restoflow/restoflow-mobile/kv"
)

const table = "kv_entries"

// Schema is the table backing the store. Applied by callers (or the test
// harness); the store itself never migrates.
const Schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	"key"   TEXT PRIMARY KEY,
	"value" TEXT NOT NULL
)`

type pgStore struct {
	db *sqlx.DB
}

func NewInPostgres(db *sql.DB) kv.Store {
	return &pgStore{
		db: sqlx.NewDb(db, "pgx"),
	}
}

func (s *pgStore) reset() {
	_, err := s.db.ExecContext(context.Background(), `DELETE FROM `+table)
	if err != nil {
		panic(err)
	}
}

func (s *pgStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	query := `SELECT "value" FROM ` + table + ` WHERE "key" = $1`
	err := s.db.GetContext(ctx, &value, query, key)
	if err == sql.ErrNoRows {
		return "", kv.ErrNotFound
	} else if err != nil {
		return "", errors.Wrap(err, "failed to get key")
	}

	return value, nil
}

func (s *pgStore) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO ` + table + ` ("key", "value") VALUES ($1, $2)
		ON CONFLICT ("key") DO UPDATE SET "value" = EXCLUDED."value"`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return classify(err)
	}

	return nil
}

func (s *pgStore) SetMany(ctx context.Context, entries map[string]string) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin tx")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // re-throw panic after Rollback
		} else if err != nil {
			_ = tx.Rollback() // err is non-nil; rollback
		} else {
			err = tx.Commit() // err is nil; if Commit returns error update err
		}
	}()

	query := `INSERT INTO ` + table + ` ("key", "value") VALUES ($1, $2)
		ON CONFLICT ("key") DO UPDATE SET "value" = EXCLUDED."value"`
	for key, value := range entries {
		if _, err = tx.ExecContext(ctx, query, key, value); err != nil {
			return classify(err)
		}
	}

	return err
}

func (s *pgStore) Delete(ctx context.Context, keys ...string) (err error) {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin tx")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	query := `DELETE FROM ` + table + ` WHERE "key" = $1`
	for _, key := range keys {
		if _, err = tx.ExecContext(ctx, query, key); err != nil {
			return errors.Wrap(err, "failed to delete key")
		}
	}

	return err
}

// classify wraps write errors, surfacing concurrent-upsert conflicts
// distinctly so callers can retry instead of failing the operation.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.SerializationFailure:
			return errors.Wrap(err, "conflicting concurrent write")
		}
	}

	return errors.Wrap(err, "failed to set key")
}
