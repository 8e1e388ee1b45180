package repository

import (
	"context"
	"fmt"

	"anime/catalog/internal/state"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS preferences (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

// EnsurePostgresSchema creates the preferences table if needed.
func EnsurePostgresSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create preferences table: %w", err)
	}
	return nil
}

type postgresStore struct {
	db        *pgxpool.Pool
	namespace string
}

func NewPostgresStore(db *pgxpool.Pool, namespace string) state.Store {
	return &postgresStore{
		db:        db,
		namespace: namespace,
	}
}

func (r *postgresStore) Load(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM preferences WHERE namespace = $1`, r.namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences for %s: %w", r.namespace, err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan preference row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read preferences for %s: %w", r.namespace, err)
	}

	return values, nil
}

func (r *postgresStore) Save(ctx context.Context, values map[string]string) error {
	query := `
	INSERT INTO preferences (namespace, key, value, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (namespace, key)
	DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for key, value := range values {
			batch.Queue(query, r.namespace, key, value)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to save preferences for %s: %w", r.namespace, err)
	}

	return nil
}
