package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fuelbot/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS structure_fuel_state (
    structure_id BIGINT PRIMARY KEY,
    state        TEXT        NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func (d *DB) migrate(ctx context.Context) error {
	if _, err := d.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create structure_fuel_state table: %w", err)
	}
	return nil
}

// Read returns the last persisted state of every structure.
func (d *DB) Read(ctx context.Context) (map[int64]models.FuelState, error) {
	rows, err := d.Pool.Query(ctx, `SELECT structure_id, state FROM structure_fuel_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fuel states: %w", err)
	}
	defer rows.Close()

	states := make(map[int64]models.FuelState)
	for rows.Next() {
		var id int64
		var state string
		if err := rows.Scan(&id, &state); err != nil {
			return nil, fmt.Errorf("failed to scan fuel state: %w", err)
		}
		states[id] = models.ParseFuelState(state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fuel states: %w", err)
	}
	return states, nil
}

// Write upserts the whole snapshot in a single transaction.
func (d *DB) Write(ctx context.Context, states map[int64]models.FuelState) error {
	return pgx.BeginFunc(ctx, d.Pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for id, st := range states {
			batch.Queue(`
				INSERT INTO structure_fuel_state (structure_id, state, updated_at)
				VALUES ($1, $2, NOW())
				ON CONFLICT (structure_id)
				DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at
				WHERE structure_fuel_state.state IS DISTINCT FROM EXCLUDED.state`,
				id, st.String())
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert fuel states: %w", err)
		}
		return nil
	})
}
