package availability

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barberbook/barberbook/internal/schedule"
)

// PgStore persists the open-slot set in Postgres. One row per open slot;
// Reserve is a single conditional DELETE, so the row itself is the
// serialization point.
type PgStore struct {
	pool *pgxpool.Pool
	grid *schedule.Grid
}

func NewPgStore(pool *pgxpool.Pool, grid *schedule.Grid) *PgStore {
	return &PgStore{pool: pool, grid: grid}
}

func (s *PgStore) Publish(ctx context.Context, caller, provider schedule.ProviderID, cal Calendar) error {
	if caller != provider {
		return ErrNotAuthorized
	}
	if err := validateCalendar(s.grid, cal); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin publish: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM availability_slots
		WHERE provider_id = $1
	`, provider); err != nil {
		return fmt.Errorf("clear calendar: %w", err)
	}

	for day, times := range cal {
		for _, t := range times {
			if _, err := tx.Exec(ctx, `
				INSERT INTO availability_slots (provider_id, day, slot_time)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING
			`, provider, day.String(), t.String()); err != nil {
				return fmt.Errorf("insert slot %s %s: %w", day, t, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit publish: %w", err)
	}
	return nil
}

func (s *PgStore) ListOpen(ctx context.Context, provider schedule.ProviderID, day schedule.Day) ([]schedule.Slot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT slot_time
		FROM availability_slots
		WHERE provider_id = $1 AND day = $2
		ORDER BY slot_time
	`, provider, day.String())
	if err != nil {
		return nil, fmt.Errorf("list open slots: %w", err)
	}
	defer rows.Close()

	slots := make([]schedule.Slot, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		t, err := schedule.ParseTimeOfDay(raw)
		if err != nil {
			return nil, fmt.Errorf("stored slot time %q: %w", raw, err)
		}
		slots = append(slots, schedule.Slot{Day: day, Time: t})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

func (s *PgStore) Reserve(ctx context.Context, provider schedule.ProviderID, day schedule.Day, t schedule.TimeOfDay) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM availability_slots
		WHERE provider_id = $1 AND day = $2 AND slot_time = $3
	`, provider, day.String(), t.String())
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyReserved
	}
	return nil
}

func (s *PgStore) Release(ctx context.Context, provider schedule.ProviderID, day schedule.Day, t schedule.TimeOfDay) error {
	if !s.grid.Contains(day, t) {
		return ErrSlotOutsideGrid
	}

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO availability_slots (provider_id, day, slot_time)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, provider, day.String(), t.String()); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}
