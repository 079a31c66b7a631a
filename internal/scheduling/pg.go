package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barberbook/barberbook/internal/schedule"
)

// Constraint names from migrations/0001_init.sql. Unique violations on
// them are how Postgres reports the two index conflicts.
const (
	constraintSlotKey        = "appointments_pkey"
	constraintActiveCustomer = "uq_appointments_active_customer"
)

// PgStore keeps both appointment indices as unique constraints on a single
// appointments table, so one INSERT updates them atomically.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var (
		a       Appointment
		id      string
		prov    string
		day     string
		rawTime string
		status  string
	)

	err := row.Scan(&prov, &id, &a.CustomerID, &day, &rawTime, &a.Notes, &status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Appointment{}, ErrAppointmentNotFound
		}
		return Appointment{}, err
	}

	t, err := schedule.ParseTimeOfDay(rawTime)
	if err != nil {
		return Appointment{}, fmt.Errorf("stored slot time %q: %w", rawTime, err)
	}

	a.ID = AppointmentID(id)
	a.ProviderID = schedule.ProviderID(prov)
	a.Day = schedule.Day(day)
	a.Time = t
	a.Status = Status(status)
	return a, nil
}

const appointmentColumns = "provider_id, id, customer_id, day, slot_time, notes, status, created_at"

func (s *PgStore) Create(ctx context.Context, appt Appointment) error {
	createdAt := appt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO appointments (provider_id, id, customer_id, day, slot_time, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, appt.ProviderID, string(appt.ID), appt.CustomerID, appt.Day.String(), appt.Time.String(),
		appt.Notes, StatusBooked, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case constraintActiveCustomer:
				return ErrCustomerAlreadyBooked
			case constraintSlotKey:
				return ErrSlotTaken
			}
			return ErrSlotTaken
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

func (s *PgStore) Cancel(ctx context.Context, provider schedule.ProviderID, id AppointmentID) (Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		DELETE FROM appointments
		WHERE provider_id = $1 AND id = $2
		RETURNING `+appointmentColumns+`
	`, provider, string(id))

	appt, err := scanAppointment(row)
	if err != nil {
		return Appointment{}, err
	}
	appt.Status = StatusCancelled
	return appt, nil
}

func (s *PgStore) CancelByCustomer(ctx context.Context, customerID string) (Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		DELETE FROM appointments
		WHERE customer_id = $1 AND status = $2
		RETURNING `+appointmentColumns+`
	`, customerID, StatusBooked)

	appt, err := scanAppointment(row)
	if err != nil {
		return Appointment{}, err
	}
	appt.Status = StatusCancelled
	return appt, nil
}

func (s *PgStore) Get(ctx context.Context, provider schedule.ProviderID, id AppointmentID) (Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1 AND id = $2
	`, provider, string(id))
	return scanAppointment(row)
}

func (s *PgStore) GetByCustomer(ctx context.Context, customerID string) (Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE customer_id = $1 AND status = $2
	`, customerID, StatusBooked)
	return scanAppointment(row)
}

func (s *PgStore) Find(ctx context.Context, provider schedule.ProviderID, day schedule.Day) ([]Appointment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1 AND day = $2
		ORDER BY day, slot_time
	`, provider, day.String())
	if err != nil {
		return nil, fmt.Errorf("find appointments: %w", err)
	}
	defer rows.Close()

	appts := make([]Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return appts, nil
}

func (s *PgStore) Days(ctx context.Context, provider schedule.ProviderID) ([]schedule.Day, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT day
		FROM appointments
		WHERE provider_id = $1
		ORDER BY day
	`, provider)
	if err != nil {
		return nil, fmt.Errorf("list appointment days: %w", err)
	}
	defer rows.Close()

	days := make([]schedule.Day, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		days = append(days, schedule.Day(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}

func (s *PgStore) InsertEvent(ctx context.Context, ev EventLog) error {
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, ev.EventType, string(ev.AppointmentID), ev.Payload, createdAt)
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}
