package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore persists the collections in Postgres. Amounts travel as
// text and are parsed into model.Money on the way out.
type PostgresStore struct {
	pool *db.Pool
	loc  *time.Location
}

// NewPostgresStore reads appointment_date (a zone-less TIMESTAMP) in loc.
func NewPostgresStore(pool *db.Pool, loc *time.Location) *PostgresStore {
	if loc == nil {
		loc = time.Local
	}
	return &PostgresStore{pool: pool, loc: loc}
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return db.ReadyCheck(s.pool)(ctx)
}

const serviceColumns = `id, name, description, price::text, duration, category,
	requires_down_payment, down_payment_amount::text, image_url`

func (s *PostgresStore) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanService)
}

func (s *PostgresStore) GetService(ctx context.Context, id int64) (model.Service, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	v, err := scanService(row)
	return one(v, err)
}

func (s *PostgresStore) CreateService(ctx context.Context, svc model.Service) (model.Service, error) {
	if !svc.RequiresDownPayment {
		svc.DownPaymentAmount = nil
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO services (name, description, price, duration, category, requires_down_payment, down_payment_amount, image_url)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7::numeric, $8)
		RETURNING id
	`, svc.Name, svc.Description, svc.Price.String(), svc.Duration, svc.Category,
		svc.RequiresDownPayment, moneyParam(svc.DownPaymentAmount), svc.ImageURL).Scan(&svc.ID)
	if err != nil {
		return model.Service{}, err
	}
	return svc, nil
}

const staffColumns = `id, name, title, experience, image_url, specialties`

func (s *PostgresStore) ListStaff(ctx context.Context) ([]model.Staff, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanStaff)
}

func (s *PostgresStore) GetStaff(ctx context.Context, id int64) (model.Staff, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id)
	v, err := scanStaff(row)
	return one(v, err)
}

func (s *PostgresStore) CreateStaff(ctx context.Context, st model.Staff) (model.Staff, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO staff (name, title, experience, image_url, specialties)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, st.Name, st.Title, st.Experience, st.ImageURL, st.Specialties).Scan(&st.ID)
	if err != nil {
		return model.Staff{}, err
	}
	return st, nil
}

const clientColumns = `id, first_name, last_name, email, phone`

func (s *PostgresStore) GetClient(ctx context.Context, id int64) (model.Client, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	v, err := scanClient(row)
	return one(v, err)
}

func (s *PostgresStore) GetClientByEmail(ctx context.Context, email string) (model.Client, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE email = $1 ORDER BY id LIMIT 1`, email)
	v, err := scanClient(row)
	return one(v, err)
}

func (s *PostgresStore) CreateClient(ctx context.Context, c model.Client) (model.Client, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO clients (first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, c.FirstName, c.LastName, c.Email, c.Phone).Scan(&c.ID)
	if err != nil {
		return model.Client{}, err
	}
	return c, nil
}

const appointmentColumns = `id, client_id, service_id, staff_id, appointment_date, status,
	total_amount::text, down_payment_amount::text, down_payment_paid, remaining_amount::text,
	stripe_payment_intent_id, notes, created_at`

func (s *PostgresStore) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, s.scanAppointment)
}

func (s *PostgresStore) GetAppointment(ctx context.Context, id int64) (model.Appointment, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	v, err := s.scanAppointment(row)
	return one(v, err)
}

func (s *PostgresStore) CreateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	if a.Status == "" {
		a.Status = model.StatusPending
	}
	a.CreatedAt = time.Now().In(s.loc)
	err := s.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(client_id, service_id, staff_id, appointment_date, status, total_amount,
			 down_payment_amount, down_payment_paid, remaining_amount, stripe_payment_intent_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9::numeric, $10, $11, $12)
		RETURNING id
	`, a.ClientID, a.ServiceID, a.StaffID, wallClock(a.AppointmentDate.In(s.loc)), a.Status, a.TotalAmount.String(),
		moneyParam(a.DownPaymentAmount), a.DownPaymentPaid, a.RemainingAmount.String(),
		a.StripePaymentIntentID, a.Notes, wallClock(a.CreatedAt)).Scan(&a.ID)
	if err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

func (s *PostgresStore) UpdateAppointmentPayment(ctx context.Context, id int64, paymentIntentID string, paid bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE appointments
		SET stripe_payment_intent_id = $2,
			down_payment_paid = $3,
			status = CASE WHEN $3 THEN 'confirmed' ELSE status END
		WHERE id = $1
	`, id, paymentIntentID, paid)
	return err
}

func (s *PostgresStore) UpdateAppointmentStatus(ctx context.Context, id int64, status string) error {
	_, err := s.pool.Exec(ctx, `UPDATE appointments SET status = $2 WHERE id = $1`, id, status)
	return err
}

func scanService(row pgx.Row) (model.Service, error) {
	var svc model.Service
	var price string
	var downPayment *string
	if err := row.Scan(&svc.ID, &svc.Name, &svc.Description, &price, &svc.Duration, &svc.Category,
		&svc.RequiresDownPayment, &downPayment, &svc.ImageURL); err != nil {
		return model.Service{}, err
	}
	var err error
	if svc.Price, err = model.NewMoney(price); err != nil {
		return model.Service{}, err
	}
	if svc.DownPaymentAmount, err = optionalMoney(downPayment); err != nil {
		return model.Service{}, err
	}
	return svc, nil
}

func scanStaff(row pgx.Row) (model.Staff, error) {
	var st model.Staff
	err := row.Scan(&st.ID, &st.Name, &st.Title, &st.Experience, &st.ImageURL, &st.Specialties)
	return st, err
}

func scanClient(row pgx.Row) (model.Client, error) {
	var c model.Client
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone)
	return c, err
}

func (s *PostgresStore) scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	var total, remaining string
	var downPayment *string
	if err := row.Scan(&a.ID, &a.ClientID, &a.ServiceID, &a.StaffID, &a.AppointmentDate, &a.Status,
		&total, &downPayment, &a.DownPaymentPaid, &remaining,
		&a.StripePaymentIntentID, &a.Notes, &a.CreatedAt); err != nil {
		return model.Appointment{}, err
	}
	var err error
	if a.TotalAmount, err = model.NewMoney(total); err != nil {
		return model.Appointment{}, err
	}
	if a.RemainingAmount, err = model.NewMoney(remaining); err != nil {
		return model.Appointment{}, err
	}
	if a.DownPaymentAmount, err = optionalMoney(downPayment); err != nil {
		return model.Appointment{}, err
	}
	a.AppointmentDate = inLocation(a.AppointmentDate, s.loc)
	a.CreatedAt = inLocation(a.CreatedAt, s.loc)
	return a, nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// one maps pgx.ErrNoRows to a miss.
func one[T any](v T, err error) (T, bool, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

func moneyParam(m *model.Money) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}

func optionalMoney(s *string) (*model.Money, error) {
	if s == nil {
		return nil, nil
	}
	m, err := model.NewMoney(*s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// TIMESTAMP columns carry no zone: pgx writes and reads them as UTC wall
// clocks, so the wall clock of loc is stored and reattached on read.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func inLocation(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
