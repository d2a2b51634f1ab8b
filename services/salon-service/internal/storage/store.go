// Package storage is the record store for services, staff, clients and
// appointments. Lookups by id report a miss with ok=false, never an error;
// errors are reserved for the backing store failing.
package storage

import (
	"context"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

// Store is implemented by MemoryStore and PostgresStore.
type Store interface {
	ListServices(ctx context.Context) ([]model.Service, error)
	GetService(ctx context.Context, id int64) (model.Service, bool, error)
	CreateService(ctx context.Context, s model.Service) (model.Service, error)

	ListStaff(ctx context.Context) ([]model.Staff, error)
	GetStaff(ctx context.Context, id int64) (model.Staff, bool, error)
	CreateStaff(ctx context.Context, s model.Staff) (model.Staff, error)

	GetClient(ctx context.Context, id int64) (model.Client, bool, error)
	GetClientByEmail(ctx context.Context, email string) (model.Client, bool, error)
	CreateClient(ctx context.Context, c model.Client) (model.Client, error)

	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id int64) (model.Appointment, bool, error)
	CreateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error)
	// UpdateAppointmentPayment records the intent id and paid flag; paid=true
	// also moves the status to confirmed. A missing id is a no-op.
	UpdateAppointmentPayment(ctx context.Context, id int64, paymentIntentID string, paid bool) error
	// UpdateAppointmentStatus overwrites the status. A missing id is a no-op.
	UpdateAppointmentStatus(ctx context.Context, id int64, status string) error

	Ping(ctx context.Context) error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
