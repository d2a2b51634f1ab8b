// Package booking turns a submitted booking form into a stored appointment
// with its payment split.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/events"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

// Store is what the workflow needs from the record store.
type Store interface {
	GetClientByEmail(ctx context.Context, email string) (model.Client, bool, error)
	CreateClient(ctx context.Context, c model.Client) (model.Client, error)
	GetService(ctx context.Context, id int64) (model.Service, bool, error)
	GetStaff(ctx context.Context, id int64) (model.Staff, bool, error)
	CreateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error)
}

type Workflow struct {
	store  Store
	events events.Publisher
	loc    *time.Location
	logger *slog.Logger
}

func NewWorkflow(store Store, publisher events.Publisher, loc *time.Location, logger *slog.Logger) *Workflow {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Workflow{store: store, events: publisher, loc: loc, logger: logger}
}

// Book validates the submission, reuses or creates the client by email and
// stores the appointment. Missing service or staff is a NotFoundError.
func (w *Workflow) Book(ctx context.Context, sub Submission) (model.Appointment, error) {
	if err := Validate(sub); err != nil {
		return model.Appointment{}, err
	}
	when, err := Combine(sub.AppointmentDate, sub.AppointmentTime, w.loc)
	if err != nil {
		return model.Appointment{}, apperr.Invalid(err.Error())
	}

	client, err := w.resolveClient(ctx, sub)
	if err != nil {
		return model.Appointment{}, err
	}

	svc, ok, err := w.store.GetService(ctx, sub.ServiceID)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("get service: %w", err)
	}
	if !ok {
		return model.Appointment{}, apperr.NotFound("service", sub.ServiceID)
	}
	if _, ok, err := w.store.GetStaff(ctx, sub.StaffID); err != nil {
		return model.Appointment{}, fmt.Errorf("get staff: %w", err)
	} else if !ok {
		return model.Appointment{}, apperr.NotFound("staff", sub.StaffID)
	}

	split := SplitPayment(svc)
	appt, err := w.store.CreateAppointment(ctx, model.Appointment{
		ClientID:          client.ID,
		ServiceID:         svc.ID,
		StaffID:           sub.StaffID,
		AppointmentDate:   when,
		Status:            split.Status,
		TotalAmount:       split.Total,
		DownPaymentAmount: split.DownPayment,
		DownPaymentPaid:   split.Paid,
		RemainingAmount:   split.Remaining,
		Notes:             sub.Notes,
	})
	if err != nil {
		return model.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}

	w.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"client_id", appt.ClientID,
		"service_id", appt.ServiceID,
		"status", appt.Status,
	)
	w.events.Publish(ctx, events.Booked(appt))
	return appt, nil
}

func (w *Workflow) resolveClient(ctx context.Context, sub Submission) (model.Client, error) {
	client, ok, err := w.store.GetClientByEmail(ctx, sub.Email)
	if err != nil {
		return model.Client{}, fmt.Errorf("get client by email: %w", err)
	}
	if ok {
		return client, nil
	}
	client, err = w.store.CreateClient(ctx, model.Client{
		FirstName: sub.FirstName,
		LastName:  sub.LastName,
		Email:     sub.Email,
		Phone:     sub.Phone,
	})
	if err != nil {
		return model.Client{}, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// Split is the payment breakdown of a new appointment.
type Split struct {
	Total       model.Money
	DownPayment *model.Money
	Remaining   model.Money
	Paid        bool
	Status      string
}

// SplitPayment derives amounts and initial status from the service. A
// service that requires a deposit but has no amount gets a zero deposit.
func SplitPayment(svc model.Service) Split {
	s := Split{Total: svc.Price, Paid: !svc.RequiresDownPayment, Status: model.StatusConfirmed}
	if svc.RequiresDownPayment {
		down := model.OrZero(svc.DownPaymentAmount)
		s.DownPayment = &down
		s.Status = model.StatusPending
	}
	s.Remaining = s.Total.Sub(model.OrZero(s.DownPayment))
	return s
}
