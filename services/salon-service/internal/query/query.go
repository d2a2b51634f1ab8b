// Package query serves read views. Enriched appointments are assembled
// from current rows on every call and never stored.
package query

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

type Store interface {
	ListServices(ctx context.Context) ([]model.Service, error)
	GetService(ctx context.Context, id int64) (model.Service, bool, error)
	ListStaff(ctx context.Context) ([]model.Staff, error)
	GetStaff(ctx context.Context, id int64) (model.Staff, bool, error)
	GetClient(ctx context.Context, id int64) (model.Client, bool, error)
	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id int64) (model.Appointment, bool, error)
}

type Reader struct {
	store Store
}

func NewReader(store Store) *Reader {
	return &Reader{store: store}
}

func (r *Reader) ListServices(ctx context.Context) ([]model.Service, error) {
	return r.store.ListServices(ctx)
}

func (r *Reader) ListStaff(ctx context.Context) ([]model.Staff, error) {
	return r.store.ListStaff(ctx)
}

// ListAppointments returns every appointment with client, service and
// staff attached. A reference to a missing row leaves that field nil.
func (r *Reader) ListAppointments(ctx context.Context) ([]model.EnrichedAppointment, error) {
	appts, err := r.store.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	services, err := r.store.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	staff, err := r.store.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}

	servicesByID := make(map[int64]model.Service, len(services))
	for _, s := range services {
		servicesByID[s.ID] = s
	}
	staffByID := make(map[int64]model.Staff, len(staff))
	for _, s := range staff {
		staffByID[s.ID] = s
	}
	clients := map[int64]*model.Client{}

	out := make([]model.EnrichedAppointment, 0, len(appts))
	for _, a := range appts {
		e := model.EnrichedAppointment{Appointment: a}
		if s, ok := servicesByID[a.ServiceID]; ok {
			e.Service = &s
		}
		if s, ok := staffByID[a.StaffID]; ok {
			e.Staff = &s
		}
		c, seen := clients[a.ClientID]
		if !seen {
			client, ok, err := r.store.GetClient(ctx, a.ClientID)
			if err != nil {
				return nil, fmt.Errorf("get client %d: %w", a.ClientID, err)
			}
			if ok {
				c = &client
			}
			clients[a.ClientID] = c
		}
		e.Client = c
		out = append(out, e)
	}
	return out, nil
}

// GetAppointment returns one enriched appointment or a NotFoundError.
func (r *Reader) GetAppointment(ctx context.Context, id int64) (model.EnrichedAppointment, error) {
	a, ok, err := r.store.GetAppointment(ctx, id)
	if err != nil {
		return model.EnrichedAppointment{}, fmt.Errorf("get appointment: %w", err)
	}
	if !ok {
		return model.EnrichedAppointment{}, apperr.NotFound("appointment", id)
	}

	e := model.EnrichedAppointment{Appointment: a}
	if c, ok, err := r.store.GetClient(ctx, a.ClientID); err != nil {
		return model.EnrichedAppointment{}, fmt.Errorf("get client: %w", err)
	} else if ok {
		e.Client = &c
	}
	if s, ok, err := r.store.GetService(ctx, a.ServiceID); err != nil {
		return model.EnrichedAppointment{}, fmt.Errorf("get service: %w", err)
	} else if ok {
		e.Service = &s
	}
	if s, ok, err := r.store.GetStaff(ctx, a.StaffID); err != nil {
		return model.EnrichedAppointment{}, fmt.Errorf("get staff: %w", err)
	} else if ok {
		e.Staff = &s
	}
	return e, nil
}
