package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

// table is one entity collection. Ids start at 1, grow by one per insert
// and are never reused; there is no delete, so ids 1..nextID-1 are all live.
type table[T any] struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]T
	clone  func(T) T
}

func newTable[T any](clone func(T) T) *table[T] {
	return &table[T]{nextID: 1, rows: map[int64]T{}, clone: clone}
}

func (t *table[T]) insert(build func(id int64) T) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	row := build(id)
	t.rows[id] = t.clone(row)
	return row
}

func (t *table[T]) get(id int64) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	return t.clone(row), true
}

func (t *table[T]) list() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.rows))
	for id := int64(1); id < t.nextID; id++ {
		if row, ok := t.rows[id]; ok {
			out = append(out, t.clone(row))
		}
	}
	return out
}

// find returns the lowest-id row matching pred.
func (t *table[T]) find(pred func(T) bool) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for id := int64(1); id < t.nextID; id++ {
		if row, ok := t.rows[id]; ok && pred(row) {
			return t.clone(row), true
		}
	}
	var zero T
	return zero, false
}

func (t *table[T]) update(id int64, fn func(*T)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return false
	}
	fn(&row)
	t.rows[id] = row
	return true
}

// MemoryStore keeps every collection in process memory, one lock per table.
type MemoryStore struct {
	services     *table[model.Service]
	staff        *table[model.Staff]
	clients      *table[model.Client]
	appointments *table[model.Appointment]
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		services:     newTable(cloneService),
		staff:        newTable(cloneStaff),
		clients:      newTable(func(c model.Client) model.Client { return c }),
		appointments: newTable(cloneAppointment),
		now:          time.Now,
	}
}

func (m *MemoryStore) ListServices(context.Context) ([]model.Service, error) {
	return m.services.list(), nil
}

func (m *MemoryStore) GetService(_ context.Context, id int64) (model.Service, bool, error) {
	s, ok := m.services.get(id)
	return s, ok, nil
}

func (m *MemoryStore) CreateService(_ context.Context, s model.Service) (model.Service, error) {
	return m.services.insert(func(id int64) model.Service {
		s.ID = id
		if !s.RequiresDownPayment {
			s.DownPaymentAmount = nil
		}
		return s
	}), nil
}

func (m *MemoryStore) ListStaff(context.Context) ([]model.Staff, error) {
	return m.staff.list(), nil
}

func (m *MemoryStore) GetStaff(_ context.Context, id int64) (model.Staff, bool, error) {
	s, ok := m.staff.get(id)
	return s, ok, nil
}

func (m *MemoryStore) CreateStaff(_ context.Context, s model.Staff) (model.Staff, error) {
	return m.staff.insert(func(id int64) model.Staff {
		s.ID = id
		return s
	}), nil
}

func (m *MemoryStore) GetClient(_ context.Context, id int64) (model.Client, bool, error) {
	c, ok := m.clients.get(id)
	return c, ok, nil
}

func (m *MemoryStore) GetClientByEmail(_ context.Context, email string) (model.Client, bool, error) {
	c, ok := m.clients.find(func(c model.Client) bool { return c.Email == email })
	return c, ok, nil
}

func (m *MemoryStore) CreateClient(_ context.Context, c model.Client) (model.Client, error) {
	return m.clients.insert(func(id int64) model.Client {
		c.ID = id
		return c
	}), nil
}

func (m *MemoryStore) ListAppointments(context.Context) ([]model.Appointment, error) {
	return m.appointments.list(), nil
}

func (m *MemoryStore) GetAppointment(_ context.Context, id int64) (model.Appointment, bool, error) {
	a, ok := m.appointments.get(id)
	return a, ok, nil
}

func (m *MemoryStore) CreateAppointment(_ context.Context, a model.Appointment) (model.Appointment, error) {
	return m.appointments.insert(func(id int64) model.Appointment {
		a.ID = id
		a.CreatedAt = m.now()
		if a.Status == "" {
			a.Status = model.StatusPending
		}
		return a
	}), nil
}

func (m *MemoryStore) UpdateAppointmentPayment(_ context.Context, id int64, paymentIntentID string, paid bool) error {
	m.appointments.update(id, func(a *model.Appointment) {
		a.StripePaymentIntentID = &paymentIntentID
		a.DownPaymentPaid = paid
		if paid {
			a.Status = model.StatusConfirmed
		}
	})
	return nil
}

func (m *MemoryStore) UpdateAppointmentStatus(_ context.Context, id int64, status string) error {
	m.appointments.update(id, func(a *model.Appointment) {
		a.Status = status
	})
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func cloneService(s model.Service) model.Service {
	s.DownPaymentAmount = clonePtr(s.DownPaymentAmount)
	s.ImageURL = clonePtr(s.ImageURL)
	return s
}

func cloneStaff(s model.Staff) model.Staff {
	s.ImageURL = clonePtr(s.ImageURL)
	s.Specialties = slices.Clone(s.Specialties)
	return s
}

func cloneAppointment(a model.Appointment) model.Appointment {
	a.DownPaymentAmount = clonePtr(a.DownPaymentAmount)
	a.StripePaymentIntentID = clonePtr(a.StripePaymentIntentID)
	a.Notes = clonePtr(a.Notes)
	return a
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
