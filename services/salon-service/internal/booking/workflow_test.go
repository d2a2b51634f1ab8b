package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/events"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func newSeededWorkflow(t *testing.T) (*Workflow, *storage.MemoryStore, *recordingPublisher) {
	t.Helper()
	store := storage.NewMemoryStore()
	if _, err := storage.Seed(context.Background(), store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	pub := &recordingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWorkflow(store, pub, time.UTC, logger), store, pub
}

func validSubmission() Submission {
	return Submission{
		ServiceID:       1,
		StaffID:         1,
		AppointmentDate: "2026-03-14",
		AppointmentTime: "2:30 PM",
		FirstName:       "Ana",
		LastName:        "Lopez",
		Email:           "ana@example.com",
		Phone:           "5551234567",
	}
}

func TestBookWithDownPayment(t *testing.T) {
	w, _, pub := newSeededWorkflow(t)

	appt, err := w.Book(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if appt.Status != model.StatusPending || appt.DownPaymentPaid {
		t.Fatalf("expected pending unpaid appointment, got %s paid=%v", appt.Status, appt.DownPaymentPaid)
	}
	if appt.TotalAmount.String() != "120.00" || appt.DownPaymentAmount == nil || appt.DownPaymentAmount.String() != "30.00" || appt.RemainingAmount.String() != "90.00" {
		t.Fatalf("unexpected split total=%s down=%v remaining=%s", appt.TotalAmount, appt.DownPaymentAmount, appt.RemainingAmount)
	}
	want := time.Date(2026, 3, 14, 14, 30, 0, 0, time.UTC)
	if !appt.AppointmentDate.Equal(want) {
		t.Fatalf("expected %v, got %v", want, appt.AppointmentDate)
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.TypeAppointmentBooked {
		t.Fatalf("expected one booked event, got %+v", pub.events)
	}
}

func TestBookWithoutDownPayment(t *testing.T) {
	w, _, _ := newSeededWorkflow(t)
	sub := validSubmission()
	sub.ServiceID = 3
	sub.StaffID = 3
	sub.AppointmentTime = "12:00 PM"

	appt, err := w.Book(context.Background(), sub)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if appt.Status != model.StatusConfirmed || !appt.DownPaymentPaid || appt.DownPaymentAmount != nil {
		t.Fatalf("expected confirmed paid appointment without deposit, got %+v", appt)
	}
	if appt.RemainingAmount.String() != "45.00" || appt.AppointmentDate.Hour() != 12 {
		t.Fatalf("unexpected appointment %+v", appt)
	}
}

func TestBookReusesClientByEmail(t *testing.T) {
	w, store, _ := newSeededWorkflow(t)
	ctx := context.Background()

	first, err := w.Book(ctx, validSubmission())
	if err != nil {
		t.Fatalf("first book: %v", err)
	}
	sub := validSubmission()
	sub.FirstName = "Different"
	second, err := w.Book(ctx, sub)
	if err != nil {
		t.Fatalf("second book: %v", err)
	}
	if first.ClientID != second.ClientID {
		t.Fatalf("expected same client, got %d and %d", first.ClientID, second.ClientID)
	}
	client, _, _ := store.GetClient(ctx, first.ClientID)
	if client.FirstName != "Ana" {
		t.Fatalf("existing client must not be updated, got %q", client.FirstName)
	}
	if second.ID <= first.ID {
		t.Fatalf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}
}

func TestBookValidationReportsEveryField(t *testing.T) {
	w, store, _ := newSeededWorkflow(t)
	sub := Submission{ServiceID: 1, StaffID: 1, AppointmentDate: "2026-03-14", AppointmentTime: "2:30 PM", Email: "not-an-email", Phone: "123"}

	_, err := w.Book(context.Background(), sub)
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got := map[string]string{}
	for _, f := range verr.Fields {
		got[f.Field] = f.Message
	}
	for field, msg := range map[string]string{
		"firstName": "First name is required",
		"lastName":  "Last name is required",
		"email":     "Valid email is required",
		"phone":     "Valid phone number is required",
	} {
		if got[field] != msg {
			t.Fatalf("field %s: expected %q, got %q (all: %v)", field, msg, got[field], got)
		}
	}
	if _, ok, _ := store.GetClientByEmail(context.Background(), "not-an-email"); ok {
		t.Fatal("no client should be created for an invalid submission")
	}
}

func TestBookRejectsMalformedTime(t *testing.T) {
	w, _, _ := newSeededWorkflow(t)
	sub := validSubmission()
	sub.AppointmentTime = "14:30"

	_, err := w.Book(context.Background(), sub)
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBookMissingServiceOrStaff(t *testing.T) {
	w, _, pub := newSeededWorkflow(t)

	sub := validSubmission()
	sub.ServiceID = 99
	if _, err := w.Book(context.Background(), sub); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found for service, got %v", err)
	}

	sub = validSubmission()
	sub.StaffID = 42
	_, err := w.Book(context.Background(), sub)
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) || nf.Resource != "staff" || nf.ID != 42 {
		t.Fatalf("expected staff 42 not found, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("no events expected, got %d", len(pub.events))
	}
}

func TestSplitPaymentKeepsTotal(t *testing.T) {
	cases := []model.Service{
		{Price: model.MustMoney("120.00"), RequiresDownPayment: true, DownPaymentAmount: moneyPtr("30.00")},
		{Price: model.MustMoney("45.00")},
		{Price: model.MustMoney("99.99"), RequiresDownPayment: true, DownPaymentAmount: moneyPtr("33.33")},
		{Price: model.MustMoney("50.00"), RequiresDownPayment: true},
	}
	for _, svc := range cases {
		s := SplitPayment(svc)
		if !model.OrZero(s.DownPayment).Add(s.Remaining).Equal(s.Total) {
			t.Fatalf("split does not add up for %+v: %+v", svc, s)
		}
		if s.Paid == svc.RequiresDownPayment {
			t.Fatalf("paid flag must be the inverse of requiresDownPayment: %+v", s)
		}
		if (s.DownPayment != nil) != svc.RequiresDownPayment {
			t.Fatalf("deposit presence must follow requiresDownPayment: %+v", s)
		}
	}
}

func moneyPtr(s string) *model.Money {
	m := model.MustMoney(s)
	return &m
}
