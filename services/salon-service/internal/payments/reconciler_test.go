package payments

import (
	"context"
	"encoding/json"
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
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

type fakeProcessor struct {
	mu       sync.Mutex
	created  []IntentRequest
	intents  map[string]Intent
	createFn func(IntentRequest) (Intent, error)
}

func (p *fakeProcessor) CreateIntent(_ context.Context, req IntentRequest) (Intent, error) {
	p.mu.Lock()
	p.created = append(p.created, req)
	p.mu.Unlock()
	if p.createFn != nil {
		return p.createFn(req)
	}
	return Intent{ID: "pi_test", ClientSecret: "pi_test_secret_abc", Status: "requires_payment_method"}, nil
}

func (p *fakeProcessor) GetIntent(_ context.Context, id string) (Intent, error) {
	intent, ok := p.intents[id]
	if !ok {
		return Intent{}, errors.New("no such payment intent")
	}
	return intent, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

type fixture struct {
	store     *storage.MemoryStore
	processor *fakeProcessor
	events    *recordingPublisher
	rec       *Reconciler
}

func newFixture(t *testing.T, cfg Config) fixture {
	t.Helper()
	f := fixture{
		store:     storage.NewMemoryStore(),
		processor: &fakeProcessor{intents: map[string]Intent{}},
		events:    &recordingPublisher{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.rec = NewReconciler(f.store, f.processor, f.events, logger, cfg)
	return f
}

func (f fixture) appointment(t *testing.T, deposit string) model.Appointment {
	t.Helper()
	a := model.Appointment{ClientID: 1, ServiceID: 1, StaffID: 1, TotalAmount: model.MustMoney("120.00")}
	if deposit != "" {
		d := model.MustMoney(deposit)
		a.DownPaymentAmount = &d
		a.RemainingAmount = a.TotalAmount.Sub(d)
	} else {
		a.Status = model.StatusConfirmed
		a.DownPaymentPaid = true
		a.RemainingAmount = a.TotalAmount
	}
	appt, err := f.store.CreateAppointment(context.Background(), a)
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return appt
}

func TestCreatePaymentIntentUsesMinorUnits(t *testing.T) {
	f := newFixture(t, Config{})
	appt := f.appointment(t, "30.00")

	secret, err := f.rec.CreatePaymentIntent(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if secret != "pi_test_secret_abc" {
		t.Fatalf("unexpected client secret %q", secret)
	}
	if len(f.processor.created) != 1 {
		t.Fatalf("expected one processor call, got %d", len(f.processor.created))
	}
	req := f.processor.created[0]
	if req.Amount != 3000 || req.Currency != "usd" || req.Metadata[MetadataAppointmentID] != "1" {
		t.Fatalf("unexpected intent request %+v", req)
	}
	got, _, _ := f.store.GetAppointment(context.Background(), appt.ID)
	if got.DownPaymentPaid || got.StripePaymentIntentID != nil {
		t.Fatalf("creating an intent must not modify the appointment: %+v", got)
	}
}

func TestCreatePaymentIntentRoundsAmount(t *testing.T) {
	f := newFixture(t, Config{Currency: "EUR"})
	appt := f.appointment(t, "25.50")

	if _, err := f.rec.CreatePaymentIntent(context.Background(), appt.ID); err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if req := f.processor.created[0]; req.Amount != 2550 || req.Currency != "eur" {
		t.Fatalf("unexpected intent request %+v", req)
	}
}

func TestCreatePaymentIntentWithoutDeposit(t *testing.T) {
	f := newFixture(t, Config{})
	appt := f.appointment(t, "")

	_, err := f.rec.CreatePaymentIntent(context.Background(), appt.ID)
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) || verr.Message != "no down payment required for this service" {
		t.Fatalf("expected no-deposit validation error, got %v", err)
	}
	if len(f.processor.created) != 0 {
		t.Fatal("processor must not be called without a deposit")
	}
}

func TestCreatePaymentIntentUnknownAppointment(t *testing.T) {
	f := newFixture(t, Config{})
	if _, err := f.rec.CreatePaymentIntent(context.Background(), 12); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreatePaymentIntentProcessorFailure(t *testing.T) {
	f := newFixture(t, Config{})
	f.processor.createFn = func(IntentRequest) (Intent, error) { return Intent{}, errors.New("card network down") }
	appt := f.appointment(t, "30.00")

	_, err := f.rec.CreatePaymentIntent(context.Background(), appt.ID)
	if err == nil || apperr.IsValidation(err) || apperr.IsNotFound(err) {
		t.Fatalf("expected plain processor error, got %v", err)
	}
}

func TestConfirmPaymentMarksPaidAndConfirmed(t *testing.T) {
	f := newFixture(t, Config{})
	appt := f.appointment(t, "30.00")

	if err := f.rec.ConfirmPayment(context.Background(), appt.ID, "pi_123"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	got, _, _ := f.store.GetAppointment(context.Background(), appt.ID)
	if !got.DownPaymentPaid || got.Status != model.StatusConfirmed || *got.StripePaymentIntentID != "pi_123" {
		t.Fatalf("unexpected appointment %+v", got)
	}
	if len(f.events.events) != 1 || f.events.events[0].Type != events.TypeAppointmentPaymentConfirmed {
		t.Fatalf("expected payment confirmed event, got %+v", f.events.events)
	}
}

func TestConfirmPaymentUnknownAppointmentIsNoop(t *testing.T) {
	f := newFixture(t, Config{})
	if err := f.rec.ConfirmPayment(context.Background(), 77, "pi_123"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if len(f.events.events) != 0 {
		t.Fatal("no event expected for unknown appointment")
	}
}

func TestConfirmPaymentStoresEmptyIntentID(t *testing.T) {
	f := newFixture(t, Config{})
	appt := f.appointment(t, "30.00")
	if err := f.rec.UpdateStatus(context.Background(), appt.ID, model.StatusCancelled); err != nil {
		t.Fatalf("update status: %v", err)
	}

	if err := f.rec.ConfirmPayment(context.Background(), appt.ID, ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	got, _, _ := f.store.GetAppointment(context.Background(), appt.ID)
	if !got.DownPaymentPaid || got.Status != model.StatusConfirmed || got.StripePaymentIntentID == nil || *got.StripePaymentIntentID != "" {
		t.Fatalf("expected paid confirmed appointment with empty intent id, got %+v", got)
	}
}

func TestConfirmPaymentIgnoresPriorStatus(t *testing.T) {
	for _, prior := range []string{model.StatusPending, model.StatusConfirmed, model.StatusCancelled, model.StatusCompleted} {
		t.Run(prior, func(t *testing.T) {
			f := newFixture(t, Config{})
			appt := f.appointment(t, "30.00")
			if err := f.store.UpdateAppointmentStatus(context.Background(), appt.ID, prior); err != nil {
				t.Fatalf("set prior status: %v", err)
			}

			if err := f.rec.ConfirmPayment(context.Background(), appt.ID, "pi_"+prior); err != nil {
				t.Fatalf("confirm: %v", err)
			}
			got, _, _ := f.store.GetAppointment(context.Background(), appt.ID)
			if !got.DownPaymentPaid || got.Status != model.StatusConfirmed {
				t.Fatalf("from %s: expected paid and confirmed, got paid=%v status=%s", prior, got.DownPaymentPaid, got.Status)
			}
		})
	}
}

func TestConfirmPaymentVerification(t *testing.T) {
	f := newFixture(t, Config{VerifyIntents: true})
	appt := f.appointment(t, "30.00")
	f.processor.intents["pi_pending"] = Intent{ID: "pi_pending", Status: "requires_payment_method", Metadata: map[string]string{MetadataAppointmentID: "1"}}
	f.processor.intents["pi_other"] = Intent{ID: "pi_other", Status: "succeeded", Metadata: map[string]string{MetadataAppointmentID: "2"}}
	f.processor.intents["pi_ok"] = Intent{ID: "pi_ok", Status: "succeeded", Metadata: map[string]string{MetadataAppointmentID: "1"}}

	for _, id := range []string{"pi_pending", "pi_other"} {
		if err := f.rec.ConfirmPayment(context.Background(), appt.ID, id); !apperr.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", id, err)
		}
	}
	got, _, _ := f.store.GetAppointment(context.Background(), appt.ID)
	if got.DownPaymentPaid {
		t.Fatal("rejected intents must not mark the appointment paid")
	}
	if err := f.rec.ConfirmPayment(context.Background(), appt.ID, "pi_ok"); err != nil {
		t.Fatalf("confirm verified intent: %v", err)
	}
}

func TestUpdateStatusOverwrites(t *testing.T) {
	f := newFixture(t, Config{})
	appt := f.appointment(t, "")

	for _, status := range []string{model.StatusCancelled, model.StatusPending, "no-show", ""} {
		if err := f.rec.UpdateStatus(context.Background(), appt.ID, status); err != nil {
			t.Fatalf("update %s: %v", status, err)
		}
		got, _, _ := f.store.GetAppointment(context.Background(), appt.ID)
		if got.Status != status {
			t.Fatalf("expected %s, got %s", status, got.Status)
		}
	}
}

func signedEvent(t *testing.T, secret, eventType string, metadata map[string]string) ([]byte, string) {
	t.Helper()
	now := time.Now()
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_test_1",
		"object":      "event",
		"created":     now.Unix(),
		"type":        eventType,
		"api_version": stripe.APIVersion,
		"data": map[string]any{
			"object": map[string]any{
				"id":       "pi_hook",
				"object":   "payment_intent",
				"status":   "succeeded",
				"metadata": metadata,
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: now,
		Scheme:    "v1",
	})
	return payload, signed.Header
}

func TestWebhookVerifier(t *testing.T) {
	v := NewWebhookVerifier("whsec_test", 0)
	payload, header := signedEvent(t, "whsec_test", eventPaymentIntentSucceeded, map[string]string{MetadataAppointmentID: "1"})

	if _, err := v.Verify(payload, header); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := NewWebhookVerifier("whsec_other", 0).Verify(payload, header); err == nil {
		t.Fatal("expected signature mismatch")
	}
	if _, err := NewWebhookVerifier("", 0).Verify(payload, header); !errors.Is(err, ErrWebhookDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}
}

func TestHandleEventConfirmsAppointment(t *testing.T) {
	f := newFixture(t, Config{})
	appt := f.appointment(t, "30.00")
	v := NewWebhookVerifier("whsec_test", 0)

	payload, header := signedEvent(t, "whsec_test", eventPaymentIntentSucceeded, map[string]string{MetadataAppointmentID: "1"})
	evt, err := v.Verify(payload, header)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	outcome, err := f.rec.HandleEvent(context.Background(), evt)
	if err != nil || outcome != OutcomeApplied {
		t.Fatalf("expected applied, got %q %v", outcome, err)
	}
	got, _, _ := f.store.GetAppointment(context.Background(), appt.ID)
	if !got.DownPaymentPaid || got.Status != model.StatusConfirmed || *got.StripePaymentIntentID != "pi_hook" {
		t.Fatalf("unexpected appointment %+v", got)
	}
}

func TestHandleEventIgnoresOtherEvents(t *testing.T) {
	f := newFixture(t, Config{})
	f.appointment(t, "30.00")
	v := NewWebhookVerifier("whsec_test", 0)

	for _, tc := range []struct {
		eventType string
		metadata  map[string]string
	}{
		{"payment_intent.payment_failed", map[string]string{MetadataAppointmentID: "1"}},
		{eventPaymentIntentSucceeded, map[string]string{}},
		{eventPaymentIntentSucceeded, map[string]string{MetadataAppointmentID: "abc"}},
	} {
		payload, header := signedEvent(t, "whsec_test", tc.eventType, tc.metadata)
		evt, err := v.Verify(payload, header)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		outcome, err := f.rec.HandleEvent(context.Background(), evt)
		if err != nil || outcome != OutcomeIgnored {
			t.Fatalf("%s %v: expected ignored, got %q %v", tc.eventType, tc.metadata, outcome, err)
		}
	}
	got, _, _ := f.store.GetAppointment(context.Background(), 1)
	if got.DownPaymentPaid {
		t.Fatal("ignored events must not change the appointment")
	}
}
