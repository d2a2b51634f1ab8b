package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/events"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/stripe/stripe-go/v79"
)

// Store is what reconciliation needs from the record store.
type Store interface {
	GetAppointment(ctx context.Context, id int64) (model.Appointment, bool, error)
	UpdateAppointmentPayment(ctx context.Context, id int64, paymentIntentID string, paid bool) error
	UpdateAppointmentStatus(ctx context.Context, id int64, status string) error
}

type Config struct {
	Currency string
	// VerifyIntents makes ConfirmPayment check the intent with the processor
	// before marking the appointment paid.
	VerifyIntents bool
}

type Reconciler struct {
	store     Store
	processor Processor
	events    events.Publisher
	logger    *slog.Logger
	currency  string
	verify    bool
}

func NewReconciler(store Store, processor Processor, publisher events.Publisher, logger *slog.Logger, cfg Config) *Reconciler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "usd"
	}
	return &Reconciler{
		store:     store,
		processor: processor,
		events:    publisher,
		logger:    logger,
		currency:  currency,
		verify:    cfg.VerifyIntents,
	}
}

// CreatePaymentIntent opens a processor intent for the appointment's down
// payment and returns its client secret. The appointment is not modified.
func (r *Reconciler) CreatePaymentIntent(ctx context.Context, appointmentID int64) (string, error) {
	appt, ok, err := r.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return "", fmt.Errorf("get appointment: %w", err)
	}
	if !ok {
		return "", apperr.NotFound("appointment", appointmentID)
	}
	amount := model.OrZero(appt.DownPaymentAmount)
	if !amount.IsPositive() {
		return "", apperr.Invalid("no down payment required for this service")
	}

	intent, err := r.processor.CreateIntent(ctx, IntentRequest{
		Amount:   amount.MinorUnits(),
		Currency: r.currency,
		Metadata: map[string]string{MetadataAppointmentID: strconv.FormatInt(appointmentID, 10)},
	})
	if err != nil {
		return "", err
	}
	r.logger.Info("payment intent created",
		"appointment_id", appointmentID,
		"payment_intent_id", intent.ID,
		"amount", amount.String(),
		"currency", r.currency,
	)
	return intent.ClientSecret, nil
}

// ConfirmPayment records the intent and marks the appointment paid and
// confirmed whatever its current status. The intent id is stored as given.
// An unknown appointment id is a no-op.
func (r *Reconciler) ConfirmPayment(ctx context.Context, appointmentID int64, paymentIntentID string) error {
	if r.verify {
		if err := r.verifyIntent(ctx, appointmentID, paymentIntentID); err != nil {
			return err
		}
	}
	return r.confirm(ctx, appointmentID, paymentIntentID, "api")
}

func (r *Reconciler) verifyIntent(ctx context.Context, appointmentID int64, paymentIntentID string) error {
	intent, err := r.processor.GetIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if intent.Status != string(stripe.PaymentIntentStatusSucceeded) {
		return apperr.Invalid(fmt.Sprintf("payment intent %s has status %s", paymentIntentID, intent.Status))
	}
	if intent.Metadata[MetadataAppointmentID] != strconv.FormatInt(appointmentID, 10) {
		return apperr.Invalid(fmt.Sprintf("payment intent %s does not belong to appointment %d", paymentIntentID, appointmentID))
	}
	return nil
}

func (r *Reconciler) confirm(ctx context.Context, appointmentID int64, paymentIntentID, source string) error {
	_, ok, err := r.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("get appointment: %w", err)
	}
	if !ok {
		r.logger.Warn("payment confirmation for unknown appointment ignored", "appointment_id", appointmentID, "payment_intent_id", paymentIntentID)
		return nil
	}
	if err := r.store.UpdateAppointmentPayment(ctx, appointmentID, paymentIntentID, true); err != nil {
		return fmt.Errorf("update appointment payment: %w", err)
	}
	r.logger.Info("payment confirmed", "appointment_id", appointmentID, "payment_intent_id", paymentIntentID, "source", source)
	r.events.Publish(ctx, events.Confirmed(appointmentID, paymentIntentID, source))
	return nil
}

// UpdateStatus overwrites the appointment status. Any value is accepted,
// including the empty string.
func (r *Reconciler) UpdateStatus(ctx context.Context, appointmentID int64, status string) error {
	if err := r.store.UpdateAppointmentStatus(ctx, appointmentID, status); err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	r.logger.Info("appointment status updated", "appointment_id", appointmentID, "status", status)
	r.events.Publish(ctx, events.Status(appointmentID, status))
	return nil
}
