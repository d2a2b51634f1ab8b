package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// ErrWebhookDisabled is returned when no signing secret is configured.
var ErrWebhookDisabled = errors.New("stripe webhook not configured")

type WebhookVerifier struct {
	secret    string
	tolerance time.Duration
}

func NewWebhookVerifier(secret string, tolerance time.Duration) WebhookVerifier {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return WebhookVerifier{secret: strings.TrimSpace(secret), tolerance: tolerance}
}

func (v WebhookVerifier) Enabled() bool { return v.secret != "" }

// Verify checks the Stripe-Signature header against the raw body. Events
// from a different API version are accepted; only a few fields are read.
func (v WebhookVerifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	if !v.Enabled() {
		return stripe.Event{}, ErrWebhookDisabled
	}
	return webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
}

// Webhook outcomes reported back to Stripe.
const (
	OutcomeApplied = "ok"
	OutcomeIgnored = "ignored"
)

const eventPaymentIntentSucceeded = "payment_intent.succeeded"

// HandleEvent applies a verified processor event. Only
// payment_intent.succeeded carrying an appointment id changes state.
func (r *Reconciler) HandleEvent(ctx context.Context, evt stripe.Event) (string, error) {
	if string(evt.Type) != eventPaymentIntentSucceeded {
		return OutcomeIgnored, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return "", fmt.Errorf("decode payment intent: %w", err)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(pi.Metadata[MetadataAppointmentID]), 10, 64)
	if err != nil || id <= 0 {
		r.logger.Warn("stripe: payment intent without appointment metadata", "event_id", evt.ID, "payment_intent_id", pi.ID)
		return OutcomeIgnored, nil
	}
	if err := r.confirm(ctx, id, pi.ID, "webhook"); err != nil {
		return "", err
	}
	return OutcomeApplied, nil
}
