package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/httpx"
)

// StripeWebhook receives Stripe events. The signature is the only
// authentication on this path.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !h.webhook.Enabled() {
		httpx.WriteError(w, http.StatusServiceUnavailable, "stripe webhook not configured")
		return
	}
	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing Stripe-Signature header")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	evt, err := h.webhook.Verify(body, sigHeader)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	h.logger.Info("stripe event received",
		"event_id", evt.ID,
		"event_type", string(evt.Type),
		"occurred_at", time.Unix(evt.Created, 0).UTC().Format(time.RFC3339),
	)
	outcome, err := h.payments.HandleEvent(r.Context(), evt)
	if err != nil {
		h.fail(w, r, "Failed to apply stripe event", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": outcome})
}
