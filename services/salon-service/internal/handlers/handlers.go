// Package handlers exposes the salon API over HTTP.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/booking"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/payments"
	"github.com/stripe/stripe-go/v79"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Booker interface {
	Book(ctx context.Context, sub booking.Submission) (model.Appointment, error)
}

type Payments interface {
	CreatePaymentIntent(ctx context.Context, appointmentID int64) (string, error)
	ConfirmPayment(ctx context.Context, appointmentID int64, paymentIntentID string) error
	UpdateStatus(ctx context.Context, appointmentID int64, status string) error
	HandleEvent(ctx context.Context, evt stripe.Event) (string, error)
}

type Reader interface {
	ListServices(ctx context.Context) ([]model.Service, error)
	ListStaff(ctx context.Context) ([]model.Staff, error)
	ListAppointments(ctx context.Context) ([]model.EnrichedAppointment, error)
	GetAppointment(ctx context.Context, id int64) (model.EnrichedAppointment, error)
}

type Handler struct {
	booker   Booker
	payments Payments
	reader   Reader
	webhook  payments.WebhookVerifier
	logger   *slog.Logger
}

func New(booker Booker, p Payments, reader Reader, webhook payments.WebhookVerifier, logger *slog.Logger) *Handler {
	return &Handler{booker: booker, payments: p, reader: reader, webhook: webhook, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/services", h.Services)
	mux.HandleFunc("/api/staff", h.Staff)
	mux.HandleFunc("/api/appointments", h.Appointments)
	mux.HandleFunc("/api/appointments/{id}", h.Appointment)
	mux.HandleFunc("/api/appointments/{id}/status", h.AppointmentStatus)
	mux.HandleFunc("/api/create-payment-intent", h.CreatePaymentIntent)
	mux.HandleFunc("/api/confirm-payment", h.ConfirmPayment)
	mux.HandleFunc("/api/webhooks/stripe", h.StripeWebhook)
}

func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	services, err := h.reader.ListServices(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to fetch services", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, services)
}

func (h *Handler) Staff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	staff, err := h.reader.ListStaff(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to fetch staff", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, staff)
}

func (h *Handler) Appointments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		appts, err := h.reader.ListAppointments(r.Context())
		if err != nil {
			h.fail(w, r, "Failed to fetch appointments", err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, appts)
	case http.MethodPost:
		var sub booking.Submission
		if err := httpx.DecodeJSON(r, &sub); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
			return
		}
		appt, err := h.booker.Book(r.Context(), sub)
		if err != nil {
			h.fail(w, r, "Failed to create appointment", err)
			return
		}
		annotate(r.Context(), appt.ID)
		httpx.WriteJSON(w, http.StatusCreated, appt)
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) Appointment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	annotate(r.Context(), id)
	appt, err := h.reader.GetAppointment(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to fetch appointment", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appt)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) AppointmentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	annotate(r.Context(), id)
	if err := h.payments.UpdateStatus(r.Context(), id, req.Status); err != nil {
		h.fail(w, r, "Failed to update appointment status", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

type createIntentRequest struct {
	AppointmentID int64 `json:"appointmentId"`
}

type createIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req createIntentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	annotate(r.Context(), req.AppointmentID)
	secret, err := h.payments.CreatePaymentIntent(r.Context(), req.AppointmentID)
	if err != nil {
		h.fail(w, r, "Error creating payment intent", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, createIntentResponse{ClientSecret: secret})
}

type confirmPaymentRequest struct {
	AppointmentID   int64  `json:"appointmentId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req confirmPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	annotate(r.Context(), req.AppointmentID)
	if err := h.payments.ConfirmPayment(r.Context(), req.AppointmentID, req.PaymentIntentID); err != nil {
		h.fail(w, r, "Failed to confirm payment", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

// fail maps an error to its status code. Server errors are logged; the
// message carries the underlying error text either way.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var verr *apperr.ValidationError
	var nf *apperr.NotFoundError
	switch {
	case errors.As(err, &verr):
		issues := make([]httpx.FieldIssue, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			issues = append(issues, httpx.FieldIssue{Field: f.Field, Message: f.Message})
		}
		text := verr.Message
		if text == "" {
			text = msg
		}
		httpx.WriteError(w, http.StatusBadRequest, text, issues...)
	case errors.As(err, &nf):
		httpx.WriteError(w, http.StatusNotFound, nf.Error())
	default:
		h.logger.Error(strings.ToLower(msg),
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"err", err,
		)
		httpx.WriteError(w, http.StatusInternalServerError, msg+": "+err.Error())
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid appointment id")
		return 0, false
	}
	return id, true
}

func annotate(ctx context.Context, appointmentID int64) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("appointment.id", appointmentID))
}

func methodNotAllowed(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
}
