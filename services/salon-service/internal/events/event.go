// Package events publishes appointment domain events. The Kafka topic of an
// event equals its type.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

const (
	TypeAppointmentBooked           = "salon.appointment.booked.v1"
	TypeAppointmentPaymentConfirmed = "salon.appointment.payment_confirmed.v1"
	TypeAppointmentStatusChanged    = "salon.appointment.status_changed.v1"
)

type Event struct {
	Type       string
	Key        string
	OccurredAt time.Time
	Payload    any
}

// Publisher hands events off for delivery. Publish never blocks on the
// broker and never fails the caller's operation.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

type AppointmentBooked struct {
	AppointmentID     int64        `json:"appointmentId"`
	ClientID          int64        `json:"clientId"`
	ServiceID         int64        `json:"serviceId"`
	StaffID           int64        `json:"staffId"`
	AppointmentDate   time.Time    `json:"appointmentDate"`
	Status            string       `json:"status"`
	TotalAmount       model.Money  `json:"totalAmount"`
	DownPaymentAmount *model.Money `json:"downPaymentAmount"`
}

type PaymentConfirmed struct {
	AppointmentID   int64  `json:"appointmentId"`
	PaymentIntentID string `json:"paymentIntentId"`
	Source          string `json:"source"`
}

type StatusChanged struct {
	AppointmentID int64  `json:"appointmentId"`
	Status        string `json:"status"`
}

func Booked(a model.Appointment) Event {
	return Event{
		Type: TypeAppointmentBooked,
		Key:  strconv.FormatInt(a.ID, 10),
		Payload: AppointmentBooked{
			AppointmentID:     a.ID,
			ClientID:          a.ClientID,
			ServiceID:         a.ServiceID,
			StaffID:           a.StaffID,
			AppointmentDate:   a.AppointmentDate,
			Status:            a.Status,
			TotalAmount:       a.TotalAmount,
			DownPaymentAmount: a.DownPaymentAmount,
		},
	}
}

// Confirmed builds the payment confirmation event. source is "api" or
// "webhook".
func Confirmed(appointmentID int64, paymentIntentID, source string) Event {
	return Event{
		Type: TypeAppointmentPaymentConfirmed,
		Key:  strconv.FormatInt(appointmentID, 10),
		Payload: PaymentConfirmed{
			AppointmentID:   appointmentID,
			PaymentIntentID: paymentIntentID,
			Source:          source,
		},
	}
}

func Status(appointmentID int64, status string) Event {
	return Event{
		Type:    TypeAppointmentStatusChanged,
		Key:     strconv.FormatInt(appointmentID, 10),
		Payload: StatusChanged{AppointmentID: appointmentID, Status: status},
	}
}
