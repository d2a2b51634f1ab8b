package model

import "time"

// Appointment statuses. Nothing enforces transitions between them.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Appointment struct {
	ID                    int64     `json:"id"`
	ClientID              int64     `json:"clientId"`
	ServiceID             int64     `json:"serviceId"`
	StaffID               int64     `json:"staffId"`
	AppointmentDate       time.Time `json:"appointmentDate"`
	Status                string    `json:"status"`
	TotalAmount           Money     `json:"totalAmount"`
	DownPaymentAmount     *Money    `json:"downPaymentAmount"`
	DownPaymentPaid       bool      `json:"downPaymentPaid"`
	RemainingAmount       Money     `json:"remainingAmount"`
	StripePaymentIntentID *string   `json:"stripePaymentIntentId"`
	Notes                 *string   `json:"notes"`
	CreatedAt             time.Time `json:"createdAt"`
}

// EnrichedAppointment is the read view of an appointment with its related
// rows attached. A missing row leaves the field out.
type EnrichedAppointment struct {
	Appointment
	Client  *Client  `json:"client,omitempty"`
	Service *Service `json:"service,omitempty"`
	Staff   *Staff   `json:"staff,omitempty"`
}
