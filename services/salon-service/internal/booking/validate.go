package booking

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/apperr"
)

// Submission is the booking form as the client sends it.
type Submission struct {
	ServiceID       int64   `json:"serviceId" validate:"gt=0"`
	StaffID         int64   `json:"staffId" validate:"gt=0"`
	AppointmentDate string  `json:"appointmentDate" validate:"required,datetime=2006-01-02"`
	AppointmentTime string  `json:"appointmentTime" validate:"required"`
	FirstName       string  `json:"firstName" validate:"required"`
	LastName        string  `json:"lastName" validate:"required"`
	Email           string  `json:"email" validate:"required,email"`
	Phone           string  `json:"phone" validate:"min=10"`
	Notes           *string `json:"notes"`
}

var messages = map[string]string{
	"serviceId":       "Service is required",
	"staffId":         "Staff member is required",
	"appointmentDate": "Valid appointment date is required",
	"appointmentTime": "Valid appointment time is required",
	"firstName":       "First name is required",
	"lastName":        "Last name is required",
	"email":           "Valid email is required",
	"phone":           "Valid phone number is required",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field and reports all violations together. The
// time of day is checked here too so a bad time never reaches the store.
func Validate(s Submission) error {
	var fields []apperr.FieldError
	err := validate.Struct(s)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate submission: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, apperr.FieldError{Field: fe.Field(), Message: messageFor(fe.Field())})
		}
	}
	if s.AppointmentTime != "" {
		if _, err := To24Hour(s.AppointmentTime); err != nil {
			fields = append(fields, apperr.FieldError{Field: "appointmentTime", Message: messageFor("appointmentTime")})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return apperr.Invalid("invalid booking submission", fields...)
}

func messageFor(field string) string {
	if m, ok := messages[field]; ok {
		return m
	}
	return field + " is invalid"
}
