package model

// Service categories offered by the salon.
const (
	CategoryHair  = "hair"
	CategoryNails = "nails"
)

type Service struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	Price               Money   `json:"price"`
	Duration            int     `json:"duration"` // minutes
	Category            string  `json:"category"`
	RequiresDownPayment bool    `json:"requiresDownPayment"`
	DownPaymentAmount   *Money  `json:"downPaymentAmount"`
	ImageURL            *string `json:"imageUrl"`
}

type Staff struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Experience  string   `json:"experience"`
	ImageURL    *string  `json:"imageUrl"`
	Specialties []string `json:"specialties"`
}

// Client is created on the first booking for an email address and reused
// afterwards. Email is a lookup key, not a uniqueness constraint.
type Client struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}
