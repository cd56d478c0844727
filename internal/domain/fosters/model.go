package fosters

import "time"

// Status de una postulación como familia de acogida temporal.
// @Enum pending, approved, rejected
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Application: un usuario se ofrece para cuidar mascotas por un tiempo
// (vacaciones, tránsito). Staff la revisa.
type Application struct {
	ID     string
	UserID string

	FullName  string
	Email     string
	Phone     string
	AddressID *string

	PetCount       int
	CanTakeDogs    bool
	CanTakeCats    bool
	CanTakeRabbits bool
	CanTakeOthers  string

	Motivation   string
	Introduction string
	TermsAgreed  bool

	Status     Status
	ReviewerID string
	ReviewNote string
	ReviewedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
