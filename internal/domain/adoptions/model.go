package adoptions

import "time"

// Status de una solicitud de adopción.
// @Enum submitted, processing, approved, rejected, closed
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusClosed     Status = "closed"
)

// OpenStatuses: solicitudes todavía sin resolver.
var OpenStatuses = []Status{StatusSubmitted, StatusProcessing}

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusProcessing, StatusApproved, StatusRejected, StatusClosed:
		return true
	}
	return false
}

func (s Status) IsOpen() bool {
	return s == StatusSubmitted || s == StatusProcessing
}

type Adoption struct {
	ID          string
	PetID       string
	ApplicantID string
	Message     string
	Status      Status

	CreatedAt time.Time
	UpdatedAt time.Time
}
