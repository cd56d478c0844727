package donations

import (
	"time"

	"straypet/internal/domain/pets"
)

// Status de una donación (mascota ofrecida, pendiente de revisión de staff).
// @Enum submitted, reviewing, approved, rejected, closed
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusReviewing Status = "reviewing"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusClosed    Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusReviewing, StatusApproved, StatusRejected, StatusClosed:
		return true
	}
	return false
}

// ApprovableStatuses: estados desde los que se puede crear la mascota.
var ApprovableStatuses = []Status{StatusSubmitted, StatusReviewing, StatusApproved}

func (s Status) approvable() bool {
	for _, st := range ApprovableStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type Donation struct {
	ID      string
	DonorID string

	// Datos propuestos para la mascota
	Name         string
	Species      string
	Breed        string
	Sex          pets.Sex
	AgeYears     int
	AgeMonths    int
	Description  string
	Traits       pets.Traits
	IsStray      bool
	ContactPhone string

	AddressID *string
	ShelterID *string

	Status     Status
	ReviewerID string
	ReviewNote string

	// CreatedPetID se setea una sola vez, al aprobar.
	CreatedPetID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Photo struct {
	ID         string
	DonationID string
	Path       string
	Position   int
	CreatedAt  time.Time
}
