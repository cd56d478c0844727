package events

import "time"

// EventType identifica qué regla del ciclo de vida produjo el evento.
type EventType string

const (
	TypeStatusChanged    EventType = "STATUS_CHANGED"
	TypeAdoptionApplied  EventType = "ADOPTION_APPLIED"
	TypeAdoptionReviewed EventType = "ADOPTION_REVIEWED"
	TypeDonationApproved EventType = "DONATION_APPROVED"
	TypeReportedLost     EventType = "REPORTED_LOST"
	TypeLostResolved     EventType = "LOST_RESOLVED"
)

func (t EventType) Valid() bool {
	switch t {
	case TypeStatusChanged, TypeAdoptionApplied, TypeAdoptionReviewed,
		TypeDonationApproved, TypeReportedLost, TypeLostResolved:
		return true
	}
	return false
}

// PetEvent es una entrada del timeline de una mascota. Append-only.
type PetEvent struct {
	ID    string
	PetID string
	Type  EventType

	// Estados de la mascota antes/después (vacíos si no cambió).
	FromStatus string
	ToStatus   string

	ActorID string
	// RefID apunta a la solicitud, donación o reporte que originó el evento.
	RefID string
	Notes string

	OccurredAt time.Time
}
