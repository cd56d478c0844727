package donations

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, d Donation) error
	GetByID(ctx context.Context, id string) (Donation, error)
	ListByDonor(ctx context.Context, donorID string) ([]Donation, error)
	List(ctx context.Context, filter ListFilter) ([]Donation, error)

	AddPhoto(ctx context.Context, p Photo) error
	// ListPhotos ordena por Position.
	ListPhotos(ctx context.Context, donationID string) ([]Photo, error)

	// TransitionStatus es CAS y solo aplica mientras no haya mascota creada.
	TransitionStatus(ctx context.Context, id string, from []Status, to Status, reviewerID, note string, at time.Time) (bool, error)
	// MarkApproved setea created_pet + approved si todavía no tenía mascota
	// y el estado sigue en ApprovableStatuses.
	MarkApproved(ctx context.Context, id, petID, reviewerID, note string, at time.Time) (bool, error)
}

type ListFilter struct {
	Statuses []Status
	Limit    int
}
