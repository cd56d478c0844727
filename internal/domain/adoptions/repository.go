package adoptions

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a Adoption) error
	GetByID(ctx context.Context, id string) (Adoption, error)
	ListByPet(ctx context.Context, petID string) ([]Adoption, error)
	// ListForUser: solicitudes hechas por el usuario o recibidas en sus mascotas.
	ListForUser(ctx context.Context, userID string) ([]Adoption, error)

	// CountOpen cuenta solicitudes abiertas de la mascota, excluyendo exceptID.
	CountOpen(ctx context.Context, petID, exceptID string) (int, error)
	HasOpenByApplicant(ctx context.Context, petID, applicantID string) (bool, error)

	// TransitionStatus es CAS: aplica solo si el estado actual está en from.
	TransitionStatus(ctx context.Context, id string, from []Status, to Status, at time.Time) (bool, error)
	// CloseOpenForPet cierra todas las abiertas de la mascota salvo exceptID.
	CloseOpenForPet(ctx context.Context, petID, exceptID string, at time.Time) (int, error)
}
