package fosters

import (
	"context"
	"time"
)

type Repository interface {
	// Create devuelve ErrConflict si el usuario ya tiene una pendiente.
	Create(ctx context.Context, a Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	// Update guarda los datos de la postulación; no toca status ni revisión.
	Update(ctx context.Context, a Application) error
	List(ctx context.Context, f ListFilter) ([]Application, error)

	// TransitionStatus es CAS: aplica solo si el estado actual está en from.
	TransitionStatus(ctx context.Context, id string, from []Status, to Status, reviewerID, note string, at time.Time) (bool, error)
}

// ListFilter ordena por fecha de creación, más nuevas primero.
type ListFilter struct {
	UserID   string
	Statuses []Status
	Limit    int
	Offset   int
}
