package shelters

import "context"

type Repository interface {
	// Create y Update devuelven ErrConflict si el nombre ya existe.
	Create(ctx context.Context, s Shelter) error
	Update(ctx context.Context, s Shelter) error
	GetByID(ctx context.Context, id string) (Shelter, error)
	// List ordena verificados primero y luego por nombre.
	List(ctx context.Context, filter ListFilter) ([]Shelter, error)
}

type ListFilter struct {
	// Active nil = todos.
	Active *bool
	Limit  int
	Offset int
}
