package pets

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p Pet) error
	// Update persiste el perfil. No toca status (ver TransitionStatus).
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	List(ctx context.Context, filter ListFilter) ([]Pet, error)
	// FindByNameAndOwner devuelve la más antigua que coincide exacto.
	FindByNameAndOwner(ctx context.Context, name, ownerUserID string) (Pet, error)

	// TransitionStatus es un compare-and-swap: cambia a `to` solo si el
	// estado actual está en `from`. Devuelve el estado previo y si aplicó.
	TransitionStatus(ctx context.Context, id string, from []Status, to Status, at time.Time) (prev Status, ok bool, err error)
}

// ListFilter: campos vacíos no filtran. Orden: más nuevas primero.
type ListFilter struct {
	OwnerUserID string
	ShelterID   string
	Species     string
	Statuses    []Status
	Limit       int
	Offset      int
}

type PhotoRepository interface {
	AddPhoto(ctx context.Context, p Photo) error
	// ListPhotos ordena por Order ascendente.
	ListPhotos(ctx context.Context, petID string) ([]Photo, error)
}

type FavoriteRepository interface {
	// AddFavorite es idempotente por (user, pet).
	AddFavorite(ctx context.Context, f Favorite) error
	RemoveFavorite(ctx context.Context, userID, petID string) error
	ListFavorites(ctx context.Context, userID string) ([]Pet, error)
}
