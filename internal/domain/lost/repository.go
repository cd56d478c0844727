package lost

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r Report) error
	GetByID(ctx context.Context, id string) (Report, error)
	List(ctx context.Context, filter ListFilter) ([]Report, error)
	// ListGeo devuelve solo reportes cuya dirección tiene coordenadas.
	ListGeo(ctx context.Context, filter ListFilter) ([]GeoReport, error)

	// HasOpenForPet indica si otro reporte abierto (distinto de exceptID)
	// apunta a la mascota.
	HasOpenForPet(ctx context.Context, petID, exceptID string) (bool, error)

	// TransitionStatus es CAS: aplica solo si el estado actual está en from.
	TransitionStatus(ctx context.Context, id string, from []Status, to Status, at time.Time) (bool, error)
}

// ListFilter: campos vacíos no filtran. Orden: más nuevos primero.
type ListFilter struct {
	Statuses   []Status
	Species    string
	ReporterID string
	Limit      int
	Offset     int
}
