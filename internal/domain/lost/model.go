package lost

import (
	"time"

	"straypet/internal/domain/pets"
)

// Status de un reporte de pérdida.
// @Enum open, found, closed
type Status string

const (
	StatusOpen   Status = "open"
	StatusFound  Status = "found"
	StatusClosed Status = "closed"
)

func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusFound || s == StatusClosed
}

// Resolved: el reporte ya no busca a la mascota.
func (s Status) Resolved() bool {
	return s == StatusFound || s == StatusClosed
}

// canMove: open -> found|closed, found -> closed. closed es terminal.
func (s Status) canMove(to Status) bool {
	switch s {
	case StatusOpen:
		return to == StatusFound || to == StatusClosed
	case StatusFound:
		return to == StatusClosed
	}
	return false
}

type Report struct {
	ID    string
	PetID *string

	PetName string
	Species string
	Breed   string
	Color   string
	Sex     pets.Sex
	Size    string

	AddressID   *string
	LostAt      time.Time
	Description string
	Reward      *float64
	Photo       string

	Status       Status
	ReporterID   string
	ContactPhone string
	ContactEmail string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName es el nombre que se usa cuando hay que crear la mascota.
func (r Report) DisplayName() string {
	if r.PetName != "" {
		return r.PetName
	}
	if r.Color == "" {
		return r.speciesOrUnknown()
	}
	return r.speciesOrUnknown() + " (" + r.Color + ")"
}

func (r Report) speciesOrUnknown() string {
	if r.Species == "" {
		return "unknown"
	}
	return r.Species
}

// GeoReport es un reporte con coordenadas, para el mapa.
type GeoReport struct {
	Report
	Latitude  float64
	Longitude float64
	CityName  string
}
