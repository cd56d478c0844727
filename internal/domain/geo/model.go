package geo

import "time"

type Country struct {
	ID   int64
	Code string // ISO 3166-1 alpha-2, p.ej. "PL"
	Name string
}

type Region struct {
	ID        int64
	CountryID int64
	Code      string
	Name      string
}

type City struct {
	ID       int64
	RegionID int64
	Name     string
}

// Point es la geometría GeoJSON. Coordinates siempre es [lon, lat].
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

func NewPoint(lon, lat float64) *Point {
	return &Point{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// Address es la ubicación desnormalizada de una mascota, donación,
// reporte o refugio. Latitude/Longitude van juntos: ambos o ninguno.
type Address struct {
	ID string

	CountryID *int64
	RegionID  *int64
	CityID    *int64

	Street         string
	BuildingNumber string
	PostalCode     string

	Latitude  *float64
	Longitude *float64
	Location  *Point

	CreatedAt time.Time
}

func (a Address) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// setCoordinates mantiene el invariante lat/lon + geometría.
func (a *Address) setCoordinates(lon, lat float64) {
	a.Longitude = &lon
	a.Latitude = &lat
	a.Location = NewPoint(lon, lat)
}

// Details es la vista con nombres resueltos que devuelve la API.
type Details struct {
	Address
	CountryName string
	CountryCode string
	RegionName  string
	CityName    string
}
