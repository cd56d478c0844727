package geocoding

import (
	"context"
	"time"
)

// Coordinates en WGS84. El orden de los campos es lon, lat a propósito:
// es el mismo orden que usan GeoJSON y los proveedores.
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Hints es el contexto estructurado que acompaña al texto libre.
// Todos los campos son opcionales.
type Hints struct {
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	Region      string `json:"region,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
}

// Query es lo que recibe cada proveedor: el texto ya normalizado + hints.
type Query struct {
	Address string
	Hints   Hints
}

// Provider es un servicio externo de geocoding.
// ok=false sin error significa "sin resultado aceptable".
type Provider interface {
	Name() string
	Geocode(ctx context.Context, q Query) (c Coordinates, ok bool, err error)
}

// Cache es un canal lateral opcional: un miss o un error nunca cambian el
// resultado, solo la latencia.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
