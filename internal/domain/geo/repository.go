package geo

import "context"

// Repository sobre la jerarquía geográfica y las direcciones.
// Las búsquedas por nombre/código son case-insensitive y devuelven
// ErrNotFound si no hay match. Los GetOrCreate son idempotentes por
// (padre, lower(nombre)) o por código.
type Repository interface {
	GetCountry(ctx context.Context, id int64) (Country, error)
	FindCountryByCode(ctx context.Context, code string) (Country, error)
	FindCountryByName(ctx context.Context, name string) (Country, error)
	GetOrCreateCountry(ctx context.Context, code, name string) (Country, error)
	ListCountries(ctx context.Context) ([]Country, error)

	GetRegion(ctx context.Context, id int64) (Region, error)
	// countryID nil = búsqueda sin scope.
	FindRegion(ctx context.Context, countryID *int64, name string) (Region, error)
	GetOrCreateRegion(ctx context.Context, countryID int64, name string) (Region, error)
	ListRegions(ctx context.Context, countryID int64) ([]Region, error)

	GetCity(ctx context.Context, id int64) (City, error)
	// regionID nil = búsqueda sin scope.
	FindCity(ctx context.Context, regionID *int64, name string) (City, error)
	GetOrCreateCity(ctx context.Context, regionID int64, name string) (City, error)
	ListCities(ctx context.Context, regionID int64) ([]City, error)

	CreateAddress(ctx context.Context, a Address) error
	GetAddress(ctx context.Context, id string) (Address, error)
}
