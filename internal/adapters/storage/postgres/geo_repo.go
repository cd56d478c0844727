package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"straypet/internal/domain/geo"
)

type GeoRepo struct {
	db *DB
}

func NewGeoRepo(db *DB) *GeoRepo {
	return &GeoRepo{db: db}
}

type countryRow struct {
	ID   int64  `db:"id"`
	Code string `db:"code"`
	Name string `db:"name"`
}

type regionRow struct {
	ID        int64  `db:"id"`
	CountryID int64  `db:"country_id"`
	Code      string `db:"code"`
	Name      string `db:"name"`
}

type cityRow struct {
	ID       int64  `db:"id"`
	RegionID int64  `db:"region_id"`
	Name     string `db:"name"`
}

func (r *GeoRepo) GetCountry(ctx context.Context, id int64) (geo.Country, error) {
	return r.country(ctx, `SELECT id, code, name FROM countries WHERE id = $1`, id)
}

func (r *GeoRepo) FindCountryByCode(ctx context.Context, code string) (geo.Country, error) {
	return r.country(ctx, `SELECT id, code, name FROM countries WHERE upper(code) = upper($1) ORDER BY id LIMIT 1`, code)
}

func (r *GeoRepo) FindCountryByName(ctx context.Context, name string) (geo.Country, error) {
	return r.country(ctx, `SELECT id, code, name FROM countries WHERE lower(name) = lower($1) ORDER BY id LIMIT 1`, name)
}

// GetOrCreateCountry es idempotente por código. Si otra transacción lo
// insertó primero, ON CONFLICT no devuelve fila y se relee.
func (r *GeoRepo) GetOrCreateCountry(ctx context.Context, code, name string) (geo.Country, error) {
	if c, err := r.FindCountryByCode(ctx, code); !errors.Is(err, ErrNotFound) {
		return c, err
	}

	var row countryRow
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, `
		INSERT INTO countries (code, name) VALUES (upper($1), $2)
		ON CONFLICT ((upper(code))) DO NOTHING
		RETURNING id, code, name
	`, code, name)
	if errors.Is(err, sql.ErrNoRows) {
		return r.FindCountryByCode(ctx, code)
	}
	if err != nil {
		return geo.Country{}, err
	}
	return geo.Country(row), nil
}

func (r *GeoRepo) ListCountries(ctx context.Context) ([]geo.Country, error) {
	var rows []countryRow
	if err := sqlx.SelectContext(ctx, r.db.conn(ctx), &rows, `SELECT id, code, name FROM countries ORDER BY name`); err != nil {
		return nil, err
	}
	out := make([]geo.Country, 0, len(rows))
	for _, row := range rows {
		out = append(out, geo.Country(row))
	}
	return out, nil
}

func (r *GeoRepo) GetRegion(ctx context.Context, id int64) (geo.Region, error) {
	return r.region(ctx, `SELECT id, country_id, code, name FROM regions WHERE id = $1`, id)
}

func (r *GeoRepo) FindRegion(ctx context.Context, countryID *int64, name string) (geo.Region, error) {
	return r.region(ctx, `
		SELECT id, country_id, code, name FROM regions
		WHERE ($1::bigint IS NULL OR country_id = $1) AND lower(name) = lower($2)
		ORDER BY id LIMIT 1
	`, countryID, name)
}

func (r *GeoRepo) GetOrCreateRegion(ctx context.Context, countryID int64, name string) (geo.Region, error) {
	if x, err := r.FindRegion(ctx, &countryID, name); !errors.Is(err, ErrNotFound) {
		return x, err
	}

	var row regionRow
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, `
		INSERT INTO regions (country_id, name) VALUES ($1, $2)
		ON CONFLICT (country_id, (lower(name))) DO NOTHING
		RETURNING id, country_id, code, name
	`, countryID, name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return r.FindRegion(ctx, &countryID, name)
	case pgCode(err) == codeForeignKeyViolation:
		return geo.Region{}, ErrNotFound
	case err != nil:
		return geo.Region{}, err
	}
	return geo.Region(row), nil
}

func (r *GeoRepo) ListRegions(ctx context.Context, countryID int64) ([]geo.Region, error) {
	var rows []regionRow
	err := sqlx.SelectContext(ctx, r.db.conn(ctx), &rows, `
		SELECT id, country_id, code, name FROM regions WHERE country_id = $1 ORDER BY name
	`, countryID)
	if err != nil {
		return nil, err
	}
	out := make([]geo.Region, 0, len(rows))
	for _, row := range rows {
		out = append(out, geo.Region(row))
	}
	return out, nil
}

func (r *GeoRepo) GetCity(ctx context.Context, id int64) (geo.City, error) {
	return r.city(ctx, `SELECT id, region_id, name FROM cities WHERE id = $1`, id)
}

func (r *GeoRepo) FindCity(ctx context.Context, regionID *int64, name string) (geo.City, error) {
	return r.city(ctx, `
		SELECT id, region_id, name FROM cities
		WHERE ($1::bigint IS NULL OR region_id = $1) AND lower(name) = lower($2)
		ORDER BY id LIMIT 1
	`, regionID, name)
}

func (r *GeoRepo) GetOrCreateCity(ctx context.Context, regionID int64, name string) (geo.City, error) {
	if x, err := r.FindCity(ctx, &regionID, name); !errors.Is(err, ErrNotFound) {
		return x, err
	}

	var row cityRow
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, `
		INSERT INTO cities (region_id, name) VALUES ($1, $2)
		ON CONFLICT (region_id, (lower(name))) DO NOTHING
		RETURNING id, region_id, name
	`, regionID, name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return r.FindCity(ctx, &regionID, name)
	case pgCode(err) == codeForeignKeyViolation:
		return geo.City{}, ErrNotFound
	case err != nil:
		return geo.City{}, err
	}
	return geo.City(row), nil
}

func (r *GeoRepo) ListCities(ctx context.Context, regionID int64) ([]geo.City, error) {
	var rows []cityRow
	err := sqlx.SelectContext(ctx, r.db.conn(ctx), &rows, `
		SELECT id, region_id, name FROM cities WHERE region_id = $1 ORDER BY name
	`, regionID)
	if err != nil {
		return nil, err
	}
	out := make([]geo.City, 0, len(rows))
	for _, row := range rows {
		out = append(out, geo.City(row))
	}
	return out, nil
}

type addressRow struct {
	ID             string    `db:"id"`
	CountryID      *int64    `db:"country_id"`
	RegionID       *int64    `db:"region_id"`
	CityID         *int64    `db:"city_id"`
	Street         string    `db:"street"`
	BuildingNumber string    `db:"building_number"`
	PostalCode     string    `db:"postal_code"`
	Latitude       *float64  `db:"latitude"`
	Longitude      *float64  `db:"longitude"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r *GeoRepo) CreateAddress(ctx context.Context, a geo.Address) error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("address id required")
	}
	_, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), `
		INSERT INTO addresses (
			id, country_id, region_id, city_id,
			street, building_number, postal_code,
			latitude, longitude, created_at
		) VALUES (
			:id, :country_id, :region_id, :city_id,
			:street, :building_number, :postal_code,
			:latitude, :longitude, :created_at
		)
	`, addressRow{
		ID:             a.ID,
		CountryID:      a.CountryID,
		RegionID:       a.RegionID,
		CityID:         a.CityID,
		Street:         a.Street,
		BuildingNumber: a.BuildingNumber,
		PostalCode:     a.PostalCode,
		Latitude:       a.Latitude,
		Longitude:      a.Longitude,
		CreatedAt:      a.CreatedAt,
	})
	return err
}

// GetAddress rearma la geometría a partir de lat/lon.
func (r *GeoRepo) GetAddress(ctx context.Context, id string) (geo.Address, error) {
	var row addressRow
	err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, `
		SELECT id, country_id, region_id, city_id,
			street, building_number, postal_code,
			latitude, longitude, created_at
		FROM addresses WHERE id = $1
	`, id)
	if err != nil {
		return geo.Address{}, notFound(err)
	}

	a := geo.Address{
		ID:             row.ID,
		CountryID:      row.CountryID,
		RegionID:       row.RegionID,
		CityID:         row.CityID,
		Street:         row.Street,
		BuildingNumber: row.BuildingNumber,
		PostalCode:     row.PostalCode,
		Latitude:       row.Latitude,
		Longitude:      row.Longitude,
		CreatedAt:      row.CreatedAt,
	}
	if a.HasCoordinates() {
		a.Location = geo.NewPoint(*a.Longitude, *a.Latitude)
	}
	return a, nil
}

func (r *GeoRepo) country(ctx context.Context, query string, args ...any) (geo.Country, error) {
	var row countryRow
	if err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, query, args...); err != nil {
		return geo.Country{}, notFound(err)
	}
	return geo.Country(row), nil
}

func (r *GeoRepo) region(ctx context.Context, query string, args ...any) (geo.Region, error) {
	var row regionRow
	if err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, query, args...); err != nil {
		return geo.Region{}, notFound(err)
	}
	return geo.Region(row), nil
}

func (r *GeoRepo) city(ctx context.Context, query string, args ...any) (geo.City, error) {
	var row cityRow
	if err := sqlx.GetContext(ctx, r.db.conn(ctx), &row, query, args...); err != nil {
		return geo.City{}, notFound(err)
	}
	return geo.City(row), nil
}
