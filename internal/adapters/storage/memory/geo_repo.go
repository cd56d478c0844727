package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"straypet/internal/domain/geo"
)

type GeoRepo struct{ s *Store }

func (s *Store) Geo() *GeoRepo { return &GeoRepo{s: s} }

func (r *GeoRepo) GetCountry(ctx context.Context, id int64) (geo.Country, error) {
	var out geo.Country
	err := r.s.read(func(d *data) error {
		c, ok := d.countries[id]
		if !ok {
			return ErrNotFound
		}
		out = c
		return nil
	})
	return out, err
}

func (r *GeoRepo) FindCountryByCode(ctx context.Context, code string) (geo.Country, error) {
	var out geo.Country
	err := r.s.read(func(d *data) error {
		var ok bool
		out, ok = findCountry(d, func(c geo.Country) bool { return strings.EqualFold(c.Code, code) })
		if !ok {
			return ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r *GeoRepo) FindCountryByName(ctx context.Context, name string) (geo.Country, error) {
	var out geo.Country
	err := r.s.read(func(d *data) error {
		var ok bool
		out, ok = findCountry(d, func(c geo.Country) bool { return strings.EqualFold(c.Name, name) })
		if !ok {
			return ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r *GeoRepo) GetOrCreateCountry(ctx context.Context, code, name string) (geo.Country, error) {
	var out geo.Country
	err := r.s.write(ctx, func(d *data) error {
		if c, ok := findCountry(d, func(c geo.Country) bool { return strings.EqualFold(c.Code, code) }); ok {
			out = c
			return nil
		}
		d.geoSeq++
		out = geo.Country{ID: d.geoSeq, Code: strings.ToUpper(code), Name: name}
		d.countries[out.ID] = out
		return nil
	})
	return out, err
}

func (r *GeoRepo) ListCountries(ctx context.Context) ([]geo.Country, error) {
	out := make([]geo.Country, 0)
	_ = r.s.read(func(d *data) error {
		for _, c := range d.countries {
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *GeoRepo) GetRegion(ctx context.Context, id int64) (geo.Region, error) {
	var out geo.Region
	err := r.s.read(func(d *data) error {
		x, ok := d.regions[id]
		if !ok {
			return ErrNotFound
		}
		out = x
		return nil
	})
	return out, err
}

func (r *GeoRepo) FindRegion(ctx context.Context, countryID *int64, name string) (geo.Region, error) {
	var out geo.Region
	err := r.s.read(func(d *data) error {
		var ok bool
		out, ok = findRegion(d, countryID, name)
		if !ok {
			return ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r *GeoRepo) GetOrCreateRegion(ctx context.Context, countryID int64, name string) (geo.Region, error) {
	var out geo.Region
	err := r.s.write(ctx, func(d *data) error {
		if _, ok := d.countries[countryID]; !ok {
			return ErrNotFound
		}
		if x, ok := findRegion(d, &countryID, name); ok {
			out = x
			return nil
		}
		d.geoSeq++
		out = geo.Region{ID: d.geoSeq, CountryID: countryID, Name: name}
		d.regions[out.ID] = out
		return nil
	})
	return out, err
}

func (r *GeoRepo) ListRegions(ctx context.Context, countryID int64) ([]geo.Region, error) {
	out := make([]geo.Region, 0)
	_ = r.s.read(func(d *data) error {
		for _, x := range d.regions {
			if x.CountryID == countryID {
				out = append(out, x)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *GeoRepo) GetCity(ctx context.Context, id int64) (geo.City, error) {
	var out geo.City
	err := r.s.read(func(d *data) error {
		x, ok := d.cities[id]
		if !ok {
			return ErrNotFound
		}
		out = x
		return nil
	})
	return out, err
}

func (r *GeoRepo) FindCity(ctx context.Context, regionID *int64, name string) (geo.City, error) {
	var out geo.City
	err := r.s.read(func(d *data) error {
		var ok bool
		out, ok = findCity(d, regionID, name)
		if !ok {
			return ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r *GeoRepo) GetOrCreateCity(ctx context.Context, regionID int64, name string) (geo.City, error) {
	var out geo.City
	err := r.s.write(ctx, func(d *data) error {
		if _, ok := d.regions[regionID]; !ok {
			return ErrNotFound
		}
		if x, ok := findCity(d, &regionID, name); ok {
			out = x
			return nil
		}
		d.geoSeq++
		out = geo.City{ID: d.geoSeq, RegionID: regionID, Name: name}
		d.cities[out.ID] = out
		return nil
	})
	return out, err
}

func (r *GeoRepo) ListCities(ctx context.Context, regionID int64) ([]geo.City, error) {
	out := make([]geo.City, 0)
	_ = r.s.read(func(d *data) error {
		for _, x := range d.cities {
			if x.RegionID == regionID {
				out = append(out, x)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *GeoRepo) CreateAddress(ctx context.Context, a geo.Address) error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("address id required")
	}
	return r.s.write(ctx, func(d *data) error {
		d.addresses[a.ID] = a
		return nil
	})
}

func (r *GeoRepo) GetAddress(ctx context.Context, id string) (geo.Address, error) {
	var out geo.Address
	err := r.s.read(func(d *data) error {
		a, ok := d.addresses[id]
		if !ok {
			return ErrNotFound
		}
		out = a
		return nil
	})
	return out, err
}

// Las búsquedas recorren mapas: ante empate gana el ID más bajo.

func findCountry(d *data, match func(geo.Country) bool) (geo.Country, bool) {
	var (
		out   geo.Country
		found bool
	)
	for _, c := range d.countries {
		if match(c) && (!found || c.ID < out.ID) {
			out, found = c, true
		}
	}
	return out, found
}

func findRegion(d *data, countryID *int64, name string) (geo.Region, bool) {
	var (
		out   geo.Region
		found bool
	)
	for _, x := range d.regions {
		if countryID != nil && x.CountryID != *countryID {
			continue
		}
		if strings.EqualFold(x.Name, name) && (!found || x.ID < out.ID) {
			out, found = x, true
		}
	}
	return out, found
}

func findCity(d *data, regionID *int64, name string) (geo.City, bool) {
	var (
		out   geo.City
		found bool
	)
	for _, x := range d.cities {
		if regionID != nil && x.RegionID != *regionID {
			continue
		}
		if strings.EqualFold(x.Name, name) && (!found || x.ID < out.ID) {
			out, found = x, true
		}
	}
	return out, found
}
