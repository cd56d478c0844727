package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"straypet/internal/domain/lost"
)

type LostRepo struct{ s *Store }

func (s *Store) Lost() *LostRepo { return &LostRepo{s: s} }

func (r *LostRepo) Create(ctx context.Context, rep lost.Report) error {
	return r.s.write(ctx, func(d *data) error {
		d.reports[rep.ID] = rep
		return nil
	})
}

func (r *LostRepo) GetByID(ctx context.Context, id string) (lost.Report, error) {
	var out lost.Report
	err := r.s.read(func(d *data) error {
		rep, ok := d.reports[id]
		if !ok {
			return ErrNotFound
		}
		out = rep
		return nil
	})
	return out, err
}

func (r *LostRepo) List(ctx context.Context, f lost.ListFilter) ([]lost.Report, error) {
	var out []lost.Report
	_ = r.s.read(func(d *data) error {
		out = matchReports(d, f)
		return nil
	})
	return page(out, f.Offset, f.Limit), nil
}

func (r *LostRepo) ListGeo(ctx context.Context, f lost.ListFilter) ([]lost.GeoReport, error) {
	out := make([]lost.GeoReport, 0)
	_ = r.s.read(func(d *data) error {
		for _, rep := range matchReports(d, f) {
			if rep.AddressID == nil {
				continue
			}
			a, ok := d.addresses[*rep.AddressID]
			if !ok || !a.HasCoordinates() {
				continue
			}
			g := lost.GeoReport{Report: rep, Latitude: *a.Latitude, Longitude: *a.Longitude}
			if a.CityID != nil {
				g.CityName = d.cities[*a.CityID].Name
			}
			out = append(out, g)
		}
		return nil
	})
	return page(out, f.Offset, f.Limit), nil
}

func (r *LostRepo) HasOpenForPet(ctx context.Context, petID, exceptID string) (bool, error) {
	found := false
	_ = r.s.read(func(d *data) error {
		for id, rep := range d.reports {
			if id != exceptID && rep.Status == lost.StatusOpen && rep.PetID != nil && *rep.PetID == petID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, nil
}

func (r *LostRepo) TransitionStatus(ctx context.Context, id string, from []lost.Status, to lost.Status, at time.Time) (bool, error) {
	ok := false
	err := r.s.write(ctx, func(d *data) error {
		rep, exists := d.reports[id]
		if !exists {
			return ErrNotFound
		}
		if !inFilter(from, rep.Status) {
			return nil
		}
		rep.Status = to
		rep.UpdatedAt = at
		d.reports[id] = rep
		ok = true
		return nil
	})
	return ok, err
}

// matchReports filtra y ordena (más nuevos primero). Se llama con el lock tomado.
func matchReports(d *data, f lost.ListFilter) []lost.Report {
	out := make([]lost.Report, 0)
	for _, rep := range d.reports {
		if !inFilter(f.Statuses, rep.Status) {
			continue
		}
		if f.Species != "" && !strings.EqualFold(rep.Species, f.Species) {
			continue
		}
		if f.ReporterID != "" && rep.ReporterID != f.ReporterID {
			continue
		}
		out = append(out, rep)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
