package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"straypet/internal/domain/shelters"
	"straypet/internal/platform/apperr"
)

type SheltersRepo struct{ s *Store }

func (s *Store) Shelters() *SheltersRepo { return &SheltersRepo{s: s} }

func (r *SheltersRepo) Create(ctx context.Context, sh shelters.Shelter) error {
	return r.s.write(ctx, func(d *data) error {
		if err := nameTaken(d, sh); err != nil {
			return err
		}
		d.shelters[sh.ID] = sh
		return nil
	})
}

func (r *SheltersRepo) Update(ctx context.Context, sh shelters.Shelter) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.shelters[sh.ID]; !ok {
			return ErrNotFound
		}
		if err := nameTaken(d, sh); err != nil {
			return err
		}
		d.shelters[sh.ID] = sh
		return nil
	})
}

func (r *SheltersRepo) GetByID(ctx context.Context, id string) (shelters.Shelter, error) {
	var out shelters.Shelter
	err := r.s.read(func(d *data) error {
		sh, ok := d.shelters[id]
		if !ok {
			return ErrNotFound
		}
		out = sh
		return nil
	})
	return out, err
}

func (r *SheltersRepo) List(ctx context.Context, f shelters.ListFilter) ([]shelters.Shelter, error) {
	out := make([]shelters.Shelter, 0)
	_ = r.s.read(func(d *data) error {
		for _, sh := range d.shelters {
			if f.Active != nil && sh.IsActive != *f.Active {
				continue
			}
			out = append(out, sh)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsVerified != out[j].IsVerified {
			return out[i].IsVerified
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return page(out, f.Offset, f.Limit), nil
}

func nameTaken(d *data, sh shelters.Shelter) error {
	for id, other := range d.shelters {
		if id != sh.ID && strings.EqualFold(other.Name, sh.Name) {
			return fmt.Errorf("%w: shelter %q already exists", apperr.ErrConflict, sh.Name)
		}
	}
	return nil
}
