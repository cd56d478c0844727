package memory

import (
	"context"
	"sort"
	"time"

	"straypet/internal/domain/fosters"
)

type FostersRepo struct{ s *Store }

func (s *Store) Fosters() *FostersRepo { return &FostersRepo{s: s} }

func (r *FostersRepo) Create(ctx context.Context, a fosters.Application) error {
	return r.s.write(ctx, func(d *data) error {
		if a.Status == fosters.StatusPending {
			for _, cur := range d.fosters {
				if cur.UserID == a.UserID && cur.Status == fosters.StatusPending {
					return fosters.ErrAlreadyPending
				}
			}
		}
		d.fosters[a.ID] = a
		return nil
	})
}

func (r *FostersRepo) GetByID(ctx context.Context, id string) (fosters.Application, error) {
	var out fosters.Application
	err := r.s.read(func(d *data) error {
		a, ok := d.fosters[id]
		if !ok {
			return ErrNotFound
		}
		out = a
		return nil
	})
	return out, err
}

// Update conserva el estado y la revisión guardados.
func (r *FostersRepo) Update(ctx context.Context, a fosters.Application) error {
	return r.s.write(ctx, func(d *data) error {
		cur, ok := d.fosters[a.ID]
		if !ok {
			return ErrNotFound
		}
		a.UserID = cur.UserID
		a.Status = cur.Status
		a.ReviewerID = cur.ReviewerID
		a.ReviewNote = cur.ReviewNote
		a.ReviewedAt = cur.ReviewedAt
		a.CreatedAt = cur.CreatedAt
		d.fosters[a.ID] = a
		return nil
	})
}

func (r *FostersRepo) List(ctx context.Context, f fosters.ListFilter) ([]fosters.Application, error) {
	out := make([]fosters.Application, 0)
	_ = r.s.read(func(d *data) error {
		for _, a := range d.fosters {
			if f.UserID != "" && a.UserID != f.UserID {
				continue
			}
			if !inFilter(f.Statuses, a.Status) {
				continue
			}
			out = append(out, a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Offset, f.Limit), nil
}

func (r *FostersRepo) TransitionStatus(ctx context.Context, id string, from []fosters.Status, to fosters.Status, reviewerID, note string, at time.Time) (bool, error) {
	ok := false
	err := r.s.write(ctx, func(d *data) error {
		a, exists := d.fosters[id]
		if !exists {
			return ErrNotFound
		}
		if len(from) == 0 || !inFilter(from, a.Status) {
			return nil
		}
		ok = true
		a.Status = to
		a.ReviewerID = reviewerID
		a.ReviewNote = note
		a.ReviewedAt = &at
		a.UpdatedAt = at
		d.fosters[id] = a
		return nil
	})
	return ok, err
}
