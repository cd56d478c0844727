package memory

import (
	"context"
	"sort"
	"time"

	"straypet/internal/domain/adoptions"
)

type AdoptionsRepo struct{ s *Store }

func (s *Store) Adoptions() *AdoptionsRepo { return &AdoptionsRepo{s: s} }

func (r *AdoptionsRepo) Create(ctx context.Context, a adoptions.Adoption) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.pets[a.PetID]; !ok {
			return ErrNotFound
		}
		d.adoptions[a.ID] = a
		return nil
	})
}

func (r *AdoptionsRepo) GetByID(ctx context.Context, id string) (adoptions.Adoption, error) {
	var out adoptions.Adoption
	err := r.s.read(func(d *data) error {
		a, ok := d.adoptions[id]
		if !ok {
			return ErrNotFound
		}
		out = a
		return nil
	})
	return out, err
}

func (r *AdoptionsRepo) ListByPet(ctx context.Context, petID string) ([]adoptions.Adoption, error) {
	return r.filter(func(d *data, a adoptions.Adoption) bool { return a.PetID == petID }), nil
}

func (r *AdoptionsRepo) ListForUser(ctx context.Context, userID string) ([]adoptions.Adoption, error) {
	return r.filter(func(d *data, a adoptions.Adoption) bool {
		return a.ApplicantID == userID || d.pets[a.PetID].OwnerUserID == userID
	}), nil
}

func (r *AdoptionsRepo) CountOpen(ctx context.Context, petID, exceptID string) (int, error) {
	n := len(r.filter(func(d *data, a adoptions.Adoption) bool {
		return a.PetID == petID && a.ID != exceptID && a.Status.IsOpen()
	}))
	return n, nil
}

func (r *AdoptionsRepo) HasOpenByApplicant(ctx context.Context, petID, applicantID string) (bool, error) {
	n := len(r.filter(func(d *data, a adoptions.Adoption) bool {
		return a.PetID == petID && a.ApplicantID == applicantID && a.Status.IsOpen()
	}))
	return n > 0, nil
}

func (r *AdoptionsRepo) TransitionStatus(ctx context.Context, id string, from []adoptions.Status, to adoptions.Status, at time.Time) (bool, error) {
	ok := false
	err := r.s.write(ctx, func(d *data) error {
		a, exists := d.adoptions[id]
		if !exists {
			return ErrNotFound
		}
		for _, st := range from {
			if a.Status == st {
				ok = true
				break
			}
		}
		if ok {
			a.Status = to
			a.UpdatedAt = at
			d.adoptions[id] = a
		}
		return nil
	})
	return ok, err
}

func (r *AdoptionsRepo) CloseOpenForPet(ctx context.Context, petID, exceptID string, at time.Time) (int, error) {
	n := 0
	err := r.s.write(ctx, func(d *data) error {
		for id, a := range d.adoptions {
			if a.PetID != petID || id == exceptID || !a.Status.IsOpen() {
				continue
			}
			a.Status = adoptions.StatusClosed
			a.UpdatedAt = at
			d.adoptions[id] = a
			n++
		}
		return nil
	})
	return n, err
}

// filter devuelve las que cumplen keep, más nuevas primero.
func (r *AdoptionsRepo) filter(keep func(d *data, a adoptions.Adoption) bool) []adoptions.Adoption {
	out := make([]adoptions.Adoption, 0)
	_ = r.s.read(func(d *data) error {
		for _, a := range d.adoptions {
			if keep(d, a) {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
