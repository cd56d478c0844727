package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"straypet/internal/domain/pets"
)

// PetsRepo implementa pets.Repository, PhotoRepository y FavoriteRepository.
type PetsRepo struct{ s *Store }

func (s *Store) Pets() *PetsRepo { return &PetsRepo{s: s} }

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	return r.s.write(ctx, func(d *data) error {
		if _, exists := d.pets[p.ID]; exists {
			return errors.New("pet already exists")
		}
		d.pets[p.ID] = p
		return nil
	})
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	return r.s.write(ctx, func(d *data) error {
		cur, ok := d.pets[p.ID]
		if !ok {
			return ErrNotFound
		}
		// el estado solo cambia por TransitionStatus
		p.Status = cur.Status
		p.CreatedAt = cur.CreatedAt
		d.pets[p.ID] = p
		return nil
	})
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	var out pets.Pet
	err := r.s.read(func(d *data) error {
		p, ok := d.pets[id]
		if !ok {
			return ErrNotFound
		}
		out = p
		return nil
	})
	return out, err
}

func (r *PetsRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Pet, error) {
	out := make([]pets.Pet, 0)
	_ = r.s.read(func(d *data) error {
		for _, p := range d.pets {
			if f.OwnerUserID != "" && p.OwnerUserID != f.OwnerUserID {
				continue
			}
			if f.ShelterID != "" && (p.ShelterID == nil || *p.ShelterID != f.ShelterID) {
				continue
			}
			if f.Species != "" && !strings.EqualFold(p.Species, f.Species) {
				continue
			}
			if !inFilter(f.Statuses, p.Status) {
				continue
			}
			out = append(out, p)
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

func (r *PetsRepo) FindByNameAndOwner(ctx context.Context, name, ownerUserID string) (pets.Pet, error) {
	var (
		out   pets.Pet
		found bool
	)
	_ = r.s.read(func(d *data) error {
		for _, p := range d.pets {
			if p.Name != name || p.OwnerUserID != ownerUserID {
				continue
			}
			if !found || p.CreatedAt.Before(out.CreatedAt) {
				out, found = p, true
			}
		}
		return nil
	})
	if !found {
		return pets.Pet{}, ErrNotFound
	}
	return out, nil
}

func (r *PetsRepo) TransitionStatus(ctx context.Context, id string, from []pets.Status, to pets.Status, at time.Time) (pets.Status, bool, error) {
	var (
		prev pets.Status
		ok   bool
	)
	err := r.s.write(ctx, func(d *data) error {
		p, exists := d.pets[id]
		if !exists {
			return ErrNotFound
		}
		prev = p.Status
		for _, st := range from {
			if st == p.Status {
				ok = true
				break
			}
		}
		if !ok {
			return nil
		}
		p.Status = to
		p.UpdatedAt = at
		d.pets[id] = p
		return nil
	})
	return prev, ok, err
}

func (r *PetsRepo) AddPhoto(ctx context.Context, ph pets.Photo) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.pets[ph.PetID]; !ok {
			return ErrNotFound
		}
		d.petPhotos[ph.PetID] = append(d.petPhotos[ph.PetID], ph)
		return nil
	})
}

func (r *PetsRepo) ListPhotos(ctx context.Context, petID string) ([]pets.Photo, error) {
	var out []pets.Photo
	_ = r.s.read(func(d *data) error {
		out = append([]pets.Photo{}, d.petPhotos[petID]...)
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *PetsRepo) AddFavorite(ctx context.Context, f pets.Favorite) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.pets[f.PetID]; !ok {
			return ErrNotFound
		}
		m := d.favorites[f.UserID]
		if m == nil {
			m = make(map[string]pets.Favorite)
			d.favorites[f.UserID] = m
		}
		if _, exists := m[f.PetID]; !exists {
			m[f.PetID] = f
		}
		return nil
	})
}

func (r *PetsRepo) RemoveFavorite(ctx context.Context, userID, petID string) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.favorites[userID][petID]; !ok {
			return ErrNotFound
		}
		delete(d.favorites[userID], petID)
		return nil
	})
}

func (r *PetsRepo) ListFavorites(ctx context.Context, userID string) ([]pets.Pet, error) {
	type fav struct {
		pet pets.Pet
		at  time.Time
	}
	var favs []fav
	_ = r.s.read(func(d *data) error {
		for petID, f := range d.favorites[userID] {
			if p, ok := d.pets[petID]; ok {
				favs = append(favs, fav{pet: p, at: f.CreatedAt})
			}
		}
		return nil
	})
	sort.Slice(favs, func(i, j int) bool { return favs[i].at.After(favs[j].at) })

	out := make([]pets.Pet, 0, len(favs))
	for _, f := range favs {
		out = append(out, f.pet)
	}
	return out, nil
}
