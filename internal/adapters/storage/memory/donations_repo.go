package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"time"

	"straypet/internal/domain/donations"
)

type DonationsRepo struct{ s *Store }

func (s *Store) Donations() *DonationsRepo { return &DonationsRepo{s: s} }

func (r *DonationsRepo) Create(ctx context.Context, dn donations.Donation) error {
	return r.s.write(ctx, func(d *data) error {
		if _, exists := d.donations[dn.ID]; exists {
			return errors.New("donation already exists")
		}
		d.donations[dn.ID] = dn
		return nil
	})
}

func (r *DonationsRepo) GetByID(ctx context.Context, id string) (donations.Donation, error) {
	var out donations.Donation
	err := r.s.read(func(d *data) error {
		dn, ok := d.donations[id]
		if !ok {
			return ErrNotFound
		}
		out = dn
		return nil
	})
	return out, err
}

func (r *DonationsRepo) ListByDonor(ctx context.Context, donorID string) ([]donations.Donation, error) {
	return r.filter(func(dn donations.Donation) bool { return dn.DonorID == donorID }, 0), nil
}

func (r *DonationsRepo) List(ctx context.Context, f donations.ListFilter) ([]donations.Donation, error) {
	return r.filter(func(dn donations.Donation) bool { return inFilter(f.Statuses, dn.Status) }, f.Limit), nil
}

func (r *DonationsRepo) AddPhoto(ctx context.Context, p donations.Photo) error {
	return r.s.write(ctx, func(d *data) error {
		if _, ok := d.donations[p.DonationID]; !ok {
			return ErrNotFound
		}
		d.donationPhotos[p.DonationID] = append(d.donationPhotos[p.DonationID], p)
		return nil
	})
}

func (r *DonationsRepo) ListPhotos(ctx context.Context, donationID string) ([]donations.Photo, error) {
	var out []donations.Photo
	_ = r.s.read(func(d *data) error {
		out = append([]donations.Photo{}, d.donationPhotos[donationID]...)
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *DonationsRepo) TransitionStatus(ctx context.Context, id string, from []donations.Status, to donations.Status, reviewerID, note string, at time.Time) (bool, error) {
	ok := false
	err := r.s.write(ctx, func(d *data) error {
		dn, exists := d.donations[id]
		if !exists {
			return ErrNotFound
		}
		if dn.CreatedPetID != nil || !inFilter(from, dn.Status) {
			return nil
		}
		dn.Status = to
		dn.ReviewerID = reviewerID
		if note != "" {
			dn.ReviewNote = note
		}
		dn.UpdatedAt = at
		d.donations[id] = dn
		ok = true
		return nil
	})
	return ok, err
}

func (r *DonationsRepo) MarkApproved(ctx context.Context, id, petID, reviewerID, note string, at time.Time) (bool, error) {
	ok := false
	err := r.s.write(ctx, func(d *data) error {
		dn, exists := d.donations[id]
		if !exists {
			return ErrNotFound
		}
		if dn.CreatedPetID != nil || !slices.Contains(donations.ApprovableStatuses, dn.Status) {
			return nil
		}
		dn.CreatedPetID = &petID
		dn.Status = donations.StatusApproved
		dn.ReviewerID = reviewerID
		if note != "" {
			dn.ReviewNote = note
		}
		dn.UpdatedAt = at
		d.donations[id] = dn
		ok = true
		return nil
	})
	return ok, err
}

func (r *DonationsRepo) filter(keep func(donations.Donation) bool, limit int) []donations.Donation {
	out := make([]donations.Donation, 0)
	_ = r.s.read(func(d *data) error {
		for _, dn := range d.donations {
			if keep(dn) {
				out = append(out, dn)
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
	return page(out, 0, limit)
}
