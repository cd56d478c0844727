package memory

import (
	"context"
	"sort"

	"straypet/internal/domain/events"
)

type EventsRepo struct{ s *Store }

func (s *Store) Events() *EventsRepo { return &EventsRepo{s: s} }

func (r *EventsRepo) Create(ctx context.Context, e events.PetEvent) error {
	return r.s.write(ctx, func(d *data) error {
		d.events[e.PetID] = append(d.events[e.PetID], e)
		return nil
	})
}

func (r *EventsRepo) ListByPet(ctx context.Context, petID string, f events.ListFilter) ([]events.PetEvent, error) {
	out := make([]events.PetEvent, 0)
	_ = r.s.read(func(d *data) error {
		for _, e := range d.events[petID] {
			if !inFilter(f.Types, e.Type) {
				continue
			}
			if f.From != nil && e.OccurredAt.Before(*f.From) {
				continue
			}
			if f.To != nil && e.OccurredAt.After(*f.To) {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return page(out, 0, f.Limit), nil
}
