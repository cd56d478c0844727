package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"straypet/internal/domain/events"
)

type EventsRepo struct {
	db *DB
}

func NewEventsRepo(db *DB) *EventsRepo {
	return &EventsRepo{db: db}
}

type eventRow struct {
	ID         string    `db:"id"`
	PetID      string    `db:"pet_id"`
	Type       string    `db:"type"`
	FromStatus string    `db:"from_status"`
	ToStatus   string    `db:"to_status"`
	ActorID    string    `db:"actor_id"`
	RefID      string    `db:"ref_id"`
	Notes      string    `db:"notes"`
	OccurredAt time.Time `db:"occurred_at"`
}

func (r *EventsRepo) Create(ctx context.Context, e events.PetEvent) error {
	_, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), `
		INSERT INTO pet_events (
			id, pet_id, type,
			from_status, to_status,
			actor_id, ref_id, notes,
			occurred_at
		) VALUES (
			:id, :pet_id, :type,
			:from_status, :to_status,
			:actor_id, :ref_id, :notes,
			:occurred_at
		)
	`, eventRow{
		ID:         e.ID,
		PetID:      e.PetID,
		Type:       string(e.Type),
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		ActorID:    e.ActorID,
		RefID:      e.RefID,
		Notes:      e.Notes,
		OccurredAt: e.OccurredAt,
	})
	return err
}

func (r *EventsRepo) ListByPet(ctx context.Context, petID string, f events.ListFilter) ([]events.PetEvent, error) {
	var w where
	w.add("pet_id = ?", petID)
	if len(f.Types) > 0 {
		w.add("type IN (?)", strs(f.Types))
	}
	if f.From != nil {
		w.add("occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("occurred_at <= ?", *f.To)
	}

	q := r.db.conn(ctx)
	query, args := limitOffset(`
		SELECT id, pet_id, type, from_status, to_status, actor_id, ref_id, notes, occurred_at
		FROM pet_events`+w.String()+`
		ORDER BY occurred_at ASC, id ASC`, w.args, f.Limit, 0)
	query, args, err := build(q, query, args...)
	if err != nil {
		return nil, err
	}

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]events.PetEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, events.PetEvent{
			ID:         row.ID,
			PetID:      row.PetID,
			Type:       events.EventType(row.Type),
			FromStatus: row.FromStatus,
			ToStatus:   row.ToStatus,
			ActorID:    row.ActorID,
			RefID:      row.RefID,
			Notes:      row.Notes,
			OccurredAt: row.OccurredAt,
		})
	}
	return out, nil
}
