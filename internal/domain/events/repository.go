package events

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, e PetEvent) error
	ListByPet(ctx context.Context, petID string, filter ListFilter) ([]PetEvent, error)
}

// ListFilter: resultados ordenados por OccurredAt ascendente.
type ListFilter struct {
	Types []EventType
	From  *time.Time
	To    *time.Time
	Limit int
}
