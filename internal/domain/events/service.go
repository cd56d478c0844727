package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"straypet/internal/platform/apperr"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type RecordInput struct {
	PetID      string
	Type       EventType
	FromStatus string
	ToStatus   string
	ActorID    string
	RefID      string
	Notes      string
}

// Record agrega una entrada al timeline. Se llama dentro de la transacción
// de la transición, así el evento y el cambio de estado se confirman juntos.
func (s *Service) Record(ctx context.Context, in RecordInput) (PetEvent, error) {
	if strings.TrimSpace(in.PetID) == "" || !in.Type.Valid() {
		return PetEvent{}, ErrInvalidInput
	}

	e := PetEvent{
		ID:         uuid.NewString(),
		PetID:      in.PetID,
		Type:       in.Type,
		FromStatus: in.FromStatus,
		ToStatus:   in.ToStatus,
		ActorID:    strings.TrimSpace(in.ActorID),
		RefID:      strings.TrimSpace(in.RefID),
		Notes:      strings.TrimSpace(in.Notes),
		OccurredAt: s.now(),
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return PetEvent{}, err
	}
	return e, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string, filter ListFilter) ([]PetEvent, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.ListByPet(ctx, petID, filter)
}
