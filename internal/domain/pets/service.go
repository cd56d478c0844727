package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"straypet/internal/domain/events"
	"straypet/internal/domain/geo"
	"straypet/internal/platform/apperr"
	"straypet/internal/platform/metrics"
	"straypet/internal/ports/auth"
	"straypet/internal/ports/txn"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = apperr.ErrNotFound
	ErrForbidden    = apperr.ErrForbidden
	ErrConflict     = apperr.ErrConflict
)

// Timeline registra las transiciones en el historial de la mascota.
type Timeline interface {
	Record(ctx context.Context, in events.RecordInput) (events.PetEvent, error)
}

// AddressResolver convierte el payload de ubicación en una dirección guardada.
type AddressResolver interface {
	ResolveOrFallback(ctx context.Context, p geo.Payload) (geo.Address, error)
}

type Deps struct {
	Pets      Repository
	Photos    PhotoRepository
	Favorites FavoriteRepository
	Timeline  Timeline
	Addresses AddressResolver
	Tx        txn.Transactor
}

type Service struct {
	repo      Repository
	photos    PhotoRepository
	favorites FavoriteRepository
	timeline  Timeline
	addresses AddressResolver
	tx        txn.Transactor
	now       func() time.Time
}

func NewService(d Deps) *Service {
	tx := d.Tx
	if tx == nil {
		tx = txn.Direct{}
	}
	return &Service{
		repo:      d.Pets,
		photos:    d.Photos,
		favorites: d.Favorites,
		timeline:  d.Timeline,
		addresses: d.Addresses,
		tx:        tx,
		now:       time.Now,
	}
}

type CreateInput struct {
	Name         string
	Species      string
	Breed        string
	Sex          string
	AgeYears     int
	AgeMonths    int
	Size         string
	Traits       Traits
	Description  string
	ContactPhone string
	ShelterID    string
	// Status inicial: draft o available (por defecto available).
	Status  string
	Address *geo.Payload
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (Pet, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return Pet{}, ErrInvalidInput
	}

	status := Status(strings.TrimSpace(in.Status))
	if status == "" {
		status = StatusAvailable
	}
	if status != StatusAvailable && status != StatusDraft {
		return Pet{}, fmt.Errorf("%w: initial status must be draft or available", ErrInvalidInput)
	}

	p := Pet{
		OwnerUserID:  actor.UserID,
		Name:         strings.TrimSpace(in.Name),
		Species:      strings.ToLower(strings.TrimSpace(in.Species)),
		Breed:        strings.TrimSpace(in.Breed),
		Sex:          Sex(strings.TrimSpace(in.Sex)),
		AgeYears:     in.AgeYears,
		AgeMonths:    in.AgeMonths,
		Size:         strings.TrimSpace(in.Size),
		Traits:       in.Traits,
		Description:  strings.TrimSpace(in.Description),
		ContactPhone: strings.TrimSpace(in.ContactPhone),
		Status:       status,
	}
	if id := strings.TrimSpace(in.ShelterID); id != "" {
		p.ShelterID = &id
	}

	if in.Address != nil && !in.Address.IsEmpty() {
		a, err := s.addresses.ResolveOrFallback(ctx, *in.Address)
		if err != nil {
			return Pet{}, err
		}
		p.AddressID = &a.ID
	}

	return s.Register(ctx, p)
}

// Register valida y guarda una mascota ya armada. Lo usan Create y los
// flujos que crean mascotas indirectamente (donación aprobada, reporte de pérdida).
func (s *Service) Register(ctx context.Context, p Pet) (Pet, error) {
	if strings.TrimSpace(p.OwnerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Species) == "" {
		return Pet{}, fmt.Errorf("%w: name and species are required", ErrInvalidInput)
	}
	if p.Sex == "" {
		p.Sex = SexMale
	}
	if !p.Sex.Valid() {
		return Pet{}, fmt.Errorf("%w: sex must be male or female", ErrInvalidInput)
	}
	if p.Status == "" {
		p.Status = StatusAvailable
	}
	if !p.Status.Valid() {
		return Pet{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, p.Status)
	}
	if p.AgeYears < 0 || p.AgeMonths < 0 {
		return Pet{}, fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	}

	now := s.now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Update guarda cambios de perfil (no de estado).
func (s *Service) Update(ctx context.Context, p Pet) (Pet, error) {
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// List sin filtro de estado muestra solo lo adoptable (listado público).
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Pet, error) {
	if len(filter.Statuses) == 0 {
		filter.Statuses = []Status{StatusAvailable, StatusPending}
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, st)
		}
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return nil, nil
	}
	return s.repo.List(ctx, ListFilter{OwnerUserID: ownerUserID})
}

func (s *Service) FindByNameAndOwner(ctx context.Context, name, ownerUserID string) (Pet, error) {
	return s.repo.FindByNameAndOwner(ctx, strings.TrimSpace(name), ownerUserID)
}

// Change describe quién y por qué dispara una transición.
type Change struct {
	Type    events.EventType
	ActorID string
	RefID   string
	Notes   string
}

// Transition aplica el CAS de estado y, si aplicó, lo registra en el timeline.
// ok=false significa que el estado actual no estaba en `from` (no es error).
// Debe llamarse dentro de la transacción del caller.
func (s *Service) Transition(ctx context.Context, petID string, from []Status, to Status, c Change) (bool, error) {
	prev, ok, err := s.repo.TransitionStatus(ctx, petID, from, to, s.now())
	if err != nil || !ok {
		return false, err
	}
	if prev == to {
		return true, nil
	}

	metrics.ObserveTransition(string(prev), string(to))

	if s.timeline != nil {
		if _, err := s.timeline.Record(ctx, events.RecordInput{
			PetID:      petID,
			Type:       c.Type,
			FromStatus: string(prev),
			ToStatus:   string(to),
			ActorID:    c.ActorID,
			RefID:      c.RefID,
			Notes:      c.Notes,
		}); err != nil {
			return false, err
		}
	}
	return true, nil
}

// RecordCreated deja en el timeline el alta de una mascota creada por
// otro flujo (donación aprobada, reporte de pérdida).
func (s *Service) RecordCreated(ctx context.Context, p Pet, c Change) error {
	if s.timeline == nil {
		return nil
	}
	metrics.ObserveTransition("none", string(p.Status))
	_, err := s.timeline.Record(ctx, events.RecordInput{
		PetID:    p.ID,
		Type:     c.Type,
		ToStatus: string(p.Status),
		ActorID:  c.ActorID,
		RefID:    c.RefID,
		Notes:    c.Notes,
	})
	return err
}

// SetStatus es la acción explícita de dueño/staff sobre el estado.
// Mismo estado = no-op.
func (s *Service) SetStatus(ctx context.Context, actor auth.Actor, petID string, status Status) (Pet, error) {
	if !status.Valid() {
		return Pet{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	var out Pet
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.GetByID(ctx, petID)
		if err != nil {
			return err
		}
		if !CanManage(p, actor.UserID, actor.IsStaff) {
			return ErrForbidden
		}
		if p.Status == status {
			out = p
			return nil
		}

		ok, err := s.Transition(ctx, p.ID, []Status{p.Status}, status, Change{
			Type:    events.TypeStatusChanged,
			ActorID: actor.UserID,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: pet status changed concurrently", ErrConflict)
		}

		out, err = s.repo.GetByID(ctx, p.ID)
		return err
	})
	if err != nil {
		return Pet{}, err
	}
	return out, nil
}

// MarkLost pasa a lost desde cualquier otro estado.
func (s *Service) MarkLost(ctx context.Context, actor auth.Actor, petID string) (Pet, error) {
	var out Pet
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.GetByID(ctx, petID)
		if err != nil {
			return err
		}
		if !CanManage(p, actor.UserID, actor.IsStaff) {
			return ErrForbidden
		}

		if _, err := s.Transition(ctx, p.ID, StatusesExcept(StatusLost), StatusLost, Change{
			Type:    events.TypeStatusChanged,
			ActorID: actor.UserID,
			Notes:   "marked lost by owner",
		}); err != nil {
			return err
		}

		out, err = s.repo.GetByID(ctx, p.ID)
		return err
	})
	if err != nil {
		return Pet{}, err
	}
	return out, nil
}

func (s *Service) AddPhoto(ctx context.Context, petID, path string, order int) (Photo, error) {
	if strings.TrimSpace(petID) == "" || strings.TrimSpace(path) == "" {
		return Photo{}, ErrInvalidInput
	}
	ph := Photo{
		ID:        uuid.NewString(),
		PetID:     petID,
		Path:      path,
		Order:     order,
		CreatedAt: s.now(),
	}
	if err := s.photos.AddPhoto(ctx, ph); err != nil {
		return Photo{}, err
	}
	return ph, nil
}

func (s *Service) ListPhotos(ctx context.Context, petID string) ([]Photo, error) {
	if _, err := s.GetByID(ctx, petID); err != nil {
		return nil, err
	}
	return s.photos.ListPhotos(ctx, petID)
}

func (s *Service) AddFavorite(ctx context.Context, actor auth.Actor, petID string) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return ErrInvalidInput
	}
	if _, err := s.GetByID(ctx, petID); err != nil {
		return err
	}
	return s.favorites.AddFavorite(ctx, Favorite{
		UserID:    actor.UserID,
		PetID:     petID,
		CreatedAt: s.now(),
	})
}

// RemoveFavorite es idempotente: quitar algo que no estaba no es error.
func (s *Service) RemoveFavorite(ctx context.Context, actor auth.Actor, petID string) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return ErrInvalidInput
	}
	err := s.favorites.RemoveFavorite(ctx, actor.UserID, petID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (s *Service) ListFavorites(ctx context.Context, actor auth.Actor) ([]Pet, error) {
	return s.favorites.ListFavorites(ctx, actor.UserID)
}
