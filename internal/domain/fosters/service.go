package fosters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"straypet/internal/domain/geo"
	"straypet/internal/domain/pets"
	"straypet/internal/platform/apperr"
	"straypet/internal/ports/auth"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = apperr.ErrNotFound
	ErrForbidden    = apperr.ErrForbidden
	ErrConflict     = apperr.ErrConflict
	ErrBadState     = apperr.ErrBadState

	ErrAlreadyPending = fmt.Errorf("%w: a pending application already exists", apperr.ErrConflict)
)

type Service struct {
	repo      Repository
	addresses pets.AddressResolver
	now       func() time.Time
}

func NewService(repo Repository, addresses pets.AddressResolver) *Service {
	return &Service{
		repo:      repo,
		addresses: addresses,
		now:       time.Now,
	}
}

type Input struct {
	FullName       *string
	Email          *string
	Phone          *string
	Address        *geo.Payload
	PetCount       *int
	CanTakeDogs    *bool
	CanTakeCats    *bool
	CanTakeRabbits *bool
	CanTakeOthers  *string
	Motivation     *string
	Introduction   *string
	TermsAgreed    *bool
}

// editableWhenApproved: lo único que el postulante puede tocar una vez aprobado.
func (in Input) editableWhenApproved() Input {
	return Input{
		Phone:        in.Phone,
		Address:      in.Address,
		Motivation:   in.Motivation,
		Introduction: in.Introduction,
	}
}

// Apply crea la postulación en pending. Una sola pendiente por usuario.
func (s *Service) Apply(ctx context.Context, actor auth.Actor, in Input) (Application, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return Application{}, ErrInvalidInput
	}
	required := []struct {
		field string
		v     *string
	}{
		{"full_name", in.FullName},
		{"email", in.Email},
		{"phone", in.Phone},
		{"motivation", in.Motivation},
	}
	for _, r := range required {
		if r.v == nil || strings.TrimSpace(*r.v) == "" {
			return Application{}, fmt.Errorf("%w: %s is required", ErrInvalidInput, r.field)
		}
	}
	if in.TermsAgreed == nil || !*in.TermsAgreed {
		return Application{}, fmt.Errorf("%w: terms must be agreed", ErrInvalidInput)
	}

	now := s.now()
	a := Application{
		ID:        uuid.NewString(),
		UserID:    actor.UserID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(ctx, &a, in); err != nil {
		return Application{}, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return Application{}, err
	}
	return a, nil
}

// Update: postulante o staff. Aprobada, el postulante solo cambia
// contacto, dirección y textos; el resto se ignora.
func (s *Service) Update(ctx context.Context, actor auth.Actor, id string, in Input) (Application, error) {
	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return Application{}, err
	}
	if a.Status == StatusApproved && !actor.IsStaff {
		in = in.editableWhenApproved()
	}

	if err := s.apply(ctx, &a, in); err != nil {
		return Application{}, err
	}
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return Application{}, err
	}
	return a, nil
}

func (s *Service) apply(ctx context.Context, a *Application, in Input) error {
	str := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	flag := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}

	for _, v := range []*string{in.FullName, in.Phone, in.Motivation} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%w: required field must not be empty", ErrInvalidInput)
		}
	}
	if in.Email != nil && !strings.Contains(*in.Email, "@") {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if in.PetCount != nil {
		if *in.PetCount < 0 {
			return fmt.Errorf("%w: pet_count must not be negative", ErrInvalidInput)
		}
		a.PetCount = *in.PetCount
	}

	str(&a.FullName, in.FullName)
	str(&a.Email, in.Email)
	str(&a.Phone, in.Phone)
	str(&a.CanTakeOthers, in.CanTakeOthers)
	str(&a.Motivation, in.Motivation)
	str(&a.Introduction, in.Introduction)
	flag(&a.CanTakeDogs, in.CanTakeDogs)
	flag(&a.CanTakeCats, in.CanTakeCats)
	flag(&a.CanTakeRabbits, in.CanTakeRabbits)
	flag(&a.TermsAgreed, in.TermsAgreed)

	if in.Address != nil && !in.Address.IsEmpty() && s.addresses != nil {
		addr, err := s.addresses.ResolveOrFallback(ctx, *in.Address)
		if err != nil {
			return err
		}
		a.AddressID = &addr.ID
	}
	return nil
}

// Approve: staff, pending -> approved. Aprobar dos veces no es error.
func (s *Service) Approve(ctx context.Context, reviewer auth.Actor, id, note string) (Application, error) {
	return s.review(ctx, reviewer, id, StatusApproved, note)
}

// Reject: staff, pending -> rejected. El motivo es obligatorio.
func (s *Service) Reject(ctx context.Context, reviewer auth.Actor, id, reason string) (Application, error) {
	if strings.TrimSpace(reason) == "" {
		return Application{}, fmt.Errorf("%w: rejection reason is required", ErrInvalidInput)
	}
	return s.review(ctx, reviewer, id, StatusRejected, reason)
}

func (s *Service) review(ctx context.Context, reviewer auth.Actor, id string, to Status, note string) (Application, error) {
	if !reviewer.IsStaff {
		return Application{}, ErrForbidden
	}

	id = strings.TrimSpace(id)
	ok, err := s.repo.TransitionStatus(ctx, id, []Status{StatusPending}, to, reviewer.UserID, strings.TrimSpace(note), s.now())
	if err != nil {
		return Application{}, err
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !ok && a.Status != to {
		return Application{}, fmt.Errorf("%w: application is %s", ErrBadState, a.Status)
	}
	return a, nil
}

// Get: postulante o staff.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Application{}, ErrNotFound
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !actor.IsStaff && (actor.UserID == "" || a.UserID != actor.UserID) {
		return Application{}, ErrForbidden
	}
	return a, nil
}

// List: staff ve todas, el resto solo las propias.
func (s *Service) List(ctx context.Context, actor auth.Actor, f ListFilter) ([]Application, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, ErrInvalidInput
	}
	if !actor.IsStaff {
		f.UserID = actor.UserID
	}
	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, st)
		}
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.repo.List(ctx, f)
}

// ApprovedFor devuelve la postulación aprobada más reciente del usuario.
// Sirve para mostrar el perfil de acogida a otros usuarios.
func (s *Service) ApprovedFor(ctx context.Context, userID string) (Application, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Application{}, ErrNotFound
	}
	items, err := s.repo.List(ctx, ListFilter{UserID: userID, Statuses: []Status{StatusApproved}, Limit: 1})
	if err != nil {
		return Application{}, err
	}
	if len(items) == 0 {
		return Application{}, ErrNotFound
	}
	return items[0], nil
}
