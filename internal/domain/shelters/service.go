package shelters

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
	Name           *string
	Description    *string
	Email          *string
	Phone          *string
	Website        *string
	Capacity       *int
	CurrentAnimals *int
	FoundedYear    *int
	IsActive       *bool
	// solo staff
	IsVerified   *bool
	FacebookURL  *string
	InstagramURL *string
	TwitterURL   *string
	Address      *geo.Payload
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, in Input) (Shelter, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return Shelter{}, ErrInvalidInput
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return Shelter{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	now := s.now()
	sh := Shelter{
		ID:        uuid.NewString(),
		IsActive:  true,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(ctx, actor, &sh, in); err != nil {
		return Shelter{}, err
	}
	if err := s.repo.Create(ctx, sh); err != nil {
		return Shelter{}, err
	}
	return sh, nil
}

// Update aplica solo los campos presentes. Creador o staff.
func (s *Service) Update(ctx context.Context, actor auth.Actor, id string, in Input) (Shelter, error) {
	sh, err := s.Get(ctx, id)
	if err != nil {
		return Shelter{}, err
	}
	if !actor.IsStaff && (actor.UserID == "" || sh.CreatedBy != actor.UserID) {
		return Shelter{}, ErrForbidden
	}

	if err := s.apply(ctx, actor, &sh, in); err != nil {
		return Shelter{}, err
	}
	sh.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, sh); err != nil {
		return Shelter{}, err
	}
	return sh, nil
}

func (s *Service) apply(ctx context.Context, actor auth.Actor, sh *Shelter, in Input) error {
	str := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		sh.Name = strings.TrimSpace(*in.Name)
	}
	str(&sh.Description, in.Description)
	str(&sh.Email, in.Email)
	str(&sh.Phone, in.Phone)
	str(&sh.Website, in.Website)
	str(&sh.FacebookURL, in.FacebookURL)
	str(&sh.InstagramURL, in.InstagramURL)
	str(&sh.TwitterURL, in.TwitterURL)

	if in.Capacity != nil {
		if *in.Capacity < 0 {
			return fmt.Errorf("%w: capacity must not be negative", ErrInvalidInput)
		}
		sh.Capacity = *in.Capacity
	}
	if in.CurrentAnimals != nil {
		if *in.CurrentAnimals < 0 {
			return fmt.Errorf("%w: current_animals must not be negative", ErrInvalidInput)
		}
		sh.CurrentAnimals = *in.CurrentAnimals
	}
	if in.FoundedYear != nil {
		if y := *in.FoundedYear; y < 1800 || y > s.now().Year() {
			return fmt.Errorf("%w: founded_year out of range", ErrInvalidInput)
		}
		sh.FoundedYear = in.FoundedYear
	}
	if in.IsActive != nil {
		sh.IsActive = *in.IsActive
	}
	if in.IsVerified != nil {
		if !actor.IsStaff {
			return ErrForbidden
		}
		sh.IsVerified = *in.IsVerified
	}

	if in.Address != nil && !in.Address.IsEmpty() {
		a, err := s.addresses.ResolveOrFallback(ctx, *in.Address)
		if err != nil {
			return err
		}
		sh.AddressID = &a.ID
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (Shelter, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Shelter{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Shelter, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
