package adoptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"straypet/internal/domain/events"
	"straypet/internal/domain/pets"
	"straypet/internal/platform/apperr"
	"straypet/internal/ports/auth"
	"straypet/internal/ports/txn"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = apperr.ErrNotFound
	ErrForbidden    = apperr.ErrForbidden
	ErrConflict     = apperr.ErrConflict
	ErrBadState     = apperr.ErrBadState

	ErrPetLost        = fmt.Errorf("%w: pet is reported lost", apperr.ErrConflict)
	ErrPetUnavailable = fmt.Errorf("%w: pet is not available for adoption", apperr.ErrConflict)
	ErrAlreadyApplied = fmt.Errorf("%w: an open application already exists", apperr.ErrConflict)
)

type Service struct {
	repo Repository
	pets *pets.Service
	tx   txn.Transactor
	now  func() time.Time
}

func NewService(repo Repository, petsSvc *pets.Service, tx txn.Transactor) *Service {
	if tx == nil {
		tx = txn.Direct{}
	}
	return &Service{
		repo: repo,
		pets: petsSvc,
		tx:   tx,
		now:  time.Now,
	}
}

// Apply crea la solicitud y pasa la mascota de available a pending.
func (s *Service) Apply(ctx context.Context, actor auth.Actor, petID, message string) (Adoption, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return Adoption{}, ErrInvalidInput
	}

	var out Adoption
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.pets.GetByID(ctx, petID)
		if err != nil {
			return err
		}
		switch {
		case p.Status == pets.StatusLost:
			return ErrPetLost
		case !p.Status.Adoptable():
			return ErrPetUnavailable
		}

		dup, err := s.repo.HasOpenByApplicant(ctx, p.ID, actor.UserID)
		if err != nil {
			return err
		}
		if dup {
			return ErrAlreadyApplied
		}

		now := s.now()
		a := Adoption{
			ID:          uuid.NewString(),
			PetID:       p.ID,
			ApplicantID: actor.UserID,
			Message:     strings.TrimSpace(message),
			Status:      StatusSubmitted,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}

		moved, err := s.pets.Transition(ctx, p.ID, []pets.Status{pets.StatusAvailable}, pets.StatusPending, pets.Change{
			Type:    events.TypeAdoptionApplied,
			ActorID: actor.UserID,
			RefID:   a.ID,
		})
		if err != nil {
			return err
		}
		if !moved {
			// ya estaba pending o cambió entre la lectura y el CAS
			cur, err := s.pets.GetByID(ctx, p.ID)
			if err != nil {
				return err
			}
			if cur.Status != pets.StatusPending {
				return ErrPetUnavailable
			}
		}

		out = a
		return nil
	})
	if err != nil {
		return Adoption{}, err
	}
	return out, nil
}

// allowedTargets aplica la matriz de permisos:
// dueño/staff pueden procesar, aprobar, rechazar o cerrar;
// el solicitante solo puede retirar (cerrar) su solicitud.
func allowedTargets(p pets.Pet, a Adoption, actor auth.Actor) []Status {
	switch {
	case pets.CanManage(p, actor.UserID, actor.IsStaff):
		return []Status{StatusProcessing, StatusApproved, StatusRejected, StatusClosed}
	case actor.UserID != "" && a.ApplicantID == actor.UserID:
		return []Status{StatusClosed}
	default:
		return nil
	}
}

// Review cambia el estado de la solicitud y sincroniza la mascota:
//   - approved: mascota a adopted y el resto de solicitudes abiertas se cierran.
//   - rejected/closed: si no queda ninguna abierta, la mascota vuelve a available.
func (s *Service) Review(ctx context.Context, actor auth.Actor, adoptionID string, to Status) (Adoption, error) {
	if !to.Valid() {
		return Adoption{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}

	var out Adoption
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, strings.TrimSpace(adoptionID))
		if err != nil {
			return err
		}
		p, err := s.pets.GetByID(ctx, a.PetID)
		if err != nil {
			return err
		}

		if !containsStatus(allowedTargets(p, a, actor), to) {
			return ErrForbidden
		}
		if a.Status == to {
			out = a
			return nil
		}
		if !a.Status.IsOpen() {
			return fmt.Errorf("%w: application is already %s", ErrBadState, a.Status)
		}

		now := s.now()
		ok, err := s.repo.TransitionStatus(ctx, a.ID, OpenStatuses, to, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: application changed concurrently", ErrConflict)
		}

		change := pets.Change{
			Type:    events.TypeAdoptionReviewed,
			ActorID: actor.UserID,
			RefID:   a.ID,
			Notes:   string(to),
		}

		switch to {
		case StatusApproved:
			// el CAS de la mascota es el que impide dos aprobaciones
			moved, err := s.pets.Transition(ctx, p.ID, []pets.Status{pets.StatusAvailable, pets.StatusPending}, pets.StatusAdopted, change)
			if err != nil {
				return err
			}
			if !moved {
				return fmt.Errorf("%w: pet is no longer adoptable", ErrConflict)
			}
			if _, err := s.repo.CloseOpenForPet(ctx, p.ID, a.ID, now); err != nil {
				return err
			}

		case StatusRejected, StatusClosed:
			open, err := s.repo.CountOpen(ctx, p.ID, a.ID)
			if err != nil {
				return err
			}
			if open == 0 {
				if _, err := s.pets.Transition(ctx, p.ID, []pets.Status{pets.StatusPending}, pets.StatusAvailable, change); err != nil {
					return err
				}
			}
		}

		out, err = s.repo.GetByID(ctx, a.ID)
		return err
	})
	if err != nil {
		return Adoption{}, err
	}
	return out, nil
}

// Get: visible para el solicitante, el dueño de la mascota y staff.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (Adoption, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Adoption{}, err
	}
	if a.ApplicantID == actor.UserID || actor.IsStaff {
		return a, nil
	}
	p, err := s.pets.GetByID(ctx, a.PetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Adoption{}, ErrForbidden
		}
		return Adoption{}, err
	}
	if !pets.CanManage(p, actor.UserID, actor.IsStaff) {
		return Adoption{}, ErrForbidden
	}
	return a, nil
}

func (s *Service) ListForUser(ctx context.Context, actor auth.Actor) ([]Adoption, error) {
	return s.repo.ListForUser(ctx, actor.UserID)
}

// ListByPet: solo dueño o staff.
func (s *Service) ListByPet(ctx context.Context, actor auth.Actor, petID string) ([]Adoption, error) {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	if !pets.CanManage(p, actor.UserID, actor.IsStaff) {
		return nil, ErrForbidden
	}
	return s.repo.ListByPet(ctx, p.ID)
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
