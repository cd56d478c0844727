package lost

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"straypet/internal/domain/events"
	"straypet/internal/domain/geo"
	"straypet/internal/domain/pets"
	"straypet/internal/platform/apperr"
	"straypet/internal/platform/logger"
	"straypet/internal/ports/auth"
	"straypet/internal/ports/blob"
	"straypet/internal/ports/txn"
)

var (
	ErrInvalidInput = apperr.ErrInvalidInput
	ErrNotFound     = apperr.ErrNotFound
	ErrForbidden    = apperr.ErrForbidden
	ErrConflict     = apperr.ErrConflict
	ErrBadState     = apperr.ErrBadState
)

type Deps struct {
	Reports   Repository
	Pets      *pets.Service
	Blobs     blob.Store
	Addresses pets.AddressResolver
	Tx        txn.Transactor
	Log       logger.Logger
}

type Service struct {
	repo      Repository
	pets      *pets.Service
	blobs     blob.Store
	addresses pets.AddressResolver
	tx        txn.Transactor
	log       logger.Logger
	now       func() time.Time
}

func NewService(d Deps) *Service {
	if d.Tx == nil {
		d.Tx = txn.Direct{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Service{
		repo:      d.Reports,
		pets:      d.Pets,
		blobs:     d.Blobs,
		addresses: d.Addresses,
		tx:        d.Tx,
		log:       d.Log,
		now:       time.Now,
	}
}

type ReportInput struct {
	// PetID vincula explícitamente una mascota existente (dueño o staff).
	PetID string

	PetName      string
	Species      string
	Breed        string
	Color        string
	Sex          string
	Size         string
	LostAt       time.Time
	Description  string
	Reward       *float64
	ContactPhone string
	ContactEmail string
	Address      *geo.Payload
}

// Report registra una pérdida. La mascota se resuelve así:
//  1. PetID explícito;
//  2. misma (nombre, reporter), solo para usuarios identificados;
//  3. si no hay, se crea una mínima a nombre del reporter.
//
// En todos los casos la mascota termina en lost.
func (s *Service) Report(ctx context.Context, actor auth.Actor, in ReportInput, photo *blob.File) (Report, error) {
	reporter := strings.TrimSpace(actor.UserID)
	anonymous := reporter == "" || reporter == auth.AnonymousUserID
	if anonymous {
		reporter = auth.AnonymousUserID
	}

	if in.Reward != nil && *in.Reward < 0 {
		return Report{}, fmt.Errorf("%w: reward must not be negative", ErrInvalidInput)
	}

	sex := pets.Sex(strings.TrimSpace(in.Sex))
	if !sex.Valid() {
		sex = pets.SexMale
	}

	now := s.now()
	r := Report{
		ID:           uuid.NewString(),
		PetName:      strings.TrimSpace(in.PetName),
		Species:      strings.ToLower(strings.TrimSpace(in.Species)),
		Breed:        strings.TrimSpace(in.Breed),
		Color:        strings.TrimSpace(in.Color),
		Sex:          sex,
		Size:         strings.TrimSpace(in.Size),
		LostAt:       in.LostAt,
		Description:  strings.TrimSpace(in.Description),
		Reward:       in.Reward,
		Status:       StatusOpen,
		ReporterID:   reporter,
		ContactPhone: strings.TrimSpace(in.ContactPhone),
		ContactEmail: strings.TrimSpace(in.ContactEmail),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if r.LostAt.IsZero() {
		r.LostAt = now
	}

	if in.Address != nil && !in.Address.IsEmpty() {
		a, err := s.addresses.ResolveOrFallback(ctx, *in.Address)
		if err != nil {
			return Report{}, err
		}
		r.AddressID = &a.ID
	}

	if photo != nil && len(photo.Data) > 0 {
		p, err := s.blobs.Save(ctx, fmt.Sprintf("lost/%s_%s", uuid.NewString(), blob.SafeName(photo.Name)), photo.Data)
		if err != nil {
			return Report{}, fmt.Errorf("store lost photo: %w", err)
		}
		r.Photo = p
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		pet, found, err := s.matchPet(ctx, actor, anonymous, reporter, strings.TrimSpace(in.PetID), r.PetName)
		if err != nil {
			return err
		}

		change := pets.Change{
			Type:    events.TypeReportedLost,
			ActorID: reporter,
			RefID:   r.ID,
		}

		if found {
			if err := s.syncPet(ctx, pet, r); err != nil {
				return err
			}
			if _, err := s.pets.Transition(ctx, pet.ID, pets.StatusesExcept(pets.StatusLost), pets.StatusLost, change); err != nil {
				return err
			}
		} else {
			pet, err = s.pets.Register(ctx, pets.Pet{
				OwnerUserID: reporter,
				Name:        r.DisplayName(),
				Species:     r.speciesOrUnknown(),
				Breed:       r.Breed,
				Sex:         r.Sex,
				Size:        r.Size,
				Description: r.Description,
				AddressID:   r.AddressID,
				Cover:       r.Photo,
				Status:      pets.StatusLost,
			})
			if err != nil {
				return err
			}
			if err := s.pets.RecordCreated(ctx, pet, change); err != nil {
				return err
			}
		}

		r.PetID = &pet.ID
		return s.repo.Create(ctx, r)
	})
	if err != nil {
		return Report{}, err
	}
	return r, nil
}

func (s *Service) matchPet(ctx context.Context, actor auth.Actor, anonymous bool, reporter, petID, name string) (pets.Pet, bool, error) {
	if petID != "" {
		p, err := s.pets.GetByID(ctx, petID)
		if err != nil {
			return pets.Pet{}, false, err
		}
		if anonymous || !pets.CanManage(p, reporter, actor.IsStaff) {
			return pets.Pet{}, false, ErrForbidden
		}
		return p, true, nil
	}

	// con el usuario anónimo compartido el match por nombre mezclaría mascotas ajenas
	if anonymous || name == "" {
		return pets.Pet{}, false, nil
	}

	p, err := s.pets.FindByNameAndOwner(ctx, name, reporter)
	if errors.Is(err, ErrNotFound) {
		return pets.Pet{}, false, nil
	}
	if err != nil {
		return pets.Pet{}, false, err
	}
	return p, true, nil
}

// syncPet copia al perfil lo que el reporte trae y la mascota no refleja.
// La portada solo se pone si la mascota no tenía.
func (s *Service) syncPet(ctx context.Context, p pets.Pet, r Report) error {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&p.Species, r.Species)
	set(&p.Breed, r.Breed)
	set(&p.Description, r.Description)
	if r.AddressID != nil && (p.AddressID == nil || *p.AddressID != *r.AddressID) {
		p.AddressID = r.AddressID
		changed = true
	}
	if r.Photo != "" && p.Cover == "" {
		p.Cover = r.Photo
		changed = true
	}

	if !changed {
		return nil
	}
	_, err := s.pets.Update(ctx, p)
	return err
}

// Resolve mueve el reporte a found o closed y, si nadie más la busca,
// devuelve la mascota a available. Si la mascota ya no está lost no se toca.
func (s *Service) Resolve(ctx context.Context, actor auth.Actor, id string, to Status) (Report, error) {
	if !to.Valid() {
		return Report{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}

	var out Report
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if err := s.canResolve(ctx, actor, r); err != nil {
			return err
		}
		if r.Status == to {
			out = r
			return nil
		}
		if !r.Status.canMove(to) {
			return fmt.Errorf("%w: cannot move report from %s to %s", ErrBadState, r.Status, to)
		}

		ok, err := s.repo.TransitionStatus(ctx, r.ID, []Status{r.Status}, to, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: report changed concurrently", ErrConflict)
		}

		if r.PetID != nil && to.Resolved() {
			open, err := s.repo.HasOpenForPet(ctx, *r.PetID, r.ID)
			if err != nil {
				return err
			}
			if !open {
				if _, err := s.pets.Transition(ctx, *r.PetID, []pets.Status{pets.StatusLost}, pets.StatusAvailable, pets.Change{
					Type:    events.TypeLostResolved,
					ActorID: actor.UserID,
					RefID:   r.ID,
					Notes:   string(to),
				}); err != nil {
					return err
				}
			}
		}

		out, err = s.repo.GetByID(ctx, r.ID)
		return err
	})
	if err != nil {
		return Report{}, err
	}
	return out, nil
}

// canResolve: reporter identificado, dueño de la mascota o staff.
func (s *Service) canResolve(ctx context.Context, actor auth.Actor, r Report) error {
	uid := strings.TrimSpace(actor.UserID)
	switch {
	case actor.IsStaff:
		return nil
	case uid == "" || uid == auth.AnonymousUserID:
		return ErrForbidden
	case r.ReporterID == uid:
		return nil
	}

	if r.PetID != nil {
		p, err := s.pets.GetByID(ctx, *r.PetID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if err == nil && p.OwnerUserID == uid {
			return nil
		}
	}
	return ErrForbidden
}

func (s *Service) Get(ctx context.Context, id string) (Report, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Report{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Report, error) {
	if err := normalizeFilter(&filter); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter)
}

// ListGeo es la vista de mapa: solo reportes con coordenadas.
func (s *Service) ListGeo(ctx context.Context, filter ListFilter) ([]GeoReport, error) {
	if err := normalizeFilter(&filter); err != nil {
		return nil, err
	}
	return s.repo.ListGeo(ctx, filter)
}

func normalizeFilter(f *ListFilter) error {
	for _, st := range f.Statuses {
		if !st.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, st)
		}
	}
	f.Species = strings.ToLower(strings.TrimSpace(f.Species))
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return nil
}
