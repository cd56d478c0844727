package donations

import (
	"context"
	"errors"
	"fmt"
	"path"
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
	ErrBadState     = apperr.ErrBadState

	// otro request aprobó la misma donación entre la lectura y el CAS
	errApprovedConcurrently = errors.New("donation approved concurrently")
)

type Deps struct {
	Donations Repository
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
		repo:      d.Donations,
		pets:      d.Pets,
		blobs:     d.Blobs,
		addresses: d.Addresses,
		tx:        d.Tx,
		log:       d.Log,
		now:       time.Now,
	}
}

type SubmitInput struct {
	Name         string
	Species      string
	Breed        string
	Sex          string
	AgeYears     int
	AgeMonths    int
	Description  string
	Traits       pets.Traits
	IsStray      bool
	ContactPhone string
	ShelterID    string
	Address      *geo.Payload
}

// Submit guarda la donación con sus fotos en estado submitted.
func (s *Service) Submit(ctx context.Context, actor auth.Actor, in SubmitInput, photos []blob.File) (Donation, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return Donation{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Species) == "" {
		return Donation{}, fmt.Errorf("%w: name and species are required", ErrInvalidInput)
	}
	sex := pets.Sex(strings.TrimSpace(in.Sex))
	if sex == "" {
		sex = pets.SexMale
	}
	if !sex.Valid() {
		return Donation{}, fmt.Errorf("%w: sex must be male or female", ErrInvalidInput)
	}

	now := s.now()
	d := Donation{
		ID:           uuid.NewString(),
		DonorID:      actor.UserID,
		Name:         strings.TrimSpace(in.Name),
		Species:      strings.ToLower(strings.TrimSpace(in.Species)),
		Breed:        strings.TrimSpace(in.Breed),
		Sex:          sex,
		AgeYears:     in.AgeYears,
		AgeMonths:    in.AgeMonths,
		Description:  strings.TrimSpace(in.Description),
		Traits:       in.Traits,
		IsStray:      in.IsStray,
		ContactPhone: strings.TrimSpace(in.ContactPhone),
		Status:       StatusSubmitted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if id := strings.TrimSpace(in.ShelterID); id != "" {
		d.ShelterID = &id
	}

	if in.Address != nil && !in.Address.IsEmpty() {
		a, err := s.addresses.ResolveOrFallback(ctx, *in.Address)
		if err != nil {
			return Donation{}, err
		}
		d.AddressID = &a.ID
	}

	// los bytes se guardan antes de la transacción; si algo falla quedan huérfanos
	stored := make([]Photo, 0, len(photos))
	for i, f := range photos {
		p, err := s.blobs.Save(ctx, fmt.Sprintf("donations/%s_%s", uuid.NewString(), blob.SafeName(f.Name)), f.Data)
		if err != nil {
			return Donation{}, fmt.Errorf("store donation photo: %w", err)
		}
		stored = append(stored, Photo{
			ID:         uuid.NewString(),
			DonationID: d.ID,
			Path:       p,
			Position:   i,
			CreatedAt:  now,
		})
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, d); err != nil {
			return err
		}
		for _, p := range stored {
			if err := s.repo.AddPhoto(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Donation{}, err
	}
	return d, nil
}

// Approve crea la mascota a partir de la donación. Es idempotente: si ya
// hay mascota creada la devuelve sin tocar nada. Una foto que no se puede
// copiar se loguea y se saltea; no frena la aprobación.
func (s *Service) Approve(ctx context.Context, reviewer auth.Actor, id, note string) (pets.Pet, error) {
	if !reviewer.IsStaff {
		return pets.Pet{}, ErrForbidden
	}

	d, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return pets.Pet{}, err
	}
	if d.CreatedPetID != nil {
		return s.pets.GetByID(ctx, *d.CreatedPetID)
	}
	if !d.Status.approvable() {
		return pets.Pet{}, fmt.Errorf("%w: donation is %s", ErrBadState, d.Status)
	}

	photos, err := s.repo.ListPhotos(ctx, d.ID)
	if err != nil {
		return pets.Pet{}, err
	}

	var created pets.Pet
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.pets.Register(ctx, pets.Pet{
			OwnerUserID:  d.DonorID,
			Name:         d.Name,
			Species:      d.Species,
			Breed:        d.Breed,
			Sex:          d.Sex,
			AgeYears:     d.AgeYears,
			AgeMonths:    d.AgeMonths,
			Traits:       d.Traits,
			Description:  d.Description,
			ContactPhone: d.ContactPhone,
			AddressID:    d.AddressID,
			ShelterID:    d.ShelterID,
			Status:       pets.StatusAvailable,
		})
		if err != nil {
			return err
		}

		cover, err := s.copyPhotos(ctx, p.ID, photos)
		if err != nil {
			return err
		}
		if cover != "" {
			p.Cover = cover
			if p, err = s.pets.Update(ctx, p); err != nil {
				return err
			}
		}

		ok, err := s.repo.MarkApproved(ctx, d.ID, p.ID, reviewer.UserID, strings.TrimSpace(note), s.now())
		if err != nil {
			return err
		}
		if !ok {
			return errApprovedConcurrently
		}

		if err := s.pets.RecordCreated(ctx, p, pets.Change{
			Type:    events.TypeDonationApproved,
			ActorID: reviewer.UserID,
			RefID:   d.ID,
			Notes:   strings.TrimSpace(note),
		}); err != nil {
			return err
		}

		created = p
		return nil
	})

	if errors.Is(err, errApprovedConcurrently) {
		cur, gerr := s.repo.GetByID(ctx, d.ID)
		if gerr != nil {
			return pets.Pet{}, gerr
		}
		if cur.CreatedPetID == nil {
			return pets.Pet{}, fmt.Errorf("%w: donation is %s", ErrBadState, cur.Status)
		}
		return s.pets.GetByID(ctx, *cur.CreatedPetID)
	}
	if err != nil {
		return pets.Pet{}, err
	}
	return created, nil
}

// copyPhotos copia cada foto de la donación a la mascota respetando el orden.
// La primera foto copiada se guarda además como portada. Solo devuelve
// error si falla la base; los errores de blob se loguean por foto.
func (s *Service) copyPhotos(ctx context.Context, petID string, photos []Photo) (string, error) {
	cover := ""
	for i, ph := range photos {
		fields := map[string]any{"pet_id": petID, "photo": ph.Path, "index": i}

		data, err := s.blobs.Read(ctx, ph.Path)
		if err != nil {
			fields["err"] = err
			s.log.Error("donation photo copy failed", fields)
			continue
		}

		name := blob.SafeName(path.Base(ph.Path))
		dst, err := s.blobs.Save(ctx, fmt.Sprintf("pets/photos/%s_%d_%s", petID, i, name), data)
		if err != nil {
			fields["err"] = err
			s.log.Error("donation photo copy failed", fields)
			continue
		}

		if _, err := s.pets.AddPhoto(ctx, petID, dst, i); err != nil {
			return "", err
		}

		if cover == "" {
			c, err := s.blobs.Save(ctx, fmt.Sprintf("pets/%s_%s", petID, name), data)
			if err != nil {
				fields["err"] = err
				s.log.Error("pet cover copy failed", fields)
				continue
			}
			cover = c
		}
	}
	return cover, nil
}

// StartReview: submitted -> reviewing.
func (s *Service) StartReview(ctx context.Context, reviewer auth.Actor, id string) (Donation, error) {
	return s.transition(ctx, reviewer, id, []Status{StatusSubmitted}, StatusReviewing, "")
}

// Reject no se permite una vez creada la mascota.
func (s *Service) Reject(ctx context.Context, reviewer auth.Actor, id, note string) (Donation, error) {
	return s.transition(ctx, reviewer, id, []Status{StatusSubmitted, StatusReviewing}, StatusRejected, note)
}

func (s *Service) Close(ctx context.Context, reviewer auth.Actor, id string) (Donation, error) {
	return s.transition(ctx, reviewer, id, []Status{StatusSubmitted, StatusReviewing, StatusRejected}, StatusClosed, "")
}

func (s *Service) transition(ctx context.Context, reviewer auth.Actor, id string, from []Status, to Status, note string) (Donation, error) {
	if !reviewer.IsStaff {
		return Donation{}, ErrForbidden
	}

	d, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Donation{}, err
	}
	if d.Status == to {
		return d, nil
	}
	if d.CreatedPetID != nil {
		return Donation{}, fmt.Errorf("%w: donation already produced a pet", ErrBadState)
	}

	ok, err := s.repo.TransitionStatus(ctx, d.ID, from, to, reviewer.UserID, strings.TrimSpace(note), s.now())
	if err != nil {
		return Donation{}, err
	}
	if !ok {
		return Donation{}, fmt.Errorf("%w: cannot move donation from %s to %s", ErrBadState, d.Status, to)
	}
	return s.repo.GetByID(ctx, d.ID)
}

// Get: visible para el donante y staff.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (Donation, []Photo, error) {
	d, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Donation{}, nil, err
	}
	if d.DonorID != actor.UserID && !actor.IsStaff {
		return Donation{}, nil, ErrForbidden
	}
	photos, err := s.repo.ListPhotos(ctx, d.ID)
	if err != nil {
		return Donation{}, nil, err
	}
	return d, photos, nil
}

func (s *Service) ListMine(ctx context.Context, actor auth.Actor) ([]Donation, error) {
	return s.repo.ListByDonor(ctx, actor.UserID)
}

// List es la cola de revisión de staff.
func (s *Service) List(ctx context.Context, actor auth.Actor, filter ListFilter) ([]Donation, error) {
	if !actor.IsStaff {
		return nil, ErrForbidden
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
