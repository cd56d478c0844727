package memory

import (
	"context"
	"sync"

	"straypet/internal/domain/adoptions"
	"straypet/internal/domain/donations"
	"straypet/internal/domain/events"
	"straypet/internal/domain/fosters"
	"straypet/internal/domain/geo"
	"straypet/internal/domain/lost"
	"straypet/internal/domain/pets"
	"straypet/internal/domain/shelters"
	"straypet/internal/platform/apperr"
)

var (
	ErrNotFound = apperr.ErrNotFound
)

// Store guarda todo en memoria (modo dev y tests).
// Las transacciones se serializan con txMu y el rollback restaura un
// snapshot tomado al empezar. Las escrituras fuera de transacción
// también toman txMu, así un rollback nunca pisa una escritura ajena.
// Las lecturas concurrentes pueden ver datos de una transacción en curso.
type Store struct {
	txMu sync.Mutex

	mu sync.RWMutex
	d  *data
}

type data struct {
	pets      map[string]pets.Pet
	petPhotos map[string][]pets.Photo
	favorites map[string]map[string]pets.Favorite // user -> pet

	events map[string][]events.PetEvent // por pet

	adoptions map[string]adoptions.Adoption

	donations      map[string]donations.Donation
	donationPhotos map[string][]donations.Photo

	reports  map[string]lost.Report
	shelters map[string]shelters.Shelter
	fosters  map[string]fosters.Application

	countries map[int64]geo.Country
	regions   map[int64]geo.Region
	cities    map[int64]geo.City
	addresses map[string]geo.Address
	geoSeq    int64
}

func NewStore() *Store {
	return &Store{d: newData()}
}

func newData() *data {
	return &data{
		pets:           make(map[string]pets.Pet),
		petPhotos:      make(map[string][]pets.Photo),
		favorites:      make(map[string]map[string]pets.Favorite),
		events:         make(map[string][]events.PetEvent),
		adoptions:      make(map[string]adoptions.Adoption),
		donations:      make(map[string]donations.Donation),
		donationPhotos: make(map[string][]donations.Photo),
		reports:        make(map[string]lost.Report),
		shelters:       make(map[string]shelters.Shelter),
		fosters:        make(map[string]fosters.Application),
		countries:      make(map[int64]geo.Country),
		regions:        make(map[int64]geo.Region),
		cities:         make(map[int64]geo.City),
		addresses:      make(map[string]geo.Address),
	}
}

func (d *data) clone() *data {
	c := newData()
	copyMap(c.pets, d.pets)
	copySlices(c.petPhotos, d.petPhotos)
	for u, m := range d.favorites {
		c.favorites[u] = make(map[string]pets.Favorite, len(m))
		copyMap(c.favorites[u], m)
	}
	copySlices(c.events, d.events)
	copyMap(c.adoptions, d.adoptions)
	copyMap(c.donations, d.donations)
	copySlices(c.donationPhotos, d.donationPhotos)
	copyMap(c.reports, d.reports)
	copyMap(c.shelters, d.shelters)
	copyMap(c.fosters, d.fosters)
	copyMap(c.countries, d.countries)
	copyMap(c.regions, d.regions)
	copyMap(c.cities, d.cities)
	copyMap(c.addresses, d.addresses)
	c.geoSeq = d.geoSeq
	return c
}

func copyMap[K comparable, V any](dst, src map[K]V) {
	for k, v := range src {
		dst[k] = v
	}
}

func copySlices[K comparable, V any](dst, src map[K][]V) {
	for k, v := range src {
		dst[k] = append([]V(nil), v...)
	}
}

type txKey struct{ s *Store }

func (s *Store) inTx(ctx context.Context) bool {
	return ctx.Value(txKey{s}) != nil
}

// WithinTx implementa txn.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.d.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{s}, true)); err != nil {
		s.mu.Lock()
		s.d = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) write(ctx context.Context, fn func(d *data) error) error {
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.d)
}

func (s *Store) read(fn func(d *data) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.d)
}

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// inFilter: un filtro vacío deja pasar todo.
func inFilter[T comparable](set []T, v T) bool {
	if len(set) == 0 {
		return true
	}
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}
