// Package app arma los servicios de dominio sobre un conjunto de repositorios.
// Lo usan el router (y por lo tanto main) y los tests de escenarios.
package app

import (
	mem "straypet/internal/adapters/storage/memory"
	pg "straypet/internal/adapters/storage/postgres"
	"straypet/internal/domain/adoptions"
	"straypet/internal/domain/donations"
	"straypet/internal/domain/events"
	"straypet/internal/domain/fosters"
	"straypet/internal/domain/geo"
	"straypet/internal/domain/lost"
	"straypet/internal/domain/pets"
	"straypet/internal/domain/shelters"
	"straypet/internal/platform/logger"
	"straypet/internal/ports/blob"
	"straypet/internal/ports/txn"
)

// Storage son los repositorios de un backend (memoria o Postgres) más su Transactor.
type Storage struct {
	Geo       geo.Repository
	Events    events.Repository
	Pets      pets.Repository
	Photos    pets.PhotoRepository
	Favorites pets.FavoriteRepository
	Adoptions adoptions.Repository
	Donations donations.Repository
	Lost      lost.Repository
	Shelters  shelters.Repository
	Fosters   fosters.Repository
	Tx        txn.Transactor
}

// MemoryStorage usa un único store para que las transacciones cubran todo.
func MemoryStorage(s *mem.Store) Storage {
	petsRepo := s.Pets()
	return Storage{
		Geo:       s.Geo(),
		Events:    s.Events(),
		Pets:      petsRepo,
		Photos:    petsRepo,
		Favorites: petsRepo,
		Adoptions: s.Adoptions(),
		Donations: s.Donations(),
		Lost:      s.Lost(),
		Shelters:  s.Shelters(),
		Fosters:   s.Fosters(),
		Tx:        s,
	}
}

// PostgresStorage arma los repositorios sobre un pool; las transacciones
// viajan en el ctx.
func PostgresStorage(db *pg.DB) Storage {
	petsRepo := pg.NewPetsRepo(db)
	return Storage{
		Geo:       pg.NewGeoRepo(db),
		Events:    pg.NewEventsRepo(db),
		Pets:      petsRepo,
		Photos:    petsRepo,
		Favorites: petsRepo,
		Adoptions: pg.NewAdoptionsRepo(db),
		Donations: pg.NewDonationsRepo(db),
		Lost:      pg.NewLostRepo(db),
		Shelters:  pg.NewSheltersRepo(db),
		Fosters:   pg.NewFostersRepo(db),
		Tx:        db,
	}
}

type Services struct {
	Geo       *geo.Service
	Events    *events.Service
	Pets      *pets.Service
	Adoptions *adoptions.Service
	Donations *donations.Service
	Lost      *lost.Service
	Shelters  *shelters.Service
	Fosters   *fosters.Service
}

// NewServices acepta geocoder nil (direcciones sin geocodificar).
func NewServices(st Storage, geocoder geo.Geocoder, blobs blob.Store, log logger.Logger) Services {
	if log == nil {
		log = logger.Nop()
	}

	geoSvc := geo.NewService(st.Geo, geocoder, log.With(map[string]any{"module": "geo"}))
	eventsSvc := events.NewService(st.Events)
	petsSvc := pets.NewService(pets.Deps{
		Pets:      st.Pets,
		Photos:    st.Photos,
		Favorites: st.Favorites,
		Timeline:  eventsSvc,
		Addresses: geoSvc,
		Tx:        st.Tx,
	})

	return Services{
		Geo:       geoSvc,
		Events:    eventsSvc,
		Pets:      petsSvc,
		Adoptions: adoptions.NewService(st.Adoptions, petsSvc, st.Tx),
		Donations: donations.NewService(donations.Deps{
			Donations: st.Donations,
			Pets:      petsSvc,
			Blobs:     blobs,
			Addresses: geoSvc,
			Tx:        st.Tx,
			Log:       log.With(map[string]any{"module": "donations"}),
		}),
		Lost: lost.NewService(lost.Deps{
			Reports:   st.Lost,
			Pets:      petsSvc,
			Blobs:     blobs,
			Addresses: geoSvc,
			Tx:        st.Tx,
			Log:       log.With(map[string]any{"module": "lost"}),
		}),
		Shelters: shelters.NewService(st.Shelters, geoSvc),
		Fosters:  fosters.NewService(st.Fosters, geoSvc),
	}
}
