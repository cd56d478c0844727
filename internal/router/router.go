package router

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "straypet/docs"
	fsblob "straypet/internal/adapters/blob/fs"
	mem "straypet/internal/adapters/storage/memory"
	"straypet/internal/app"
	"straypet/internal/domain/adoptions"
	"straypet/internal/domain/donations"
	"straypet/internal/domain/events"
	"straypet/internal/domain/fosters"
	"straypet/internal/domain/geo"
	"straypet/internal/domain/lost"
	"straypet/internal/domain/pets"
	"straypet/internal/domain/shelters"
	"straypet/internal/middleware"
	"straypet/internal/platform/logger"
	"straypet/internal/platform/metrics"
	"straypet/internal/ports/auth"
	"straypet/internal/ports/blob"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si no viene, todo en memoria.
	Storage *app.Storage

	// Geocoder nil = direcciones sin coordenadas.
	Geocoder geo.Geocoder

	// Blobs nil = filesystem bajo el tmp del sistema.
	Blobs blob.Store

	Log logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.Instrument)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	st := app.MemoryStorage(mem.NewStore())
	if opts.Storage != nil {
		st = *opts.Storage
	}

	blobs := opts.Blobs
	if blobs == nil {
		fsStore, err := fsblob.New(filepath.Join(os.TempDir(), "straypet-media"))
		if err != nil {
			log.Error("media dir unavailable, uploads will fail", map[string]any{"err": err.Error()})
		} else {
			blobs = fsStore
		}
	}

	// Services por módulo
	svcs := app.NewServices(st, opts.Geocoder, blobs, log)

	// Rutas por módulo
	geo.RegisterRoutes(r, svcs.Geo)
	pets.RegisterRoutes(r, svcs.Pets)
	events.RegisterRoutes(r, svcs.Events, svcs.Pets)
	adoptions.RegisterRoutes(r, svcs.Adoptions)
	donations.RegisterRoutes(r, svcs.Donations)
	lost.RegisterRoutes(r, svcs.Lost)
	shelters.RegisterRoutes(r, svcs.Shelters)
	fosters.RegisterRoutes(r, svcs.Fosters)

	return r
}
