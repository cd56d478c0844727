package pets

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"straypet/internal/domain/geo"
	"straypet/internal/middleware"
	"straypet/internal/platform/httpx"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/pets", createPetHandler(svc))
	r.Get("/pets", listPetsHandler(svc))
	r.Get("/pets/{petID}", getPetHandler(svc))

	// Acciones explícitas de dueño/staff sobre el estado
	r.Post("/pets/{petID}/status", setStatusHandler(svc))
	r.Post("/pets/{petID}/mark-lost", markLostHandler(svc))

	r.Get("/pets/{petID}/photos", listPhotosHandler(svc))

	r.Post("/pets/{petID}/favorite", addFavoriteHandler(svc))
	r.Delete("/pets/{petID}/favorite", removeFavoriteHandler(svc))

	r.Get("/me/pets", listMyPetsHandler(svc))
	r.Get("/me/favorites", listFavoritesHandler(svc))
}

type createPetRequest struct {
	Name         string       `json:"name" validate:"required,max=80"`
	Species      string       `json:"species" validate:"required,max=40"`
	Breed        string       `json:"breed" validate:"max=80"`
	Sex          string       `json:"sex" validate:"omitempty,oneof=male female"`
	AgeYears     int          `json:"age_years" validate:"gte=0,lte=40"`
	AgeMonths    int          `json:"age_months" validate:"gte=0,lte=11"`
	Size         string       `json:"size" validate:"omitempty,oneof=small medium large xlarge"`
	Traits       Traits       `json:"traits"`
	Description  string       `json:"description" validate:"max=300"`
	ContactPhone string       `json:"contact_phone" validate:"max=30"`
	ShelterID    string       `json:"shelter_id" validate:"omitempty,uuid"`
	Status       string       `json:"status" validate:"omitempty,oneof=draft available"`
	Address      *geo.Payload `json:"address"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PetResponse lo reutilizan donations/lost al devolver la mascota creada.
type PetResponse struct {
	ID           string    `json:"id"`
	OwnerUserID  string    `json:"owner_user_id"`
	Name         string    `json:"name"`
	Species      string    `json:"species"`
	Breed        string    `json:"breed"`
	Sex          Sex       `json:"sex"`
	AgeYears     int       `json:"age_years"`
	AgeMonths    int       `json:"age_months"`
	Size         string    `json:"size"`
	Traits       Traits    `json:"traits"`
	Description  string    `json:"description"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	AddressID    *string   `json:"address_id,omitempty"`
	ShelterID    *string   `json:"shelter_id,omitempty"`
	Cover        string    `json:"cover,omitempty"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type photoResponse struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Order int    `json:"order"`
}

// createPetHandler godoc
// @Summary Publicar mascota
// @Description Crea una mascota del usuario autenticado. Estado inicial available (o draft). Si viene address se resuelve país/región/ciudad y coordenadas.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createPetRequest true "Datos de la mascota"
// @Success 201 {object} PetResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		p, err := svc.Create(r.Context(), actor, CreateInput{
			Name:         req.Name,
			Species:      req.Species,
			Breed:        req.Breed,
			Sex:          req.Sex,
			AgeYears:     req.AgeYears,
			AgeMonths:    req.AgeMonths,
			Size:         req.Size,
			Traits:       req.Traits,
			Description:  req.Description,
			ContactPhone: req.ContactPhone,
			ShelterID:    req.ShelterID,
			Status:       req.Status,
			Address:      req.Address,
		})
		if err != nil {
			httpx.Fail(w, err)
			return
		}

		httpx.WriteJSON(w, http.StatusCreated, ToPetResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Listar mascotas
// @Description Listado público. Sin `status` devuelve solo available y pending.
// @Tags pets
// @Produce json
// @Param species query string false "Especie (dog, cat, ...)"
// @Param status query string false "Lista CSV de estados"
// @Param shelter_id query string false "ID del refugio"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Param offset query int false "Desplazamiento"
// @Success 200 {array} PetResponse
// @Failure 400 {string} string "unknown status"
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := ListFilter{
			Species:   strings.ToLower(strings.TrimSpace(q.Get("species"))),
			ShelterID: strings.TrimSpace(q.Get("shelter_id")),
			Limit:     httpx.QueryInt(r, "limit", 50),
			Offset:    httpx.QueryInt(r, "offset", 0),
		}
		if v := strings.TrimSpace(q.Get("status")); v != "" {
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					filter.Statuses = append(filter.Statuses, Status(s))
				}
			}
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		writePets(w, items)
	}
}

// getPetHandler godoc
// @Summary Perfil de mascota
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} PetResponse
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ToPetResponse(p))
	}
}

// setStatusHandler godoc
// @Summary Cambiar estado de la mascota
// @Description Solo dueño o staff. El mismo estado es un no-op.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param payload body setStatusRequest true "Nuevo estado"
// @Success 200 {object} PetResponse
// @Failure 400 {string} string "unknown status"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "conflict"
// @Router /pets/{petID}/status [post]
func setStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req setStatusRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		p, err := svc.SetStatus(r.Context(), actor, chi.URLParam(r, "petID"), Status(strings.TrimSpace(req.Status)))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ToPetResponse(p))
	}
}

// markLostHandler godoc
// @Summary Marcar mascota como perdida
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} PetResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/mark-lost [post]
func markLostHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.MarkLost(r.Context(), actor, chi.URLParam(r, "petID"))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ToPetResponse(p))
	}
}

// listPhotosHandler godoc
// @Summary Fotos de la mascota
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} photoResponse
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/photos [get]
func listPhotosHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListPhotos(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		out := make([]photoResponse, 0, len(items))
		for _, ph := range items {
			out = append(out, photoResponse{ID: ph.ID, Path: ph.Path, Order: ph.Order})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// addFavoriteHandler godoc
// @Summary Agregar a favoritos
// @Tags pets
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/favorite [post]
func addFavoriteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := svc.AddFavorite(r.Context(), actor, chi.URLParam(r, "petID")); err != nil {
			httpx.Fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// removeFavoriteHandler godoc
// @Summary Quitar de favoritos
// @Tags pets
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Router /pets/{petID}/favorite [delete]
func removeFavoriteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := svc.RemoveFavorite(r.Context(), actor, chi.URLParam(r, "petID")); err != nil {
			httpx.Fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// listMyPetsHandler godoc
// @Summary Mis mascotas
// @Description Todas las mascotas del usuario, en cualquier estado.
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} PetResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/pets [get]
func listMyPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListByOwner(r.Context(), actor.UserID)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		writePets(w, items)
	}
}

// listFavoritesHandler godoc
// @Summary Mis favoritos
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} PetResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me/favorites [get]
func listFavoritesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListFavorites(r.Context(), actor)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		writePets(w, items)
	}
}

func writePets(w http.ResponseWriter, items []Pet) {
	out := make([]PetResponse, 0, len(items))
	for _, p := range items {
		out = append(out, ToPetResponse(p))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func ToPetResponse(p Pet) PetResponse {
	return PetResponse{
		ID:           p.ID,
		OwnerUserID:  p.OwnerUserID,
		Name:         p.Name,
		Species:      p.Species,
		Breed:        p.Breed,
		Sex:          p.Sex,
		AgeYears:     p.AgeYears,
		AgeMonths:    p.AgeMonths,
		Size:         p.Size,
		Traits:       p.Traits,
		Description:  p.Description,
		ContactPhone: p.ContactPhone,
		AddressID:    p.AddressID,
		ShelterID:    p.ShelterID,
		Cover:        p.Cover,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
