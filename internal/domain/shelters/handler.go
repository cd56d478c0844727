package shelters

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"straypet/internal/domain/geo"
	"straypet/internal/middleware"
	"straypet/internal/platform/httpx"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/shelters", createHandler(svc))
	r.Get("/shelters", listHandler(svc))
	r.Get("/shelters/{shelterID}", getHandler(svc))
	r.Patch("/shelters/{shelterID}", updateHandler(svc))
}

type shelterRequest struct {
	Name           *string      `json:"name" validate:"omitempty,max=150"`
	Description    *string      `json:"description" validate:"omitempty,max=4000"`
	Email          *string      `json:"email" validate:"omitempty,email"`
	Phone          *string      `json:"phone" validate:"omitempty,max=30"`
	Website        *string      `json:"website" validate:"omitempty,url"`
	Capacity       *int         `json:"capacity" validate:"omitempty,gte=0"`
	CurrentAnimals *int         `json:"current_animals" validate:"omitempty,gte=0"`
	FoundedYear    *int         `json:"founded_year"`
	IsActive       *bool        `json:"is_active"`
	IsVerified     *bool        `json:"is_verified"`
	FacebookURL    *string      `json:"facebook_url" validate:"omitempty,url"`
	InstagramURL   *string      `json:"instagram_url" validate:"omitempty,url"`
	TwitterURL     *string      `json:"twitter_url" validate:"omitempty,url"`
	Address        *geo.Payload `json:"address"`
}

func (r shelterRequest) input() Input {
	return Input{
		Name:           r.Name,
		Description:    r.Description,
		Email:          r.Email,
		Phone:          r.Phone,
		Website:        r.Website,
		Capacity:       r.Capacity,
		CurrentAnimals: r.CurrentAnimals,
		FoundedYear:    r.FoundedYear,
		IsActive:       r.IsActive,
		IsVerified:     r.IsVerified,
		FacebookURL:    r.FacebookURL,
		InstagramURL:   r.InstagramURL,
		TwitterURL:     r.TwitterURL,
		Address:        r.Address,
	}
}

type shelterResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Website           string    `json:"website,omitempty"`
	AddressID         *string   `json:"address_id,omitempty"`
	Logo              string    `json:"logo,omitempty"`
	CoverImage        string    `json:"cover_image,omitempty"`
	Capacity          int       `json:"capacity"`
	CurrentAnimals    int       `json:"current_animals"`
	AvailableCapacity int       `json:"available_capacity"`
	OccupancyRate     float64   `json:"occupancy_rate"`
	FoundedYear       *int      `json:"founded_year,omitempty"`
	IsVerified        bool      `json:"is_verified"`
	IsActive          bool      `json:"is_active"`
	FacebookURL       string    `json:"facebook_url,omitempty"`
	InstagramURL      string    `json:"instagram_url,omitempty"`
	TwitterURL        string    `json:"twitter_url,omitempty"`
	CreatedBy         string    `json:"created_by,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// createHandler godoc
// @Summary Crear refugio
// @Tags shelters
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body shelterRequest true "Datos del refugio (name obligatorio)"
// @Success 201 {object} shelterResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {string} string "name already exists"
// @Router /shelters [post]
func createHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req shelterRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		sh, err := svc.Create(r.Context(), actor, req.input())
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toShelterResponse(sh))
	}
}

// listHandler godoc
// @Summary Listar refugios
// @Description Por defecto solo activos. is_active=false lista inactivos, is_active=all todos.
// @Tags shelters
// @Produce json
// @Param is_active query string false "true (default) | false | all"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Param offset query int false "Offset"
// @Success 200 {array} shelterResponse
// @Router /shelters [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{
			Limit:  httpx.QueryInt(r, "limit", 50),
			Offset: httpx.QueryInt(r, "offset", 0),
		}
		active := true
		filter.Active = &active
		if v := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("is_active"))); v == "all" {
			filter.Active = nil
		} else if b, err := strconv.ParseBool(v); err == nil {
			filter.Active = &b
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		out := make([]shelterResponse, 0, len(items))
		for _, sh := range items {
			out = append(out, toShelterResponse(sh))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// getHandler godoc
// @Summary Ver refugio
// @Tags shelters
// @Produce json
// @Param shelterID path string true "ID del refugio"
// @Success 200 {object} shelterResponse
// @Failure 404 {string} string "not found"
// @Router /shelters/{shelterID} [get]
func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sh, err := svc.Get(r.Context(), chi.URLParam(r, "shelterID"))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toShelterResponse(sh))
	}
}

// updateHandler godoc
// @Summary Editar refugio
// @Description Solo los campos enviados. Creador o staff; is_verified solo staff.
// @Tags shelters
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param shelterID path string true "ID del refugio"
// @Param payload body shelterRequest true "Campos a cambiar"
// @Success 200 {object} shelterResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "name already exists"
// @Router /shelters/{shelterID} [patch]
func updateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req shelterRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		sh, err := svc.Update(r.Context(), actor, chi.URLParam(r, "shelterID"), req.input())
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toShelterResponse(sh))
	}
}

func toShelterResponse(s Shelter) shelterResponse {
	return shelterResponse{
		ID:                s.ID,
		Name:              s.Name,
		Description:       s.Description,
		Email:             s.Email,
		Phone:             s.Phone,
		Website:           s.Website,
		AddressID:         s.AddressID,
		Logo:              s.Logo,
		CoverImage:        s.CoverImage,
		Capacity:          s.Capacity,
		CurrentAnimals:    s.CurrentAnimals,
		AvailableCapacity: s.AvailableCapacity(),
		OccupancyRate:     s.OccupancyRate(),
		FoundedYear:       s.FoundedYear,
		IsVerified:        s.IsVerified,
		IsActive:          s.IsActive,
		FacebookURL:       s.FacebookURL,
		InstagramURL:      s.InstagramURL,
		TwitterURL:        s.TwitterURL,
		CreatedBy:         s.CreatedBy,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}
