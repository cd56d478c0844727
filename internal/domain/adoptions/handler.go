package adoptions

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"straypet/internal/middleware"
	"straypet/internal/platform/httpx"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/pets/{petID}/apply", applyHandler(svc))
	r.Get("/pets/{petID}/applications", listByPetHandler(svc))

	r.Get("/adoptions", listMineHandler(svc))
	r.Get("/adoptions/{adoptionID}", getHandler(svc))
	r.Patch("/adoptions/{adoptionID}", reviewHandler(svc))
}

type applyRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

type reviewRequest struct {
	Status string `json:"status" validate:"required" enums:"processing,approved,rejected,closed"`
}

type adoptionResponse struct {
	ID          string    `json:"id"`
	PetID       string    `json:"pet_id"`
	ApplicantID string    `json:"applicant_id"`
	Message     string    `json:"message"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// applyHandler godoc
// @Summary Solicitar adopción
// @Description Crea una solicitud para la mascota. Si estaba available pasa a pending. No se aceptan solicitudes para mascotas perdidas o no disponibles, ni una segunda solicitud abierta del mismo usuario.
// @Tags adoptions
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param payload body applyRequest false "Mensaje para el dueño"
// @Success 201 {object} adoptionResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "pet is reported lost / not available / already applied"
// @Router /pets/{petID}/apply [post]
func applyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req applyRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		a, err := svc.Apply(r.Context(), actor, chi.URLParam(r, "petID"), req.Message)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toAdoptionResponse(a))
	}
}

// reviewHandler godoc
// @Summary Cambiar estado de una solicitud
// @Description Dueño o staff: processing, approved, rejected, closed. Solicitante: solo closed. Aprobar marca la mascota como adopted y cierra el resto de solicitudes abiertas.
// @Tags adoptions
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param adoptionID path string true "ID de la solicitud"
// @Param payload body reviewRequest true "Nuevo estado"
// @Success 200 {object} adoptionResponse
// @Failure 400 {string} string "unknown status"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "conflict / invalid state"
// @Router /adoptions/{adoptionID} [patch]
func reviewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req reviewRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		status := Status(strings.ToLower(strings.TrimSpace(req.Status)))
		a, err := svc.Review(r.Context(), actor, chi.URLParam(r, "adoptionID"), status)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toAdoptionResponse(a))
	}
}

// getHandler godoc
// @Summary Ver una solicitud
// @Tags adoptions
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param adoptionID path string true "ID de la solicitud"
// @Success 200 {object} adoptionResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /adoptions/{adoptionID} [get]
func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		a, err := svc.Get(r.Context(), actor, chi.URLParam(r, "adoptionID"))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toAdoptionResponse(a))
	}
}

// listMineHandler godoc
// @Summary Mis solicitudes
// @Description Solicitudes hechas por el usuario y las recibidas en sus mascotas.
// @Tags adoptions
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} adoptionResponse
// @Failure 401 {string} string "unauthorized"
// @Router /adoptions [get]
func listMineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListForUser(r.Context(), actor)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		writeAdoptions(w, items)
	}
}

// listByPetHandler godoc
// @Summary Solicitudes de una mascota
// @Tags adoptions
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} adoptionResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /pets/{petID}/applications [get]
func listByPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListByPet(r.Context(), actor, chi.URLParam(r, "petID"))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		writeAdoptions(w, items)
	}
}

func writeAdoptions(w http.ResponseWriter, items []Adoption) {
	out := make([]adoptionResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toAdoptionResponse(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func toAdoptionResponse(a Adoption) adoptionResponse {
	return adoptionResponse{
		ID:          a.ID,
		PetID:       a.PetID,
		ApplicantID: a.ApplicantID,
		Message:     a.Message,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
