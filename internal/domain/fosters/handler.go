package fosters

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
	r.Post("/fosters", applyHandler(svc))
	r.Get("/fosters", listHandler(svc))
	r.Get("/fosters/{applicationID}", getHandler(svc))
	r.Patch("/fosters/{applicationID}", updateHandler(svc))
	r.Post("/fosters/{applicationID}/approve", approveHandler(svc))
	r.Post("/fosters/{applicationID}/reject", rejectHandler(svc))

	r.Get("/users/{userID}/foster", approvedForUserHandler(svc))
}

type applicationRequest struct {
	FullName       *string      `json:"full_name" validate:"omitempty,max=255"`
	Email          *string      `json:"email" validate:"omitempty,email"`
	Phone          *string      `json:"phone" validate:"omitempty,max=20"`
	Address        *geo.Payload `json:"address"`
	PetCount       *int         `json:"pet_count" validate:"omitempty,gte=0"`
	CanTakeDogs    *bool        `json:"can_take_dogs"`
	CanTakeCats    *bool        `json:"can_take_cats"`
	CanTakeRabbits *bool        `json:"can_take_rabbits"`
	CanTakeOthers  *string      `json:"can_take_others" validate:"omitempty,max=255"`
	Motivation     *string      `json:"motivation" validate:"omitempty,max=4000"`
	Introduction   *string      `json:"introduction" validate:"omitempty,max=4000"`
	TermsAgreed    *bool        `json:"terms_agreed"`
}

func (r applicationRequest) input() Input {
	return Input{
		FullName:       r.FullName,
		Email:          r.Email,
		Phone:          r.Phone,
		Address:        r.Address,
		PetCount:       r.PetCount,
		CanTakeDogs:    r.CanTakeDogs,
		CanTakeCats:    r.CanTakeCats,
		CanTakeRabbits: r.CanTakeRabbits,
		CanTakeOthers:  r.CanTakeOthers,
		Motivation:     r.Motivation,
		Introduction:   r.Introduction,
		TermsAgreed:    r.TermsAgreed,
	}
}

type reviewRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type applicationResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	AddressID      *string    `json:"address_id,omitempty"`
	PetCount       int        `json:"pet_count"`
	CanTakeDogs    bool       `json:"can_take_dogs"`
	CanTakeCats    bool       `json:"can_take_cats"`
	CanTakeRabbits bool       `json:"can_take_rabbits"`
	CanTakeOthers  string     `json:"can_take_others,omitempty"`
	Motivation     string     `json:"motivation"`
	Introduction   string     `json:"introduction,omitempty"`
	TermsAgreed    bool       `json:"terms_agreed"`
	Status         Status     `json:"status"`
	ReviewerID     string     `json:"reviewer_id,omitempty"`
	ReviewNote     string     `json:"review_note,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// publicProfile es lo que ve cualquier usuario de una familia aprobada:
// sin email, teléfono ni dirección.
type publicProfile struct {
	UserID         string `json:"user_id"`
	FullName       string `json:"full_name"`
	PetCount       int    `json:"pet_count"`
	CanTakeDogs    bool   `json:"can_take_dogs"`
	CanTakeCats    bool   `json:"can_take_cats"`
	CanTakeRabbits bool   `json:"can_take_rabbits"`
	CanTakeOthers  string `json:"can_take_others,omitempty"`
	Introduction   string `json:"introduction,omitempty"`
}

// applyHandler godoc
// @Summary Postularse como familia de acogida
// @Description Crea la postulación en pending. full_name, email, phone, motivation y terms_agreed=true son obligatorios. Solo una pendiente por usuario.
// @Tags fosters
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body applicationRequest true "Datos de la postulación"
// @Success 201 {object} applicationResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {string} string "a pending application already exists"
// @Router /fosters [post]
func applyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req applicationRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		a, err := svc.Apply(r.Context(), actor, req.input())
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toApplicationResponse(a))
	}
}

// listHandler godoc
// @Summary Listar postulaciones
// @Description Staff ve todas; el resto solo las propias.
// @Tags fosters
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param status query string false "pending, approved o rejected (separados por coma)"
// @Param limit query int false "default 50"
// @Param offset query int false "default 0"
// @Success 200 {array} applicationResponse
// @Failure 400 {string} string "unknown status"
// @Failure 401 {string} string "unauthorized"
// @Router /fosters [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		f := ListFilter{
			Limit:  httpx.QueryInt(r, "limit", 50),
			Offset: httpx.QueryInt(r, "offset", 0),
		}
		for _, v := range strings.Split(r.URL.Query().Get("status"), ",") {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				f.Statuses = append(f.Statuses, Status(v))
			}
		}

		items, err := svc.List(r.Context(), actor, f)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		out := make([]applicationResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toApplicationResponse(a))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// getHandler godoc
// @Summary Ver una postulación
// @Tags fosters
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param applicationID path string true "ID de la postulación"
// @Success 200 {object} applicationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /fosters/{applicationID} [get]
func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		a, err := svc.Get(r.Context(), actor, chi.URLParam(r, "applicationID"))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toApplicationResponse(a))
	}
}

// updateHandler godoc
// @Summary Editar una postulación
// @Description Postulante o staff. Ya aprobada, el postulante solo puede cambiar phone, address, motivation e introduction.
// @Tags fosters
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param applicationID path string true "ID de la postulación"
// @Param payload body applicationRequest true "Campos a cambiar"
// @Success 200 {object} applicationResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /fosters/{applicationID} [patch]
func updateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req applicationRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		a, err := svc.Update(r.Context(), actor, chi.URLParam(r, "applicationID"), req.input())
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toApplicationResponse(a))
	}
}

// approveHandler godoc
// @Summary Aprobar postulación (staff)
// @Tags fosters
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Staff header string false "Solo en modo dev, true = staff"
// @Param Authorization header string false "Bearer token en producción"
// @Param applicationID path string true "ID de la postulación"
// @Param payload body reviewRequest false "Nota de revisión"
// @Success 200 {object} applicationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "application already rejected"
// @Router /fosters/{applicationID}/approve [post]
func approveHandler(svc *Service) http.HandlerFunc {
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

		a, err := svc.Approve(r.Context(), actor, chi.URLParam(r, "applicationID"), req.Note)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toApplicationResponse(a))
	}
}

// rejectHandler godoc
// @Summary Rechazar postulación (staff)
// @Tags fosters
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Staff header string false "Solo en modo dev, true = staff"
// @Param Authorization header string false "Bearer token en producción"
// @Param applicationID path string true "ID de la postulación"
// @Param payload body rejectRequest true "Motivo del rechazo"
// @Success 200 {object} applicationResponse
// @Failure 400 {string} string "reason required"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "application already approved"
// @Router /fosters/{applicationID}/reject [post]
func rejectHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req rejectRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		a, err := svc.Reject(r.Context(), actor, chi.URLParam(r, "applicationID"), req.Reason)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toApplicationResponse(a))
	}
}

// approvedForUserHandler godoc
// @Summary Perfil de familia de acogida de un usuario
// @Description Devuelve la postulación aprobada, sin datos de contacto.
// @Tags fosters
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param userID path string true "ID del usuario"
// @Success 200 {object} publicProfile
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /users/{userID}/foster [get]
func approvedForUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.Actor(r); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		a, err := svc.ApprovedFor(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, publicProfile{
			UserID:         a.UserID,
			FullName:       a.FullName,
			PetCount:       a.PetCount,
			CanTakeDogs:    a.CanTakeDogs,
			CanTakeCats:    a.CanTakeCats,
			CanTakeRabbits: a.CanTakeRabbits,
			CanTakeOthers:  a.CanTakeOthers,
			Introduction:   a.Introduction,
		})
	}
}

func toApplicationResponse(a Application) applicationResponse {
	return applicationResponse{
		ID:             a.ID,
		UserID:         a.UserID,
		FullName:       a.FullName,
		Email:          a.Email,
		Phone:          a.Phone,
		AddressID:      a.AddressID,
		PetCount:       a.PetCount,
		CanTakeDogs:    a.CanTakeDogs,
		CanTakeCats:    a.CanTakeCats,
		CanTakeRabbits: a.CanTakeRabbits,
		CanTakeOthers:  a.CanTakeOthers,
		Motivation:     a.Motivation,
		Introduction:   a.Introduction,
		TermsAgreed:    a.TermsAgreed,
		Status:         a.Status,
		ReviewerID:     a.ReviewerID,
		ReviewNote:     a.ReviewNote,
		ReviewedAt:     a.ReviewedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
