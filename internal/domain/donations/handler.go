package donations

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"straypet/internal/domain/geo"
	"straypet/internal/domain/pets"
	"straypet/internal/middleware"
	"straypet/internal/platform/apperr"
	"straypet/internal/platform/httpx"
	"straypet/internal/ports/blob"
)

const (
	maxUploadMemory = 32 << 20
	maxPhotos       = 10
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/donations", submitHandler(svc))
	r.Get("/donations", listHandler(svc))
	r.Get("/donations/{donationID}", getHandler(svc))

	// Revisión (staff)
	r.Post("/donations/{donationID}/review", startReviewHandler(svc))
	r.Post("/donations/{donationID}/approve", approveHandler(svc))
	r.Post("/donations/{donationID}/reject", rejectHandler(svc))
	r.Post("/donations/{donationID}/close", closeHandler(svc))
}

type submitRequest struct {
	Name         string       `json:"name" validate:"required,max=80"`
	Species      string       `json:"species" validate:"required,max=40"`
	Breed        string       `json:"breed" validate:"max=80"`
	Sex          string       `json:"sex" validate:"omitempty,oneof=male female"`
	AgeYears     int          `json:"age_years" validate:"gte=0,lte=40"`
	AgeMonths    int          `json:"age_months" validate:"gte=0,lte=11"`
	Description  string       `json:"description" validate:"max=2000"`
	Traits       pets.Traits  `json:"traits"`
	IsStray      bool         `json:"is_stray"`
	ContactPhone string       `json:"contact_phone" validate:"max=30"`
	ShelterID    string       `json:"shelter_id" validate:"omitempty,uuid"`
	Address      *geo.Payload `json:"address"`
}

type reviewNoteRequest struct {
	Note string `json:"note" validate:"max=200"`
}

type donationResponse struct {
	ID           string      `json:"id"`
	DonorID      string      `json:"donor_id"`
	Name         string      `json:"name"`
	Species      string      `json:"species"`
	Breed        string      `json:"breed"`
	Sex          pets.Sex    `json:"sex"`
	AgeYears     int         `json:"age_years"`
	AgeMonths    int         `json:"age_months"`
	Description  string      `json:"description"`
	Traits       pets.Traits `json:"traits"`
	IsStray      bool        `json:"is_stray"`
	ContactPhone string      `json:"contact_phone,omitempty"`
	AddressID    *string     `json:"address_id,omitempty"`
	ShelterID    *string     `json:"shelter_id,omitempty"`
	Status       Status      `json:"status"`
	ReviewerID   string      `json:"reviewer_id,omitempty"`
	ReviewNote   string      `json:"review_note,omitempty"`
	CreatedPetID *string     `json:"created_pet_id,omitempty"`
	Photos       []string    `json:"photos,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// submitHandler godoc
// @Summary Ofrecer una mascota en donación
// @Description Acepta JSON o multipart/form-data (campo `payload` con el JSON y archivos `photos`). Solo imágenes.
// @Tags donations
// @Accept json,mpfd
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body submitRequest true "Datos de la mascota propuesta"
// @Success 201 {object} donationResponse
// @Failure 400 {string} string "invalid json / validación / archivo no es imagen"
// @Failure 401 {string} string "unauthorized"
// @Router /donations [post]
func submitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req submitRequest
		var photos []blob.File
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			var err error
			photos, err = readMultipart(r, &req)
			if err != nil {
				httpx.Fail(w, err)
				return
			}
		} else if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		d, err := svc.Submit(r.Context(), actor, SubmitInput{
			Name:         req.Name,
			Species:      req.Species,
			Breed:        req.Breed,
			Sex:          req.Sex,
			AgeYears:     req.AgeYears,
			AgeMonths:    req.AgeMonths,
			Description:  req.Description,
			Traits:       req.Traits,
			IsStray:      req.IsStray,
			ContactPhone: req.ContactPhone,
			ShelterID:    req.ShelterID,
			Address:      req.Address,
		}, photos)
		if err != nil {
			httpx.Fail(w, err)
			return
		}

		_, stored, err := svc.Get(r.Context(), actor, d.ID)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toDonationResponse(d, stored))
	}
}

// readMultipart lee el campo `payload` (JSON) y los archivos `photos`.
func readMultipart(r *http.Request, dst *submitRequest) ([]blob.File, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, fmt.Errorf("%w: invalid multipart form", apperr.ErrInvalidInput)
	}
	if err := json.Unmarshal([]byte(r.FormValue("payload")), dst); err != nil {
		return nil, httpx.ErrInvalidJSON
	}
	if err := httpx.Validate(dst); err != nil {
		return nil, err
	}

	headers := r.MultipartForm.File["photos"]
	if len(headers) > maxPhotos {
		return nil, fmt.Errorf("%w: at most %d photos", apperr.ErrInvalidInput, maxPhotos)
	}
	return httpx.ReadImages(headers)
}

// listHandler godoc
// @Summary Listar donaciones
// @Description Staff ve la cola completa (filtrable por `status`); el resto ve solo las propias.
// @Tags donations
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param status query string false "Lista CSV de estados (solo staff)"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Success 200 {array} donationResponse
// @Failure 401 {string} string "unauthorized"
// @Router /donations [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var (
			items []Donation
			err   error
		)
		if actor.IsStaff {
			filter := ListFilter{Limit: httpx.QueryInt(r, "limit", 50)}
			if v := strings.TrimSpace(r.URL.Query().Get("status")); v != "" {
				for _, s := range strings.Split(v, ",") {
					if s = strings.TrimSpace(s); s != "" {
						filter.Statuses = append(filter.Statuses, Status(s))
					}
				}
			}
			items, err = svc.List(r.Context(), actor, filter)
		} else {
			items, err = svc.ListMine(r.Context(), actor)
		}
		if err != nil {
			httpx.Fail(w, err)
			return
		}

		out := make([]donationResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDonationResponse(d, nil))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// getHandler godoc
// @Summary Ver una donación
// @Tags donations
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param donationID path string true "ID de la donación"
// @Success 200 {object} donationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /donations/{donationID} [get]
func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		d, photos, err := svc.Get(r.Context(), actor, chi.URLParam(r, "donationID"))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toDonationResponse(d, photos))
	}
}

// startReviewHandler godoc
// @Summary Tomar donación para revisión
// @Tags donations
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param donationID path string true "ID de la donación"
// @Success 200 {object} donationResponse
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "invalid state"
// @Router /donations/{donationID}/review [post]
func startReviewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		d, err := svc.StartReview(r.Context(), actor, chi.URLParam(r, "donationID"))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toDonationResponse(d, nil))
	}
}

// approveHandler godoc
// @Summary Aprobar donación
// @Description Crea la mascota (available, dueño = donante), copia las fotos y usa la primera como portada. Idempotente: una segunda llamada devuelve la misma mascota.
// @Tags donations
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param donationID path string true "ID de la donación"
// @Param payload body reviewNoteRequest false "Nota de revisión"
// @Success 200 {object} pets.PetResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "invalid state"
// @Router /donations/{donationID}/approve [post]
func approveHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req reviewNoteRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		p, err := svc.Approve(r.Context(), actor, chi.URLParam(r, "donationID"), req.Note)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, pets.ToPetResponse(p))
	}
}

// rejectHandler godoc
// @Summary Rechazar donación
// @Tags donations
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param donationID path string true "ID de la donación"
// @Param payload body reviewNoteRequest false "Motivo"
// @Success 200 {object} donationResponse
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "invalid state"
// @Router /donations/{donationID}/reject [post]
func rejectHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req reviewNoteRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		d, err := svc.Reject(r.Context(), actor, chi.URLParam(r, "donationID"), req.Note)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toDonationResponse(d, nil))
	}
}

// closeHandler godoc
// @Summary Cerrar donación
// @Tags donations
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param donationID path string true "ID de la donación"
// @Success 200 {object} donationResponse
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "invalid state"
// @Router /donations/{donationID}/close [post]
func closeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		d, err := svc.Close(r.Context(), actor, chi.URLParam(r, "donationID"))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toDonationResponse(d, nil))
	}
}

func toDonationResponse(d Donation, photos []Photo) donationResponse {
	out := donationResponse{
		ID:           d.ID,
		DonorID:      d.DonorID,
		Name:         d.Name,
		Species:      d.Species,
		Breed:        d.Breed,
		Sex:          d.Sex,
		AgeYears:     d.AgeYears,
		AgeMonths:    d.AgeMonths,
		Description:  d.Description,
		Traits:       d.Traits,
		IsStray:      d.IsStray,
		ContactPhone: d.ContactPhone,
		AddressID:    d.AddressID,
		ShelterID:    d.ShelterID,
		Status:       d.Status,
		ReviewerID:   d.ReviewerID,
		ReviewNote:   d.ReviewNote,
		CreatedPetID: d.CreatedPetID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	for _, p := range photos {
		out.Photos = append(out.Photos, p.Path)
	}
	return out
}
