package lost

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"straypet/internal/domain/geo"
	"straypet/internal/middleware"
	"straypet/internal/platform/httpx"
	"straypet/internal/ports/blob"
)

const maxUploadMemory = 16 << 20

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/lost", reportHandler(svc))
	r.Get("/lost", listHandler(svc))
	r.Get("/lost/geo", listGeoHandler(svc))
	r.Get("/lost/{lostID}", getHandler(svc))
	r.Post("/lost/{lostID}/status", statusHandler(svc))
}

type reportRequest struct {
	PetID        string       `json:"pet_id" validate:"omitempty,uuid"`
	PetName      string       `json:"pet_name" validate:"max=80"`
	Species      string       `json:"species" validate:"max=50"`
	Breed        string       `json:"breed" validate:"max=100"`
	Color        string       `json:"color" validate:"max=100"`
	Sex          string       `json:"sex"`
	Size         string       `json:"size" validate:"max=20"`
	LostAt       *time.Time   `json:"lost_at"`
	Description  string       `json:"description" validate:"max=2000"`
	Reward       *float64     `json:"reward" validate:"omitempty,gte=0"`
	ContactPhone string       `json:"contact_phone" validate:"max=50"`
	ContactEmail string       `json:"contact_email" validate:"omitempty,email"`
	Address      *geo.Payload `json:"address"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required" enums:"open,found,closed"`
}

type reportResponse struct {
	ID           string    `json:"id"`
	PetID        *string   `json:"pet_id,omitempty"`
	PetName      string    `json:"pet_name"`
	Species      string    `json:"species"`
	Breed        string    `json:"breed"`
	Color        string    `json:"color"`
	Sex          string    `json:"sex"`
	Size         string    `json:"size"`
	AddressID    *string   `json:"address_id,omitempty"`
	LostAt       time.Time `json:"lost_at"`
	Description  string    `json:"description"`
	Reward       *float64  `json:"reward,omitempty"`
	Photo        string    `json:"photo,omitempty"`
	Status       Status    `json:"status"`
	ReporterID   string    `json:"reporter_id"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type geoResponse struct {
	ID       string     `json:"id"`
	PetID    *string    `json:"pet_id,omitempty"`
	Name     string     `json:"name"`
	Species  string     `json:"species"`
	Status   Status     `json:"status"`
	Photo    string     `json:"photo,omitempty"`
	LostAt   time.Time  `json:"lost_at"`
	City     string     `json:"city,omitempty"`
	Location *geo.Point `json:"location"`
}

// reportHandler godoc
// @Summary Reportar mascota perdida
// @Description Admite usuarios anónimos. Vincula la mascota por pet_id (dueño o staff), por nombre + reporter, o crea una mínima. La mascota queda en lost. Acepta JSON o multipart (campo `payload` + archivo `photo`).
// @Tags lost
// @Accept json,mpfd
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body reportRequest true "Datos del reporte"
// @Success 201 {object} reportResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /lost [post]
func reportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// anónimo permitido: actor vacío
		actor, _ := middleware.Actor(r)

		var req reportRequest
		var photo *blob.File
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
				http.Error(w, "invalid multipart form", http.StatusBadRequest)
				return
			}
			if err := json.Unmarshal([]byte(r.FormValue("payload")), &req); err != nil {
				httpx.Fail(w, httpx.ErrInvalidJSON)
				return
			}
			if err := httpx.Validate(&req); err != nil {
				httpx.Fail(w, err)
				return
			}
			files, err := httpx.ReadImages(r.MultipartForm.File["photo"])
			if err != nil {
				httpx.Fail(w, err)
				return
			}
			if len(files) > 0 {
				photo = &files[0]
			}
		} else if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		in := ReportInput{
			PetID:        req.PetID,
			PetName:      req.PetName,
			Species:      req.Species,
			Breed:        req.Breed,
			Color:        req.Color,
			Sex:          req.Sex,
			Size:         req.Size,
			Description:  req.Description,
			Reward:       req.Reward,
			ContactPhone: req.ContactPhone,
			ContactEmail: req.ContactEmail,
			Address:      req.Address,
		}
		if req.LostAt != nil {
			in.LostAt = *req.LostAt
		}

		rep, err := svc.Report(r.Context(), actor, in, photo)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toReportResponse(rep))
	}
}

// listHandler godoc
// @Summary Listar reportes de pérdida
// @Tags lost
// @Produce json
// @Param status query string false "Lista CSV: open,found,closed"
// @Param species query string false "Especie"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Param offset query int false "Offset"
// @Success 200 {array} reportResponse
// @Failure 400 {string} string "invalid status"
// @Router /lost [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), parseFilter(r))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		out := make([]reportResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toReportResponse(it))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// listGeoHandler godoc
// @Summary Reportes para el mapa
// @Description Solo reportes cuya dirección tiene coordenadas. Punto GeoJSON [lon, lat].
// @Tags lost
// @Produce json
// @Param status query string false "Lista CSV: open,found,closed"
// @Param species query string false "Especie"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Success 200 {array} geoResponse
// @Router /lost/geo [get]
func listGeoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListGeo(r.Context(), parseFilter(r))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		out := make([]geoResponse, 0, len(items))
		for _, it := range items {
			out = append(out, geoResponse{
				ID:       it.ID,
				PetID:    it.PetID,
				Name:     it.DisplayName(),
				Species:  it.Species,
				Status:   it.Status,
				Photo:    it.Photo,
				LostAt:   it.LostAt,
				City:     it.CityName,
				Location: geo.NewPoint(it.Longitude, it.Latitude),
			})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// getHandler godoc
// @Summary Ver un reporte
// @Tags lost
// @Produce json
// @Param lostID path string true "ID del reporte"
// @Success 200 {object} reportResponse
// @Failure 404 {string} string "not found"
// @Router /lost/{lostID} [get]
func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.Get(r.Context(), chi.URLParam(r, "lostID"))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toReportResponse(rep))
	}
}

// statusHandler godoc
// @Summary Cambiar estado del reporte
// @Description found/closed devuelven la mascota a available si sigue lost y no hay otro reporte abierto. Reporter, dueño o staff.
// @Tags lost
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param lostID path string true "ID del reporte"
// @Param payload body statusRequest true "Nuevo estado"
// @Success 200 {object} reportResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "invalid transition"
// @Router /lost/{lostID}/status [post]
func statusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req statusRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, err)
			return
		}

		rep, err := svc.Resolve(r.Context(), actor, chi.URLParam(r, "lostID"), Status(strings.TrimSpace(req.Status)))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toReportResponse(rep))
	}
}

func parseFilter(r *http.Request) ListFilter {
	q := r.URL.Query()
	f := ListFilter{
		Species: q.Get("species"),
		Limit:   httpx.QueryInt(r, "limit", 50),
		Offset:  httpx.QueryInt(r, "offset", 0),
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Statuses = append(f.Statuses, Status(s))
			}
		}
	}
	return f
}

func toReportResponse(r Report) reportResponse {
	return reportResponse{
		ID:           r.ID,
		PetID:        r.PetID,
		PetName:      r.PetName,
		Species:      r.Species,
		Breed:        r.Breed,
		Color:        r.Color,
		Sex:          string(r.Sex),
		Size:         r.Size,
		AddressID:    r.AddressID,
		LostAt:       r.LostAt,
		Description:  r.Description,
		Reward:       r.Reward,
		Photo:        r.Photo,
		Status:       r.Status,
		ReporterID:   r.ReporterID,
		ContactPhone: r.ContactPhone,
		ContactEmail: r.ContactEmail,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
