package geo

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"straypet/internal/middleware"
	"straypet/internal/platform/httpx"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/geo", func(gr chi.Router) {
		gr.Get("/countries", listCountriesHandler(svc))
		gr.Get("/countries/{countryID}/regions", listRegionsHandler(svc))
		gr.Get("/regions/{regionID}/cities", listCitiesHandler(svc))

		gr.Post("/addresses", resolveAddressHandler(svc))
		gr.Get("/addresses/{addressID}", getAddressHandler(svc))
	})
}

type countryResponse struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type regionResponse struct {
	ID        int64  `json:"id"`
	CountryID int64  `json:"country_id"`
	Code      string `json:"code,omitempty"`
	Name      string `json:"name"`
}

type cityResponse struct {
	ID       int64  `json:"id"`
	RegionID int64  `json:"region_id"`
	Name     string `json:"name"`
}

// AddressResponse también lo usan otros módulos para embeber la dirección.
type AddressResponse struct {
	ID             string    `json:"id"`
	CountryID      *int64    `json:"country_id,omitempty"`
	CountryCode    string    `json:"country_code,omitempty"`
	CountryName    string    `json:"country_name,omitempty"`
	RegionID       *int64    `json:"region_id,omitempty"`
	RegionName     string    `json:"region_name,omitempty"`
	CityID         *int64    `json:"city_id,omitempty"`
	CityName       string    `json:"city_name,omitempty"`
	Street         string    `json:"street"`
	BuildingNumber string    `json:"building_number"`
	PostalCode     string    `json:"postal_code"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
	Location       *Point    `json:"location,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func ToAddressResponse(d Details) AddressResponse {
	return AddressResponse{
		ID:             d.ID,
		CountryID:      d.CountryID,
		CountryCode:    d.CountryCode,
		CountryName:    d.CountryName,
		RegionID:       d.RegionID,
		RegionName:     d.RegionName,
		CityID:         d.CityID,
		CityName:       d.CityName,
		Street:         d.Street,
		BuildingNumber: d.BuildingNumber,
		PostalCode:     d.PostalCode,
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		Location:       d.Location,
		CreatedAt:      d.CreatedAt,
	}
}

// listCountriesHandler godoc
// @Summary Listar países
// @Tags geo
// @Produce json
// @Success 200 {array} countryResponse
// @Failure 500 {string} string "internal error"
// @Router /geo/countries [get]
func listCountriesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Countries(r.Context())
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		out := make([]countryResponse, 0, len(items))
		for _, c := range items {
			out = append(out, countryResponse{ID: c.ID, Code: c.Code, Name: c.Name})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// listRegionsHandler godoc
// @Summary Listar regiones de un país
// @Tags geo
// @Produce json
// @Param countryID path int true "ID del país"
// @Success 200 {array} regionResponse
// @Failure 400 {string} string "invalid id"
// @Failure 404 {string} string "not found"
// @Router /geo/countries/{countryID}/regions [get]
func listRegionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "countryID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		items, err := svc.Regions(r.Context(), id)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		out := make([]regionResponse, 0, len(items))
		for _, x := range items {
			out = append(out, regionResponse{ID: x.ID, CountryID: x.CountryID, Code: x.Code, Name: x.Name})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// listCitiesHandler godoc
// @Summary Listar ciudades de una región
// @Tags geo
// @Produce json
// @Param regionID path int true "ID de la región"
// @Success 200 {array} cityResponse
// @Failure 400 {string} string "invalid id"
// @Failure 404 {string} string "not found"
// @Router /geo/regions/{regionID}/cities [get]
func listCitiesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "regionID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		items, err := svc.Cities(r.Context(), id)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		out := make([]cityResponse, 0, len(items))
		for _, x := range items {
			out = append(out, cityResponse{ID: x.ID, RegionID: x.RegionID, Name: x.Name})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// resolveAddressHandler godoc
// @Summary Resolver y guardar una dirección
// @Description Resuelve país/región/ciudad (por ID o nombre), completa coordenadas con geocoding si faltan y guarda la dirección. Si la resolución falla se guarda una dirección mínima.
// @Tags geo
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body Payload true "Datos de ubicación"
// @Success 201 {object} AddressResponse
// @Failure 400 {string} string "invalid json / empty address payload"
// @Failure 401 {string} string "unauthorized"
// @Router /geo/addresses [post]
func resolveAddressHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.Actor(r); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var p Payload
		if err := httpx.DecodeJSON(r, &p); err != nil {
			httpx.Fail(w, err)
			return
		}

		a, err := svc.ResolveOrFallback(r.Context(), p)
		if err != nil {
			httpx.Fail(w, err)
			return
		}

		d, err := svc.Describe(r.Context(), a.ID)
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, ToAddressResponse(d))
	}
}

// getAddressHandler godoc
// @Summary Obtener una dirección
// @Tags geo
// @Produce json
// @Param addressID path string true "ID de la dirección"
// @Success 200 {object} AddressResponse
// @Failure 404 {string} string "not found"
// @Router /geo/addresses/{addressID} [get]
func getAddressHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Describe(r.Context(), chi.URLParam(r, "addressID"))
		if err != nil {
			httpx.Fail(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ToAddressResponse(d))
	}
}
