package events

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"straypet/internal/middleware"
	"straypet/internal/platform/apperr"
	"straypet/internal/platform/httpx"
)

// PetOwners resuelve el dueño de una mascota.
// Es una interfaz para no importar pets (pets importa events).
type PetOwners interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, owners PetOwners) {
	r.Get("/pets/{petID}/events", listEventsHandler(svc, owners))
}

// eventResponse es una entrada del timeline devuelta por la API.
type eventResponse struct {
	ID         string    `json:"id"`
	PetID      string    `json:"pet_id"`
	Type       EventType `json:"type"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	RefID      string    `json:"ref_id,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// listEventsHandler godoc
// @Summary Timeline de una mascota
// @Description Lista los cambios de estado de la mascota (adopciones, donación, pérdida). Solo dueño o staff.
// @Tags events
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param limit query int false "Máximo de eventos a devolver (1-200). Por defecto 50"
// @Param types query string false "Lista CSV de tipos (ej: STATUS_CHANGED,REPORTED_LOST)"
// @Param from query string false "occurred_at mínimo (RFC3339)"
// @Param to query string false "occurred_at máximo (RFC3339)"
// @Success 200 {array} eventResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/events [get]
func listEventsHandler(svc *Service, owners PetOwners) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.Actor(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		owner, err := owners.OwnerOf(r.Context(), petID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				http.Error(w, "pet not found", http.StatusNotFound)
				return
			}
			httpx.Fail(w, err)
			return
		}
		if owner != actor.UserID && !actor.IsStaff {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListByPet(r.Context(), petID, filter)
		if err != nil {
			httpx.Fail(w, err)
			return
		}

		out := make([]eventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEventResponse(e))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	filter := ListFilter{Limit: 50}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			filter.Limit = n
		}
	}

	// types=STATUS_CHANGED,REPORTED_LOST
	if v := strings.TrimSpace(r.URL.Query().Get("types")); v != "" {
		for _, p := range strings.Split(v, ",") {
			t := EventType(strings.ToUpper(strings.TrimSpace(p)))
			if t == "" {
				continue
			}
			if !t.Valid() {
				return ListFilter{}, fmt.Errorf("unknown event type %q", t)
			}
			filter.Types = append(filter.Types, t)
		}
	}

	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		v := strings.TrimSpace(r.URL.Query().Get(key))
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, fmt.Errorf("%s must be RFC3339", key)
		}
		*dst = &t
	}

	return filter, nil
}

func toEventResponse(e PetEvent) eventResponse {
	return eventResponse{
		ID:         e.ID,
		PetID:      e.PetID,
		Type:       e.Type,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		ActorID:    e.ActorID,
		RefID:      e.RefID,
		Notes:      e.Notes,
		OccurredAt: e.OccurredAt,
	}
}
