package geocoding

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"straypet/internal/platform/logger"
	"straypet/internal/platform/metrics"
)

const DefaultTTL = 24 * time.Hour

// Service prueba los proveedores en orden (primario, luego secundario)
// y memoiza el resultado por 24h.
type Service struct {
	providers []Provider
	cache     Cache
	ttl       time.Duration
	log       logger.Logger
}

// NewService acepta cache nil (sin memoización). Los proveedores nil se ignoran,
// así main puede pasar el primario sin configurar.
func NewService(cache Cache, log logger.Logger, providers ...Provider) *Service {
	if log == nil {
		log = logger.Nop()
	}
	ps := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return &Service{
		providers: ps,
		cache:     cache,
		ttl:       DefaultTTL,
		log:       log,
	}
}

// Geocode nunca devuelve error: cualquier falla de proveedor o de cache se
// loguea y se traduce en "sin coordenadas".
func (s *Service) Geocode(ctx context.Context, address string, h Hints) (Coordinates, bool) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Coordinates{}, false
	}

	key := CacheKey(address, h)
	if c, ok := s.cacheGet(ctx, key); ok {
		metrics.ObserveGeocode("cache", "cache_hit")
		return c, true
	}

	q := Query{Address: ComposeAddress(address, h), Hints: h}

	for _, p := range s.providers {
		c, ok, err := p.Geocode(ctx, q)
		switch {
		case err != nil:
			metrics.ObserveGeocode(p.Name(), "error")
			s.log.Debug("geocoding provider failed", map[string]any{
				"provider": p.Name(),
				"address":  q.Address,
				"err":      err,
			})
			continue
		case !ok:
			metrics.ObserveGeocode(p.Name(), "miss")
			continue
		}

		metrics.ObserveGeocode(p.Name(), "hit")
		s.cacheSet(ctx, key, c)
		return c, true
	}

	return Coordinates{}, false
}

func (s *Service) cacheGet(ctx context.Context, key string) (Coordinates, bool) {
	if s.cache == nil {
		return Coordinates{}, false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Debug("geocode cache get failed", map[string]any{"key": key, "err": err})
		return Coordinates{}, false
	}
	if !ok {
		return Coordinates{}, false
	}
	var c Coordinates
	if err := json.Unmarshal(raw, &c); err != nil {
		return Coordinates{}, false
	}
	return c, true
}

func (s *Service) cacheSet(ctx context.Context, key string, c Coordinates) {
	if s.cache == nil {
		return
	}
	b, _ := json.Marshal(c)
	if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
		s.log.Debug("geocode cache set failed", map[string]any{"key": key, "err": err})
	}
}
