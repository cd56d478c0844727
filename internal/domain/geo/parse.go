package geo

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseOptionalFloat interpreta una coordenada que llega sin tipo
// (número JSON, string, nil). Lo que no es un número finito se descarta.
func ParseOptionalFloat(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		// coma decimal ("52,23") es común en formularios
		n, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return 0, false
		}
		f = n
	case *float64:
		if v == nil {
			return 0, false
		}
		f = *v
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseLatitude(raw any) (float64, bool) {
	f, ok := ParseOptionalFloat(raw)
	if !ok || f < -90 || f > 90 {
		return 0, false
	}
	return f, true
}

func parseLongitude(raw any) (float64, bool) {
	f, ok := ParseOptionalFloat(raw)
	if !ok || f < -180 || f > 180 {
		return 0, false
	}
	return f, true
}
