package geocoding

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
)

var numberFirst = regexp.MustCompile(`^(\d+[\w/-]*)\s+(.+)$`)

// NormalizeStreet deja la calle en la forma "Nombre Número":
// corta lo que viene después de una coma (depto/piso) y reordena
// "12/16 Kopińska" -> "Kopińska 12/16".
func NormalizeStreet(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ","); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if m := numberFirst.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[2]) + " " + strings.TrimSpace(m[1])
	}
	return s
}

// SimplifyStreet reduce el número de portal a su último token numérico
// ("Kopińska 12/16" -> "Kopińska 16"). Sin "/" devuelve la calle normalizada.
func SimplifyStreet(s string) string {
	s = NormalizeStreet(s)
	if !strings.Contains(s, "/") {
		return s
	}

	fields := strings.Fields(s)
	last := fields[len(fields)-1]
	if !strings.Contains(last, "/") {
		return s
	}

	parts := strings.FieldsFunc(last, func(r rune) bool { return r == '/' })
	num := ""
	for i := len(parts) - 1; i >= 0; i-- {
		if strings.TrimSpace(parts[i]) != "" {
			num = strings.TrimSpace(parts[i])
			break
		}
	}
	name := strings.Join(fields[:len(fields)-1], " ")
	switch {
	case name == "":
		return num
	case num == "":
		return name
	default:
		return name + " " + num
	}
}

// ComposeAddress arma el texto que se manda a los proveedores cuando hay hints:
// calle normalizada, ciudad, código postal, país.
func ComposeAddress(address string, h Hints) string {
	parts := make([]string, 0, 4)
	if v := strings.TrimSpace(h.Street); v != "" {
		parts = append(parts, NormalizeStreet(v))
	}
	for _, v := range []string{h.City, h.PostalCode, h.Country} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(address)
	}
	return strings.Join(parts, ", ")
}

// CacheKey es determinista para (address, hints): json.Marshal ordena las keys
// del map y se omiten los hints vacíos.
func CacheKey(address string, h Hints) string {
	payload := map[string]string{"addr": strings.TrimSpace(address)}
	for k, v := range map[string]string{
		"street":       h.Street,
		"city":         h.City,
		"region":       h.Region,
		"country":      h.Country,
		"country_code": h.CountryCode,
		"postal_code":  h.PostalCode,
	} {
		if v = strings.TrimSpace(v); v != "" {
			payload[k] = v
		}
	}

	b, _ := json.Marshal(payload)
	sum := md5.Sum(append([]byte("geocode"), b...))
	return "gc:" + hex.EncodeToString(sum[:])
}
