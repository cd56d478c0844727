package geo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Reference identifica un país/región/ciudad por ID o por nombre.
// El valor cero significa "no informado".
type Reference struct {
	id   int64
	name string
	byID bool
}

func ByID(id int64) Reference { return Reference{id: id, byID: true} }

func ByName(name string) Reference { return Reference{name: strings.TrimSpace(name)} }

func (r Reference) IsZero() bool { return !r.byID && r.name == "" }

// ID devuelve el ID si la referencia es por ID.
func (r Reference) ID() (int64, bool) { return r.id, r.byID }

// Name devuelve el texto si la referencia es por nombre.
func (r Reference) Name() (string, bool) { return r.name, !r.byID && r.name != "" }

func (r Reference) String() string {
	if r.byID {
		return fmt.Sprintf("#%d", r.id)
	}
	return r.name
}

// UnmarshalJSON acepta número (ID) o string (nombre). null y "" quedan en cero.
// Un string numérico ("12") se toma como nombre.
func (r *Reference) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = Reference{}
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = ByName(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("geo reference must be an id or a name: %w", err)
	}
	id, err := n.Int64()
	if err != nil {
		return fmt.Errorf("geo reference id must be an integer: %w", err)
	}
	*r = ByID(id)
	return nil
}

func (r Reference) MarshalJSON() ([]byte, error) {
	switch {
	case r.byID:
		return json.Marshal(r.id)
	case r.name != "":
		return json.Marshal(r.name)
	default:
		return []byte("null"), nil
	}
}
