package blob

import (
	"context"
	"errors"
	"path"
	"strings"
)

var ErrNotFound = errors.New("blob not found")

// Store guarda bytes de imágenes (fotos de donaciones, mascotas, reportes).
// Save puede ajustar el path (p.ej. si ya existe) y devuelve el definitivo.
type Store interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Save(ctx context.Context, path string, data []byte) (string, error)
}

// File es un archivo subido por el cliente.
type File struct {
	Name string
	Data []byte
}

// SafeName deja solo el nombre base, sin separadores ni espacios.
func SafeName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 0x20, r == '/', r == ':':
			return -1
		}
		return r
	}, name)
}
