package httpx

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"straypet/internal/platform/apperr"
	"straypet/internal/ports/blob"
)

// ReadImages lee archivos de un multipart y rechaza lo que no sea imagen
// (se mira el contenido, no la extensión).
func ReadImages(headers []*multipart.FileHeader) ([]blob.File, error) {
	out := make([]blob.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read %s", apperr.ErrInvalidInput, fh.Filename)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read %s", apperr.ErrInvalidInput, fh.Filename)
		}
		if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
			return nil, fmt.Errorf("%w: %s is not an image (%s)", apperr.ErrInvalidInput, fh.Filename, mt.String())
		}
		out = append(out, blob.File{Name: fh.Filename, Data: data})
	}
	return out, nil
}
