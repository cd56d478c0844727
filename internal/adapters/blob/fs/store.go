package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"straypet/internal/ports/blob"
)

// Store guarda archivos bajo Root (MEDIA_ROOT). Los paths que devuelve son
// relativos a Root con separador "/".
type Store struct {
	Root string
}

func New(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("fs blob: empty root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("fs blob: create root: %w", err)
	}
	return &Store{Root: root}, nil
}

func (s *Store) Read(ctx context.Context, p string) ([]byte, error) {
	full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, blob.ErrNotFound
	}
	return b, err
}

// Save no pisa archivos: si el path existe agrega un sufijo corto.
func (s *Store) Save(ctx context.Context, p string, data []byte) (string, error) {
	p = path.Clean(strings.TrimPrefix(p, "/"))
	full, err := s.resolve(p)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("fs blob: mkdir: %w", err)
	}

	for attempt := 0; attempt < 5; attempt++ {
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			p = withSuffix(p, uuid.NewString()[:7])
			full, _ = s.resolve(p)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("fs blob: create: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("fs blob: write: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("fs blob: close: %w", err)
		}
		return p, nil
	}
	return "", fmt.Errorf("fs blob: could not find a free name for %s", p)
}

func (s *Store) resolve(p string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(p))
	if clean == "/" {
		return "", fmt.Errorf("fs blob: invalid path %q", p)
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

// withSuffix: "pets/a.jpg" -> "pets/a_x1y2z3.jpg".
func withSuffix(p, suffix string) string {
	ext := path.Ext(p)
	return strings.TrimSuffix(p, ext) + "_" + suffix + ext
}
