package fs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"straypet/internal/ports/blob"
)

func TestSaveAndRead(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	p, err := s.Save(ctx, "donations/abc_kot.jpg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "donations/abc_kot.jpg", p)

	got, err := s.Read(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), got)
}

func TestSave_DoesNotOverwrite(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := s.Save(ctx, "pets/p1_kot.jpg", []byte("one"))
	require.NoError(t, err)
	second, err := s.Save(ctx, "pets/p1_kot.jpg", []byte("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Regexp(t, `^pets/p1_kot_[0-9a-f-]{7}\.jpg$`, second)

	b, _ := s.Read(ctx, first)
	assert.Equal(t, []byte("one"), b)
}

func TestRead_MissingAndEscaping(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Read(context.Background(), "nope.jpg")
	assert.True(t, errors.Is(err, blob.ErrNotFound))

	// ../ no sale de Root
	_, err = s.Read(context.Background(), "../../etc/passwd")
	assert.True(t, errors.Is(err, blob.ErrNotFound))
}
