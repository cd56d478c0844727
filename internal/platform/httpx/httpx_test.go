package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"straypet/internal/platform/apperr"
)

type sample struct {
	Name    string `json:"name" validate:"required"`
	Species string `json:"species" validate:"omitempty,max=5"`
}

func TestDecodeJSON_ValidatesStruct(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"species":"dog"}`))
	var s sample
	err := DecodeJSON(r, &s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.Contains(t, err.Error(), "name")
}

func TestDecodeJSON_BadJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	var s sample
	assert.ErrorIs(t, DecodeJSON(r, &s), ErrInvalidJSON)
}

func TestFail_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error\n", rec.Body.String())

	rec = httptest.NewRecorder()
	Fail(rec, apperr.ErrForbidden)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=20&bad=x", nil)
	assert.Equal(t, 20, QueryInt(r, "limit", 50))
	assert.Equal(t, 50, QueryInt(r, "bad", 50))
	assert.Equal(t, 7, QueryInt(r, "missing", 7))
}
