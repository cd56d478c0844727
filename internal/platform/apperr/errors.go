package apperr

import (
	"errors"
	"net/http"
)

// Sentinels compartidos por todos los módulos de dominio.
// Cada paquete los re-exporta con su propio nombre y agrega los suyos
// envolviendo alguno de estos, así los handlers mapean con errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrBadState     = errors.New("invalid state")
)

// Status traduce un error de dominio a código HTTP.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrBadState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
