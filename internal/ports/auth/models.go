package auth

// AnonymousUserID es el reporter que se usa cuando un reporte de pérdida
// llega sin usuario autenticado.
const AnonymousUserID = "anonymous"

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string

	// IsStaff habilita revisión de donaciones y moderación de mascotas.
	IsStaff bool
}

// Actor es lo que ven los servicios de dominio: quién ejecuta la acción.
type Actor struct {
	UserID  string
	IsStaff bool
}

func (c Claims) Actor() Actor {
	return Actor{UserID: c.UserID, IsStaff: c.IsStaff}
}
