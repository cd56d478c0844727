package txn

import "context"

// Transactor ejecuta fn dentro de una transacción.
// La transacción viaja en el ctx que recibe fn: los repositorios la toman de ahí.
// Llamadas anidadas se unen a la transacción en curso.
// Si fn devuelve error se hace rollback y se propaga el mismo error.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Direct ejecuta fn sin transacción. Para servicios armados sin store
// transaccional (tests unitarios con fakes).
type Direct struct{}

func (Direct) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
