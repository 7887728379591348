package domain

import "context"

// TxManager runs a function inside a single store transaction. The context
// passed to fn carries the transaction; repository calls made with it join
// the same atomic unit, so a capacity check and the insert it guards are
// indivisible to concurrent observers.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
