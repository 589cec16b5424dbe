package common

import "context"

// Transactor runs fn inside a single database transaction, threading a
// context that carries the transactional handle so repository calls
// inside fn participate in it. If fn returns an error the transaction is
// rolled back; otherwise it is committed.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
