package application

import "context"

// CommandHandler handles a command that mutates billing state and
// returns a result.
type CommandHandler[C any, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// QueryHandler handles a parameterized read-only query.
type QueryHandler[Q any, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// CatalogHandler serves a catalog listing that takes no parameters.
type CatalogHandler[R any] interface {
	Handle(ctx context.Context) (R, error)
}
