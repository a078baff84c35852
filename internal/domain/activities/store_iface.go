package activities

import (
	"context"

	"nomina/internal/platform/pagination"
	"nomina/internal/platform/querier"
)

type StoreAPI interface {
	List(ctx context.Context, req pagination.Request) ([]Activity, int, error)
	Get(ctx context.Context, id int64) (Activity, error)
	Create(ctx context.Context, in Input) (Activity, error)
	Update(ctx context.Context, id int64, in Input) (Activity, error)
}

// Ensurer resolves an activity name inside a caller-owned transaction.
type Ensurer interface {
	EnsureByName(ctx context.Context, tx querier.Querier, nombre string) (Activity, error)
}

var (
	_ StoreAPI = (*Store)(nil)
	_ Ensurer  = (*Store)(nil)
)
