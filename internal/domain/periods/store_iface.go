package periods

import (
	"context"

	"nomina/internal/platform/pagination"
)

type StoreAPI interface {
	List(ctx context.Context, req pagination.Request, filter ListFilter) ([]Period, int, error)
	Get(ctx context.Context, id int64) (Period, error)
	Create(ctx context.Context, d Draft, activate bool) (Period, error)
	Active(ctx context.Context) (Period, error)
	CountActive(ctx context.Context) (int, error)
	Activate(ctx context.Context, id int64) (Period, error)
	Deactivate(ctx context.Context, id int64) (Period, error)
}

var _ StoreAPI = (*Store)(nil)
