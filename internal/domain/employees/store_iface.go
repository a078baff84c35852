package employees

import (
	"context"

	"nomina/internal/platform/pagination"
)

type StoreAPI interface {
	List(ctx context.Context, req pagination.Request) ([]Employee, int, error)
	CountByStatus(ctx context.Context) (StatusCounts, error)
	Get(ctx context.Context, id int64) (Employee, error)
	Create(ctx context.Context, in Input) (Employee, error)
	Update(ctx context.Context, id int64, in Input) (Employee, error)
	Toggle(ctx context.Context, id int64) (Employee, error)
	Crews(ctx context.Context, id int64) ([]CrewMembership, error)
}

var _ StoreAPI = (*Store)(nil)
