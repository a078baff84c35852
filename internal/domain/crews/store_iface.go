package crews

import (
	"context"

	"nomina/internal/platform/pagination"
)

type StoreAPI interface {
	List(ctx context.Context, req pagination.Request) (ListResult, error)
	ListActive(ctx context.Context) ([]Crew, error)
	Get(ctx context.Context, id int64) (Crew, error)
	Create(ctx context.Context, in Input) (Crew, error)
	Update(ctx context.Context, id int64, in Input) (Crew, error)
	Toggle(ctx context.Context, id int64) (Crew, error)
	RosterSnapshot(ctx context.Context, crewID int64) ([]RosterEntry, error)
	AddMember(ctx context.Context, crewID, employeeID int64) error
	RemoveMember(ctx context.Context, crewID, employeeID int64) error
}

var _ StoreAPI = (*Store)(nil)
