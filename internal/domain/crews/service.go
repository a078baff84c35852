package crews

import (
	"context"
	"fmt"
	"strings"

	"nomina/internal/platform/pagination"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

// List pages crews newest first. The active/inactive counters follow the
// search filter.
func (s *Service) List(ctx context.Context, req pagination.Request) (pagination.Page[Crew], error) {
	req = req.Normalize()
	res, err := s.Store.List(ctx, req)
	if err != nil {
		return pagination.Page[Crew]{}, err
	}
	return pagination.Page[Crew]{
		Items: res.Items,
		Meta:  pagination.NewMeta(req, res.Total).WithStatusCounts(res.Active, res.Inactive),
	}, nil
}

func (s *Service) ListActive(ctx context.Context) ([]Crew, error) {
	return s.Store.ListActive(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Crew, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Crew, error) {
	in, err := normalize(in)
	if err != nil {
		return Crew{}, err
	}
	return s.Store.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (Crew, error) {
	in, err := normalize(in)
	if err != nil {
		return Crew{}, err
	}
	if in.Clave == "" {
		current, err := s.Store.Get(ctx, id)
		if err != nil {
			return Crew{}, err
		}
		in.Clave = current.Clave
	}
	return s.Store.Update(ctx, id, in)
}

func (s *Service) Toggle(ctx context.Context, id int64) (Crew, error) {
	return s.Store.Toggle(ctx, id)
}

func (s *Service) Roster(ctx context.Context, crewID int64) (Roster, error) {
	crew, err := s.Store.Get(ctx, crewID)
	if err != nil {
		return Roster{}, err
	}
	entries, err := s.Store.RosterSnapshot(ctx, crewID)
	if err != nil {
		return Roster{}, err
	}
	roster := PartitionRoster(entries)
	roster.Crew = crew
	return roster, nil
}

// Assign links the employee to the crew. Linking twice is a no-op.
func (s *Service) Assign(ctx context.Context, crewID, employeeID int64) error {
	return s.Store.AddMember(ctx, crewID, employeeID)
}

// Remove unlinks the employee. Removing a missing link is a no-op.
func (s *Service) Remove(ctx context.Context, crewID, employeeID int64) error {
	return s.Store.RemoveMember(ctx, crewID, employeeID)
}

// PartitionRoster splits the snapshot into assigned and available employees,
// keeping the snapshot order on both sides.
func PartitionRoster(entries []RosterEntry) Roster {
	r := Roster{Assigned: []Member{}, Available: []Member{}}
	for _, e := range entries {
		if e.Assigned {
			r.Assigned = append(r.Assigned, e.Member)
		} else {
			r.Available = append(r.Available, e.Member)
		}
	}
	return r
}

func normalize(in Input) (Input, error) {
	in.Clave = strings.TrimSpace(in.Clave)
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Grupo = strings.TrimSpace(in.Grupo)
	in.Actividad = strings.TrimSpace(in.Actividad)
	if in.Nombre == "" {
		return in, fmt.Errorf("%w: nombre es requerido", ErrInvalidInput)
	}
	return in, nil
}
