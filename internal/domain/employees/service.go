package employees

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"nomina/internal/platform/pagination"
)

// MaxAmount is the largest value a NUMERIC(12,2) money column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) List(ctx context.Context, req pagination.Request) (pagination.Page[Employee], error) {
	req = req.Normalize()
	items, total, err := s.Store.List(ctx, req)
	if err != nil {
		return pagination.Page[Employee]{}, err
	}
	counts, err := s.Store.CountByStatus(ctx)
	if err != nil {
		return pagination.Page[Employee]{}, err
	}
	return pagination.Page[Employee]{
		Items: items,
		Meta:  pagination.NewMeta(req, total).WithStatusCounts(counts.Active, counts.Inactive),
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Employee, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Employee, error) {
	in = Normalize(in)
	if err := Validate(in); err != nil {
		return Employee{}, err
	}
	return s.Store.Create(ctx, in)
}

// Update replaces the editable fields. A blank clave keeps the current one.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Employee, error) {
	in = Normalize(in)
	if err := Validate(in); err != nil {
		return Employee{}, err
	}
	if in.Clave == "" {
		current, err := s.Store.Get(ctx, id)
		if err != nil {
			return Employee{}, err
		}
		in.Clave = current.Clave
	}
	return s.Store.Update(ctx, id, in)
}

func (s *Service) Toggle(ctx context.Context, id int64) (Employee, error) {
	return s.Store.Toggle(ctx, id)
}

func (s *Service) Crews(ctx context.Context, id int64) ([]CrewMembership, error) {
	if _, err := s.Store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.Store.Crews(ctx, id)
}

func Validate(in Input) error {
	if in.Nombre == "" {
		return fmt.Errorf("%w: nombre es requerido", ErrInvalidInput)
	}
	if in.SueldoDiario.IsNegative() {
		return fmt.Errorf("%w: sueldoDiario no puede ser negativo", ErrInvalidInput)
	}
	if in.SueldoDiario.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: sueldoDiario excede el máximo permitido", ErrInvalidInput)
	}
	if in.DescuentoInfonavit.IsNegative() {
		return fmt.Errorf("%w: descuentoInfonavit no puede ser negativo", ErrInvalidInput)
	}
	if in.DescuentoInfonavit.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: descuentoInfonavit excede el máximo permitido", ErrInvalidInput)
	}
	return nil
}
