package periods

import (
	"context"
	"fmt"
	"time"

	"nomina/internal/platform/pagination"
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) List(ctx context.Context, req pagination.Request, filter ListFilter) (pagination.Page[Period], error) {
	req = req.Normalize()
	items, total, err := s.Store.List(ctx, req, filter)
	if err != nil {
		return pagination.Page[Period]{}, err
	}
	return pagination.Page[Period]{Items: items, Meta: pagination.NewMeta(req, total)}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	return s.Store.Get(ctx, id)
}

// Create stores a new period, inactive unless in.Activar is set.
func (s *Service) Create(ctx context.Context, in Input) (Period, error) {
	d, err := Plan(in)
	if err != nil {
		return Period{}, err
	}
	return s.Store.Create(ctx, d, in.Activar)
}

func (s *Service) Active(ctx context.Context) (Period, error) {
	return s.Store.Active(ctx)
}

func (s *Service) HasActive(ctx context.Context) (ActiveState, error) {
	n, err := s.Store.CountActive(ctx)
	if err != nil {
		return ActiveState{}, err
	}
	return ActiveState{Active: n > 0, Count: n}, nil
}

func (s *Service) Activate(ctx context.Context, id int64) (Period, error) {
	return s.Store.Activate(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id int64) (Period, error) {
	return s.Store.Deactivate(ctx, id)
}

func (s *Service) Toggle(ctx context.Context, id int64) (Period, error) {
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return Period{}, err
	}
	if current.Activo {
		return s.Store.Deactivate(ctx, id)
	}
	return s.Store.Activate(ctx, id)
}

func (s *Service) Preview(start *time.Time, rawTipo string) (Preview, error) {
	if start == nil {
		return Preview{}, fmt.Errorf("%w: fechaInicio es requerida", ErrInvalidInput)
	}
	tipo, err := ParseTipo(rawTipo)
	if err != nil {
		return Preview{}, err
	}
	return BuildPreview(*start, tipo), nil
}
