package activities

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

func (s *Service) List(ctx context.Context, req pagination.Request) (pagination.Page[Activity], error) {
	req = req.Normalize()
	items, total, err := s.Store.List(ctx, req)
	if err != nil {
		return pagination.Page[Activity]{}, err
	}
	return pagination.Page[Activity]{Items: items, Meta: pagination.NewMeta(req, total)}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Activity, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Activity, error) {
	in, err := normalize(in)
	if err != nil {
		return Activity{}, err
	}
	return s.Store.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (Activity, error) {
	in, err := normalize(in)
	if err != nil {
		return Activity{}, err
	}
	if in.Clave == "" {
		current, err := s.Store.Get(ctx, id)
		if err != nil {
			return Activity{}, err
		}
		in.Clave = current.Clave
	}
	return s.Store.Update(ctx, id, in)
}

func normalize(in Input) (Input, error) {
	in.Clave = strings.TrimSpace(in.Clave)
	in.Nombre = strings.TrimSpace(in.Nombre)
	if in.Nombre == "" {
		return in, fmt.Errorf("%w: nombre es requerido", ErrInvalidInput)
	}
	return in, nil
}
