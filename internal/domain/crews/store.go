package crews

import (
	"nomina/internal/domain/activities"
	"nomina/internal/platform/querier"
)

type Store struct {
	DB         querier.DB
	Activities activities.Ensurer
}

func NewStore(db querier.DB, acts activities.Ensurer) *Store {
	return &Store{DB: db, Activities: acts}
}
