package activities

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"nomina/internal/domain/clave"
	"nomina/internal/platform/db"
	"nomina/internal/platform/pagination"
	"nomina/internal/platform/querier"
)

const table = "actividades"

var columns = []string{"id", "clave", "nombre", "created_at", "updated_at"}

func scanActivity(row pgx.Row) (Activity, error) {
	var a Activity
	err := row.Scan(&a.ID, &a.Clave, &a.Nombre, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) List(ctx context.Context, req pagination.Request) ([]Activity, int, error) {
	listQ := db.Psql.Select(columns...).From(table).
		OrderBy("clave ASC").
		Limit(uint64(req.Limit())).
		Offset(uint64(req.Offset()))
	countQ := db.Psql.Select("COUNT(1)").From(table)
	if req.Search != "" {
		pattern := db.ContainsPattern(req.Search)
		filter := sq.Or{sq.ILike{"nombre": pattern}, sq.ILike{"clave": pattern}}
		listQ = listQ.Where(filter)
		countQ = countQ.Where(filter)
	}

	query, args, err := countQ.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err = listQ.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (Activity, error) {
	return getActivity(ctx, s.DB, id)
}

func getActivity(ctx context.Context, q querier.Querier, id int64) (Activity, error) {
	query, args, err := db.Psql.Select(columns...).From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return Activity{}, err
	}
	a, err := scanActivity(q.QueryRow(ctx, query, args...))
	if err != nil {
		return Activity{}, mapErr(err)
	}
	return a, nil
}

func (s *Store) Create(ctx context.Context, in Input) (Activity, error) {
	var out Activity
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		var err error
		out, err = create(ctx, tx, in)
		return err
	})
	if err != nil {
		return Activity{}, mapErr(err)
	}
	return out, nil
}

func create(ctx context.Context, tx querier.Querier, in Input) (Activity, error) {
	id, _, err := clave.Assign(ctx, tx, table, in.Clave, func(ctx context.Context, code string) (int64, error) {
		var id int64
		err := tx.QueryRow(ctx, `INSERT INTO actividades (clave, nombre) VALUES ($1, $2) RETURNING id`,
			code, in.Nombre).Scan(&id)
		return id, err
	})
	if err != nil {
		return Activity{}, err
	}
	return getActivity(ctx, tx, id)
}

func (s *Store) Update(ctx context.Context, id int64, in Input) (Activity, error) {
	query, args, err := db.Psql.Update(table).
		Set("clave", in.Clave).
		Set("nombre", in.Nombre).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return Activity{}, err
	}
	a, err := scanActivity(s.DB.QueryRow(ctx, query, args...))
	if err != nil {
		return Activity{}, mapErr(err)
	}
	return a, nil
}

// EnsureByName returns the activity whose name matches nombre ignoring case,
// creating it when missing. tx must be a transaction: the advisory lock taken
// here is released on commit or rollback.
func (s *Store) EnsureByName(ctx context.Context, tx querier.Querier, nombre string) (Activity, error) {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" {
		return Activity{}, ErrInvalidInput
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('actividad:' || lower($1::text)))`, nombre); err != nil {
		return Activity{}, err
	}

	query, args, err := db.Psql.Select(columns...).From(table).
		Where(sq.Expr("lower(nombre) = lower(?::text)", nombre)).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return Activity{}, err
	}
	a, err := scanActivity(tx.QueryRow(ctx, query, args...))
	if err == nil {
		return a, nil
	}
	if !db.IsNoRows(err) {
		return Activity{}, err
	}
	a, err = create(ctx, tx, Input{Nombre: nombre})
	if err != nil {
		return Activity{}, mapErr(err)
	}
	return a, nil
}

func mapErr(err error) error {
	switch {
	case db.IsNoRows(err):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return ErrDuplicateClave
	}
	return err
}
