package periods

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"nomina/internal/platform/db"
	"nomina/internal/platform/pagination"
	"nomina/internal/platform/querier"
)

const table = "periodos"

// activationLock serializes every change to the active flag.
const activationLock = "periodos:activo"

var columns = []string{
	"id", "clave", "fecha_inicio", "fecha_fin", "fecha_pago", "total_dias", "anio",
	"tipo_periodo", "activo", "created_at",
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Clave, &p.FechaInicio, &p.FechaFin, &p.FechaPago, &p.TotalDias,
		&p.Anio, &p.TipoPeriodo, &p.Activo, &p.CreatedAt)
	return p, err
}

func (s *Store) List(ctx context.Context, req pagination.Request, filter ListFilter) ([]Period, int, error) {
	listQ := db.Psql.Select(columns...).From(table).
		OrderBy("fecha_inicio DESC", "id DESC").
		Limit(uint64(req.Limit())).
		Offset(uint64(req.Offset()))
	countQ := db.Psql.Select("COUNT(1)").From(table)
	if filter.Anio != nil {
		listQ = listQ.Where(sq.Eq{"anio": *filter.Anio})
		countQ = countQ.Where(sq.Eq{"anio": *filter.Anio})
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

	out := []Period{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (Period, error) {
	p, err := getPeriod(ctx, s.DB, sq.Eq{"id": id})
	if err != nil {
		return Period{}, mapErr(err)
	}
	return p, nil
}

func getPeriod(ctx context.Context, q querier.Querier, where sq.Sqlizer) (Period, error) {
	query, args, err := db.Psql.Select(columns...).From(table).Where(where).ToSql()
	if err != nil {
		return Period{}, err
	}
	return scanPeriod(q.QueryRow(ctx, query, args...))
}

// Create numbers the period within its year. The per-year advisory lock keeps
// concurrent creates from reading the same count.
func (s *Store) Create(ctx context.Context, d Draft, activate bool) (Period, error) {
	var out Period
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('periodo:' || $1::int::text))`, d.Anio); err != nil {
			return err
		}
		var existing int
		if err := tx.QueryRow(ctx, `SELECT COUNT(1) FROM periodos WHERE anio = $1`, d.Anio).Scan(&existing); err != nil {
			return err
		}
		if activate {
			if err := deactivateAll(ctx, tx); err != nil {
				return err
			}
		}

		var id int64
		err := tx.QueryRow(ctx, `
      INSERT INTO periodos (clave, fecha_inicio, fecha_fin, fecha_pago, total_dias, anio, tipo_periodo, activo)
      VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
      RETURNING id
    `, Code(d.Anio, existing), d.FechaInicio, d.FechaFin, d.FechaPago, d.TotalDias, d.Anio,
			string(d.Tipo), activate).Scan(&id)
		if err != nil {
			return err
		}
		out, err = getPeriod(ctx, tx, sq.Eq{"id": id})
		return err
	})
	if err != nil {
		return Period{}, mapErr(err)
	}
	return out, nil
}

func (s *Store) Active(ctx context.Context) (Period, error) {
	p, err := getPeriod(ctx, s.DB, sq.Eq{"activo": true})
	if db.IsNoRows(err) {
		return Period{}, ErrNoActive
	}
	return p, err
}

func (s *Store) CountActive(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM periodos WHERE activo`).Scan(&n)
	return n, err
}

// Activate makes id the only active period.
func (s *Store) Activate(ctx context.Context, id int64) (Period, error) {
	var out Period
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if err := deactivateAll(ctx, tx); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE periodos SET activo = TRUE WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		out, err = getPeriod(ctx, tx, sq.Eq{"id": id})
		return err
	})
	if err != nil {
		return Period{}, mapErr(err)
	}
	return out, nil
}

func (s *Store) Deactivate(ctx context.Context, id int64) (Period, error) {
	query, args, err := db.Psql.Update(table).
		Set("activo", false).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()
	if err != nil {
		return Period{}, err
	}
	p, err := scanPeriod(s.DB.QueryRow(ctx, query, args...))
	if err != nil {
		return Period{}, mapErr(err)
	}
	return p, nil
}

func deactivateAll(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, activationLock); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `UPDATE periodos SET activo = FALSE WHERE activo`)
	return err
}

func mapErr(err error) error {
	switch {
	case db.IsNoRows(err):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return ErrDuplicateClave
	case db.IsCheckViolation(err):
		return ErrInvalidInput
	}
	return err
}
