package employees

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"nomina/internal/domain/clave"
	"nomina/internal/platform/db"
	"nomina/internal/platform/pagination"
	"nomina/internal/platform/querier"
)

const table = "empleados"

var columns = []string{
	"id", "clave", "nombre", "apellido_paterno", "apellido_materno", "estado_origen",
	"curp", "rfc", "nss", "fecha_ingreso", "registro_patronal", "sueldo_diario",
	"descuento_infonavit", "activo", "created_at", "updated_at",
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(
		&e.ID, &e.Clave, &e.Nombre, &e.ApellidoPaterno, &e.ApellidoMaterno, &e.EstadoOrigen,
		&e.CURP, &e.RFC, &e.NSS, &e.FechaIngreso, &e.RegistroPatronal, &e.SueldoDiario,
		&e.DescuentoInfonavit, &e.Activo, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func searchFilter(search string) sq.Sqlizer {
	pattern := db.ContainsPattern(search)
	return sq.Or{
		sq.ILike{"nombre": pattern},
		sq.ILike{"apellido_paterno": pattern},
		sq.ILike{"apellido_materno": pattern},
		sq.ILike{"clave": pattern},
	}
}

func (s *Store) List(ctx context.Context, req pagination.Request) ([]Employee, int, error) {
	listQ := db.Psql.Select(columns...).From(table).
		OrderBy("clave ASC").
		Limit(uint64(req.Limit())).
		Offset(uint64(req.Offset()))
	countQ := db.Psql.Select("COUNT(1)").From(table)
	if req.Search != "" {
		listQ = listQ.Where(searchFilter(req.Search))
		countQ = countQ.Where(searchFilter(req.Search))
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

	out := []Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (s *Store) CountByStatus(ctx context.Context) (StatusCounts, error) {
	var counts StatusCounts
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FILTER (WHERE activo), COUNT(1) FILTER (WHERE NOT activo)
    FROM empleados
  `).Scan(&counts.Active, &counts.Inactive)
	return counts, err
}

func (s *Store) Get(ctx context.Context, id int64) (Employee, error) {
	return getEmployee(ctx, s.DB, id)
}

func getEmployee(ctx context.Context, q querier.Querier, id int64) (Employee, error) {
	query, args, err := db.Psql.Select(columns...).From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return Employee{}, err
	}
	e, err := scanEmployee(q.QueryRow(ctx, query, args...))
	if err != nil {
		return Employee{}, mapErr(err)
	}
	return e, nil
}

func (s *Store) Create(ctx context.Context, in Input) (Employee, error) {
	var out Employee
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		id, _, err := clave.Assign(ctx, tx, table, in.Clave, func(ctx context.Context, code string) (int64, error) {
			var id int64
			err := tx.QueryRow(ctx, `
        INSERT INTO empleados (clave, nombre, apellido_paterno, apellido_materno, estado_origen, curp, rfc, nss,
          fecha_ingreso, registro_patronal, sueldo_diario, descuento_infonavit, activo)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,TRUE)
        RETURNING id
      `, code, in.Nombre, in.ApellidoPaterno, in.ApellidoMaterno, in.EstadoOrigen, in.CURP, in.RFC, in.NSS,
				in.FechaIngreso, in.RegistroPatronal, in.SueldoDiario, in.DescuentoInfonavit).Scan(&id)
			return id, err
		})
		if err != nil {
			return err
		}
		out, err = getEmployee(ctx, tx, id)
		return err
	})
	if err != nil {
		return Employee{}, mapErr(err)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, id int64, in Input) (Employee, error) {
	query, args, err := db.Psql.Update(table).SetMap(map[string]any{
		"clave":               in.Clave,
		"nombre":              in.Nombre,
		"apellido_paterno":    in.ApellidoPaterno,
		"apellido_materno":    in.ApellidoMaterno,
		"estado_origen":       in.EstadoOrigen,
		"curp":                in.CURP,
		"rfc":                 in.RFC,
		"nss":                 in.NSS,
		"fecha_ingreso":       in.FechaIngreso,
		"registro_patronal":   in.RegistroPatronal,
		"sueldo_diario":       in.SueldoDiario,
		"descuento_infonavit": in.DescuentoInfonavit,
		"updated_at":          sq.Expr("now()"),
	}).Where(sq.Eq{"id": id}).Suffix(returning()).ToSql()
	if err != nil {
		return Employee{}, err
	}
	e, err := scanEmployee(s.DB.QueryRow(ctx, query, args...))
	if err != nil {
		return Employee{}, mapErr(err)
	}
	return e, nil
}

func (s *Store) Toggle(ctx context.Context, id int64) (Employee, error) {
	query, args, err := db.Psql.Update(table).
		Set("activo", sq.Expr("NOT activo")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix(returning()).
		ToSql()
	if err != nil {
		return Employee{}, err
	}
	e, err := scanEmployee(s.DB.QueryRow(ctx, query, args...))
	if err != nil {
		return Employee{}, mapErr(err)
	}
	return e, nil
}

func (s *Store) Crews(ctx context.Context, id int64) ([]CrewMembership, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.clave, c.nombre, COALESCE(c.grupo, ''), c.activo
    FROM cuadrillas c
    JOIN cuadrilla_empleados ce ON ce.cuadrilla_id = c.id
    WHERE ce.empleado_id = $1
    ORDER BY c.nombre
  `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CrewMembership{}
	for rows.Next() {
		var c CrewMembership
		if err := rows.Scan(&c.ID, &c.Clave, &c.Nombre, &c.Grupo, &c.Activo); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func returning() string {
	return "RETURNING " + strings.Join(columns, ", ")
}

func mapErr(err error) error {
	switch {
	case db.IsNoRows(err):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return ErrDuplicateClave
	case db.IsCheckViolation(err):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return err
}
