package crews

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"nomina/internal/domain/clave"
	"nomina/internal/platform/db"
	"nomina/internal/platform/pagination"
	"nomina/internal/platform/querier"
)

const table = "cuadrillas"

var columns = []string{
	"c.id", "c.clave", "c.nombre", "COALESCE(c.grupo, '')", "COALESCE(c.actividad, '')", "c.activo",
	"(SELECT COUNT(1) FROM cuadrilla_empleados ce WHERE ce.cuadrilla_id = c.id)",
	"c.created_at", "c.updated_at",
}

func scanCrew(row pgx.Row) (Crew, error) {
	var c Crew
	err := row.Scan(&c.ID, &c.Clave, &c.Nombre, &c.Grupo, &c.Actividad, &c.Activo,
		&c.TotalEmpleados, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanCrews(rows pgx.Rows) ([]Crew, error) {
	defer rows.Close()
	out := []Crew{}
	for rows.Next() {
		c, err := scanCrew(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) List(ctx context.Context, req pagination.Request) (ListResult, error) {
	listQ := db.Psql.Select(columns...).From("cuadrillas c").
		OrderBy("c.id DESC").
		Limit(uint64(req.Limit())).
		Offset(uint64(req.Offset()))
	countQ := db.Psql.Select(
		"COUNT(1)",
		"COUNT(1) FILTER (WHERE c.activo)",
		"COUNT(1) FILTER (WHERE NOT c.activo)",
	).From("cuadrillas c")
	if req.Search != "" {
		pattern := db.ContainsPattern(req.Search)
		filter := sq.Or{
			sq.ILike{"c.nombre": pattern},
			sq.ILike{"c.clave": pattern},
			sq.ILike{"c.grupo": pattern},
		}
		listQ = listQ.Where(filter)
		countQ = countQ.Where(filter)
	}

	var res ListResult
	query, args, err := countQ.ToSql()
	if err != nil {
		return ListResult{}, err
	}
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&res.Total, &res.Active, &res.Inactive); err != nil {
		return ListResult{}, err
	}

	query, args, err = listQ.ToSql()
	if err != nil {
		return ListResult{}, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	res.Items, err = scanCrews(rows)
	return res, err
}

func (s *Store) ListActive(ctx context.Context) ([]Crew, error) {
	query, args, err := db.Psql.Select(columns...).From("cuadrillas c").
		Where(sq.Eq{"c.activo": true}).
		OrderBy("c.nombre ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanCrews(rows)
}

func (s *Store) Get(ctx context.Context, id int64) (Crew, error) {
	return getCrew(ctx, s.DB, id)
}

func getCrew(ctx context.Context, q querier.Querier, id int64) (Crew, error) {
	query, args, err := db.Psql.Select(columns...).From("cuadrillas c").Where(sq.Eq{"c.id": id}).ToSql()
	if err != nil {
		return Crew{}, err
	}
	c, err := scanCrew(q.QueryRow(ctx, query, args...))
	if err != nil {
		return Crew{}, mapErr(err)
	}
	return c, nil
}

// resolveActividad swaps the free-text activity for the catalog's canonical
// name, creating the catalog entry when needed.
func (s *Store) resolveActividad(ctx context.Context, tx pgx.Tx, in Input) (Input, error) {
	if in.Actividad == "" || s.Activities == nil {
		return in, nil
	}
	a, err := s.Activities.EnsureByName(ctx, tx, in.Actividad)
	if err != nil {
		return in, err
	}
	in.Actividad = a.Nombre
	return in, nil
}

func (s *Store) Create(ctx context.Context, in Input) (Crew, error) {
	var out Crew
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		in, err := s.resolveActividad(ctx, tx, in)
		if err != nil {
			return err
		}
		id, _, err := clave.Assign(ctx, tx, table, in.Clave, func(ctx context.Context, code string) (int64, error) {
			var id int64
			err := tx.QueryRow(ctx, `
        INSERT INTO cuadrillas (clave, nombre, grupo, actividad, activo)
        VALUES ($1, $2, $3, $4, TRUE)
        RETURNING id
      `, code, in.Nombre, nullable(in.Grupo), nullable(in.Actividad)).Scan(&id)
			return id, err
		})
		if err != nil {
			return err
		}
		out, err = getCrew(ctx, tx, id)
		return err
	})
	if err != nil {
		return Crew{}, mapErr(err)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, id int64, in Input) (Crew, error) {
	var out Crew
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		in, err := s.resolveActividad(ctx, tx, in)
		if err != nil {
			return err
		}
		query, args, err := db.Psql.Update(table).SetMap(map[string]any{
			"clave":      in.Clave,
			"nombre":     in.Nombre,
			"grupo":      nullable(in.Grupo),
			"actividad":  nullable(in.Actividad),
			"updated_at": sq.Expr("now()"),
		}).Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		out, err = getCrew(ctx, tx, id)
		return err
	})
	if err != nil {
		return Crew{}, mapErr(err)
	}
	return out, nil
}

func (s *Store) Toggle(ctx context.Context, id int64) (Crew, error) {
	tag, err := s.DB.Exec(ctx, `UPDATE cuadrillas SET activo = NOT activo, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return Crew{}, err
	}
	if tag.RowsAffected() == 0 {
		return Crew{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

// RosterSnapshot lists every active employee once, flagged with membership in
// the crew, from a single statement.
func (s *Store) RosterSnapshot(ctx context.Context, crewID int64) ([]RosterEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.clave, e.nombre, e.apellido_paterno, e.apellido_materno, e.sueldo_diario,
      EXISTS (
        SELECT 1 FROM cuadrilla_empleados ce
        WHERE ce.cuadrilla_id = $1 AND ce.empleado_id = e.id
      )
    FROM empleados e
    WHERE e.activo
    ORDER BY e.nombre ASC, e.id ASC
  `, crewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RosterEntry{}
	for rows.Next() {
		var r RosterEntry
		if err := rows.Scan(&r.ID, &r.Clave, &r.Nombre, &r.ApellidoPaterno, &r.ApellidoMaterno,
			&r.SueldoDiario, &r.Assigned); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) AddMember(ctx context.Context, crewID, employeeID int64) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if err := checkRefs(ctx, tx, crewID, employeeID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
      INSERT INTO cuadrilla_empleados (cuadrilla_id, empleado_id)
      VALUES ($1, $2)
      ON CONFLICT DO NOTHING
    `, crewID, employeeID)
		if db.IsForeignKeyViolation(err) {
			return refErr(err)
		}
		return err
	})
}

func (s *Store) RemoveMember(ctx context.Context, crewID, employeeID int64) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if err := checkRefs(ctx, tx, crewID, employeeID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM cuadrilla_empleados WHERE cuadrilla_id = $1 AND empleado_id = $2`,
			crewID, employeeID)
		return err
	})
}

// checkRefs reports which side of a membership is missing. Inactive
// employees can still be linked; the roster only lists active ones.
func checkRefs(ctx context.Context, q querier.Querier, crewID, employeeID int64) error {
	var crewExists, employeeExists bool
	err := q.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM cuadrillas WHERE id = $1),
      EXISTS (SELECT 1 FROM empleados WHERE id = $2)
  `, crewID, employeeID).Scan(&crewExists, &employeeExists)
	if err != nil {
		return err
	}
	switch {
	case !crewExists:
		return ErrNotFound
	case !employeeExists:
		return ErrEmployeeNotFound
	}
	return nil
}

func refErr(err error) error {
	if db.ConstraintName(err) == "cuadrilla_empleados_empleado_id_fkey" {
		return ErrEmployeeNotFound
	}
	return ErrNotFound
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
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
