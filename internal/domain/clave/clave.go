// Package clave generates the display codes shared by employees, crews and
// activities.
//
// A row created without an explicit code is inserted with a throwaway
// placeholder and then renamed to its own database id inside the same
// transaction, so codes follow the table's id sequence without a separate
// counter.
package clave

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"nomina/internal/platform/db"
)

const placeholderPrefix = "TEMP_"

var ErrRenameFailed = errors.New("clave rename affected no rows")

// Executor is the subset of pgx.Tx used for the rename step.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// InsertFunc inserts the row with the given code and returns its id.
type InsertFunc func(ctx context.Context, clave string) (int64, error)

func Explicit(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	return value, value != ""
}

func Placeholder() string {
	return placeholderPrefix + uuid.NewString()
}

func FromID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Assign runs insert with the requested code, or with a placeholder that is
// then replaced by the generated id. tx must be a transaction.
func Assign(ctx context.Context, tx Executor, table, requested string, insert InsertFunc) (int64, string, error) {
	if code, ok := Explicit(requested); ok {
		id, err := insert(ctx, code)
		if err != nil {
			return 0, "", err
		}
		return id, code, nil
	}

	id, err := insert(ctx, Placeholder())
	if err != nil {
		return 0, "", err
	}

	code := FromID(id)
	query, args, err := db.Psql.Update(table).Set("clave", code).Where("id = ?", id).ToSql()
	if err != nil {
		return 0, "", err
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, "", fmt.Errorf("rename %s clave: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, "", ErrRenameFailed
	}
	return id, code, nil
}
