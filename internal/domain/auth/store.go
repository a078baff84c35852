package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"nomina/internal/platform/querier"
)

type StoreAPI interface {
	FindActiveUserByEmail(ctx context.Context, email string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	CreateUserIfMissing(ctx context.Context, email, nombre, rol, passwordHash string) (bool, error)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

var _ StoreAPI = (*Store)(nil)

const userColumns = "id, email, nombre, rol, activo, last_login, password_hash"

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Nombre, &u.Rol, &u.Activo, &u.LastLogin, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, `
    SELECT `+userColumns+`
    FROM usuarios
    WHERE lower(email) = lower($1::text) AND activo
  `, email))
}

func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id))
}

func (s *Store) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := s.DB.Exec(ctx, "UPDATE usuarios SET last_login = now() WHERE id = $1", id)
	return err
}

// CreateUserIfMissing inserts the user unless the email is taken. It reports
// whether a row was created.
func (s *Store) CreateUserIfMissing(ctx context.Context, email, nombre, rol, passwordHash string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO usuarios (email, nombre, rol, password_hash)
    VALUES (lower($1::text), $2, $3, $4)
    ON CONFLICT (email) DO NOTHING
  `, email, nombre, rol, passwordHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
