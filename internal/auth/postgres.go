package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"finledger.org/internal/ids"
)

var _ CredentialStore = (*PGStore)(nil)

// PGStore implements CredentialStore using PostgreSQL. Counter updates are
// single UPDATE statements so the read-modify-write cycle is serialized by
// the row lock the statement takes.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open connection pool.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const userColumns = `id, username, email, full_name, role, password_hash,
	is_active, is_verified, failed_attempts, locked_until, last_login,
	created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, username, email, full_name, role, password_hash, is_active, is_verified, failed_attempts)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		u.ID, u.Username, u.Email, u.FullName, u.Role, u.PasswordHash, u.IsActive, u.IsVerified, u.FailedAttempts,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return ErrEmailTaken
			}
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (s *PGStore) FindByID(ctx context.Context, id string) (*User, error) {
	return s.findBy(ctx, `select `+userColumns+` from users where id=$1`, id)
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findBy(ctx, `select `+userColumns+` from users where lower(email)=lower($1)`, email)
}

func (s *PGStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	return s.findBy(ctx, `select `+userColumns+` from users where lower(username)=lower($1)`, username)
}

func (s *PGStore) findBy(ctx context.Context, query, arg string) (*User, error) {
	row := s.db.QueryRowContext(ctx, query, arg)
	var u User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.Role, &u.PasswordHash,
		&u.IsActive, &u.IsVerified, &u.FailedAttempts, &u.LockedUntil, &u.LastLogin,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// RecordFailure performs the increment-and-maybe-lock in one statement.
// The counter only ever resets on lock or success, so a post-update value
// of zero means this call set the lock.
func (s *PGStore) RecordFailure(ctx context.Context, userID string, threshold int, lockUntil time.Time) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`update users set
			failed_attempts = case when failed_attempts + 1 >= $2 then 0 else failed_attempts + 1 end,
			locked_until    = case when failed_attempts + 1 >= $2 then $3 else locked_until end,
			updated_at      = now()
		 where id = $1
		 returning failed_attempts`,
		userID, threshold, lockUntil,
	)
	var attempts int
	if err := row.Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return attempts == 0, nil
}

func (s *PGStore) RecordSuccess(ctx context.Context, userID string, at time.Time) error {
	return s.exec(ctx,
		`update users set failed_attempts = 0, locked_until = null, last_login = $2, updated_at = now()
		 where id = $1`, userID, at)
}

func (s *PGStore) Unlock(ctx context.Context, userID string) error {
	return s.exec(ctx,
		`update users set failed_attempts = 0, locked_until = null, updated_at = now()
		 where id = $1`, userID)
}

func (s *PGStore) SetActive(ctx context.Context, userID string, active bool) error {
	return s.exec(ctx,
		`update users set is_active = $2,
			failed_attempts = case when $2 then 0 else failed_attempts end,
			locked_until    = case when $2 then null else locked_until end,
			updated_at      = now()
		 where id = $1`, userID, active)
}

func (s *PGStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
