package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgx behaviour the repositories need. It is
// satisfied by *pgxpool.Pool, by pgx.Tx, and by pgxmock pools in tests, so
// the same repository code runs inside and outside a transaction.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Storage error kinds. The unique-violation kind is load-bearing: concurrent
// inserts race past application-level existence checks, and the database
// constraint rejecting the second commit is what the service layer translates
// into its domain errors.
var (
	ErrNotFound           = errors.New("record not found")
	ErrUniqueViolation    = errors.New("unique constraint violation")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

const (
	pgUniqueViolation  = "23505"
	pgDeadlockDetected = "40P01"
	pgConnectionClass  = "08"
)

// mapError converts driver errors into the repository error kinds.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
		case pgErr.Code == pgDeadlockDetected, len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgConnectionClass:
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return err
}

// Store bundles the repositories behind a transactional boundary.
type Store interface {
	Tenants() TenantRepository
	Memberships() MembershipRepository
	Users() UserRepository

	// WithinTx runs fn against a Store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise,
	// including when the caller's context is cancelled mid-flight.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type sqlStore struct {
	db          Database
	tenants     TenantRepository
	memberships MembershipRepository
	users       UserRepository
}

func NewStore(db Database) Store {
	return &sqlStore{
		db:          db,
		tenants:     NewTenantRepo(db),
		memberships: NewMembershipRepo(db),
		users:       NewUserRepo(db),
	}
}

func (s *sqlStore) Tenants() TenantRepository         { return s.tenants }
func (s *sqlStore) Memberships() MembershipRepository { return s.memberships }
func (s *sqlStore) Users() UserRepository             { return s.users }

func (s *sqlStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return mapError(err)
	}
	defer tx.Rollback(ctx)

	if err := fn(NewStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(err)
	}
	return nil
}
