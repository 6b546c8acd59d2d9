package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"taskmanager/internal/adapter/database/dbtrace"
	"taskmanager/internal/adapter/database/sqlite"
	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
	tel "taskmanager/internal/core/telemetry"
)

var userColumns = []string{"id", "uuid", "name", "email", "encrypted_password", "role", "created_at", "updated_at", "deleted_at"}

type UserRepository struct {
	db        *sqlite.DB
	scanner   *sqlite.Scanner
	telemetry port.Telemetry
}

func NewUserRepository(db *sqlite.DB, telemetry port.Telemetry) port.UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{
		db:        db,
		scanner:   sqlite.NewScanner(),
		telemetry: telemetry,
	}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (ur *UserRepository) getOne(ctx context.Context, q queryer, where sq.Eq) (domain.User, error) {
	query, args, err := ur.db.QueryBuilder.Select(userColumns...).
		From("users").
		Where(where).
		Where("deleted_at IS NULL").
		Limit(1).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	rows, err := q.QueryContext(ctx, query, args...)

	if err != nil {
		return domain.User{}, err
	}

	defer rows.Close()

	var data domain.User

	if err := ur.scanner.ScanRowToStruct(rows, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, fmt.Errorf("user: %w", domain.ErrNotFound)
		}

		slog.Error("Error getting user", "error", err)
		return domain.User{}, err
	}

	return data, nil
}

func (ur *UserRepository) GetByID(ctx context.Context, id int) (domain.User, error) {
	return ur.getOne(ctx, ur.db, sq.Eq{"id": id})
}

func (ur *UserRepository) GetByUUID(ctx context.Context, uid string) (domain.User, error) {
	return ur.getOne(ctx, ur.db, sq.Eq{"uuid": uid})
}

func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return ur.getOne(ctx, ur.db, sq.Eq{"email": email})
}

type execQueryer interface {
	queryer
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (ur *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, op := dbtrace.Begin(ctx, ur.telemetry, "sqlite", "Create", "user", map[string]interface{}{
		"db.operation": "INSERT",
		"user.uuid":    user.UUID.String(),
	})

	saved, err := ur.inTx(ctx, func(tx *sql.Tx) (domain.User, error) {
		return ur.insertUser(ctx, op, tx, user)
	})

	if err != nil {
		return domain.User{}, op.Fail(ctx, err)
	}

	op.Done(ctx, nil)

	return saved, nil
}

// CreateWithProfile writes the user and its profile in one transaction; the
// profile's UserID is taken from the inserted row.
func (ur *UserRepository) CreateWithProfile(ctx context.Context, user domain.User, profile domain.Profile) (domain.User, error) {
	ctx, op := dbtrace.Begin(ctx, ur.telemetry, "sqlite", "CreateWithProfile", "user", map[string]interface{}{
		"db.operation": "INSERT",
		"user.uuid":    user.UUID.String(),
	})

	saved, err := ur.inTx(ctx, func(tx *sql.Tx) (domain.User, error) {
		saved, err := ur.insertUser(ctx, op, tx, user)

		if err != nil {
			return domain.User{}, err
		}

		profile.UserID = saved.ID

		return saved, ur.insertProfile(ctx, op, tx, profile)
	})

	if err != nil {
		return domain.User{}, op.Fail(ctx, err)
	}

	op.Done(ctx, nil)

	return saved, nil
}

func (ur *UserRepository) SaveProfile(ctx context.Context, profile domain.Profile) error {
	ctx, op := dbtrace.Begin(ctx, ur.telemetry, "sqlite", "SaveProfile", "profile", map[string]interface{}{
		"db.operation": "INSERT",
		"user.id":      profile.UserID,
	})

	if err := ur.insertProfile(ctx, op, ur.db, profile); err != nil {
		return op.Fail(ctx, err)
	}

	op.Done(ctx, nil)

	return nil
}

func (ur *UserRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) (domain.User, error)) (domain.User, error) {
	tx, err := ur.db.BeginTx(ctx, nil)

	if err != nil {
		return domain.User{}, err
	}

	defer tx.Rollback()

	saved, err := fn(tx)

	if err != nil {
		return domain.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.User{}, err
	}

	return saved, nil
}

// insertUser reads the row back through q, so it must run on the
// connection that did the insert.
func (ur *UserRepository) insertUser(ctx context.Context, op *dbtrace.Operation, q execQueryer, user domain.User) (domain.User, error) {
	uid := user.UUID.String()

	if user.Role == "" {
		user.Role = domain.Member
	}

	query, args, err := ur.db.QueryBuilder.Insert("users").
		Columns("uuid", "name", "email", "encrypted_password", "role", "created_at", "updated_at").
		Values(uid, user.Name, user.Email, user.EncryptedPassword, string(user.Role), user.CreatedAt.UTC(), user.UpdatedAt.UTC()).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	op.Query(ctx, query, args)

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("%w: user already exists", domain.ErrConflict)
		}

		return domain.User{}, err
	}

	return ur.getOne(ctx, q, sq.Eq{"uuid": uid})
}

func (ur *UserRepository) insertProfile(ctx context.Context, op *dbtrace.Operation, q execQueryer, profile domain.Profile) error {
	query, args, err := ur.db.QueryBuilder.Insert("profiles").
		Columns("user_id", "name", "email", "created_at").
		Values(profile.UserID, profile.Name, profile.Email, profile.CreatedAt.UTC()).
		ToSql()

	if err != nil {
		return err
	}

	op.Query(ctx, query, args)

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("%w: profile already exists", domain.ErrConflict)
		}

		return err
	}

	return nil
}

func (ur *UserRepository) GetProfile(ctx context.Context, userId int) (domain.Profile, error) {
	query, args, err := ur.db.QueryBuilder.
		Select("p.user_id AS user_id", "u.uuid AS uuid", "p.name AS name", "p.email AS email", "p.created_at AS created_at").
		From("profiles p").
		Join("users u ON u.id = p.user_id").
		Where(sq.Eq{"p.user_id": userId}).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Profile{}, err
	}

	rows, err := ur.db.QueryContext(ctx, query, args...)

	if err != nil {
		return domain.Profile{}, err
	}

	defer rows.Close()

	var profile domain.Profile

	if err := ur.scanner.ScanRowToStruct(rows, &profile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, fmt.Errorf("profile: %w", domain.ErrNotFound)
		}

		return domain.Profile{}, err
	}

	return profile, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error

	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}
