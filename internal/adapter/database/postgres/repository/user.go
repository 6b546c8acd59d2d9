package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taskmanager/internal/adapter/database/dbtrace"
	database "taskmanager/internal/adapter/database/postgres"
	domain "taskmanager/internal/core/domain"
	port "taskmanager/internal/core/port"
	tel "taskmanager/internal/core/telemetry"
)

const uniqueViolation = "23505"

var userColumns = []string{"id", "uuid", "name", "email", "encrypted_password", "role", "created_at", "updated_at", "deleted_at"}

type UserRepository struct {
	db        *database.DB
	telemetry port.Telemetry
}

func NewUserRepository(db *database.DB, telemetry port.Telemetry) port.UserRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UserRepository{db: db, telemetry: telemetry}
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		data domain.User
		role string
	)

	err := row.Scan(
		&data.ID,
		&data.UUID,
		&data.Name,
		&data.Email,
		&data.EncryptedPassword,
		&role,
		&data.CreatedAt,
		&data.UpdatedAt,
		&data.DeletedAt,
	)

	data.Role = domain.UserRole(role)

	return data, err
}

func (ur *UserRepository) getOne(ctx context.Context, where sq.Eq) (domain.User, error) {
	query, args, err := ur.db.QueryBuilder.Select(userColumns...).
		From("users").
		Where(where).
		Where("deleted_at IS NULL").
		Limit(1).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	data, err := scanUser(ur.db.QueryRow(ctx, query, args...))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, fmt.Errorf("user: %w", domain.ErrNotFound)
		}

		slog.Error("Error getting user", "error", err)
		return domain.User{}, err
	}

	return data, nil
}

func (ur *UserRepository) GetByID(ctx context.Context, id int) (domain.User, error) {
	return ur.getOne(ctx, sq.Eq{"id": id})
}

func (ur *UserRepository) GetByUUID(ctx context.Context, uid string) (domain.User, error) {
	if _, err := uuid.Parse(uid); err != nil {
		return domain.User{}, fmt.Errorf("user: %w", domain.ErrNotFound)
	}

	return ur.getOne(ctx, sq.Eq{"uuid": uid})
}

func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return ur.getOne(ctx, sq.Eq{"email": email})
}

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (ur *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, op := dbtrace.Begin(ctx, ur.telemetry, system, "Create", "user", map[string]interface{}{
		"db.operation": "INSERT",
		"user.uuid":    user.UUID.String(),
	})

	saved, err := ur.insertUser(ctx, op, ur.db, user)

	if err != nil {
		return domain.User{}, op.Fail(ctx, err)
	}

	op.Done(ctx, nil)

	return saved, nil
}

// CreateWithProfile writes the user and its profile in one transaction.
func (ur *UserRepository) CreateWithProfile(ctx context.Context, user domain.User, profile domain.Profile) (domain.User, error) {
	ctx, op := dbtrace.Begin(ctx, ur.telemetry, system, "CreateWithProfile", "user", map[string]interface{}{
		"db.operation": "INSERT",
		"user.uuid":    user.UUID.String(),
	})

	err := pgx.BeginTxFunc(ctx, ur.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		saved, err := ur.insertUser(ctx, op, tx, user)

		if err != nil {
			return err
		}

		profile.UserID = saved.ID
		user = saved

		return ur.insertProfile(ctx, op, tx, profile)
	})

	if err != nil {
		return domain.User{}, op.Fail(ctx, err)
	}

	op.Done(ctx, nil)

	return user, nil
}

func (ur *UserRepository) SaveProfile(ctx context.Context, profile domain.Profile) error {
	ctx, op := dbtrace.Begin(ctx, ur.telemetry, system, "SaveProfile", "profile", map[string]interface{}{
		"db.operation": "INSERT",
		"user.id":      profile.UserID,
	})

	if err := ur.insertProfile(ctx, op, ur.db, profile); err != nil {
		return op.Fail(ctx, err)
	}

	op.Done(ctx, nil)

	return nil
}

func (ur *UserRepository) insertUser(ctx context.Context, op *dbtrace.Operation, q querier, user domain.User) (domain.User, error) {
	if user.Role == "" {
		user.Role = domain.Member
	}

	query, args, err := ur.db.QueryBuilder.Insert("users").
		Columns("uuid", "name", "email", "encrypted_password", "role", "created_at", "updated_at").
		Values(user.UUID.String(), user.Name, user.Email, user.EncryptedPassword, string(user.Role), user.CreatedAt.UTC(), user.UpdatedAt.UTC()).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()

	if err != nil {
		return domain.User{}, err
	}

	op.Query(ctx, query, args)

	saved, err := scanUser(q.QueryRow(ctx, query, args...))

	if err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("%w: user already exists", domain.ErrConflict)
		}

		return domain.User{}, err
	}

	return saved, nil
}

func (ur *UserRepository) insertProfile(ctx context.Context, op *dbtrace.Operation, q querier, profile domain.Profile) error {
	query, args, err := ur.db.QueryBuilder.Insert("profiles").
		Columns("user_id", "name", "email", "created_at").
		Values(profile.UserID, profile.Name, profile.Email, profile.CreatedAt.UTC()).
		ToSql()

	if err != nil {
		return err
	}

	op.Query(ctx, query, args)

	if _, err := q.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("%w: profile already exists", domain.ErrConflict)
		}

		return err
	}

	return nil
}

func (ur *UserRepository) GetProfile(ctx context.Context, userId int) (domain.Profile, error) {
	query, args, err := ur.db.QueryBuilder.
		Select("p.user_id", "u.uuid", "p.name", "p.email", "p.created_at").
		From("profiles p").
		Join("users u ON u.id = p.user_id").
		Where(sq.Eq{"p.user_id": userId}).
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Profile{}, err
	}

	var profile domain.Profile

	err = ur.db.QueryRow(ctx, query, args...).Scan(
		&profile.UserID,
		&profile.UUID,
		&profile.Name,
		&profile.Email,
		&profile.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, fmt.Errorf("profile: %w", domain.ErrNotFound)
		}

		return domain.Profile{}, err
	}

	return profile, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
