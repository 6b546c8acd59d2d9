package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskmanager/internal/adapter/database/dbtrace"
	database "taskmanager/internal/adapter/database/postgres"
	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
	tel "taskmanager/internal/core/telemetry"
)

const system = "postgresql"

var taskColumns = []string{
	"id", "uuid", "title", "description", "due_date", "priority",
	"is_completed", "date", "user_id", "created_at", "updated_at", "deleted_at",
}

type TaskRepository struct {
	db        *database.DB
	telemetry port.Telemetry
}

func NewTaskRepository(db *database.DB, telemetry port.Telemetry) port.TaskRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TaskRepository{db: db, telemetry: telemetry}
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var (
		task     domain.Task
		priority string
	)

	err := row.Scan(
		&task.ID,
		&task.UUID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&priority,
		&task.IsCompleted,
		&task.Date,
		&task.UserId,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.DeletedAt,
	)

	task.Priority = domain.Priority(priority)

	return task, err
}

func notFound(uid string) error {
	return fmt.Errorf("task %s: %w", uid, domain.ErrNotFound)
}

func (tr *TaskRepository) ListByUser(ctx context.Context, userId int) ([]domain.Task, error) {
	ctx, op := dbtrace.Begin(ctx, tr.telemetry, system, "ListByUser", "task", map[string]interface{}{
		"db.operation": "SELECT",
		"user.id":      userId,
	})

	query, args, err := tr.db.QueryBuilder.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"user_id": userId}).
		Where("deleted_at IS NULL").
		OrderBy("due_date ASC", "id ASC").
		ToSql()

	if err != nil {
		return nil, op.Fail(ctx, err)
	}

	op.Query(ctx, query, args)

	rows, err := tr.db.Query(ctx, query, args...)

	if err != nil {
		return nil, op.Fail(ctx, err)
	}

	defer rows.Close()

	tasks := []domain.Task{}

	for rows.Next() {
		task, err := scanTask(rows)

		if err != nil {
			return nil, op.Fail(ctx, err)
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, op.Fail(ctx, err)
	}

	op.Done(ctx, map[string]interface{}{"db.rows_returned": len(tasks)})

	return tasks, nil
}

func (tr *TaskRepository) GetByUUID(ctx context.Context, userId int, uid string) (domain.Task, error) {
	if _, err := uuid.Parse(uid); err != nil {
		return domain.Task{}, notFound(uid)
	}

	query, args, err := tr.db.QueryBuilder.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"uuid": uid, "user_id": userId}).
		Where("deleted_at IS NULL").
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	task, err := scanTask(tr.db.QueryRow(ctx, query, args...))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, notFound(uid)
		}

		return domain.Task{}, err
	}

	return task, nil
}

func (tr *TaskRepository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	ctx, op := dbtrace.Begin(ctx, tr.telemetry, system, "Create", "task", map[string]interface{}{
		"db.operation": "INSERT",
		"task.uuid":    task.UUID.String(),
		"user.id":      task.UserId,
	})

	query, args, err := tr.db.QueryBuilder.Insert("tasks").
		Columns("uuid", "title", "description", "due_date", "priority", "is_completed", "date", "user_id", "created_at", "updated_at").
		Values(task.UUID.String(), task.Title, task.Description, task.DueDate.UTC(), string(task.Priority), task.IsCompleted, task.Date.UTC(), task.UserId, task.CreatedAt.UTC(), task.UpdatedAt.UTC()).
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()

	if err != nil {
		return domain.Task{}, op.Fail(ctx, err)
	}

	op.Query(ctx, query, args)

	saved, err := scanTask(tr.db.QueryRow(ctx, query, args...))

	if err != nil {
		return domain.Task{}, op.Fail(ctx, err)
	}

	tr.telemetry.RecordBusinessEvent(ctx, "created", "task", saved.UUID.String(), saved.UserId, map[string]interface{}{
		"priority": saved.Priority.String(),
		"due_date": saved.DueDate,
	})

	op.Done(ctx, nil)

	return saved, nil
}

func (tr *TaskRepository) UpdateByUUID(ctx context.Context, userId int, uid string, patch domain.TaskPatch) (domain.Task, error) {
	ctx, op := dbtrace.Begin(ctx, tr.telemetry, system, "UpdateByUUID", "task", map[string]interface{}{
		"db.operation": "UPDATE",
		"task.uuid":    uid,
		"user.id":      userId,
	})

	if _, err := uuid.Parse(uid); err != nil {
		return domain.Task{}, op.Fail(ctx, notFound(uid))
	}

	var scratch domain.Task
	changes := patch.Apply(&scratch)
	changes["updated_at"] = time.Now().UTC()

	query, args, err := tr.db.QueryBuilder.Update("tasks").
		SetMap(changes).
		Where(sq.Eq{"uuid": uid, "user_id": userId}).
		Where("deleted_at IS NULL").
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()

	if err != nil {
		return domain.Task{}, op.Fail(ctx, err)
	}

	op.Query(ctx, query, args)

	updated, err := scanTask(tr.db.QueryRow(ctx, query, args...))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = notFound(uid)
		}

		return domain.Task{}, op.Fail(ctx, err)
	}

	tr.telemetry.RecordBusinessEvent(ctx, "updated", "task", uid, userId, map[string]interface{}{
		"fields_count": len(changes) - 1,
	})

	op.Done(ctx, nil)

	return updated, nil
}

func (tr *TaskRepository) DeleteByUUID(ctx context.Context, userId int, uid string) error {
	ctx, op := dbtrace.Begin(ctx, tr.telemetry, system, "DeleteByUUID", "task", map[string]interface{}{
		"db.operation": "UPDATE",
		"task.uuid":    uid,
		"user.id":      userId,
	})

	if _, err := uuid.Parse(uid); err != nil {
		return op.Fail(ctx, notFound(uid))
	}

	now := time.Now().UTC()

	query, args, err := tr.db.QueryBuilder.Update("tasks").
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"uuid": uid, "user_id": userId}).
		Where("deleted_at IS NULL").
		ToSql()

	if err != nil {
		return op.Fail(ctx, err)
	}

	op.Query(ctx, query, args)

	tag, err := tr.db.Exec(ctx, query, args...)

	if err != nil {
		return op.Fail(ctx, err)
	}

	if tag.RowsAffected() == 0 {
		return op.Fail(ctx, notFound(uid))
	}

	tr.telemetry.RecordBusinessEvent(ctx, "deleted", "task", uid, userId, nil)

	op.Done(ctx, nil)

	return nil
}
