package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"taskmanager/internal/adapter/database/dbtrace"
	"taskmanager/internal/adapter/database/sqlite"
	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
	tel "taskmanager/internal/core/telemetry"
)

var taskColumns = []string{
	"id", "uuid", "title", "description", "due_date", "priority",
	"is_completed", "date", "user_id", "created_at", "updated_at", "deleted_at",
}

type TaskRepository struct {
	db        *sqlite.DB
	scanner   *sqlite.Scanner
	telemetry port.Telemetry
}

func NewTaskRepository(db *sqlite.DB, telemetry port.Telemetry) port.TaskRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TaskRepository{
		db:        db,
		scanner:   sqlite.NewScanner(),
		telemetry: telemetry,
	}
}

func (tr *TaskRepository) ListByUser(ctx context.Context, userId int) ([]domain.Task, error) {
	ctx, op := dbtrace.Begin(ctx, tr.telemetry, "sqlite", "ListByUser", "task", map[string]interface{}{
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

	rows, err := tr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return nil, op.Fail(ctx, err)
	}

	defer rows.Close()

	tasks := []domain.Task{}

	if err := tr.scanner.ScanRowsToSlice(rows, &tasks); err != nil {
		return nil, op.Fail(ctx, err)
	}

	op.Done(ctx, map[string]interface{}{"db.rows_returned": len(tasks)})

	return tasks, nil
}

func (tr *TaskRepository) GetByUUID(ctx context.Context, userId int, uid string) (domain.Task, error) {
	query, args, err := tr.db.QueryBuilder.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"uuid": uid, "user_id": userId}).
		Where("deleted_at IS NULL").
		Limit(1).
		ToSql()

	if err != nil {
		return domain.Task{}, err
	}

	rows, err := tr.db.QueryContext(ctx, query, args...)

	if err != nil {
		return domain.Task{}, err
	}

	defer rows.Close()

	var task domain.Task

	if err := tr.scanner.ScanRowToStruct(rows, &task); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, fmt.Errorf("task %s: %w", uid, domain.ErrNotFound)
		}

		return domain.Task{}, err
	}

	return task, nil
}

func (tr *TaskRepository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	ctx, op := dbtrace.Begin(ctx, tr.telemetry, "sqlite", "Create", "task", map[string]interface{}{
		"db.operation": "INSERT",
		"task.uuid":    task.UUID.String(),
		"user.id":      task.UserId,
	})

	uid := task.UUID.String()

	query, args, err := tr.db.QueryBuilder.Insert("tasks").
		Columns("uuid", "title", "description", "due_date", "priority", "is_completed", "date", "user_id", "created_at", "updated_at").
		Values(uid, task.Title, task.Description, task.DueDate.UTC(), string(task.Priority), task.IsCompleted, task.Date.UTC(), task.UserId, task.CreatedAt.UTC(), task.UpdatedAt.UTC()).
		ToSql()

	if err != nil {
		return domain.Task{}, op.Fail(ctx, err)
	}

	op.Query(ctx, query, args)

	if _, err := tr.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Task{}, op.Fail(ctx, err)
	}

	saved, err := tr.GetByUUID(ctx, task.UserId, uid)

	if err != nil {
		return domain.Task{}, op.Fail(ctx, err)
	}

	tr.telemetry.RecordBusinessEvent(ctx, "created", "task", uid, saved.UserId, map[string]interface{}{
		"priority": saved.Priority.String(),
		"due_date": saved.DueDate,
	})

	op.Done(ctx, nil)

	return saved, nil
}

// UpdateByUUID writes the patch straight away; a missing or foreign task
// surfaces as ErrNotFound from the affected row count.
func (tr *TaskRepository) UpdateByUUID(ctx context.Context, userId int, uid string, patch domain.TaskPatch) (domain.Task, error) {
	ctx, op := dbtrace.Begin(ctx, tr.telemetry, "sqlite", "UpdateByUUID", "task", map[string]interface{}{
		"db.operation": "UPDATE",
		"task.uuid":    uid,
		"user.id":      userId,
	})

	var scratch domain.Task
	changes := patch.Apply(&scratch)
	changes["updated_at"] = time.Now().UTC()

	query, args, err := tr.db.QueryBuilder.Update("tasks").
		SetMap(changes).
		Where(sq.Eq{"uuid": uid, "user_id": userId}).
		Where("deleted_at IS NULL").
		ToSql()

	if err != nil {
		return domain.Task{}, op.Fail(ctx, err)
	}

	op.Query(ctx, query, args)

	result, err := tr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return domain.Task{}, op.Fail(ctx, err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return domain.Task{}, op.Fail(ctx, fmt.Errorf("task %s: %w", uid, domain.ErrNotFound))
	}

	updated, err := tr.GetByUUID(ctx, userId, uid)

	if err != nil {
		return domain.Task{}, op.Fail(ctx, err)
	}

	tr.telemetry.RecordBusinessEvent(ctx, "updated", "task", uid, userId, map[string]interface{}{
		"fields_count": len(changes) - 1,
	})

	op.Done(ctx, nil)

	return updated, nil
}

func (tr *TaskRepository) DeleteByUUID(ctx context.Context, userId int, uid string) error {
	ctx, op := dbtrace.Begin(ctx, tr.telemetry, "sqlite", "DeleteByUUID", "task", map[string]interface{}{
		"db.operation": "UPDATE",
		"task.uuid":    uid,
		"user.id":      userId,
	})

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

	result, err := tr.db.ExecContext(ctx, query, args...)

	if err != nil {
		return op.Fail(ctx, err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return op.Fail(ctx, fmt.Errorf("task %s: %w", uid, domain.ErrNotFound))
	}

	tr.telemetry.RecordBusinessEvent(ctx, "deleted", "task", uid, userId, nil)

	op.Done(ctx, nil)

	return nil
}
