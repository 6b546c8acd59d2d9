package port

import (
	"context"
	"time"

	"taskmanager/internal/core/domain"
)

type TaskRepository interface {
	ListByUser(ctx context.Context, userId int) ([]domain.Task, error)
	GetByUUID(ctx context.Context, userId int, uuid string) (domain.Task, error)
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	UpdateByUUID(ctx context.Context, userId int, uuid string, patch domain.TaskPatch) (domain.Task, error)
	DeleteByUUID(ctx context.Context, userId int, uuid string) error
}

type TaskService interface {
	List(ctx context.Context, userId int) ([]domain.Task, error)
	ListFiltered(ctx context.Context, userId int, filter domain.TaskFilter) ([]domain.Task, error)
	Grouped(ctx context.Context, userId int, filter domain.TaskFilter, now time.Time) (domain.Groups, error)
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	UpdateByUUID(ctx context.Context, userId int, uuid string, patch domain.TaskPatch) (domain.Task, error)
	DeleteByUUID(ctx context.Context, userId int, uuid string) error
	MarkDone(ctx context.Context, userId int, uuid string) (domain.Task, domain.UndoTicket, error)
	Undo(ctx context.Context, userId int, ticketID string) (domain.Task, error)
}

// TaskGateway is what a client-side board needs from a task backend.
type TaskGateway interface {
	List(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, uuid string, patch domain.TaskPatch) (domain.Task, error)
}

type UndoStore interface {
	Put(ctx context.Context, ticket domain.UndoTicket) error
	// Take consumes the ticket only when it belongs to userId.
	Take(ctx context.Context, id string, userId int) (domain.UndoTicket, bool)
}
