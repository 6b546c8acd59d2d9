package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
	"taskmanager/internal/core/telemetry"
)

const (
	DefaultUndoWindow = 5 * time.Second
	DefaultCacheTTL   = 5 * time.Minute

	taskCachePrefix = "tasks:user:"
)

type TaskService struct {
	repo      port.TaskRepository
	undo      port.UndoStore
	telemetry port.Telemetry
	cache     port.CacheRepository
	metrics   *telemetry.AppMetrics
	window    time.Duration
	cacheTTL  time.Duration
	now       func() time.Time

	// generations are bumped on every mutation; a List only fills the cache
	// when its user's generation did not move during the read.
	mu          sync.Mutex
	generations map[int]uint64
}

type TaskOption func(*TaskService)

// WithCache enables the per-user read-through cache for List.
func WithCache(cache port.CacheRepository, ttl time.Duration) TaskOption {
	return func(s *TaskService) {
		s.cache = cache

		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithUndoWindow(window time.Duration) TaskOption {
	return func(s *TaskService) {
		if window > 0 {
			s.window = window
		}
	}
}

func WithMetrics(metrics *telemetry.AppMetrics) TaskOption {
	return func(s *TaskService) {
		s.metrics = metrics
	}
}

func WithClock(now func() time.Time) TaskOption {
	return func(s *TaskService) {
		s.now = now
	}
}

func NewTaskService(repo port.TaskRepository, undo port.UndoStore, probe port.Telemetry, opts ...TaskOption) *TaskService {
	if probe == nil {
		probe = telemetry.NewNoOpProbe()
	}

	s := &TaskService{
		repo:      repo,
		undo:      undo,
		telemetry: probe,
		window:      DefaultUndoWindow,
		cacheTTL:    DefaultCacheTTL,
		now:         time.Now,
		generations: map[int]uint64{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *TaskService) UndoWindow() time.Duration {
	return s.window
}

func cacheKey(userId int) string {
	return fmt.Sprintf("%s%d", taskCachePrefix, userId)
}

// List returns every task of the user ordered by due date.
func (s *TaskService) List(ctx context.Context, userId int) (tasks []domain.Task, err error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "task", "List", userId, nil)
	defer finish(ctx, s.telemetry, span, "task", "List", userId, time.Now(), &err)

	if cached, ok := s.readCache(ctx, userId); ok {
		span.SetAttributes(map[string]interface{}{"cache.hit": true, "tasks.count": len(cached)})
		return cached, nil
	}

	generation := s.generation(userId)

	tasks, err = s.repo.ListByUser(ctx, userId)

	if err != nil {
		slog.Error("Task#List", "error", err, "user_id", userId)
		return nil, err
	}

	s.writeCache(ctx, userId, generation, tasks)

	span.SetAttributes(map[string]interface{}{"cache.hit": false, "tasks.count": len(tasks)})

	return tasks, nil
}

func (s *TaskService) ListFiltered(ctx context.Context, userId int, filter domain.TaskFilter) ([]domain.Task, error) {
	tasks, err := s.List(ctx, userId)

	if err != nil {
		return nil, err
	}

	return domain.ApplyFilter(tasks, filter), nil
}

func (s *TaskService) Grouped(ctx context.Context, userId int, filter domain.TaskFilter, now time.Time) (domain.Groups, error) {
	tasks, err := s.ListFiltered(ctx, userId, filter)

	if err != nil {
		return domain.Groups{}, err
	}

	return domain.GroupByDueDate(tasks, now), nil
}

func (s *TaskService) Create(ctx context.Context, task domain.Task) (created domain.Task, err error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "task", "Create", task.UserId, nil)
	defer finish(ctx, s.telemetry, span, "task", "Create", task.UserId, time.Now(), &err)

	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}

	if err := task.Validate(); err != nil {
		return domain.Task{}, err
	}

	now := s.now().UTC()

	newTask := domain.Task{
		UUID:        uuid.New(),
		Title:       strings.TrimSpace(task.Title),
		Description: strings.TrimSpace(task.Description),
		DueDate:     task.DueDate.UTC(),
		Priority:    task.Priority,
		IsCompleted: false,
		Date:        now,
		UserId:      task.UserId,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err = s.repo.Create(ctx, newTask)

	if err != nil {
		slog.Error("Repository create failed", "error", err, "title", newTask.Title)
		return domain.Task{}, err
	}

	s.invalidate(ctx, task.UserId)

	return created, nil
}

func (s *TaskService) UpdateByUUID(ctx context.Context, userId int, uid string, patch domain.TaskPatch) (task domain.Task, err error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "task", "UpdateByUUID", userId, map[string]interface{}{"task.uuid": uid})
	defer finish(ctx, s.telemetry, span, "task", "UpdateByUUID", userId, time.Now(), &err)

	if patch.IsEmpty() {
		return domain.Task{}, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}

	if err := patch.Validate(); err != nil {
		return domain.Task{}, err
	}

	return s.update(ctx, userId, uid, patch)
}

func (s *TaskService) DeleteByUUID(ctx context.Context, userId int, uid string) (err error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "task", "DeleteByUUID", userId, map[string]interface{}{"task.uuid": uid})
	defer finish(ctx, s.telemetry, span, "task", "DeleteByUUID", userId, time.Now(), &err)

	if err := s.repo.DeleteByUUID(ctx, userId, uid); err != nil {
		return err
	}

	s.invalidate(ctx, userId)

	return nil
}

// MarkDone completes the task and hands back a ticket that can revert it
// until the undo window closes.
func (s *TaskService) MarkDone(ctx context.Context, userId int, uid string) (task domain.Task, ticket domain.UndoTicket, err error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "task", "MarkDone", userId, map[string]interface{}{"task.uuid": uid})
	defer finish(ctx, s.telemetry, span, "task", "MarkDone", userId, time.Now(), &err)

	task, err = s.update(ctx, userId, uid, domain.CompletionPatch(true))

	if err != nil {
		return domain.Task{}, domain.UndoTicket{}, err
	}

	ticket = domain.UndoTicket{
		ID:        uuid.NewString(),
		UserId:    userId,
		TaskUUID:  task.UUID,
		ExpiresAt: s.now().Add(s.window),
	}

	if err := s.undo.Put(ctx, ticket); err != nil {
		slog.Error("Task#MarkDone", "undo_store", err, "task_uuid", uid)

		if _, revertErr := s.update(ctx, userId, uid, domain.CompletionPatch(false)); revertErr != nil {
			slog.Error("Task#MarkDone", "revert", revertErr, "task_uuid", uid)
			return domain.Task{}, domain.UndoTicket{}, errors.Join(err, revertErr)
		}

		return domain.Task{}, domain.UndoTicket{}, err
	}

	s.telemetry.RecordBusinessEvent(ctx, "completed", "task", task.UUID.String(), userId, map[string]interface{}{
		"undo_expires_at": ticket.ExpiresAt,
	})

	return task, ticket, nil
}

// Undo reopens the task behind a still valid ticket. Tickets are single use
// and only their owner can consume them.
func (s *TaskService) Undo(ctx context.Context, userId int, ticketID string) (task domain.Task, err error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "task", "Undo", userId, map[string]interface{}{"undo.ticket": ticketID})
	defer finish(ctx, s.telemetry, span, "task", "Undo", userId, time.Now(), &err)

	ticket, ok := s.undo.Take(ctx, ticketID, userId)

	if !ok || ticket.Expired(s.now()) {
		s.recordUndo(ctx, "expired")
		return domain.Task{}, domain.ErrUndoExpired
	}

	task, err = s.update(ctx, userId, ticket.TaskUUID.String(), domain.CompletionPatch(false))

	if err != nil {
		s.recordUndo(ctx, "failed")
		return domain.Task{}, err
	}

	s.recordUndo(ctx, "reverted")

	return task, nil
}

func (s *TaskService) update(ctx context.Context, userId int, uid string, patch domain.TaskPatch) (domain.Task, error) {
	task, err := s.repo.UpdateByUUID(ctx, userId, uid, patch)

	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("Repository update failed", "error", err, "task_uuid", uid)
		}

		return domain.Task{}, err
	}

	s.invalidate(ctx, userId)

	return task, nil
}

func (s *TaskService) readCache(ctx context.Context, userId int) ([]domain.Task, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, cacheKey(userId))

	if err != nil {
		if !errors.Is(err, port.ErrCacheMiss) {
			slog.Warn("Task cache read failed", "error", err, "user_id", userId)
		}

		if s.metrics != nil {
			s.metrics.RecordCacheMiss(ctx, "tasks")
		}

		return nil, false
	}

	var tasks []domain.Task

	if err := json.Unmarshal(data, &tasks); err != nil {
		slog.Warn("Task cache entry is corrupt", "error", err, "user_id", userId)
		return nil, false
	}

	if s.metrics != nil {
		s.metrics.RecordCacheHit(ctx, "tasks")
	}

	return tasks, true
}

func (s *TaskService) generation(userId int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generations[userId]
}

func (s *TaskService) writeCache(ctx context.Context, userId int, generation uint64, tasks []domain.Task) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(tasks)

	if err != nil {
		slog.Warn("Task cache encode failed", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generations[userId] != generation {
		return
	}

	if err := s.cache.Set(ctx, cacheKey(userId), data, s.cacheTTL); err != nil {
		slog.Warn("Task cache write failed", "error", err, "user_id", userId)
	}
}

func (s *TaskService) invalidate(ctx context.Context, userId int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generations[userId]++

	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, cacheKey(userId)); err != nil {
		slog.Warn("Task cache invalidation failed", "error", err, "user_id", userId)
	}
}

func (s *TaskService) recordUndo(ctx context.Context, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordUndo(ctx, outcome)
	}
}
