// Package board keeps a client-side view of a user's tasks: the active or
// history view, priority and title filters, due date sections and the
// optimistic completion toggle with its short undo window.
package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
)

var ErrNothingToUndo = errors.New("nothing to undo")

const DefaultUndoWindow = 5 * time.Second

type pendingUndo struct {
	uuid      string
	expiresAt time.Time
}

type Board struct {
	mu      sync.Mutex
	gateway port.TaskGateway
	tasks   []domain.Task
	filter  domain.TaskFilter
	window  time.Duration
	now     func() time.Time
	pending *pendingUndo
}

type Option func(*Board)

func WithUndoWindow(window time.Duration) Option {
	return func(b *Board) {
		b.window = window
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		b.now = now
	}
}

func New(gateway port.TaskGateway, opts ...Option) *Board {
	b := &Board{
		gateway: gateway,
		tasks:   []domain.Task{},
		filter:  domain.TaskFilter{View: domain.ViewActive},
		window:  DefaultUndoWindow,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Refresh replaces the local list. On failure the last good list is kept.
func (b *Board) Refresh(ctx context.Context) error {
	tasks, err := b.gateway.List(ctx)

	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tasks = append([]domain.Task{}, tasks...)

	return nil
}

func (b *Board) SetView(view domain.View) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.filter.View = view
}

// SetPriority narrows the list to one level; an empty priority shows all.
func (b *Board) SetPriority(priority domain.Priority) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.filter.Priority = priority
}

func (b *Board) SetSearch(query string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.filter.Search = query
}

func (b *Board) Filter() domain.TaskFilter {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.filter
}

func (b *Board) Tasks() []domain.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]domain.Task{}, b.tasks...)
}

func (b *Board) Visible() []domain.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	return domain.ApplyFilter(b.tasks, b.filter)
}

func (b *Board) Groups(now time.Time) domain.Groups {
	return domain.GroupByDueDate(b.Visible(), now)
}

// MarkDone flips the flag locally before the backend confirms it. A failed
// update restores the previous flag and returns the backend error as is.
func (b *Board) MarkDone(ctx context.Context, uuid string) error {
	b.mu.Lock()

	i := b.indexOf(uuid)

	if i < 0 {
		b.mu.Unlock()
		return domain.ErrNotFound
	}

	previous := b.tasks[i].IsCompleted
	b.tasks[i].IsCompleted = true

	b.mu.Unlock()

	updated, err := b.gateway.Update(ctx, uuid, domain.CompletionPatch(true))

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.setCompleted(uuid, previous)
		return err
	}

	b.replace(uuid, updated)
	b.pending = &pendingUndo{uuid: uuid, expiresAt: b.now().Add(b.window)}

	return nil
}

// Undo reverts the last completion while the window is open. Only the most
// recent completion can be undone.
func (b *Board) Undo(ctx context.Context) error {
	b.mu.Lock()

	pending := b.pending
	b.pending = nil

	if pending == nil || !b.now().Before(pending.expiresAt) {
		b.mu.Unlock()
		return ErrNothingToUndo
	}

	b.setCompleted(pending.uuid, false)

	b.mu.Unlock()

	updated, err := b.gateway.Update(ctx, pending.uuid, domain.CompletionPatch(false))

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.setCompleted(pending.uuid, true)
		return err
	}

	b.replace(pending.uuid, updated)

	return nil
}

// UndoRemaining reports how long the current undo offer stays open.
func (b *Board) UndoRemaining() (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == nil {
		return 0, false
	}

	remaining := b.pending.expiresAt.Sub(b.now())

	if remaining <= 0 {
		return 0, false
	}

	return remaining, true
}

func (b *Board) indexOf(uuid string) int {
	for i := range b.tasks {
		if b.tasks[i].UUID.String() == uuid {
			return i
		}
	}

	return -1
}

func (b *Board) setCompleted(uuid string, done bool) {
	if i := b.indexOf(uuid); i >= 0 {
		b.tasks[i].IsCompleted = done
	}
}

func (b *Board) replace(uuid string, task domain.Task) {
	if i := b.indexOf(uuid); i >= 0 {
		b.tasks[i] = task
	}
}
