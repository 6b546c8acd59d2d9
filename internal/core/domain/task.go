package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          int
	UUID        uuid.UUID
	Title       string    `validate:"required,max=255"`
	Description string    `validate:"required,max=1000"`
	DueDate     time.Time `validate:"required"`
	Priority    Priority  `validate:"required,oneof=low medium high"`
	IsCompleted bool
	Date        time.Time
	UserId      int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// Validate applies the add form rules: title and description must be
// non-empty after trimming and the priority one of the known levels.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}

	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}

	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority: %s", ErrValidation, t.Priority)
	}

	if t.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrValidation)
	}

	return nil
}

func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

func (t *Task) BelongsTo(userId int) bool {
	return t.UserId == userId
}

func (t *Task) ToMap() map[string]any {
	return map[string]any{
		"title":        t.Title,
		"description":  t.Description,
		"due_date":     t.DueDate.UTC(),
		"priority":     string(t.Priority),
		"is_completed": t.IsCompleted,
		"updated_at":   t.UpdatedAt.UTC(),
	}
}

// TaskPatch carries a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *Priority
	IsCompleted *bool
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && p.Priority == nil && p.IsCompleted == nil
}

func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return fmt.Errorf("%w: description must not be empty", ErrValidation)
	}

	if p.Priority != nil && !p.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority: %s", ErrValidation, *p.Priority)
	}

	if p.DueDate != nil && p.DueDate.IsZero() {
		return fmt.Errorf("%w: due date must be a valid time", ErrValidation)
	}

	return nil
}

// Apply merges the patch into t and returns the changed column values.
func (p TaskPatch) Apply(t *Task) map[string]any {
	changes := make(map[string]any)

	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
		changes["title"] = t.Title
	}

	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
		changes["description"] = t.Description
	}

	if p.DueDate != nil {
		t.DueDate = p.DueDate.UTC()
		changes["due_date"] = t.DueDate
	}

	if p.Priority != nil {
		t.Priority = *p.Priority
		changes["priority"] = string(t.Priority)
	}

	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
		changes["is_completed"] = t.IsCompleted
	}

	return changes
}

func CompletionPatch(done bool) TaskPatch {
	return TaskPatch{IsCompleted: &done}
}
