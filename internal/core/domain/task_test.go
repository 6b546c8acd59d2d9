package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validTask() Task {
	return Task{
		Title:       "Buy milk",
		Description: "2 liters",
		DueDate:     time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Priority:    PriorityMedium,
	}
}

func TestTask_Validate(t *testing.T) {
	t.Run("should accept a complete task", func(t *testing.T) {
		task := validTask()

		assert.NoError(t, task.Validate())
	})

	t.Run("should reject a blank title", func(t *testing.T) {
		task := validTask()
		task.Title = "   "

		err := task.Validate()

		assert.True(t, errors.Is(err, ErrValidation))
		assert.Contains(t, err.Error(), "title")
	})

	t.Run("should reject a blank description", func(t *testing.T) {
		task := validTask()
		task.Description = "\t"

		assert.True(t, errors.Is(task.Validate(), ErrValidation))
	})

	t.Run("should reject an unknown priority", func(t *testing.T) {
		task := validTask()
		task.Priority = "urgent"

		assert.True(t, errors.Is(task.Validate(), ErrValidation))
	})

	t.Run("should reject a zero due date", func(t *testing.T) {
		task := validTask()
		task.DueDate = time.Time{}

		assert.True(t, errors.Is(task.Validate(), ErrValidation))
	})
}

func TestTaskPatch(t *testing.T) {
	t.Run("should report empty patches", func(t *testing.T) {
		assert.True(t, TaskPatch{}.IsEmpty())
		assert.False(t, CompletionPatch(true).IsEmpty())
	})

	t.Run("should only touch the provided fields", func(t *testing.T) {
		task := validTask()
		title := "  Buy bread "
		high := PriorityHigh

		changes := TaskPatch{Title: &title, Priority: &high}.Apply(&task)

		assert.Equal(t, "Buy bread", task.Title)
		assert.Equal(t, PriorityHigh, task.Priority)
		assert.Equal(t, "2 liters", task.Description)
		assert.Len(t, changes, 2)
	})

	t.Run("should flip the completion flag", func(t *testing.T) {
		task := validTask()

		CompletionPatch(true).Apply(&task)
		assert.True(t, task.IsCompleted)

		CompletionPatch(false).Apply(&task)
		assert.False(t, task.IsCompleted)
	})

	t.Run("should reject blank replacements", func(t *testing.T) {
		blank := ""

		assert.True(t, errors.Is(TaskPatch{Title: &blank}.Validate(), ErrValidation))
		assert.True(t, errors.Is(TaskPatch{Description: &blank}.Validate(), ErrValidation))
	})
}
