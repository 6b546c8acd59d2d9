package factory

import (
	"time"

	fab "github.com/Goldziher/fabricator"
	"github.com/google/uuid"

	"taskmanager/internal/core/domain"
)

// NewTask builds a medium priority open task due in one hour unless the
// overrides say otherwise.
func NewTask[T any](customData ...map[string]any) T {
	instance := fab.New(*new(T))

	now := time.Now().UTC()

	defaults := map[string]any{
		"UUID":        uuid.New(),
		"Title":       "Buy milk",
		"Description": "Two liters of whole milk",
		"DueDate":     now.Add(time.Hour),
		"Priority":    domain.PriorityMedium,
		"IsCompleted": false,
		"Date":        now,
		"CreatedAt":   now,
		"UpdatedAt":   now,
	}

	return instance.Build(append([]map[string]any{defaults}, customData...)...)
}
