package domain

import (
	"fmt"
	"strings"
)

type View string

const (
	ViewActive  View = "active"
	ViewHistory View = "history"
	ViewAll     View = "all"
)

const PriorityAll = "all"

func ParseView(value string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(value))) {
	case "", ViewActive:
		return ViewActive, nil
	case ViewHistory:
		return ViewHistory, nil
	case ViewAll:
		return ViewAll, nil
	default:
		return "", fmt.Errorf("%w: invalid view: %s", ErrValidation, value)
	}
}

// TaskFilter narrows a task list. An empty Priority keeps every level.
type TaskFilter struct {
	View     View
	Priority Priority
	Search   string
}

func ParseTaskFilter(view, priority, search string) (TaskFilter, error) {
	v, err := ParseView(view)

	if err != nil {
		return TaskFilter{}, err
	}

	filter := TaskFilter{View: v, Search: strings.TrimSpace(search)}

	priority = strings.ToLower(strings.TrimSpace(priority))

	if priority == "" || priority == PriorityAll {
		return filter, nil
	}

	p, err := ParsePriority(priority)

	if err != nil {
		return TaskFilter{}, err
	}

	filter.Priority = p

	return filter, nil
}

func (f TaskFilter) Match(task Task) bool {
	switch f.View {
	case ViewHistory:
		if !task.IsCompleted {
			return false
		}
	case ViewAll:
	default:
		if task.IsCompleted {
			return false
		}
	}

	if f.Priority != "" && task.Priority != f.Priority {
		return false
	}

	query := strings.ToLower(strings.TrimSpace(f.Search))

	return query == "" || strings.Contains(strings.ToLower(task.Title), query)
}

// ApplyFilter never returns nil so an empty result still encodes as [].
func ApplyFilter(tasks []Task, filter TaskFilter) []Task {
	result := make([]Task, 0, len(tasks))

	for _, task := range tasks {
		if filter.Match(task) {
			result = append(result, task)
		}
	}

	return result
}
