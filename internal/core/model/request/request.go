package request

import "time"

type SignUpRequest struct {
	Name     string `json:"name,omitempty" validate:"required,min=2,max=100"`
	Email    string `json:"email,omitempty" validate:"required,email,max=255"`
	Password string `json:"password,omitempty" validate:"required,min=6,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email,omitempty" validate:"required,email,max=255"`
	Password string `json:"password,omitempty" validate:"required,min=6,max=100"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty" validate:"required"`
}

type TaskRequest struct {
	Title       string     `json:"title,omitempty" validate:"required,max=255"`
	Description string     `json:"description,omitempty" validate:"required,max=1000"`
	DueDate     *time.Time `json:"due_date,omitempty" validate:"required"`
	Priority    string     `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
}

type TaskPatchRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	IsCompleted *bool      `json:"is_completed,omitempty"`
}
