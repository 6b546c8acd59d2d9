package response

import (
	"time"

	"github.com/google/uuid"

	"taskmanager/internal/core/domain"
)

type UserResponse struct {
	UUID      string    `json:"uuid,omitempty"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type ProfileResponse struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Initial   string    `json:"initial"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         UserResponse `json:"user"`
}

type TaskResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Priority    string    `json:"priority"`
	IsCompleted bool      `json:"is_completed"`
	Date        time.Time `json:"date"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SectionResponse struct {
	Title string         `json:"title"`
	Data  []TaskResponse `json:"data"`
}

type MarkDoneResponse struct {
	Task          TaskResponse `json:"task"`
	UndoTicket    string       `json:"undo_ticket"`
	UndoExpiresAt time.Time    `json:"undo_expires_at"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ResponseError struct {
	Code    string            `json:"code"`
	Errors  []ValidationError `json:"errors"`
	Details any               `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}

func NewUserResponse(user domain.User) UserResponse {
	return UserResponse{
		UUID:      user.UUID.String(),
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func NewProfileResponse(profile domain.Profile) ProfileResponse {
	return ProfileResponse{
		UUID:      profile.UUID.String(),
		Name:      profile.Name,
		Email:     profile.Email,
		Initial:   profile.Initial(),
		CreatedAt: profile.CreatedAt,
	}
}

func NewSessionResponse(session domain.Session) SessionResponse {
	return SessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    session.ExpiresAt,
		User:         NewUserResponse(session.User),
	}
}

func NewTaskResponse(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.UUID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Priority:    task.Priority.String(),
		IsCompleted: task.IsCompleted,
		Date:        task.Date,
		UpdatedAt:   task.UpdatedAt,
	}
}

func NewTaskListResponse(tasks []domain.Task) []TaskResponse {
	data := make([]TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		data = append(data, NewTaskResponse(task))
	}

	return data
}

// NewSectionsResponse lists the non-empty buckets in Today, Tomorrow,
// This Week order.
func NewSectionsResponse(groups domain.Groups) []SectionResponse {
	sections := make([]SectionResponse, 0, len(domain.Buckets))

	for _, bucket := range domain.Buckets {
		tasks := groups.Get(bucket)

		if len(tasks) == 0 {
			continue
		}

		sections = append(sections, SectionResponse{
			Title: string(bucket),
			Data:  NewTaskListResponse(tasks),
		})
	}

	return sections
}
