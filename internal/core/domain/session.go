package domain

import (
	"time"

	"github.com/google/uuid"
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

type Claims struct {
	TokenID   string
	UserID    int
	UserUUID  uuid.UUID
	Email     string
	Kind      TokenKind
	ExpiresAt time.Time
}

type Session struct {
	User         User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// UndoTicket lets the owner revert a completion until ExpiresAt.
type UndoTicket struct {
	ID        string
	UserId    int
	TaskUUID  uuid.UUID
	ExpiresAt time.Time
}

func (t UndoTicket) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
