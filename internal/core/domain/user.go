package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

type UserRole string

const (
	Admin  UserRole = "admin"
	Member UserRole = "member"
)

type User struct {
	ID                int
	UUID              uuid.UUID
	Name              string `validate:"required,min=2,max=100"`
	Email             string `validate:"required,email,max=255"`
	EncryptedPassword string `validate:"required"`
	Role              UserRole
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) Initial() string {
	return initialOf(u.Name)
}

// Profile is the display record written once at sign up.
type Profile struct {
	UserID    int       `db:"user_id"`
	UUID      uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
}

func (p *Profile) Initial() string {
	return initialOf(p.Name)
}

func initialOf(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return string(unicode.ToUpper(r))
	}

	return "U"
}
