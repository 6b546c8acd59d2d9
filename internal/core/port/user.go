package port

import (
	"context"

	"taskmanager/internal/core/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int) (domain.User, error)
	GetByUUID(ctx context.Context, uuid string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	// CreateWithProfile stores both records or neither.
	CreateWithProfile(ctx context.Context, user domain.User, profile domain.Profile) (domain.User, error)
	SaveProfile(ctx context.Context, profile domain.Profile) error
	GetProfile(ctx context.Context, userId int) (domain.Profile, error)
}

type UserService interface {
	GetUserByUUID(ctx context.Context, uuid string) (domain.User, error)
	Profile(ctx context.Context, userId int) (domain.Profile, error)
}
