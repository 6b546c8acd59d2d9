package service

import (
	"context"
	"time"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
	"taskmanager/internal/core/telemetry"
)

type UserService struct {
	repo      port.UserRepository
	telemetry port.Telemetry
}

func NewUserService(repo port.UserRepository, probe port.Telemetry) *UserService {
	if probe == nil {
		probe = telemetry.NewNoOpProbe()
	}

	return &UserService{repo: repo, telemetry: probe}
}

func (u *UserService) GetUserByUUID(ctx context.Context, uuid string) (domain.User, error) {
	user, err := u.repo.GetByUUID(ctx, uuid)

	if err != nil {
		return domain.User{}, err
	}

	return user, nil
}

func (u *UserService) Profile(ctx context.Context, userId int) (profile domain.Profile, err error) {
	ctx, span := u.telemetry.StartServiceSpan(ctx, "user", "Profile", userId, nil)
	defer finish(ctx, u.telemetry, span, "user", "Profile", userId, time.Now(), &err)

	return u.repo.GetProfile(ctx, userId)
}
