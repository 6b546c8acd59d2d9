package factory

import (
	"time"

	fab "github.com/Goldziher/fabricator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskmanager/internal/core/domain"
)

func NewUser[T any](customData ...map[string]any) T {
	instance := fab.New(*new(T))

	now := time.Now().UTC()

	defaults := map[string]any{
		"UUID":      uuid.New(),
		"Role":      domain.Member,
		"CreatedAt": now,
		"UpdatedAt": now,
	}

	hasEncryptedPassword := false

	for _, data := range customData {
		if _, exists := data["EncryptedPassword"]; exists {
			hasEncryptedPassword = true
			break
		}
	}

	if !hasEncryptedPassword {
		encryptedPassword, _ := bcrypt.GenerateFromPassword([]byte("12345678"), bcrypt.MinCost)
		defaults["EncryptedPassword"] = string(encryptedPassword)
	}

	return instance.Build(append([]map[string]any{defaults}, customData...)...)
}
