package repository

import (
	"context"
	"fmt"
	"strings"

	"go-gin-event-booking/internal/model"
	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/google/uuid"
)

// ParseSeedUsers 解析 "uuid=email,uuid=email" 格式的使用者清單（SEED_USERS）
func ParseSeedUsers(s string) ([]model.User, error) {
	var users []model.User
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		rawID, email, ok := strings.Cut(entry, "=")
		email = strings.TrimSpace(email)
		if !ok || email == "" {
			return nil, fmt.Errorf("%w: seed user %q must be uuid=email", apperrors.ErrInvalidInput, entry)
		}
		id, err := uuid.Parse(strings.TrimSpace(rawID))
		if err != nil {
			return nil, fmt.Errorf("%w: seed user %q: %v", apperrors.ErrInvalidInput, entry, err)
		}
		users = append(users, model.User{ID: id, Email: email})
	}
	return users, nil
}

// SeedUsers 把使用者寫進 repository，memory 後端啟動時用來提供通知收件者
func SeedUsers(ctx context.Context, repo UserRepository, users []model.User) error {
	for i := range users {
		if _, err := repo.Create(ctx, &users[i]); err != nil {
			return fmt.Errorf("seed user %s: %w", users[i].ID, err)
		}
	}
	return nil
}
