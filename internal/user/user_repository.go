package user

import (
	"context"
	"errors"
	"fmt"

	"linkup/internal/common"
	"linkup/internal/dbmysql"

	"gorm.io/gorm"
)

// UserRepository is the user directory consumed by the messaging core. Only
// identity and display fields are needed here; registration and profile
// management live behind the REST layer.
type UserRepository interface {
	GetUserByID(ctx context.Context, userID string) (*dbmysql.User, error)
	DisplayName(ctx context.Context, userID string) (string, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetUserByID(ctx context.Context, userID string) (*dbmysql.User, error) {
	var user dbmysql.User
	err := r.db.WithContext(ctx).Where("user_id = ? AND status = ?", userID, "active").First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, common.ErrNotFound)
		}
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) DisplayName(ctx context.Context, userID string) (string, error) {
	user, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.DisplayName(), nil
}
