// Package store adapts gorm to the collaborator interfaces consumed by the
// service layer
package store

import (
	"context"
	"errors"

	"blogapi/internal/model"

	"gorm.io/gorm"
)

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// FindByEmail returns nil without an error when no user owns the address
func (s *Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User

	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &user, nil
}

func (s *Users) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	return s.db.WithContext(ctx).
		Model(model.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash).
		Error
}
