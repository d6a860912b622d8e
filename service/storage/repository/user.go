package repository

import (
	"context"

	"github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/types"
)

type UserRepository interface {
	GetByID(ctx context.Context, id types.UserID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Search(ctx context.Context, query string) ([]*models.User, error)
	Save(ctx context.Context, user *models.User) error
}

func NewUserRepository(service *frame.Service) UserRepository {
	userRepo := userRepository{
		service: service,
	}
	return &userRepo
}

type userRepository struct {
	service *frame.Service
}

func (ur *userRepository) GetByID(ctx context.Context, id types.UserID) (*models.User, error) {
	user := &models.User{}
	err := ur.service.DB(ctx, true).First(user, " id = ?", string(id)).Error
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (ur *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := ur.service.DB(ctx, true).First(user, " email = ?", email).Error
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (ur *userRepository) Search(ctx context.Context, query string) ([]*models.User, error) {
	userList := make([]*models.User, 0)
	searchTerm := "%" + query + "%"

	err := ur.service.DB(ctx, true).
		Where("name LIKE ? OR email LIKE ?", searchTerm, searchTerm).
		Order("created_at ASC").
		Find(&userList).Error
	if err != nil {
		return nil, err
	}

	return userList, nil
}

func (ur *userRepository) Save(ctx context.Context, user *models.User) error {
	return ur.service.DB(ctx, false).Save(user).Error
}
