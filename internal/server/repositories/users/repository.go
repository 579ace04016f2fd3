package users

import (
	"context"

	"github.com/dmitrijs2005/messenger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, saltedPassword string) error
	Delete(ctx context.Context, id string) error
}
