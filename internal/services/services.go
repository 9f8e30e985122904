// Package services holds the list store's business rules: authorization by
// role, category memory, recipe expansion and event publication after every
// committed mutation.
package services

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrListNotFound       = errors.New("list not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrCollaboratorExists = errors.New("user is already a collaborator")
	ErrNotCollaborator    = errors.New("user is not a collaborator")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrImagesDisabled     = errors.New("image storage is not configured")
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SearchByUsername(ctx context.Context, query string, excludeID uint) ([]models.User, error)
}

type ListStore interface {
	Create(ctx context.Context, list *models.List) error
	FindByID(ctx context.Context, id uint) (*models.List, error)
	FindForUser(ctx context.Context, userID uint) ([]models.ListResponse, error)
	CountItems(ctx context.Context, listID uint) (int64, error)
	Update(ctx context.Context, list *models.List) error
	Delete(ctx context.Context, listID uint) error
	RoleFor(ctx context.Context, listID, userID uint) (string, error)
}

type CollaboratorStore interface {
	Add(ctx context.Context, collab *models.ListCollaborator) error
	UpdateRole(ctx context.Context, listID, userID uint, role string) error
	Remove(ctx context.Context, listID, userID uint) error
	FindByList(ctx context.Context, listID uint) ([]models.CollaboratorResponse, error)
}

type ItemStore interface {
	Create(ctx context.Context, item *models.Item) error
	CreateBatch(ctx context.Context, items []models.Item) error
	FindByID(ctx context.Context, listID, itemID uint) (*models.Item, error)
	FindByList(ctx context.Context, listID uint) ([]models.Item, error)
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, listID, itemID uint) error
	DeleteCompleted(ctx context.Context, listID uint) ([]models.Item, error)
}

type CategoryStore interface {
	Find(ctx context.Context, listID uint, itemName string) (string, error)
	FindByList(ctx context.Context, listID uint) ([]models.CategoryMapping, error)
	Upsert(ctx context.Context, listID uint, itemName, category string) error
}

type RecipeStore interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	FindByID(ctx context.Context, id uint) (*models.Recipe, error)
	FindByOwner(ctx context.Context, ownerID uint) ([]models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe) error
	SetImage(ctx context.Context, recipeID uint, url string) error
	Delete(ctx context.Context, recipeID uint) error
}

// ImageStore persists uploaded recipe images and returns their public URL.
type ImageStore interface {
	UploadImage(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
}

type TokenIssuer interface {
	IssueToken(user *models.User) (string, error)
}

// Permission is what a caller needs on a list.
type Permission int

const (
	PermView Permission = iota
	PermEdit
	PermManage
)

// Authorizer resolves a user's role on a list against a required permission.
type Authorizer interface {
	Authorize(ctx context.Context, userID, listID uint, need Permission) (string, error)
}

// publish hands the event to the realtime layer once the mutation is
// committed. Delivery problems are logged; they never fail the mutation.
func publish(ctx context.Context, publisher realtime.Publisher, listID uint, event realtime.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, listID, event); err != nil {
		slog.Warn("Failed to publish list event", "listID", listID, "type", event.EventType(), "error", err)
	}
}
