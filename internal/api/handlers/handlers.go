// Package handlers holds the gin handlers for the REST and streaming API.
package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"shoplist-service/internal/api/middleware"
	"shoplist-service/internal/models"
	"shoplist-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.UserResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uint, req *models.UpdateProfileRequest) (*models.UserResponse, error)
	SearchUsers(ctx context.Context, callerID uint, query string) ([]models.UserResponse, error)
}

type ListService interface {
	CreateList(ctx context.Context, ownerID uint, req *models.CreateListRequest) (*models.ListResponse, error)
	GetLists(ctx context.Context, userID uint) ([]models.ListResponse, error)
	GetList(ctx context.Context, userID, listID uint) (*models.ListResponse, error)
	UpdateList(ctx context.Context, userID, listID uint, req *models.UpdateListRequest) (*models.ListResponse, error)
	DeleteList(ctx context.Context, userID, listID uint) error
	GetCollaborators(ctx context.Context, userID, listID uint) ([]models.CollaboratorResponse, error)
	AddCollaborator(ctx context.Context, userID, listID uint, req *models.AddCollaboratorRequest) (*models.CollaboratorResponse, error)
	UpdateCollaborator(ctx context.Context, userID, listID, collaboratorID uint, req *models.UpdateCollaboratorRequest) error
	RemoveCollaborator(ctx context.Context, userID, listID, collaboratorID uint) error
}

type ItemService interface {
	GetItems(ctx context.Context, userID, listID uint) ([]models.ItemResponse, error)
	CreateItem(ctx context.Context, userID, listID uint, req *models.CreateItemRequest) (*models.ItemResponse, error)
	UpdateItem(ctx context.Context, userID, listID, itemID uint, req *models.UpdateItemRequest) (*models.ItemResponse, error)
	ToggleItem(ctx context.Context, userID, listID, itemID uint) (*models.ItemResponse, error)
	DeleteItem(ctx context.Context, userID, listID, itemID uint) error
	ClearCompleted(ctx context.Context, userID, listID uint) (int, error)
}

type CategoryService interface {
	GetCategories(ctx context.Context, userID, listID uint) ([]models.CategoryMapping, error)
	SetCategory(ctx context.Context, userID, listID uint, req *models.SetCategoryRequest) (*models.CategoryUpdate, error)
}

type RecipeService interface {
	CreateRecipe(ctx context.Context, ownerID uint, req *models.RecipeRequest) (*models.RecipeResponse, error)
	GetRecipes(ctx context.Context, ownerID uint) ([]models.RecipeResponse, error)
	GetRecipe(ctx context.Context, ownerID, recipeID uint) (*models.RecipeResponse, error)
	UpdateRecipe(ctx context.Context, ownerID, recipeID uint, req *models.RecipeRequest) (*models.RecipeResponse, error)
	DeleteRecipe(ctx context.Context, ownerID, recipeID uint) error
	UploadImage(ctx context.Context, ownerID, recipeID uint, filename, contentType string, body io.Reader, size int64) (*models.RecipeResponse, error)
	AddToList(ctx context.Context, userID, listID, recipeID uint) (*models.AddRecipeResponse, error)
}

// currentUser reads the id set by the auth middleware, aborting with 401 when
// it is missing.
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return userID, true
}

// pathID parses a positive numeric path parameter, aborting with 400 otherwise.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
