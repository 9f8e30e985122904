package handlers

import (
	"fmt"
	"net/http"

	"shoplist-service/internal/models"
	"shoplist-service/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxImageSize = 5 << 20

type RecipeHandler struct {
	recipeService RecipeService
}

func NewRecipeHandler(recipeService RecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService}
}

// GetRecipes godoc
// @Summary Get the caller's recipes
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.RecipeResponse
// @Router /recipes [get]
func (h *RecipeHandler) GetRecipes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recipes, err := h.recipeService.GetRecipes(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// CreateRecipe godoc
// @Summary Create a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.RecipeRequest true "Recipe"
// @Success 201 {object} models.RecipeResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /recipes [post]
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), userID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// GetRecipe godoc
// @Summary Get a recipe
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 200 {object} models.RecipeResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /recipes/{id} [get]
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), userID, recipeID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// UpdateRecipe godoc
// @Summary Replace a recipe
// @Description Ingredients are replaced as a whole
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Param request body models.RecipeRequest true "Recipe"
// @Success 200 {object} models.RecipeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /recipes/{id} [put]
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), userID, recipeID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /recipes/{id} [delete]
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recipeService.DeleteRecipe(c.Request.Context(), userID, recipeID); err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Recipe deleted"})
}

// UploadImage godoc
// @Summary Upload a recipe image
// @Description Multipart upload in the "image" field, up to 5 MiB
// @Tags recipes
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Param image formData file true "Image file"
// @Success 200 {object} models.RecipeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse "Image storage not configured"
// @Router /recipes/{id}/image [post]
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, err)
		return
	}
	if header.Size > maxImageSize {
		response.Error(c, http.StatusBadRequest, fmt.Sprintf("image exceeds %d bytes", maxImageSize))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, err)
		return
	}
	defer file.Close()

	recipe, err := h.recipeService.UploadImage(c.Request.Context(), userID, recipeID,
		header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// AddToList godoc
// @Summary Add a recipe's ingredients to a list
// @Description Broadcasts items_added with any category updates
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param recipeId path int true "Recipe ID"
// @Success 201 {object} models.AddRecipeResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id}/recipes/{recipeId} [post]
func (h *RecipeHandler) AddToList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	recipeID, ok := pathID(c, "recipeId")
	if !ok {
		return
	}
	result, err := h.recipeService.AddToList(c.Request.Context(), userID, listID, recipeID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
