package handlers

import (
	"net/http"

	"shoplist-service/internal/models"
	"shoplist-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryService CategoryService
}

func NewCategoryHandler(categoryService CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// GetCategories godoc
// @Summary Get remembered categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Success 200 {array} models.CategoryMapping
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id}/categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	mappings, err := h.categoryService.GetCategories(c.Request.Context(), userID, listID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, mappings)
}

// SetCategory godoc
// @Summary Remember a category for an item name
// @Description Broadcasts category_updated
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param request body models.SetCategoryRequest true "Mapping"
// @Success 200 {object} models.CategoryUpdate
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /lists/{id}/categories [put]
func (h *CategoryHandler) SetCategory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.SetCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	update, err := h.categoryService.SetCategory(c.Request.Context(), userID, listID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, update)
}
