package handlers

import (
	"net/http"

	"shoplist-service/internal/models"
	"shoplist-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type ItemHandler struct {
	itemService ItemService
}

func NewItemHandler(itemService ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// GetItems godoc
// @Summary Get a list's items
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Success 200 {array} models.ItemResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id}/items [get]
func (h *ItemHandler) GetItems(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.itemService.GetItems(c.Request.Context(), userID, listID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateItem godoc
// @Summary Add an item
// @Description Without a category the list's remembered category for the name is used. Broadcasts item_created.
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param request body models.CreateItemRequest true "Item"
// @Success 201 {object} models.ItemResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse "Viewers cannot add items"
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id}/items [post]
func (h *ItemHandler) CreateItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	item, err := h.itemService.CreateItem(c.Request.Context(), userID, listID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateItem godoc
// @Summary Update an item
// @Description Partial update. A category change is remembered and broadcast as category_updated. Broadcasts item_updated.
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param itemId path int true "Item ID"
// @Param request body models.UpdateItemRequest true "Changes"
// @Success 200 {object} models.ItemResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id}/items/{itemId} [put]
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	item, err := h.itemService.UpdateItem(c.Request.Context(), userID, listID, itemID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ToggleItem godoc
// @Summary Toggle an item's completed flag
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param itemId path int true "Item ID"
// @Success 200 {object} models.ItemResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id}/items/{itemId}/toggle [post]
func (h *ItemHandler) ToggleItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	item, err := h.itemService.ToggleItem(c.Request.Context(), userID, listID, itemID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem godoc
// @Summary Delete an item
// @Description Broadcasts item_deleted
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param itemId path int true "Item ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id}/items/{itemId} [delete]
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	if err := h.itemService.DeleteItem(c.Request.Context(), userID, listID, itemID); err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Item deleted"})
}

// ClearCompleted godoc
// @Summary Remove completed items
// @Description Broadcasts one item_deleted per removed item
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Success 200 {object} models.ClearCompletedResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id}/items/completed [delete]
func (h *ItemHandler) ClearCompleted(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	count, err := h.itemService.ClearCompleted(c.Request.Context(), userID, listID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ClearCompletedResponse{Count: count})
}
