package handlers

import (
	"net/http"

	"shoplist-service/internal/models"
	"shoplist-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type ListHandler struct {
	listService ListService
}

func NewListHandler(listService ListService) *ListHandler {
	return &ListHandler{listService: listService}
}

// GetLists godoc
// @Summary Get the caller's lists
// @Description Lists the caller owns or collaborates on, with the caller's role
// @Tags lists
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ListResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /lists [get]
func (h *ListHandler) GetLists(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	lists, err := h.listService.GetLists(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

// CreateList godoc
// @Summary Create a list
// @Tags lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateListRequest true "List data"
// @Success 201 {object} models.ListResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /lists [post]
func (h *ListHandler) CreateList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	list, err := h.listService.CreateList(c.Request.Context(), userID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// GetList godoc
// @Summary Get a list
// @Tags lists
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Success 200 {object} models.ListResponse
// @Failure 404 {object} models.ErrorResponse "List not found or not shared with the caller"
// @Router /lists/{id} [get]
func (h *ListHandler) GetList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.listService.GetList(c.Request.Context(), userID, listID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateList godoc
// @Summary Rename or describe a list
// @Description Owner only
// @Tags lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param request body models.UpdateListRequest true "Changes"
// @Success 200 {object} models.ListResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id} [put]
func (h *ListHandler) UpdateList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	list, err := h.listService.UpdateList(c.Request.Context(), userID, listID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// DeleteList godoc
// @Summary Delete a list
// @Description Owner only; removes items and collaborators with it
// @Tags lists
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id} [delete]
func (h *ListHandler) DeleteList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.listService.DeleteList(c.Request.Context(), userID, listID); err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "List deleted"})
}

// GetCollaborators godoc
// @Summary List collaborators
// @Tags collaborators
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Success 200 {array} models.CollaboratorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id}/collaborators [get]
func (h *ListHandler) GetCollaborators(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	collaborators, err := h.listService.GetCollaborators(c.Request.Context(), userID, listID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, collaborators)
}

// AddCollaborator godoc
// @Summary Share a list
// @Description Owner only. Role is editor or viewer.
// @Tags collaborators
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param request body models.AddCollaboratorRequest true "Collaborator"
// @Success 201 {object} models.CollaboratorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Already a collaborator"
// @Router /lists/{id}/collaborators [post]
func (h *ListHandler) AddCollaborator(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.AddCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	collab, err := h.listService.AddCollaborator(c.Request.Context(), userID, listID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, collab)
}

// UpdateCollaborator godoc
// @Summary Change a collaborator's role
// @Tags collaborators
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param userId path int true "Collaborator user ID"
// @Param request body models.UpdateCollaboratorRequest true "Role"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id}/collaborators/{userId} [put]
func (h *ListHandler) UpdateCollaborator(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	collaboratorID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req models.UpdateCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.listService.UpdateCollaborator(c.Request.Context(), userID, listID, collaboratorID, &req); err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Collaborator updated"})
}

// RemoveCollaborator godoc
// @Summary Remove a collaborator or leave a list
// @Description The owner may remove anyone; a collaborator may remove themselves
// @Tags collaborators
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param userId path int true "Collaborator user ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id}/collaborators/{userId} [delete]
func (h *ListHandler) RemoveCollaborator(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	collaboratorID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if err := h.listService.RemoveCollaborator(c.Request.Context(), userID, listID, collaboratorID); err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Collaborator removed"})
}
