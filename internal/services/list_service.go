package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"shoplist-service/internal/models"
	"shoplist-service/internal/repositories/postgres"
)

type ListService struct {
	lists         ListStore
	collaborators CollaboratorStore
	users         UserStore
}

func NewListService(lists ListStore, collaborators CollaboratorStore, users UserStore) *ListService {
	return &ListService{lists: lists, collaborators: collaborators, users: users}
}

// Authorize returns the caller's role when it satisfies need. Owners may do
// everything, editors may change items, viewers may only read.
func (s *ListService) Authorize(ctx context.Context, userID, listID uint, need Permission) (string, error) {
	role, err := s.lists.RoleFor(ctx, listID, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return "", ErrListNotFound
		}
		return "", fmt.Errorf("failed to resolve list role: %w", err)
	}
	if role == "" {
		// Lists the caller cannot see are reported as missing.
		return "", ErrListNotFound
	}

	switch need {
	case PermView:
	case PermEdit:
		if role != models.RoleOwner && role != models.RoleEditor {
			return role, ErrForbidden
		}
	case PermManage:
		if role != models.RoleOwner {
			return role, ErrForbidden
		}
	}
	return role, nil
}

// CanView reports whether the user owns or collaborates on the list.
func (s *ListService) CanView(ctx context.Context, userID, listID uint) (bool, error) {
	_, err := s.Authorize(ctx, userID, listID, PermView)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrListNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *ListService) CreateList(ctx context.Context, ownerID uint, req *models.CreateListRequest) (*models.ListResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidRequest
	}

	list := models.List{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		OwnerID:     ownerID,
	}
	if err := s.lists.Create(ctx, &list); err != nil {
		return nil, err
	}

	slog.Info("List created", "listID", list.ID, "ownerID", ownerID)
	return toListResponse(&list, models.RoleOwner, 0), nil
}

func (s *ListService) GetLists(ctx context.Context, userID uint) ([]models.ListResponse, error) {
	lists, err := s.lists.FindForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []models.ListResponse{}
	}
	return lists, nil
}

func (s *ListService) GetList(ctx context.Context, userID, listID uint) (*models.ListResponse, error) {
	role, err := s.Authorize(ctx, userID, listID, PermView)
	if err != nil {
		return nil, err
	}
	list, err := s.findList(ctx, listID)
	if err != nil {
		return nil, err
	}
	count, err := s.lists.CountItems(ctx, listID)
	if err != nil {
		return nil, err
	}
	return toListResponse(list, role, count), nil
}

func (s *ListService) UpdateList(ctx context.Context, userID, listID uint, req *models.UpdateListRequest) (*models.ListResponse, error) {
	if _, err := s.Authorize(ctx, userID, listID, PermManage); err != nil {
		return nil, err
	}
	list, err := s.findList(ctx, listID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidRequest
		}
		list.Name = name
	}
	if req.Description != nil {
		list.Description = strings.TrimSpace(*req.Description)
	}

	if err := s.lists.Update(ctx, list); err != nil {
		return nil, err
	}
	count, err := s.lists.CountItems(ctx, listID)
	if err != nil {
		return nil, err
	}
	return toListResponse(list, models.RoleOwner, count), nil
}

func (s *ListService) DeleteList(ctx context.Context, userID, listID uint) error {
	if _, err := s.Authorize(ctx, userID, listID, PermManage); err != nil {
		return err
	}
	if err := s.lists.Delete(ctx, listID); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return ErrListNotFound
		}
		return err
	}
	slog.Info("List deleted", "listID", listID, "userID", userID)
	return nil
}

func (s *ListService) GetCollaborators(ctx context.Context, userID, listID uint) ([]models.CollaboratorResponse, error) {
	if _, err := s.Authorize(ctx, userID, listID, PermView); err != nil {
		return nil, err
	}
	collaborators, err := s.collaborators.FindByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if collaborators == nil {
		collaborators = []models.CollaboratorResponse{}
	}
	return collaborators, nil
}

func (s *ListService) AddCollaborator(ctx context.Context, userID, listID uint, req *models.AddCollaboratorRequest) (*models.CollaboratorResponse, error) {
	if _, err := s.Authorize(ctx, userID, listID, PermManage); err != nil {
		return nil, err
	}
	if !validCollaboratorRole(req.Role) || req.UserID == userID {
		return nil, ErrInvalidRequest
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	err = s.collaborators.Add(ctx, &models.ListCollaborator{ListID: listID, UserID: user.ID, Role: req.Role})
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, ErrCollaboratorExists
		}
		return nil, err
	}

	slog.Info("Collaborator added", "listID", listID, "userID", user.ID, "role", req.Role)
	return &models.CollaboratorResponse{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     req.Role,
	}, nil
}

func (s *ListService) UpdateCollaborator(ctx context.Context, userID, listID, collaboratorID uint, req *models.UpdateCollaboratorRequest) error {
	if _, err := s.Authorize(ctx, userID, listID, PermManage); err != nil {
		return err
	}
	if !validCollaboratorRole(req.Role) {
		return ErrInvalidRequest
	}
	if err := s.collaborators.UpdateRole(ctx, listID, collaboratorID, req.Role); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return ErrNotCollaborator
		}
		return err
	}
	return nil
}

// RemoveCollaborator lets the owner remove anyone, and lets a collaborator
// leave the list on their own.
func (s *ListService) RemoveCollaborator(ctx context.Context, userID, listID, collaboratorID uint) error {
	need := PermManage
	if userID == collaboratorID {
		need = PermView
	}
	if _, err := s.Authorize(ctx, userID, listID, need); err != nil {
		return err
	}
	if err := s.collaborators.Remove(ctx, listID, collaboratorID); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return ErrNotCollaborator
		}
		return err
	}
	slog.Info("Collaborator removed", "listID", listID, "userID", collaboratorID)
	return nil
}

func (s *ListService) findList(ctx context.Context, listID uint) (*models.List, error) {
	list, err := s.lists.FindByID(ctx, listID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, ErrListNotFound
		}
		return nil, err
	}
	return list, nil
}

func validCollaboratorRole(role string) bool {
	return role == models.RoleEditor || role == models.RoleViewer
}

func toListResponse(list *models.List, role string, itemCount int64) *models.ListResponse {
	return &models.ListResponse{
		ID:          list.ID,
		Name:        list.Name,
		Description: list.Description,
		OwnerID:     list.OwnerID,
		Role:        role,
		ItemCount:   itemCount,
		UpdatedAt:   list.UpdatedAt,
	}
}
