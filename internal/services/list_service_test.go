package services

import (
	"context"
	"errors"
	"testing"

	"shoplist-service/internal/models"
)

func TestAuthorizeRoles(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  uint
		need    Permission
		wantErr error
	}{
		{"owner views", 1, PermView, nil},
		{"owner edits", 1, PermEdit, nil},
		{"owner manages", 1, PermManage, nil},
		{"editor views", 2, PermView, nil},
		{"editor edits", 2, PermEdit, nil},
		{"editor cannot manage", 2, PermManage, ErrForbidden},
		{"viewer views", 3, PermView, nil},
		{"viewer cannot edit", 3, PermEdit, ErrForbidden},
		{"stranger sees nothing", 4, PermView, ErrListNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.listService.Authorize(ctx, tt.userID, 1, tt.need)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := f.listService.Authorize(ctx, 1, 99, PermView); !errors.Is(err, ErrListNotFound) {
		t.Errorf("Expected ErrListNotFound for missing list, got %v", err)
	}
}

func TestCanView(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for userID, want := range map[uint]bool{1: true, 2: true, 3: true, 4: false} {
		got, err := f.listService.CanView(ctx, userID, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("User %d: expected %v, got %v", userID, want, got)
		}
	}

	if ok, err := f.listService.CanView(ctx, 1, 42); ok || err != nil {
		t.Errorf("Expected (false, nil) for missing list, got (%v, %v)", ok, err)
	}
}

func TestListCRUD(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.listService.CreateList(ctx, 4, &models.CreateListRequest{Name: "  Party  "})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if created.Name != "Party" || created.Role != models.RoleOwner {
		t.Errorf("Unexpected list %+v", created)
	}

	lists, err := f.listService.GetLists(ctx, 4)
	if err != nil || len(lists) != 1 {
		t.Fatalf("Expected 1 list for user 4, got %d (%v)", len(lists), err)
	}

	name := "Birthday party"
	if _, err := f.listService.UpdateList(ctx, 1, created.ID, &models.UpdateListRequest{Name: &name}); !errors.Is(err, ErrListNotFound) {
		t.Errorf("Expected stranger update to fail with ErrListNotFound, got %v", err)
	}
	updated, err := f.listService.UpdateList(ctx, 4, created.ID, &models.UpdateListRequest{Name: &name})
	if err != nil || updated.Name != name {
		t.Errorf("Expected rename, got %+v (%v)", updated, err)
	}

	if err := f.listService.DeleteList(ctx, 4, created.ID); err != nil {
		t.Errorf("Unexpected delete error: %v", err)
	}
	if _, err := f.listService.GetList(ctx, 4, created.ID); !errors.Is(err, ErrListNotFound) {
		t.Errorf("Expected deleted list to be gone, got %v", err)
	}
}

func TestCollaboratorManagement(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.listService.AddCollaborator(ctx, 2, 1, &models.AddCollaboratorRequest{UserID: 4, Role: models.RoleViewer}); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected editor to be forbidden, got %v", err)
	}

	collab, err := f.listService.AddCollaborator(ctx, 1, 1, &models.AddCollaboratorRequest{UserID: 4, Role: models.RoleViewer})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if collab.Username != "stranger" || collab.Role != models.RoleViewer {
		t.Errorf("Unexpected collaborator %+v", collab)
	}

	if _, err := f.listService.AddCollaborator(ctx, 1, 1, &models.AddCollaboratorRequest{UserID: 4, Role: models.RoleEditor}); !errors.Is(err, ErrCollaboratorExists) {
		t.Errorf("Expected ErrCollaboratorExists, got %v", err)
	}
	if _, err := f.listService.AddCollaborator(ctx, 1, 1, &models.AddCollaboratorRequest{UserID: 1, Role: models.RoleEditor}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected owner self-add to be invalid, got %v", err)
	}
	if _, err := f.listService.AddCollaborator(ctx, 1, 1, &models.AddCollaboratorRequest{UserID: 77, Role: models.RoleEditor}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}

	if err := f.listService.UpdateCollaborator(ctx, 1, 1, 4, &models.UpdateCollaboratorRequest{Role: models.RoleEditor}); err != nil {
		t.Errorf("Unexpected update error: %v", err)
	}
	if role, _ := f.lists.RoleFor(ctx, 1, 4); role != models.RoleEditor {
		t.Errorf("Expected editor role, got %q", role)
	}

	// A viewer may leave, but may not remove someone else.
	if err := f.listService.RemoveCollaborator(ctx, 3, 1, 2); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
	if err := f.listService.RemoveCollaborator(ctx, 3, 1, 3); err != nil {
		t.Errorf("Expected viewer to leave, got %v", err)
	}

	collaborators, err := f.listService.GetCollaborators(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(collaborators) != 2 {
		t.Errorf("Expected 2 collaborators, got %d", len(collaborators))
	}
}
