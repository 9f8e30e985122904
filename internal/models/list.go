package models

import (
	"time"

	"gorm.io/gorm"
)

// Collaborator roles. The owner is implicit and never stored as a collaborator.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

/** --------------------ENTITIES-------------------- */
// List is a shopping list owned by one user and shared with collaborators
type List struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	OwnerID     uint   `gorm:"not null;index" json:"ownerId"`

	Owner         User               `gorm:"foreignKey:OwnerID" json:"-"`
	Items         []Item             `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Collaborators []ListCollaborator `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ListCollaborator grants a user a role on a list
type ListCollaborator struct {
	ListID    uint      `gorm:"primaryKey" json:"listId"`
	UserID    uint      `gorm:"primaryKey" json:"userId"`
	Role      string    `gorm:"not null;type:varchar(10);check:role IN ('editor', 'viewer')" json:"role"`
	CreatedAt time.Time `json:"createdAt"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

/** -------------------- DTOs -------------------- */
type CreateListRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

type UpdateListRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,max=100"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=500"`
}

type ListResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     uint      `json:"ownerId"`
	Role        string    `json:"role"` // caller's role on the list
	ItemCount   int64     `json:"itemCount"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type AddCollaboratorRequest struct {
	UserID uint   `json:"userId" binding:"required"`
	Role   string `json:"role" binding:"required,oneof=editor viewer"`
}

type UpdateCollaboratorRequest struct {
	Role string `json:"role" binding:"required,oneof=editor viewer"`
}

type CollaboratorResponse struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
