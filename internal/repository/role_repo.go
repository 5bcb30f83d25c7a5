package repository

import (
	"errors"
	"fmt"

	"tienda-backend/internal/models"

	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// FindByName finds a role by its unique name
func (r *RoleRepository) FindByName(name string) (*models.Role, error) {
	var role models.Role
	err := r.db.Where("name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find role by name: %w", err)
	}
	return &role, nil
}

// Assign assigns a role to a user. Assigning an already-held role is a no-op.
func (r *RoleRepository) Assign(userID, roleID uint) error {
	userRole := &models.UserRole{
		UserID: userID,
		RoleID: roleID,
	}
	// FirstOrCreate keeps the operation idempotent
	err := r.db.Where("user_id = ? AND role_id = ?", userID, roleID).
		FirstOrCreate(userRole).Error
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// RolesForUser retrieves all roles assigned to a user
func (r *RoleRepository) RolesForUser(userID uint) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.
		Joins("INNER JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name ASC").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("roles for user: %w", err)
	}
	return roles, nil
}
