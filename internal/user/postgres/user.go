package postgres

import (
	"context"
	"encoding/json"
	"strings"

	"gorm.io/gorm"

	"github.com/snwareresearch/project-tracker/internal/core/common/database"
	userDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/user"
	"github.com/snwareresearch/project-tracker/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Update applies changes in one statement and returns the stored row.
func (r *UserRepository) Update(ctx context.Context, id string, changes user.Changes) (*userDatamodel.User, error) {
	var updated userDatamodel.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{}
		if changes.Role != nil {
			fields["role"] = string(*changes.Role)
		}
		if changes.IsActive != nil {
			fields["is_active"] = *changes.IsActive
		}
		if changes.Department != nil {
			// map updates bypass the json serializer on the model
			encoded, err := json.Marshal(changes.Department)
			if err != nil {
				return err
			}
			fields["department"] = string(encoded)
		}
		if len(fields) > 0 {
			res := tx.Model(&userDatamodel.User{}).Where("id = ?", id).Updates(fields)
			if res.Error != nil {
				return res.Error
			}
		}
		if err := tx.Where("id = ?", id).First(&updated).Error; err != nil {
			if database.IsNotFound(err) {
				return user.ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListActiveInDepartment narrows by a substring of the stored department
// list; callers re-check the match against the decoded departments.
func (r *UserRepository) ListActiveInDepartment(ctx context.Context, department string) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("LOWER(department) LIKE ?", "%"+strings.ToLower(department)+"%").
		Order("name ASC").
		Find(&users).Error
	return users, err
}
