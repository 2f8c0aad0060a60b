package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/snwareresearch/project-tracker/internal/auth"
	"github.com/snwareresearch/project-tracker/internal/core/common/database"
	userDatamodel "github.com/snwareresearch/project-tracker/internal/core/datamodel/user"
)

// Repository is the gorm-backed credential store.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

var _ auth.CredentialStore = (*Repository)(nil)

// FindByEmail looks the user up case-insensitively; inactive users are returned too.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", auth.NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, auth.ErrCredentialNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) Insert(ctx context.Context, user *userDatamodel.User) error {
	user.Email = auth.NormalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return auth.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// UpdatePassword replaces the hash of a single user atomically.
func (r *Repository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return auth.ErrCredentialNotFound
	}
	return nil
}
