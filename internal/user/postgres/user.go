package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	trainingDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/training"
	userDatamodel "github.com/frahmantamala/training-records/internal/core/datamodel/user"
	"github.com/frahmantamala/training-records/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*userDatamodel.User, error) {
	query := r.db.WithContext(ctx).Model(&userDatamodel.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(nama) LIKE ? OR LOWER(username) LIKE ? OR nip LIKE ?", like, like, like)
	}

	var users []*userDatamodel.User
	err := query.Order("id ASC").Find(&users).Error
	return users, err
}

// Create relies on the unique indexes for username and nip. The gorm
// connection must be opened with TranslateError for the mapping to apply.
func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return user.ErrDuplicate
	}
	return err
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	result := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"password_hash": u.PasswordHash,
		"nama":          u.Nama,
		"pangkat":       u.Pangkat,
		"golongan":      u.Golongan,
		"jabatan":       u.Jabatan,
		"pendidikan":    u.Pendidikan,
		"role":          u.Role,
		"status":        u.Status,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}

// Delete drops the user's training records and the user in one transaction.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", id).Delete(&trainingDatamodel.Record{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&userDatamodel.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

func (r *UserRepository) ExistsByUsernameOrNIP(ctx context.Context, username, nip string) (bool, bool, error) {
	var usernameCount, nipCount int64
	if err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("username = ?", username).Count(&usernameCount).Error; err != nil {
		return false, false, err
	}
	if err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("nip = ?", nip).Count(&nipCount).Error; err != nil {
		return false, false, err
	}
	return usernameCount > 0, nipCount > 0, nil
}
