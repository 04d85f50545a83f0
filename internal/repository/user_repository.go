package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"gorm.io/gorm"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID retrieves a user with the company preloaded
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Company").Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmailAndRole retrieves the single account for an (email, role) pair
func (r *UserRepository) GetByEmailAndRole(ctx context.Context, email string, role domain.UserRole) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Preload("Company").
		Where("LOWER(email) = ? AND role = ?", normalizeEmail(email), role).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByEmail returns every account registered with an email address
func (r *UserRepository) ListByEmail(ctx context.Context, email string) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Preload("Company").
		Where("LOWER(email) = ?", normalizeEmail(email)).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *UserRepository) ExistsByEmailAndRole(ctx context.Context, email string, role domain.UserRole) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("LOWER(email) = ? AND role = ?", normalizeEmail(email), role).
		Count(&count).Error
	return count > 0, err
}

// List returns users, optionally filtered by role
func (r *UserRepository) List(ctx context.Context, role domain.UserRole, page, pageSize int) ([]domain.User, int64, error) {
	var users []domain.User
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := Paginate(query.Preload("Company"), page, pageSize).Order("created_at DESC").Find(&users).Error
	return users, total, err
}

// ListByRole returns every user with the role, oldest first
func (r *UserRepository) ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("created_at ASC").Find(&users).Error
	return users, err
}

// ListByIDs loads users by id
func (r *UserRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	var users []domain.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// FirstAdmin returns the earliest created admin
func (r *UserRepository) FirstAdmin(ctx context.Context) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("role = ?", domain.RoleAdmin).Order("created_at ASC").First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUserIDsByCompany returns the ids of every user linked to the company
func (r *UserRepository) ListUserIDsByCompany(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("company_id = ?", companyID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Omit("Company").Save(user).Error
}

// UpdateFields updates selected columns of a user
func (r *UserRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields).Error
}

// SetCompany links or unlinks the user and a company
func (r *UserRepository) SetCompany(ctx context.Context, id uuid.UUID, companyID *uuid.UUID) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"company_id": companyID})
}

// MoveCompany repoints every user of the source companies to target
func (r *UserRepository) MoveCompany(ctx context.Context, from []uuid.UUID, to uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("company_id IN ?", from).
		Updates(map[string]interface{}{"company_id": to, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id).Error
}

// MaxUserNumber returns the highest numeric user number in use
func (r *UserRepository) MaxUserNumber(ctx context.Context) (int, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Pluck("user_number", &numbers).Error; err != nil {
		return 0, err
	}
	max := 0
	for _, n := range numbers {
		if v, err := strconv.Atoi(n); err == nil && v > max {
			max = v
		}
	}
	return max, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
