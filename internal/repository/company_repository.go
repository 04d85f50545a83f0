package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"gorm.io/gorm"
)

// CompanyFilters narrows admin company listings
type CompanyFilters struct {
	Type   domain.CompanyType
	Search string
}

// CompanyRepository handles database operations for companies
type CompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

// GetByID retrieves a company with its members
func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).
		Preload("Users", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) GetByNumber(ctx context.Context, number string) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).Where("company_number = ?", number).First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// FindByName looks up a company of the given type by case-insensitive name
func (r *CompanyRepository) FindByName(ctx context.Context, companyType domain.CompanyType, name string) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).
		Where("type = ? AND LOWER(name) = ?", companyType, strings.ToLower(strings.TrimSpace(name))).
		Order("created_at ASC").
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) List(ctx context.Context, filters CompanyFilters) ([]domain.Company, error) {
	var companies []domain.Company
	query := r.db.WithContext(ctx).Model(&domain.Company{})
	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}
	if filters.Search != "" {
		like := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(company_number) LIKE ?", like, like)
	}
	err := query.Order("company_number ASC").Find(&companies).Error
	return companies, err
}

// UpdateNumber changes the company number
func (r *CompanyRepository) UpdateNumber(ctx context.Context, id uuid.UUID, number string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Company{}).
		Where("id = ?", id).
		Update("company_number", number).Error
}

// DeleteByIDs removes companies; callers must repoint users first
func (r *CompanyRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Company{}).Error
}

// MaxNumericNumber returns the highest numeric suffix among numbers of the type
func (r *CompanyRepository) MaxNumericNumber(ctx context.Context, companyType domain.CompanyType) (int, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).
		Model(&domain.Company{}).
		Where("type = ?", companyType).
		Pluck("company_number", &numbers).Error; err != nil {
		return 0, err
	}
	max := 0
	for _, n := range numbers {
		if v, err := domain.ParseCompanyNumber(companyType, n); err == nil && v > max {
			max = v
		}
	}
	return max, nil
}
