package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/mapper"
	"github.com/valisyam/shub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompanyService handles business logic for customer and supplier companies
type CompanyService struct {
	db          *gorm.DB
	companyRepo *repository.CompanyRepository
	userRepo    *repository.UserRepository
	numbering   *NumberingService
	logger      *zap.Logger
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(
	db *gorm.DB,
	companyRepo *repository.CompanyRepository,
	userRepo *repository.UserRepository,
	numbering *NumberingService,
	logger *zap.Logger,
) *CompanyService {
	return &CompanyService{
		db:          db,
		companyRepo: companyRepo,
		userRepo:    userRepo,
		numbering:   numbering,
		logger:      logger,
	}
}

// List returns companies filtered by type and a name or number search
func (s *CompanyService) List(ctx context.Context, filters repository.CompanyFilters) ([]domain.CompanyDTO, error) {
	companies, err := s.companyRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return mapper.ToCompanyDTOs(companies), nil
}

// GetByID returns a company with its members
func (s *CompanyService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CompanyDTO, error) {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	dto := mapper.ToCompanyDTO(company)
	return &dto, nil
}

// GetMyCompany returns the caller's company with its members
func (s *CompanyService) GetMyCompany(ctx context.Context) (*domain.CompanyDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if userCtx.CompanyID == nil {
		return nil, ErrCompanyNotFound
	}
	return s.GetByID(ctx, *userCtx.CompanyID)
}

// Create adds a company with the next number of its type
func (s *CompanyService) Create(ctx context.Context, req *domain.CreateCompanyRequest) (*domain.CompanyDTO, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: invalid company type", ErrInvalidInput)
	}

	company := &domain.Company{
		Type:    req.Type,
		Name:    strings.TrimSpace(req.Name),
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		Country: req.Country,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.numbering.WithTx(tx).NextCompanyNumber(ctx, req.Type)
		if err != nil {
			return err
		}
		company.CompanyNumber = number
		return repository.NewCompanyRepository(tx).Create(ctx, company)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	s.logger.Info("company created",
		zap.String("companyID", company.ID.String()),
		zap.String("number", company.CompanyNumber))

	dto := mapper.ToCompanyDTO(company)
	return &dto, nil
}

// AssignNumber sets a manual company number. The number must match the
// company type and be unused.
func (s *CompanyService) AssignNumber(ctx context.Context, id uuid.UUID, number string) (*domain.CompanyDTO, error) {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	number = strings.ToUpper(strings.TrimSpace(number))
	seq, err := domain.ParseCompanyNumber(company.Type, number)
	if err != nil {
		return nil, ErrInvalidCompanyNumber
	}

	existing, err := s.companyRepo.GetByNumber(ctx, number)
	if err == nil && existing.ID != company.ID {
		return nil, ErrCompanyNumberTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check company number: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewCompanyRepository(tx).UpdateNumber(ctx, id, number); err != nil {
			return err
		}
		return s.numbering.WithTx(tx).RaiseCompanyCounter(ctx, company.Type, seq)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCompanyNumberTaken
		}
		return nil, fmt.Errorf("failed to update company number: %w", err)
	}

	s.logger.Info("company number assigned",
		zap.String("companyID", id.String()),
		zap.String("number", number))

	return s.GetByID(ctx, id)
}

// Merge moves every user of the secondary companies to the primary and
// deletes the secondaries in one transaction
func (s *CompanyService) Merge(ctx context.Context, req *domain.MergeCompaniesRequest) (*domain.CompanyDTO, error) {
	for _, id := range req.SecondaryIDs {
		if id == req.PrimaryID {
			return nil, ErrMergeIncludesPrimary
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		companies := repository.NewCompanyRepository(tx)
		users := repository.NewUserRepository(tx)

		primary, err := companies.GetByID(ctx, req.PrimaryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCompanyNotFound
			}
			return err
		}
		for _, id := range req.SecondaryIDs {
			secondary, err := companies.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCompanyNotFound
				}
				return err
			}
			if secondary.Type != primary.Type {
				return ErrCompanyTypeMismatch
			}
		}

		moved, err := users.MoveCompany(ctx, req.SecondaryIDs, primary.ID)
		if err != nil {
			return fmt.Errorf("failed to move users: %w", err)
		}
		if err := companies.DeleteByIDs(ctx, req.SecondaryIDs); err != nil {
			return fmt.Errorf("failed to delete merged companies: %w", err)
		}

		s.logger.Info("companies merged",
			zap.String("primaryID", primary.ID.String()),
			zap.Int("merged", len(req.SecondaryIDs)),
			zap.Int64("usersMoved", moved))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, req.PrimaryID)
}
