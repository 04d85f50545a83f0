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

// UserService handles admin account management
type UserService struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	companyRepo *repository.CompanyRepository
	numbering   *NumberingService
	email       *EmailService
	logger      *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	companyRepo *repository.CompanyRepository,
	numbering *NumberingService,
	email *EmailService,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		db:          db,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		numbering:   numbering,
		email:       email,
		logger:      logger,
	}
}

// List returns a page of users, optionally filtered by role
func (s *UserService) List(ctx context.Context, role domain.UserRole, page, pageSize int) (*domain.PaginatedResponse, error) {
	if role != "" && !role.IsValid() {
		return nil, fmt.Errorf("%w: invalid role", ErrInvalidInput)
	}
	page, pageSize = repository.NormalizePage(page, pageSize)

	users, total, err := s.userRepo.List(ctx, role, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return paginated(mapper.ToUserDTOs(users), total, page, pageSize), nil
}

// checkCompanyForRole verifies that a company exists and matches the role
func (s *UserService) checkCompanyForRole(ctx context.Context, companyID uuid.UUID, role domain.UserRole) error {
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCompanyNotFound
		}
		return fmt.Errorf("failed to get company: %w", err)
	}
	if role == domain.RoleAdmin || company.Type != domain.CompanyTypeForRole(role) {
		return ErrUserCompanyTypeMismatch
	}
	return nil
}

// Create adds a verified account with a temporary password that must be
// changed on first login, and emails the credentials
func (s *UserService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.userRepo.ExistsByEmailAndRole(ctx, email, req.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if exists {
		return nil, ErrDuplicateAccount
	}
	if req.CompanyID != nil {
		if err := s.checkCompanyForRole(ctx, *req.CompanyID, req.Role); err != nil {
			return nil, err
		}
	}

	hash, err := auth.HashPassword(req.TemporaryPassword)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:             email,
		Role:              req.Role,
		Name:              strings.TrimSpace(req.Name),
		Phone:             req.Phone,
		PasswordHash:      hash,
		CompanyID:         req.CompanyID,
		IsVerified:        true,
		MustResetPassword: true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.numbering.WithTx(tx).NextUserNumber(ctx)
		if err != nil {
			return err
		}
		user.UserNumber = number
		if err := repository.NewUserRepository(tx).Create(ctx, user); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateAccount
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created by admin",
		zap.String("userID", user.ID.String()),
		zap.String("role", string(user.Role)))

	s.email.SendWelcome(ctx, user, req.TemporaryPassword)

	created, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	dto := mapper.ToUserDTO(created)
	return &dto, nil
}

// Delete removes an account. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if userCtx, ok := auth.FromContext(ctx); ok && userCtx.UserID == id {
		return ErrCannotDeleteSelf
	}
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserHasRecords
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("user deleted", zap.String("userID", id.String()))
	return nil
}

// SetCompany links a user to a company of the matching type, or unlinks it
func (s *UserService) SetCompany(ctx context.Context, id uuid.UUID, companyID *uuid.UUID) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if companyID != nil {
		if err := s.checkCompanyForRole(ctx, *companyID, user.Role); err != nil {
			return nil, err
		}
	}
	if err := s.userRepo.SetCompany(ctx, id, companyID); err != nil {
		return nil, fmt.Errorf("failed to update user company: %w", err)
	}

	updated, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	dto := mapper.ToUserDTO(updated)
	return &dto, nil
}
