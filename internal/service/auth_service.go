package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/config"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/mapper"
	"github.com/valisyam/shub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	codeDigits = 6
	// maxCodeAttempts wrong guesses void a verification or reset code
	maxCodeAttempts = 5
)

// AuthService handles self-registration, login and password recovery
type AuthService struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	pendingRepo *repository.PendingRegistrationRepository
	numbering   *NumberingService
	tokens      *auth.TokenManager
	email       *EmailService
	cfg         *config.AuthConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	pendingRepo *repository.PendingRegistrationRepository,
	numbering *NumberingService,
	tokens *auth.TokenManager,
	email *EmailService,
	cfg *config.AuthConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		db:          db,
		userRepo:    userRepo,
		pendingRepo: pendingRepo,
		numbering:   numbering,
		tokens:      tokens,
		email:       email,
		cfg:         cfg,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// deliverCode sends an account code. Only a missing mailer is reported to the
// caller; delivery failures are logged.
func (s *AuthService) deliverCode(err error, email string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrEmailUnavailable) {
		return err
	}
	s.logger.Warn("failed to deliver account code", zap.String("email", email), zap.Error(err))
	return nil
}

// Register stores a pending registration and emails a verification code.
// The account is only created by VerifyEmail.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) error {
	email := normalizeEmail(req.Email)
	if req.Role != domain.RoleCustomer && req.Role != domain.RoleSupplier {
		return fmt.Errorf("%w: role must be customer or supplier", ErrInvalidInput)
	}

	exists, err := s.userRepo.ExistsByEmailAndRole(ctx, email, req.Role)
	if err != nil {
		return fmt.Errorf("failed to check existing account: %w", err)
	}
	if exists {
		return ErrDuplicateAccount
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}
	code, err := auth.GenerateCode(codeDigits)
	if err != nil {
		return err
	}

	pending := &domain.PendingRegistration{
		Email:        email,
		Role:         req.Role,
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		CompanyName:  strings.TrimSpace(req.CompanyName),
		PasswordHash: hash,
		Code:         code,
		ExpiresAt:    s.now().Add(s.cfg.VerificationCodeTTL()),
	}
	if err := s.pendingRepo.Upsert(ctx, pending); err != nil {
		return fmt.Errorf("failed to store registration: %w", err)
	}

	s.logger.Info("registration pending verification",
		zap.String("email", email),
		zap.String("role", string(req.Role)))

	return s.deliverCode(s.email.SendVerificationCode(ctx, email, pending.Name, code), email)
}

// ResendCode issues a fresh code for a pending registration
func (s *AuthService) ResendCode(ctx context.Context, req *domain.ResendCodeRequest) error {
	email := normalizeEmail(req.Email)
	pending, err := s.pendingRepo.Get(ctx, email, req.Role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRegistrationMissing
		}
		return fmt.Errorf("failed to load registration: %w", err)
	}

	code, err := auth.GenerateCode(codeDigits)
	if err != nil {
		return err
	}
	if err := s.pendingRepo.UpdateCode(ctx, pending.ID, code, s.now().Add(s.cfg.VerificationCodeTTL())); err != nil {
		return fmt.Errorf("failed to update code: %w", err)
	}

	return s.deliverCode(s.email.SendVerificationCode(ctx, email, pending.Name, code), email)
}

// VerifyEmail turns a pending registration into a verified account. The
// company lookup or creation, the user insert and the pending row removal
// commit together.
func (s *AuthService) VerifyEmail(ctx context.Context, req *domain.VerifyEmailRequest) (*domain.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	pending, err := s.pendingRepo.Get(ctx, email, req.Role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationMissing
		}
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}
	if pending.IsExpired(s.now()) || pending.FailedAttempts >= maxCodeAttempts {
		return nil, ErrInvalidCode
	}
	if !auth.CodeMatches(pending.Code, req.Code) {
		if err := s.pendingRepo.RecordFailedAttempt(ctx, pending.ID); err != nil {
			s.logger.Warn("failed to record verification attempt", zap.Error(err))
		}
		return nil, ErrInvalidCode
	}

	var user *domain.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		companies := repository.NewCompanyRepository(tx)
		numbering := s.numbering.WithTx(tx)

		exists, err := users.ExistsByEmailAndRole(ctx, email, pending.Role)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateAccount
		}

		var companyID *uuid.UUID
		if pending.CompanyName != "" {
			companyType := domain.CompanyTypeForRole(pending.Role)
			company, err := companies.FindByName(ctx, companyType, pending.CompanyName)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				number, nerr := numbering.NextCompanyNumber(ctx, companyType)
				if nerr != nil {
					return nerr
				}
				company = &domain.Company{CompanyNumber: number, Type: companyType, Name: pending.CompanyName}
				if err := companies.Create(ctx, company); err != nil {
					return fmt.Errorf("failed to create company: %w", err)
				}
			} else if err != nil {
				return err
			}
			companyID = &company.ID
		}

		userNumber, err := numbering.NextUserNumber(ctx)
		if err != nil {
			return err
		}
		user = &domain.User{
			Email:        pending.Email,
			Role:         pending.Role,
			Name:         pending.Name,
			Phone:        pending.Phone,
			PasswordHash: pending.PasswordHash,
			UserNumber:   userNumber,
			CompanyID:    companyID,
			IsVerified:   true,
		}
		if err := users.Create(ctx, user); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateAccount
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		return repository.NewPendingRegistrationRepository(tx).Delete(ctx, pending.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account verified",
		zap.String("userID", user.ID.String()),
		zap.String("role", string(user.Role)))

	return s.issue(ctx, user)
}

// Login checks credentials. The role may be omitted when the email has a
// single account.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	var user *domain.User
	if req.Role != "" {
		u, err := s.userRepo.GetByEmailAndRole(ctx, email, req.Role)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidCredentials
			}
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		user = u
	} else {
		users, err := s.userRepo.ListByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		switch len(users) {
		case 0:
			return nil, ErrInvalidCredentials
		case 1:
			user = &users[0]
		default:
			return nil, ErrRoleRequired
		}
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrAccountNotVerified
	}

	now := s.now()
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		s.logger.Warn("failed to record login time", zap.String("userID", user.ID.String()), zap.Error(err))
	}
	user.LastLoginAt = &now

	return s.issue(ctx, user)
}

func (s *AuthService) issue(ctx context.Context, user *domain.User) (*domain.AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	if user.CompanyID != nil && user.Company == nil {
		if loaded, err := s.userRepo.GetByID(ctx, user.ID); err == nil {
			user = loaded
		}
	}
	return &domain.AuthResponse{
		Token:             token,
		User:              mapper.ToUserDTO(user),
		MustResetPassword: user.MustResetPassword,
	}, nil
}

// ForgotPassword stores a reset code for the matching accounts and emails
// it. Unknown emails succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) error {
	email := normalizeEmail(req.Email)

	var users []domain.User
	if req.Role != "" {
		u, err := s.userRepo.GetByEmailAndRole(ctx, email, req.Role)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load user: %w", err)
		}
		if u != nil {
			users = append(users, *u)
		}
	} else {
		found, err := s.userRepo.ListByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		users = found
	}

	for _, user := range users {
		code, err := auth.GenerateCode(codeDigits)
		if err != nil {
			return err
		}
		expiresAt := s.now().Add(s.cfg.ResetCodeTTL())
		if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
			"reset_code":            code,
			"reset_code_expires_at": expiresAt,
			"reset_code_attempts":   0,
		}); err != nil {
			return fmt.Errorf("failed to store reset code: %w", err)
		}
		if err := s.deliverCode(s.email.SendPasswordReset(ctx, user.Email, user.Name, code), user.Email); err != nil {
			return err
		}
	}
	return nil
}

// ResetPassword sets a new password using an emailed reset code
func (s *AuthService) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error {
	user, err := s.userRepo.GetByEmailAndRole(ctx, normalizeEmail(req.Email), req.Role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user.ResetCodeExpiresAt == nil || !s.now().Before(*user.ResetCodeExpiresAt) {
		return ErrInvalidCode
	}
	if !auth.CodeMatches(user.ResetCode, req.Code) {
		fields := map[string]interface{}{"reset_code_attempts": user.ResetCodeAttempts + 1}
		if user.ResetCodeAttempts+1 >= maxCodeAttempts {
			fields["reset_code"] = ""
			fields["reset_code_expires_at"] = nil
		}
		if err := s.userRepo.UpdateFields(ctx, user.ID, fields); err != nil {
			s.logger.Warn("failed to record reset attempt", zap.Error(err))
		}
		return ErrInvalidCode
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password_hash":         hash,
		"reset_code":            "",
		"reset_code_expires_at": nil,
		"reset_code_attempts":   0,
		"must_reset_password":   false,
	})
}

// ChangePassword updates the caller's password. The current password is not
// required while a reset is forced.
func (s *AuthService) ChangePassword(ctx context.Context, req *domain.ChangePasswordRequest) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	user, err := s.userRepo.GetByID(ctx, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.MustResetPassword && !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password_hash":       hash,
		"must_reset_password": false,
	})
}

// Me returns the caller's account with company details
func (s *AuthService) Me(ctx context.Context) (*domain.UserDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	user, err := s.userRepo.GetByID(ctx, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// CleanupExpiredRegistrations deletes pending signups whose code expired
func (s *AuthService) CleanupExpiredRegistrations(ctx context.Context) (int64, error) {
	n, err := s.pendingRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired registrations: %w", err)
	}
	return n, nil
}
