package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/repository"
	"github.com/valisyam/shub/internal/service"
	"github.com/valisyam/shub/internal/testutil"
)

func pendingCode(t *testing.T, s *services, email string, role domain.UserRole) string {
	t.Helper()
	p, err := repository.NewPendingRegistrationRepository(s.db).Get(context.Background(), email, role)
	require.NoError(t, err)
	return p.Code
}

func TestAuthService_RegisterAndVerify(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	req := &domain.RegisterRequest{
		Email:       "Buyer@Example.com",
		Password:    "supersecret",
		Name:        "Buyer",
		Role:        domain.RoleCustomer,
		CompanyName: "Acme Machining",
	}
	require.NoError(t, s.auth.Register(ctx, req))
	assert.Len(t, s.mail.To("buyer@example.com"), 1, "verification code is emailed to the normalized address")

	t.Run("wrong code is rejected", func(t *testing.T) {
		wrong := "999999"
		if pendingCode(t, s, "buyer@example.com", domain.RoleCustomer) == wrong {
			wrong = "888888"
		}
		_, err := s.auth.VerifyEmail(ctx, &domain.VerifyEmailRequest{Email: "buyer@example.com", Role: domain.RoleCustomer, Code: wrong})
		assert.ErrorIs(t, err, service.ErrInvalidCode)
	})

	t.Run("correct code creates the account and company", func(t *testing.T) {
		code := pendingCode(t, s, "buyer@example.com", domain.RoleCustomer)
		resp, err := s.auth.VerifyEmail(ctx, &domain.VerifyEmailRequest{Email: "buyer@example.com", Role: domain.RoleCustomer, Code: code})
		require.NoError(t, err)

		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "100010", resp.User.UserNumber)
		assert.True(t, resp.User.IsVerified)
		assert.Equal(t, "CU0001", resp.User.CompanyNumber)
		assert.Equal(t, "Acme Machining", resp.User.CompanyName)

		_, err = repository.NewPendingRegistrationRepository(s.db).Get(ctx, "buyer@example.com", domain.RoleCustomer)
		assert.Error(t, err, "pending registration is removed")
	})

	t.Run("registering the same email and role again is a duplicate", func(t *testing.T) {
		err := s.auth.Register(ctx, req)
		assert.ErrorIs(t, err, service.ErrDuplicateAccount)
	})

	t.Run("the same email may register as a supplier", func(t *testing.T) {
		supplier := *req
		supplier.Role = domain.RoleSupplier
		supplier.CompanyName = ""
		require.NoError(t, s.auth.Register(ctx, &supplier))

		code := pendingCode(t, s, "buyer@example.com", domain.RoleSupplier)
		resp, err := s.auth.VerifyEmail(ctx, &domain.VerifyEmailRequest{Email: "buyer@example.com", Role: domain.RoleSupplier, Code: code})
		require.NoError(t, err)
		assert.Equal(t, "100011", resp.User.UserNumber)
		assert.Nil(t, resp.User.CompanyID)
	})
}

func TestAuthService_VerifyExpiredCode(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	require.NoError(t, s.auth.Register(ctx, &domain.RegisterRequest{
		Email: "late@example.com", Password: "supersecret", Name: "Late", Role: domain.RoleSupplier,
	}))
	code := pendingCode(t, s, "late@example.com", domain.RoleSupplier)

	require.NoError(t, s.db.Model(&domain.PendingRegistration{}).
		Where("email = ?", "late@example.com").
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	_, err := s.auth.VerifyEmail(ctx, &domain.VerifyEmailRequest{Email: "late@example.com", Role: domain.RoleSupplier, Code: code})
	assert.ErrorIs(t, err, service.ErrInvalidCode)

	deleted, err := s.auth.CleanupExpiredRegistrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	err = s.auth.ResendCode(ctx, &domain.ResendCodeRequest{Email: "late@example.com", Role: domain.RoleSupplier})
	assert.ErrorIs(t, err, service.ErrRegistrationMissing)
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestAuthService_VerifyAttemptLimit(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	require.NoError(t, s.auth.Register(ctx, &domain.RegisterRequest{
		Email:    "guess@example.com",
		Password: "supersecret",
		Name:     "Guess",
		Role:     domain.RoleSupplier,
	}))
	code := pendingCode(t, s, "guess@example.com", domain.RoleSupplier)
	verify := func(c string) error {
		_, err := s.auth.VerifyEmail(ctx, &domain.VerifyEmailRequest{Email: "guess@example.com", Role: domain.RoleSupplier, Code: c})
		return err
	}

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, verify(wrongCode(code)), service.ErrInvalidCode)
	}
	assert.ErrorIs(t, verify(code), service.ErrInvalidCode, "code is void after too many wrong guesses")

	t.Run("a resent code starts a fresh budget", func(t *testing.T) {
		require.NoError(t, s.auth.ResendCode(ctx, &domain.ResendCodeRequest{Email: "guess@example.com", Role: domain.RoleSupplier}))
		assert.NoError(t, verify(pendingCode(t, s, "guess@example.com", domain.RoleSupplier)))
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)

	resetCode := func() string {
		var stored domain.User
		require.NoError(t, s.db.First(&stored, "id = ?", user.ID).Error)
		return stored.ResetCode
	}
	reset := func(c string) error {
		return s.auth.ResetPassword(ctx, &domain.ResetPasswordRequest{Email: user.Email, Role: domain.RoleCustomer, Code: c, NewPassword: "brandnewpass"})
	}

	t.Run("correct code sets the password", func(t *testing.T) {
		require.NoError(t, s.auth.ForgotPassword(ctx, &domain.ForgotPasswordRequest{Email: user.Email}))
		code := resetCode()
		require.Len(t, code, 6)

		assert.ErrorIs(t, reset(wrongCode(code)), service.ErrInvalidCode)
		require.NoError(t, reset(code))
		assert.Empty(t, resetCode())

		_, err := s.auth.Login(ctx, &domain.LoginRequest{Email: user.Email, Password: "brandnewpass"})
		assert.NoError(t, err)
	})

	t.Run("too many wrong guesses void the code", func(t *testing.T) {
		require.NoError(t, s.auth.ForgotPassword(ctx, &domain.ForgotPasswordRequest{Email: user.Email}))
		code := resetCode()

		for i := 0; i < 5; i++ {
			assert.ErrorIs(t, reset(wrongCode(code)), service.ErrInvalidCode)
		}
		assert.Empty(t, resetCode())
		assert.ErrorIs(t, reset(code), service.ErrInvalidCode)
	})
}

func TestAuthService_Login(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("supersecret")
	require.NoError(t, err)
	for i, role := range []domain.UserRole{domain.RoleCustomer, domain.RoleSupplier} {
		u := &domain.User{Email: "dual@example.com", Role: role, Name: "Dual", PasswordHash: hash, UserNumber: string(rune('A' + i)), IsVerified: true}
		require.NoError(t, s.db.Create(u).Error)
	}
	unverified := &domain.User{Email: "new@example.com", Role: domain.RoleCustomer, Name: "New", PasswordHash: hash, UserNumber: "C"}
	require.NoError(t, s.db.Create(unverified).Error)

	t.Run("ambiguous email needs a role", func(t *testing.T) {
		_, err := s.auth.Login(ctx, &domain.LoginRequest{Email: "dual@example.com", Password: "supersecret"})
		assert.ErrorIs(t, err, service.ErrRoleRequired)
	})

	t.Run("role selects the account", func(t *testing.T) {
		resp, err := s.auth.Login(ctx, &domain.LoginRequest{Email: "DUAL@example.com", Password: "supersecret", Role: domain.RoleSupplier})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleSupplier, resp.User.Role)
		assert.NotNil(t, resp.User.LastLoginAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.auth.Login(ctx, &domain.LoginRequest{Email: "dual@example.com", Password: "nope", Role: domain.RoleCustomer})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := s.auth.Login(ctx, &domain.LoginRequest{Email: "ghost@example.com", Password: "supersecret"})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unverified accounts cannot log in", func(t *testing.T) {
		_, err := s.auth.Login(ctx, &domain.LoginRequest{Email: "new@example.com", Password: "supersecret"})
		assert.ErrorIs(t, err, service.ErrAccountNotVerified)
	})
}
