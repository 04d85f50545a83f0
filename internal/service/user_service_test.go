package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/service"
	"github.com/valisyam/shub/internal/testutil"
)

func TestUserService(t *testing.T) {
	s := newServices(t)
	admin := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	ctx := ctxFor(t, s.db, admin)
	vendor := testutil.CreateTestCompany(t, s.db, domain.CompanyTypeSupplier, "Mill Works")

	created, err := s.users.Create(ctx, &domain.CreateUserRequest{
		Email:             "Ops@MillWorks.com",
		Name:              "Ops",
		Role:              domain.RoleSupplier,
		CompanyID:         &vendor.ID,
		TemporaryPassword: "temporary1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ops@millworks.com", created.Email)
	assert.True(t, created.IsVerified)
	assert.True(t, created.MustResetPassword)
	assert.Equal(t, vendor.CompanyNumber, created.CompanyNumber)
	assert.Len(t, s.mail.To("ops@millworks.com"), 1, "welcome email carries the temporary password")

	t.Run("duplicate email and role", func(t *testing.T) {
		_, err := s.users.Create(ctx, &domain.CreateUserRequest{Email: "ops@millworks.com", Name: "Again", Role: domain.RoleSupplier, TemporaryPassword: "temporary1"})
		assert.ErrorIs(t, err, service.ErrDuplicateAccount)
	})

	t.Run("company type must match the role", func(t *testing.T) {
		_, err := s.users.Create(ctx, &domain.CreateUserRequest{Email: "buyer@millworks.com", Name: "Buyer", Role: domain.RoleCustomer, CompanyID: &vendor.ID, TemporaryPassword: "temporary1"})
		assert.ErrorIs(t, err, service.ErrUserCompanyTypeMismatch)
	})

	t.Run("unlink company", func(t *testing.T) {
		got, err := s.users.SetCompany(ctx, created.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, got.CompanyID)
	})

	t.Run("list filters by role", func(t *testing.T) {
		page, err := s.users.List(ctx, domain.RoleSupplier, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, s.users.Delete(ctx, admin.ID), service.ErrCannotDeleteSelf)
		require.NoError(t, s.users.Delete(ctx, created.ID))
		assert.ErrorIs(t, s.users.Delete(ctx, created.ID), service.ErrUserNotFound)
	})
}
