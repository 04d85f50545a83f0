package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/repository"
	"github.com/valisyam/shub/internal/testutil"
	"gorm.io/gorm"
)

func TestNumberSequenceRepository_GetNextNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)
	ctx := context.Background()

	t.Run("starts at one and increments", func(t *testing.T) {
		for want := 1; want <= 3; want++ {
			got, err := repo.GetNextNumber(ctx, "test_scope", 0, nil)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("years are independent", func(t *testing.T) {
		a, err := repo.GetNextNumber(ctx, "yearly", 2025, nil)
		require.NoError(t, err)
		b, err := repo.GetNextNumber(ctx, "yearly", 2026, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, a)
		assert.Equal(t, 1, b)
	})

	t.Run("seed is used on first use only", func(t *testing.T) {
		calls := 0
		seed := func(tx *gorm.DB) (int, error) {
			calls++
			return 41, nil
		}
		first, err := repo.GetNextNumber(ctx, "seeded", 0, seed)
		require.NoError(t, err)
		second, err := repo.GetNextNumber(ctx, "seeded", 0, seed)
		require.NoError(t, err)
		assert.Equal(t, 42, first)
		assert.Equal(t, 43, second)
		assert.Equal(t, 1, calls)
	})
}

func TestNumberSequenceRepository_SetSequence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SetSequence(ctx, "po", 0, 10))
	cur, err := repo.GetCurrentSequence(ctx, "po", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, cur)

	// Lower values never rewind the counter
	require.NoError(t, repo.SetSequence(ctx, "po", 0, 3))
	next, err := repo.GetNextNumber(ctx, "po", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 11, next)

	seqs, err := repo.ListSequences(ctx)
	require.NoError(t, err)
	assert.Len(t, seqs, 1)
}

func TestApplyOwnerScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewRfqRepository(db)

	company := testutil.CreateTestCompany(t, db, domain.CompanyTypeCustomer, "Acme")
	alice := testutil.CreateTestUser(t, db, domain.RoleCustomer, &company.ID)
	bob := testutil.CreateTestUser(t, db, domain.RoleCustomer, &company.ID)
	outsider := testutil.CreateTestUser(t, db, domain.RoleCustomer, nil)

	aliceRfq := testutil.CreateTestRfq(t, db, alice.ID, domain.RfqStatusSubmitted)
	testutil.CreateTestRfq(t, db, bob.ID, domain.RfqStatusSubmitted)
	outsiderRfq := testutil.CreateTestRfq(t, db, outsider.ID, domain.RfqStatusSubmitted)

	scoped := auth.WithUserContext(context.Background(), &auth.UserContext{UserID: alice.ID, Role: domain.RoleCustomer})
	scoped = auth.WithOwnerScope(scoped, &auth.OwnerScope{UserIDs: []uuid.UUID{alice.ID, bob.ID}})

	t.Run("company peers share records", func(t *testing.T) {
		rfqs, err := repo.ListScoped(scoped)
		require.NoError(t, err)
		assert.Len(t, rfqs, 2)

		got, err := repo.GetScoped(scoped, aliceRfq.ID)
		require.NoError(t, err)
		assert.Equal(t, aliceRfq.ID, got.ID)
	})

	t.Run("other companies are hidden", func(t *testing.T) {
		_, err := repo.GetScoped(scoped, outsiderRfq.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("admins see everything", func(t *testing.T) {
		admin := auth.WithUserContext(context.Background(), &auth.UserContext{UserID: uuid.New(), Role: domain.RoleAdmin})
		rfqs, err := repo.ListScoped(admin)
		require.NoError(t, err)
		assert.Len(t, rfqs, 3)
	})
}

func TestMessageRepository_Reminders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewMessageRepository(db)
	ctx := context.Background()

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin, nil)
	customer := testutil.CreateTestUser(t, db, domain.RoleCustomer, nil)

	old := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		m := &domain.Message{ThreadID: "thr_x", SenderID: admin.ID, ReceiverID: customer.ID, Category: domain.MessageCategoryGeneral, Content: "hi"}
		m.CreatedAt = old
		require.NoError(t, repo.Create(ctx, m))
	}
	fresh := &domain.Message{ThreadID: "thr_x", SenderID: admin.ID, ReceiverID: customer.ID, Category: domain.MessageCategoryGeneral, Content: "new"}
	require.NoError(t, repo.Create(ctx, fresh))

	cutoff := time.Now().UTC().Add(-30 * time.Minute)
	pending, err := repo.FindUnreadForReminder(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	ids := make([]uuid.UUID, 0, len(pending))
	for _, m := range pending {
		ids = append(ids, m.ID)
	}
	n, err := repo.MarkReminderSent(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	pending, err = repo.FindUnreadForReminder(ctx, cutoff)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMessageRepository_FindThreadID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewMessageRepository(db)
	ctx := context.Background()

	a := testutil.CreateTestUser(t, db, domain.RoleAdmin, nil)
	b := testutil.CreateTestUser(t, db, domain.RoleCustomer, nil)

	id, err := repo.FindThreadID(ctx, a.ID, b.ID, domain.MessageCategoryRfq)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, repo.Create(ctx, &domain.Message{ThreadID: "thr_ab", SenderID: b.ID, ReceiverID: a.ID, Category: domain.MessageCategoryRfq, Content: "q"}))

	id, err = repo.FindThreadID(ctx, a.ID, b.ID, domain.MessageCategoryRfq)
	require.NoError(t, err)
	assert.Equal(t, "thr_ab", id)

	id, err = repo.FindThreadID(ctx, a.ID, b.ID, domain.MessageCategoryOrder)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestPendingRegistrationRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPendingRegistrationRepository(db)
	ctx := context.Background()

	p := &domain.PendingRegistration{
		Email: "new@example.com", Role: domain.RoleCustomer, Name: "New",
		PasswordHash: "h", Code: "111111", ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, repo.Upsert(ctx, p))

	// Second signup for the same pair replaces the code
	p2 := &domain.PendingRegistration{
		Email: "new@example.com", Role: domain.RoleCustomer, Name: "New",
		PasswordHash: "h", Code: "222222", ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, repo.Upsert(ctx, p2))

	got, err := repo.Get(ctx, "new@example.com", domain.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, "222222", got.Code)

	n, err := repo.DeleteExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.DeleteExpired(ctx, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
