package service_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/repository"
	"github.com/valisyam/shub/internal/service"
	"github.com/valisyam/shub/internal/testutil"
)

func TestThreadID(t *testing.T) {
	a := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	b := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")

	got := service.ThreadID(b, a, domain.MessageCategoryRfq, "k3x9")
	assert.Equal(t, "thr_aaaaaaaa_bbbbbbbb_rfq_k3x9", got)
	assert.Equal(t, got, service.ThreadID(a, b, domain.MessageCategoryRfq, "k3x9"))
}

func TestMessageService_Threads(t *testing.T) {
	s := newServices(t)

	t.Run("no admin to route to", func(t *testing.T) {
		lonely := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
		_, err := s.messages.Send(ctxFor(t, s.db, lonely), &domain.SendMessageRequest{Category: domain.MessageCategoryGeneral, Content: "hello?"})
		assert.ErrorIs(t, err, service.ErrNoAdminAvailable)
	})

	admin := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	supplier := testutil.CreateTestUser(t, s.db, domain.RoleSupplier, nil)
	adminCtx := ctxFor(t, s.db, admin)
	customerCtx := ctxFor(t, s.db, customer)

	first, err := s.messages.Send(customerCtx, &domain.SendMessageRequest{
		Category: domain.MessageCategoryRfq,
		Subject:  "Tolerances",
		Content:  "Can you hold 0.01mm?",
	})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, first.ReceiverID, "customers without a receiver reach the admin")
	assert.True(t, strings.HasPrefix(first.ThreadID, "thr_"))
	assert.True(t, strings.Contains(first.ThreadID, "_rfq_"))

	t.Run("same pair and category reuse the thread", func(t *testing.T) {
		second, err := s.messages.Send(adminCtx, &domain.SendMessageRequest{
			ReceiverID: &customer.ID,
			Category:   domain.MessageCategoryRfq,
			Content:    "Yes we can.",
		})
		require.NoError(t, err)
		assert.Equal(t, first.ThreadID, second.ThreadID)
	})

	t.Run("another category opens a new thread", func(t *testing.T) {
		other, err := s.messages.Send(customerCtx, &domain.SendMessageRequest{Category: domain.MessageCategoryOrder, Content: "Where is my order?"})
		require.NoError(t, err)
		assert.NotEqual(t, first.ThreadID, other.ThreadID)
	})

	t.Run("non admins only write to admins", func(t *testing.T) {
		_, err := s.messages.Send(ctxFor(t, s.db, supplier), &domain.SendMessageRequest{
			ReceiverID: &customer.ID,
			Category:   domain.MessageCategoryGeneral,
			Content:    "hi",
		})
		assert.ErrorIs(t, err, service.ErrRecipientNotAllowed)
	})

	t.Run("admins must name a receiver", func(t *testing.T) {
		_, err := s.messages.Send(adminCtx, &domain.SendMessageRequest{Category: domain.MessageCategoryGeneral, Content: "hi"})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("outsiders cannot read or reply", func(t *testing.T) {
		supplierCtx := ctxFor(t, s.db, supplier)
		_, err := s.messages.GetThread(supplierCtx, first.ThreadID)
		assert.ErrorIs(t, err, service.ErrNotParticipant)
		_, err = s.messages.Reply(supplierCtx, first.ThreadID, &domain.ReplyMessageRequest{Content: "me too"})
		assert.ErrorIs(t, err, service.ErrNotParticipant)
	})

	t.Run("reply inherits the thread subject", func(t *testing.T) {
		reply, err := s.messages.Reply(customerCtx, first.ThreadID, &domain.ReplyMessageRequest{Content: "Great"})
		require.NoError(t, err)
		assert.Equal(t, "Tolerances", reply.Subject)
		assert.Equal(t, admin.ID, reply.ReceiverID)
	})

	t.Run("unknown thread", func(t *testing.T) {
		_, err := s.messages.Reply(customerCtx, "thr_missing", &domain.ReplyMessageRequest{Content: "?"})
		assert.ErrorIs(t, err, service.ErrThreadNotFound)
	})

	t.Run("reading a thread clears its unread count", func(t *testing.T) {
		before, err := s.messages.UnreadCount(customerCtx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), before)

		threads, err := s.messages.ListThreads(customerCtx)
		require.NoError(t, err)
		assert.Len(t, threads, 2)

		msgs, err := s.messages.GetThread(customerCtx, first.ThreadID)
		require.NoError(t, err)
		assert.Len(t, msgs, 3)

		after, err := s.messages.UnreadCount(customerCtx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), after)
	})

	t.Run("attachments", func(t *testing.T) {
		att, err := s.messages.AddAttachment(customerCtx, first.ID, &service.Upload{
			FileName: "drawing.pdf",
			Data:     strings.NewReader("%PDF-1.4"),
		})
		require.NoError(t, err)

		_, err = s.messages.AddAttachment(adminCtx, first.ID, &service.Upload{FileName: "x.pdf", Data: strings.NewReader("x")})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)

		dl, err := s.messages.DownloadAttachment(adminCtx, att.ID)
		require.NoError(t, err)
		defer dl.Body.Close()
		body, err := io.ReadAll(dl.Body)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(body))
		assert.Equal(t, "drawing.pdf", dl.FileName)

		_, err = s.messages.DownloadAttachment(ctxFor(t, s.db, supplier), att.ID)
		assert.ErrorIs(t, err, service.ErrNotParticipant)
	})
}

func TestReminderService_SendUnreadReminders(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	repo := repository.NewMessageRepository(s.db)

	admin := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	support := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	alice := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	bob := testutil.CreateTestUser(t, s.db, domain.RoleSupplier, nil)

	old := time.Now().UTC().Add(-2 * time.Hour)
	add := func(from, to *domain.User, at time.Time) {
		m := &domain.Message{ThreadID: "thr_r", SenderID: from.ID, ReceiverID: to.ID, Category: domain.MessageCategoryGeneral, Content: "ping"}
		m.CreatedAt = at
		require.NoError(t, repo.Create(ctx, m))
	}
	add(admin, alice, old)
	add(admin, alice, old)
	add(support, alice, old)
	add(admin, bob, old)
	add(admin, alice, time.Now().UTC())

	s.mail.failTo = bob.Email

	sent, failed, err := s.reminders.SendUnreadReminders(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, failed)

	mails := s.mail.To(alice.Email)
	require.Len(t, mails, 1, "one digest per receiver")
	assert.Contains(t, mails[0].HTML+mails[0].Text, admin.Name)
	assert.Contains(t, mails[0].HTML+mails[0].Text, support.Name)
	assert.Contains(t, mails[0].Subject, "3 unread messages")

	t.Run("reminded messages are not reminded again", func(t *testing.T) {
		sent, failed, err := s.reminders.SendUnreadReminders(ctx, 30*time.Minute)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Zero(t, failed)
	})
}
