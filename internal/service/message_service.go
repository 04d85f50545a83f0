package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/idgen"
	"github.com/valisyam/shub/internal/mapper"
	"github.com/valisyam/shub/internal/realtime"
	"github.com/valisyam/shub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MessageService handles two-party message threads
type MessageService struct {
	messageRepo   *repository.MessageRepository
	userRepo      *repository.UserRepository
	ids           *idgen.Generator
	uploader      *Uploader
	notifications *NotificationService
	logger        *zap.Logger
}

// NewMessageService creates a new MessageService
func NewMessageService(
	messageRepo *repository.MessageRepository,
	userRepo *repository.UserRepository,
	ids *idgen.Generator,
	uploader *Uploader,
	notifications *NotificationService,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messageRepo:   messageRepo,
		userRepo:      userRepo,
		ids:           ids,
		uploader:      uploader,
		notifications: notifications,
		logger:        logger,
	}
}

// ThreadID builds thr_<low8>_<high8>_<category>_<suffix> where low and high
// are the sorted participant ids
func ThreadID(a, b uuid.UUID, category domain.MessageCategory, suffix string) string {
	low, high := a.String(), b.String()
	if high < low {
		low, high = high, low
	}
	return fmt.Sprintf("thr_%s_%s_%s_%s", low[:8], high[:8], category, suffix)
}

// findOrCreateThread reuses the thread of the pair in the category if one
// exists and mints a new id otherwise
func (s *MessageService) findOrCreateThread(ctx context.Context, a, b uuid.UUID, category domain.MessageCategory) (string, error) {
	existing, err := s.messageRepo.FindThreadID(ctx, a, b, category)
	if err != nil {
		return "", fmt.Errorf("failed to look up thread: %w", err)
	}
	if existing != "" {
		return existing, nil
	}
	return ThreadID(a, b, category, s.ids.Next()), nil
}

// resolveReceiver applies the messaging rules: customers and suppliers only
// write to admins and default to the earliest admin; admins write to anyone
func (s *MessageService) resolveReceiver(ctx context.Context, sender *auth.UserContext, receiverID *uuid.UUID) (*domain.User, error) {
	if receiverID == nil {
		if sender.IsAdmin() {
			return nil, fmt.Errorf("%w: receiverId is required", ErrInvalidInput)
		}
		admin, err := s.userRepo.FirstAdmin(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNoAdminAvailable
			}
			return nil, fmt.Errorf("failed to find admin: %w", err)
		}
		return admin, nil
	}

	if *receiverID == sender.UserID {
		return nil, fmt.Errorf("%w: you cannot message yourself", ErrInvalidInput)
	}
	receiver, err := s.userRepo.GetByID(ctx, *receiverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get receiver: %w", err)
	}
	if !sender.IsAdmin() && receiver.Role != domain.RoleAdmin {
		return nil, ErrRecipientNotAllowed
	}
	return receiver, nil
}

// Send starts or continues the caller's thread with the receiver in a category
func (s *MessageService) Send(ctx context.Context, req *domain.SendMessageRequest) (*domain.MessageDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !req.Category.IsValid() {
		return nil, fmt.Errorf("%w: invalid category", ErrInvalidInput)
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	receiver, err := s.resolveReceiver(ctx, userCtx, req.ReceiverID)
	if err != nil {
		return nil, err
	}

	threadID, err := s.findOrCreateThread(ctx, userCtx.UserID, receiver.ID, req.Category)
	if err != nil {
		return nil, err
	}

	message := &domain.Message{
		ThreadID:   threadID,
		SenderID:   userCtx.UserID,
		ReceiverID: receiver.ID,
		Category:   req.Category,
		Subject:    strings.TrimSpace(req.Subject),
		Content:    content,
		RfqID:      req.RfqID,
		OrderID:    req.OrderID,
	}
	return s.deliver(ctx, userCtx, message, receiver)
}

// Reply adds a message to a thread the caller takes part in
func (s *MessageService) Reply(ctx context.Context, threadID string, req *domain.ReplyMessageRequest) (*domain.MessageDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	first, err := s.messageRepo.FirstInThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	var otherID uuid.UUID
	switch userCtx.UserID {
	case first.SenderID:
		otherID = first.ReceiverID
	case first.ReceiverID:
		otherID = first.SenderID
	default:
		return nil, ErrNotParticipant
	}

	receiver, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get receiver: %w", err)
	}

	message := &domain.Message{
		ThreadID:   threadID,
		SenderID:   userCtx.UserID,
		ReceiverID: receiver.ID,
		Category:   first.Category,
		Subject:    first.Subject,
		Content:    content,
		RfqID:      first.RfqID,
		OrderID:    first.OrderID,
	}
	return s.deliver(ctx, userCtx, message, receiver)
}

func (s *MessageService) deliver(ctx context.Context, sender *auth.UserContext, message *domain.Message, receiver *domain.User) (*domain.MessageDTO, error) {
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.logger.Debug("message sent",
		zap.String("messageID", message.ID.String()),
		zap.String("threadID", message.ThreadID),
		zap.String("senderID", sender.UserID.String()),
		zap.String("receiverID", receiver.ID.String()))

	title := "New message"
	if sender.Name != "" {
		title = "New message from " + sender.Name
	}
	s.notifications.Notify(ctx, receiver.ID, domain.NotificationMessage, title, preview(message.Content),
		map[string]interface{}{"threadId": message.ThreadID, "messageId": message.ID.String()})
	s.notifications.Push(receiver.ID, realtime.Event{Type: realtime.EventMessageCreated, ID: message.ThreadID, Action: "create"})

	message.Receiver = receiver
	dto := mapper.ToMessageDTO(message)
	dto.SenderName = sender.Name
	return &dto, nil
}

func preview(content string) string {
	const max = 120
	r := []rune(content)
	if len(r) <= max {
		return content
	}
	return string(r[:max]) + "..."
}

// ListThreads summarizes the caller's threads, most recent first
func (s *MessageService) ListThreads(ctx context.Context) ([]domain.ThreadSummaryDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	messages, err := s.messageRepo.ListForUser(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	summaries := make([]domain.ThreadSummaryDTO, 0)
	index := make(map[string]int)
	for i := range messages {
		m := &messages[i]
		pos, seen := index[m.ThreadID]
		if !seen {
			other, otherUser := m.ReceiverID, m.Receiver
			if m.ReceiverID == userCtx.UserID {
				other, otherUser = m.SenderID, m.Sender
			}
			summary := domain.ThreadSummaryDTO{
				ThreadID:    m.ThreadID,
				Category:    m.Category,
				OtherUserID: other,
				LastMessage: mapper.ToMessageDTO(m),
			}
			if otherUser != nil {
				summary.OtherName = otherUser.Name
			}
			summaries = append(summaries, summary)
			pos = len(summaries) - 1
			index[m.ThreadID] = pos
		}

		summary := &summaries[pos]
		summary.MessageCount++
		if m.ReceiverID == userCtx.UserID && !m.IsRead {
			summary.UnreadCount++
		}
		// Messages arrive newest first, so the last subject seen is the opening one
		if m.Subject != "" {
			summary.Subject = m.Subject
		}
	}
	return summaries, nil
}

// GetThread returns every message of a thread and marks the caller's
// received messages read
func (s *MessageService) GetThread(ctx context.Context, threadID string) ([]domain.MessageDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	messages, err := s.messageRepo.ListThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	if len(messages) == 0 {
		return nil, ErrThreadNotFound
	}
	if messages[0].SenderID != userCtx.UserID && messages[0].ReceiverID != userCtx.UserID {
		return nil, ErrNotParticipant
	}

	if err := s.messageRepo.MarkThreadRead(ctx, threadID, userCtx.UserID); err != nil {
		return nil, fmt.Errorf("failed to mark thread read: %w", err)
	}
	for i := range messages {
		if messages[i].ReceiverID == userCtx.UserID {
			messages[i].IsRead = true
		}
	}

	return mapper.ToMessageDTOs(messages), nil
}

// UnreadCount returns the number of unread messages addressed to the caller
func (s *MessageService) UnreadCount(ctx context.Context) (int64, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return 0, ErrUnauthorized
	}
	count, err := s.messageRepo.CountUnread(ctx, userCtx.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// AddAttachment stores a file on a message. Only the sender may attach.
func (s *MessageService) AddAttachment(ctx context.Context, messageID uuid.UUID, up *Upload) (*domain.MessageAttachmentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if message.SenderID != userCtx.UserID {
		return nil, ErrPermissionDenied
	}

	stored, err := s.uploader.Store(ctx, "messages", up)
	if err != nil {
		return nil, err
	}
	attachment := &domain.MessageAttachment{
		MessageID:   message.ID,
		FileName:    stored.FileName,
		ContentType: stored.ContentType,
		StoragePath: stored.Path,
		Size:        stored.Size,
	}
	if err := s.messageRepo.CreateAttachment(ctx, attachment); err != nil {
		s.uploader.Remove(ctx, stored.Path)
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	dto := mapper.ToMessageAttachmentDTO(attachment)
	return &dto, nil
}

// DownloadAttachment opens an attachment for either thread participant
func (s *MessageService) DownloadAttachment(ctx context.Context, id uuid.UUID) (*Download, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	attachment, err := s.messageRepo.GetAttachment(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	message, err := s.messageRepo.GetByID(ctx, attachment.MessageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if message.SenderID != userCtx.UserID && message.ReceiverID != userCtx.UserID {
		return nil, ErrNotParticipant
	}
	return s.uploader.Open(ctx, attachment.StoragePath, attachment.FileName, attachment.ContentType)
}
