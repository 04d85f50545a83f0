package service

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/mapper"
	"github.com/valisyam/shub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FileService handles uploads linked to RFQs, orders and supplier quotes.
// Access is resolved per link variant.
type FileService struct {
	fileRepo          *repository.FileRepository
	rfqRepo           *repository.RfqRepository
	orderRepo         *repository.SalesOrderRepository
	supplierQuoteRepo *repository.SupplierQuoteRepository
	assignRepo        *repository.RfqAssignmentRepository
	uploader          *Uploader
	logger            *zap.Logger
}

// NewFileService creates a new FileService instance with all required dependencies
func NewFileService(
	fileRepo *repository.FileRepository,
	rfqRepo *repository.RfqRepository,
	orderRepo *repository.SalesOrderRepository,
	supplierQuoteRepo *repository.SupplierQuoteRepository,
	assignRepo *repository.RfqAssignmentRepository,
	uploader *Uploader,
	logger *zap.Logger,
) *FileService {
	return &FileService{
		fileRepo:          fileRepo,
		rfqRepo:           rfqRepo,
		orderRepo:         orderRepo,
		supplierQuoteRepo: supplierQuoteRepo,
		assignRepo:        assignRepo,
		uploader:          uploader,
		logger:            logger,
	}
}

// checkAccess resolves whether the caller may read (or, with write, upload
// to) the owner of a link
func (s *FileService) checkAccess(ctx context.Context, link domain.FileLink, write bool) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}

	switch l := link.(type) {
	case domain.RfqFile:
		_, err := s.rfqRepo.GetScoped(ctx, l.RfqID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get RFQ: %w", err)
		}
		if !write && userCtx.Role == domain.RoleSupplier {
			_, err := s.assignRepo.FindScopedForRfq(ctx, l.RfqID, userCtx.UserID)
			if err == nil {
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check assignment: %w", err)
			}
		}
		return ErrRfqNotFound

	case domain.OrderFile:
		return s.checkOrder(ctx, l.OrderID)

	case domain.QualityCheckFile:
		if write && !userCtx.IsAdmin() {
			return ErrPermissionDenied
		}
		return s.checkOrder(ctx, l.OrderID)

	case domain.SupplierQuoteFile:
		if _, err := s.supplierQuoteRepo.GetScoped(ctx, l.SupplierQuoteID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSupplierQuoteNotFound
			}
			return fmt.Errorf("failed to get supplier quote: %w", err)
		}
		return nil

	default:
		return domain.ErrInvalidFileLink
	}
}

func (s *FileService) checkOrder(ctx context.Context, orderID uuid.UUID) error {
	if _, err := s.orderRepo.GetScoped(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to get order: %w", err)
	}
	return nil
}

// Upload stores a file and links it to its owner
func (s *FileService) Upload(ctx context.Context, link domain.FileLink, up *Upload) (*domain.FileDTO, error) {
	if err := s.checkAccess(ctx, link, true); err != nil {
		return nil, err
	}
	userCtx, _ := auth.FromContext(ctx)

	stored, err := s.uploader.Store(ctx, path.Join("files", string(link.LinkType())), up)
	if err != nil {
		return nil, err
	}

	file := &domain.File{
		FileName:     stored.FileName,
		ContentType:  stored.ContentType,
		StoragePath:  stored.Path,
		Size:         stored.Size,
		FileType:     stored.FileType,
		UploadedByID: userCtx.UserID,
	}
	file.SetLink(link)

	if err := s.fileRepo.Create(ctx, file); err != nil {
		s.uploader.Remove(ctx, stored.Path)
		return nil, fmt.Errorf("failed to save file record: %w", err)
	}

	s.logger.Info("file uploaded",
		zap.String("fileID", file.ID.String()),
		zap.String("linkType", string(link.LinkType())),
		zap.String("linkID", link.TargetID().String()),
		zap.Int64("size", file.Size))

	dto := mapper.ToFileDTO(file)
	return &dto, nil
}

// ListByLink returns the files of an owner the caller may see
func (s *FileService) ListByLink(ctx context.Context, link domain.FileLink) ([]domain.FileDTO, error) {
	if err := s.checkAccess(ctx, link, false); err != nil {
		return nil, err
	}
	files, err := s.fileRepo.ListByLink(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return mapper.ToFileDTOs(files), nil
}

func (s *FileService) getReadable(ctx context.Context, id uuid.UUID) (*domain.File, error) {
	file, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	link, err := file.Link()
	if err != nil {
		return nil, fmt.Errorf("file %s has a broken link: %w", file.ID, err)
	}
	if err := s.checkAccess(ctx, link, false); err != nil {
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrPermissionDenied) {
			return nil, err
		}
		if errors.Is(err, ErrRfqNotFound) || errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrSupplierQuoteNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

// GetByID returns file metadata if the caller may see its owner
func (s *FileService) GetByID(ctx context.Context, id uuid.UUID) (*domain.FileDTO, error) {
	file, err := s.getReadable(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToFileDTO(file)
	return &dto, nil
}

// Download opens a stored file. A missing blob gives ErrFileNotFound.
func (s *FileService) Download(ctx context.Context, id uuid.UUID) (*Download, error) {
	file, err := s.getReadable(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.uploader.Open(ctx, file.StoragePath, file.FileName, file.ContentType)
}

// Delete removes a file record and its stored object. Admin only.
func (s *FileService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !userCtx.IsAdmin() {
		return ErrPermissionDenied
	}
	file, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to get file: %w", err)
	}
	if err := s.fileRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	s.uploader.Remove(ctx, file.StoragePath)

	s.logger.Info("file deleted", zap.String("fileID", id.String()))
	return nil
}
