package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"gorm.io/gorm"
)

// FileRepository persists upload metadata. The bytes live in storage.Storage.
type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *domain.File) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.File, error) {
	file := new(domain.File)
	if err := r.db.WithContext(ctx).First(file, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return file, nil
}

// ListByLink returns the files attached to one owner
func (r *FileRepository) ListByLink(ctx context.Context, link domain.FileLink) ([]domain.File, error) {
	var files []domain.File
	err := r.db.WithContext(ctx).
		Where("linked_to_type = ? AND linked_to_id = ?", link.LinkType(), link.TargetID()).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.File{}, "id = ?", id).Error
}
