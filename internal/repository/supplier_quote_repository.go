package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/valisyam/shub/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SupplierQuoteRepository handles database operations for supplier bids
type SupplierQuoteRepository struct {
	db *gorm.DB
}

func NewSupplierQuoteRepository(db *gorm.DB) *SupplierQuoteRepository {
	return &SupplierQuoteRepository{db: db}
}

func (r *SupplierQuoteRepository) Create(ctx context.Context, quote *domain.SupplierQuote) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(quote).Error
}

func (r *SupplierQuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SupplierQuote, error) {
	var quote domain.SupplierQuote
	err := r.db.WithContext(ctx).Preload("Rfq").Preload("Supplier").Where("id = ?", id).First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetScoped retrieves a bid only if it was submitted by the caller's company
func (r *SupplierQuoteRepository) GetScoped(ctx context.Context, id uuid.UUID) (*domain.SupplierQuote, error) {
	var quote domain.SupplierQuote
	query := r.db.WithContext(ctx).Preload("Rfq").Where("supplier_quotes.id = ?", id)
	query = ApplyOwnerScope(ctx, query, "supplier_quotes.supplier_id")
	if err := query.First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

// ListScoped returns the bids of the caller's company
func (r *SupplierQuoteRepository) ListScoped(ctx context.Context) ([]domain.SupplierQuote, error) {
	var quotes []domain.SupplierQuote
	query := ApplyOwnerScope(ctx, r.db.WithContext(ctx).Model(&domain.SupplierQuote{}), "supplier_quotes.supplier_id")
	err := query.Preload("Rfq").Order("supplier_quotes.created_at DESC").Find(&quotes).Error
	return quotes, err
}

func (r *SupplierQuoteRepository) ListByRfq(ctx context.Context, rfqID uuid.UUID) ([]domain.SupplierQuote, error) {
	var quotes []domain.SupplierQuote
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Where("rfq_id = ?", rfqID).
		Order("total_amount ASC").
		Find(&quotes).Error
	return quotes, err
}

func (r *SupplierQuoteRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SupplierQuoteStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.SupplierQuote{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()}).Error
}

// MarkOthersNotSelected sets every other bid on the RFQ to not_selected
func (r *SupplierQuoteRepository) MarkOthersNotSelected(ctx context.Context, rfqID, keepID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.SupplierQuote{}).
		Where("rfq_id = ? AND id <> ?", rfqID, keepID).
		Updates(map[string]interface{}{"status": domain.SupplierQuoteStatusNotSelected, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}

// RfqAssignmentRepository handles database operations for supplier invitations
type RfqAssignmentRepository struct {
	db *gorm.DB
}

func NewRfqAssignmentRepository(db *gorm.DB) *RfqAssignmentRepository {
	return &RfqAssignmentRepository{db: db}
}

// CreateIfMissing inserts the assignment unless one exists for (rfq, supplier).
// Returns true when a row was inserted.
func (r *RfqAssignmentRepository) CreateIfMissing(ctx context.Context, assignment *domain.RfqAssignment) (bool, error) {
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(assignment)
	return result.RowsAffected > 0, result.Error
}

func (r *RfqAssignmentRepository) ListByRfq(ctx context.Context, rfqID uuid.UUID) ([]domain.RfqAssignment, error) {
	var assignments []domain.RfqAssignment
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Where("rfq_id = ?", rfqID).
		Order("created_at ASC").
		Find(&assignments).Error
	return assignments, err
}

// ListScoped returns the assignments of the caller's company with their RFQs
func (r *RfqAssignmentRepository) ListScoped(ctx context.Context) ([]domain.RfqAssignment, error) {
	var assignments []domain.RfqAssignment
	query := ApplyOwnerScope(ctx, r.db.WithContext(ctx).Model(&domain.RfqAssignment{}), "rfq_assignments.supplier_id")
	err := query.Preload("Rfq").Order("rfq_assignments.created_at DESC").Find(&assignments).Error
	return assignments, err
}

// FindScopedForRfq returns the caller company's assignment on an RFQ.
// Own assignments come before those of company peers.
func (r *RfqAssignmentRepository) FindScopedForRfq(ctx context.Context, rfqID, callerID uuid.UUID) (*domain.RfqAssignment, error) {
	var assignments []domain.RfqAssignment
	query := r.db.WithContext(ctx).Where("rfq_assignments.rfq_id = ?", rfqID)
	query = ApplyOwnerScope(ctx, query, "rfq_assignments.supplier_id")
	if err := query.Order("rfq_assignments.created_at ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	for i := range assignments {
		if assignments[i].SupplierID == callerID {
			return &assignments[i], nil
		}
	}
	return &assignments[0], nil
}

func (r *RfqAssignmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AssignmentStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.RfqAssignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()}).Error
}

// ExpireOverdue moves open assignments past their due date to expired
func (r *RfqAssignmentRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.RfqAssignment{}).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", domain.AssignmentStatusAssigned, now).
		Updates(map[string]interface{}{"status": domain.AssignmentStatusExpired, "updated_at": time.Now().UTC()})
	return result.RowsAffected, result.Error
}
