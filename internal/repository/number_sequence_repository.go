package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valisyam/shub/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedFunc returns the highest sequence already in use for a scope.
// It runs inside the numbering transaction the first time a scope/year is used.
type SeedFunc func(tx *gorm.DB) (int, error)

// NumberSequenceRepository handles database operations for number sequences.
// Each (scope, year) pair is an independent counter; non-yearly scopes use year 0.
type NumberSequenceRepository struct {
	db *gorm.DB
}

// NewNumberSequenceRepository creates a new NumberSequenceRepository
func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

func lockSequence(tx *gorm.DB, scope string, year int, seq *domain.NumberSequence) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("scope = ? AND year = ?", scope, year).
		First(seq).Error
}

// GetNextNumber atomically retrieves and increments the sequence for a scope/year.
// The row is read with SELECT FOR UPDATE so concurrent callers are serialized.
// A missing row is created from seed (or zero) before incrementing.
func (r *NumberSequenceRepository) GetNextNumber(ctx context.Context, scope string, year int, seed SeedFunc) (int, error) {
	var nextSeq int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq domain.NumberSequence
		err := lockSequence(tx, scope, year, &seq)

		if errors.Is(err, gorm.ErrRecordNotFound) {
			start := 0
			if seed != nil {
				start, err = seed(tx)
				if err != nil {
					return fmt.Errorf("failed to seed number sequence %s: %w", scope, err)
				}
			}
			now := time.Now().UTC()
			// Another transaction may insert the row first; DO NOTHING keeps ours valid
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.NumberSequence{
				Scope:        scope,
				Year:         year,
				LastSequence: start,
				CreatedAt:    now,
				UpdatedAt:    now,
			}).Error; err != nil {
				return fmt.Errorf("failed to create number sequence: %w", err)
			}
			err = lockSequence(tx, scope, year, &seq)
		}
		if err != nil {
			return fmt.Errorf("failed to get number sequence: %w", err)
		}

		nextSeq = seq.LastSequence + 1
		if err := tx.Model(&domain.NumberSequence{}).
			Where("scope = ? AND year = ?", scope, year).
			Updates(map[string]interface{}{
				"last_sequence": nextSeq,
				"updated_at":    time.Now().UTC(),
			}).Error; err != nil {
			return fmt.Errorf("failed to update number sequence: %w", err)
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return nextSeq, nil
}

// GetCurrentSequence retrieves the current sequence value without incrementing.
// Returns 0 if no sequence exists for the scope/year.
func (r *NumberSequenceRepository) GetCurrentSequence(ctx context.Context, scope string, year int) (int, error) {
	var seq domain.NumberSequence
	result := r.db.WithContext(ctx).
		Where("scope = ? AND year = ?", scope, year).
		First(&seq)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get number sequence: %w", result.Error)
	}
	return seq.LastSequence, nil
}

// SetSequence raises the sequence to value (the last used number).
// A lower value is ignored so numbers are never reissued.
func (r *NumberSequenceRepository) SetSequence(ctx context.Context, scope string, year int, value int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq domain.NumberSequence
		err := lockSequence(tx, scope, year, &seq)

		if errors.Is(err, gorm.ErrRecordNotFound) {
			now := time.Now().UTC()
			seq = domain.NumberSequence{
				Scope:        scope,
				Year:         year,
				LastSequence: value,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to create number sequence: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get number sequence: %w", err)
		}

		if value > seq.LastSequence {
			if err := tx.Model(&domain.NumberSequence{}).
				Where("scope = ? AND year = ?", scope, year).
				Updates(map[string]interface{}{
					"last_sequence": value,
					"updated_at":    time.Now().UTC(),
				}).Error; err != nil {
				return fmt.Errorf("failed to update number sequence: %w", err)
			}
		}
		return nil
	})
}

// ListSequences returns all sequences (useful for debugging/admin)
func (r *NumberSequenceRepository) ListSequences(ctx context.Context) ([]domain.NumberSequence, error) {
	var sequences []domain.NumberSequence
	err := r.db.WithContext(ctx).
		Order("scope ASC, year DESC").
		Find(&sequences).Error
	return sequences, err
}
