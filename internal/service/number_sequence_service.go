package service

import (
	"context"
	"fmt"
	"time"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/mapper"
	"github.com/valisyam/shub/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NumberingService generates the human readable numbers of companies, users
// and documents. Each kind has its own counter in number_sequences.
//
// Formats:
//
//	CU0001 / V0001   companies
//	100010           users
//	SQTE-25001       sales quotes (yearly)
//	SORD-25001       sales orders (yearly)
//	SINV-25001       sales invoices (yearly)
//	PO-0001          purchase orders
//	SQTE-001         RFQ reference numbers
type NumberingService struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewNumberingService creates a new NumberingService
func NewNumberingService(db *gorm.DB, logger *zap.Logger) *NumberingService {
	return &NumberingService{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithTx returns a copy bound to tx so the number is issued inside the
// caller's transaction
func (s *NumberingService) WithTx(tx *gorm.DB) *NumberingService {
	return &NumberingService{db: tx, logger: s.logger, now: s.now}
}

func (s *NumberingService) next(ctx context.Context, scope string, year int, seed repository.SeedFunc) (int, error) {
	seq, err := repository.NewNumberSequenceRepository(s.db).GetNextNumber(ctx, scope, year, seed)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("scope", scope),
			zap.Int("year", year),
			zap.Error(err))
		return 0, fmt.Errorf("failed to generate %s number: %w", scope, err)
	}
	return seq, nil
}

// NextCompanyNumber returns the next CU#### or V#### number
func (s *NumberingService) NextCompanyNumber(ctx context.Context, companyType domain.CompanyType) (string, error) {
	seq, err := s.next(ctx, domain.CompanySequenceScope(companyType), 0, func(tx *gorm.DB) (int, error) {
		return repository.NewCompanyRepository(tx).MaxNumericNumber(ctx, companyType)
	})
	if err != nil {
		return "", err
	}
	return domain.FormatCompanyNumber(companyType, seq), nil
}

// RaiseCompanyCounter moves the company counter past a manually assigned
// number. Numbers already held by companies of the type count too.
func (s *NumberingService) RaiseCompanyCounter(ctx context.Context, companyType domain.CompanyType, assigned int) error {
	max, err := repository.NewCompanyRepository(s.db).MaxNumericNumber(ctx, companyType)
	if err != nil {
		return fmt.Errorf("failed to read company numbers: %w", err)
	}
	if assigned > max {
		max = assigned
	}
	return repository.NewNumberSequenceRepository(s.db).SetSequence(ctx, domain.CompanySequenceScope(companyType), 0, max)
}

// NextUserNumber returns the next numeric user number, starting at 100010
func (s *NumberingService) NextUserNumber(ctx context.Context) (string, error) {
	seq, err := s.next(ctx, domain.SequenceUser, 0, func(tx *gorm.DB) (int, error) {
		max, err := repository.NewUserRepository(tx).MaxUserNumber(ctx)
		if err != nil {
			return 0, err
		}
		if max <= domain.UserNumberBase {
			return 0, nil
		}
		return max - domain.UserNumberBase, nil
	})
	if err != nil {
		return "", err
	}
	return domain.FormatUserNumber(seq), nil
}

// yearlyMax returns the highest sequence of PREFIX-YYNNN numbers for a year
type yearlyMax func(tx *gorm.DB, yy int) (int, error)

func (s *NumberingService) nextYearly(ctx context.Context, scope, prefix string, max yearlyMax) (string, error) {
	year := s.now().Year()
	seq, err := s.next(ctx, scope, year, func(tx *gorm.DB) (int, error) {
		return max(tx, year%100)
	})
	if err != nil {
		return "", err
	}
	number := domain.FormatYearlyNumber(prefix, year, seq)
	s.logger.Debug("generated number", zap.String("number", number), zap.String("scope", scope))
	return number, nil
}

// NextSalesQuoteNumber returns SQTE-YYNNN
func (s *NumberingService) NextSalesQuoteNumber(ctx context.Context) (string, error) {
	return s.nextYearly(ctx, domain.SequenceSalesQuote, domain.PrefixSalesQuote, func(tx *gorm.DB, yy int) (int, error) {
		return repository.NewSalesQuoteRepository(tx).MaxYearlySequence(ctx, yy)
	})
}

// NextOrderNumber returns SORD-YYNNN
func (s *NumberingService) NextOrderNumber(ctx context.Context) (string, error) {
	return s.nextYearly(ctx, domain.SequenceSalesOrder, domain.PrefixSalesOrder, func(tx *gorm.DB, yy int) (int, error) {
		return repository.NewSalesOrderRepository(tx).MaxYearlySequence(ctx, yy)
	})
}

// NextInvoiceNumber returns SINV-YYNNN
func (s *NumberingService) NextInvoiceNumber(ctx context.Context) (string, error) {
	return s.nextYearly(ctx, domain.SequenceSalesInvoice, domain.PrefixSalesInvoice, func(tx *gorm.DB, yy int) (int, error) {
		return repository.NewInvoiceRepository(tx).MaxYearlySequence(ctx, yy)
	})
}

// NextPurchaseOrderNumber returns PO-NNNN
func (s *NumberingService) NextPurchaseOrderNumber(ctx context.Context) (string, error) {
	seq, err := s.next(ctx, domain.SequencePurchaseOrder, 0, func(tx *gorm.DB) (int, error) {
		return repository.NewPurchaseOrderRepository(tx).MaxSequence(ctx)
	})
	if err != nil {
		return "", err
	}
	return domain.FormatPurchaseOrderNumber(seq), nil
}

// NextRfqReferenceNumber returns SQTE-NNN. This counter is independent of
// the yearly sales quote counter.
func (s *NumberingService) NextRfqReferenceNumber(ctx context.Context) (string, error) {
	seq, err := s.next(ctx, domain.SequenceRfqReference, 0, func(tx *gorm.DB) (int, error) {
		return repository.NewRfqRepository(tx).MaxReferenceSequence(ctx)
	})
	if err != nil {
		return "", err
	}
	return domain.FormatRfqReferenceNumber(seq), nil
}

// ListSequences returns every counter for the admin overview
func (s *NumberingService) ListSequences(ctx context.Context) ([]domain.NumberSequenceDTO, error) {
	seqs, err := repository.NewNumberSequenceRepository(s.db).ListSequences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sequences: %w", err)
	}
	dtos := make([]domain.NumberSequenceDTO, len(seqs))
	for i := range seqs {
		dtos[i] = mapper.ToNumberSequenceDTO(&seqs[i])
	}
	return dtos, nil
}
