package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/domain"
)

func TestNumberFormats(t *testing.T) {
	assert.Equal(t, "CU0001", domain.FormatCompanyNumber(domain.CompanyTypeCustomer, 1))
	assert.Equal(t, "V0042", domain.FormatCompanyNumber(domain.CompanyTypeSupplier, 42))
	assert.Equal(t, "100010", domain.FormatUserNumber(1))
	assert.Equal(t, "SORD-25001", domain.FormatYearlyNumber(domain.PrefixSalesOrder, 2025, 1))
	assert.Equal(t, "SINV-261234", domain.FormatYearlyNumber(domain.PrefixSalesInvoice, 2026, 1234))
	assert.Equal(t, "PO-0007", domain.FormatPurchaseOrderNumber(7))
	assert.Equal(t, "SQTE-003", domain.FormatRfqReferenceNumber(3))
}

func TestParseNumbers(t *testing.T) {
	t.Run("company numbers must match the type", func(t *testing.T) {
		n, err := domain.ParseCompanyNumber(domain.CompanyTypeCustomer, "CU0012")
		require.NoError(t, err)
		assert.Equal(t, 12, n)

		_, err = domain.ParseCompanyNumber(domain.CompanyTypeSupplier, "CU0012")
		assert.Error(t, err)
		_, err = domain.ParseCompanyNumber(domain.CompanyTypeCustomer, "CU12")
		assert.Error(t, err)
	})

	t.Run("yearly", func(t *testing.T) {
		yy, seq, ok := domain.ParseYearlySequence("SQTE-25017")
		require.True(t, ok)
		assert.Equal(t, 25, yy)
		assert.Equal(t, 17, seq)

		_, _, ok = domain.ParseYearlySequence("SQTE-017")
		assert.False(t, ok)
	})

	t.Run("plain", func(t *testing.T) {
		seq, ok := domain.ParsePlainSequence("PO-0031")
		require.True(t, ok)
		assert.Equal(t, 31, seq)

		_, ok = domain.ParsePlainSequence("PO-")
		assert.False(t, ok)
	})
}

func TestParseFileLink(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		linkType string
		want     domain.FileLink
	}{
		{"rfq", domain.RfqFile{RfqID: id}},
		{"order", domain.OrderFile{OrderID: id}},
		{"quality_check", domain.QualityCheckFile{OrderID: id}},
		{"supplier_quote", domain.SupplierQuoteFile{SupplierQuoteID: id}},
	}
	for _, tt := range tests {
		t.Run(tt.linkType, func(t *testing.T) {
			link, err := domain.ParseFileLink(tt.linkType, id.String())
			require.NoError(t, err)
			assert.Equal(t, tt.want, link)
			assert.Equal(t, domain.FileLinkType(tt.linkType), link.LinkType())
			assert.Equal(t, id, link.TargetID())
		})
	}

	t.Run("rejects unknown types and bad ids", func(t *testing.T) {
		_, err := domain.ParseFileLink("invoice", id.String())
		assert.ErrorIs(t, err, domain.ErrInvalidFileLink)
		_, err = domain.ParseFileLink("rfq", "nope")
		assert.ErrorIs(t, err, domain.ErrInvalidFileLink)
		_, err = domain.ParseFileLink("rfq", uuid.Nil.String())
		assert.ErrorIs(t, err, domain.ErrInvalidFileLink)
	})

	t.Run("round trips through the stored columns", func(t *testing.T) {
		var f domain.File
		f.SetLink(domain.QualityCheckFile{OrderID: id})
		assert.Equal(t, domain.FileLinkQualityCheck, f.LinkedToType)

		link, err := f.Link()
		require.NoError(t, err)
		assert.Equal(t, domain.QualityCheckFile{OrderID: id}, link)
	})
}

func TestDetectFileType(t *testing.T) {
	tests := map[string]struct {
		want domain.FileType
		ok   bool
	}{
		"bracket.STEP": {domain.FileTypeStep, true},
		"housing.igs":  {domain.FileTypeStep, true},
		"drawing.dxf":  {domain.FileTypeDrawing, true},
		"bom.csv":      {domain.FileTypeExcel, true},
		"photo.jpeg":   {domain.FileTypeImage, true},
		"setup.exe":    {"", false},
		"README":       {"", false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := domain.DetectFileType(name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
