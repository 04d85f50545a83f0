package service_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/service"
	"github.com/valisyam/shub/internal/storage"
	"github.com/valisyam/shub/internal/testutil"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestUploader_Store(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	up := service.NewUploader(store, 8, zap.NewNop())
	ctx := context.Background()

	t.Run("extension allowlist", func(t *testing.T) {
		_, err := up.Store(ctx, "files", &service.Upload{FileName: "run.exe", Data: strings.NewReader("MZ")})
		assert.ErrorIs(t, err, service.ErrFileTypeNotAllowed)
	})

	t.Run("declared size over the limit", func(t *testing.T) {
		_, err := up.Store(ctx, "files", &service.Upload{FileName: "a.pdf", Size: 9, Data: strings.NewReader("123456789")})
		assert.ErrorIs(t, err, service.ErrFileTooLarge)
	})

	t.Run("undeclared size over the limit", func(t *testing.T) {
		_, err := up.Store(ctx, "files", &service.Upload{FileName: "a.pdf", Data: strings.NewReader("123456789")})
		assert.ErrorIs(t, err, service.ErrFileTooLarge)
	})

	t.Run("within the limit", func(t *testing.T) {
		stored, err := up.Store(ctx, "files", &service.Upload{FileName: "../../part.dxf", Data: strings.NewReader("0\nSECT")})
		require.NoError(t, err)
		assert.Equal(t, "part.dxf", stored.FileName)
		assert.Equal(t, domain.FileTypeDrawing, stored.FileType)
		assert.Equal(t, int64(6), stored.Size)
	})
}

func TestFileService_Access(t *testing.T) {
	s := newServices(t)

	admin := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	company := testutil.CreateTestCompany(t, s.db, domain.CompanyTypeCustomer, "Acme")
	owner := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, &company.ID)
	peer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, &company.ID)
	stranger := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	supplier := testutil.CreateTestUser(t, s.db, domain.RoleSupplier, nil)

	rfq := testutil.CreateTestRfq(t, s.db, owner.ID, domain.RfqStatusSubmitted)
	quote := testutil.CreateTestSalesQuote(t, s.db, rfq.ID, domain.QuoteStatusAccepted)
	order := testutil.CreateTestOrder(t, s.db, rfq, quote.ID)
	link := domain.RfqFile{RfqID: rfq.ID}

	file, err := s.files.Upload(ctxFor(t, s.db, owner), link, &service.Upload{FileName: "bracket.step", Data: strings.NewReader("ISO-10303-21")})
	require.NoError(t, err)
	assert.Equal(t, domain.FileTypeStep, file.FileType)
	assert.Equal(t, domain.FileLinkRfq, file.LinkedToType)
	assert.Equal(t, owner.ID, file.UploadedByID)

	t.Run("company peers can list and download", func(t *testing.T) {
		files, err := s.files.ListByLink(ctxFor(t, s.db, peer), link)
		require.NoError(t, err)
		assert.Len(t, files, 1)

		dl, err := s.files.Download(ctxFor(t, s.db, peer), file.ID)
		require.NoError(t, err)
		defer dl.Body.Close()
		body, _ := io.ReadAll(dl.Body)
		assert.Equal(t, "ISO-10303-21", string(body))
	})

	t.Run("strangers get not found", func(t *testing.T) {
		_, err := s.files.GetByID(ctxFor(t, s.db, stranger), file.ID)
		assert.ErrorIs(t, err, service.ErrFileNotFound)
		_, err = s.files.Upload(ctxFor(t, s.db, stranger), link, &service.Upload{FileName: "x.pdf", Data: strings.NewReader("x")})
		assert.ErrorIs(t, err, service.ErrRfqNotFound)
	})

	t.Run("assigned suppliers can read RFQ files", func(t *testing.T) {
		supplierCtx := ctxFor(t, s.db, supplier)
		_, err := s.files.GetByID(supplierCtx, file.ID)
		assert.ErrorIs(t, err, service.ErrFileNotFound)

		testutil.CreateTestAssignment(t, s.db, rfq.ID, supplier.ID, admin.ID, nil)
		got, err := s.files.GetByID(supplierCtx, file.ID)
		require.NoError(t, err)
		assert.Equal(t, file.ID, got.ID)

		_, err = s.files.Upload(supplierCtx, link, &service.Upload{FileName: "x.pdf", Data: strings.NewReader("x")})
		assert.ErrorIs(t, err, service.ErrRfqNotFound)
	})

	t.Run("quality check files are written by admins", func(t *testing.T) {
		qc := domain.QualityCheckFile{OrderID: order.ID}
		_, err := s.files.Upload(ctxFor(t, s.db, owner), qc, &service.Upload{FileName: "report.pdf", Data: strings.NewReader("ok")})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)

		report, err := s.files.Upload(ctxFor(t, s.db, admin), qc, &service.Upload{FileName: "report.pdf", Data: strings.NewReader("ok")})
		require.NoError(t, err)

		files, err := s.files.ListByLink(ctxFor(t, s.db, owner), qc)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, report.ID, files[0].ID)
	})

	t.Run("only admins delete", func(t *testing.T) {
		err := s.files.Delete(ctxFor(t, s.db, owner), file.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)

		require.NoError(t, s.files.Delete(ctxFor(t, s.db, admin), file.ID))
		_, err = s.files.GetByID(ctxFor(t, s.db, owner), file.ID)
		assert.ErrorIs(t, err, service.ErrFileNotFound)
	})
}

func TestExportService_Write(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	rfq := testutil.CreateTestRfq(t, s.db, customer.ID, domain.RfqStatusAccepted)
	quote := testutil.CreateTestSalesQuote(t, s.db, rfq.ID, domain.QuoteStatusAccepted)
	order := testutil.CreateTestOrder(t, s.db, rfq, quote.ID)

	var buf bytes.Buffer
	n, err := s.exports.Write(ctx, service.ExportOrders, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Orders"}, f.GetSheetList())
	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Order Number", rows[0][0])
	assert.Equal(t, "Archived", rows[0][len(rows[0])-1])
	assert.Equal(t, order.OrderNumber, rows[1][0])
	assert.Equal(t, customer.Name, rows[1][1])

	t.Run("empty sheets still carry headers", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := s.exports.Write(ctx, service.ExportPurchaseOrders, &buf)
		require.NoError(t, err)
		assert.Zero(t, n)

		f, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Purchase Orders")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "PO Number", rows[0][0])
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := s.exports.Write(ctx, service.ExportKind("widgets"), io.Discard)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	assert.Equal(t, "rfqs-20260102.xlsx", service.ExportRfqs.FileName(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
}
