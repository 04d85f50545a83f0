package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExportKind names a workbook the admin can download
type ExportKind string

const (
	ExportOrders         ExportKind = "orders"
	ExportRfqs           ExportKind = "rfqs"
	ExportPurchaseOrders ExportKind = "purchase-orders"
)

var (
	orderExportHeaders = []string{"Order Number", "Customer", "Project", "Material", "Quantity", "Shipped", "Remaining", "Amount", "Currency", "Order Status", "Payment Status", "Order Date", "Due Date", "Archived"}
	rfqExportHeaders   = []string{"Created", "Customer", "Project", "Material", "Grade", "Finishing", "Tolerance", "Quantity", "Process", "International OK", "Status", "Reference"}
	poExportHeaders    = []string{"PO Number", "Supplier", "Amount", "Currency", "Status", "Due Date", "Responded", "Invoice Uploaded", "Archived"}
)

// ExportService builds admin spreadsheet exports
type ExportService struct {
	rfqRepo   *repository.RfqRepository
	orderRepo *repository.SalesOrderRepository
	poRepo    *repository.PurchaseOrderRepository
	logger    *zap.Logger
}

func NewExportService(
	rfqRepo *repository.RfqRepository,
	orderRepo *repository.SalesOrderRepository,
	poRepo *repository.PurchaseOrderRepository,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		rfqRepo:   rfqRepo,
		orderRepo: orderRepo,
		poRepo:    poRepo,
		logger:    logger,
	}
}

// FileName returns the download name for an export kind
func (k ExportKind) FileName(now time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", k, now.Format("20060102"))
}

// Write renders the workbook for kind into w
func (s *ExportService) Write(ctx context.Context, kind ExportKind, w io.Writer) (int, error) {
	var (
		sheet   string
		headers []string
		rows    [][]interface{}
	)

	switch kind {
	case ExportOrders:
		orders, err := s.orderRepo.ListAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list orders: %w", err)
		}
		sheet, headers = "Orders", orderExportHeaders
		for _, o := range orders {
			rows = append(rows, []interface{}{
				o.OrderNumber, userName(o.User), o.ProjectName, o.Material,
				o.Quantity, o.QuantityShipped, o.QuantityRemaining,
				o.Amount.InexactFloat64(), o.Currency,
				string(o.OrderStatus), string(o.PaymentStatus),
				formatDate(&o.OrderDate), formatDate(o.DueDate), strconv.FormatBool(o.IsArchived),
			})
		}
	case ExportRfqs:
		rfqs, err := s.rfqRepo.ListAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list RFQs: %w", err)
		}
		sheet, headers = "RFQs", rfqExportHeaders
		for _, r := range rfqs {
			ref := ""
			if r.ReferenceNumber != nil {
				ref = *r.ReferenceNumber
			}
			rows = append(rows, []interface{}{
				formatDate(&r.CreatedAt), userName(r.User), r.ProjectName, r.Material,
				r.MaterialGrade, r.Finishing, r.Tolerance, r.Quantity, r.ManufacturingProcess,
				strconv.FormatBool(r.InternationalManufacturingOK), string(r.Status), ref,
			})
		}
	case ExportPurchaseOrders:
		pos, err := s.poRepo.ListAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list purchase orders: %w", err)
		}
		sheet, headers = "Purchase Orders", poExportHeaders
		for _, p := range pos {
			rows = append(rows, []interface{}{
				p.PONumber, userName(p.Supplier), p.Amount.InexactFloat64(), p.Currency,
				string(p.Status), formatDate(p.DueDate), formatDate(p.RespondedAt),
				formatDate(p.InvoiceUploadedAt), formatDate(p.ArchivedAt),
			})
		}
	default:
		return 0, fmt.Errorf("%w: unknown export %q", ErrInvalidInput, kind)
	}

	if err := writeWorkbook(w, sheet, headers, rows); err != nil {
		return 0, err
	}

	s.logger.Info("export generated",
		zap.String("kind", string(kind)),
		zap.Int("rows", len(rows)))
	return len(rows), nil
}

func writeWorkbook(w io.Writer, sheet string, headers []string, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style headers: %w", err)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func userName(u *domain.User) string {
	if u == nil {
		return ""
	}
	return u.Name
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
