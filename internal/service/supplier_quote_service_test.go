package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/service"
	"github.com/valisyam/shub/internal/testutil"
)

func TestComputeQuoteTotals(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name  string
		costs service.QuoteCosts
		want  [4]string // subtotal, discount, tax, total
	}{
		{
			name: "full breakdown",
			costs: service.QuoteCosts{
				Quantity:              100,
				ToolingCost:           d("500"),
				MaterialCostPerPiece:  d("2.50"),
				MachiningCostPerPiece: d("4"),
				FinishingCostPerPiece: d("1"),
				PackagingCostPerPiece: d("0.50"),
				ShippingCost:          d("150"),
				TaxPercentage:         d("10"),
				DiscountPercentage:    d("5"),
			},
			want: [4]string{"1450", "72.5", "137.75", "1515.25"},
		},
		{
			name: "rounds to cents",
			costs: service.QuoteCosts{
				Quantity:             3,
				MaterialCostPerPiece: d("0.333"),
				TaxPercentage:        d("7.5"),
			},
			want: [4]string{"1", "0", "0.08", "1.08"},
		},
		{
			name:  "zero quantity keeps fixed costs",
			costs: service.QuoteCosts{ToolingCost: d("99.99"), MaterialCostPerPiece: d("5")},
			want:  [4]string{"99.99", "0", "0", "99.99"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.ComputeQuoteTotals(tt.costs)
			assert.True(t, got.Subtotal.Equal(d(tt.want[0])), "subtotal %s", got.Subtotal)
			assert.True(t, got.DiscountAmount.Equal(d(tt.want[1])), "discount %s", got.DiscountAmount)
			assert.True(t, got.TaxAmount.Equal(d(tt.want[2])), "tax %s", got.TaxAmount)
			assert.True(t, got.TotalAmount.Equal(d(tt.want[3])), "total %s", got.TotalAmount)
		})
	}
}

func TestSupplierWorkflow(t *testing.T) {
	s := newServices(t)

	admin := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	supplierA := testutil.CreateTestUser(t, s.db, domain.RoleSupplier, nil)
	supplierB := testutil.CreateTestUser(t, s.db, domain.RoleSupplier, nil)
	outsider := testutil.CreateTestUser(t, s.db, domain.RoleSupplier, nil)
	rfq := testutil.CreateTestRfq(t, s.db, customer.ID, domain.RfqStatusSubmitted)

	adminCtx := ctxFor(t, s.db, admin)
	ctxA := ctxFor(t, s.db, supplierA)
	ctxB := ctxFor(t, s.db, supplierB)

	t.Run("only suppliers can be assigned", func(t *testing.T) {
		_, err := s.rfqs.AssignSuppliers(adminCtx, rfq.ID, &domain.AssignSuppliersRequest{SupplierIDs: []uuid.UUID{customer.ID}})
		assert.ErrorIs(t, err, service.ErrNotSupplier)
	})

	due := time.Now().UTC().Add(48 * time.Hour)
	assignments, err := s.rfqs.AssignSuppliers(adminCtx, rfq.ID, &domain.AssignSuppliersRequest{
		SupplierIDs: []uuid.UUID{supplierA.ID, supplierB.ID},
		DueDate:     &due,
	})
	require.NoError(t, err)
	assert.Len(t, assignments, 2)
	assert.Len(t, s.mail.To(supplierA.Email), 1)

	var stored domain.RFQ
	require.NoError(t, s.db.First(&stored, "id = ?", rfq.ID).Error)
	assert.Equal(t, domain.RfqStatusSentToSuppliers, stored.Status)
	require.NotNil(t, stored.ReferenceNumber)
	assert.Equal(t, "SQTE-001", *stored.ReferenceNumber)

	t.Run("reassigning keeps existing assignments and the reference", func(t *testing.T) {
		again, err := s.rfqs.AssignSuppliers(adminCtx, rfq.ID, &domain.AssignSuppliersRequest{SupplierIDs: []uuid.UUID{supplierA.ID}})
		require.NoError(t, err)
		assert.Len(t, again, 2)
		assert.Len(t, s.mail.To(supplierA.Email), 1, "existing assignees are not emailed twice")

		var reloaded domain.RFQ
		require.NoError(t, s.db.First(&reloaded, "id = ?", rfq.ID).Error)
		assert.Equal(t, "SQTE-001", *reloaded.ReferenceNumber)
	})

	t.Run("assigned RFQ hides the customer", func(t *testing.T) {
		got, err := s.supplierQuote.GetAssignedRfq(ctxA, rfq.ID)
		require.NoError(t, err)
		assert.Empty(t, got.CustomerName)
		assert.Empty(t, got.CustomerEmail)
	})

	t.Run("unassigned supplier cannot see or quote", func(t *testing.T) {
		outsiderCtx := ctxFor(t, s.db, outsider)
		_, err := s.supplierQuote.GetAssignedRfq(outsiderCtx, rfq.ID)
		assert.ErrorIs(t, err, service.ErrNotAssigned)
		_, err = s.supplierQuote.SubmitQuote(outsiderCtx, rfq.ID, &domain.SubmitSupplierQuoteRequest{MaterialCostPerPiece: 1})
		assert.ErrorIs(t, err, service.ErrNotAssigned)
	})

	quoteA, err := s.supplierQuote.SubmitQuote(ctxA, rfq.ID, &domain.SubmitSupplierQuoteRequest{
		MaterialCostPerPiece: 10,
		ToolingCost:          100,
		TaxPercentage:        10,
		LeadTimeDays:         14,
	})
	require.NoError(t, err)
	assert.Equal(t, 50, quoteA.Quantity, "quantity defaults to the RFQ quantity")
	assert.Equal(t, 600.0, quoteA.Subtotal)
	assert.Equal(t, 660.0, quoteA.TotalAmount)
	assert.Equal(t, domain.SupplierQuoteStatusPending, quoteA.Status)

	quoteB, err := s.supplierQuote.SubmitQuote(ctxB, rfq.ID, &domain.SubmitSupplierQuoteRequest{MaterialCostPerPiece: 12})
	require.NoError(t, err)

	mine, err := s.supplierQuote.ListMyQuotes(ctxA)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	t.Run("purchase order needs an accepted quote", func(t *testing.T) {
		_, err := s.purchaseOrder.Create(adminCtx, &domain.CreatePurchaseOrderRequest{SupplierQuoteID: quoteA.ID})
		assert.ErrorIs(t, err, service.ErrSupplierQuoteNotAccepted)
	})

	accepted, err := s.supplierQuote.Accept(adminCtx, quoteA.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SupplierQuoteStatusAccepted, accepted.Status)

	var loser domain.SupplierQuote
	require.NoError(t, s.db.First(&loser, "id = ?", quoteB.ID).Error)
	assert.Equal(t, domain.SupplierQuoteStatusNotSelected, loser.Status)

	po, err := s.purchaseOrder.Create(adminCtx, &domain.CreatePurchaseOrderRequest{SupplierQuoteID: quoteA.ID})
	require.NoError(t, err)
	assert.Equal(t, "PO-0001", po.PONumber)
	assert.Equal(t, 660.0, po.Amount)
	assert.Equal(t, domain.POStatusPending, po.Status)

	t.Run("one purchase order per quote", func(t *testing.T) {
		_, err := s.purchaseOrder.Create(adminCtx, &domain.CreatePurchaseOrderRequest{SupplierQuoteID: quoteA.ID})
		assert.ErrorIs(t, err, service.ErrPurchaseOrderExists)
	})

	t.Run("progress requires acceptance", func(t *testing.T) {
		_, err := s.purchaseOrder.AdvanceStatus(ctxA, po.ID, domain.POStatusManufacturing)
		assert.ErrorIs(t, err, service.ErrPurchaseOrderNotActive)
	})

	t.Run("other suppliers cannot answer", func(t *testing.T) {
		_, err := s.purchaseOrder.Respond(ctxB, po.ID, &domain.RespondPurchaseOrderRequest{Action: "accept"})
		assert.ErrorIs(t, err, service.ErrPurchaseOrderNotFound)
	})

	got, err := s.purchaseOrder.Respond(ctxA, po.ID, &domain.RespondPurchaseOrderRequest{Action: "accept", Notes: "Starting Monday"})
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusAccepted, got.Status)

	_, err = s.purchaseOrder.Respond(ctxA, po.ID, &domain.RespondPurchaseOrderRequest{Action: "decline"})
	assert.ErrorIs(t, err, service.ErrPurchaseOrderNotPending)

	_, err = s.purchaseOrder.AdvanceStatus(ctxA, po.ID, domain.POStatusPending)
	assert.ErrorIs(t, err, service.ErrInvalidStatus)

	t.Run("invoice and archive wait for delivery", func(t *testing.T) {
		_, err := s.purchaseOrder.Archive(adminCtx, po.ID)
		assert.ErrorIs(t, err, service.ErrPurchaseOrderNotDelivery)

		delivered, err := s.purchaseOrder.AdvanceStatus(ctxA, po.ID, domain.POStatusDelivered)
		require.NoError(t, err)
		assert.Equal(t, domain.POStatusDelivered, delivered.Status)

		archived, err := s.purchaseOrder.Archive(adminCtx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.POStatusArchived, archived.Status)
		assert.NotNil(t, archived.ArchivedAt)
	})
}

func TestSupplierQuoteService_ExpiredAssignment(t *testing.T) {
	s := newServices(t)
	admin := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	supplier := testutil.CreateTestUser(t, s.db, domain.RoleSupplier, nil)
	rfq := testutil.CreateTestRfq(t, s.db, customer.ID, domain.RfqStatusSentToSuppliers)

	past := time.Now().UTC().Add(-time.Hour)
	testutil.CreateTestAssignment(t, s.db, rfq.ID, supplier.ID, admin.ID, &past)

	_, err := s.supplierQuote.SubmitQuote(ctxFor(t, s.db, supplier), rfq.ID, &domain.SubmitSupplierQuoteRequest{MaterialCostPerPiece: 1})
	assert.ErrorIs(t, err, service.ErrAssignmentExpired)

	n, err := s.supplierQuote.ExpireAssignments(ctxFor(t, s.db, admin))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var a domain.RfqAssignment
	require.NoError(t, s.db.First(&a, "rfq_id = ?", rfq.ID).Error)
	assert.Equal(t, domain.AssignmentStatusExpired, a.Status)
}
