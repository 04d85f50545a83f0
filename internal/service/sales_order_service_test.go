package service_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/service"
	"github.com/valisyam/shub/internal/testutil"
)

func TestQuoteToOrderFlow(t *testing.T) {
	s := newServices(t)

	admin := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	company := testutil.CreateTestCompany(t, s.db, domain.CompanyTypeCustomer, "Acme")
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, &company.ID)
	adminCtx := ctxFor(t, s.db, admin)
	customerCtx := ctxFor(t, s.db, customer)

	rfq, err := s.rfqs.Create(customerCtx, &domain.CreateRfqRequest{
		ProjectName: "Bracket",
		Material:    "Aluminum",
		Quantity:    50,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RfqStatusSubmitted, rfq.Status)
	assert.Len(t, s.mail.To(admin.Email), 1, "admins are emailed about new RFQs")

	quote, err := s.quotes.AdminCreate(adminCtx, rfq.ID, &domain.CreateSalesQuoteRequest{Amount: 1200})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^SQTE-\d{5}$`), quote.QuoteNumber)
	assert.Equal(t, "USD", quote.Currency)
	assert.Equal(t, domain.QuoteStatusPending, quote.Status)

	quoted, err := s.rfqs.Get(customerCtx, rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RfqStatusQuoted, quoted.Status)

	t.Run("order needs an accepted RFQ", func(t *testing.T) {
		_, err := s.orders.Create(adminCtx, &domain.CreateOrderRequest{RfqID: rfq.ID})
		assert.ErrorIs(t, err, service.ErrRfqNotAccepted)
	})

	accepted, err := s.quotes.Respond(customerCtx, quote.ID, "accept")
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusAccepted, accepted.Status)
	assert.NotNil(t, accepted.RespondedAt)

	t.Run("a quote is answered once", func(t *testing.T) {
		_, err := s.quotes.Respond(customerCtx, quote.ID, "decline")
		assert.ErrorIs(t, err, service.ErrQuoteNotPending)
	})

	order, err := s.orders.Create(adminCtx, &domain.CreateOrderRequest{RfqID: rfq.ID})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^SORD-\d{5}$`), order.OrderNumber)
	assert.Equal(t, 50, order.Quantity)
	assert.Equal(t, 0, order.QuantityShipped)
	assert.Equal(t, 50, order.QuantityRemaining)
	assert.Equal(t, 1200.0, order.Amount)
	assert.Equal(t, domain.OrderStatusWaitingForPO, order.OrderStatus)
	assert.Equal(t, domain.PaymentStatusUnpaid, order.PaymentStatus)

	t.Run("one order per RFQ", func(t *testing.T) {
		_, err := s.orders.Create(adminCtx, &domain.CreateOrderRequest{RfqID: rfq.ID})
		assert.ErrorIs(t, err, service.ErrOrderExists)
	})

	t.Run("customer sees the order", func(t *testing.T) {
		orders, err := s.orders.List(customerCtx)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, order.ID, orders[0].ID)
	})
}

func TestSalesOrderService_CreateUsesAcceptedQuote(t *testing.T) {
	s := newServices(t)
	admin := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	rfq := testutil.CreateTestRfq(t, s.db, customer.ID, domain.RfqStatusSubmitted)
	adminCtx := ctxFor(t, s.db, admin)
	customerCtx := ctxFor(t, s.db, customer)

	first, err := s.quotes.AdminCreate(adminCtx, rfq.ID, &domain.CreateSalesQuoteRequest{Amount: 1200})
	require.NoError(t, err)
	second, err := s.quotes.AdminCreate(adminCtx, rfq.ID, &domain.CreateSalesQuoteRequest{Amount: 9999})
	require.NoError(t, err)

	_, err = s.quotes.Respond(customerCtx, first.ID, "accept")
	require.NoError(t, err)

	t.Run("answered RFQ takes no further responses", func(t *testing.T) {
		_, err := s.quotes.Respond(customerCtx, second.ID, "accept")
		assert.ErrorIs(t, err, service.ErrRfqClosed)
	})

	t.Run("answered RFQ takes no new quotes", func(t *testing.T) {
		_, err := s.quotes.AdminCreate(adminCtx, rfq.ID, &domain.CreateSalesQuoteRequest{Amount: 50})
		assert.ErrorIs(t, err, service.ErrRfqClosed)

		var stored domain.RFQ
		require.NoError(t, s.db.First(&stored, "id = ?", rfq.ID).Error)
		assert.Equal(t, domain.RfqStatusAccepted, stored.Status)
	})

	order, err := s.orders.Create(adminCtx, &domain.CreateOrderRequest{RfqID: rfq.ID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, order.QuoteID)
	assert.Equal(t, 1200.0, order.Amount)
}

func TestSalesQuoteService_Respond(t *testing.T) {
	s := newServices(t)
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	outsider := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	rfq := testutil.CreateTestRfq(t, s.db, customer.ID, domain.RfqStatusQuoted)
	quote := testutil.CreateTestSalesQuote(t, s.db, rfq.ID, domain.QuoteStatusPending)

	t.Run("unknown action", func(t *testing.T) {
		_, err := s.quotes.Respond(ctxFor(t, s.db, customer), quote.ID, "maybe")
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("other customers cannot see the quote", func(t *testing.T) {
		_, err := s.quotes.Respond(ctxFor(t, s.db, outsider), quote.ID, "accept")
		assert.ErrorIs(t, err, service.ErrQuoteNotFound)
	})

	t.Run("decline moves the RFQ to declined", func(t *testing.T) {
		got, err := s.quotes.Respond(ctxFor(t, s.db, customer), quote.ID, "decline")
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStatusDeclined, got.Status)

		var stored domain.RFQ
		require.NoError(t, s.db.First(&stored, "id = ?", rfq.ID).Error)
		assert.Equal(t, domain.RfqStatusDeclined, stored.Status)
	})
}

func TestSalesOrderService_CreateRequiresQuote(t *testing.T) {
	s := newServices(t)
	admin := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	rfq := testutil.CreateTestRfq(t, s.db, customer.ID, domain.RfqStatusAccepted)

	_, err := s.orders.Create(ctxFor(t, s.db, admin), &domain.CreateOrderRequest{RfqID: rfq.ID})
	assert.ErrorIs(t, err, service.ErrNoQuoteForRfq)
}

func TestSalesOrderService_Shipments(t *testing.T) {
	s := newServices(t)
	admin := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	rfq := testutil.CreateTestRfq(t, s.db, customer.ID, domain.RfqStatusAccepted)
	quote := testutil.CreateTestSalesQuote(t, s.db, rfq.ID, domain.QuoteStatusAccepted)
	order := testutil.CreateTestOrder(t, s.db, rfq, quote.ID)
	ctx := ctxFor(t, s.db, admin)

	loadOrder := func() domain.SalesOrder {
		var o domain.SalesOrder
		require.NoError(t, s.db.First(&o, "id = ?", order.ID).Error)
		return o
	}

	shipment, err := s.orders.CreateShipment(ctx, order.ID, &domain.CreateShipmentRequest{QuantityShipped: 20, Carrier: "UPS"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, shipment.TrackingStatus)

	o := loadOrder()
	assert.Equal(t, 20, o.QuantityShipped)
	assert.Equal(t, 30, o.QuantityRemaining)
	assert.Equal(t, domain.OrderStatusPending, o.OrderStatus, "partial shipments keep the order status")

	t.Run("over-shipping is rejected without changes", func(t *testing.T) {
		_, err := s.orders.CreateShipment(ctx, order.ID, &domain.CreateShipmentRequest{QuantityShipped: 31})
		assert.ErrorIs(t, err, service.ErrShipmentExceedsRemaining)

		o := loadOrder()
		assert.Equal(t, 30, o.QuantityRemaining)
		shipments, err := s.orders.ListShipments(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, shipments, 1)
	})

	t.Run("shipping the rest marks the order shipped", func(t *testing.T) {
		_, err := s.orders.CreateShipment(ctx, order.ID, &domain.CreateShipmentRequest{QuantityShipped: 30})
		require.NoError(t, err)

		o := loadOrder()
		assert.Equal(t, 50, o.QuantityShipped)
		assert.Equal(t, 0, o.QuantityRemaining)
		assert.Equal(t, domain.OrderStatusShipped, o.OrderStatus)
		assert.Equal(t, o.Quantity, o.QuantityShipped+o.QuantityRemaining)
	})

	t.Run("tracking updates only the shipment", func(t *testing.T) {
		updated, err := s.orders.UpdateShipmentTracking(ctx, shipment.ID, domain.OrderStatusDelivered)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusDelivered, updated.TrackingStatus)
		assert.Equal(t, domain.OrderStatusShipped, loadOrder().OrderStatus)
	})
}

func TestSalesOrderService_PaymentAndInvoices(t *testing.T) {
	s := newServices(t)
	admin := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	rfq := testutil.CreateTestRfq(t, s.db, customer.ID, domain.RfqStatusAccepted)
	quote := testutil.CreateTestSalesQuote(t, s.db, rfq.ID, domain.QuoteStatusAccepted)
	order := testutil.CreateTestOrder(t, s.db, rfq, quote.ID)
	ctx := ctxFor(t, s.db, admin)

	invoice, err := s.orders.CreateInvoice(ctx, order.ID, &domain.CreateInvoiceRequest{})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^SINV-\d{5}$`), invoice.InvoiceNumber)
	assert.Equal(t, 1200.0, invoice.Amount)

	paid, err := s.orders.MarkInvoicePaid(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)

	again, err := s.orders.MarkInvoicePaid(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, again.Status)
	assert.NotNil(t, again.PaidAt)

	t.Run("invalid status", func(t *testing.T) {
		_, err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatus("teleported"))
		assert.ErrorIs(t, err, service.ErrInvalidStatus)
	})

	t.Run("paid orders are archived and stay archived", func(t *testing.T) {
		got, err := s.orders.UpdatePayment(ctx, order.ID, domain.PaymentStatusPaid)
		require.NoError(t, err)
		assert.True(t, got.IsArchived)

		got, err = s.orders.UpdatePayment(ctx, order.ID, domain.PaymentStatusPartial)
		require.NoError(t, err)
		assert.True(t, got.IsArchived)

		archived, err := s.orders.ListArchived(ctxFor(t, s.db, customer))
		require.NoError(t, err)
		assert.Len(t, archived, 1)
		active, err := s.orders.List(ctxFor(t, s.db, customer))
		require.NoError(t, err)
		assert.Empty(t, active)
	})
}

func TestRfqService_Reorder(t *testing.T) {
	s := newServices(t)
	testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	rfq := testutil.CreateTestRfq(t, s.db, customer.ID, domain.RfqStatusAccepted)
	quote := testutil.CreateTestSalesQuote(t, s.db, rfq.ID, domain.QuoteStatusAccepted)
	order := testutil.CreateTestOrder(t, s.db, rfq, quote.ID)

	got, err := s.rfqs.Reorder(ctxFor(t, s.db, customer), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "REORDER: Bracket", got.ProjectName)
	assert.Equal(t, "Aluminum", got.Material)
	assert.Equal(t, 50, got.Quantity)
	assert.Equal(t, domain.RfqStatusSubmitted, got.Status)
	require.NotNil(t, got.SourceOrderID)
	assert.Equal(t, order.ID, *got.SourceOrderID)

	t.Run("orders of other customers are hidden", func(t *testing.T) {
		other := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
		_, err := s.rfqs.Reorder(ctxFor(t, s.db, other), order.ID)
		assert.ErrorIs(t, err, service.ErrOrderNotFound)
	})
}
