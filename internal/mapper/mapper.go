package mapper

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/valisyam/shub/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	dto := domain.UserDTO{
		ID:                user.ID,
		Email:             user.Email,
		Role:              user.Role,
		Name:              user.Name,
		Phone:             user.Phone,
		UserNumber:        user.UserNumber,
		CompanyID:         user.CompanyID,
		IsVerified:        user.IsVerified,
		MustResetPassword: user.MustResetPassword,
		LastLoginAt:       formatTimePtr(user.LastLoginAt),
		CreatedAt:         formatTime(user.CreatedAt),
	}
	if user.Company != nil {
		dto.CompanyNumber = user.Company.CompanyNumber
		dto.CompanyName = user.Company.Name
	}
	return dto
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []domain.User) []domain.UserDTO {
	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = ToUserDTO(&users[i])
	}
	return dtos
}

// ToCompanyDTO converts Company to CompanyDTO, including loaded members
func ToCompanyDTO(company *domain.Company) domain.CompanyDTO {
	dto := domain.CompanyDTO{
		ID:            company.ID,
		CompanyNumber: company.CompanyNumber,
		Type:          company.Type,
		Name:          company.Name,
		Email:         company.Email,
		Phone:         company.Phone,
		Address:       company.Address,
		City:          company.City,
		Country:       company.Country,
		CreatedAt:     formatTime(company.CreatedAt),
	}
	for i := range company.Users {
		member := company.Users[i]
		member.Company = nil
		m := ToUserDTO(&member)
		m.CompanyNumber = company.CompanyNumber
		m.CompanyName = company.Name
		dto.Members = append(dto.Members, m)
	}
	return dto
}

// ToCompanyDTOs converts a slice of companies
func ToCompanyDTOs(companies []domain.Company) []domain.CompanyDTO {
	dtos := make([]domain.CompanyDTO, len(companies))
	for i := range companies {
		dtos[i] = ToCompanyDTO(&companies[i])
	}
	return dtos
}

// ToRfqDTO converts RFQ to RfqDTO
func ToRfqDTO(rfq *domain.RFQ) domain.RfqDTO {
	dto := domain.RfqDTO{
		ID:                           rfq.ID,
		UserID:                       rfq.UserID,
		ProjectName:                  rfq.ProjectName,
		Material:                     rfq.Material,
		MaterialGrade:                rfq.MaterialGrade,
		Finishing:                    rfq.Finishing,
		Tolerance:                    rfq.Tolerance,
		Quantity:                     rfq.Quantity,
		ManufacturingProcess:         rfq.ManufacturingProcess,
		InternationalManufacturingOK: rfq.InternationalManufacturingOK,
		Notes:                        rfq.Notes,
		Status:                       rfq.Status,
		ReferenceNumber:              rfq.ReferenceNumber,
		SourceOrderID:                rfq.SourceOrderID,
		CreatedAt:                    formatTime(rfq.CreatedAt),
		UpdatedAt:                    formatTime(rfq.UpdatedAt),
	}
	if rfq.User != nil {
		dto.CustomerName = rfq.User.Name
		dto.CustomerEmail = rfq.User.Email
	}
	return dto
}

// ToRfqDTOs converts a slice of RFQs
func ToRfqDTOs(rfqs []domain.RFQ) []domain.RfqDTO {
	dtos := make([]domain.RfqDTO, len(rfqs))
	for i := range rfqs {
		dtos[i] = ToRfqDTO(&rfqs[i])
	}
	return dtos
}

// ToSalesQuoteDTO converts SalesQuote to SalesQuoteDTO
func ToSalesQuoteDTO(quote *domain.SalesQuote) domain.SalesQuoteDTO {
	dto := domain.SalesQuoteDTO{
		ID:                    quote.ID,
		QuoteNumber:           quote.QuoteNumber,
		RfqID:                 quote.RfqID,
		Amount:                money(quote.Amount),
		Currency:              quote.Currency,
		ValidUntil:            formatTime(quote.ValidUntil),
		EstimatedDeliveryDate: formatTimePtr(quote.EstimatedDeliveryDate),
		Notes:                 quote.Notes,
		Status:                quote.Status,
		RespondedAt:           formatTimePtr(quote.RespondedAt),
		HasQuoteFile:          quote.QuoteFilePath != "",
		QuoteFileName:         quote.QuoteFileName,
		HasPurchaseOrder:      quote.HasPurchaseOrder(),
		PurchaseOrderFileName: quote.PurchaseOrderFileName,
		CustomerPONumber:      quote.CustomerPONumber,
		CreatedAt:             formatTime(quote.CreatedAt),
	}
	if quote.Rfq != nil {
		dto.ProjectName = quote.Rfq.ProjectName
	}
	return dto
}

// ToSalesQuoteDTOs converts a slice of quotes
func ToSalesQuoteDTOs(quotes []domain.SalesQuote) []domain.SalesQuoteDTO {
	dtos := make([]domain.SalesQuoteDTO, len(quotes))
	for i := range quotes {
		dtos[i] = ToSalesQuoteDTO(&quotes[i])
	}
	return dtos
}

// ToShipmentDTO converts Shipment to ShipmentDTO
func ToShipmentDTO(s *domain.Shipment) domain.ShipmentDTO {
	return domain.ShipmentDTO{
		ID:              s.ID,
		SalesOrderID:    s.SalesOrderID,
		QuantityShipped: s.QuantityShipped,
		TrackingNumber:  s.TrackingNumber,
		Carrier:         s.Carrier,
		TrackingStatus:  s.TrackingStatus,
		ShippedAt:       formatTime(s.ShippedAt),
		Notes:           s.Notes,
	}
}

// ToShipmentDTOs converts a slice of shipments
func ToShipmentDTOs(shipments []domain.Shipment) []domain.ShipmentDTO {
	dtos := make([]domain.ShipmentDTO, len(shipments))
	for i := range shipments {
		dtos[i] = ToShipmentDTO(&shipments[i])
	}
	return dtos
}

// ToSalesInvoiceDTO converts SalesInvoice to SalesInvoiceDTO
func ToSalesInvoiceDTO(inv *domain.SalesInvoice) domain.SalesInvoiceDTO {
	return domain.SalesInvoiceDTO{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		SalesOrderID:  inv.SalesOrderID,
		Amount:        money(inv.Amount),
		Currency:      inv.Currency,
		DueDate:       formatTimePtr(inv.DueDate),
		Status:        inv.Status,
		PaidAt:        formatTimePtr(inv.PaidAt),
		CreatedAt:     formatTime(inv.CreatedAt),
	}
}

// ToSalesInvoiceDTOs converts a slice of invoices
func ToSalesInvoiceDTOs(invoices []domain.SalesInvoice) []domain.SalesInvoiceDTO {
	dtos := make([]domain.SalesInvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = ToSalesInvoiceDTO(&invoices[i])
	}
	return dtos
}

// ToSalesOrderDTO converts SalesOrder to SalesOrderDTO with any loaded shipments and invoices
func ToSalesOrderDTO(order *domain.SalesOrder) domain.SalesOrderDTO {
	dto := domain.SalesOrderDTO{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		RfqID:             order.RfqID,
		QuoteID:           order.QuoteID,
		UserID:            order.UserID,
		ProjectName:       order.ProjectName,
		Material:          order.Material,
		MaterialGrade:     order.MaterialGrade,
		Finishing:         order.Finishing,
		Tolerance:         order.Tolerance,
		Quantity:          order.Quantity,
		QuantityShipped:   order.QuantityShipped,
		QuantityRemaining: order.QuantityRemaining,
		Amount:            money(order.Amount),
		Currency:          order.Currency,
		OrderStatus:       order.OrderStatus,
		PaymentStatus:     order.PaymentStatus,
		IsArchived:        order.IsArchived,
		ArchivedAt:        formatTimePtr(order.ArchivedAt),
		OrderDate:         formatTime(order.OrderDate),
		DueDate:           formatTimePtr(order.DueDate),
		Notes:             order.Notes,
		CreatedAt:         formatTime(order.CreatedAt),
	}
	if order.User != nil {
		dto.CustomerName = order.User.Name
	}
	if len(order.Shipments) > 0 {
		dto.Shipments = ToShipmentDTOs(order.Shipments)
	}
	if len(order.Invoices) > 0 {
		dto.Invoices = ToSalesInvoiceDTOs(order.Invoices)
	}
	return dto
}

// ToSalesOrderDTOs converts a slice of orders
func ToSalesOrderDTOs(orders []domain.SalesOrder) []domain.SalesOrderDTO {
	dtos := make([]domain.SalesOrderDTO, len(orders))
	for i := range orders {
		dtos[i] = ToSalesOrderDTO(&orders[i])
	}
	return dtos
}

// ToSupplierQuoteDTO converts SupplierQuote to SupplierQuoteDTO
func ToSupplierQuoteDTO(q *domain.SupplierQuote) domain.SupplierQuoteDTO {
	f := func(d decimal.Decimal) float64 {
		v, _ := d.Float64()
		return v
	}
	dto := domain.SupplierQuoteDTO{
		ID:                    q.ID,
		RfqID:                 q.RfqID,
		SupplierID:            q.SupplierID,
		Quantity:              q.Quantity,
		ToolingCost:           money(q.ToolingCost),
		MaterialCostPerPiece:  f(q.MaterialCostPerPiece),
		MachiningCostPerPiece: f(q.MachiningCostPerPiece),
		FinishingCostPerPiece: f(q.FinishingCostPerPiece),
		PackagingCostPerPiece: f(q.PackagingCostPerPiece),
		ShippingCost:          money(q.ShippingCost),
		TaxPercentage:         f(q.TaxPercentage),
		DiscountPercentage:    f(q.DiscountPercentage),
		Subtotal:              money(q.Subtotal),
		DiscountAmount:        money(q.DiscountAmount),
		TaxAmount:             money(q.TaxAmount),
		TotalAmount:           money(q.TotalAmount),
		Currency:              q.Currency,
		LeadTimeDays:          q.LeadTimeDays,
		ValidUntil:            formatTimePtr(q.ValidUntil),
		Notes:                 q.Notes,
		Status:                q.Status,
		CreatedAt:             formatTime(q.CreatedAt),
	}
	if q.Rfq != nil {
		dto.RfqReferenceNumber = q.Rfq.ReferenceNumber
	}
	if q.Supplier != nil {
		dto.SupplierName = q.Supplier.Name
	}
	return dto
}

// ToSupplierQuoteDTOs converts a slice of supplier quotes
func ToSupplierQuoteDTOs(quotes []domain.SupplierQuote) []domain.SupplierQuoteDTO {
	dtos := make([]domain.SupplierQuoteDTO, len(quotes))
	for i := range quotes {
		dtos[i] = ToSupplierQuoteDTO(&quotes[i])
	}
	return dtos
}

// ToRfqAssignmentDTO converts RfqAssignment to RfqAssignmentDTO
func ToRfqAssignmentDTO(a *domain.RfqAssignment) domain.RfqAssignmentDTO {
	dto := domain.RfqAssignmentDTO{
		ID:         a.ID,
		RfqID:      a.RfqID,
		SupplierID: a.SupplierID,
		DueDate:    formatTimePtr(a.DueDate),
		Status:     a.Status,
		CreatedAt:  formatTime(a.CreatedAt),
	}
	if a.Supplier != nil {
		dto.SupplierName = a.Supplier.Name
	}
	if a.Rfq != nil {
		rfq := ToSupplierRfqDTO(a.Rfq)
		dto.Rfq = &rfq
	}
	return dto
}

// ToRfqAssignmentDTOs converts a slice of assignments
func ToRfqAssignmentDTOs(assignments []domain.RfqAssignment) []domain.RfqAssignmentDTO {
	dtos := make([]domain.RfqAssignmentDTO, len(assignments))
	for i := range assignments {
		dtos[i] = ToRfqAssignmentDTO(&assignments[i])
	}
	return dtos
}

// ToSupplierRfqDTO converts an RFQ for supplier eyes; customer identity is withheld
func ToSupplierRfqDTO(rfq *domain.RFQ) domain.RfqDTO {
	dto := ToRfqDTO(rfq)
	dto.UserID = uuid.Nil
	dto.CustomerName = ""
	dto.CustomerEmail = ""
	return dto
}

// ToPurchaseOrderDTO converts PurchaseOrder to PurchaseOrderDTO
func ToPurchaseOrderDTO(po *domain.PurchaseOrder) domain.PurchaseOrderDTO {
	dto := domain.PurchaseOrderDTO{
		ID:                po.ID,
		PONumber:          po.PONumber,
		SupplierQuoteID:   po.SupplierQuoteID,
		SupplierID:        po.SupplierID,
		RfqID:             po.RfqID,
		Amount:            money(po.Amount),
		Currency:          po.Currency,
		DueDate:           formatTimePtr(po.DueDate),
		Notes:             po.Notes,
		Status:            po.Status,
		SupplierNotes:     po.SupplierNotes,
		RespondedAt:       formatTimePtr(po.RespondedAt),
		HasInvoice:        po.InvoicePath != "",
		InvoiceFileName:   po.InvoiceFileName,
		InvoiceUploadedAt: formatTimePtr(po.InvoiceUploadedAt),
		ArchivedAt:        formatTimePtr(po.ArchivedAt),
		CreatedAt:         formatTime(po.CreatedAt),
	}
	if po.Supplier != nil {
		dto.SupplierName = po.Supplier.Name
	}
	return dto
}

// ToPurchaseOrderDTOs converts a slice of purchase orders
func ToPurchaseOrderDTOs(pos []domain.PurchaseOrder) []domain.PurchaseOrderDTO {
	dtos := make([]domain.PurchaseOrderDTO, len(pos))
	for i := range pos {
		dtos[i] = ToPurchaseOrderDTO(&pos[i])
	}
	return dtos
}

// ToNotificationDTO converts Notification to NotificationDTO
func ToNotificationDTO(n *domain.Notification) domain.NotificationDTO {
	return domain.NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		IsRead:    n.IsRead,
		ReadAt:    formatTimePtr(n.ReadAt),
		CreatedAt: formatTime(n.CreatedAt),
	}
}

// ToNotificationDTOs converts a slice of notifications
func ToNotificationDTOs(notifications []domain.Notification) []domain.NotificationDTO {
	dtos := make([]domain.NotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = ToNotificationDTO(&notifications[i])
	}
	return dtos
}

// ToFileDTO converts File to FileDTO
func ToFileDTO(file *domain.File) domain.FileDTO {
	return domain.FileDTO{
		ID:           file.ID,
		FileName:     file.FileName,
		ContentType:  file.ContentType,
		Size:         file.Size,
		FileType:     file.FileType,
		LinkedToType: file.LinkedToType,
		LinkedToID:   file.LinkedToID,
		UploadedByID: file.UploadedByID,
		CreatedAt:    formatTime(file.CreatedAt),
	}
}

// ToFileDTOs converts a slice of files
func ToFileDTOs(files []domain.File) []domain.FileDTO {
	dtos := make([]domain.FileDTO, len(files))
	for i := range files {
		dtos[i] = ToFileDTO(&files[i])
	}
	return dtos
}

// ToMessageAttachmentDTO converts MessageAttachment to MessageAttachmentDTO
func ToMessageAttachmentDTO(a *domain.MessageAttachment) domain.MessageAttachmentDTO {
	return domain.MessageAttachmentDTO{
		ID:          a.ID,
		MessageID:   a.MessageID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		CreatedAt:   formatTime(a.CreatedAt),
	}
}

// ToMessageDTO converts Message to MessageDTO
func ToMessageDTO(m *domain.Message) domain.MessageDTO {
	dto := domain.MessageDTO{
		ID:         m.ID,
		ThreadID:   m.ThreadID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Category:   m.Category,
		Subject:    m.Subject,
		Content:    m.Content,
		RfqID:      m.RfqID,
		OrderID:    m.OrderID,
		IsRead:     m.IsRead,
		ReadAt:     formatTimePtr(m.ReadAt),
		CreatedAt:  formatTime(m.CreatedAt),
	}
	if m.Sender != nil {
		dto.SenderName = m.Sender.Name
	}
	if m.Receiver != nil {
		dto.ReceiverName = m.Receiver.Name
	}
	for i := range m.Attachments {
		dto.Attachments = append(dto.Attachments, ToMessageAttachmentDTO(&m.Attachments[i]))
	}
	return dto
}

// ToMessageDTOs converts a slice of messages
func ToMessageDTOs(messages []domain.Message) []domain.MessageDTO {
	dtos := make([]domain.MessageDTO, len(messages))
	for i := range messages {
		dtos[i] = ToMessageDTO(&messages[i])
	}
	return dtos
}

// ToNumberSequenceDTO converts NumberSequence to NumberSequenceDTO
func ToNumberSequenceDTO(s *domain.NumberSequence) domain.NumberSequenceDTO {
	return domain.NumberSequenceDTO{
		Scope:        s.Scope,
		Year:         s.Year,
		LastSequence: s.LastSequence,
		UpdatedAt:    formatTime(s.UpdatedAt),
	}
}
