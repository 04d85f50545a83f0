package domain

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Common
// ============================================================================

// ErrorResponse is the body of every non-validation error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse is returned by endpoints that only acknowledge an action
type MessageResponse struct {
	Message string `json:"message"`
}

// PaginatedResponse wraps admin list endpoints
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// CountResponse carries an unread counter
type CountResponse struct {
	Count int64 `json:"count"`
}

// ============================================================================
// Auth
// ============================================================================

type RegisterRequest struct {
	Email       string   `json:"email" validate:"required,email,max=255"`
	Password    string   `json:"password" validate:"required,min=8,max=128"`
	Name        string   `json:"name" validate:"required,max=200"`
	Phone       string   `json:"phone,omitempty" validate:"max=50"`
	Role        UserRole `json:"role" validate:"required,oneof=customer supplier"`
	CompanyName string   `json:"companyName,omitempty" validate:"max=200"`
}

type VerifyEmailRequest struct {
	Email string   `json:"email" validate:"required,email"`
	Role  UserRole `json:"role" validate:"required,oneof=customer supplier"`
	Code  string   `json:"code" validate:"required,len=6,numeric"`
}

type ResendCodeRequest struct {
	Email string   `json:"email" validate:"required,email"`
	Role  UserRole `json:"role" validate:"required,oneof=customer supplier"`
}

type LoginRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required"`
	Role     UserRole `json:"role,omitempty" validate:"omitempty,oneof=customer supplier admin"`
}

type ForgotPasswordRequest struct {
	Email string   `json:"email" validate:"required,email"`
	Role  UserRole `json:"role,omitempty" validate:"omitempty,oneof=customer supplier admin"`
}

type ResetPasswordRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Role        UserRole `json:"role" validate:"required,oneof=customer supplier admin"`
	Code        string   `json:"code" validate:"required,len=6,numeric"`
	NewPassword string   `json:"newPassword" validate:"required,min=8,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
}

type AuthResponse struct {
	Token             string  `json:"token"`
	User              UserDTO `json:"user"`
	MustResetPassword bool    `json:"mustResetPassword"`
}

// ============================================================================
// Users and companies
// ============================================================================

type UserDTO struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	Role              UserRole   `json:"role"`
	Name              string     `json:"name"`
	Phone             string     `json:"phone,omitempty"`
	UserNumber        string     `json:"userNumber"`
	CompanyID         *uuid.UUID `json:"companyId,omitempty"`
	CompanyNumber     string     `json:"companyNumber,omitempty"`
	CompanyName       string     `json:"companyName,omitempty"`
	IsVerified        bool       `json:"isVerified"`
	MustResetPassword bool       `json:"mustResetPassword"`
	LastLoginAt       *string    `json:"lastLoginAt,omitempty"`
	CreatedAt         string     `json:"createdAt"`
}

type CreateUserRequest struct {
	Email             string     `json:"email" validate:"required,email,max=255"`
	Name              string     `json:"name" validate:"required,max=200"`
	Phone             string     `json:"phone,omitempty" validate:"max=50"`
	Role              UserRole   `json:"role" validate:"required,oneof=customer supplier admin"`
	CompanyID         *uuid.UUID `json:"companyId,omitempty"`
	TemporaryPassword string     `json:"temporaryPassword" validate:"required,min=8,max=128"`
}

type SetUserCompanyRequest struct {
	CompanyID *uuid.UUID `json:"companyId"`
}

type CompanyDTO struct {
	ID            uuid.UUID   `json:"id"`
	CompanyNumber string      `json:"companyNumber"`
	Type          CompanyType `json:"type"`
	Name          string      `json:"name"`
	Email         string      `json:"email,omitempty"`
	Phone         string      `json:"phone,omitempty"`
	Address       string      `json:"address,omitempty"`
	City          string      `json:"city,omitempty"`
	Country       string      `json:"country,omitempty"`
	Members       []UserDTO   `json:"members,omitempty"`
	CreatedAt     string      `json:"createdAt"`
}

type CreateCompanyRequest struct {
	Name    string      `json:"name" validate:"required,max=200"`
	Type    CompanyType `json:"type" validate:"required,oneof=customer supplier"`
	Email   string      `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string      `json:"phone,omitempty" validate:"max=50"`
	Address string      `json:"address,omitempty" validate:"max=500"`
	City    string      `json:"city,omitempty" validate:"max=100"`
	Country string      `json:"country,omitempty" validate:"max=100"`
}

type AssignCompanyNumberRequest struct {
	CompanyNumber string `json:"companyNumber" validate:"required,max=20"`
}

type MergeCompaniesRequest struct {
	PrimaryID    uuid.UUID   `json:"primaryId" validate:"required"`
	SecondaryIDs []uuid.UUID `json:"secondaryIds" validate:"required,min=1"`
}

// ============================================================================
// RFQs and quotes
// ============================================================================

type RfqDTO struct {
	ID                           uuid.UUID  `json:"id"`
	UserID                       uuid.UUID  `json:"userId"`
	CustomerName                 string     `json:"customerName,omitempty"`
	CustomerEmail                string     `json:"customerEmail,omitempty"`
	ProjectName                  string     `json:"projectName"`
	Material                     string     `json:"material"`
	MaterialGrade                string     `json:"materialGrade,omitempty"`
	Finishing                    string     `json:"finishing,omitempty"`
	Tolerance                    string     `json:"tolerance,omitempty"`
	Quantity                     int        `json:"quantity"`
	ManufacturingProcess         string     `json:"manufacturingProcess,omitempty"`
	InternationalManufacturingOK bool       `json:"internationalManufacturingOk"`
	Notes                        string     `json:"notes,omitempty"`
	Status                       RfqStatus  `json:"status"`
	ReferenceNumber              *string    `json:"referenceNumber,omitempty"`
	SourceOrderID                *uuid.UUID `json:"sourceOrderId,omitempty"`
	CreatedAt                    string     `json:"createdAt"`
	UpdatedAt                    string     `json:"updatedAt"`
}

type CreateRfqRequest struct {
	ProjectName                  string `json:"projectName" validate:"required,max=200"`
	Material                     string `json:"material" validate:"required,max=200"`
	MaterialGrade                string `json:"materialGrade,omitempty" validate:"max=100"`
	Finishing                    string `json:"finishing,omitempty" validate:"max=200"`
	Tolerance                    string `json:"tolerance,omitempty" validate:"max=100"`
	Quantity                     int    `json:"quantity" validate:"required,gt=0"`
	ManufacturingProcess         string `json:"manufacturingProcess,omitempty" validate:"max=100"`
	InternationalManufacturingOK bool   `json:"internationalManufacturingOk"`
	Notes                        string `json:"notes,omitempty"`
}

type AdminCreateRfqRequest struct {
	CustomerID uuid.UUID `json:"customerId" validate:"required"`
	CreateRfqRequest
}

type UpdateRfqStatusRequest struct {
	Status RfqStatus `json:"status" validate:"required"`
}

type AssignSuppliersRequest struct {
	SupplierIDs []uuid.UUID `json:"supplierIds" validate:"required,min=1"`
	DueDate     *time.Time  `json:"dueDate,omitempty"`
}

type RfqAssignmentDTO struct {
	ID           uuid.UUID        `json:"id"`
	RfqID        uuid.UUID        `json:"rfqId"`
	SupplierID   uuid.UUID        `json:"supplierId"`
	SupplierName string           `json:"supplierName,omitempty"`
	DueDate      *string          `json:"dueDate,omitempty"`
	Status       AssignmentStatus `json:"status"`
	Rfq          *RfqDTO          `json:"rfq,omitempty"`
	CreatedAt    string           `json:"createdAt"`
}

type SalesQuoteDTO struct {
	ID                    uuid.UUID   `json:"id"`
	QuoteNumber           string      `json:"quoteNumber"`
	RfqID                 uuid.UUID   `json:"rfqId"`
	ProjectName           string      `json:"projectName,omitempty"`
	Amount                float64     `json:"amount"`
	Currency              string      `json:"currency"`
	ValidUntil            string      `json:"validUntil"`
	EstimatedDeliveryDate *string     `json:"estimatedDeliveryDate,omitempty"`
	Notes                 string      `json:"notes,omitempty"`
	Status                QuoteStatus `json:"status"`
	RespondedAt           *string     `json:"respondedAt,omitempty"`
	HasQuoteFile          bool        `json:"hasQuoteFile"`
	QuoteFileName         string      `json:"quoteFileName,omitempty"`
	HasPurchaseOrder      bool        `json:"hasPurchaseOrder"`
	PurchaseOrderFileName string      `json:"purchaseOrderFileName,omitempty"`
	CustomerPONumber      string      `json:"customerPoNumber,omitempty"`
	CreatedAt             string      `json:"createdAt"`
}

type CreateSalesQuoteRequest struct {
	Amount                float64    `json:"amount" validate:"required,gt=0"`
	Currency              string     `json:"currency,omitempty" validate:"omitempty,len=3"`
	ValidUntil            *time.Time `json:"validUntil,omitempty"`
	EstimatedDeliveryDate *time.Time `json:"estimatedDeliveryDate,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
}

type RespondQuoteRequest struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
}

// ============================================================================
// Orders, shipments, invoices
// ============================================================================

type SalesOrderDTO struct {
	ID                uuid.UUID         `json:"id"`
	OrderNumber       string            `json:"orderNumber"`
	RfqID             uuid.UUID         `json:"rfqId"`
	QuoteID           uuid.UUID         `json:"quoteId"`
	UserID            uuid.UUID         `json:"userId"`
	CustomerName      string            `json:"customerName,omitempty"`
	ProjectName       string            `json:"projectName"`
	Material          string            `json:"material,omitempty"`
	MaterialGrade     string            `json:"materialGrade,omitempty"`
	Finishing         string            `json:"finishing,omitempty"`
	Tolerance         string            `json:"tolerance,omitempty"`
	Quantity          int               `json:"quantity"`
	QuantityShipped   int               `json:"quantityShipped"`
	QuantityRemaining int               `json:"quantityRemaining"`
	Amount            float64           `json:"amount"`
	Currency          string            `json:"currency"`
	OrderStatus       OrderStatus       `json:"orderStatus"`
	PaymentStatus     PaymentStatus     `json:"paymentStatus"`
	IsArchived        bool              `json:"isArchived"`
	ArchivedAt        *string           `json:"archivedAt,omitempty"`
	OrderDate         string            `json:"orderDate"`
	DueDate           *string           `json:"dueDate,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	Shipments         []ShipmentDTO     `json:"shipments,omitempty"`
	Invoices          []SalesInvoiceDTO `json:"invoices,omitempty"`
	CreatedAt         string            `json:"createdAt"`
}

type CreateOrderRequest struct {
	RfqID   uuid.UUID  `json:"rfqId" validate:"required"`
	DueDate *time.Time `json:"dueDate,omitempty"`
	Notes   string     `json:"notes,omitempty"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus OrderStatus `json:"orderStatus" validate:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"paymentStatus" validate:"required"`
}

type ShipmentDTO struct {
	ID              uuid.UUID   `json:"id"`
	SalesOrderID    uuid.UUID   `json:"salesOrderId"`
	QuantityShipped int         `json:"quantityShipped"`
	TrackingNumber  string      `json:"trackingNumber,omitempty"`
	Carrier         string      `json:"carrier,omitempty"`
	TrackingStatus  OrderStatus `json:"trackingStatus"`
	ShippedAt       string      `json:"shippedAt"`
	Notes           string      `json:"notes,omitempty"`
}

type CreateShipmentRequest struct {
	QuantityShipped int         `json:"quantityShipped" validate:"required,gt=0"`
	TrackingNumber  string      `json:"trackingNumber,omitempty" validate:"max=100"`
	Carrier         string      `json:"carrier,omitempty" validate:"max=100"`
	TrackingStatus  OrderStatus `json:"trackingStatus,omitempty"`
	Notes           string      `json:"notes,omitempty"`
}

type UpdateTrackingRequest struct {
	TrackingStatus OrderStatus `json:"trackingStatus" validate:"required"`
}

type SalesInvoiceDTO struct {
	ID            uuid.UUID     `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	SalesOrderID  uuid.UUID     `json:"salesOrderId"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	DueDate       *string       `json:"dueDate,omitempty"`
	Status        InvoiceStatus `json:"status"`
	PaidAt        *string       `json:"paidAt,omitempty"`
	CreatedAt     string        `json:"createdAt"`
}

type CreateInvoiceRequest struct {
	Amount  *float64   `json:"amount,omitempty" validate:"omitempty,gt=0"`
	DueDate *time.Time `json:"dueDate,omitempty"`
}

// ============================================================================
// Supplier workflow
// ============================================================================

type SupplierQuoteDTO struct {
	ID                    uuid.UUID           `json:"id"`
	RfqID                 uuid.UUID           `json:"rfqId"`
	RfqReferenceNumber    *string             `json:"rfqReferenceNumber,omitempty"`
	SupplierID            uuid.UUID           `json:"supplierId"`
	SupplierName          string              `json:"supplierName,omitempty"`
	Quantity              int                 `json:"quantity"`
	ToolingCost           float64             `json:"toolingCost"`
	MaterialCostPerPiece  float64             `json:"materialCostPerPiece"`
	MachiningCostPerPiece float64             `json:"machiningCostPerPiece"`
	FinishingCostPerPiece float64             `json:"finishingCostPerPiece"`
	PackagingCostPerPiece float64             `json:"packagingCostPerPiece"`
	ShippingCost          float64             `json:"shippingCost"`
	TaxPercentage         float64             `json:"taxPercentage"`
	DiscountPercentage    float64             `json:"discountPercentage"`
	Subtotal              float64             `json:"subtotal"`
	DiscountAmount        float64             `json:"discountAmount"`
	TaxAmount             float64             `json:"taxAmount"`
	TotalAmount           float64             `json:"totalAmount"`
	Currency              string              `json:"currency"`
	LeadTimeDays          int                 `json:"leadTimeDays"`
	ValidUntil            *string             `json:"validUntil,omitempty"`
	Notes                 string              `json:"notes,omitempty"`
	Status                SupplierQuoteStatus `json:"status"`
	CreatedAt             string              `json:"createdAt"`
}

type SubmitSupplierQuoteRequest struct {
	Quantity              int        `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	ToolingCost           float64    `json:"toolingCost" validate:"gte=0"`
	MaterialCostPerPiece  float64    `json:"materialCostPerPiece" validate:"gte=0"`
	MachiningCostPerPiece float64    `json:"machiningCostPerPiece" validate:"gte=0"`
	FinishingCostPerPiece float64    `json:"finishingCostPerPiece" validate:"gte=0"`
	PackagingCostPerPiece float64    `json:"packagingCostPerPiece" validate:"gte=0"`
	ShippingCost          float64    `json:"shippingCost" validate:"gte=0"`
	TaxPercentage         float64    `json:"taxPercentage" validate:"gte=0,lte=100"`
	DiscountPercentage    float64    `json:"discountPercentage" validate:"gte=0,lte=100"`
	Currency              string     `json:"currency,omitempty" validate:"omitempty,len=3"`
	LeadTimeDays          int        `json:"leadTimeDays" validate:"gte=0"`
	ValidUntil            *time.Time `json:"validUntil,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
}

type PurchaseOrderDTO struct {
	ID                uuid.UUID           `json:"id"`
	PONumber          string              `json:"poNumber"`
	SupplierQuoteID   uuid.UUID           `json:"supplierQuoteId"`
	SupplierID        uuid.UUID           `json:"supplierId"`
	SupplierName      string              `json:"supplierName,omitempty"`
	RfqID             uuid.UUID           `json:"rfqId"`
	Amount            float64             `json:"amount"`
	Currency          string              `json:"currency"`
	DueDate           *string             `json:"dueDate,omitempty"`
	Notes             string              `json:"notes,omitempty"`
	Status            PurchaseOrderStatus `json:"status"`
	SupplierNotes     string              `json:"supplierNotes,omitempty"`
	RespondedAt       *string             `json:"respondedAt,omitempty"`
	HasInvoice        bool                `json:"hasInvoice"`
	InvoiceFileName   string              `json:"invoiceFileName,omitempty"`
	InvoiceUploadedAt *string             `json:"invoiceUploadedAt,omitempty"`
	ArchivedAt        *string             `json:"archivedAt,omitempty"`
	CreatedAt         string              `json:"createdAt"`
}

type CreatePurchaseOrderRequest struct {
	SupplierQuoteID uuid.UUID  `json:"supplierQuoteId" validate:"required"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

type RespondPurchaseOrderRequest struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
	Notes  string `json:"notes,omitempty"`
}

type UpdatePurchaseOrderStatusRequest struct {
	Status PurchaseOrderStatus `json:"status" validate:"required"`
}

// ============================================================================
// Files, notifications, messages
// ============================================================================

type FileDTO struct {
	ID           uuid.UUID    `json:"id"`
	FileName     string       `json:"fileName"`
	ContentType  string       `json:"contentType"`
	Size         int64        `json:"size"`
	FileType     FileType     `json:"fileType"`
	LinkedToType FileLinkType `json:"linkedToType"`
	LinkedToID   uuid.UUID    `json:"linkedToId"`
	UploadedByID uuid.UUID    `json:"uploadedById"`
	CreatedAt    string       `json:"createdAt"`
}

type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"isRead"`
	ReadAt    *string                `json:"readAt,omitempty"`
	CreatedAt string                 `json:"createdAt"`
}

type MessageAttachmentDTO struct {
	ID          uuid.UUID `json:"id"`
	MessageID   uuid.UUID `json:"messageId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   string    `json:"createdAt"`
}

type MessageDTO struct {
	ID           uuid.UUID              `json:"id"`
	ThreadID     string                 `json:"threadId"`
	SenderID     uuid.UUID              `json:"senderId"`
	SenderName   string                 `json:"senderName,omitempty"`
	ReceiverID   uuid.UUID              `json:"receiverId"`
	ReceiverName string                 `json:"receiverName,omitempty"`
	Category     MessageCategory        `json:"category"`
	Subject      string                 `json:"subject,omitempty"`
	Content      string                 `json:"content"`
	RfqID        *uuid.UUID             `json:"rfqId,omitempty"`
	OrderID      *uuid.UUID             `json:"orderId,omitempty"`
	IsRead       bool                   `json:"isRead"`
	ReadAt       *string                `json:"readAt,omitempty"`
	Attachments  []MessageAttachmentDTO `json:"attachments,omitempty"`
	CreatedAt    string                 `json:"createdAt"`
}

type ThreadSummaryDTO struct {
	ThreadID     string          `json:"threadId"`
	Category     MessageCategory `json:"category"`
	Subject      string          `json:"subject,omitempty"`
	OtherUserID  uuid.UUID       `json:"otherUserId"`
	OtherName    string          `json:"otherName,omitempty"`
	LastMessage  MessageDTO      `json:"lastMessage"`
	UnreadCount  int64           `json:"unreadCount"`
	MessageCount int64           `json:"messageCount"`
}

type SendMessageRequest struct {
	ReceiverID *uuid.UUID      `json:"receiverId,omitempty"`
	Category   MessageCategory `json:"category" validate:"required"`
	Subject    string          `json:"subject,omitempty" validate:"max=255"`
	Content    string          `json:"content" validate:"required"`
	RfqID      *uuid.UUID      `json:"rfqId,omitempty"`
	OrderID    *uuid.UUID      `json:"orderId,omitempty"`
}

type ReplyMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type NumberSequenceDTO struct {
	Scope        string `json:"scope"`
	Year         int    `json:"year"`
	LastSequence int    `json:"lastSequence"`
	UpdatedAt    string `json:"updatedAt"`
}

type UnreadCountDTO struct {
	Count int64 `json:"count"`
}
