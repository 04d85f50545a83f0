package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BaseModel with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns the primary key in Go so the schema works on every driver
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UserRole is the single role a user account carries
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleSupplier UserRole = "supplier"
	RoleAdmin    UserRole = "admin"
)

// IsValid checks if the role is valid
func (r UserRole) IsValid() bool {
	switch r {
	case RoleCustomer, RoleSupplier, RoleAdmin:
		return true
	}
	return false
}

// CompanyType separates customer organizations from vendors
type CompanyType string

const (
	CompanyTypeCustomer CompanyType = "customer"
	CompanyTypeSupplier CompanyType = "supplier"
)

// IsValid checks if the company type is valid
func (t CompanyType) IsValid() bool {
	return t == CompanyTypeCustomer || t == CompanyTypeSupplier
}

// CompanyTypeForRole returns the company type a self-registered user belongs to
func CompanyTypeForRole(role UserRole) CompanyType {
	if role == RoleSupplier {
		return CompanyTypeSupplier
	}
	return CompanyTypeCustomer
}

// Company is a customer or supplier organization shared by its users
type Company struct {
	BaseModel
	CompanyNumber string      `gorm:"type:varchar(20);not null;uniqueIndex"`
	Type          CompanyType `gorm:"type:varchar(20);not null;index"`
	Name          string      `gorm:"type:varchar(200);not null;index"`
	Email         string      `gorm:"type:varchar(255)"`
	Phone         string      `gorm:"type:varchar(50)"`
	Address       string      `gorm:"type:varchar(500)"`
	City          string      `gorm:"type:varchar(100)"`
	Country       string      `gorm:"type:varchar(100)"`
	Users         []User      `gorm:"foreignKey:CompanyID"`
}

// User is a portal account. The (email, role) pair is unique.
type User struct {
	BaseModel
	Email              string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email_role"`
	Role               UserRole   `gorm:"type:varchar(20);not null;uniqueIndex:idx_users_email_role"`
	Name               string     `gorm:"type:varchar(200);not null"`
	Phone              string     `gorm:"type:varchar(50)"`
	PasswordHash       string     `gorm:"type:varchar(255);not null"`
	UserNumber         string     `gorm:"type:varchar(20);not null;uniqueIndex"`
	CompanyID          *uuid.UUID `gorm:"type:uuid;index"`
	Company            *Company   `gorm:"foreignKey:CompanyID"`
	IsVerified         bool       `gorm:"not null;default:false"`
	MustResetPassword  bool       `gorm:"not null;default:false"`
	ResetCode          string     `gorm:"type:varchar(10)"`
	ResetCodeExpiresAt *time.Time
	ResetCodeAttempts  int        `gorm:"not null;default:0"`
	LastLoginAt        *time.Time
}

// PendingRegistration holds a signup awaiting email verification
type PendingRegistration struct {
	BaseModel
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_pending_email_role"`
	Role         UserRole  `gorm:"type:varchar(20);not null;uniqueIndex:idx_pending_email_role"`
	Name         string    `gorm:"type:varchar(200);not null"`
	Phone        string    `gorm:"type:varchar(50)"`
	CompanyName  string    `gorm:"type:varchar(200)"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Code           string    `gorm:"type:varchar(10);not null"`
	ExpiresAt      time.Time `gorm:"not null;index"`
	FailedAttempts int       `gorm:"not null;default:0"`
}

// IsExpired reports whether the verification window has passed
func (p *PendingRegistration) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// RfqStatus represents the status of a request for quote
type RfqStatus string

const (
	RfqStatusSubmitted       RfqStatus = "submitted"
	RfqStatusQuoted          RfqStatus = "quoted"
	RfqStatusAccepted        RfqStatus = "accepted"
	RfqStatusDeclined        RfqStatus = "declined"
	RfqStatusSentToSuppliers RfqStatus = "sent_to_suppliers"
)

// IsValid checks if the RFQ status is valid
// OpenForQuotes reports whether a sales quote may still be issued
func (s RfqStatus) OpenForQuotes() bool {
	return s == RfqStatusSubmitted || s == RfqStatusQuoted || s == RfqStatusSentToSuppliers
}

func (s RfqStatus) IsValid() bool {
	switch s {
	case RfqStatusSubmitted, RfqStatusQuoted, RfqStatusAccepted, RfqStatusDeclined, RfqStatusSentToSuppliers:
		return true
	}
	return false
}

// RFQ is a customer's manufacturing job awaiting pricing
type RFQ struct {
	BaseModel
	UserID                       uuid.UUID  `gorm:"type:uuid;not null;index"`
	User                         *User      `gorm:"foreignKey:UserID"`
	ProjectName                  string     `gorm:"type:varchar(200);not null"`
	Material                     string     `gorm:"type:varchar(200);not null"`
	MaterialGrade                string     `gorm:"type:varchar(100)"`
	Finishing                    string     `gorm:"type:varchar(200)"`
	Tolerance                    string     `gorm:"type:varchar(100)"`
	Quantity                     int        `gorm:"not null"`
	ManufacturingProcess         string     `gorm:"type:varchar(100)"`
	InternationalManufacturingOK bool       `gorm:"not null;default:false"`
	Notes                        string     `gorm:"type:text"`
	Status                       RfqStatus  `gorm:"type:varchar(30);not null;default:'submitted';index"`
	ReferenceNumber              *string    `gorm:"type:varchar(20);uniqueIndex"`
	SourceOrderID                *uuid.UUID `gorm:"type:uuid"`
}

// TableName pins the table name for the acronym type
func (RFQ) TableName() string {
	return "rfqs"
}

// QuoteStatus represents the customer's response to a sales quote
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusDeclined QuoteStatus = "declined"
)

// SalesQuote is the admin's priced response to an RFQ
type SalesQuote struct {
	BaseModel
	QuoteNumber           string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	RfqID                 uuid.UUID       `gorm:"type:uuid;not null;index"`
	Rfq                   *RFQ            `gorm:"foreignKey:RfqID"`
	Amount                decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Currency              string          `gorm:"type:varchar(3);not null;default:'USD'"`
	ValidUntil            time.Time       `gorm:"not null"`
	EstimatedDeliveryDate *time.Time
	Notes                 string      `gorm:"type:text"`
	Status                QuoteStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	RespondedAt           *time.Time
	QuoteFilePath         string `gorm:"type:varchar(500)"`
	QuoteFileName         string `gorm:"type:varchar(255)"`
	PurchaseOrderPath     string `gorm:"type:varchar(500)"`
	PurchaseOrderFileName string `gorm:"type:varchar(255)"`
	CustomerPONumber      string `gorm:"type:varchar(100)"`
}

// HasPurchaseOrder reports whether the customer uploaded a purchase order
func (q *SalesQuote) HasPurchaseOrder() bool {
	return q.PurchaseOrderPath != ""
}

// OrderStatus is a stage in the manufacturing pipeline
type OrderStatus string

const (
	OrderStatusWaitingForPO        OrderStatus = "waiting_for_po"
	OrderStatusPending             OrderStatus = "pending"
	OrderStatusMaterialProcurement OrderStatus = "material_procurement"
	OrderStatusManufacturing       OrderStatus = "manufacturing"
	OrderStatusFinishing           OrderStatus = "finishing"
	OrderStatusQualityCheck        OrderStatus = "quality_check"
	OrderStatusPacking             OrderStatus = "packing"
	OrderStatusShipped             OrderStatus = "shipped"
	OrderStatusDelivered           OrderStatus = "delivered"
)

// OrderPipeline lists the order stages in order
var OrderPipeline = []OrderStatus{
	OrderStatusWaitingForPO,
	OrderStatusPending,
	OrderStatusMaterialProcurement,
	OrderStatusManufacturing,
	OrderStatusFinishing,
	OrderStatusQualityCheck,
	OrderStatusPacking,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// IsValid checks if the order status is a pipeline stage
func (s OrderStatus) IsValid() bool {
	for _, st := range OrderPipeline {
		if st == s {
			return true
		}
	}
	return false
}

// PaymentStatus represents the payment state of a sales order
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPartial || s == PaymentStatusPaid
}

// SalesOrder is created from an accepted quote and carries a snapshot of the RFQ specs
type SalesOrder struct {
	BaseModel
	OrderNumber       string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	RfqID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	QuoteID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	User              *User           `gorm:"foreignKey:UserID"`
	ProjectName       string          `gorm:"type:varchar(200);not null"`
	Material          string          `gorm:"type:varchar(200)"`
	MaterialGrade     string          `gorm:"type:varchar(100)"`
	Finishing         string          `gorm:"type:varchar(200)"`
	Tolerance         string          `gorm:"type:varchar(100)"`
	Quantity          int             `gorm:"not null"`
	QuantityShipped   int             `gorm:"not null;default:0"`
	QuantityRemaining int             `gorm:"not null"`
	Amount            decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'USD'"`
	OrderStatus       OrderStatus     `gorm:"type:varchar(30);not null;index"`
	PaymentStatus     PaymentStatus   `gorm:"type:varchar(20);not null;default:'unpaid'"`
	IsArchived        bool            `gorm:"not null;default:false;index"`
	ArchivedAt        *time.Time
	OrderDate         time.Time `gorm:"not null"`
	DueDate           *time.Time
	Notes             string         `gorm:"type:text"`
	Shipments         []Shipment     `gorm:"foreignKey:SalesOrderID"`
	Invoices          []SalesInvoice `gorm:"foreignKey:SalesOrderID"`
}

// Shipment is one partial delivery against a sales order
type Shipment struct {
	BaseModel
	SalesOrderID    uuid.UUID   `gorm:"type:uuid;not null;index"`
	QuantityShipped int         `gorm:"not null"`
	TrackingNumber  string      `gorm:"type:varchar(100)"`
	Carrier         string      `gorm:"type:varchar(100)"`
	TrackingStatus  OrderStatus `gorm:"type:varchar(30);not null"`
	ShippedAt       time.Time   `gorm:"not null"`
	Notes           string      `gorm:"type:text"`
}

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

// SalesInvoice bills a customer for a sales order
type SalesInvoice struct {
	BaseModel
	InvoiceNumber string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	SalesOrderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Currency      string          `gorm:"type:varchar(3);not null;default:'USD'"`
	DueDate       *time.Time
	Status        InvoiceStatus `gorm:"type:varchar(20);not null;default:'unpaid'"`
	PaidAt        *time.Time
}

// SupplierQuoteStatus represents the award state of a supplier bid
type SupplierQuoteStatus string

const (
	SupplierQuoteStatusPending     SupplierQuoteStatus = "pending"
	SupplierQuoteStatusAccepted    SupplierQuoteStatus = "accepted"
	SupplierQuoteStatusNotSelected SupplierQuoteStatus = "not_selected"
)

// SupplierQuote is a supplier's bid against an assigned RFQ
type SupplierQuote struct {
	BaseModel
	RfqID                 uuid.UUID           `gorm:"type:uuid;not null;index"`
	Rfq                   *RFQ                `gorm:"foreignKey:RfqID"`
	SupplierID            uuid.UUID           `gorm:"type:uuid;not null;index"`
	Supplier              *User               `gorm:"foreignKey:SupplierID"`
	AssignmentID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	Quantity              int                 `gorm:"not null"`
	ToolingCost           decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	MaterialCostPerPiece  decimal.Decimal     `gorm:"type:numeric(14,4);not null"`
	MachiningCostPerPiece decimal.Decimal     `gorm:"type:numeric(14,4);not null"`
	FinishingCostPerPiece decimal.Decimal     `gorm:"type:numeric(14,4);not null"`
	PackagingCostPerPiece decimal.Decimal     `gorm:"type:numeric(14,4);not null"`
	ShippingCost          decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	TaxPercentage         decimal.Decimal     `gorm:"type:numeric(5,2);not null"`
	DiscountPercentage    decimal.Decimal     `gorm:"type:numeric(5,2);not null"`
	Subtotal              decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	DiscountAmount        decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	TaxAmount             decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	TotalAmount           decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	Currency              string              `gorm:"type:varchar(3);not null;default:'USD'"`
	LeadTimeDays          int                 `gorm:"not null"`
	ValidUntil            *time.Time          `gorm:""`
	Notes                 string              `gorm:"type:text"`
	Status                SupplierQuoteStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
}

// AssignmentStatus represents the state of a supplier invitation
type AssignmentStatus string

const (
	AssignmentStatusAssigned AssignmentStatus = "assigned"
	AssignmentStatusQuoted   AssignmentStatus = "quoted"
	AssignmentStatusExpired  AssignmentStatus = "expired"
)

// RfqAssignment records which suppliers were invited to quote an RFQ
type RfqAssignment struct {
	BaseModel
	RfqID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_rfq_supplier"`
	Rfq          *RFQ             `gorm:"foreignKey:RfqID"`
	SupplierID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_rfq_supplier;index"`
	Supplier     *User            `gorm:"foreignKey:SupplierID"`
	AssignedByID uuid.UUID        `gorm:"type:uuid;not null"`
	DueDate      *time.Time       `gorm:"index"`
	Status       AssignmentStatus `gorm:"type:varchar(20);not null;default:'assigned';index"`
}

// PurchaseOrderStatus is a stage of a supplier purchase order
type PurchaseOrderStatus string

const (
	POStatusPending             PurchaseOrderStatus = "pending"
	POStatusAccepted            PurchaseOrderStatus = "accepted"
	POStatusDeclined            PurchaseOrderStatus = "declined"
	POStatusMaterialProcurement PurchaseOrderStatus = "material_procurement"
	POStatusManufacturing       PurchaseOrderStatus = "manufacturing"
	POStatusFinishing           PurchaseOrderStatus = "finishing"
	POStatusQualityCheck        PurchaseOrderStatus = "quality_check"
	POStatusPacking             PurchaseOrderStatus = "packing"
	POStatusShipped             PurchaseOrderStatus = "shipped"
	POStatusDelivered           PurchaseOrderStatus = "delivered"
	POStatusArchived            PurchaseOrderStatus = "archived"
)

// PurchaseOrderProgress lists the stages an accepted purchase order moves through
var PurchaseOrderProgress = []PurchaseOrderStatus{
	POStatusMaterialProcurement,
	POStatusManufacturing,
	POStatusFinishing,
	POStatusQualityCheck,
	POStatusPacking,
	POStatusShipped,
	POStatusDelivered,
}

// IsProgressStage reports whether the status is one of the fulfilment stages
func (s PurchaseOrderStatus) IsProgressStage() bool {
	for _, st := range PurchaseOrderProgress {
		if st == s {
			return true
		}
	}
	return false
}

// PurchaseOrder is the admin's commitment to a winning supplier
type PurchaseOrder struct {
	BaseModel
	PONumber          string              `gorm:"column:po_number;type:varchar(20);not null;uniqueIndex"`
	SupplierQuoteID   uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	SupplierID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	Supplier          *User               `gorm:"foreignKey:SupplierID"`
	RfqID             uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	Currency          string              `gorm:"type:varchar(3);not null;default:'USD'"`
	DueDate           *time.Time          `gorm:""`
	Notes             string              `gorm:"type:text"`
	Status            PurchaseOrderStatus `gorm:"type:varchar(30);not null;default:'pending';index"`
	SupplierNotes     string              `gorm:"type:text"`
	RespondedAt       *time.Time
	InvoicePath       string `gorm:"type:varchar(500)"`
	InvoiceFileName   string `gorm:"type:varchar(255)"`
	InvoiceUploadedAt *time.Time
	ArchivedAt        *time.Time
}

// NotificationType categorizes in-app notifications
type NotificationType string

const (
	NotificationRfqSubmitted       NotificationType = "rfq_submitted"
	NotificationQuoteReady         NotificationType = "quote_ready"
	NotificationQuoteResponse      NotificationType = "quote_response"
	NotificationOrderCreated       NotificationType = "order_created"
	NotificationOrderStatus        NotificationType = "order_status"
	NotificationShipment           NotificationType = "shipment"
	NotificationSupplierAssignment NotificationType = "supplier_assignment"
	NotificationSupplierQuote      NotificationType = "supplier_quote"
	NotificationPurchaseOrder      NotificationType = "purchase_order"
	NotificationMessage            NotificationType = "message"
)

// Notification is an in-app notice for a single user
type Notification struct {
	BaseModel
	UserID  uuid.UUID         `gorm:"type:uuid;not null;index"`
	Type    NotificationType  `gorm:"type:varchar(50);not null"`
	Title   string            `gorm:"type:varchar(200);not null"`
	Message string            `gorm:"type:text"`
	Data    datatypes.JSONMap `gorm:""`
	IsRead  bool              `gorm:"not null;default:false;index"`
	ReadAt  *time.Time
}

// MessageCategory groups threads by topic
type MessageCategory string

const (
	MessageCategoryGeneral       MessageCategory = "general"
	MessageCategoryRfq           MessageCategory = "rfq"
	MessageCategoryOrder         MessageCategory = "order"
	MessageCategoryQuote         MessageCategory = "quote"
	MessageCategoryPurchaseOrder MessageCategory = "purchase_order"
	MessageCategorySupport       MessageCategory = "support"
)

// IsValid checks if the category is valid
func (c MessageCategory) IsValid() bool {
	switch c {
	case MessageCategoryGeneral, MessageCategoryRfq, MessageCategoryOrder,
		MessageCategoryQuote, MessageCategoryPurchaseOrder, MessageCategorySupport:
		return true
	}
	return false
}

// Message is one entry in a two-party thread
type Message struct {
	BaseModel
	ThreadID              string          `gorm:"type:varchar(120);not null;index"`
	SenderID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	Sender                *User           `gorm:"foreignKey:SenderID"`
	ReceiverID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	Receiver              *User           `gorm:"foreignKey:ReceiverID"`
	Category              MessageCategory `gorm:"type:varchar(30);not null"`
	Subject               string          `gorm:"type:varchar(255)"`
	Content               string          `gorm:"type:text;not null"`
	RfqID                 *uuid.UUID      `gorm:"type:uuid"`
	OrderID               *uuid.UUID      `gorm:"type:uuid"`
	IsRead                bool            `gorm:"not null;default:false;index"`
	ReadAt                *time.Time
	EmailNotificationSent bool                `gorm:"not null;default:false"`
	Attachments           []MessageAttachment `gorm:"foreignKey:MessageID"`
}

// MessageAttachment is a file attached to a message
type MessageAttachment struct {
	BaseModel
	MessageID   uuid.UUID `gorm:"type:uuid;not null;index"`
	FileName    string    `gorm:"type:varchar(255);not null"`
	ContentType string    `gorm:"type:varchar(100)"`
	StoragePath string    `gorm:"type:varchar(500);not null"`
	Size        int64     `gorm:"not null"`
}

// NumberSequence tracks the last issued number per scope and year.
// Non-yearly scopes use year 0.
type NumberSequence struct {
	Scope        string    `gorm:"type:varchar(50);primaryKey"`
	Year         int       `gorm:"primaryKey;autoIncrement:false"`
	LastSequence int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}
