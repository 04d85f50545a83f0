package service

import (
	"errors"
	"strings"
)

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")
)

// Account errors
var (
	ErrDuplicateAccount    = errors.New("an account with this email and role already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountNotVerified  = errors.New("please verify your email before logging in")
	ErrRoleRequired        = errors.New("this email has more than one account, please choose a role")
	ErrInvalidCode         = errors.New("invalid or expired code")
	ErrRegistrationMissing = errors.New("no pending registration found for this email")
	ErrUserNotFound        = errors.New("user not found")
	ErrCannotDeleteSelf    = errors.New("you cannot delete your own account")
	ErrUserHasRecords      = errors.New("user still owns records and cannot be deleted")
)

// Company errors
var (
	ErrCompanyNotFound         = errors.New("company not found")
	ErrCompanyNumberTaken      = errors.New("company number is already in use")
	ErrInvalidCompanyNumber    = errors.New("company number does not match the company type")
	ErrMergeIncludesPrimary    = errors.New("the primary company cannot also be merged into itself")
	ErrCompanyTypeMismatch     = errors.New("companies of different types cannot be merged")
	ErrUserCompanyTypeMismatch = errors.New("user role does not match the company type")
)

// Quoting and ordering errors
var (
	ErrRfqNotFound              = errors.New("RFQ not found")
	ErrQuoteNotFound            = errors.New("quote not found")
	ErrQuoteNotPending          = errors.New("quote has already been answered")
	ErrQuoteNotAccepted         = errors.New("quote must be accepted first")
	ErrRfqNotAccepted           = errors.New("RFQ must be accepted before creating an order")
	ErrNoQuoteForRfq            = errors.New("no accepted quote exists for this RFQ")
	ErrRfqClosed                = errors.New("RFQ has already been answered")
	ErrOrderExists              = errors.New("order already exists for this RFQ")
	ErrOrderNotFound            = errors.New("order not found")
	ErrShipmentNotFound         = errors.New("shipment not found")
	ErrInvoiceNotFound          = errors.New("invoice not found")
	ErrShipmentExceedsRemaining = errors.New("shipment quantity exceeds the remaining order quantity")
	ErrInvalidStatus            = errors.New("invalid status value")
)

// Supplier workflow errors
var (
	ErrNotAssigned              = errors.New("you are not assigned to this RFQ")
	ErrAssignmentExpired        = errors.New("the assignment for this RFQ has expired")
	ErrNotSupplier              = errors.New("selected user is not a supplier")
	ErrSupplierQuoteNotFound    = errors.New("supplier quote not found")
	ErrSupplierQuoteNotAccepted = errors.New("supplier quote must be accepted before issuing a purchase order")
	ErrPurchaseOrderExists      = errors.New("a purchase order already exists for this supplier quote")
	ErrPurchaseOrderNotFound    = errors.New("purchase order not found")
	ErrPurchaseOrderNotPending  = errors.New("purchase order has already been answered")
	ErrPurchaseOrderNotActive   = errors.New("purchase order must be accepted before it can progress")
	ErrPurchaseOrderNotDelivery = errors.New("purchase order must be delivered first")
)

// File and messaging errors
var (
	ErrFileNotFound        = errors.New("file not found")
	ErrFileTooLarge        = errors.New("file exceeds the maximum upload size")
	ErrFileTypeNotAllowed  = errors.New("file type is not allowed")
	ErrThreadNotFound      = errors.New("thread not found")
	ErrMessageNotFound     = errors.New("message not found")
	ErrNoAdminAvailable    = errors.New("no administrator is available to receive messages")
	ErrRecipientNotAllowed = errors.New("you can only message administrators")
	ErrNotParticipant      = errors.New("you are not a participant in this thread")
)

// isUniqueViolation detects unique constraint failures on postgres and sqlite
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// isForeignKeyViolation detects rows still referenced by other tables
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key") || strings.Contains(msg, "23503")
}
