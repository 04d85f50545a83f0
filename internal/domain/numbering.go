package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// Sequence scopes. Each scope is an independent counter.
const (
	SequenceCustomerCompany = "company_customer"
	SequenceSupplierCompany = "company_supplier"
	SequenceUser            = "user"
	SequenceSalesQuote      = "sales_quote"
	SequenceSalesOrder      = "sales_order"
	SequenceSalesInvoice    = "sales_invoice"
	SequencePurchaseOrder   = "purchase_order"
	// SequenceRfqReference numbers RFQs routed to suppliers (SQTE-NNN).
	// It is unrelated to SequenceSalesQuote even though both use the SQTE prefix.
	SequenceRfqReference = "rfq_reference"
)

// UserNumberBase is added to the user sequence so the first account is 100010
const UserNumberBase = 100009

// CompanyNumberPrefix returns CU for customers and V for suppliers
func CompanyNumberPrefix(t CompanyType) string {
	if t == CompanyTypeSupplier {
		return "V"
	}
	return "CU"
}

// CompanySequenceScope returns the counter used for a company type
func CompanySequenceScope(t CompanyType) string {
	if t == CompanyTypeSupplier {
		return SequenceSupplierCompany
	}
	return SequenceCustomerCompany
}

// FormatCompanyNumber formats CU0001 / V0001
func FormatCompanyNumber(t CompanyType, seq int) string {
	return fmt.Sprintf("%s%04d", CompanyNumberPrefix(t), seq)
}

var (
	customerNumberPattern = regexp.MustCompile(`^CU(\d{4,})$`)
	supplierNumberPattern = regexp.MustCompile(`^V(\d{4,})$`)
	yearlyNumberPattern   = regexp.MustCompile(`^[A-Z]+-(\d{2})(\d{3,})$`)
	plainNumberPattern    = regexp.MustCompile(`^[A-Z]+-(\d+)$`)
)

// ParseCompanyNumber validates a company number against its type and
// returns the numeric part
func ParseCompanyNumber(t CompanyType, number string) (int, error) {
	pattern := customerNumberPattern
	if t == CompanyTypeSupplier {
		pattern = supplierNumberPattern
	}
	m := pattern.FindStringSubmatch(number)
	if m == nil {
		return 0, fmt.Errorf("company number %q does not match %s#### format", number, CompanyNumberPrefix(t))
	}
	return strconv.Atoi(m[1])
}

// FormatUserNumber formats the numeric user number
func FormatUserNumber(seq int) string {
	return strconv.Itoa(UserNumberBase + seq)
}

// FormatYearlyNumber formats PREFIX-YYNNN, e.g. SORD-25001
func FormatYearlyNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%02d%03d", prefix, year%100, seq)
}

// ParseYearlySequence extracts the two digit year and sequence from PREFIX-YYNNN
func ParseYearlySequence(number string) (yy int, seq int, ok bool) {
	m := yearlyNumberPattern.FindStringSubmatch(number)
	if m == nil {
		return 0, 0, false
	}
	yy, _ = strconv.Atoi(m[1])
	seq, _ = strconv.Atoi(m[2])
	return yy, seq, true
}

// FormatPurchaseOrderNumber formats PO-0001
func FormatPurchaseOrderNumber(seq int) string {
	return fmt.Sprintf("PO-%04d", seq)
}

// FormatRfqReferenceNumber formats SQTE-001
func FormatRfqReferenceNumber(seq int) string {
	return fmt.Sprintf("SQTE-%03d", seq)
}

// ParsePlainSequence extracts the sequence from PREFIX-NNN
func ParsePlainSequence(number string) (int, bool) {
	m := plainNumberPattern.FindStringSubmatch(number)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

// Prefixes for yearly document numbers
const (
	PrefixSalesQuote   = "SQTE"
	PrefixSalesOrder   = "SORD"
	PrefixSalesInvoice = "SINV"
)
