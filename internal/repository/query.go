package repository

import (
	"context"
	"strings"

	"github.com/valisyam/shub/internal/auth"
	"gorm.io/gorm"
)

// Page size bounds for list endpoints
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortConfig is the sortBy/sortOrder pair of a list request. Field is the
// API (camelCase) name, mapped to a column by each repository.
type SortConfig struct {
	Field string
	Order SortOrder
}

// DefaultSortConfig returns a default sort configuration (createdAt DESC)
func DefaultSortConfig() SortConfig {
	return SortConfig{
		Field: "createdAt",
		Order: SortOrderDesc,
	}
}

// ParseSortOrder parses a string into SortOrder, defaulting to desc
func ParseSortOrder(s string) SortOrder {
	if strings.ToLower(s) == "asc" {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// BuildOrderClause builds the SQL ORDER BY clause from field mapping and sort config.
// fieldMap maps API field names to database column names; unknown fields use defaultColumn.
func BuildOrderClause(config SortConfig, fieldMap map[string]string, defaultColumn string) string {
	column, ok := fieldMap[config.Field]
	if !ok {
		column = defaultColumn
	}

	order := "DESC"
	if config.Order == SortOrderAsc {
		order = "ASC"
	}

	return column + " " + order
}

// NormalizePage clamps page and page size to sane values
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Paginate applies offset and limit for a normalized page
func Paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	page, pageSize = NormalizePage(page, pageSize)
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}

// ApplyOwnerScope restricts a query to rows owned by the caller's company peers.
// column names the owning user column, e.g. "rfqs.user_id".
// Admins and calls without a user context are left unfiltered.
func ApplyOwnerScope(ctx context.Context, query *gorm.DB, column string) *gorm.DB {
	ids := auth.GetEffectiveOwnerIDs(ctx)
	if ids == nil {
		return query
	}
	return query.Where(column+" IN ?", ids)
}
