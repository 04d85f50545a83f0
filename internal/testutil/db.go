// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/database"
	"github.com/valisyam/shub/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// SetupTestDB opens a fresh in-memory SQLite database with the full schema.
// The pool is pinned to a single connection so every query sees the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbCounter.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

var fixtureCounter atomic.Int64

func nextFixture() int64 {
	return fixtureCounter.Add(1)
}

// CreateTestCompany inserts a company with a unique number
func CreateTestCompany(t *testing.T, db *gorm.DB, companyType domain.CompanyType, name string) *domain.Company {
	t.Helper()
	company := &domain.Company{
		CompanyNumber: fmt.Sprintf("%s%04d", domain.CompanyNumberPrefix(companyType), 9000+nextFixture()),
		Type:          companyType,
		Name:          name,
	}
	require.NoError(t, db.Create(company).Error)
	return company
}

// CreateTestUser inserts a verified user. The password hash is a placeholder.
func CreateTestUser(t *testing.T, db *gorm.DB, role domain.UserRole, companyID *uuid.UUID) *domain.User {
	t.Helper()
	n := nextFixture()
	user := &domain.User{
		Email:        fmt.Sprintf("user%d@example.com", n),
		Role:         role,
		Name:         fmt.Sprintf("User %d", n),
		PasswordHash: "x",
		UserNumber:   fmt.Sprintf("9%08d", n),
		CompanyID:    companyID,
		IsVerified:   true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestRfq inserts an RFQ owned by the user
func CreateTestRfq(t *testing.T, db *gorm.DB, userID uuid.UUID, status domain.RfqStatus) *domain.RFQ {
	t.Helper()
	rfq := &domain.RFQ{
		UserID:      userID,
		ProjectName: "Bracket",
		Material:    "Aluminum",
		Quantity:    50,
		Status:      status,
	}
	require.NoError(t, db.Create(rfq).Error)
	return rfq
}

// CreateTestSalesQuote inserts a quote for the RFQ
func CreateTestSalesQuote(t *testing.T, db *gorm.DB, rfqID uuid.UUID, status domain.QuoteStatus) *domain.SalesQuote {
	t.Helper()
	quote := &domain.SalesQuote{
		QuoteNumber: fmt.Sprintf("SQTE-T%d", nextFixture()),
		RfqID:       rfqID,
		Amount:      decimal.NewFromInt(1200),
		Currency:    "USD",
		ValidUntil:  time.Now().UTC().AddDate(0, 0, 30),
		Status:      status,
	}
	require.NoError(t, db.Create(quote).Error)
	return quote
}

// CreateTestOrder inserts a sales order for the RFQ and quote
func CreateTestOrder(t *testing.T, db *gorm.DB, rfq *domain.RFQ, quoteID uuid.UUID) *domain.SalesOrder {
	t.Helper()
	order := &domain.SalesOrder{
		OrderNumber:       fmt.Sprintf("SORD-T%d", nextFixture()),
		RfqID:             rfq.ID,
		QuoteID:           quoteID,
		UserID:            rfq.UserID,
		ProjectName:       rfq.ProjectName,
		Material:          rfq.Material,
		Quantity:          rfq.Quantity,
		QuantityRemaining: rfq.Quantity,
		Amount:            decimal.NewFromInt(1200),
		Currency:          "USD",
		OrderStatus:       domain.OrderStatusPending,
		PaymentStatus:     domain.PaymentStatusUnpaid,
		OrderDate:         time.Now().UTC(),
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

// CreateTestAssignment invites a supplier to an RFQ
func CreateTestAssignment(t *testing.T, db *gorm.DB, rfqID, supplierID, adminID uuid.UUID, dueDate *time.Time) *domain.RfqAssignment {
	t.Helper()
	a := &domain.RfqAssignment{
		RfqID:        rfqID,
		SupplierID:   supplierID,
		AssignedByID: adminID,
		DueDate:      dueDate,
		Status:       domain.AssignmentStatusAssigned,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}
