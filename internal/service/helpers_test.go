package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/config"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/idgen"
	"github.com/valisyam/shub/internal/mailer"
	"github.com/valisyam/shub/internal/repository"
	"github.com/valisyam/shub/internal/service"
	"github.com/valisyam/shub/internal/storage"
	"github.com/valisyam/shub/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeMailer records outbound email and can be told to fail for one address
type fakeMailer struct {
	mu     sync.Mutex
	sent   []mailer.Email
	failTo string
}

func (m *fakeMailer) Send(ctx context.Context, email mailer.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo != "" && email.To == m.failTo {
		return errMailDown
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *fakeMailer) To(addr string) []mailer.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mailer.Email
	for _, e := range m.sent {
		if e.To == addr {
			out = append(out, e)
		}
	}
	return out
}

type mailError string

func (e mailError) Error() string { return string(e) }

const errMailDown = mailError("mail server unavailable")

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{ClientBaseURL: "https://portal.example.com"},
		Auth: config.AuthConfig{
			JWTSecret:                  "test-secret",
			TokenTTLHours:              1,
			Issuer:                     "s-hub",
			VerificationCodeTTLMinutes: 15,
			ResetCodeTTLMinutes:        15,
		},
	}
}

// services wires every service against one in-memory database
type services struct {
	db            *gorm.DB
	mail          *fakeMailer
	numbering     *service.NumberingService
	notifications *service.NotificationService
	auth          *service.AuthService
	companies     *service.CompanyService
	users         *service.UserService
	rfqs          *service.RfqService
	quotes        *service.SalesQuoteService
	orders        *service.SalesOrderService
	supplierQuote *service.SupplierQuoteService
	purchaseOrder *service.PurchaseOrderService
	messages      *service.MessageService
	reminders     *service.ReminderService
	files         *service.FileService
	exports       *service.ExportService
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	cfg := testConfig()

	mail := &fakeMailer{}
	email := service.NewEmailService(mail, mailer.NewRenderer(), cfg, logger)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	uploader := service.NewUploader(store, 1<<20, logger)

	ids, err := idgen.NewGenerator(1)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	rfqRepo := repository.NewRfqRepository(db)
	quoteRepo := repository.NewSalesQuoteRepository(db)
	orderRepo := repository.NewSalesOrderRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	assignRepo := repository.NewRfqAssignmentRepository(db)
	supplierQuoteRepo := repository.NewSupplierQuoteRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	fileRepo := repository.NewFileRepository(db)

	numbering := service.NewNumberingService(db, logger)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), userRepo, nil, logger)

	return &services{
		db:            db,
		mail:          mail,
		numbering:     numbering,
		notifications: notifications,
		auth: service.NewAuthService(db, userRepo, repository.NewPendingRegistrationRepository(db), numbering,
			auth.NewTokenManager(&cfg.Auth), email, &cfg.Auth, logger),
		companies:     service.NewCompanyService(db, companyRepo, userRepo, numbering, logger),
		users:         service.NewUserService(db, userRepo, companyRepo, numbering, email, logger),
		rfqs:          service.NewRfqService(db, rfqRepo, orderRepo, assignRepo, userRepo, numbering, notifications, email, logger),
		quotes:        service.NewSalesQuoteService(db, quoteRepo, rfqRepo, orderRepo, userRepo, numbering, uploader, notifications, email, logger),
		orders:        service.NewSalesOrderService(db, orderRepo, rfqRepo, quoteRepo, shipmentRepo, invoiceRepo, userRepo, numbering, notifications, email, logger),
		supplierQuote: service.NewSupplierQuoteService(db, supplierQuoteRepo, assignRepo, rfqRepo, notifications, logger),
		purchaseOrder: service.NewPurchaseOrderService(db, poRepo, supplierQuoteRepo, numbering, uploader, notifications, email, logger),
		messages:      service.NewMessageService(messageRepo, userRepo, ids, uploader, notifications, logger),
		reminders:     service.NewReminderService(messageRepo, email, logger),
		files:         service.NewFileService(fileRepo, rfqRepo, orderRepo, supplierQuoteRepo, assignRepo, uploader, logger),
		exports:       service.NewExportService(rfqRepo, orderRepo, poRepo, logger),
	}
}

// ctxFor returns a request context for u with its company peers in scope
func ctxFor(t *testing.T, db *gorm.DB, u *domain.User) context.Context {
	t.Helper()
	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CompanyID: u.CompanyID,
	})
	if u.Role == domain.RoleAdmin {
		return ctx
	}
	ids := []uuid.UUID{u.ID}
	if u.CompanyID != nil {
		var peers []uuid.UUID
		require.NoError(t, db.Model(&domain.User{}).Where("company_id = ?", *u.CompanyID).Pluck("id", &peers).Error)
		ids = peers
	}
	return auth.WithOwnerScope(ctx, &auth.OwnerScope{UserIDs: ids})
}
