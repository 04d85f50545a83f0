package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/config"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/http/handler"
	"github.com/valisyam/shub/internal/http/middleware"
	"github.com/valisyam/shub/internal/http/router"
	"github.com/valisyam/shub/internal/idgen"
	"github.com/valisyam/shub/internal/mailer"
	"github.com/valisyam/shub/internal/realtime"
	"github.com/valisyam/shub/internal/repository"
	"github.com/valisyam/shub/internal/service"
	"github.com/valisyam/shub/internal/storage"
	"github.com/valisyam/shub/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (m *captureMailer) Send(_ context.Context, email mailer.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return nil
}

type testServer struct {
	*httptest.Server
	db     *gorm.DB
	tokens *auth.TokenManager
	hub    *realtime.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	cfg := &config.Config{
		App: config.AppConfig{Name: "S-Hub API", Environment: "development", ClientBaseURL: "http://localhost:5173"},
		Auth: config.AuthConfig{
			JWTSecret:                  "router-test-secret",
			TokenTTLHours:              1,
			Issuer:                     "s-hub",
			VerificationCodeTTLMinutes: 15,
			ResetCodeTTLMinutes:        15,
		},
		CORS: config.CORSConfig{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
		Security:  config.SecurityConfig{ContentTypeNosniff: true, FrameOptions: "DENY"},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ids, err := idgen.NewGenerator(1)
	require.NoError(t, err)
	hub := realtime.NewHub(logger)

	userRepo := repository.NewUserRepository(db)
	rfqRepo := repository.NewRfqRepository(db)
	quoteRepo := repository.NewSalesQuoteRepository(db)
	orderRepo := repository.NewSalesOrderRepository(db)
	assignRepo := repository.NewRfqAssignmentRepository(db)
	supplierQuoteRepo := repository.NewSupplierQuoteRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	numbering := service.NewNumberingService(db, logger)
	email := service.NewEmailService(&captureMailer{}, mailer.NewRenderer(), cfg, logger)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), userRepo, hub, logger)
	uploader := service.NewUploader(store, 1<<20, logger)
	tokens := auth.NewTokenManager(&cfg.Auth)

	authService := service.NewAuthService(db, userRepo, repository.NewPendingRegistrationRepository(db), numbering, tokens, email, &cfg.Auth, logger)
	supplierQuotes := service.NewSupplierQuoteService(db, supplierQuoteRepo, assignRepo, rfqRepo, notifications, logger)
	purchaseOrders := service.NewPurchaseOrderService(db, poRepo, supplierQuoteRepo, numbering, uploader, notifications, email, logger)
	authMiddleware := auth.NewMiddleware(tokens, userRepo, logger)

	rt := router.NewRouter(cfg, logger, db, authMiddleware,
		middleware.NewCompanyScopeMiddleware(userRepo, logger),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		router.Handlers{
			Auth:    handler.NewAuthHandler(authService, logger),
			Company: handler.NewCompanyHandler(service.NewCompanyService(db, repository.NewCompanyRepository(db), userRepo, numbering, logger), logger),
			User:    handler.NewUserHandler(service.NewUserService(db, userRepo, repository.NewCompanyRepository(db), numbering, email, logger), logger),
			Rfq:     handler.NewRfqHandler(service.NewRfqService(db, rfqRepo, orderRepo, assignRepo, userRepo, numbering, notifications, email, logger), logger),
			Quote: handler.NewQuoteHandler(
				service.NewSalesQuoteService(db, quoteRepo, rfqRepo, orderRepo, userRepo, numbering, uploader, notifications, email, logger),
				1<<20, logger),
			Order: handler.NewOrderHandler(service.NewSalesOrderService(db, orderRepo, rfqRepo, quoteRepo,
				repository.NewShipmentRepository(db), repository.NewInvoiceRepository(db), userRepo, numbering, notifications, email, logger), logger),
			Supplier:      handler.NewSupplierHandler(supplierQuotes, purchaseOrders, 1<<20, logger),
			PurchaseOrder: handler.NewPurchaseOrderHandler(purchaseOrders, logger),
			File: handler.NewFileHandler(
				service.NewFileService(repository.NewFileRepository(db), rfqRepo, orderRepo, supplierQuoteRepo, assignRepo, uploader, logger),
				1<<20, logger),
			Notification: handler.NewNotificationHandler(notifications, logger),
			Message:      handler.NewMessageHandler(service.NewMessageService(messageRepo, userRepo, ids, uploader, notifications, logger), 1<<20, logger),
			Realtime:     handler.NewRealtimeHandler(hub, authMiddleware, logger),
			Admin:        handler.NewAdminHandler(service.NewExportService(rfqRepo, orderRepo, poRepo, logger), numbering, logger),
		},
	)

	srv := httptest.NewServer(rt.Setup())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, db: db, tokens: tokens, hub: hub}
}

func (s *testServer) tokenFor(t *testing.T, u *domain.User) string {
	t.Helper()
	token, err := s.tokens.Issue(u)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/auth/register", "", domain.RegisterRequest{
		Email: "buyer@example.com", Password: "s3cret-pass", Name: "Buyer", Role: domain.RoleCustomer,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var pending domain.PendingRegistration
	require.NoError(t, s.db.Where("email = ? AND role = ?", "buyer@example.com", domain.RoleCustomer).First(&pending).Error)

	resp = s.do(t, http.MethodPost, "/api/auth/verify", "", domain.VerifyEmailRequest{
		Email: "buyer@example.com", Role: domain.RoleCustomer, Code: pending.Code,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var verified domain.AuthResponse
	decode(t, resp, &verified)
	require.NotEmpty(t, verified.Token)

	t.Run("me returns the account", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/auth/me", verified.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var me domain.UserDTO
		decode(t, resp, &me)
		assert.Equal(t, "buyer@example.com", me.Email)
		assert.Equal(t, domain.RoleCustomer, me.Role)
	})

	t.Run("login", func(t *testing.T) {
		resp := s.do(t, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{Email: "buyer@example.com", Password: "s3cret-pass"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := s.do(t, http.MethodPost, "/api/auth/login", "", domain.LoginRequest{Email: "buyer@example.com", Password: "nope-nope"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var body domain.ErrorResponse
		decode(t, resp, &body)
		assert.Equal(t, "Unauthorized", body.Error)
	})

	t.Run("validation errors are 400", func(t *testing.T) {
		resp := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRoleEnforcement(t *testing.T) {
	s := newTestServer(t)
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	supplier := testutil.CreateTestUser(t, s.db, domain.RoleSupplier, nil)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/rfqs", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/rfqs", "garbage", http.StatusUnauthorized},
		{"customer on admin route", http.MethodGet, "/api/admin/users", s.tokenFor(t, customer), http.StatusForbidden},
		{"supplier on customer route", http.MethodGet, "/api/rfqs", s.tokenFor(t, supplier), http.StatusForbidden},
		{"customer on supplier route", http.MethodGet, "/api/supplier/assignments", s.tokenFor(t, customer), http.StatusForbidden},
		{"shared route", http.MethodGet, "/api/notifications", s.tokenFor(t, supplier), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestQuoteToOrderOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := testutil.CreateTestUser(t, s.db, domain.RoleAdmin, nil)
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	adminToken := s.tokenFor(t, admin)
	customerToken := s.tokenFor(t, customer)

	resp := s.do(t, http.MethodPost, "/api/rfqs", customerToken, domain.CreateRfqRequest{
		ProjectName: "Bracket", Material: "Aluminum 6061", Quantity: 25,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var rfq domain.RfqDTO
	decode(t, resp, &rfq)

	resp = s.do(t, http.MethodPost, "/api/admin/rfqs/"+rfq.ID.String()+"/quote", adminToken, domain.CreateSalesQuoteRequest{Amount: 980})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var quote domain.SalesQuoteDTO
	decode(t, resp, &quote)

	resp = s.do(t, http.MethodPost, "/api/quotes/"+quote.ID.String()+"/respond", customerToken, domain.RespondQuoteRequest{Action: "accept"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/admin/orders", adminToken, domain.CreateOrderRequest{RfqID: rfq.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order domain.SalesOrderDTO
	decode(t, resp, &order)
	assert.Equal(t, 25, order.QuantityRemaining)
	assert.Equal(t, 980.0, order.Amount)

	t.Run("duplicate order is rejected", func(t *testing.T) {
		resp := s.do(t, http.MethodPost, "/api/admin/orders", adminToken, domain.CreateOrderRequest{RfqID: rfq.ID})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body domain.ErrorResponse
		decode(t, resp, &body)
		assert.Equal(t, "Order already exists for this RFQ", body.Message)
	})

	t.Run("customer lists the order", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/orders", customerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var orders []domain.SalesOrderDTO
		decode(t, resp, &orders)
		require.Len(t, orders, 1)
		assert.Equal(t, order.ID, orders[0].ID)
	})

	t.Run("other customers get 404", func(t *testing.T) {
		outsider := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
		resp := s.do(t, http.MethodGet, "/api/orders/"+order.ID.String(), s.tokenFor(t, outsider), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed ids are 400", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/orders/not-a-uuid", customerToken, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("export", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/admin/export/orders", adminToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "orders-")
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("PK")), "xlsx is a zip archive")

		resp = s.do(t, http.MethodGet, "/api/admin/export/unknown", adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func upload(t *testing.T, s *testServer, token, fileName string, fields map[string]string, content []byte) *http.Response {
	t.Helper()
	return uploadAs(t, s, token, fileName, "application/octet-stream", fields, content)
}

// uploadAs posts a file part that declares partType as its content type
func uploadAs(t *testing.T, s *testServer, token, fileName, partType string, fields map[string]string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", partType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.URL+"/api/files", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestFileUploadAndDownload(t *testing.T) {
	s := newTestServer(t)
	customer := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	token := s.tokenFor(t, customer)
	rfq := testutil.CreateTestRfq(t, s.db, customer.ID, domain.RfqStatusSubmitted)
	link := map[string]string{"linkedToType": "rfq", "linkedToId": rfq.ID.String()}

	resp := upload(t, s, token, "bracket.step", link, []byte("ISO-10303-21;"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var file domain.FileDTO
	decode(t, resp, &file)
	assert.Equal(t, domain.FileLinkRfq, file.LinkedToType)
	assert.Equal(t, rfq.ID, file.LinkedToID)

	t.Run("list by owner", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/files?linkedToType=rfq&linkedToId="+rfq.ID.String(), token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var files []domain.FileDTO
		decode(t, resp, &files)
		assert.Len(t, files, 1)
	})

	t.Run("download", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/api/files/"+file.ID.String()+"/download", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "bracket.step")
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "ISO-10303-21;", string(data))
	})

	t.Run("disallowed extension", func(t *testing.T) {
		resp := upload(t, s, token, "payload.exe", link, []byte("MZ"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid link", func(t *testing.T) {
		resp := upload(t, s, token, "part.pdf", map[string]string{"linkedToType": "invoice", "linkedToId": uuid.NewString()}, []byte("%PDF"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("oversized body", func(t *testing.T) {
		resp := upload(t, s, token, "huge.pdf", link, bytes.Repeat([]byte("x"), 3<<19))
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})

	t.Run("declared content type is ignored", func(t *testing.T) {
		resp := uploadAs(t, s, token, "drawing.pdf", "text/html", link, []byte("%PDF-1.4"))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var spoofed domain.FileDTO
		decode(t, resp, &spoofed)
		assert.Equal(t, "application/pdf", spoofed.ContentType)

		resp = s.do(t, http.MethodGet, "/api/files/"+spoofed.ID.String()+"/download", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	})
}

func TestRealtimeHandshake(t *testing.T) {
	s := newTestServer(t)
	user := testutil.CreateTestUser(t, s.db, domain.RoleCustomer, nil)
	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/api/ws"

	t.Run("rejects a bad token", func(t *testing.T) {
		_, resp, err := ws.DefaultDialer.Dial(wsURL+"?token=garbage", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("accepts a query token", func(t *testing.T) {
		conn, _, err := ws.DefaultDialer.Dial(wsURL+"?token="+s.tokenFor(t, user), nil)
		require.NoError(t, err)
		defer conn.Close()
		require.Eventually(t, func() bool {
			return s.hub.ConnectionCount(user.ID) == 1
		}, 2*time.Second, 10*time.Millisecond)
	})
}
