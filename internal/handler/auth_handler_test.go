package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/middleware"
	"github.com/campusops/admissions-api/internal/models"
	"github.com/campusops/admissions-api/internal/service"
)

type stubAdminRepo struct {
	admin *models.Admin
	logs  []*models.AuditLog
}

func (r *stubAdminRepo) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	if r.admin == nil || r.admin.Username != username {
		return nil, sql.ErrNoRows
	}
	return r.admin, nil
}

func (r *stubAdminRepo) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	if r.admin == nil || r.admin.ID != id {
		return nil, sql.ErrNoRows
	}
	return r.admin, nil
}

func (r *stubAdminRepo) Count(ctx context.Context) (int, error) { return 1, nil }

func (r *stubAdminRepo) Create(ctx context.Context, admin *models.Admin) error { return nil }

func (r *stubAdminRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (r *stubAdminRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func newStubAuthService(t *testing.T, password string) (*service.AuthService, *stubAdminRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubAdminRepo{admin: &models.Admin{
		ID:           "adm-1",
		Username:     "registrar",
		PasswordHash: string(hash),
		FullName:     "Registrar",
		Role:         models.RoleSuperAdmin,
		Active:       true,
	}}
	svc := service.NewAuthService(repo, nil, nil, service.AuthConfig{TokenSecret: "handler-test-secret", TokenExpiry: time.Hour})
	return svc, repo
}

func TestAuthHandlerLogin(t *testing.T) {
	svc, _ := newStubAuthService(t, "sturdy-passphrase")
	handler := NewAuthHandler(svc)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(models.LoginRequest{Username: "registrar", Password: "sturdy-passphrase"})
	req, _ := http.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)

	var got dto.AdminLoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.NotEmpty(t, got.Token)
	assert.Equal(t, int64(3600), got.ExpiresIn)
	assert.Equal(t, "registrar", got.Admin.Username)
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	svc, _ := newStubAuthService(t, "sturdy-passphrase")
	handler := NewAuthHandler(svc)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(models.LoginRequest{Username: "registrar", Password: "wrong"})
	req, _ := http.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Login(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestAuthHandlerLoginInvalidBody(t *testing.T) {
	svc, _ := newStubAuthService(t, "sturdy-passphrase")
	handler := NewAuthHandler(svc)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Login(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerVerifyToken(t *testing.T) {
	svc, _ := newStubAuthService(t, "sturdy-passphrase")
	handler := NewAuthHandler(svc)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/admin/verify-token", nil)
	c.Request = req
	c.Set(middleware.ContextAdminKey, &models.JWTClaims{AdminID: "adm-1", Username: "registrar", Role: models.RoleSuperAdmin})

	handler.VerifyToken(c)
	require.Equal(t, http.StatusOK, w.Code)

	var got dto.VerifyTokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, "adm-1", got.Admin.ID)
}

func TestAuthHandlerVerifyTokenWithoutClaims(t *testing.T) {
	svc, _ := newStubAuthService(t, "sturdy-passphrase")
	handler := NewAuthHandler(svc)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/admin/verify-token", nil)
	c.Request = req

	handler.VerifyToken(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

type auditRepoMock struct {
	logs      []models.AuditLog
	lastLimit int
}

func (m *auditRepoMock) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	m.lastLimit = limit
	return m.logs, nil
}

func TestAuditHandlerList(t *testing.T) {
	actor := "adm-1"
	repo := &auditRepoMock{logs: []models.AuditLog{{
		ID:       "log-1",
		ActorID:  &actor,
		Action:   models.AuditActionLogin,
		Resource: "auth",
	}}}
	handler := NewAuditHandler(repo)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/admin/audit-logs?limit=25", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, repo.lastLimit)

	var body dto.AuditLogsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Logs, 1)
	assert.Equal(t, models.AuditActionLogin, body.Logs[0].Action)
}
