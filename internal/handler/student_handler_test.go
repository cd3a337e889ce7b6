package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/middleware"
	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

type mockAdminLoader struct {
	admin *models.Admin
	err   error
}

func (m *mockAdminLoader) LoadAdmin(ctx context.Context, adminID string) (*models.Admin, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.admin, nil
}

func superAdminLoader() *mockAdminLoader {
	return &mockAdminLoader{admin: &models.Admin{ID: "adm-1", Username: "registrar", Role: models.RoleSuperAdmin, Active: true}}
}

func deptAdminLoader(department string) *mockAdminLoader {
	return &mockAdminLoader{admin: &models.Admin{ID: "adm-2", Username: "csadmin", Role: models.RoleDepartmentAdmin, Department: department, Active: true}}
}

func authedContext(t *testing.T, w *httptest.ResponseRecorder, method, target string, body interface{}) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextAdminKey, &models.JWTClaims{AdminID: "adm-1", Username: "registrar", Role: models.RoleSuperAdmin})
	return c
}

type studentServiceMock struct {
	roster     []dto.StudentSummary
	rosterErr  error
	lastFilter models.StudentFilter
	pendingDep string
	view       *dto.StudentView
	viewErr    error
	status     models.StudentStatus
	statusErr  error
}

func (m *studentServiceMock) Roster(ctx context.Context, filter models.StudentFilter) ([]dto.StudentSummary, error) {
	m.lastFilter = filter
	return m.roster, m.rosterErr
}

func (m *studentServiceMock) PendingVerification(ctx context.Context, department string) ([]dto.StudentSummary, error) {
	m.pendingDep = department
	return m.roster, m.rosterErr
}

func (m *studentServiceMock) Detail(ctx context.Context, studentID string) (*dto.StudentView, error) {
	if m.viewErr != nil {
		return nil, m.viewErr
	}
	return m.view, nil
}

func (m *studentServiceMock) ChangeStatus(ctx context.Context, studentID, rawStatus string, actor *models.Admin, clientIP, userAgent string) (models.StudentStatus, error) {
	if m.statusErr != nil {
		return "", m.statusErr
	}
	return m.status, nil
}

func (m *studentServiceMock) AttachPhoto(ctx context.Context, studentID, fileName string, size int64, r io.Reader, actor *models.Admin, clientIP, userAgent string) (*dto.StudentView, error) {
	if m.viewErr != nil {
		return nil, m.viewErr
	}
	return m.view, nil
}

func sampleSummary() dto.StudentSummary {
	return dto.StudentSummary{
		StudentID:     "STU2647AC91",
		Name:          "Asha Rao",
		JUApplication: "JU-2026-0042",
		Department:    "Computer Science",
		Status:        models.StatusPhotoUploaded,
		Attendance:    models.AttendancePresent,
		RegisteredAt:  time.Date(2026, 8, 18, 9, 30, 0, 0, time.UTC),
	}
}

func TestStudentHandlerList(t *testing.T) {
	svc := &studentServiceMock{roster: []dto.StudentSummary{sampleSummary()}}
	handler := NewStudentHandler(svc, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/students?department=Computer%20Science&search=asha", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.RosterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Students, 1)
	assert.Equal(t, "STU2647AC91", body.Students[0].StudentID)
	assert.Equal(t, "computerscience", svc.lastFilter.DepartmentKey)
	assert.Equal(t, "asha", svc.lastFilter.Search)
}

func TestStudentHandlerPendingVerificationScoped(t *testing.T) {
	svc := &studentServiceMock{roster: []dto.StudentSummary{sampleSummary()}}
	handler := NewStudentHandler(svc, deptAdminLoader("Computer Science"))

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/students/department/Computer%20Science/pending-verification", nil)
	c.Params = gin.Params{{Key: "department", Value: "Computer Science"}}

	handler.PendingVerification(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Computer Science", svc.pendingDep)
}

func TestStudentHandlerPendingVerificationForbidden(t *testing.T) {
	svc := &studentServiceMock{}
	handler := NewStudentHandler(svc, deptAdminLoader("Physics"))

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/students/department/Computer%20Science/pending-verification", nil)
	c.Params = gin.Params{{Key: "department", Value: "Computer Science"}}

	handler.PendingVerification(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.pendingDep)
}

func TestStudentHandlerStatusLookup(t *testing.T) {
	view := dto.StudentView{StudentSummary: sampleSummary()}
	handler := NewStudentHandler(&studentServiceMock{view: &view}, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/students/status", dto.StatusCheckRequest{StudentID: "STU2647AC91"})

	handler.StatusLookup(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.StudentDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "STU2647AC91", body.Data.StudentID)
}

func TestStudentHandlerStatusLookupUnknown(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{viewErr: appErrors.Clone(appErrors.ErrNotFound, "student not found")}, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/students/status", dto.StatusCheckRequest{StudentID: "STU00000000"})

	handler.StatusLookup(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "student not found")
}

func TestStudentHandlerUpdateStatus(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{status: models.StatusVerified}, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPut, "/students/STU2647AC91/status", dto.StatusUpdateRequest{Status: "verified"})
	c.Params = gin.Params{{Key: "id", Value: "STU2647AC91"}}

	handler.UpdateStatus(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.StatusUpdateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.StatusVerified, body.Status)
}

func TestStudentHandlerUpdateStatusConflict(t *testing.T) {
	svc := &studentServiceMock{statusErr: appErrors.Clone(appErrors.ErrConflict, "cannot move from registered to verified")}
	handler := NewStudentHandler(svc, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPut, "/students/STU2647AC91/status", dto.StatusUpdateRequest{Status: "verified"})
	c.Params = gin.Params{{Key: "id", Value: "STU2647AC91"}}

	handler.UpdateStatus(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestStudentHandlerUnauthenticated(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{}, &mockAdminLoader{err: errors.New("should not be called")})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/students/STU2647AC91/status", bytes.NewReader([]byte(`{"status":"verified"}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "STU2647AC91"}}

	handler.UpdateStatus(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
