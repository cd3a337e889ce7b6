package handler

import (
	"bytes"
	"context"
	"encoding/json"
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

type verificationServiceMock struct {
	checklist *dto.DocumentChecklist
	links     map[string]string
	fetchErr  error
	saveResp  *dto.SaveDocumentsResponse
	saveErr   error
	bulkResp  *dto.BulkVerifyResponse
	bulkErr   error
	lastSave  dto.SaveDocumentsRequest
}

func (m *verificationServiceMock) Checklist(ctx context.Context, studentID string, actor *models.Admin) (*dto.DocumentChecklist, map[string]string, error) {
	if m.fetchErr != nil {
		return nil, nil, m.fetchErr
	}
	return m.checklist, m.links, nil
}

func (m *verificationServiceMock) Save(ctx context.Context, studentID string, req dto.SaveDocumentsRequest, actor *models.Admin, clientIP, userAgent string) (*dto.SaveDocumentsResponse, error) {
	m.lastSave = req
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return m.saveResp, nil
}

func (m *verificationServiceMock) BulkVerify(ctx context.Context, req dto.BulkVerifyRequest, actor *models.Admin, clientIP, userAgent string) (*dto.BulkVerifyResponse, error) {
	if m.bulkErr != nil {
		return nil, m.bulkErr
	}
	return m.bulkResp, nil
}

func TestVerificationHandlerDocuments(t *testing.T) {
	updated := time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC)
	svc := &verificationServiceMock{
		checklist: &dto.DocumentChecklist{
			StudentID: "STU2647AC91",
			Documents: map[string]models.DocumentVerification{
				models.DocTenthMarksheet: {Verified: true, Notes: "original sighted"},
			},
			UpdatedAt: &updated,
		},
		links: map[string]string{"tenthMarksheetUpload": "/api/documents/abc"},
	}
	handler := NewVerificationHandler(svc, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/students/STU2647AC91/documents", nil)
	c.Params = gin.Params{{Key: "id", Value: "STU2647AC91"}}

	handler.Documents(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.DocumentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "STU2647AC91", body.Data.StudentID)
	assert.True(t, body.Data.Documents[models.DocTenthMarksheet].Verified)
	assert.Equal(t, "/api/documents/abc", body.Links["tenthMarksheetUpload"])
}

func TestVerificationHandlerDocumentsNotFound(t *testing.T) {
	svc := &verificationServiceMock{fetchErr: appErrors.Clone(appErrors.ErrNotFound, "student not found")}
	handler := NewVerificationHandler(svc, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/students/STU00000000/documents", nil)
	c.Params = gin.Params{{Key: "id", Value: "STU00000000"}}

	handler.Documents(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerificationHandlerSaveDocuments(t *testing.T) {
	svc := &verificationServiceMock{
		saveResp: &dto.SaveDocumentsResponse{AllRequiredDocumentsVerified: true, Status: models.StatusVerified},
	}
	handler := NewVerificationHandler(svc, deptAdminLoader("Computer Science"))

	payload := dto.SaveDocumentsRequest{
		Documents: map[string]dto.DocumentEntryInput{
			models.DocTenthMarksheet: {Verified: true, Notes: "ok"},
		},
		DepartmentAdmin: "CS Admin",
	}
	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPut, "/students/STU2647AC91/documents", payload)
	c.Params = gin.Params{{Key: "id", Value: "STU2647AC91"}}

	handler.SaveDocuments(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.SaveDocumentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, body.AllRequiredDocumentsVerified)
	assert.Equal(t, models.StatusVerified, body.Status)
	assert.Equal(t, "CS Admin", svc.lastSave.DepartmentAdmin)
}

func TestVerificationHandlerSaveDocumentsInvalidBody(t *testing.T) {
	handler := NewVerificationHandler(&verificationServiceMock{}, superAdminLoader())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/students/STU2647AC91/documents", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "STU2647AC91"}}
	c.Set(middleware.ContextAdminKey, &models.JWTClaims{AdminID: "adm-1", Role: models.RoleSuperAdmin})

	handler.SaveDocuments(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerificationHandlerBulkVerify(t *testing.T) {
	svc := &verificationServiceMock{bulkResp: &dto.BulkVerifyResponse{Verified: 2, Failed: 1}}
	handler := NewVerificationHandler(svc, superAdminLoader())

	payload := dto.BulkVerifyRequest{StudentIDs: []string{"STU1", "STU2", "STU3"}, VerifiedBy: "Registrar"}
	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/students/bulk-verify-documents", payload)

	handler.BulkVerify(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.BulkVerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Verified)
	assert.Equal(t, 1, body.Failed)
}
