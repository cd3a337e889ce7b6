package service

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
	"github.com/campusops/admissions-api/pkg/jobs"
	"github.com/campusops/admissions-api/pkg/slip"
	"github.com/campusops/admissions-api/pkg/storage"
)

type mockSlipStudentRepo struct {
	students     map[string]*models.Student
	setSlipCalls int
}

func newMockSlipStudentRepo(students ...*models.Student) *mockSlipStudentRepo {
	repo := &mockSlipStudentRepo{students: map[string]*models.Student{}}
	for _, student := range students {
		repo.students[student.StudentID] = student
	}
	return repo
}

func (m *mockSlipStudentRepo) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	student, ok := m.students[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *student
	return &copied, nil
}

func (m *mockSlipStudentRepo) SetSlip(ctx context.Context, studentID, slipPath string, ts time.Time) error {
	student, ok := m.students[studentID]
	if !ok {
		return sql.ErrNoRows
	}
	m.setSlipCalls++
	student.SlipPath = &slipPath
	student.SlipGeneratedAt = &ts
	return nil
}

func verifiedChecklist() []models.DocumentVerification {
	verifiedBy := "Prof. Mehta"
	now := time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC)
	entries := make([]models.DocumentVerification, 0, len(models.RequiredDocumentKeys))
	for _, key := range models.RequiredDocumentKeys {
		entries = append(entries, models.DocumentVerification{
			Key:        key,
			Verified:   true,
			VerifiedAt: &now,
			VerifiedBy: &verifiedBy,
			UpdatedAt:  now,
		})
	}
	return entries
}

func newSlipServiceForTest(t *testing.T, repo *mockSlipStudentRepo, audit *mockAuditor) (*SlipService, *storage.LocalStorage) {
	t.Helper()
	vault, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	docs := &mockDocumentRepo{entries: verifiedChecklist()}
	var auditor registrationAuditor
	if audit != nil {
		auditor = audit
	}
	svc := NewSlipService(repo, docs, vault, slip.NewRenderer("Test College", "1 College Road"), signer, auditor, nil, nil, jobs.QueueConfig{Workers: 1}, zap.NewNop())
	return svc, vault
}

func TestSlipServicePrintRendersOnDemand(t *testing.T) {
	student := testStudent("STU26AB12CD", models.StatusVerified)
	repo := newMockSlipStudentRepo(student)
	audit := &mockAuditor{}
	svc, vault := newSlipServiceForTest(t, repo, audit)

	res, err := svc.PrintDocument(context.Background(), "STU26AB12CD", nil, "10.0.0.5", "console")
	require.NoError(t, err)
	assert.Equal(t, "open_new", res.Action)
	assert.True(t, strings.HasPrefix(res.DocumentURL, "/api/documents/"))
	assert.Equal(t, 1, repo.setSlipCalls)

	info, err := os.Stat(vault.Path("slips/STU26AB12CD.pdf"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionSlipGenerate, audit.logs[0].Action)
}

func TestSlipServicePrintReturnsExisting(t *testing.T) {
	student := testStudent("STU26AB12CD", models.StatusVerified)
	repo := newMockSlipStudentRepo(student)
	svc, _ := newSlipServiceForTest(t, repo, nil)

	first, err := svc.PrintDocument(context.Background(), "STU26AB12CD", nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, "open_new", first.Action)

	second, err := svc.PrintDocument(context.Background(), "STU26AB12CD", nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, "open_existing", second.Action)
	assert.Equal(t, 1, repo.setSlipCalls)
}

func TestSlipServicePrintRejectsUnverified(t *testing.T) {
	repo := newMockSlipStudentRepo(testStudent("STU26AB12CD", models.StatusPhotoUploaded))
	svc, _ := newSlipServiceForTest(t, repo, nil)

	_, err := svc.PrintDocument(context.Background(), "STU26AB12CD", nil, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, repo.setSlipCalls)
}

func TestSlipServicePrintForbidden(t *testing.T) {
	repo := newMockSlipStudentRepo(testStudent("STU26AB12CD", models.StatusVerified))
	svc, _ := newSlipServiceForTest(t, repo, nil)
	actor := &models.Admin{ID: "adm-2", Role: models.RoleDepartmentAdmin, Department: "Physics"}

	_, err := svc.PrintDocument(context.Background(), "STU26AB12CD", actor, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSlipServiceBackgroundRender(t *testing.T) {
	student := testStudent("STU26AB12CD", models.StatusVerified)
	repo := newMockSlipStudentRepo(student)
	svc, vault := newSlipServiceForTest(t, repo, nil)

	err := svc.handleJob(context.Background(), jobs.Job{ID: "job-1", Type: "slip_generate", Payload: "STU26AB12CD"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.setSlipCalls)

	_, err = os.Stat(vault.Path("slips/STU26AB12CD.pdf"))
	require.NoError(t, err)

	// A second pickup finds the slip on disk and does nothing.
	err = svc.handleJob(context.Background(), jobs.Job{ID: "job-2", Type: "slip_generate", Payload: "STU26AB12CD"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.setSlipCalls)
}

func TestSlipServiceBackgroundRenderSkipsUnverified(t *testing.T) {
	repo := newMockSlipStudentRepo(testStudent("STU26AB12CD", models.StatusRegistered))
	svc, vault := newSlipServiceForTest(t, repo, nil)

	err := svc.handleJob(context.Background(), jobs.Job{ID: "job-1", Type: "slip_generate", Payload: "STU26AB12CD"})
	require.NoError(t, err)
	assert.Equal(t, 0, repo.setSlipCalls)

	_, err = os.Stat(vault.Path("slips/STU26AB12CD.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestSlipServiceResolveDownload(t *testing.T) {
	repo := newMockSlipStudentRepo(testStudent("STU26AB12CD", models.StatusVerified))
	svc, _ := newSlipServiceForTest(t, repo, nil)

	res, err := svc.PrintDocument(context.Background(), "STU26AB12CD", nil, "", "")
	require.NoError(t, err)

	token := strings.TrimPrefix(res.DocumentURL, "/api/documents/")
	file, relPath, err := svc.ResolveDownload(token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "slips/STU26AB12CD.pdf", relPath)

	_, _, err = svc.ResolveDownload("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
