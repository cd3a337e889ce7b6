package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

type mockStudentRepo struct {
	students    map[string]*models.Student
	listResult  []models.Student
	listCalls   int
	lastFilter  models.StudentFilter
	statusSet   map[string]models.StudentStatus
	photoPath   string
	departments []string
}

func newMockStudentRepo(students ...*models.Student) *mockStudentRepo {
	repo := &mockStudentRepo{
		students:  map[string]*models.Student{},
		statusSet: map[string]models.StudentStatus{},
	}
	for _, student := range students {
		repo.students[student.StudentID] = student
		repo.listResult = append(repo.listResult, *student)
	}
	return repo
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	m.listCalls++
	m.lastFilter = filter
	return m.listResult, nil
}

func (m *mockStudentRepo) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	student, ok := m.students[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *student
	return &copied, nil
}

func (m *mockStudentRepo) UpdateStatus(ctx context.Context, studentID string, status models.StudentStatus, ts time.Time) error {
	if _, ok := m.students[studentID]; !ok {
		return sql.ErrNoRows
	}
	m.statusSet[studentID] = status
	m.students[studentID].Status = status
	return nil
}

func (m *mockStudentRepo) SetPhoto(ctx context.Context, studentID, photoPath string, status models.StudentStatus, ts time.Time) error {
	if _, ok := m.students[studentID]; !ok {
		return sql.ErrNoRows
	}
	m.photoPath = photoPath
	m.students[studentID].Status = status
	return nil
}

func (m *mockStudentRepo) DistinctDepartments(ctx context.Context) ([]string, error) {
	return m.departments, nil
}

type mockSlipScheduler struct {
	scheduled []string
}

func (m *mockSlipScheduler) Schedule(studentID string) {
	m.scheduled = append(m.scheduled, studentID)
}

// memoryCacheRepo backs CacheService with a map for tests.
type memoryCacheRepo struct {
	data map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

func testStudent(studentID string, status models.StudentStatus) *models.Student {
	return &models.Student{
		ID:                "rec-" + studentID,
		StudentID:         studentID,
		ApplicationNumber: "JU2026001234",
		FullName:          "Asha Rao",
		Department:        "Computer Science",
		DepartmentKey:     "computerscience",
		ProgramName:       "B.Sc Computer Science",
		AdmissionType:     "merit",
		Status:            status,
		Attendance:        models.AttendanceAbsent,
		CreatedAt:         time.Date(2026, 8, 18, 9, 0, 0, 0, time.UTC),
	}
}

func TestStudentServiceRosterCachesUnsearchedLists(t *testing.T) {
	repo := newMockStudentRepo(testStudent("STU26AB12CD", models.StatusRegistered))
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewStudentService(repo, nil, nil, nil, cache, nil, zap.NewNop())

	first, err := svc.Roster(context.Background(), models.StudentFilter{DepartmentKey: "computerscience"})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, repo.listCalls)

	second, err := svc.Roster(context.Background(), models.StudentFilter{DepartmentKey: "computerscience"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.listCalls)

	// Search results bypass the cache entirely.
	_, err = svc.Roster(context.Background(), models.StudentFilter{DepartmentKey: "computerscience", Search: "asha"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
	_, err = svc.Roster(context.Background(), models.StudentFilter{DepartmentKey: "computerscience", Search: "asha"})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.listCalls)
}

func TestStudentServicePendingVerificationFilter(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(repo, nil, nil, nil, nil, nil, zap.NewNop())

	_, err := svc.PendingVerification(context.Background(), "Computer Science")
	require.NoError(t, err)
	assert.Equal(t, "computerscience", repo.lastFilter.DepartmentKey)
	assert.True(t, repo.lastFilter.PendingOnly)
}

func TestStudentServiceChangeStatusAdvances(t *testing.T) {
	repo := newMockStudentRepo(testStudent("STU26AB12CD", models.StatusRegistered))
	audit := &mockAuditor{}
	slips := &mockSlipScheduler{}
	svc := NewStudentService(repo, audit, nil, slips, nil, nil, zap.NewNop())

	status, err := svc.ChangeStatus(context.Background(), "STU26AB12CD", "photo_uploaded", nil, "10.0.0.5", "console")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPhotoUploaded, status)
	assert.Equal(t, models.StatusPhotoUploaded, repo.statusSet["STU26AB12CD"])
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionStatusChange, audit.logs[0].Action)
	assert.Empty(t, slips.scheduled)
}

func TestStudentServiceChangeStatusVerifiedSchedulesSlip(t *testing.T) {
	repo := newMockStudentRepo(testStudent("STU26AB12CD", models.StatusPhotoUploaded))
	slips := &mockSlipScheduler{}
	svc := NewStudentService(repo, nil, nil, slips, nil, nil, zap.NewNop())

	status, err := svc.ChangeStatus(context.Background(), "STU26AB12CD", "documents_verified", nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, status)
	assert.Equal(t, []string{"STU26AB12CD"}, slips.scheduled)
}

func TestStudentServiceChangeStatusIllegalJump(t *testing.T) {
	repo := newMockStudentRepo(testStudent("STU26AB12CD", models.StatusRegistered))
	svc := NewStudentService(repo, nil, nil, nil, nil, nil, zap.NewNop())

	_, err := svc.ChangeStatus(context.Background(), "STU26AB12CD", "verified", nil, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.statusSet)
}

func TestStudentServiceChangeStatusSelfNoop(t *testing.T) {
	repo := newMockStudentRepo(testStudent("STU26AB12CD", models.StatusVerified))
	audit := &mockAuditor{}
	svc := NewStudentService(repo, audit, nil, nil, nil, nil, zap.NewNop())

	status, err := svc.ChangeStatus(context.Background(), "STU26AB12CD", "verified", nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, status)
	assert.Empty(t, repo.statusSet)
	assert.Empty(t, audit.logs)
}

func TestStudentServiceChangeStatusForbidden(t *testing.T) {
	repo := newMockStudentRepo(testStudent("STU26AB12CD", models.StatusPhotoUploaded))
	svc := NewStudentService(repo, nil, nil, nil, nil, nil, zap.NewNop())
	actor := &models.Admin{ID: "adm-1", Role: models.RoleDepartmentAdmin, Department: "Physics"}

	_, err := svc.ChangeStatus(context.Background(), "STU26AB12CD", "verified", actor, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceChangeStatusUnknown(t *testing.T) {
	repo := newMockStudentRepo(testStudent("STU26AB12CD", models.StatusRegistered))
	svc := NewStudentService(repo, nil, nil, nil, nil, nil, zap.NewNop())

	_, err := svc.ChangeStatus(context.Background(), "STU26AB12CD", "graduated", nil, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceAttachPhotoAdvances(t *testing.T) {
	repo := newMockStudentRepo(testStudent("STU26AB12CD", models.StatusRegistered))
	store := &mockUploadStorage{}
	svc := NewStudentService(repo, nil, store, nil, nil, nil, zap.NewNop())

	view, err := svc.AttachPhoto(context.Background(), "STU26AB12CD", "intake.jpg", 2048, strings.NewReader("jpegdata"), nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPhotoUploaded, view.Status)
	assert.Equal(t, "photos/STU26AB12CD.jpg", repo.photoPath)
	assert.Contains(t, store.saved, "photos/STU26AB12CD.jpg")
}

func TestStudentServiceAttachPhotoRetakeKeepsStatus(t *testing.T) {
	repo := newMockStudentRepo(testStudent("STU26AB12CD", models.StatusVerified))
	svc := NewStudentService(repo, nil, &mockUploadStorage{}, nil, nil, nil, zap.NewNop())

	view, err := svc.AttachPhoto(context.Background(), "STU26AB12CD", "retake.png", 2048, strings.NewReader("pngdata"), nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, view.Status)
}

func TestStudentServiceAttachPhotoRejectsExtension(t *testing.T) {
	repo := newMockStudentRepo(testStudent("STU26AB12CD", models.StatusRegistered))
	svc := NewStudentService(repo, nil, &mockUploadStorage{}, nil, nil, nil, zap.NewNop())

	_, err := svc.AttachPhoto(context.Background(), "STU26AB12CD", "photo.gif", 2048, strings.NewReader("gifdata"), nil, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDetailNotFound(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(), nil, nil, nil, nil, nil, zap.NewNop())

	_, err := svc.Detail(context.Background(), "STU26ZZ99ZZ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
