package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	UpdateStatus(ctx context.Context, studentID string, status models.StudentStatus, ts time.Time) error
	SetPhoto(ctx context.Context, studentID, photoPath string, status models.StudentStatus, ts time.Time) error
	DistinctDepartments(ctx context.Context) ([]string, error)
}

type slipScheduler interface {
	Schedule(studentID string)
}

// StudentService serves roster reads and lifecycle mutations shared by
// the admin consoles.
type StudentService struct {
	repo    studentRepository
	audit   registrationAuditor
	storage uploadStorage
	slips   slipScheduler
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, audit registrationAuditor, storage uploadStorage, slips slipScheduler, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:    repo,
		audit:   audit,
		storage: storage,
		slips:   slips,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Roster lists students matching the filter. Unsearched lists are
// cached briefly because the consoles poll them.
func (s *StudentService) Roster(ctx context.Context, filter models.StudentFilter) ([]dto.StudentSummary, error) {
	cacheable := filter.Search == ""
	cacheKey := fmt.Sprintf("roster:%s:%t:%t", filter.DepartmentKey, filter.ExcludeVerified, filter.PendingOnly)

	if cacheable && s.cache != nil {
		var cached []dto.StudentSummary
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	start := time.Now()
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	s.metrics.ObserveDBQuery("students_list", time.Since(start))

	summaries := make([]dto.StudentSummary, 0, len(students))
	for _, student := range students {
		summaries = append(summaries, dto.NewStudentSummary(student))
	}

	if cacheable && s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summaries, 0); err != nil {
			s.logger.Warn("cache roster", zap.Error(err))
		}
	}
	return summaries, nil
}

// PendingVerification returns the actionable queue for a department:
// students with a photo on file who are physically present.
func (s *StudentService) PendingVerification(ctx context.Context, department string) ([]dto.StudentSummary, error) {
	return s.Roster(ctx, models.StudentFilter{
		DepartmentKey: models.NormalizeDepartment(department),
		PendingOnly:   true,
	})
}

// Detail returns the full status view for one student.
func (s *StudentService) Detail(ctx context.Context, studentID string) (*dto.StudentView, error) {
	student, err := s.find(ctx, studentID)
	if err != nil {
		return nil, err
	}
	view := dto.NewStudentView(*student)
	return &view, nil
}

// Departments lists the departments present in the roster.
func (s *StudentService) Departments(ctx context.Context) ([]string, error) {
	departments, err := s.repo.DistinctDepartments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// ChangeStatus applies a lifecycle transition requested by an admin.
// Alias spellings are accepted; illegal jumps are rejected.
func (s *StudentService) ChangeStatus(ctx context.Context, studentID, rawStatus string, actor *models.Admin, clientIP, userAgent string) (models.StudentStatus, error) {
	target, ok := models.ParseStatus(rawStatus)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", rawStatus))
	}

	student, err := s.find(ctx, studentID)
	if err != nil {
		return "", err
	}
	if actor != nil && !actor.CanAccessDepartment(student.Department) {
		return "", appErrors.Clone(appErrors.ErrForbidden, "student belongs to another department")
	}
	if !student.Status.CanTransition(target) {
		return "", appErrors.Clone(appErrors.ErrIllegalTransition, fmt.Sprintf("cannot move from %s to %s", student.Status, target))
	}
	if target == student.Status {
		return target, nil
	}

	if err := s.repo.UpdateStatus(ctx, studentID, target, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}

	s.invalidateRoster(ctx)
	s.recordAudit(ctx, actor, models.AuditActionStatusChange, studentID,
		[]byte(fmt.Sprintf(`{"status":%q}`, student.Status)),
		[]byte(fmt.Sprintf(`{"status":%q}`, target)),
		clientIP, userAgent)

	if target == models.StatusVerified && s.slips != nil {
		s.slips.Schedule(studentID)
	}

	s.logger.Info("status changed",
		zap.String("student_id", studentID),
		zap.String("from", string(student.Status)),
		zap.String("to", string(target)))
	return target, nil
}

// AttachPhoto stores the intake photo and advances a freshly registered
// student to photo_uploaded. Retakes for later states keep the current
// status.
func (s *StudentService) AttachPhoto(ctx context.Context, studentID, fileName string, size int64, r io.Reader, actor *models.Admin, clientIP, userAgent string) (*dto.StudentView, error) {
	student, err := s.find(ctx, studentID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if ext != "jpg" && ext != "jpeg" && ext != "png" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "photo must be a JPEG or PNG image")
	}
	if size <= 0 || size > 5*1024*1024 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "photo must be between 1 byte and 5MB")
	}

	relPath := fmt.Sprintf("photos/%s.%s", studentID, ext)
	stored, err := s.storage.SaveStream(relPath, r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
	}

	newStatus := student.Status
	if student.Status == models.StatusRegistered {
		newStatus = models.StatusPhotoUploaded
	}
	now := s.now().UTC()
	if err := s.repo.SetPhoto(ctx, studentID, stored, newStatus, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record photo")
	}

	s.invalidateRoster(ctx)
	s.recordAudit(ctx, actor, models.AuditActionPhotoUpload, studentID, nil,
		[]byte(fmt.Sprintf(`{"status":%q}`, newStatus)), clientIP, userAgent)

	student.PhotoPath = &stored
	student.Status = newStatus
	student.UpdatedAt = now
	view := dto.NewStudentView(*student)
	return &view, nil
}

func (s *StudentService) find(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.repo.FindByStudentID(ctx, strings.TrimSpace(studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) invalidateRoster(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "roster:*"); err != nil {
		s.logger.Warn("roster cache invalidation failed", zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, "stats:*"); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func (s *StudentService) recordAudit(ctx context.Context, actor *models.Admin, action, studentID string, oldValues, newValues []byte, clientIP, userAgent string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "student",
		ResourceID: &studentID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  clientIP,
		UserAgent:  userAgent,
	}
	if actor != nil {
		log.ActorID = &actor.ID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
