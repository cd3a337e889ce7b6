package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

type attendanceStudentRepository interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	MarkAttendance(ctx context.Context, studentID string, ts time.Time) (bool, error)
}

// AttendanceService marks candidates present at the admission desk.
// Marking is one-way: there is no un-mark operation.
type AttendanceService struct {
	repo   attendanceStudentRepository
	audit  registrationAuditor
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceStudentRepository, audit registrationAuditor, cache *CacheService, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, audit: audit, cache: cache, logger: logger, now: time.Now}
}

// Mark flips a student to present. Re-marking an already present
// student succeeds and reports AlreadyPresent instead of failing, so
// redundant desk clicks stay harmless.
func (s *AttendanceService) Mark(ctx context.Context, req dto.MarkAttendanceRequest, actor *models.Admin, clientIP, userAgent string) (*dto.MarkAttendanceResponse, error) {
	studentID := strings.TrimSpace(req.StudentID)
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}

	student, err := s.repo.FindByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	now := s.now().UTC()
	changed, err := s.repo.MarkAttendance(ctx, studentID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}

	markedAt := student.AttendanceMarkedAt
	if changed {
		markedAt = &now
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx, "roster:*"); err != nil {
				s.logger.Warn("roster cache invalidation failed", zap.Error(err))
			}
		}
		if s.audit != nil {
			log := &models.AuditLog{
				Action:     models.AuditActionAttendanceMark,
				Resource:   "student",
				ResourceID: &student.StudentID,
				NewValues:  []byte(`{"attendance":"present"}`),
				IPAddress:  clientIP,
				UserAgent:  userAgent,
			}
			if actor != nil {
				log.ActorID = &actor.ID
			}
			if err := s.audit.CreateAuditLog(ctx, log); err != nil {
				s.logger.Warn("failed to record attendance audit log", zap.Error(err))
			}
		}
		s.logger.Info("attendance marked", zap.String("student_id", studentID))
	}

	return &dto.MarkAttendanceResponse{
		StudentID:      studentID,
		Attendance:     models.AttendancePresent,
		AlreadyPresent: !changed,
		MarkedAt:       markedAt,
	}, nil
}
