package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
	"github.com/campusops/admissions-api/pkg/storage"
)

type verificationDocumentRepository interface {
	Checklist(ctx context.Context, studentID string) ([]models.DocumentVerification, error)
	SaveChecklist(ctx context.Context, studentID string, entries []models.DocumentVerification, ts time.Time) (bool, bool, error)
	ListUploads(ctx context.Context, studentID string) ([]models.StudentDocument, error)
}

type verificationStudentRepository interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
}

// VerificationService drives the department console: loading the
// checklist with scan links, saving verification edits, and the bulk
// path. Saving and the advance to verified happen in one transaction
// so the checklist can never be complete while the status lags behind.
type VerificationService struct {
	docs      verificationDocumentRepository
	students  verificationStudentRepository
	audit     registrationAuditor
	slips     slipScheduler
	signer    *storage.SignedURLSigner
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(docs verificationDocumentRepository, students verificationStudentRepository, audit registrationAuditor, slips slipScheduler, signer *storage.SignedURLSigner, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &VerificationService{
		docs:      docs,
		students:  students,
		audit:     audit,
		slips:     slips,
		signer:    signer,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Checklist returns the full document map for a student, every known
// key present, plus download links for the scans that exist. A key
// without a link entry renders as "link not available" in the console.
func (s *VerificationService) Checklist(ctx context.Context, studentID string, actor *models.Admin) (*dto.DocumentChecklist, map[string]string, error) {
	student, err := s.findScoped(ctx, studentID, actor)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.docs.Checklist(ctx, student.StudentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load checklist")
	}

	documents := make(map[string]models.DocumentVerification, len(models.DocumentLabels))
	for _, key := range models.AllDocumentKeys() {
		documents[key] = models.DocumentVerification{Key: key}
	}
	var updatedAt *time.Time
	for _, entry := range entries {
		documents[entry.Key] = entry
		if updatedAt == nil || entry.UpdatedAt.After(*updatedAt) {
			ts := entry.UpdatedAt
			updatedAt = &ts
		}
	}

	links, err := s.buildLinks(ctx, student.StudentID)
	if err != nil {
		s.logger.Warn("failed to build document links", zap.String("student_id", student.StudentID), zap.Error(err))
		links = map[string]string{}
	}

	checklist := &dto.DocumentChecklist{
		StudentID: student.StudentID,
		Documents: documents,
		UpdatedAt: updatedAt,
	}
	return checklist, links, nil
}

// Save persists the console's checklist edits. When every required key
// ends up verified the student advances to verified in the same
// transaction, and a slip render is scheduled.
func (s *VerificationService) Save(ctx context.Context, studentID string, req dto.SaveDocumentsRequest, actor *models.Admin, clientIP, userAgent string) (*dto.SaveDocumentsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid documents payload")
	}

	student, err := s.findScoped(ctx, studentID, actor)
	if err != nil {
		return nil, err
	}

	verifiedBy := strings.TrimSpace(req.DepartmentAdmin)
	if verifiedBy == "" && actor != nil {
		verifiedBy = actor.Username
	}

	now := s.now().UTC()
	entries := make([]models.DocumentVerification, 0, len(req.Documents))
	for _, key := range models.AllDocumentKeys() {
		input, ok := req.Documents[key]
		if !ok {
			continue
		}
		entry := models.DocumentVerification{
			Key:      key,
			Verified: input.Verified,
			Notes:    strings.TrimSpace(input.Notes),
		}
		if input.Verified {
			ts := now
			entry.VerifiedAt = &ts
			entry.VerifiedBy = &verifiedBy
		}
		entries = append(entries, entry)
	}
	if len(entries) != len(req.Documents) {
		for key := range req.Documents {
			if _, known := models.DocumentLabels[key]; !known {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown document key %q", key))
			}
		}
	}

	allRequired, advanced, err := s.docs.SaveChecklist(ctx, student.StudentID, entries, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save checklist")
	}

	status := student.Status
	if advanced {
		status = models.StatusVerified
		if s.slips != nil {
			s.slips.Schedule(student.StudentID)
		}
	}

	s.invalidate(ctx)
	s.recordAudit(ctx, actor, models.AuditActionDocumentsVerify, student.StudentID,
		[]byte(fmt.Sprintf(`{"status":%q}`, student.Status)),
		[]byte(fmt.Sprintf(`{"allRequiredVerified":%t,"status":%q}`, allRequired, status)),
		clientIP, userAgent)

	s.logger.Info("checklist saved",
		zap.String("student_id", student.StudentID),
		zap.Bool("all_required_verified", allRequired),
		zap.Bool("advanced", advanced))

	return &dto.SaveDocumentsResponse{
		AllRequiredDocumentsVerified: allRequired,
		Status:                       status,
	}, nil
}

// BulkVerify marks every required document verified for each listed
// student. Failures are counted, not itemized.
func (s *VerificationService) BulkVerify(ctx context.Context, req dto.BulkVerifyRequest, actor *models.Admin, clientIP, userAgent string) (*dto.BulkVerifyResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk verify payload")
	}

	verifiedBy := strings.TrimSpace(req.VerifiedBy)
	if verifiedBy == "" && actor != nil {
		verifiedBy = actor.Username
	}

	now := s.now().UTC()
	verified, failed := 0, 0
	for _, rawID := range req.StudentIDs {
		studentID := strings.TrimSpace(rawID)
		if studentID == "" {
			failed++
			continue
		}
		student, err := s.findScoped(ctx, studentID, actor)
		if err != nil {
			failed++
			s.logger.Warn("bulk verify skipped student", zap.String("student_id", studentID), zap.Error(err))
			continue
		}

		entries := make([]models.DocumentVerification, 0, len(models.RequiredDocumentKeys))
		for _, key := range models.RequiredDocumentKeys {
			ts := now
			name := verifiedBy
			entries = append(entries, models.DocumentVerification{
				Key:        key,
				Verified:   true,
				VerifiedAt: &ts,
				VerifiedBy: &name,
			})
		}

		_, advanced, err := s.docs.SaveChecklist(ctx, student.StudentID, entries, now)
		if err != nil {
			failed++
			s.logger.Warn("bulk verify failed", zap.String("student_id", studentID), zap.Error(err))
			continue
		}
		if advanced && s.slips != nil {
			s.slips.Schedule(student.StudentID)
		}
		verified++
	}

	s.invalidate(ctx)
	s.recordAudit(ctx, actor, models.AuditActionBulkVerify, "",
		nil, []byte(fmt.Sprintf(`{"verified":%d,"failed":%d}`, verified, failed)),
		clientIP, userAgent)

	return &dto.BulkVerifyResponse{Verified: verified, Failed: failed}, nil
}

func (s *VerificationService) buildLinks(ctx context.Context, studentID string) (map[string]string, error) {
	uploads, err := s.docs.ListUploads(ctx, studentID)
	if err != nil {
		return nil, err
	}

	links := make(map[string]string, len(uploads))
	for _, upload := range uploads {
		token, _, err := s.signer.Generate(studentID, upload.FilePath)
		if err != nil {
			s.logger.Warn("failed to sign document link", zap.String("field", upload.FieldName), zap.Error(err))
			continue
		}
		links[upload.FieldName] = "/api/documents/" + token
	}
	return links, nil
}

func (s *VerificationService) findScoped(ctx context.Context, studentID string, actor *models.Admin) (*models.Student, error) {
	student, err := s.students.FindByStudentID(ctx, strings.TrimSpace(studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if actor != nil && !actor.CanAccessDepartment(student.Department) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student belongs to another department")
	}
	return student, nil
}

func (s *VerificationService) invalidate(ctx context.Context) {
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

func (s *VerificationService) recordAudit(ctx context.Context, actor *models.Admin, action, studentID string, oldValues, newValues []byte, clientIP, userAgent string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:    action,
		Resource:  "student",
		OldValues: oldValues,
		NewValues: newValues,
		IPAddress: clientIP,
		UserAgent: userAgent,
	}
	if studentID != "" {
		log.ResourceID = &studentID
	}
	if actor != nil {
		log.ActorID = &actor.ID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
