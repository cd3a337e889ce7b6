package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
	"github.com/campusops/admissions-api/pkg/jobs"
	"github.com/campusops/admissions-api/pkg/slip"
	"github.com/campusops/admissions-api/pkg/storage"
)

type slipStudentRepository interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	SetSlip(ctx context.Context, studentID, slipPath string, ts time.Time) error
}

type slipChecklistRepository interface {
	Checklist(ctx context.Context, studentID string) ([]models.DocumentVerification, error)
}

type slipVault interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type slipRenderer interface {
	Render(d slip.Details) ([]byte, error)
}

const slipJobType = "slip_generate"

// SlipService renders admission slips and hands out signed download
// links. Slips are pre-rendered on a background queue as soon as a
// student reaches verified, so the queue console usually serves the
// print click from disk.
type SlipService struct {
	students slipStudentRepository
	docs     slipChecklistRepository
	vault    slipVault
	renderer slipRenderer
	signer   *storage.SignedURLSigner
	audit    registrationAuditor
	cache    *CacheService
	metrics  *MetricsService
	queue    *jobs.Queue
	logger   *zap.Logger
	now      func() time.Time
}

// NewSlipService constructs a SlipService with its background queue.
func NewSlipService(students slipStudentRepository, docs slipChecklistRepository, vault slipVault, renderer slipRenderer, signer *storage.SignedURLSigner, audit registrationAuditor, cache *CacheService, metrics *MetricsService, queueCfg jobs.QueueConfig, logger *zap.Logger) *SlipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SlipService{
		students: students,
		docs:     docs,
		vault:    vault,
		renderer: renderer,
		signer:   signer,
		audit:    audit,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
	if queueCfg.Logger == nil {
		queueCfg.Logger = logger
	}
	s.queue = jobs.NewQueue("slips", s.handleJob, queueCfg)
	return s
}

// Start launches the background render workers.
func (s *SlipService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the render workers.
func (s *SlipService) Stop() {
	s.queue.Stop()
}

// Schedule enqueues a background render for a freshly verified student.
// Enqueue failures are logged only; PrintDocument renders on demand
// when no slip exists yet.
func (s *SlipService) Schedule(studentID string) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    slipJobType,
		Payload: studentID,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue slip render", zap.String("student_id", studentID), zap.Error(err))
	}
}

// PrintDocument returns a signed link to the student's admission slip,
// rendering it first when the background queue has not got there yet.
// Students that are not verified cannot print.
func (s *SlipService) PrintDocument(ctx context.Context, studentID string, actor *models.Admin, clientIP, userAgent string) (*dto.PrintDocumentResponse, error) {
	student, err := s.find(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if actor != nil && !actor.CanAccessDepartment(student.Department) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student belongs to another department")
	}
	if student.Status != models.StatusVerified {
		return nil, appErrors.Clone(appErrors.ErrConflict, "admission slip is available once documents are verified")
	}

	if student.SlipPath != nil && *student.SlipPath != "" {
		if file, err := s.vault.Open(*student.SlipPath); err == nil {
			file.Close() //nolint:errcheck
			url, err := s.signedURL(student.StudentID, *student.SlipPath)
			if err != nil {
				return nil, err
			}
			return &dto.PrintDocumentResponse{DocumentURL: url, Action: dto.SlipActionOpenExisting}, nil
		}
		s.logger.Warn("recorded slip missing on disk, re-rendering", zap.String("student_id", student.StudentID))
	}

	stored, err := s.generate(ctx, student)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, student.StudentID, clientIP, userAgent)
	s.invalidate(ctx)

	url, err := s.signedURL(student.StudentID, stored)
	if err != nil {
		return nil, err
	}
	return &dto.PrintDocumentResponse{DocumentURL: url, Action: dto.SlipActionOpenNew}, nil
}

// ResolveDownload validates a signed token and opens the file it
// references. The caller owns the returned handle.
func (s *SlipService) ResolveDownload(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "download link is invalid or expired")
	}
	file, err := s.vault.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	return file, relPath, nil
}

func (s *SlipService) handleJob(ctx context.Context, job jobs.Job) error {
	studentID, ok := job.Payload.(string)
	if !ok || studentID == "" {
		s.logger.Error("slip job with invalid payload", zap.String("job_id", job.ID))
		return nil
	}

	student, err := s.find(ctx, studentID)
	if err != nil {
		return err
	}
	if student.Status != models.StatusVerified {
		// Status moved back between scheduling and pickup. Nothing to do.
		return nil
	}
	if student.SlipPath != nil && *student.SlipPath != "" {
		if file, err := s.vault.Open(*student.SlipPath); err == nil {
			file.Close() //nolint:errcheck
			return nil
		}
	}
	if _, err := s.generate(ctx, student); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// generate renders the slip, stores it, and records the path.
func (s *SlipService) generate(ctx context.Context, student *models.Student) (string, error) {
	checklist, err := s.docs.Checklist(ctx, student.StudentID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load checklist")
	}

	verifiedByKey := make(map[string]models.DocumentVerification, len(checklist))
	verifiedBy := ""
	for _, entry := range checklist {
		verifiedByKey[entry.Key] = entry
		if entry.Verified && entry.VerifiedBy != nil && *entry.VerifiedBy != "" {
			verifiedBy = *entry.VerifiedBy
		}
	}

	lines := make([]slip.DocumentLine, 0, len(models.DocumentLabels))
	for _, key := range models.AllDocumentKeys() {
		lines = append(lines, slip.DocumentLine{
			Label:     models.DocumentLabels[key],
			Collected: verifiedByKey[key].Verified,
		})
	}

	now := s.now().UTC()
	payload, err := s.renderer.Render(slip.Details{
		StudentID:         student.StudentID,
		StudentName:       student.FullName,
		ParentName:        student.ParentName,
		ApplicationNumber: student.ApplicationNumber,
		Department:        student.Department,
		ProgramName:       student.ProgramName,
		AdmissionType:     student.AdmissionType,
		RegistrationDate:  student.CreatedAt,
		VerifiedBy:        verifiedBy,
		Documents:         lines,
		GeneratedAt:       now,
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render admission slip")
	}

	relPath := fmt.Sprintf("slips/%s.pdf", student.StudentID)
	stored, err := s.vault.Save(relPath, payload)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store admission slip")
	}
	if err := s.students.SetSlip(ctx, student.StudentID, stored, now); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record admission slip")
	}

	if s.metrics != nil {
		s.metrics.RecordSlipGenerated()
	}
	s.logger.Info("admission slip rendered", zap.String("student_id", student.StudentID), zap.String("path", stored))
	return stored, nil
}

func (s *SlipService) signedURL(studentID, relPath string) (string, error) {
	token, _, err := s.signer.Generate(studentID, relPath)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return "/api/documents/" + token, nil
}

func (s *SlipService) find(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.students.FindByStudentID(ctx, strings.TrimSpace(studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *SlipService) invalidate(ctx context.Context) {
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

func (s *SlipService) recordAudit(ctx context.Context, actor *models.Admin, studentID, clientIP, userAgent string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     models.AuditActionSlipGenerate,
		Resource:   "student",
		ResourceID: &studentID,
		NewValues:  []byte(fmt.Sprintf(`{"studentId":%q}`, studentID)),
		IPAddress:  clientIP,
		UserAgent:  userAgent,
	}
	if actor != nil {
		log.ActorID = &actor.ID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", models.AuditActionSlipGenerate), zap.Error(err))
	}
}
