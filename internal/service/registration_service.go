package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

type registrationStudentRepository interface {
	ExistsByStudentID(ctx context.Context, studentID string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByApplicationNumber(ctx context.Context, applicationNumber string) (bool, error)
	CreateWithDocuments(ctx context.Context, student *models.Student, docs []models.StudentDocument) error
}

type registrationOTPChecker interface {
	IsVerified(ctx context.Context, phone string) (bool, error)
}

type registrationAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type uploadStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// RegistrationConfig tunes upload acceptance and the verification
// fallback for desks operating without SMS coverage.
type RegistrationConfig struct {
	MaxFileSizeBytes        int64
	AllowedExtensions       []string
	AllowUnverifiedFallback bool
}

// RegistrationService turns a submitted registration aggregate into a
// student record plus stored document files.
type RegistrationService struct {
	students   registrationStudentRepository
	otp        registrationOTPChecker
	audit      registrationAuditor
	storage    uploadStorage
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        RegistrationConfig
	allowedExt map[string]string
	now        func() time.Time
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(students registrationStudentRepository, otp registrationOTPChecker, audit registrationAuditor, storage uploadStorage, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg RegistrationConfig) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 5 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{"jpg", "jpeg", "png", "pdf"}
	}

	allowed := make(map[string]string, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		switch ext {
		case "jpg", "jpeg":
			allowed[ext] = "image/jpeg"
		case "png":
			allowed[ext] = "image/png"
		case "pdf":
			allowed[ext] = "application/pdf"
		default:
			allowed[ext] = "application/octet-stream"
		}
	}

	return &RegistrationService{
		students:   students,
		otp:        otp,
		audit:      audit,
		storage:    storage,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		allowedExt: allowed,
		now:        time.Now,
	}
}

// Register validates and persists a full registration submission,
// returning the receipt the desk keeps for the student.
func (s *RegistrationService) Register(ctx context.Context, req *dto.RegistrationRequest, clientIP, userAgent string) (*dto.RegistrationResponse, error) {
	if err := s.validateSubmission(req); err != nil {
		return nil, err
	}

	parentPhone := strings.TrimSpace(req.ParentContactNo)
	verified, err := s.otp.IsVerified(ctx, parentPhone)
	if err != nil {
		s.logger.Warn("parent verification lookup failed", zap.Error(err))
	}
	if !verified {
		if s.cfg.AllowUnverifiedFallback && req.ParentVerified {
			s.logger.Warn("accepting client-attested parent verification", zap.String("phone", maskPhone(parentPhone)))
		} else {
			return nil, appErrors.Clone(appErrors.ErrValidation, "parent phone number is not verified")
		}
	}

	email := strings.TrimSpace(req.StudentEmail)
	if taken, err := s.students.ExistsByEmail(ctx, email); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	} else if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this email is already registered")
	}

	application := strings.TrimSpace(req.JUApplication)
	if taken, err := s.students.ExistsByApplicationNumber(ctx, application); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check application number")
	} else if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "application number already registered")
	}

	studentID, err := s.generateStudentID(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign student id")
	}

	docs, uploaded, failed := s.storeDocuments(studentID, req.Documents)

	profileReq := *req
	profileReq.Documents = nil
	profile, err := json.Marshal(profileReq)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive registration form")
	}

	now := s.now().UTC()
	department := strings.TrimSpace(req.Department)
	student := &models.Student{
		StudentID:           studentID,
		ApplicationNumber:   application,
		FullName:            strings.TrimSpace(req.StudentFullName),
		Gender:              strings.TrimSpace(req.Gender),
		DateOfBirth:         strings.TrimSpace(req.DateOfBirth),
		Email:               email,
		StudentPhone:        strings.TrimSpace(req.StudentContactNo),
		ParentPhone:         parentPhone,
		ParentName:          strings.TrimSpace(req.FatherName),
		ParentPhoneVerified: verified || req.ParentVerified,
		Department:          department,
		DepartmentKey:       models.NormalizeDepartment(department),
		ProgramName:         strings.TrimSpace(req.ProgramName),
		AdmissionType:       strings.TrimSpace(req.AdmissionType),
		Status:              models.StatusRegistered,
		Attendance:          models.AttendanceAbsent,
		UploadedCount:       uploaded,
		FailedCount:         failed,
		Profile:             profile,
		CreatedAt:           now,
	}

	if err := s.students.CreateWithDocuments(ctx, student, docs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store registration")
	}

	s.metrics.RecordRegistration()
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "roster:*"); err != nil {
			s.logger.Warn("roster cache invalidation failed", zap.Error(err))
		}
	}
	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			Action:     models.AuditActionRegister,
			Resource:   "student",
			ResourceID: &student.StudentID,
			NewValues:  []byte(fmt.Sprintf(`{"studentId":%q,"department":%q}`, student.StudentID, department)),
			IPAddress:  clientIP,
			UserAgent:  userAgent,
		}); err != nil {
			s.logger.Warn("failed to record registration audit log", zap.Error(err))
		}
	}

	s.logger.Info("student registered",
		zap.String("student_id", studentID),
		zap.String("department", department),
		zap.Int("documents_uploaded", uploaded),
		zap.Int("documents_failed", failed))

	summary := dto.DocumentUploadSummary{UploadedCount: uploaded, FailedCount: failed}
	receipt := dto.RegistrationReceipt{
		Name:             student.FullName,
		StudentID:        studentID,
		JUApplication:    application,
		Department:       department,
		Status:           string(models.StatusRegistered),
		RegistrationDate: now.Format("2006-01-02"),
		DocumentUpload:   summary,
	}
	return &dto.RegistrationResponse{
		StudentID:      studentID,
		JUApplication:  application,
		Data:           receipt,
		DocumentUpload: summary,
	}, nil
}

// requiredSubmissionFields maps form fields to the labels surfaced in
// the aggregated validation message.
var requiredSubmissionFields = []struct {
	label string
	value func(*dto.RegistrationRequest) string
}{
	{"Full Name", func(r *dto.RegistrationRequest) string { return r.StudentFullName }},
	{"Gender", func(r *dto.RegistrationRequest) string { return r.Gender }},
	{"Date of Birth", func(r *dto.RegistrationRequest) string { return r.DateOfBirth }},
	{"Student Contact Number", func(r *dto.RegistrationRequest) string { return r.StudentContactNo }},
	{"Student Email", func(r *dto.RegistrationRequest) string { return r.StudentEmail }},
	{"Parent Contact Number", func(r *dto.RegistrationRequest) string { return r.ParentContactNo }},
	{"Correspondence Address", func(r *dto.RegistrationRequest) string { return r.CorrespondenceAddress }},
	{"Department", func(r *dto.RegistrationRequest) string { return r.Department }},
	{"Program Name", func(r *dto.RegistrationRequest) string { return r.ProgramName }},
	{"Admission Type", func(r *dto.RegistrationRequest) string { return r.AdmissionType }},
	{"JU Application Number", func(r *dto.RegistrationRequest) string { return r.JUApplication }},
}

func (s *RegistrationService) validateSubmission(req *dto.RegistrationRequest) error {
	var missing []string
	for _, field := range requiredSubmissionFields {
		if strings.TrimSpace(field.value(req)) == "" {
			missing = append(missing, field.label)
		}
	}
	if len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, "missing required fields: "+strings.Join(missing, ", "))
	}

	if err := s.validator.Var(strings.TrimSpace(req.StudentEmail), "required,email"); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid email address")
	}
	if !models.ValidPhone(strings.TrimSpace(req.StudentContactNo)) {
		return appErrors.Clone(appErrors.ErrValidation, "student contact number must be a valid 10-digit mobile number")
	}
	if !models.ValidPhone(strings.TrimSpace(req.ParentContactNo)) {
		return appErrors.Clone(appErrors.ErrValidation, "parent contact number must be a valid 10-digit mobile number")
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(req.DateOfBirth)); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "date of birth must be in YYYY-MM-DD format")
	}
	if err := validPercentage(req.TenthPercentage); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "10th percentage must be between 0 and 100")
	}
	if err := validPercentage(req.TwelfthPercentage); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "12th percentage must be between 0 and 100")
	}
	return nil
}

func validPercentage(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 || value > 100 {
		return fmt.Errorf("percentage out of range: %s", raw)
	}
	return nil
}

// storeDocuments persists the staged uploads that pass the size and
// extension gates. A bad file never fails the registration, it only
// increments the failed counter.
func (s *RegistrationService) storeDocuments(studentID string, staged map[string]dto.RegistrationDocument) ([]models.StudentDocument, int, int) {
	var docs []models.StudentDocument
	uploaded, failed := 0, 0

	for _, field := range models.UploadFields {
		doc, ok := staged[field]
		if !ok {
			continue
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(doc.FileName), "."))
		contentType, allowed := s.allowedExt[ext]
		if !allowed {
			failed++
			s.logger.Warn("rejected upload extension", zap.String("field", field), zap.String("file", doc.FileName))
			continue
		}
		if len(doc.FileData) == 0 || int64(len(doc.FileData)) > s.cfg.MaxFileSizeBytes {
			failed++
			s.logger.Warn("rejected upload size", zap.String("field", field), zap.Int("bytes", len(doc.FileData)))
			continue
		}

		relPath := fmt.Sprintf("documents/%s/%s.%s", studentID, field, ext)
		stored, err := s.storage.SaveStream(relPath, bytes.NewReader(doc.FileData))
		if err != nil {
			failed++
			s.logger.Warn("failed to store upload", zap.String("field", field), zap.Error(err))
			continue
		}

		docs = append(docs, models.StudentDocument{
			FieldName:   field,
			FileName:    filepath.Base(doc.FileName),
			FilePath:    stored,
			SizeBytes:   int64(len(doc.FileData)),
			ContentType: contentType,
		})
		uploaded++
	}

	// Staged fields outside the known set are counted, not stored.
	for field := range staged {
		if !knownUploadField(field) {
			failed++
			s.logger.Warn("unknown upload field", zap.String("field", field))
		}
	}

	return docs, uploaded, failed
}

func knownUploadField(field string) bool {
	for _, known := range models.UploadFields {
		if known == field {
			return true
		}
	}
	return false
}

func (s *RegistrationService) generateStudentID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		id, err := buildStudentID()
		if err != nil {
			return "", err
		}
		taken, err := s.students.ExistsByStudentID(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("student id collisions exhausted retries")
}

// buildStudentID emits the public candidate ID: "STU" plus 8 uppercase
// hex characters, the same shape the legacy backend issued.
func buildStudentID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("STU%X", buf), nil
}
