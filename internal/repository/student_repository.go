package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/admissions-api/internal/models"
)

const studentColumns = `id, student_id, application_number, full_name, gender, date_of_birth, email,
        student_phone, parent_phone, parent_name, parent_phone_verified, department, department_key,
        program_name, admission_type, status, attendance, attendance_marked_at, photo_path, slip_path,
        slip_generated_at, uploaded_count, failed_count, profile, created_at, updated_at`

// StudentRepository provides database access for admission records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the filter in registration order.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	baseQuery := fmt.Sprintf("SELECT %s FROM students WHERE 1=1", studentColumns)
	var conditions []string
	var args []interface{}

	if filter.DepartmentKey != "" {
		conditions = append(conditions, fmt.Sprintf("department_key = $%d", len(args)+1))
		args = append(args, filter.DepartmentKey)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(student_id) LIKE $%d OR LOWER(application_number) LIKE $%d OR LOWER(email) LIKE $%d OR student_phone LIKE $%d OR LOWER(department) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1, len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.ExcludeVerified {
		conditions = append(conditions, fmt.Sprintf("status <> $%d", len(args)+1))
		args = append(args, models.StatusVerified)
	}
	if filter.PendingOnly {
		conditions = append(conditions, fmt.Sprintf("status = $%d AND attendance = $%d", len(args)+1, len(args)+2))
		args = append(args, models.StatusPhotoUploaded, models.AttendancePresent)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at ASC"

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, baseQuery, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByStudentID returns the record carrying the given public student id.
func (r *StudentRepository) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE student_id = $1 LIMIT 1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// ExistsByStudentID reports whether the public student id is already taken.
func (r *StudentRepository) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT id FROM students WHERE student_id = $1 LIMIT 1`
	var id string
	if err := r.db.GetContext(ctx, &id, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student id: %w", err)
	}
	return true, nil
}

// ExistsByEmail reports whether a student registered with the email already.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT id FROM students WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var id string
	if err := r.db.GetContext(ctx, &id, query, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student email: %w", err)
	}
	return true, nil
}

// ExistsByApplicationNumber reports whether the application number was used before.
func (r *StudentRepository) ExistsByApplicationNumber(ctx context.Context, applicationNumber string) (bool, error) {
	const query = `SELECT id FROM students WHERE application_number = $1 LIMIT 1`
	var id string
	if err := r.db.GetContext(ctx, &id, query, applicationNumber); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check application number: %w", err)
	}
	return true, nil
}

// CreateWithDocuments inserts the student and the uploaded document rows
// in one transaction so a failed upload never leaves a half-registered
// record behind.
func (r *StudentRepository) CreateWithDocuments(ctx context.Context, student *models.Student, docs []models.StudentDocument) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const insertStudent = `INSERT INTO students (id, student_id, application_number, full_name, gender, date_of_birth, email,
        student_phone, parent_phone, parent_name, parent_phone_verified, department, department_key,
        program_name, admission_type, status, attendance, attendance_marked_at, photo_path, slip_path,
        slip_generated_at, uploaded_count, failed_count, profile, created_at, updated_at)
        VALUES (:id, :student_id, :application_number, :full_name, :gender, :date_of_birth, :email,
        :student_phone, :parent_phone, :parent_name, :parent_phone_verified, :department, :department_key,
        :program_name, :admission_type, :status, :attendance, :attendance_marked_at, :photo_path, :slip_path,
        :slip_generated_at, :uploaded_count, :failed_count, :profile, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertStudent, student); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}

	const insertDocument = `INSERT INTO student_documents (id, student_id, field_name, file_name, file_path, size_bytes, content_type, uploaded_at)
        VALUES (:id, :student_id, :field_name, :file_name, :file_path, :size_bytes, :content_type, :uploaded_at)`
	for i := range docs {
		doc := &docs[i]
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		doc.StudentID = student.StudentID
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insertDocument, doc); err != nil {
			return fmt.Errorf("insert student document %s: %w", doc.FieldName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration tx: %w", err)
	}
	commit = true
	return nil
}

// UpdateStatus sets the lifecycle status.
func (r *StudentRepository) UpdateStatus(ctx context.Context, studentID string, status models.StudentStatus, ts time.Time) error {
	const query = `UPDATE students SET status = $2, updated_at = $3 WHERE student_id = $1`
	res, err := r.db.ExecContext(ctx, query, studentID, status, ts)
	if err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetPhoto records the stored photo path together with the new status.
func (r *StudentRepository) SetPhoto(ctx context.Context, studentID, photoPath string, status models.StudentStatus, ts time.Time) error {
	const query = `UPDATE students SET photo_path = $2, status = $3, updated_at = $4 WHERE student_id = $1`
	res, err := r.db.ExecContext(ctx, query, studentID, photoPath, status, ts)
	if err != nil {
		return fmt.Errorf("set student photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set student photo: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetSlip records the generated admission slip path.
func (r *StudentRepository) SetSlip(ctx context.Context, studentID, slipPath string, ts time.Time) error {
	const query = `UPDATE students SET slip_path = $2, slip_generated_at = $3, updated_at = $3 WHERE student_id = $1`
	res, err := r.db.ExecContext(ctx, query, studentID, slipPath, ts)
	if err != nil {
		return fmt.Errorf("set student slip: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set student slip: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAttendance flips the student to present. The update is a no-op
// when the student is already present; the boolean reports whether the
// row actually changed.
func (r *StudentRepository) MarkAttendance(ctx context.Context, studentID string, ts time.Time) (bool, error) {
	const query = `UPDATE students SET attendance = $2, attendance_marked_at = $3, updated_at = $3 WHERE student_id = $1 AND attendance <> $2`
	res, err := r.db.ExecContext(ctx, query, studentID, models.AttendancePresent, ts)
	if err != nil {
		return false, fmt.Errorf("mark attendance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark attendance: %w", err)
	}
	return affected > 0, nil
}

// DistinctDepartments returns the departments that have at least one
// registered student, sorted alphabetically.
func (r *StudentRepository) DistinctDepartments(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT department FROM students WHERE department <> '' ORDER BY department ASC`
	var departments []string
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("distinct departments: %w", err)
	}
	return departments, nil
}

// Stats aggregates admission progress per department. An empty
// departmentKey returns every department.
func (r *StudentRepository) Stats(ctx context.Context, departmentKey string) ([]models.DepartmentStats, error) {
	query := `SELECT department,
        COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'registered') AS registered,
        COUNT(*) FILTER (WHERE status = 'photo_uploaded') AS photo_uploaded,
        COUNT(*) FILTER (WHERE status = 'verified') AS verified,
        COUNT(*) FILTER (WHERE attendance = 'present') AS present,
        COUNT(*) FILTER (WHERE slip_path IS NOT NULL) AS slips_generated
        FROM students`
	var args []interface{}
	if departmentKey != "" {
		query += " WHERE department_key = $1"
		args = append(args, departmentKey)
	}
	query += " GROUP BY department ORDER BY department ASC"

	var stats []models.DepartmentStats
	if err := r.db.SelectContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("department stats: %w", err)
	}
	return stats, nil
}
