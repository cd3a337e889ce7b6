package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/admissions-api/internal/models"
)

// DocumentRepository provides database access for the verification
// checklist and the files uploaded during registration.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new instance of DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Checklist returns every verification row recorded for the student.
func (r *DocumentRepository) Checklist(ctx context.Context, studentID string) ([]models.DocumentVerification, error) {
	const query = `SELECT id, student_id, doc_key, verified, notes, verified_at, verified_by, updated_at
        FROM document_verifications WHERE student_id = $1 ORDER BY doc_key ASC`
	var entries []models.DocumentVerification
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("load checklist: %w", err)
	}
	return entries, nil
}

// SaveChecklist upserts the given entries and, when every required
// document ends up verified, advances the student from photo_uploaded
// to verified inside the same transaction. It returns whether the full
// required set is verified and whether the status row changed.
func (r *DocumentRepository) SaveChecklist(ctx context.Context, studentID string, entries []models.DocumentVerification, ts time.Time) (bool, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("begin checklist tx: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const upsert = `INSERT INTO document_verifications (id, student_id, doc_key, verified, notes, verified_at, verified_by, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (student_id, doc_key) DO UPDATE SET
        verified = EXCLUDED.verified, notes = EXCLUDED.notes,
        verified_at = EXCLUDED.verified_at, verified_by = EXCLUDED.verified_by,
        updated_at = EXCLUDED.updated_at`
	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.StudentID = studentID
		entry.UpdatedAt = ts
		if _, err := tx.ExecContext(ctx, upsert, entry.ID, entry.StudentID, entry.Key, entry.Verified, entry.Notes, entry.VerifiedAt, entry.VerifiedBy, entry.UpdatedAt); err != nil {
			return false, false, fmt.Errorf("upsert checklist %s: %w", entry.Key, err)
		}
	}

	const readBack = `SELECT doc_key, verified FROM document_verifications WHERE student_id = $1`
	rows, err := tx.QueryxContext(ctx, readBack, studentID)
	if err != nil {
		return false, false, fmt.Errorf("read back checklist: %w", err)
	}
	verified := make(map[string]models.DocumentVerification)
	for rows.Next() {
		var key string
		var ok bool
		if err := rows.Scan(&key, &ok); err != nil {
			rows.Close()
			return false, false, fmt.Errorf("scan checklist row: %w", err)
		}
		verified[key] = models.DocumentVerification{Key: key, Verified: ok}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, false, fmt.Errorf("iterate checklist rows: %w", err)
	}

	allRequired := models.RequiredComplete(verified)
	advanced := false
	if allRequired {
		const advance = `UPDATE students SET status = $2, updated_at = $3 WHERE student_id = $1 AND status = $4`
		res, err := tx.ExecContext(ctx, advance, studentID, models.StatusVerified, ts, models.StatusPhotoUploaded)
		if err != nil {
			return false, false, fmt.Errorf("advance student status: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return false, false, fmt.Errorf("advance student status: %w", err)
		}
		advanced = affected > 0
	}

	if err := tx.Commit(); err != nil {
		return false, false, fmt.Errorf("commit checklist tx: %w", err)
	}
	commit = true
	return allRequired, advanced, nil
}

// ListUploads returns the files stored for a student during registration.
func (r *DocumentRepository) ListUploads(ctx context.Context, studentID string) ([]models.StudentDocument, error) {
	const query = `SELECT id, student_id, field_name, file_name, file_path, size_bytes, content_type, uploaded_at
        FROM student_documents WHERE student_id = $1 ORDER BY field_name ASC`
	var docs []models.StudentDocument
	if err := r.db.SelectContext(ctx, &docs, query, studentID); err != nil {
		return nil, fmt.Errorf("list student documents: %w", err)
	}
	return docs, nil
}

// FindUpload returns one uploaded file by its form field name.
func (r *DocumentRepository) FindUpload(ctx context.Context, studentID, fieldName string) (*models.StudentDocument, error) {
	const query = `SELECT id, student_id, field_name, file_name, file_path, size_bytes, content_type, uploaded_at
        FROM student_documents WHERE student_id = $1 AND field_name = $2 LIMIT 1`
	var doc models.StudentDocument
	if err := r.db.GetContext(ctx, &doc, query, studentID, fieldName); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student document: %w", err)
	}
	return &doc, nil
}
