package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/admissions-api/internal/models"
)

func newAdminMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAdminRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newAdminMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "full_name", "role", "department", "active", "last_login", "created_at", "updated_at"}).
		AddRow("adm-1", "csadmin", "$2a$10$hash", "CS Admin", "department_admin", "Computer Science", true, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash")).
		WithArgs("csadmin").
		WillReturnRows(rows)

	admin, err := repo.FindByUsername(context.Background(), "csadmin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleDepartmentAdmin, admin.Role)
	assert.Equal(t, "Computer Science", admin.Department)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAdminMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectExec("INSERT INTO admins").
		WillReturnResult(sqlmock.NewResult(1, 1))

	admin := &models.Admin{Username: "registrar", PasswordHash: "$2a$10$hash", FullName: "Registrar", Role: models.RoleSuperAdmin, Active: true}
	require.NoError(t, repo.Create(context.Background(), admin))
	assert.NotEmpty(t, admin.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newAdminMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	actor := "adm-1"
	log := &models.AuditLog{
		ActorID:   &actor,
		Action:    models.AuditActionDocumentsVerify,
		Resource:  "student",
		IPAddress: "10.0.0.1",
		UserAgent: "console",
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), log))
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
