package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	"github.com/campusops/admissions-api/internal/service"
)

type statsServiceMock struct {
	stats    []models.DepartmentStats
	system   *models.SystemMetrics
	lastDept string
}

func (m *statsServiceMock) Overview(ctx context.Context, department string, actor *models.Admin) ([]models.DepartmentStats, *models.SystemMetrics, error) {
	m.lastDept = department
	return m.stats, m.system, nil
}

func TestStatsHandlerDepartmentStats(t *testing.T) {
	svc := &statsServiceMock{
		stats:  []models.DepartmentStats{{Department: "Computer Science", Total: 40, Verified: 12, Present: 20}},
		system: &models.SystemMetrics{Goroutines: 8},
	}
	handler := NewStatsHandler(svc, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/admin/department-stats/Computer%20Science", nil)
	c.Params = gin.Params{{Key: "department", Value: "Computer Science"}}

	handler.DepartmentStats(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Computer Science", svc.lastDept)

	var body dto.DepartmentStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Stats, 1)
	assert.Equal(t, 40, body.Stats[0].Total)
	require.NotNil(t, body.System)
	assert.Equal(t, 8, body.System.Goroutines)
}

type rosterExporterMock struct {
	export     *service.RosterExport
	lastFormat string
}

func (m *rosterExporterMock) Roster(ctx context.Context, format, department string, actor *models.Admin) (*service.RosterExport, error) {
	m.lastFormat = format
	return m.export, nil
}

func TestExportHandlerRosterCSV(t *testing.T) {
	svc := &rosterExporterMock{export: &service.RosterExport{
		Filename:    "admission_roster_all_20260820_090000.csv",
		ContentType: "text/csv",
		Payload:     []byte("Student ID,Full Name\n"),
	}}
	handler := NewExportHandler(svc, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/students/export?format=csv", nil)

	handler.Roster(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", svc.lastFormat)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "admission_roster_all")
	assert.Contains(t, w.Body.String(), "Student ID")
}

func TestExportHandlerRosterDefaultsToCSV(t *testing.T) {
	svc := &rosterExporterMock{export: &service.RosterExport{Filename: "roster.csv", ContentType: "text/csv", Payload: []byte("x")}}
	handler := NewExportHandler(svc, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/students/export", nil)

	handler.Roster(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", svc.lastFormat)
}
