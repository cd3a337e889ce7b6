package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

type attendanceMarkerMock struct {
	resp *dto.MarkAttendanceResponse
	err  error
}

func (m *attendanceMarkerMock) Mark(ctx context.Context, req dto.MarkAttendanceRequest, actor *models.Admin, clientIP, userAgent string) (*dto.MarkAttendanceResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func TestAttendanceHandlerMark(t *testing.T) {
	markedAt := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	svc := &attendanceMarkerMock{resp: &dto.MarkAttendanceResponse{
		StudentID:  "STU2647AC91",
		Attendance: models.AttendancePresent,
		MarkedAt:   &markedAt,
	}}
	handler := NewAttendanceHandler(svc, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/attendance/mark", dto.MarkAttendanceRequest{StudentID: "STU2647AC91"})

	handler.Mark(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.MarkAttendanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "attendance marked", body.Message)
	assert.Equal(t, models.AttendancePresent, body.Attendance)
}

func TestAttendanceHandlerMarkAlreadyPresent(t *testing.T) {
	svc := &attendanceMarkerMock{resp: &dto.MarkAttendanceResponse{
		StudentID:      "STU2647AC91",
		Attendance:     models.AttendancePresent,
		AlreadyPresent: true,
	}}
	handler := NewAttendanceHandler(svc, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/attendance/mark", dto.MarkAttendanceRequest{StudentID: "STU2647AC91"})

	handler.Mark(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.MarkAttendanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "attendance already marked", body.Message)
	assert.True(t, body.AlreadyPresent)
}

func TestAttendanceHandlerMarkUnknownStudent(t *testing.T) {
	svc := &attendanceMarkerMock{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")}
	handler := NewAttendanceHandler(svc, superAdminLoader())

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/attendance/mark", dto.MarkAttendanceRequest{StudentID: "STU00000000"})

	handler.Mark(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
