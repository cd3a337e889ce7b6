package console

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	"github.com/campusops/admissions-api/pkg/response"
)

type fakeAttendanceAPI struct {
	rows       []dto.StudentSummary
	listErr    error
	markErr    error
	marked     []string
	lastSearch string
	listCalls  int
}

func (f *fakeAttendanceAPI) Students(ctx context.Context, department, search string) ([]dto.StudentSummary, error) {
	f.listCalls++
	f.lastSearch = search
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rows, nil
}

func (f *fakeAttendanceAPI) MarkAttendance(ctx context.Context, studentID string) (*dto.MarkAttendanceResponse, error) {
	if f.markErr != nil {
		return nil, f.markErr
	}
	f.marked = append(f.marked, studentID)
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	return &dto.MarkAttendanceResponse{
		Base:       response.OK(),
		StudentID:  studentID,
		Attendance: models.AttendancePresent,
		MarkedAt:   &now,
	}, nil
}

func deskRows() []dto.StudentSummary {
	base := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	return []dto.StudentSummary{
		summary("STU1", models.StatusPhotoUploaded, models.AttendanceAbsent, base),
		summary("STU2", models.StatusPhotoUploaded, models.AttendancePresent, base),
	}
}

func TestAttendanceLoadPassesSearchToServer(t *testing.T) {
	api := &fakeAttendanceAPI{rows: deskRows()}
	desk := NewAttendanceDesk(api)
	desk.SetSearch("  ananya  ")

	rows, err := desk.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "ananya", api.lastSearch)
}

func TestAttendanceLoadFailureKeepsRows(t *testing.T) {
	api := &fakeAttendanceAPI{rows: deskRows()}
	desk := NewAttendanceDesk(api)
	_, err := desk.Load(context.Background())
	require.NoError(t, err)

	api.listErr = errors.New("connection refused")
	_, err = desk.Load(context.Background())
	require.Error(t, err)
	assert.Len(t, desk.Rows(), 2, "stale rows stay on screen while the error shows")
}

func TestCanMarkDisabledForPresent(t *testing.T) {
	rows := deskRows()
	assert.True(t, CanMark(rows[0]))
	assert.False(t, CanMark(rows[1]))
}

func TestMarkClearsSearchAndReloads(t *testing.T) {
	api := &fakeAttendanceAPI{rows: deskRows()}
	desk := NewAttendanceDesk(api)
	desk.SetSearch("STU1")
	_, err := desk.Load(context.Background())
	require.NoError(t, err)
	loadsBefore := api.listCalls

	res, err := desk.Mark(context.Background(), "STU1")
	require.NoError(t, err)
	assert.False(t, res.AlreadyPresent)
	assert.Equal(t, []string{"STU1"}, api.marked)
	// The filter resets so the next unprocessed candidate surfaces.
	assert.Empty(t, desk.Search())
	assert.Equal(t, loadsBefore+1, api.listCalls)
	assert.Empty(t, api.lastSearch)
}

func TestMarkAlreadyPresentIsLocalNoop(t *testing.T) {
	api := &fakeAttendanceAPI{rows: deskRows()}
	desk := NewAttendanceDesk(api)
	_, err := desk.Load(context.Background())
	require.NoError(t, err)

	res, err := desk.Mark(context.Background(), "STU2")
	require.NoError(t, err)
	assert.True(t, res.AlreadyPresent)
	assert.Empty(t, api.marked, "no server call for an already-present row")
}

func TestMarkFailureIsRetryable(t *testing.T) {
	api := &fakeAttendanceAPI{rows: deskRows(), markErr: errors.New("timeout")}
	desk := NewAttendanceDesk(api)
	desk.SetSearch("STU1")
	_, err := desk.Load(context.Background())
	require.NoError(t, err)

	_, err = desk.Mark(context.Background(), "STU1")
	require.Error(t, err)
	// No optimistic update: the search filter survives for the retry.
	assert.Equal(t, "STU1", desk.Search())

	api.markErr = nil
	res, err := desk.Mark(context.Background(), "STU1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, res.Attendance)
}
