package console

import (
	"context"
	"strings"
	"sync"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
)

type attendanceAPI interface {
	Students(ctx context.Context, department, search string) ([]dto.StudentSummary, error)
	MarkAttendance(ctx context.Context, studentID string) (*dto.MarkAttendanceResponse, error)
}

// AttendanceDesk is the admission-day check-in counter: search the
// roster, mark a candidate present, move to the next one. Marks are
// only trusted after the server confirms them; there is no optimistic
// update.
type AttendanceDesk struct {
	api attendanceAPI

	mu     sync.Mutex
	rows   []dto.StudentSummary
	search string
}

// NewAttendanceDesk wires the desk to the API client.
func NewAttendanceDesk(api attendanceAPI) *AttendanceDesk {
	return &AttendanceDesk{api: api}
}

// SetSearch installs the free-text filter applied on the next Load.
func (d *AttendanceDesk) SetSearch(query string) {
	d.mu.Lock()
	d.search = strings.TrimSpace(query)
	d.mu.Unlock()
}

// Search returns the active filter.
func (d *AttendanceDesk) Search() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.search
}

// Load fetches the roster with the active search filter applied
// server-side. On failure the previous rows are kept so the desk stays
// usable while the error is shown.
func (d *AttendanceDesk) Load(ctx context.Context) ([]dto.StudentSummary, error) {
	d.mu.Lock()
	search := d.search
	d.mu.Unlock()

	rows, err := d.api.Students(ctx, "", search)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.rows = rows
	d.mu.Unlock()
	return rows, nil
}

// Rows returns the last loaded roster slice.
func (d *AttendanceDesk) Rows() []dto.StudentSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]dto.StudentSummary, len(d.rows))
	copy(out, d.rows)
	return out
}

// CanMark reports whether the row's action is enabled. Already-present
// students keep their row but the button goes dark.
func CanMark(s dto.StudentSummary) bool {
	return s.Attendance != models.AttendancePresent
}

// Mark marks one candidate present. A row already showing present is a
// local no-op; otherwise the server call runs and, once confirmed, the
// search filter is cleared and the roster reloaded so the next
// unprocessed candidate surfaces.
func (d *AttendanceDesk) Mark(ctx context.Context, studentID string) (*dto.MarkAttendanceResponse, error) {
	d.mu.Lock()
	for _, row := range d.rows {
		if row.StudentID == studentID && !CanMark(row) {
			d.mu.Unlock()
			return &dto.MarkAttendanceResponse{
				StudentID:      studentID,
				Attendance:     models.AttendancePresent,
				AlreadyPresent: true,
			}, nil
		}
	}
	d.mu.Unlock()

	res, err := d.api.MarkAttendance(ctx, studentID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.search = ""
	d.mu.Unlock()
	if _, err := d.Load(ctx); err != nil {
		// The mark stuck server-side; only the refresh failed.
		return res, err
	}
	return res, nil
}
