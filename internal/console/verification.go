package console

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
)

type verificationAPI interface {
	PendingVerification(ctx context.Context, department string) ([]dto.StudentSummary, error)
	Documents(ctx context.Context, studentID string) (*dto.DocumentsResponse, error)
	SaveDocuments(ctx context.Context, studentID string, req dto.SaveDocumentsRequest) (*dto.SaveDocumentsResponse, error)
	UpdateStatus(ctx context.Context, studentID, status string) (*dto.StatusUpdateResponse, error)
	BulkVerify(ctx context.Context, req dto.BulkVerifyRequest) (*dto.BulkVerifyResponse, error)
	PrintDocument(ctx context.Context, studentID string) (*dto.PrintDocumentResponse, error)
}

// Actionable reports whether a student belongs in the console's working
// queue: photo taken and physically present at the desk.
func Actionable(s dto.StudentSummary) bool {
	return s.Status == models.StatusPhotoUploaded && s.Attendance == models.AttendancePresent
}

// ChecklistRow is one checklist entry prepared for display.
type ChecklistRow struct {
	Key      string
	Label    string
	Required bool
	Verified bool
	Notes    string
	// Link is the signed download URL of the uploaded scan.
	// LinkAvailable is false when no scan exists for the key, in which
	// case the console shows "link not available" instead of a dead link.
	Link          string
	LinkAvailable bool
}

// Worksheet holds the checklist of one opened student while the officer
// works through it. Edits stay local until Save.
type Worksheet struct {
	StudentID string
	Status    models.StudentStatus
	entries   map[string]dto.DocumentEntryInput
	links     map[string]string
	loaded    bool
}

// Rows lays the checklist out in display order: required keys first.
func (w *Worksheet) Rows() []ChecklistRow {
	rows := make([]ChecklistRow, 0, len(models.RequiredDocumentKeys)+len(models.OptionalDocumentKeys))
	appendRows := func(keys []string, required bool) {
		for _, key := range keys {
			entry := w.entries[key]
			row := ChecklistRow{
				Key:      key,
				Label:    models.DocumentLabels[key],
				Required: required,
				Verified: entry.Verified,
				Notes:    entry.Notes,
			}
			if field, ok := models.UploadFieldForKey[key]; ok {
				if link, ok := w.links[field]; ok {
					row.Link = link
					row.LinkAvailable = true
				}
			}
			rows = append(rows, row)
		}
	}
	appendRows(models.RequiredDocumentKeys, true)
	appendRows(models.OptionalDocumentKeys, false)
	return rows
}

// SetVerified toggles one checklist entry.
func (w *Worksheet) SetVerified(key string, verified bool) {
	entry := w.entries[key]
	entry.Verified = verified
	w.entries[key] = entry
}

// SetNotes records the officer's remark on one entry.
func (w *Worksheet) SetNotes(key, notes string) {
	entry := w.entries[key]
	entry.Notes = notes
	w.entries[key] = entry
}

// RequiredComplete reports whether every required key is checked in the
// local edit state. The console relies on this, not on the server, for
// the completion decision.
func (w *Worksheet) RequiredComplete() bool {
	for _, key := range models.RequiredDocumentKeys {
		if !w.entries[key].Verified {
			return false
		}
	}
	return true
}

// Progress counts verified required documents out of the required total.
// It refuses to answer for a worksheet whose checklist never loaded
// rather than fabricate a number.
func (w *Worksheet) Progress() (verified, total int, err error) {
	if !w.loaded {
		return 0, 0, errors.New("document checklist not loaded")
	}
	for _, key := range models.RequiredDocumentKeys {
		if w.entries[key].Verified {
			verified++
		}
	}
	return verified, len(models.RequiredDocumentKeys), nil
}

// PrintState drives the per-row slip button. One pure function computes
// it from the row's facts; the console never branches on raw booleans.
type PrintState int

const (
	// PrintIdle: verified, no cached link yet, ready to generate.
	PrintIdle PrintState = iota
	// PrintBusy: a generation call is in flight.
	PrintBusy
	// PrintReady: a slip link is cached, clicking opens it.
	PrintReady
	// PrintLocked: the student is not verified yet.
	PrintLocked
)

// RowPrintState computes the slip-button state for one student row.
func RowPrintState(status models.StudentStatus, busy bool, cachedURL string) PrintState {
	switch {
	case status != models.StatusVerified:
		return PrintLocked
	case busy:
		return PrintBusy
	case cachedURL != "":
		return PrintReady
	default:
		return PrintIdle
	}
}

// VerificationConsole is the document-verification desk for one
// department: it loads the actionable queue, opens per-student
// worksheets, saves checklist edits and requests the status transition
// when the required set is complete.
type VerificationConsole struct {
	api        verificationAPI
	department string
	adminName  string

	mu       sync.Mutex
	queue    []dto.StudentSummary
	slipURLs map[string]string
	printing map[string]bool
}

// NewVerificationConsole scopes a console to one department. adminName
// is recorded as verifiedBy on entries the officer checks.
func NewVerificationConsole(api verificationAPI, department, adminName string) *VerificationConsole {
	return &VerificationConsole{
		api:        api,
		department: department,
		adminName:  adminName,
		slipURLs:   make(map[string]string),
		printing:   make(map[string]bool),
	}
}

// LoadQueue refreshes the actionable queue from the server. Students the
// server returns but that are not actionable yet (absent, or photo still
// pending) are filtered out here.
func (vc *VerificationConsole) LoadQueue(ctx context.Context) ([]dto.StudentSummary, error) {
	students, err := vc.api.PendingVerification(ctx, vc.department)
	if err != nil {
		return nil, err
	}

	queue := make([]dto.StudentSummary, 0, len(students))
	for _, s := range students {
		if Actionable(s) {
			queue = append(queue, s)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i].RegisteredAt.Before(queue[j].RegisteredAt) })

	vc.mu.Lock()
	vc.queue = queue
	vc.mu.Unlock()
	return queue, nil
}

// Queue returns the last loaded actionable queue.
func (vc *VerificationConsole) Queue() []dto.StudentSummary {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	out := make([]dto.StudentSummary, len(vc.queue))
	copy(out, vc.queue)
	return out
}

// Open fetches a student's checklist and download links into a fresh
// worksheet.
func (vc *VerificationConsole) Open(ctx context.Context, studentID string) (*Worksheet, error) {
	res, err := vc.api.Documents(ctx, studentID)
	if err != nil {
		return nil, err
	}

	ws := &Worksheet{
		StudentID: studentID,
		entries:   make(map[string]dto.DocumentEntryInput, len(models.AllDocumentKeys())),
		links:     res.Links,
		loaded:    true,
	}
	for _, key := range models.AllDocumentKeys() {
		entry := res.Data.Documents[key]
		ws.entries[key] = dto.DocumentEntryInput{Verified: entry.Verified, Notes: entry.Notes}
	}

	vc.mu.Lock()
	for _, s := range vc.queue {
		if s.StudentID == studentID {
			ws.Status = s.Status
			break
		}
	}
	vc.mu.Unlock()
	return ws, nil
}

// Save persists the worksheet in one call and, when the local edit state
// has every required document checked, follows up with the status
// transition to verified. The completion decision is recomputed here
// from the worksheet, not taken from the server response.
func (vc *VerificationConsole) Save(ctx context.Context, ws *Worksheet) (*dto.SaveDocumentsResponse, error) {
	req := dto.SaveDocumentsRequest{
		Documents:       make(map[string]dto.DocumentEntryInput, len(ws.entries)),
		DepartmentAdmin: vc.adminName,
	}
	for key, entry := range ws.entries {
		req.Documents[key] = entry
	}

	res, err := vc.api.SaveDocuments(ctx, ws.StudentID, req)
	if err != nil {
		return nil, err
	}

	if ws.RequiredComplete() {
		if _, err := vc.api.UpdateStatus(ctx, ws.StudentID, string(models.StatusVerified)); err != nil {
			return res, err
		}
		ws.Status = models.StatusVerified
		vc.dropFromQueue(ws.StudentID)
	}
	return res, nil
}

func (vc *VerificationConsole) dropFromQueue(studentID string) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	kept := vc.queue[:0]
	for _, s := range vc.queue {
		if s.StudentID != studentID {
			kept = append(kept, s)
		}
	}
	vc.queue = kept
}

// BulkVerify checks every required document for the given students in
// one server call and drops the succeeded ones from the queue. Only
// aggregate counts come back.
func (vc *VerificationConsole) BulkVerify(ctx context.Context, studentIDs []string) (*dto.BulkVerifyResponse, error) {
	res, err := vc.api.BulkVerify(ctx, dto.BulkVerifyRequest{
		StudentIDs: studentIDs,
		VerifiedBy: vc.adminName,
	})
	if err != nil {
		return nil, err
	}
	if res.Failed == 0 {
		for _, id := range studentIDs {
			vc.dropFromQueue(id)
		}
	}
	return res, nil
}

// SlipState reports the slip-button state for one student row.
func (vc *VerificationConsole) SlipState(studentID string, status models.StudentStatus) PrintState {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return RowPrintState(status, vc.printing[studentID], vc.slipURLs[studentID])
}

// SlipURL returns the cached admission slip link, empty when none.
func (vc *VerificationConsole) SlipURL(studentID string) string {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return vc.slipURLs[studentID]
}

// Print requests the admission slip for a verified student. The server
// decides open_existing vs open_new; the returned link is cached either
// way so later clicks open it without another generation call.
func (vc *VerificationConsole) Print(ctx context.Context, studentID string, status models.StudentStatus) (string, error) {
	vc.mu.Lock()
	switch RowPrintState(status, vc.printing[studentID], vc.slipURLs[studentID]) {
	case PrintLocked:
		vc.mu.Unlock()
		return "", errors.New("admission slip is available once the student is verified")
	case PrintBusy:
		vc.mu.Unlock()
		return "", errors.New("slip generation already in progress")
	case PrintReady:
		url := vc.slipURLs[studentID]
		vc.mu.Unlock()
		return url, nil
	}
	vc.printing[studentID] = true
	vc.mu.Unlock()

	res, err := vc.api.PrintDocument(ctx, studentID)

	vc.mu.Lock()
	defer vc.mu.Unlock()
	delete(vc.printing, studentID)
	if err != nil {
		return "", err
	}
	vc.slipURLs[studentID] = res.DocumentURL
	return res.DocumentURL, nil
}
