package regflow

import (
	"context"
	"errors"
	"strings"

	"github.com/campusops/admissions-api/internal/dto"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
	"github.com/campusops/admissions-api/pkg/localstore"
)

// ReceiptKey is the local-store key the desk keeps its registration
// receipt under, the same key the browser app used.
const ReceiptKey = "registrationData"

type deskAPI interface {
	Departments(ctx context.Context) ([]string, error)
	Register(ctx context.Context, req *dto.RegistrationRequest) (*dto.RegistrationResponse, error)
	StudentStatus(ctx context.Context, studentID string) (*dto.StudentView, error)
	SendOTP(ctx context.Context, phone string) (*dto.SendOTPResponse, error)
	VerifyOTP(ctx context.Context, phone, code string) (*dto.VerifyOTPResponse, error)
}

// View says which screen the desk should render.
type View int

const (
	// ViewWizard shows the seven-step registration form.
	ViewWizard View = iota
	// ViewStatus shows the submitted student's live status.
	ViewStatus
)

// WorkflowConfig tunes a workflow session.
type WorkflowConfig struct {
	OTP OTPFlowConfig
}

// Workflow drives one registration desk session: step navigation,
// validation, the OTP gate, submission and the durable receipt. A
// persisted receipt short-circuits new sessions straight to the status
// view.
type Workflow struct {
	api   deskAPI
	store *localstore.Store
	form  *Form
	otp   *OTPFlow

	view     View
	step     int
	frontier int
	message  string
	receipt  *dto.RegistrationReceipt
}

// NewWorkflow builds a session, resuming to the status view when a
// receipt from an earlier submission is on disk.
func NewWorkflow(api deskAPI, store *localstore.Store, cfg WorkflowConfig) (*Workflow, error) {
	w := &Workflow{
		api:   api,
		store: store,
		form:  NewForm(),
		otp:   NewOTPFlow(api, cfg.OTP),
		view:  ViewWizard,
	}

	var receipt dto.RegistrationReceipt
	switch err := store.Get(ReceiptKey, &receipt); {
	case err == nil:
		w.receipt = &receipt
		w.view = ViewStatus
	case !errors.Is(err, localstore.ErrNotFound):
		return nil, err
	}

	return w, nil
}

// Form exposes the mutable form aggregate.
func (w *Workflow) Form() *Form {
	return w.form
}

// OTP exposes the verification sub-flow.
func (w *Workflow) OTP() *OTPFlow {
	return w.otp
}

// View reports which screen to render.
func (w *Workflow) View() View {
	return w.view
}

// Step returns the current step index.
func (w *Workflow) Step() int {
	return w.step
}

// Message returns the transient validation or submission error.
func (w *Workflow) Message() string {
	return w.message
}

// Receipt returns the persisted registration receipt, if any.
func (w *Workflow) Receipt() *dto.RegistrationReceipt {
	return w.receipt
}

// SetField writes a form field. Editing the parent contact number after
// a code was sent resets the OTP gate.
func (w *Workflow) SetField(field, value string) {
	if field == FieldParentContactNo && value != w.form.Value(field) && w.otp.State() != OTPNotSent {
		w.otp.Reset()
		w.form.SetParentVerified(false)
	}
	w.form.Set(field, value)
}

// Next validates the current step and advances on success. The step
// index never passes the documents step.
func (w *Workflow) Next() bool {
	if err := ValidateStep(w.form, w.step); err != nil {
		w.message = err.Error()
		return false
	}

	w.message = ""
	if w.step < StepDocuments {
		w.step++
		if w.step > w.frontier {
			w.frontier = w.step
		}
	}
	return true
}

// Prev steps back without validating. The index never drops below zero.
func (w *Workflow) Prev() {
	w.message = ""
	if w.step > 0 {
		w.step--
	}
}

// JumpTo moves directly to an already-reached step via the step header.
func (w *Workflow) JumpTo(step int) bool {
	if step < 0 || step >= stepCount || step > w.frontier {
		return false
	}
	w.message = ""
	w.step = step
	return true
}

// SendOTP requests a code for the parent contact number currently on
// the form.
func (w *Workflow) SendOTP(ctx context.Context) error {
	err := w.otp.Send(ctx, strings.TrimSpace(w.form.Value(FieldParentContactNo)))
	w.syncVerified()
	return err
}

// VerifyOTP checks the received code and opens the identity gate on
// success.
func (w *Workflow) VerifyOTP(ctx context.Context, code string) error {
	err := w.otp.Verify(ctx, strings.TrimSpace(code))
	w.syncVerified()
	return err
}

func (w *Workflow) syncVerified() {
	if w.otp.Verified() {
		w.form.SetParentVerified(true)
	}
}

// Departments fetches the catalog for the program step.
func (w *Workflow) Departments(ctx context.Context) ([]string, error) {
	return w.api.Departments(ctx)
}

// Submit re-validates every step, demands the application number, sends
// the aggregate and persists the returned receipt. On failure the desk
// stays on the documents step with the server's message when it sent
// one, or a connectivity notice when it did not.
func (w *Workflow) Submit(ctx context.Context) (*dto.RegistrationReceipt, error) {
	for step := StepIdentity; step < stepCount; step++ {
		if err := ValidateStep(w.form, step); err != nil {
			w.message = err.Error()
			return nil, err
		}
	}
	if strings.TrimSpace(w.form.Value(FieldJUApplication)) == "" {
		w.message = "Admission Application Number is required"
		return nil, errors.New(w.message)
	}

	res, err := w.api.Register(ctx, w.form.BuildRequest())
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			w.message = appErr.Message
		} else {
			w.message = "cannot reach the server, try again"
		}
		return nil, err
	}

	receipt := res.Data
	if err := w.store.Put(ReceiptKey, receipt); err != nil {
		w.message = "registration stored but the receipt could not be saved"
		return &receipt, err
	}

	w.receipt = &receipt
	w.view = ViewStatus
	w.message = ""
	return &receipt, nil
}

// Status fetches the live status view for the receipted student.
func (w *Workflow) Status(ctx context.Context) (*dto.StudentView, error) {
	if w.receipt == nil {
		return nil, errors.New("no registration receipt")
	}
	return w.api.StudentStatus(ctx, w.receipt.StudentID)
}

// ClearReceipt discards the stored receipt and reopens a fresh wizard.
func (w *Workflow) ClearReceipt() error {
	if err := w.store.Delete(ReceiptKey); err != nil {
		return err
	}
	w.receipt = nil
	w.view = ViewWizard
	w.form = NewForm()
	w.otp.Reset()
	w.step = 0
	w.frontier = 0
	w.message = ""
	return nil
}
