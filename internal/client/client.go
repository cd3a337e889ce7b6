package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
	"github.com/campusops/admissions-api/pkg/response"
)

// Client is a typed HTTP client for the admissions API. The registration
// desk and the admin console drive the whole server surface through it.
// Safe for concurrent use; the bearer token may be swapped at any time.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New builds a client against the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs the bearer token used on authenticated calls.
// Restoring a persisted admin session goes through here.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken drops the bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do runs one JSON round trip. A non-2xx response is decoded into the
// API error contract and surfaced as a typed error carrying the server's
// code and status.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return appErrors.New(appErrors.ErrInternal.Code, resp.StatusCode, fmt.Sprintf("read error response: %v", err))
	}

	var body response.ErrorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		code := body.Code
		if code == "" {
			code = appErrors.ErrInternal.Code
		}
		return appErrors.New(code, resp.StatusCode, body.Error)
	}
	return appErrors.New(appErrors.ErrInternal.Code, resp.StatusCode, fmt.Sprintf("unexpected status %d", resp.StatusCode))
}

// Login authenticates an admin and retains the issued token for the
// calls that follow.
func (c *Client) Login(ctx context.Context, username, password string) (*dto.AdminLoginResponse, error) {
	req := models.LoginRequest{Username: username, Password: password}
	var res dto.AdminLoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", req, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

// VerifyToken checks the retained session token against the server.
func (c *Client) VerifyToken(ctx context.Context) (*models.AdminInfo, error) {
	var res dto.VerifyTokenResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/verify-token", nil, &res); err != nil {
		return nil, err
	}
	return &res.Admin, nil
}

// Departments lists the departments open for registration.
func (c *Client) Departments(ctx context.Context) ([]string, error) {
	var res dto.DepartmentsResponse
	if err := c.do(ctx, http.MethodGet, "/api/departments", nil, &res); err != nil {
		return nil, err
	}
	return res.Departments, nil
}

// Register submits a completed registration aggregate.
func (c *Client) Register(ctx context.Context, req *dto.RegistrationRequest) (*dto.RegistrationResponse, error) {
	var res dto.RegistrationResponse
	if err := c.do(ctx, http.MethodPost, "/api/students/register", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// StudentStatus fetches the live status view for a student ID. The ID
// itself is the capability, no session needed.
func (c *Client) StudentStatus(ctx context.Context, studentID string) (*dto.StudentView, error) {
	req := dto.StatusCheckRequest{StudentID: studentID}
	var res dto.StudentDetailResponse
	if err := c.do(ctx, http.MethodPost, "/api/students/status", req, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

// SendOTP requests a verification code for a parent phone number.
func (c *Client) SendOTP(ctx context.Context, phone string) (*dto.SendOTPResponse, error) {
	req := dto.SendOTPRequest{PhoneNumber: phone, Type: "parent"}
	var res dto.SendOTPResponse
	if err := c.do(ctx, http.MethodPost, "/api/send-otp", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// VerifyOTP checks the code the parent received.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (*dto.VerifyOTPResponse, error) {
	req := dto.VerifyOTPRequest{PhoneNumber: phone, OTP: code, Type: "parent"}
	var res dto.VerifyOTPResponse
	if err := c.do(ctx, http.MethodPost, "/api/verify-otp", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Students lists roster summaries, optionally filtered.
func (c *Client) Students(ctx context.Context, department, search string) ([]dto.StudentSummary, error) {
	q := url.Values{}
	if department != "" {
		q.Set("department", department)
	}
	if search != "" {
		q.Set("search", search)
	}
	path := "/api/students"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var res dto.RosterResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Students, nil
}

// PendingVerification lists the department's students still awaiting
// document verification.
func (c *Client) PendingVerification(ctx context.Context, department string) ([]dto.StudentSummary, error) {
	path := "/api/students/department/" + url.PathEscape(department) + "/pending-verification"
	var res dto.RosterResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Students, nil
}

// Documents fetches the verification checklist plus download links.
func (c *Client) Documents(ctx context.Context, studentID string) (*dto.DocumentsResponse, error) {
	var res dto.DocumentsResponse
	if err := c.do(ctx, http.MethodGet, "/api/students/"+url.PathEscape(studentID)+"/documents", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SaveDocuments persists checklist edits for a student.
func (c *Client) SaveDocuments(ctx context.Context, studentID string, req dto.SaveDocumentsRequest) (*dto.SaveDocumentsResponse, error) {
	var res dto.SaveDocumentsResponse
	if err := c.do(ctx, http.MethodPut, "/api/students/"+url.PathEscape(studentID)+"/documents", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateStatus requests a lifecycle transition.
func (c *Client) UpdateStatus(ctx context.Context, studentID, status string) (*dto.StatusUpdateResponse, error) {
	req := dto.StatusUpdateRequest{Status: status}
	var res dto.StatusUpdateResponse
	if err := c.do(ctx, http.MethodPut, "/api/students/"+url.PathEscape(studentID)+"/status", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// BulkVerify marks every required document verified for many students.
func (c *Client) BulkVerify(ctx context.Context, req dto.BulkVerifyRequest) (*dto.BulkVerifyResponse, error) {
	var res dto.BulkVerifyResponse
	if err := c.do(ctx, http.MethodPost, "/api/students/bulk-verify-documents", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PrintDocument asks for the admission slip link of a verified student.
func (c *Client) PrintDocument(ctx context.Context, studentID string) (*dto.PrintDocumentResponse, error) {
	var res dto.PrintDocumentResponse
	if err := c.do(ctx, http.MethodGet, "/api/students/"+url.PathEscape(studentID)+"/print-document", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MarkAttendance marks a candidate present at the admission desk.
func (c *Client) MarkAttendance(ctx context.Context, studentID string) (*dto.MarkAttendanceResponse, error) {
	req := dto.MarkAttendanceRequest{StudentID: studentID}
	var res dto.MarkAttendanceResponse
	if err := c.do(ctx, http.MethodPost, "/api/attendance/mark", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DepartmentStats fetches progress counters for one department, or all
// of them with "all".
func (c *Client) DepartmentStats(ctx context.Context, department string) (*dto.DepartmentStatsResponse, error) {
	path := "/api/admin/department-stats/" + url.PathEscape(department)
	var res dto.DepartmentStatsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
