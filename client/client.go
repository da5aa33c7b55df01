// Package client is a Go client for the school payment API. Every call
// returns its payload alongside a Result: callers render Result.Message
// inline instead of handling transport errors themselves.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/icpschool/schoolpay/core/admin"
	"github.com/icpschool/schoolpay/core/student"
)

const (
	defaultTimeout = 30 * time.Second

	noResponseMessage = "The server did not respond. Please try again."
)

// Result is the normalized outcome of an API call. On failure, Message
// carries the server's error message verbatim when a response body exists,
// or a generic no-response message when the server was unreachable.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

var okResult = Result{Success: true}

func failure(message string) Result {
	return Result{Message: message}
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for the API rooted at baseURL (e.g.
// "http://localhost:8000/v1"). token is the bearer JWT of a signed-in admin.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// StudentsBySelection lists a grade/strand/section grouping, each student
// decorated with its unpaid total. An empty grouping is a success with an
// empty list.
func (c *Client) StudentsBySelection(ctx context.Context, sel student.Selection) ([]student.DirectoryEntry, Result) {
	var students []student.DirectoryEntry
	res := c.do(ctx, http.MethodGet, c.path("students", sel.Grade, sel.Strand, sel.Section), nil, &students)
	return students, res
}

func (c *Client) AllStudents(ctx context.Context) ([]student.Student, Result) {
	var students []student.Student
	res := c.do(ctx, http.MethodGet, c.path("students"), nil, &students)
	return students, res
}

// SearchDirectory fetches the whole directory and filters it locally, the way
// the dashboard's search box works. An empty term yields no results.
func (c *Client) SearchDirectory(ctx context.Context, term string) ([]student.Student, Result) {
	students, res := c.AllStudents(ctx)
	if !res.Success {
		return nil, res
	}
	return student.SortByName(student.Search(students, term)), okResult
}

func (c *Client) AddStudent(ctx context.Context, ns student.NewStudent) (student.Student, Result) {
	var s student.Student
	res := c.do(ctx, http.MethodPost, c.path("students"), ns, &s)
	return s, res
}

func (c *Client) UpdateStudentDetails(ctx context.Context, studentID string, us student.UpdateStudent) (student.Student, Result) {
	var s student.Student
	res := c.do(ctx, http.MethodPut, c.path("students", studentID), us, &s)
	return s, res
}

func (c *Client) DeleteStudent(ctx context.Context, studentID string) Result {
	return c.do(ctx, http.MethodDelete, c.path("students", studentID), nil, nil)
}

func (c *Client) StudentBalances(ctx context.Context, studentID string) (student.BalanceSummary, Result) {
	var summary student.BalanceSummary
	res := c.do(ctx, http.MethodGet, c.path("students", studentID, "balances"), nil, &summary)
	return summary, res
}

// UpdateStudentBalances overwrites a student's whole balance sequence and
// returns the refreshed summary.
func (c *Client) UpdateStudentBalances(ctx context.Context, studentID string, updated []student.Balance) (student.BalanceSummary, Result) {
	body := struct {
		UpdatedBalances []student.Balance `json:"updatedBalances"`
	}{UpdatedBalances: updated}

	var summary student.BalanceSummary
	res := c.do(ctx, http.MethodPost, c.path("students", studentID, "balances"), body, &summary)
	return summary, res
}

func (c *Client) AddNewBalance(ctx context.Context, studentID string, nb student.NewBalance) (student.Balance, Result) {
	var b student.Balance
	res := c.do(ctx, http.MethodPost, c.path("students", studentID, "balance"), nb, &b)
	return b, res
}

func (c *Client) UpdateBalance(ctx context.Context, studentID, balanceID string, ub student.UpdateBalance) (student.Balance, Result) {
	var b student.Balance
	res := c.do(ctx, http.MethodPut, c.path("students", studentID, "balances", balanceID), ub, &b)
	return b, res
}

func (c *Client) DeleteBalance(ctx context.Context, studentID, balanceID string) Result {
	return c.do(ctx, http.MethodDelete, c.path("students", studentID, "balances", balanceID), nil, nil)
}

// ImportStudents uploads an .xlsx directory sheet and returns the number of
// students created.
func (c *Client) ImportStudents(ctx context.Context, filename string, src io.Reader) (int, Result) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return 0, failure(fmt.Sprintf("preparing upload: %s", err))
	}
	if _, err = io.Copy(part, src); err != nil {
		return 0, failure(fmt.Sprintf("preparing upload: %s", err))
	}
	if err = mw.Close(); err != nil {
		return 0, failure(fmt.Sprintf("preparing upload: %s", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.path("students", "import"), &buf)
	if err != nil {
		return 0, failure(fmt.Sprintf("building request: %s", err))
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var payload struct {
		Imported int `json:"imported"`
	}
	res := c.send(req, &payload)
	return payload.Imported, res
}

func (c *Client) AdminProfile(ctx context.Context, adminID string) (admin.Profile, Result) {
	var p admin.Profile
	res := c.do(ctx, http.MethodGet, c.path("admins", adminID, "profile"), nil, &p)
	return p, res
}

// LastSelection restores the admin's last saved grade/strand/section grouping.
func (c *Client) LastSelection(ctx context.Context, adminID string) (student.Selection, Result) {
	var sel student.Selection
	res := c.do(ctx, http.MethodGet, c.path("admins", adminID, "selection"), nil, &sel)
	return sel, res
}

func (c *Client) SaveSelection(ctx context.Context, adminID string, sel student.Selection) Result {
	return c.do(ctx, http.MethodPut, c.path("admins", adminID, "selection"), sel, nil)
}

func (c *Client) path(segments ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}

// do issues one request and decodes a successful response into out (when
// non-nil). It never returns a raw transport error.
func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) Result {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return failure(fmt.Sprintf("encoding request: %s", err))
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return failure(fmt.Sprintf("building request: %s", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) Result {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return failure(noResponseMessage)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(noResponseMessage)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return failure(errorMessage(resp.StatusCode, raw))
	}
	if out != nil && len(raw) > 0 {
		if err = json.Unmarshal(raw, out); err != nil {
			return failure(fmt.Sprintf("decoding response: %s", err))
		}
	}
	return okResult
}

// errorMessage extracts the server's message from an error body: either
// {"error": message} or a field-to-message map from validation. A body that
// carries neither falls back to the HTTP status text.
func errorMessage(code int, raw []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err == nil && len(body) > 0 {
		if msg, ok := body["error"].(string); ok {
			return msg
		}
		parts := make([]string, 0, len(body))
		for field, msg := range body {
			if s, ok := msg.(string); ok {
				parts = append(parts, fmt.Sprintf("%s: %s", field, s))
			}
		}
		if len(parts) > 0 {
			sort.Strings(parts)
			return strings.Join(parts, "; ")
		}
	}
	return http.StatusText(code)
}
