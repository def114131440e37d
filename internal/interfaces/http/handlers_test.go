package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupoandino/portal-approvals/internal/application/service"
	"github.com/grupoandino/portal-approvals/internal/application/workflow"
	"github.com/grupoandino/portal-approvals/internal/domain/entity"
)

type stubExpenseService struct {
	report  *entity.ExpenseReport
	outcome *service.ExpenseOutcome
	err     error
}

func (s *stubExpenseService) Create(ctx context.Context, creatorEmail string, in service.ExpenseInput) (*entity.ExpenseReport, error) {
	return s.report, s.err
}

func (s *stubExpenseService) Get(ctx context.Context, actorEmail string, id int64) (*entity.ExpenseReport, error) {
	return s.report, s.err
}

func (s *stubExpenseService) ListVisible(ctx context.Context, actorEmail string, limit, offset int) ([]*entity.ExpenseReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*entity.ExpenseReport{s.report}, nil
}

func (s *stubExpenseService) Decide(ctx context.Context, actorEmail string, id int64, approve bool, notes string) (*service.ExpenseOutcome, error) {
	return s.outcome, s.err
}

func (s *stubExpenseService) Resubmit(ctx context.Context, actorEmail string, id int64, in service.ExpenseInput) (*service.ExpenseOutcome, error) {
	return s.outcome, s.err
}

func (s *stubExpenseService) History(ctx context.Context, id int64) ([]*entity.DecisionRecord, error) {
	return nil, nil
}

type stubOvertimeService struct {
	request *entity.OvertimeRequest
	outcome *service.OvertimeOutcome
	err     error
}

func (s *stubOvertimeService) Create(ctx context.Context, creatorEmail string, in service.OvertimeInput) (*entity.OvertimeRequest, error) {
	return s.request, s.err
}

func (s *stubOvertimeService) Get(ctx context.Context, actorEmail string, id int64) (*entity.OvertimeRequest, error) {
	return s.request, s.err
}

func (s *stubOvertimeService) ListVisible(ctx context.Context, actorEmail string, limit, offset int) ([]*entity.OvertimeRequest, error) {
	return nil, s.err
}

func (s *stubOvertimeService) Decide(ctx context.Context, actorEmail string, id int64, approve bool, notes string) (*service.OvertimeOutcome, error) {
	return s.outcome, s.err
}

func (s *stubOvertimeService) Edit(ctx context.Context, actorEmail string, id int64, in service.OvertimeInput) (*service.OvertimeOutcome, error) {
	return s.outcome, s.err
}

func (s *stubOvertimeService) HourBreakdown(ctx context.Context, actorEmail string, id int64) (*entity.HourBreakdown, error) {
	return &entity.HourBreakdown{Regular: 3}, s.err
}

func (s *stubOvertimeService) History(ctx context.Context, id int64) ([]*entity.DecisionRecord, error) {
	return nil, nil
}

func newTestServer(es service.ExpenseService, os service.OvertimeService) *Server {
	return NewServer(DefaultServerConfig(), es, os, nopLogger{})
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func doRequest(t *testing.T, srv *Server, method, path, actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if actor != "" {
		req.Header.Set("X-Actor-Email", actor)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubExpenseService{}, &stubOvertimeService{})

	rec := doRequest(t, srv, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingActorHeader(t *testing.T) {
	srv := newTestServer(&stubExpenseService{}, &stubOvertimeService{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/expenses", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvalidActorHeader(t *testing.T) {
	srv := newTestServer(&stubExpenseService{}, &stubOvertimeService{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/expenses", "not-an-email", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetExpenseNotFound(t *testing.T) {
	srv := newTestServer(&stubExpenseService{err: service.ErrNotFound}, &stubOvertimeService{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/expenses/7", "user@example.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetExpenseNotVisible(t *testing.T) {
	srv := newTestServer(&stubExpenseService{err: service.ErrNotVisible}, &stubOvertimeService{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/expenses/7", "user@example.com", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInvalidRequestID(t *testing.T) {
	srv := newTestServer(&stubExpenseService{}, &stubOvertimeService{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/expenses/abc", "user@example.com", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveExpenseDenialMapsToForbidden(t *testing.T) {
	outcome := &service.ExpenseOutcome{
		Outcome: service.Outcome{
			Denied: true,
			Reason: workflow.DenialNotAuthorized,
			Detail: "no rule grants an action at the current stage",
		},
	}
	srv := newTestServer(&stubExpenseService{outcome: outcome}, &stubOvertimeService{})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/expenses/1/approve", "user@example.com", `{"notes":""}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(workflow.DenialNotAuthorized), resp.Reason)
}

func TestApproveExpenseInvalidTransitionMapsToConflict(t *testing.T) {
	outcome := &service.ExpenseOutcome{
		Outcome: service.Outcome{
			Denied: true,
			Reason: workflow.DenialInvalidTransition,
			Detail: "request is fully approved",
		},
	}
	srv := newTestServer(&stubExpenseService{outcome: outcome}, &stubOvertimeService{})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/expenses/1/approve", "user@example.com", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateExpenseWithoutDepartment(t *testing.T) {
	srv := newTestServer(&stubExpenseService{err: service.ErrNoDepartment}, &stubOvertimeService{})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/expenses", "user@example.com",
		`{"description":"dinner","amount":50}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateOvertimeRejectsBadTimeOfDay(t *testing.T) {
	srv := newTestServer(&stubExpenseService{}, &stubOvertimeService{})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/overtime", "user@example.com",
		`{"reason":"closing","entries":[{"day":"2026-08-20","start":"25:00","end":"26:00"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOvertimeSuccess(t *testing.T) {
	srv := newTestServer(&stubExpenseService{}, &stubOvertimeService{
		request: &entity.OvertimeRequest{ID: 1, CreatorEmail: "user@example.com"},
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/overtime", "user@example.com",
		`{"reason":"closing","entries":[{"day":"2026-08-20","start":"18:00","end":"22:00"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}
