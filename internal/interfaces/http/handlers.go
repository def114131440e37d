package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grupoandino/portal-approvals/internal/application/service"
	"github.com/grupoandino/portal-approvals/internal/application/workflow"
	"github.com/grupoandino/portal-approvals/internal/domain/entity"
	"github.com/grupoandino/portal-approvals/pkg/utils"
)

// actorHeader carries the authenticated user's email, injected by the
// portal gateway. Session management itself is outside this service.
const actorHeader = "X-Actor-Email"

// Handlers contains all HTTP request handlers
type Handlers struct {
	expenseService  service.ExpenseService
	overtimeService service.OvertimeService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(expenseService service.ExpenseService, overtimeService service.OvertimeService, logger Logger) *Handlers {
	return &Handlers{
		expenseService:  expenseService,
		overtimeService: overtimeService,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handlers) actor(c *gin.Context) (string, bool) {
	actor := c.GetHeader(actorHeader)
	if actor == "" {
		c.JSON(http.StatusUnauthorized, Response{Error: "missing " + actorHeader + " header"})
		return "", false
	}
	if err := utils.ValidateEmail(actor); err != nil {
		c.JSON(http.StatusUnauthorized, Response{Error: err.Error()})
		return "", false
	}
	return actor, true
}

func (h *Handlers) requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "invalid request id"})
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// writeServiceError maps service errors to status codes
func (h *Handlers) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Error: "request not found"})
	case errors.Is(err, service.ErrNotVisible):
		c.JSON(http.StatusForbidden, Response{Error: "request not visible"})
	case errors.Is(err, service.ErrNoDepartment):
		c.JSON(http.StatusUnprocessableEntity, Response{Error: "user belongs to no department"})
	default:
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, Response{Error: "internal error, retry later"})
	}
}

// writeDenial renders a typed denial as a user-facing refusal
func writeDenial(c *gin.Context, reason workflow.DenialReason, detail string) {
	status := http.StatusForbidden
	if reason == workflow.DenialInvalidTransition {
		status = http.StatusConflict
	}
	c.JSON(status, Response{Error: "not permitted at this stage", Reason: string(reason), Data: detail})
}

type decisionBody struct {
	Notes string `json:"notes"`
}

// ---- Expense handlers ----

type expenseBody struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Currency    string  `json:"currency"`
}

// CreateExpense handles POST /api/v1/expenses
func (h *Handlers) CreateExpense(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var body expenseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	report, err := h.expenseService.Create(c.Request.Context(), actor, service.ExpenseInput{
		Description: body.Description,
		Amount:      body.Amount,
		Currency:    body.Currency,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: report})
}

// ListExpenses handles GET /api/v1/expenses
func (h *Handlers) ListExpenses(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	reports, err := h.expenseService.ListVisible(c.Request.Context(), actor, limit, offset)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: reports})
}

// GetExpense handles GET /api/v1/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	report, err := h.expenseService.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// ExpenseHistory handles GET /api/v1/expenses/:id/history
func (h *Handlers) ExpenseHistory(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	// Visibility check rides on Get
	if _, err := h.expenseService.Get(c.Request.Context(), actor, id); err != nil {
		h.writeServiceError(c, err)
		return
	}

	records, err := h.expenseService.History(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

func (h *Handlers) decideExpense(c *gin.Context, approve bool) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var body decisionBody
	_ = c.ShouldBindJSON(&body)

	outcome, err := h.expenseService.Decide(c.Request.Context(), actor, id, approve, body.Notes)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if outcome.Denied {
		writeDenial(c, outcome.Reason, outcome.Detail)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"report":          outcome.Report,
		"stage":           outcome.Decision.Stage,
		"approval_type":   outcome.Decision.Type,
		"previous_status": outcome.PreviousStatus,
		"new_status":      outcome.NewStatus,
	}})
}

// ApproveExpense handles POST /api/v1/expenses/:id/approve
func (h *Handlers) ApproveExpense(c *gin.Context) { h.decideExpense(c, true) }

// RejectExpense handles POST /api/v1/expenses/:id/reject
func (h *Handlers) RejectExpense(c *gin.Context) { h.decideExpense(c, false) }

// ResubmitExpense handles PUT /api/v1/expenses/:id
func (h *Handlers) ResubmitExpense(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var body expenseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	outcome, err := h.expenseService.Resubmit(c.Request.Context(), actor, id, service.ExpenseInput{
		Description: body.Description,
		Amount:      body.Amount,
		Currency:    body.Currency,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if outcome.Denied {
		writeDenial(c, outcome.Reason, outcome.Detail)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: outcome.Report})
}

// ---- Overtime handlers ----

type overtimeEntryBody struct {
	Day   string `json:"day" binding:"required"`
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

type overtimeBody struct {
	Reason  string              `json:"reason" binding:"required"`
	Entries []overtimeEntryBody `json:"entries" binding:"required,min=1"`
}

func (b overtimeBody) toInput() (service.OvertimeInput, error) {
	in := service.OvertimeInput{Reason: b.Reason}
	for _, e := range b.Entries {
		day, err := time.Parse("2006-01-02", e.Day)
		if err != nil {
			return in, err
		}
		if err := utils.ValidateTimeOfDay(e.Start); err != nil {
			return in, err
		}
		if err := utils.ValidateTimeOfDay(e.End); err != nil {
			return in, err
		}
		in.Entries = append(in.Entries, entity.OvertimeEntry{Day: day, Start: e.Start, End: e.End})
	}
	return in, nil
}

// CreateOvertime handles POST /api/v1/overtime
func (h *Handlers) CreateOvertime(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var body overtimeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	in, err := body.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	request, err := h.overtimeService.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: request})
}

// ListOvertime handles GET /api/v1/overtime
func (h *Handlers) ListOvertime(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	requests, err := h.overtimeService.ListVisible(c.Request.Context(), actor, limit, offset)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// GetOvertime handles GET /api/v1/overtime/:id
func (h *Handlers) GetOvertime(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	request, err := h.overtimeService.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

// OvertimeHours handles GET /api/v1/overtime/:id/hours
func (h *Handlers) OvertimeHours(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	breakdown, err := h.overtimeService.HourBreakdown(c.Request.Context(), actor, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: breakdown})
}

// OvertimeHistory handles GET /api/v1/overtime/:id/history
func (h *Handlers) OvertimeHistory(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	if _, err := h.overtimeService.Get(c.Request.Context(), actor, id); err != nil {
		h.writeServiceError(c, err)
		return
	}

	records, err := h.overtimeService.History(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

func (h *Handlers) decideOvertime(c *gin.Context, approve bool) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var body decisionBody
	_ = c.ShouldBindJSON(&body)

	outcome, err := h.overtimeService.Decide(c.Request.Context(), actor, id, approve, body.Notes)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if outcome.Denied {
		writeDenial(c, outcome.Reason, outcome.Detail)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"request":         outcome.Request,
		"stage":           outcome.Decision.Stage,
		"approval_type":   outcome.Decision.Type,
		"previous_status": outcome.PreviousStatus,
		"new_status":      outcome.NewStatus,
	}})
}

// ApproveOvertime handles POST /api/v1/overtime/:id/approve
func (h *Handlers) ApproveOvertime(c *gin.Context) { h.decideOvertime(c, true) }

// RejectOvertime handles POST /api/v1/overtime/:id/reject
func (h *Handlers) RejectOvertime(c *gin.Context) { h.decideOvertime(c, false) }

// EditOvertime handles PUT /api/v1/overtime/:id
func (h *Handlers) EditOvertime(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var body overtimeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	in, err := body.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	outcome, err := h.overtimeService.Edit(c.Request.Context(), actor, id, in)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if outcome.Denied {
		writeDenial(c, outcome.Reason, outcome.Detail)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: outcome.Request})
}
