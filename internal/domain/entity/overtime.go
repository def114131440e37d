package entity

import "time"

// OvertimeStage names one flag of the overtime approval record
type OvertimeStage string

const (
	OvertimeStageAssistant OvertimeStage = "ASSISTANT_REVIEW"
	OvertimeStageBoss      OvertimeStage = "BOSS_APPROVAL"
	OvertimeStageHR        OvertimeStage = "HR_APPROVAL"

	// OvertimeStageAccounting is informational only: it never gates a
	// transition and never participates in the aggregate status.
	OvertimeStageAccounting OvertimeStage = "ACCOUNTING_REVIEW"
)

// OvertimeGatingOrder is the fixed order of the three gating flags
var OvertimeGatingOrder = []OvertimeStage{
	OvertimeStageAssistant,
	OvertimeStageBoss,
	OvertimeStageHR,
}

// OvertimeEntry is one worked interval. Hour classification is delegated
// to the external calculator and consumed only for display.
type OvertimeEntry struct {
	ID        int64     `json:"id"`
	RequestID int64     `json:"request_id"`
	Day       time.Time `json:"day"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
}

// HourBreakdown is the computed classification of overtime hours returned
// by the hours collaborator. Never part of any authorization decision.
type HourBreakdown struct {
	Regular      float64 `json:"regular"`
	Double       float64 `json:"double"`
	DoubleDouble float64 `json:"double_double"`
}

// OvertimeRequest is an overtime compensation request moving through the
// AssistantReview -> BossApproval -> HRApproval pipeline.
type OvertimeRequest struct {
	ID           int64  `json:"id"`
	PublicID     string `json:"public_id"`
	CreatorEmail string `json:"creator_email"`
	DepartmentID string `json:"department_id"`

	Reason  string          `json:"reason"`
	Entries []OvertimeEntry `json:"entries,omitempty"`

	AssistantReview  StageFlag `json:"assistant_review"`
	BossApproval     StageFlag `json:"boss_approval"`
	HRApproval       StageFlag `json:"hr_approval"`
	AccountingReview StageFlag `json:"accounting_review"`

	Locked      bool   `json:"locked"`
	ReviewNotes string `json:"review_notes"`

	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Stage returns the flag for the named stage
func (r *OvertimeRequest) Stage(s OvertimeStage) StageFlag {
	switch s {
	case OvertimeStageAssistant:
		return r.AssistantReview
	case OvertimeStageBoss:
		return r.BossApproval
	case OvertimeStageHR:
		return r.HRApproval
	case OvertimeStageAccounting:
		return r.AccountingReview
	default:
		return StagePending
	}
}

// SetStage sets the flag for the named stage
func (r *OvertimeRequest) SetStage(s OvertimeStage, f StageFlag) {
	switch s {
	case OvertimeStageAssistant:
		r.AssistantReview = f
	case OvertimeStageBoss:
		r.BossApproval = f
	case OvertimeStageHR:
		r.HRApproval = f
	case OvertimeStageAccounting:
		r.AccountingReview = f
	}
}

// HasRejection returns true if any gating flag carries a rejection.
// AccountingReview is ignored.
func (r *OvertimeRequest) HasRejection() bool {
	return r.AssistantReview == StageRejected ||
		r.BossApproval == StageRejected ||
		r.HRApproval == StageRejected
}
