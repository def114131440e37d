package entity

import "time"

// ExpenseStage names one gate of the expense approval pipeline
type ExpenseStage string

const (
	ExpenseStageAssistant ExpenseStage = "ASSISTANT"
	ExpenseStageBoss      ExpenseStage = "BOSS"
	ExpenseStageFinance   ExpenseStage = "FINANCE"
)

// ExpenseStageOrder is the fixed gating order of the expense pipeline
var ExpenseStageOrder = []ExpenseStage{
	ExpenseStageAssistant,
	ExpenseStageBoss,
	ExpenseStageFinance,
}

// ExpenseReport is an expense liquidation request moving through the
// Assistant -> Boss -> Finance pipeline.
type ExpenseReport struct {
	ID           int64  `json:"id"`
	PublicID     string `json:"public_id"`
	CreatorEmail string `json:"creator_email"`
	DepartmentID string `json:"department_id"`

	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`

	AssistantStage StageFlag `json:"assistant_stage"`
	BossStage      StageFlag `json:"boss_stage"`
	FinanceStage   StageFlag `json:"finance_stage"`

	Locked      bool   `json:"locked"`
	ReviewNotes string `json:"review_notes"`

	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Stage returns the flag for the named stage
func (r *ExpenseReport) Stage(s ExpenseStage) StageFlag {
	switch s {
	case ExpenseStageAssistant:
		return r.AssistantStage
	case ExpenseStageBoss:
		return r.BossStage
	case ExpenseStageFinance:
		return r.FinanceStage
	default:
		return StagePending
	}
}

// SetStage sets the flag for the named stage
func (r *ExpenseReport) SetStage(s ExpenseStage, f StageFlag) {
	switch s {
	case ExpenseStageAssistant:
		r.AssistantStage = f
	case ExpenseStageBoss:
		r.BossStage = f
	case ExpenseStageFinance:
		r.FinanceStage = f
	}
}

// HasRejection returns true if any stage carries a rejection. Rejection
// is sticky: the aggregate status stays rejected until resubmission.
func (r *ExpenseReport) HasRejection() bool {
	return r.AssistantStage == StageRejected ||
		r.BossStage == StageRejected ||
		r.FinanceStage == StageRejected
}
