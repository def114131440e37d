package entity

import "testing"

func TestStageFlagRoundTrip(t *testing.T) {
	for _, f := range []StageFlag{StagePending, StageApproved, StageRejected} {
		parsed, err := ParseStageFlag(f.String())
		if err != nil {
			t.Fatalf("ParseStageFlag(%q) error: %v", f.String(), err)
		}
		if parsed != f {
			t.Errorf("round trip %v -> %v", f, parsed)
		}
	}
}

func TestParseStageFlagUnknown(t *testing.T) {
	if _, err := ParseStageFlag("MAYBE"); err == nil {
		t.Error("ParseStageFlag should reject unknown values")
	}
}

func TestExpenseHasRejection(t *testing.T) {
	r := &ExpenseReport{
		AssistantStage: StageApproved,
		BossStage:      StagePending,
		FinanceStage:   StagePending,
	}
	if r.HasRejection() {
		t.Error("no stage rejected")
	}

	r.BossStage = StageRejected
	if !r.HasRejection() {
		t.Error("boss rejection not detected")
	}
}

func TestOvertimeHasRejectionIgnoresAccounting(t *testing.T) {
	r := &OvertimeRequest{
		AssistantReview:  StageApproved,
		BossApproval:     StageApproved,
		HRApproval:       StageApproved,
		AccountingReview: StageRejected,
	}
	if r.HasRejection() {
		t.Error("accounting review must not count as a rejection")
	}
}
