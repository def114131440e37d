package entity

import "fmt"

// StageFlag is the tri-state value of a single approval stage.
// The legacy portal stored these as null/true/false; here they are an
// explicit enum so "not yet decided" can never be confused with "rejected".
type StageFlag int

const (
	StagePending StageFlag = iota
	StageApproved
	StageRejected
)

// String returns the string representation of the stage flag
func (f StageFlag) String() string {
	switch f {
	case StagePending:
		return "PENDING"
	case StageApproved:
		return "APPROVED"
	case StageRejected:
		return "REJECTED"
	default:
		return fmt.Sprintf("StageFlag(%d)", int(f))
	}
}

// IsValid returns true if the flag is one of the three defined values
func (f StageFlag) IsValid() bool {
	return f == StagePending || f == StageApproved || f == StageRejected
}

// ParseStageFlag converts a stored string back into a StageFlag
func ParseStageFlag(s string) (StageFlag, error) {
	switch s {
	case "PENDING":
		return StagePending, nil
	case "APPROVED":
		return StageApproved, nil
	case "REJECTED":
		return StageRejected, nil
	default:
		return StagePending, fmt.Errorf("unknown stage flag: %q", s)
	}
}
