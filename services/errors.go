package services

import (
	"errors"
	"fmt"
)

// Expected conditions are returned as sentinel errors so handlers can map
// them to status codes; anything else is a storage fault.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSkillNotFound   = errors.New("skill not found")
)

// errAlreadyRecorded aborts a ledger transaction when the session's record
// for that stream already exists, rolling back the accumulation step.
var errAlreadyRecorded = errors.New("score already recorded for session")

// Upgrade precondition reasons, reported to the client verbatim.
const (
	UpgradeReasonMaxLevel           = "max_level_reached"
	UpgradeReasonInsufficientPoints = "insufficient_skill_points"
	UpgradeReasonUnlockLevel        = "unlock_level_not_reached"
	UpgradeReasonPrerequisite       = "prerequisite_not_met"
	UpgradeReasonConflict           = "concurrent_modification"
)

// InvalidUpgradeError carries the specific precondition that failed,
// re-checked at commit time — an earlier CanUpgrade pass is never trusted.
type InvalidUpgradeError struct {
	SkillID string
	Reason  string
	Detail  string
}

func (e *InvalidUpgradeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("cannot upgrade %s: %s (%s)", e.SkillID, e.Reason, e.Detail)
	}
	return fmt.Sprintf("cannot upgrade %s: %s", e.SkillID, e.Reason)
}
