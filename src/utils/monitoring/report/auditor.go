package report

import (
	"go.uber.org/atomic"
)

type AuditorErrors struct {
	InvariantViolations atomic.Uint64 `json:"invariant_violations"`
}

type AuditorState struct {
	Audits             atomic.Uint64 `json:"audits"`
	LastAuditTimestamp atomic.Int64  `json:"last_audit_timestamp"`
	LastAuditOK        atomic.Bool   `json:"last_audit_ok"`
}

type AuditorReport struct {
	State  AuditorState  `json:"state"`
	Errors AuditorErrors `json:"errors"`
}
