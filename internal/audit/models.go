// Package audit captures the security-relevant events the check-in core
// emits: verdicts, releases, attempted bypasses, lockouts. The sink behind
// the Store interface is external; this package is only the write-only edge.
package audit

import "time"

// Action names the kind of event.
type Action string

const (
	ActionVerifyVerdict   Action = "pickup.verify_verdict"
	ActionPickupRecorded  Action = "pickup.recorded"
	ActionBlockedBypass   Action = "pickup.blocked_bypass_attempt"
	ActionSearchExecuted  Action = "search.executed"
	ActionCodeLockout     Action = "search.code_lockout"
	ActionUnauthenticated Action = "search.unauthenticated_caller"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp    time.Time
	Action       Action
	ActorID      string
	ChildID      string
	AttendanceID string
	Subject      string
	Outcome      string
	Detail       string
}
