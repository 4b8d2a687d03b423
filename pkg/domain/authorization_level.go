package domain

import dErrors "steeple/pkg/domain-errors"

// AuthorizationLevel is the policy classification governing whether a named
// person may receive a specific child. The set is closed: the pickup engine
// switches over it exhaustively, so adding a level forces every decision
// point to be revisited.
//
// Usage: construct via ParseAuthorizationLevel at trust boundaries to enforce
// the allowlist; direct casting bypasses validation.
type AuthorizationLevel string

const (
	// LevelNever is absolute: no release, no override, ever.
	LevelNever AuthorizationLevel = "never"
	// LevelEmergencyOnly permits release only with a supervisor override.
	LevelEmergencyOnly AuthorizationLevel = "emergency_only"
	// LevelAlways permits release without further judgment.
	LevelAlways AuthorizationLevel = "always"
)

var validLevels = map[AuthorizationLevel]bool{
	LevelNever:         true,
	LevelEmergencyOnly: true,
	LevelAlways:        true,
}

// ParseAuthorizationLevel constructs an AuthorizationLevel from external
// input. Returns CodeInvalidInput when the value is empty or unsupported.
func ParseAuthorizationLevel(s string) (AuthorizationLevel, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "authorization level cannot be empty")
	}
	l := AuthorizationLevel(s)
	if !l.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid authorization level")
	}
	return l, nil
}

// IsValid checks if the level is one of the supported enum values.
func (l AuthorizationLevel) IsValid() bool {
	return validLevels[l]
}

// String returns the string representation of the level.
func (l AuthorizationLevel) String() string {
	return string(l)
}

// restrictiveness orders levels so duplicate entries can resolve to the most
// restrictive one. Lower wins.
func (l AuthorizationLevel) restrictiveness() int {
	switch l {
	case LevelNever:
		return 0
	case LevelEmergencyOnly:
		return 1
	case LevelAlways:
		return 2
	default:
		return 0
	}
}

// MoreRestrictiveThan reports whether l is stricter than other. Unknown
// levels rank as strictest so bad data can only narrow access.
func (l AuthorizationLevel) MoreRestrictiveThan(other AuthorizationLevel) bool {
	return l.restrictiveness() < other.restrictiveness()
}
