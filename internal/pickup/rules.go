package pickup

import (
	"steeple/internal/checkin/models"
	"steeple/pkg/domain"
)

// ResolvedLevel is the closed set of outcomes from matching a candidate
// against a child's authorized pickup list. It extends the administrative
// levels with the "nothing matched" state so the decision switch below is
// the single, exhaustive policy point.
type ResolvedLevel string

const (
	ResolvedNoEntry       ResolvedLevel = "no_entry"
	ResolvedNever         ResolvedLevel = ResolvedLevel(domain.LevelNever)
	ResolvedEmergencyOnly ResolvedLevel = ResolvedLevel(domain.LevelEmergencyOnly)
	ResolvedAlways        ResolvedLevel = ResolvedLevel(domain.LevelAlways)
)

// Verdict is the structured answer to "may this person receive this child".
// Verification always returns a Verdict for policy outcomes; errors are
// reserved for infrastructure failures and validation.
type Verdict struct {
	Authorized       bool          `json:"authorized"`
	Level            ResolvedLevel `json:"level"`
	Message          string        `json:"message"`
	RequiresOverride bool          `json:"requires_override"`
}

// Messages are deliberately generic: which resolution step failed is exactly
// the information an attacker probing the system wants.
const (
	msgRecordNotFound = "record not found"
	msgNotOnList      = "not on the authorized pickup list"
	msgNeverAllowed   = "not authorized to pick up this child"
	msgEmergencyOnly  = "authorized for emergency pickup only"
	msgAuthorized     = "authorized for pickup"
)

// Decide maps a resolved level to a verdict. Pure domain logic - no I/O, no
// side effects.
//
// The level semantics:
//   - NoEntry fails toward requiring human judgment: override offered.
//   - Never is absolute: no authorization and no override path in the verdict.
//   - EmergencyOnly requires an explicit supervisor decision.
//   - Always is the only level that authorizes.
func Decide(level ResolvedLevel) Verdict {
	switch level {
	case ResolvedNoEntry:
		return Verdict{
			Authorized:       false,
			Level:            ResolvedNoEntry,
			Message:          msgNotOnList,
			RequiresOverride: true,
		}
	case ResolvedNever:
		return Verdict{
			Authorized:       false,
			Level:            ResolvedNever,
			Message:          msgNeverAllowed,
			RequiresOverride: false,
		}
	case ResolvedEmergencyOnly:
		return Verdict{
			Authorized:       false,
			Level:            ResolvedEmergencyOnly,
			Message:          msgEmergencyOnly,
			RequiresOverride: true,
		}
	case ResolvedAlways:
		return Verdict{
			Authorized:       true,
			Level:            ResolvedAlways,
			Message:          msgAuthorized,
			RequiresOverride: false,
		}
	default:
		// Unknown levels can only come from bad data; treat as a hard block.
		return Verdict{
			Authorized:       false,
			Level:            ResolvedNever,
			Message:          msgNeverAllowed,
			RequiresOverride: false,
		}
	}
}

// resolveLevel reduces a matched entry (or its absence) to a ResolvedLevel.
func resolveLevel(entry *models.AuthorizedPickupEntry) ResolvedLevel {
	if entry == nil {
		return ResolvedNoEntry
	}
	return ResolvedLevel(entry.Level)
}

// mostRestrictive picks the entry whose level narrows access the most.
// Duplicate (child, person) rows are a data-quality concern the store does
// not prevent; a stale permissive duplicate must never widen access.
func mostRestrictive(entries []*models.AuthorizedPickupEntry) *models.AuthorizedPickupEntry {
	var winner *models.AuthorizedPickupEntry
	for _, e := range entries {
		if winner == nil || e.Level.MoreRestrictiveThan(winner.Level) {
			winner = e
		}
	}
	return winner
}
