// Package models holds the entities the check-in safety core reads and
// writes. People, families and groups are owned elsewhere; this core only
// mutates attendance end timestamps and appends pickup log rows.
package models

import (
	"time"

	"steeple/pkg/domain"
)

// Person is the identity record for a child, parent or guardian. Referenced,
// not owned, by this core.
type Person struct {
	ID           domain.PersonID
	FirstName    string
	LastName     string
	NickName     string
	BirthDate    *time.Time
	Grade        string
	IsAdult      bool
	IsDeceased   bool
	HasAllergy   bool
	SpecialNeeds bool
}

// FullName renders the display name, preferring the nickname when set.
func (p Person) FullName() string {
	first := p.FirstName
	if p.NickName != "" {
		first = p.NickName
	}
	return first + " " + p.LastName
}

// Age returns whole years at the given instant, or -1 when the birth date is
// unknown.
func (p Person) Age(at time.Time) int {
	if p.BirthDate == nil {
		return -1
	}
	years := at.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return years
}

// FamilyRole classifies a person's membership within a household.
type FamilyRole string

const (
	RoleAdult    FamilyRole = "adult"
	RoleChild    FamilyRole = "child"
	RoleGuardian FamilyRole = "guardian"
)

// Family is a household grouping. Read-only from this core's perspective.
type Family struct {
	ID         domain.FamilyID
	Name       string
	CampusID   domain.CampusID
	CampusName string
	HomePhone  string
}

// FamilyMember links a person to a family with a household role.
type FamilyMember struct {
	Person   Person
	FamilyID domain.FamilyID
	Role     FamilyRole
	IsActive bool
}

// AttendanceRecord is one check-in instance. EndedAt is nil while the child
// is still checked in; RecordPickup sets it exactly once.
type AttendanceRecord struct {
	ID           domain.AttendanceID
	PersonID     domain.PersonID
	OccurrenceID domain.OccurrenceID
	SecurityCode string
	IssuedOn     time.Time
	StartedAt    time.Time
	EndedAt      *time.Time
}

// CheckedOut reports whether the child has already been released.
func (a AttendanceRecord) CheckedOut() bool {
	return a.EndedAt != nil
}

// AuthorizedPickupEntry links a child to either a known person or a free-text
// name, with the policy level governing release. Duplicates per
// (child, person) are a data-quality concern, not structurally prevented;
// resolution picks the most restrictive level.
type AuthorizedPickupEntry struct {
	ID           domain.PickupEntryID
	ChildID      domain.PersonID
	PersonID     *domain.PersonID
	FreeTextName string
	Relationship string
	Level        domain.AuthorizationLevel
	IsActive     bool
	Notes        string
	CreatedAt    time.Time
}

// PickupLogEntry is the immutable record of an actual release. Created
// exactly once per release; never mutated.
type PickupLogEntry struct {
	ID                 domain.PickupLogID
	AttendanceID       domain.AttendanceID
	ChildID            domain.PersonID
	PickupPersonID     *domain.PersonID
	PickupName         string
	WasAuthorized      bool
	SupervisorOverride bool
	SupervisorID       *domain.ActorID
	RecordedBy         domain.ActorID
	RecordedAt         time.Time
}

// FamilyDataBundle is the batch loader's per-family output. Ephemeral: it
// lives only for the duration of one search request.
type FamilyDataBundle struct {
	Family            Family
	Members           []FamilyMember
	RecentlyCheckedIn map[domain.PersonID]struct{}
	LastCheckinAt     map[domain.PersonID]time.Time
}

// HasRecentCheckin reports whether the person checked in within the loader's
// trailing window.
func (b *FamilyDataBundle) HasRecentCheckin(id domain.PersonID) bool {
	_, ok := b.RecentlyCheckedIn[id]
	return ok
}
