// Package domain holds shared identifier and value types. Typed IDs keep the
// compiler between a child and the staff member releasing them.
package domain

import (
	"github.com/google/uuid"

	dErrors "steeple/pkg/domain-errors"
)

// Typed UUIDs for the entities the check-in core touches. Distinct types so
// cross-assignment is a compile error, not a data incident.
type (
	// PersonID identifies any person record: child, parent, guardian.
	PersonID uuid.UUID
	// FamilyID identifies a household grouping.
	FamilyID uuid.UUID
	// AttendanceID identifies one check-in instance.
	AttendanceID uuid.UUID
	// PickupEntryID identifies an authorized-pickup list entry.
	PickupEntryID uuid.UUID
	// PickupLogID identifies an immutable release record.
	PickupLogID uuid.UUID
	// OccurrenceID identifies a service/location/date occurrence.
	OccurrenceID uuid.UUID
	// CampusID identifies a campus.
	CampusID uuid.UUID
	// ActorID identifies the authenticated staff member driving a terminal.
	ActorID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

// ParsePersonID constructs a PersonID from external input.
func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID(s)
	return PersonID(u), err
}

// ParseFamilyID constructs a FamilyID from external input.
func ParseFamilyID(s string) (FamilyID, error) {
	u, err := parseUUID(s)
	return FamilyID(u), err
}

// ParseAttendanceID constructs an AttendanceID from external input.
func ParseAttendanceID(s string) (AttendanceID, error) {
	u, err := parseUUID(s)
	return AttendanceID(u), err
}

// ParsePickupEntryID constructs a PickupEntryID from external input.
func ParsePickupEntryID(s string) (PickupEntryID, error) {
	u, err := parseUUID(s)
	return PickupEntryID(u), err
}

// ParseActorID constructs an ActorID from external input.
func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID(s)
	return ActorID(u), err
}

func (id PersonID) String() string      { return uuid.UUID(id).String() }
func (id FamilyID) String() string      { return uuid.UUID(id).String() }
func (id AttendanceID) String() string  { return uuid.UUID(id).String() }
func (id PickupEntryID) String() string { return uuid.UUID(id).String() }
func (id PickupLogID) String() string   { return uuid.UUID(id).String() }
func (id OccurrenceID) String() string  { return uuid.UUID(id).String() }
func (id CampusID) String() string      { return uuid.UUID(id).String() }
func (id ActorID) String() string       { return uuid.UUID(id).String() }

func (id PersonID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id FamilyID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id AttendanceID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id PickupEntryID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }

// NewPersonID mints a fresh PersonID.
func NewPersonID() PersonID { return PersonID(uuid.New()) }

// NewFamilyID mints a fresh FamilyID.
func NewFamilyID() FamilyID { return FamilyID(uuid.New()) }

// NewAttendanceID mints a fresh AttendanceID.
func NewAttendanceID() AttendanceID { return AttendanceID(uuid.New()) }

// NewPickupEntryID mints a fresh PickupEntryID.
func NewPickupEntryID() PickupEntryID { return PickupEntryID(uuid.New()) }

// NewPickupLogID mints a fresh PickupLogID.
func NewPickupLogID() PickupLogID { return PickupLogID(uuid.New()) }

// NewOccurrenceID mints a fresh OccurrenceID.
func NewOccurrenceID() OccurrenceID { return OccurrenceID(uuid.New()) }

// NewActorID mints a fresh ActorID.
func NewActorID() ActorID { return ActorID(uuid.New()) }
