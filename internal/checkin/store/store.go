// Package store defines the storage query contract the check-in safety core
// depends on, with PostgreSQL and in-memory implementations. The core never
// sees SQL; it sees point lookups, batched IN-style loads, and one atomic
// multi-write transaction primitive.
package store

import (
	"context"
	"time"

	"steeple/internal/checkin/models"
	"steeple/pkg/domain"
)

// Store is the full query contract. Read methods return
// sentinel.ErrNotFound (wrapped) for missing single entities; batch methods
// simply omit unresolved ids.
type Store interface {
	// Batched loads. One round trip each, regardless of id-set size.
	ListFamilies(ctx context.Context, ids []domain.FamilyID) ([]models.Family, error)
	ListActiveMembers(ctx context.Context, familyIDs []domain.FamilyID) ([]models.FamilyMember, error)
	ListCheckinsSince(ctx context.Context, personIDs []domain.PersonID, since time.Time) ([]models.AttendanceRecord, error)

	// Search lookups.
	FindFamilyIDsByPhoneSuffix(ctx context.Context, suffixDigits string, limit int) ([]domain.FamilyID, error)
	FindFamilyIDsByName(ctx context.Context, name string, limit int) ([]domain.FamilyID, error)
	FindLatestAttendanceByCodeOn(ctx context.Context, code string, day time.Time) (*models.AttendanceRecord, error)

	// Point lookups.
	GetPerson(ctx context.Context, id domain.PersonID) (*models.Person, error)
	FamilyIDForPerson(ctx context.Context, id domain.PersonID) (domain.FamilyID, error)
	GetAttendance(ctx context.Context, id domain.AttendanceID) (*models.AttendanceRecord, error)

	// Authorized pickup list.
	ListActivePickupEntries(ctx context.Context, childID domain.PersonID) ([]models.AuthorizedPickupEntry, error)
	GetPickupEntry(ctx context.Context, id domain.PickupEntryID) (*models.AuthorizedPickupEntry, error)
	InsertPickupEntries(ctx context.Context, entries []models.AuthorizedPickupEntry) error

	// Release recording. Only ever called inside RunInTx.
	InsertPickupLog(ctx context.Context, entry models.PickupLogEntry) error
	EndAttendance(ctx context.Context, id domain.AttendanceID, endedAt time.Time) error

	// RunInTx executes fn atomically: every write fn performs either all
	// lands or none does. fn receives a Store bound to the transaction.
	RunInTx(ctx context.Context, fn func(Store) error) error
}
