package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steeple/internal/checkin/models"
	"steeple/pkg/domain"
	"steeple/pkg/platform/sentinel"
)

func seedAttendance(s *Memory, code string, issuedOn time.Time) domain.AttendanceID {
	id := domain.NewAttendanceID()
	s.AddAttendance(models.AttendanceRecord{
		ID:           id,
		PersonID:     domain.NewPersonID(),
		SecurityCode: code,
		IssuedOn:     issuedOn,
		StartedAt:    issuedOn,
	})
	return id
}

func TestFindLatestAttendanceByCodeOn(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)

	t.Run("matches only records issued the same calendar day", func(t *testing.T) {
		s := NewMemory()
		seedAttendance(s, "AB12", day.AddDate(0, 0, -1))
		want := seedAttendance(s, "AB12", day)

		got, err := s.FindLatestAttendanceByCodeOn(ctx, "AB12", day.Add(8*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, want, got.ID)
	})

	t.Run("just before midnight still counts, just after does not", func(t *testing.T) {
		s := NewMemory()
		seedAttendance(s, "AB12", day)

		_, err := s.FindLatestAttendanceByCodeOn(ctx, "AB12", day.Truncate(24*time.Hour).Add(24*time.Hour-time.Second))
		require.NoError(t, err)

		_, err = s.FindLatestAttendanceByCodeOn(ctx, "AB12", day.AddDate(0, 0, 1))
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("duplicate codes resolve to the latest check-in", func(t *testing.T) {
		s := NewMemory()
		seedAttendance(s, "AB12", day)
		laterID := domain.NewAttendanceID()
		s.AddAttendance(models.AttendanceRecord{
			ID: laterID, PersonID: domain.NewPersonID(),
			SecurityCode: "AB12", IssuedOn: day, StartedAt: day.Add(time.Hour),
		})

		got, err := s.FindLatestAttendanceByCodeOn(ctx, "AB12", day)
		require.NoError(t, err)
		assert.Equal(t, laterID, got.ID)
	})
}

func TestEndAttendance(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)

	s := NewMemory()
	id := seedAttendance(s, "AB12", day)

	require.NoError(t, s.EndAttendance(ctx, id, day.Add(2*time.Hour)))

	err := s.EndAttendance(ctx, id, day.Add(3*time.Hour))
	assert.True(t, errors.Is(err, sentinel.ErrInvalidState))

	err = s.EndAttendance(ctx, domain.NewAttendanceID(), day)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestRunInTxRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)

	s := NewMemory()
	id := seedAttendance(s, "AB12", day)

	err := s.RunInTx(ctx, func(tx Store) error {
		if err := tx.InsertPickupLog(ctx, models.PickupLogEntry{ID: domain.NewPickupLogID(), AttendanceID: id}); err != nil {
			return err
		}
		if err := tx.EndAttendance(ctx, id, day.Add(time.Hour)); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	// Both writes rolled back.
	assert.Empty(t, s.PickupLogs())
	att, err := s.GetAttendance(ctx, id)
	require.NoError(t, err)
	assert.False(t, att.CheckedOut())
}

func TestInsertPickupEntriesIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	dup := domain.NewPickupEntryID()
	s.AddPickupEntry(models.AuthorizedPickupEntry{ID: dup, ChildID: domain.NewPersonID(), IsActive: true})

	fresh := models.AuthorizedPickupEntry{ID: domain.NewPickupEntryID(), ChildID: domain.NewPersonID(), IsActive: true}
	err := s.InsertPickupEntries(ctx, []models.AuthorizedPickupEntry{
		fresh,
		{ID: dup, ChildID: domain.NewPersonID(), IsActive: true},
	})
	assert.True(t, errors.Is(err, sentinel.ErrConflict))

	_, err = s.GetPickupEntry(ctx, fresh.ID)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound), "no partial insert")
}
