package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"steeple/internal/checkin/models"
	"steeple/pkg/domain"
	"steeple/pkg/platform/sentinel"
)

// Memory is an in-memory Store used by unit tests and local development.
type Memory struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	families     map[domain.FamilyID]models.Family
	members      map[domain.FamilyID][]models.FamilyMember
	persons      map[domain.PersonID]models.Person
	personFamily map[domain.PersonID]domain.FamilyID
	phones       map[domain.PersonID][]string
	attendance   map[domain.AttendanceID]models.AttendanceRecord
	entries      map[domain.PickupEntryID]models.AuthorizedPickupEntry
	logs         []models.PickupLogEntry
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		families:     make(map[domain.FamilyID]models.Family),
		members:      make(map[domain.FamilyID][]models.FamilyMember),
		persons:      make(map[domain.PersonID]models.Person),
		personFamily: make(map[domain.PersonID]domain.FamilyID),
		phones:       make(map[domain.PersonID][]string),
		attendance:   make(map[domain.AttendanceID]models.AttendanceRecord),
		entries:      make(map[domain.PickupEntryID]models.AuthorizedPickupEntry),
	}
}

// ---------------------------------------------------------------------------
// Seed helpers (tests and local development)
// ---------------------------------------------------------------------------

// AddFamily stores a family.
func (s *Memory) AddFamily(f models.Family) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.families[f.ID] = f
}

// AddMember stores a person and their household membership.
func (s *Memory) AddMember(m models.FamilyMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[m.Person.ID] = m.Person
	s.personFamily[m.Person.ID] = m.FamilyID
	s.members[m.FamilyID] = append(s.members[m.FamilyID], m)
}

// AddPhone attaches a normalized digit string to a person.
func (s *Memory) AddPhone(personID domain.PersonID, digits string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phones[personID] = append(s.phones[personID], digits)
}

// AddAttendance stores a check-in record.
func (s *Memory) AddAttendance(a models.AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance[a.ID] = a
}

// AddPickupEntry stores an authorized-pickup entry.
func (s *Memory) AddPickupEntry(e models.AuthorizedPickupEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
}

// PickupLogs returns a copy of all recorded releases, for assertions.
func (s *Memory) PickupLogs() []models.PickupLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.PickupLogEntry{}, s.logs...)
}

// ---------------------------------------------------------------------------
// Store implementation
// ---------------------------------------------------------------------------

func (s *Memory) ListFamilies(_ context.Context, ids []domain.FamilyID) ([]models.Family, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Family, 0, len(ids))
	for _, id := range ids {
		if f, ok := s.families[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Memory) ListActiveMembers(_ context.Context, familyIDs []domain.FamilyID) ([]models.FamilyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.FamilyMember
	for _, fid := range familyIDs {
		for _, m := range s.members[fid] {
			if m.IsActive {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (s *Memory) ListCheckinsSince(_ context.Context, personIDs []domain.PersonID, since time.Time) ([]models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[domain.PersonID]struct{}, len(personIDs))
	for _, id := range personIDs {
		wanted[id] = struct{}{}
	}
	var out []models.AttendanceRecord
	for _, a := range s.attendance {
		if _, ok := wanted[a.PersonID]; ok && !a.StartedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Memory) FindFamilyIDsByPhoneSuffix(_ context.Context, suffixDigits string, limit int) ([]domain.FamilyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[domain.FamilyID]struct{})
	var out []domain.FamilyID
	add := func(fid domain.FamilyID) {
		if _, ok := seen[fid]; !ok {
			seen[fid] = struct{}{}
			out = append(out, fid)
		}
	}
	for personID, numbers := range s.phones {
		for _, n := range numbers {
			if strings.HasSuffix(n, suffixDigits) {
				if fid, ok := s.personFamily[personID]; ok {
					add(fid)
				}
			}
		}
	}
	for fid, f := range s.families {
		if f.HomePhone != "" && strings.HasSuffix(normalizeDigits(f.HomePhone), suffixDigits) {
			add(fid)
		}
	}
	sortFamilyIDs(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Memory) FindFamilyIDsByName(_ context.Context, name string, limit int) ([]domain.FamilyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(name)
	seen := make(map[domain.FamilyID]struct{})
	var prefix, substr []domain.FamilyID

	for pid, p := range s.persons {
		if p.IsDeceased {
			continue
		}
		fid, ok := s.personFamily[pid]
		if !ok {
			continue
		}
		if _, dup := seen[fid]; dup {
			continue
		}
		fields := []string{strings.ToLower(p.FirstName), strings.ToLower(p.LastName), strings.ToLower(p.NickName)}
		matchedPrefix, matchedSub := false, false
		for _, f := range fields {
			if f == "" {
				continue
			}
			if strings.HasPrefix(f, q) {
				matchedPrefix = true
			} else if strings.Contains(f, q) {
				matchedSub = true
			}
		}
		if matchedPrefix {
			seen[fid] = struct{}{}
			prefix = append(prefix, fid)
		} else if matchedSub {
			seen[fid] = struct{}{}
			substr = append(substr, fid)
		}
	}

	sortFamilyIDs(prefix)
	sortFamilyIDs(substr)
	out := append(prefix, substr...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Memory) FindLatestAttendanceByCodeOn(_ context.Context, code string, day time.Time) (*models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.AttendanceRecord
	for _, a := range s.attendance {
		if a.SecurityCode != code || !sameDay(a.IssuedOn, day) {
			continue
		}
		rec := a
		if latest == nil || rec.StartedAt.After(latest.StartedAt) {
			latest = &rec
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("attendance by code: %w", sentinel.ErrNotFound)
	}
	return latest, nil
}

func (s *Memory) GetPerson(_ context.Context, id domain.PersonID) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.persons[id]
	if !ok {
		return nil, fmt.Errorf("person %s: %w", id, sentinel.ErrNotFound)
	}
	return &p, nil
}

func (s *Memory) FamilyIDForPerson(_ context.Context, id domain.PersonID) (domain.FamilyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fid, ok := s.personFamily[id]
	if !ok {
		return domain.FamilyID{}, fmt.Errorf("family for person %s: %w", id, sentinel.ErrNotFound)
	}
	return fid, nil
}

func (s *Memory) GetAttendance(_ context.Context, id domain.AttendanceID) (*models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attendance[id]
	if !ok {
		return nil, fmt.Errorf("attendance %s: %w", id, sentinel.ErrNotFound)
	}
	return &a, nil
}

func (s *Memory) ListActivePickupEntries(_ context.Context, childID domain.PersonID) ([]models.AuthorizedPickupEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AuthorizedPickupEntry
	for _, e := range s.entries {
		if e.ChildID == childID && e.IsActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) GetPickupEntry(_ context.Context, id domain.PickupEntryID) (*models.AuthorizedPickupEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("pickup entry %s: %w", id, sentinel.ErrNotFound)
	}
	return &e, nil
}

func (s *Memory) InsertPickupEntries(_ context.Context, entries []models.AuthorizedPickupEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if _, exists := s.entries[e.ID]; exists {
			return fmt.Errorf("pickup entry %s: %w", e.ID, sentinel.ErrConflict)
		}
	}
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return nil
}

func (s *Memory) InsertPickupLog(_ context.Context, entry models.PickupLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	return nil
}

func (s *Memory) EndAttendance(_ context.Context, id domain.AttendanceID, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attendance[id]
	if !ok {
		return fmt.Errorf("attendance %s: %w", id, sentinel.ErrNotFound)
	}
	if a.EndedAt != nil {
		return fmt.Errorf("attendance %s already ended: %w", id, sentinel.ErrInvalidState)
	}
	a.EndedAt = &endedAt
	s.attendance[id] = a
	return nil
}

// RunInTx serializes transactions behind a coarse lock and restores a
// snapshot of the mutable state when fn fails, so failed recordings leave no
// partial release behind. Mirrors the SQL implementation's all-or-nothing
// semantics closely enough for unit tests to rely on.
func (s *Memory) RunInTx(ctx context.Context, fn func(Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	attendance map[domain.AttendanceID]models.AttendanceRecord
	entries    map[domain.PickupEntryID]models.AuthorizedPickupEntry
	logs       []models.PickupLogEntry
}

func (s *Memory) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memorySnapshot{
		attendance: make(map[domain.AttendanceID]models.AttendanceRecord, len(s.attendance)),
		entries:    make(map[domain.PickupEntryID]models.AuthorizedPickupEntry, len(s.entries)),
		logs:       append([]models.PickupLogEntry{}, s.logs...),
	}
	for k, v := range s.attendance {
		snap.attendance[k] = v
	}
	for k, v := range s.entries {
		snap.entries[k] = v
	}
	return snap
}

func (s *Memory) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance = snap.attendance
	s.entries = snap.entries
	s.logs = snap.logs
}

func sortFamilyIDs(ids []domain.FamilyID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func normalizeDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
