// Package pickup implements the child release decision engine: verifying
// whether a candidate may receive a checked-in child, and recording the
// actual release under blocking and override rules.
package pickup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"steeple/internal/audit"
	"steeple/internal/checkin/models"
	"steeple/internal/checkin/store"
	"steeple/internal/pickup/metrics"
	"steeple/internal/timing"
	"steeple/pkg/domain"
	dErrors "steeple/pkg/domain-errors"
	"steeple/pkg/platform/sentinel"
	"steeple/pkg/requestcontext"
)

// AuditPublisher is the write-only event channel.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// recordLatencyTarget is the soft budget for RecordPickup; exceeding it is
// logged, never enforced.
const recordLatencyTarget = 500 * time.Millisecond

// Candidate identifies who is asking to receive the child: a known person,
// or a free-text name when the person is not in the system.
type Candidate struct {
	PersonID *domain.PersonID
	Name     string
}

func (c Candidate) isEmpty() bool {
	return (c.PersonID == nil || c.PersonID.IsZero()) && strings.TrimSpace(c.Name) == ""
}

// RecordRequest carries everything needed to record an actual release.
type RecordRequest struct {
	AttendanceID       domain.AttendanceID
	Candidate          Candidate
	WasAuthorized      bool
	SupervisorOverride bool
	SupervisorID       *domain.ActorID
	// EntryID optionally pins the authorized-pickup entry the terminal
	// displayed; the blocking re-check still resolves independently.
	EntryID *domain.PickupEntryID
}

// Service is the pickup authorization engine.
type Service struct {
	store     store.Store
	publisher AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit attaches the audit event channel.
func WithAudit(p AuditPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// New constructs the pickup engine.
func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	s := &Service{store: st}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// VerifyPickup answers "is this person allowed to receive this specific
// child right now". Policy outcomes are always a Verdict, never an error;
// errors are reserved for infrastructure failures and bad input. Repeated
// calls with unchanged data return identical verdicts.
func (s *Service) VerifyPickup(ctx context.Context, actor domain.Actor, attendanceID domain.AttendanceID, securityCode string, candidate Candidate) (*Verdict, error) {
	if !actor.IsAuthenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if attendanceID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "attendance id is required")
	}
	if candidate.isEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "pickup person or name is required")
	}

	att, err := s.store.GetAttendance(ctx, attendanceID)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			// Generic on purpose: the caller never learns which part of the
			// resolution failed.
			return s.verdict(ctx, actor, attendanceID, Verdict{
				Authorized: false, Level: ResolvedNoEntry, Message: msgRecordNotFound,
			}), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "verification failed")
	}
	if att.CheckedOut() {
		return s.verdict(ctx, actor, attendanceID, Verdict{
			Authorized: false, Level: ResolvedNoEntry, Message: msgRecordNotFound,
		}), nil
	}

	codeOK := timing.ConstantTimeEquals(
		strings.ToUpper(strings.TrimSpace(securityCode)),
		strings.ToUpper(att.SecurityCode),
	)

	// The authorized-list resolution runs whether or not the code matched,
	// joined against equal-cost dummy work, so wall-clock time does not
	// reveal code validity beyond what the verdict itself says.
	entry, err := timing.RunBothBranches(ctx,
		func(ctx context.Context) (*models.AuthorizedPickupEntry, error) {
			return s.resolveEntry(ctx, s.store, att.PersonID, candidate)
		},
		func(context.Context) (*models.AuthorizedPickupEntry, error) {
			timing.HashPadding(timing.CodePaddingIterations)()
			return nil, nil
		},
		codeOK,
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "verification failed")
	}

	if !codeOK {
		return s.verdict(ctx, actor, attendanceID, Verdict{
			Authorized: false, Level: ResolvedNoEntry, Message: msgRecordNotFound,
		}), nil
	}

	return s.verdict(ctx, actor, attendanceID, Decide(resolveLevel(entry))), nil
}

// RecordPickup records the actual release. It is not idempotent: it appends
// an immutable log row and closes the attendance record, atomically. The
// Never-level block is re-checked inside the transaction so a caller that
// skipped VerifyPickup cannot use an override to release a child to a
// blocked person.
func (s *Service) RecordPickup(ctx context.Context, actor domain.Actor, req RecordRequest) (*models.PickupLogEntry, error) {
	if !actor.IsAuthenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := validateRecordRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	defer s.observeRecord(ctx, start)

	now := requestcontext.Now(ctx)
	var logged models.PickupLogEntry

	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		att, err := tx.GetAttendance(ctx, req.AttendanceID)
		if err != nil {
			if dErrors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, msgRecordNotFound)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "load attendance")
		}
		if att.CheckedOut() {
			return dErrors.New(dErrors.CodeConflict, "child is already checked out")
		}

		entry, err := s.resolveEntryForRecord(ctx, tx, att.PersonID, req)
		if err != nil {
			return err
		}
		if entry != nil && entry.Level == domain.LevelNever {
			// Hard rejection, not a verdict: operators alert on this.
			s.emitBlockedBypass(ctx, actor, att, req)
			if s.metrics != nil {
				s.metrics.IncBlockedBypass()
			}
			return dErrors.New(dErrors.CodeInvariantViolation, "release to this person is blocked and cannot be overridden")
		}

		logged = models.PickupLogEntry{
			ID:                 domain.NewPickupLogID(),
			AttendanceID:       att.ID,
			ChildID:            att.PersonID,
			PickupPersonID:     req.Candidate.PersonID,
			PickupName:         strings.TrimSpace(req.Candidate.Name),
			WasAuthorized:      req.WasAuthorized,
			SupervisorOverride: req.SupervisorOverride,
			SupervisorID:       req.SupervisorID,
			RecordedBy:         actor.ID,
			RecordedAt:         now,
		}
		if logged.PickupName == "" && req.Candidate.PersonID != nil {
			person, err := tx.GetPerson(ctx, *req.Candidate.PersonID)
			if err == nil {
				logged.PickupName = person.FullName()
			}
		}

		if err := tx.InsertPickupLog(ctx, logged); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "record pickup")
		}
		if err := tx.EndAttendance(ctx, att.ID, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "close attendance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncRecorded(logged.SupervisorOverride)
	}
	s.emit(ctx, audit.Event{
		Action:       audit.ActionPickupRecorded,
		ActorID:      actor.ID.String(),
		ChildID:      logged.ChildID.String(),
		AttendanceID: logged.AttendanceID.String(),
		Subject:      logged.PickupName,
		Outcome:      recordOutcome(logged),
	})
	return &logged, nil
}

// AutoPopulateFamilyMembers inserts the child's adult household members as
// Always-level entries, skipping anyone already present. A data-entry
// accelerator, not a security control: it never downgrades or removes
// existing entries.
func (s *Service) AutoPopulateFamilyMembers(ctx context.Context, actor domain.Actor, childID domain.PersonID) (int, error) {
	if !actor.IsAuthenticated() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if childID.IsZero() {
		return 0, dErrors.New(dErrors.CodeValidation, "child id is required")
	}

	familyID, err := s.store.FamilyIDForPerson(ctx, childID)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "child has no active family")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "resolve family")
	}
	members, err := s.store.ListActiveMembers(ctx, []domain.FamilyID{familyID})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "load family members")
	}
	existing, err := s.store.ListActivePickupEntries(ctx, childID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "load pickup entries")
	}
	present := make(map[domain.PersonID]struct{}, len(existing))
	for _, e := range existing {
		if e.PersonID != nil {
			present[*e.PersonID] = struct{}{}
		}
	}

	now := requestcontext.Now(ctx)
	var toInsert []models.AuthorizedPickupEntry
	for _, m := range members {
		if m.Person.ID == childID {
			continue
		}
		if m.Role != models.RoleAdult && m.Role != models.RoleGuardian {
			continue
		}
		if _, ok := present[m.Person.ID]; ok {
			continue
		}
		pid := m.Person.ID
		toInsert = append(toInsert, models.AuthorizedPickupEntry{
			ID:           domain.NewPickupEntryID(),
			ChildID:      childID,
			PersonID:     &pid,
			Relationship: string(m.Role),
			Level:        domain.LevelAlways,
			IsActive:     true,
			CreatedAt:    now,
		})
	}
	if len(toInsert) == 0 {
		return 0, nil
	}
	if err := s.store.InsertPickupEntries(ctx, toInsert); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "insert pickup entries")
	}
	return len(toInsert), nil
}

// ---------------------------------------------------------------------------
// internals
// ---------------------------------------------------------------------------

func validateRecordRequest(req RecordRequest) error {
	if req.AttendanceID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "attendance id is required")
	}
	if req.Candidate.isEmpty() {
		return dErrors.New(dErrors.CodeValidation, "pickup person or name is required")
	}
	if req.WasAuthorized == req.SupervisorOverride {
		// Both true or both false: an authorized pickup never carries an
		// override flag, and an unauthorized one never proceeds without one.
		return dErrors.New(dErrors.CodeValidation, "exactly one of authorized or supervisor override must be set")
	}
	if req.SupervisorOverride && (req.SupervisorID == nil || req.SupervisorID.IsZero()) {
		return dErrors.New(dErrors.CodeValidation, "supervisor id is required for an override")
	}
	return nil
}

// resolveEntry matches the candidate against the child's active entries:
// by person id when known, else by exact free-text name. Duplicates resolve
// to the most restrictive level.
func (s *Service) resolveEntry(ctx context.Context, st store.Store, childID domain.PersonID, candidate Candidate) (*models.AuthorizedPickupEntry, error) {
	entries, err := st.ListActivePickupEntries(ctx, childID)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var matched []*models.AuthorizedPickupEntry
	name := strings.TrimSpace(candidate.Name)
	for i := range entries {
		e := &entries[i]
		if candidate.PersonID != nil && !candidate.PersonID.IsZero() {
			if e.PersonID != nil && *e.PersonID == *candidate.PersonID {
				matched = append(matched, e)
			}
			continue
		}
		if e.PersonID == nil && name != "" && strings.EqualFold(e.FreeTextName, name) {
			matched = append(matched, e)
		}
	}
	return mostRestrictive(matched), nil
}

// resolveEntryForRecord prefers the pinned entry id but verifies it belongs
// to this child; the independent match still runs when no id was pinned.
func (s *Service) resolveEntryForRecord(ctx context.Context, tx store.Store, childID domain.PersonID, req RecordRequest) (*models.AuthorizedPickupEntry, error) {
	if req.EntryID != nil && !req.EntryID.IsZero() {
		entry, err := tx.GetPickupEntry(ctx, *req.EntryID)
		if err != nil {
			if dErrors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "authorized pickup entry not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load pickup entry")
		}
		if entry.ChildID != childID {
			return nil, dErrors.New(dErrors.CodeValidation, "pickup entry does not belong to this child")
		}
		return entry, nil
	}
	entry, err := s.resolveEntry(ctx, tx, childID, req.Candidate)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve pickup entry")
	}
	return entry, nil
}

func (s *Service) verdict(ctx context.Context, actor domain.Actor, attendanceID domain.AttendanceID, v Verdict) *Verdict {
	if s.metrics != nil {
		s.metrics.IncVerdict(string(v.Level), v.Authorized)
	}
	s.emit(ctx, audit.Event{
		Action:       audit.ActionVerifyVerdict,
		ActorID:      actor.ID.String(),
		AttendanceID: attendanceID.String(),
		Outcome:      string(v.Level),
		Detail:       v.Message,
	})
	return &v
}

func (s *Service) emitBlockedBypass(ctx context.Context, actor domain.Actor, att *models.AttendanceRecord, req RecordRequest) {
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "blocked pickup bypass attempt",
			"attendance_id", att.ID.String(),
			"child_id", att.PersonID.String(),
			"actor_id", actor.ID.String(),
			"override_requested", req.SupervisorOverride,
		)
	}
	s.emit(ctx, audit.Event{
		Action:       audit.ActionBlockedBypass,
		ActorID:      actor.ID.String(),
		ChildID:      att.PersonID.String(),
		AttendanceID: att.ID.String(),
		Subject:      strings.TrimSpace(req.Candidate.Name),
		Outcome:      "rejected",
	})
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func (s *Service) observeRecord(ctx context.Context, start time.Time) {
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveRecord(elapsed)
	}
	if elapsed > recordLatencyTarget && s.logger != nil {
		s.logger.WarnContext(ctx, "pickup recording exceeded soft latency target",
			"elapsed", elapsed,
			"target", recordLatencyTarget,
		)
	}
}

func recordOutcome(entry models.PickupLogEntry) string {
	if entry.SupervisorOverride {
		return "override"
	}
	return "authorized"
}
