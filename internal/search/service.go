// Package search implements the three identity search modalities used to
// locate a family or child during check-in: by phone suffix, by name, and by
// one-time security code. Every modality is authorized, timing-equalized, and
// assembled from batched loads.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"steeple/internal/audit"
	"steeple/internal/checkin/models"
	"steeple/internal/family/loader"
	"steeple/internal/ratelimit/codelockout"
	"steeple/internal/search/metrics"
	"steeple/internal/timing"
	"steeple/pkg/domain"
	dErrors "steeple/pkg/domain-errors"
	"steeple/pkg/platform/sentinel"
	"steeple/pkg/requestcontext"
)

// Store is the lookup contract this service consumes.
//
//go:generate mockgen -source=service.go -destination=mocks/store.go -package=mocks Store
type Store interface {
	FindFamilyIDsByPhoneSuffix(ctx context.Context, suffixDigits string, limit int) ([]domain.FamilyID, error)
	FindFamilyIDsByName(ctx context.Context, name string, limit int) ([]domain.FamilyID, error)
	FindLatestAttendanceByCodeOn(ctx context.Context, code string, day time.Time) (*models.AttendanceRecord, error)
	GetPerson(ctx context.Context, id domain.PersonID) (*models.Person, error)
	FamilyIDForPerson(ctx context.Context, id domain.PersonID) (domain.FamilyID, error)
}

// FamilyLoader assembles family bundles in bounded round trips.
type FamilyLoader interface {
	LoadFamilyData(ctx context.Context, familyIDs []domain.FamilyID, recentWindowStart time.Time) (map[domain.FamilyID]*models.FamilyDataBundle, error)
}

// AuditPublisher is the write-only event channel.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	// maxFamilyResults caps phone/name result sets.
	maxFamilyResults = 20
	// minPhoneDigits rejects suffixes too short to be a meaningful match.
	minPhoneDigits = 4
	// recentCheckinWindow marks members seen within this trailing window.
	recentCheckinWindow = 30 * 24 * time.Hour
	// softLatencyTarget is logged as a warning when exceeded, never enforced.
	softLatencyTarget = 100 * time.Millisecond
)

// Service executes authorized, timing-equalized identity searches.
type Service struct {
	store     Store
	loader    FamilyLoader
	lockout   *codelockout.Service
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

// WithLockout attaches the code-guess lockout.
func WithLockout(l *codelockout.Service) Option {
	return func(s *Service) { s.lockout = l }
}

// WithAudit attaches the audit event channel.
func WithAudit(p AuditPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// New constructs the search service.
func New(store Store, familyLoader FamilyLoader, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if familyLoader == nil {
		return nil, fmt.Errorf("family loader is required")
	}
	s := &Service{store: store, loader: familyLoader}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ FamilyLoader = (*loader.Loader)(nil)

// SearchByPhone matches a suffix of the normalized digit string across all
// stored numbers and returns up to 20 family bundles, members sorted adults
// first. Queries under 4 digits return empty immediately; "too short to
// search" is not a secret, so that rejection happens before timing is
// treated as sensitive.
func (s *Service) SearchByPhone(ctx context.Context, actor domain.Actor, rawPhone string) ([]FamilyResult, error) {
	if err := s.authorize(ctx, actor, "phone"); err != nil {
		return nil, err
	}
	digits := normalizeDigits(rawPhone)
	if len(digits) < minPhoneDigits {
		return []FamilyResult{}, nil
	}

	start := time.Now()
	defer s.observe(ctx, "phone", start)

	results, _, err := timing.SearchWithPadding(ctx,
		func(ctx context.Context) ([]FamilyResult, bool, error) {
			ids, err := s.store.FindFamilyIDsByPhoneSuffix(ctx, digits, maxFamilyResults)
			if err != nil {
				return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "phone search failed")
			}
			res, err := s.assembleFamilies(ctx, ids)
			if err != nil {
				return nil, false, err
			}
			return res, len(res) > 0, nil
		},
		timing.HashPadding(timing.ScanPaddingIterations),
	)
	if err != nil {
		return nil, err
	}
	s.recordSearch(ctx, actor, "phone", len(results))
	return results, nil
}

// SearchByName matches prefix-first then substring on first/last/nickname,
// excluding deceased persons. Wildcard metacharacters in the query are
// neutralized by the store before pattern matching.
func (s *Service) SearchByName(ctx context.Context, actor domain.Actor, rawName string) ([]FamilyResult, error) {
	if err := s.authorize(ctx, actor, "name"); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(rawName)
	if name == "" {
		return []FamilyResult{}, nil
	}

	start := time.Now()
	defer s.observe(ctx, "name", start)

	results, _, err := timing.SearchWithPadding(ctx,
		func(ctx context.Context) ([]FamilyResult, bool, error) {
			ids, err := s.store.FindFamilyIDsByName(ctx, name, maxFamilyResults)
			if err != nil {
				return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "name search failed")
			}
			res, err := s.assembleFamilies(ctx, ids)
			if err != nil {
				return nil, false, err
			}
			return res, len(res) > 0, nil
		},
		timing.HashPadding(timing.ScanPaddingIterations),
	)
	if err != nil {
		return nil, err
	}
	s.recordSearch(ctx, actor, "name", len(results))
	return results, nil
}

// SearchByCode resolves a one-time security code issued on the current
// calendar day to the checked-in child and family. Codes from prior days
// never match. This is the highest-value guessing target, so it carries the
// larger padding budget and feeds the guess lockout.
func (s *Service) SearchByCode(ctx context.Context, actor domain.Actor, rawCode string) (*CodeResult, error) {
	if err := s.authorize(ctx, actor, "code"); err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if code == "" {
		return nil, nil
	}

	terminal := requestcontext.TerminalID(ctx)
	if s.lockout != nil && !s.lockout.Allowed(ctx, terminal) {
		return nil, dErrors.New(dErrors.CodeForbidden, "code lookups temporarily locked for this terminal")
	}

	start := time.Now()
	defer s.observe(ctx, "code", start)

	result, found, err := timing.SearchWithPadding(ctx,
		func(ctx context.Context) (*CodeResult, bool, error) {
			return s.resolveCode(ctx, code)
		},
		timing.HashPadding(timing.CodePaddingIterations),
	)
	if err != nil {
		return nil, err
	}
	if !found {
		s.recordCodeMiss(ctx, actor, terminal)
		s.recordSearch(ctx, actor, "code", 0)
		return nil, nil
	}
	s.recordSearch(ctx, actor, "code", 1)
	return result, nil
}

// Search classifies a free-text query heuristically and delegates: all digits
// of length >=4 goes to phone; short alphanumerics try code first and fall
// back to name; everything else is a name.
func (s *Service) Search(ctx context.Context, actor domain.Actor, query string) (*DispatchResult, error) {
	q := strings.TrimSpace(query)
	digits := normalizeDigits(q)
	switch {
	case len(q) >= minPhoneDigits && len(digits) == len(q):
		families, err := s.SearchByPhone(ctx, actor, q)
		if err != nil {
			return nil, err
		}
		return &DispatchResult{Mode: "phone", Families: families}, nil
	case len(q) <= 4 && isAlphanumeric(q):
		code, err := s.SearchByCode(ctx, actor, q)
		if err != nil {
			return nil, err
		}
		if code != nil {
			return &DispatchResult{Mode: "code", Code: code}, nil
		}
		families, err := s.SearchByName(ctx, actor, q)
		if err != nil {
			return nil, err
		}
		return &DispatchResult{Mode: "name", Families: families}, nil
	default:
		families, err := s.SearchByName(ctx, actor, q)
		if err != nil {
			return nil, err
		}
		return &DispatchResult{Mode: "name", Families: families}, nil
	}
}

// DispatchResult is the free-text search response: the modality actually
// used plus its payload.
type DispatchResult struct {
	Mode     string         `json:"mode"`
	Families []FamilyResult `json:"families,omitempty"`
	Code     *CodeResult    `json:"code,omitempty"`
}

// ---------------------------------------------------------------------------
// internals
// ---------------------------------------------------------------------------

func (s *Service) authorize(ctx context.Context, actor domain.Actor, mode string) error {
	if actor.IsAuthenticated() {
		return nil
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "unauthenticated search rejected", "mode", mode)
	}
	s.emit(ctx, audit.Event{
		Action:  audit.ActionUnauthenticated,
		Subject: mode,
		Outcome: "rejected",
	})
	return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
}

// resolveCode is the "found" path for code search. Any resolution failure
// after the code matched collapses into not-found: the caller never learns
// which step broke.
func (s *Service) resolveCode(ctx context.Context, code string) (*CodeResult, bool, error) {
	now := requestcontext.Now(ctx)
	att, err := s.store.FindLatestAttendanceByCodeOn(ctx, code, now)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "code search failed")
	}

	person, err := s.store.GetPerson(ctx, att.PersonID)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "code search failed")
	}
	familyID, err := s.store.FamilyIDForPerson(ctx, att.PersonID)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "code search failed")
	}

	bundles, err := s.loader.LoadFamilyData(ctx, []domain.FamilyID{familyID}, now.Add(-recentCheckinWindow))
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "code search failed")
	}
	bundle, ok := bundles[familyID]
	if !ok {
		return nil, false, nil
	}

	return &CodeResult{
		AttendanceID: att.ID,
		Child:        memberResult(models.FamilyMember{Person: *person}, bundle, now),
		Family:       familyResult(bundle, now),
		CheckedInAt:  att.StartedAt,
	}, true, nil
}

func (s *Service) recordSearch(ctx context.Context, actor domain.Actor, mode string, hits int) {
	if s.metrics != nil {
		s.metrics.ObserveResults(mode, hits)
		if hits == 0 {
			s.metrics.IncPadding(mode)
		}
	}
	s.emit(ctx, audit.Event{
		Action:  audit.ActionSearchExecuted,
		ActorID: actor.ID.String(),
		Subject: mode,
		Outcome: "ok",
		Detail:  strconv.Itoa(hits) + " results",
	})
}

func (s *Service) recordCodeMiss(ctx context.Context, actor domain.Actor, terminal string) {
	if s.lockout == nil {
		return
	}
	if tripped := s.lockout.RecordMiss(ctx, terminal); tripped {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "code guess lockout tripped", "terminal", terminal)
		}
		if s.metrics != nil {
			s.metrics.IncLockouts()
		}
		s.emit(ctx, audit.Event{
			Action:  audit.ActionCodeLockout,
			ActorID: actor.ID.String(),
			Subject: terminal,
			Outcome: "locked",
		})
	}
}

func (s *Service) assembleFamilies(ctx context.Context, ids []domain.FamilyID) ([]FamilyResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	now := requestcontext.Now(ctx)
	bundles, err := s.loader.LoadFamilyData(ctx, ids, now.Add(-recentCheckinWindow))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "family load failed")
	}
	out := make([]FamilyResult, 0, len(bundles))
	for _, id := range ids {
		bundle, ok := bundles[id]
		if !ok {
			continue
		}
		out = append(out, familyResult(bundle, now))
	}
	return out, nil
}

func familyResult(bundle *models.FamilyDataBundle, now time.Time) FamilyResult {
	fr := FamilyResult{
		FamilyID:   bundle.Family.ID,
		Name:       bundle.Family.Name,
		CampusName: bundle.Family.CampusName,
		Members:    make([]MemberResult, 0, len(bundle.Members)),
	}
	for _, m := range bundle.Members {
		fr.Members = append(fr.Members, memberResult(m, bundle, now))
	}
	return fr
}

func memberResult(m models.FamilyMember, bundle *models.FamilyDataBundle, now time.Time) MemberResult {
	mr := MemberResult{
		PersonID:      m.Person.ID,
		Name:          m.Person.FullName(),
		Age:           m.Person.Age(now),
		Grade:         m.Person.Grade,
		IsAdult:       m.Person.IsAdult,
		HasAllergy:    m.Person.HasAllergy,
		SpecialNeeds:  m.Person.SpecialNeeds,
		RecentCheckin: bundle.HasRecentCheckin(m.Person.ID),
	}
	if t, ok := bundle.LastCheckinAt[m.Person.ID]; ok {
		mr.LastCheckinAt = &t
	}
	return mr
}

func (s *Service) observe(ctx context.Context, mode string, start time.Time) {
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveSearch(mode, elapsed)
	}
	if elapsed > softLatencyTarget && s.logger != nil {
		s.logger.WarnContext(ctx, "search exceeded soft latency target",
			"mode", mode,
			"elapsed", elapsed,
			"target", softLatencyTarget,
		)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
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

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isDigit := r >= '0' && r <= '9'
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isDigit && !isAlpha {
			return false
		}
	}
	return true
}
