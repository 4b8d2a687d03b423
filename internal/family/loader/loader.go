// Package loader assembles per-family data bundles for search results in a
// bounded number of storage round trips, so live check-in traffic never pays
// a per-member query.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"steeple/internal/checkin/models"
	"steeple/internal/family/loader/metrics"
	"steeple/pkg/domain"
)

// Store is the batched query contract the loader consumes. Every method takes
// the whole id set; implementations must resolve each call in one round trip.
type Store interface {
	ListFamilies(ctx context.Context, ids []domain.FamilyID) ([]models.Family, error)
	ListActiveMembers(ctx context.Context, familyIDs []domain.FamilyID) ([]models.FamilyMember, error)
	ListCheckinsSince(ctx context.Context, personIDs []domain.PersonID, since time.Time) ([]models.AttendanceRecord, error)
}

// Loader builds FamilyDataBundles. Stateless apart from injected deps.
type Loader struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger attaches a logger for partial-result warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) {
		l.metrics = m
	}
}

// New constructs a Loader.
func New(store Store, opts ...Option) (*Loader, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	l := &Loader{store: store}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// LoadFamilyData resolves families, their active members, and recent check-in
// history in exactly three batched round trips regardless of |familyIDs|.
//
// A storage error aborts the whole load. A family id that resolves to nothing
// is a soft omission: it is logged and left out of the result so one stale id
// cannot sink an otherwise-successful multi-family search.
func (l *Loader) LoadFamilyData(ctx context.Context, familyIDs []domain.FamilyID, recentWindowStart time.Time) (map[domain.FamilyID]*models.FamilyDataBundle, error) {
	out := make(map[domain.FamilyID]*models.FamilyDataBundle, len(familyIDs))
	if len(familyIDs) == 0 {
		return out, nil
	}

	families, err := l.store.ListFamilies(ctx, familyIDs)
	if err != nil {
		return nil, fmt.Errorf("load families: %w", err)
	}
	l.observeBatch("families", len(families))
	for _, f := range families {
		out[f.ID] = &models.FamilyDataBundle{
			Family:            f,
			RecentlyCheckedIn: make(map[domain.PersonID]struct{}),
			LastCheckinAt:     make(map[domain.PersonID]time.Time),
		}
	}
	l.logMissing(ctx, familyIDs, out)

	members, err := l.store.ListActiveMembers(ctx, familyIDs)
	if err != nil {
		return nil, fmt.Errorf("load family members: %w", err)
	}
	l.observeBatch("members", len(members))
	personIDs := make([]domain.PersonID, 0, len(members))
	for _, m := range members {
		bundle, ok := out[m.FamilyID]
		if !ok {
			continue
		}
		bundle.Members = append(bundle.Members, m)
		personIDs = append(personIDs, m.Person.ID)
	}
	for _, bundle := range out {
		sortMembers(bundle.Members)
	}

	if len(personIDs) == 0 {
		return out, nil
	}

	checkins, err := l.store.ListCheckinsSince(ctx, personIDs, recentWindowStart)
	if err != nil {
		return nil, fmt.Errorf("load recent checkins: %w", err)
	}
	l.observeBatch("checkins", len(checkins))
	lastSeen := make(map[domain.PersonID]time.Time, len(checkins))
	for _, c := range checkins {
		if t, ok := lastSeen[c.PersonID]; !ok || c.StartedAt.After(t) {
			lastSeen[c.PersonID] = c.StartedAt
		}
	}
	for _, bundle := range out {
		for _, m := range bundle.Members {
			if t, ok := lastSeen[m.Person.ID]; ok {
				bundle.RecentlyCheckedIn[m.Person.ID] = struct{}{}
				bundle.LastCheckinAt[m.Person.ID] = t
			}
		}
	}

	return out, nil
}

// sortMembers orders adults before children, then by last/first name so
// terminal result lists are stable.
func sortMembers(members []models.FamilyMember) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.Person.IsAdult != b.Person.IsAdult {
			return a.Person.IsAdult
		}
		if a.Person.LastName != b.Person.LastName {
			return a.Person.LastName < b.Person.LastName
		}
		return a.Person.FirstName < b.Person.FirstName
	})
}

func (l *Loader) observeBatch(stage string, n int) {
	if l.metrics != nil {
		l.metrics.ObserveBatch(stage, n)
	}
}

func (l *Loader) logMissing(ctx context.Context, requested []domain.FamilyID, resolved map[domain.FamilyID]*models.FamilyDataBundle) {
	if l.logger == nil || len(resolved) == len(requested) {
		return
	}
	for _, id := range requested {
		if _, ok := resolved[id]; !ok {
			l.logger.WarnContext(ctx, "family id did not resolve, omitting from batch",
				"family_id", id.String(),
			)
		}
	}
}
