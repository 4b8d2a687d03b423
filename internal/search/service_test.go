package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"steeple/internal/audit"
	"steeple/internal/checkin/models"
	"steeple/internal/checkin/store"
	"steeple/internal/family/loader"
	"steeple/internal/ratelimit/codelockout"
	"steeple/pkg/domain"
	dErrors "steeple/pkg/domain-errors"
	"steeple/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite

	store    *store.Memory
	auditLog *audit.InMemoryStore
	service  *Service

	actor domain.Actor
	now   time.Time

	family  domain.FamilyID
	child   domain.PersonID
	mother  domain.PersonID
	attID   domain.AttendanceID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewMemory()
	s.auditLog = audit.NewInMemoryStore()

	familyLoader, err := loader.New(s.store)
	require.NoError(s.T(), err)

	lockout := codelockout.New(codelockout.NewMemoryCounter(),
		codelockout.WithPolicy(3, time.Minute, time.Minute))

	svc, err := New(s.store, familyLoader,
		WithLockout(lockout),
		WithAudit(audit.NewPublisher(s.auditLog)),
	)
	require.NoError(s.T(), err)
	s.service = svc

	s.actor = domain.Actor{ID: domain.NewActorID(), Name: "Front Desk"}
	s.now = time.Date(2026, 3, 8, 10, 30, 0, 0, time.UTC)

	s.family = domain.NewFamilyID()
	s.child = domain.NewPersonID()
	s.mother = domain.NewPersonID()

	s.store.AddFamily(models.Family{ID: s.family, Name: "Okafor", CampusName: "North"})
	s.store.AddMember(models.FamilyMember{
		Person:   models.Person{ID: s.mother, FirstName: "Adaeze", LastName: "Okafor", IsAdult: true},
		FamilyID: s.family,
		Role:     models.RoleAdult,
		IsActive: true,
	})
	s.store.AddMember(models.FamilyMember{
		Person:   models.Person{ID: s.child, FirstName: "Chidi", LastName: "Okafor"},
		FamilyID: s.family,
		Role:     models.RoleChild,
		IsActive: true,
	})
	s.store.AddPhone(s.mother, "5550101234")

	s.attID = domain.NewAttendanceID()
	s.store.AddAttendance(models.AttendanceRecord{
		ID:           s.attID,
		PersonID:     s.child,
		SecurityCode: "QF7D",
		IssuedOn:     s.now,
		StartedAt:    s.now.Add(-time.Hour),
	})
}

func (s *ServiceSuite) ctx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithTerminalID(ctx, "terminal-1")
}

func (s *ServiceSuite) TestSearchByPhone() {
	s.T().Run("matches a formatted number by suffix", func(t *testing.T) {
		s.SetupTest()
		results, err := s.service.SearchByPhone(s.ctx(), s.actor, "(555) 010-1234")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, s.family, results[0].FamilyID)
	})

	s.T().Run("matches a bare suffix", func(t *testing.T) {
		s.SetupTest()
		results, err := s.service.SearchByPhone(s.ctx(), s.actor, "1234")
		require.NoError(t, err)
		require.Len(t, results, 1)
	})

	s.T().Run("members come back adults first", func(t *testing.T) {
		s.SetupTest()
		results, err := s.service.SearchByPhone(s.ctx(), s.actor, "1234")
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Len(t, results[0].Members, 2)
		assert.True(t, results[0].Members[0].IsAdult)
		assert.False(t, results[0].Members[1].IsAdult)
	})

	s.T().Run("home phone also matches", func(t *testing.T) {
		s.SetupTest()
		other := domain.NewFamilyID()
		s.store.AddFamily(models.Family{ID: other, Name: "Singh", HomePhone: "555-867-5309"})
		s.store.AddMember(models.FamilyMember{
			Person:   models.Person{ID: domain.NewPersonID(), FirstName: "Arjun", LastName: "Singh", IsAdult: true},
			FamilyID: other,
			Role:     models.RoleAdult,
			IsActive: true,
		})

		results, err := s.service.SearchByPhone(s.ctx(), s.actor, "5309")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, other, results[0].FamilyID)
	})

	s.T().Run("short queries return empty without searching", func(t *testing.T) {
		s.SetupTest()
		results, err := s.service.SearchByPhone(s.ctx(), s.actor, "123")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	s.T().Run("no match returns empty", func(t *testing.T) {
		s.SetupTest()
		results, err := s.service.SearchByPhone(s.ctx(), s.actor, "0000")
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func (s *ServiceSuite) TestSearchByName() {
	s.T().Run("prefix match finds the family", func(t *testing.T) {
		s.SetupTest()
		results, err := s.service.SearchByName(s.ctx(), s.actor, "Oka")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Okafor", results[0].Name)
	})

	s.T().Run("substring match also finds it", func(t *testing.T) {
		s.SetupTest()
		results, err := s.service.SearchByName(s.ctx(), s.actor, "kafo")
		require.NoError(t, err)
		require.Len(t, results, 1)
	})

	s.T().Run("deceased persons never match", func(t *testing.T) {
		s.SetupTest()
		gone := domain.NewFamilyID()
		s.store.AddFamily(models.Family{ID: gone, Name: "Halloway"})
		s.store.AddMember(models.FamilyMember{
			Person:   models.Person{ID: domain.NewPersonID(), FirstName: "Edith", LastName: "Halloway", IsDeceased: true},
			FamilyID: gone,
			Role:     models.RoleAdult,
			IsActive: true,
		})

		results, err := s.service.SearchByName(s.ctx(), s.actor, "Halloway")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	s.T().Run("blank query returns empty", func(t *testing.T) {
		s.SetupTest()
		results, err := s.service.SearchByName(s.ctx(), s.actor, "   ")
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func (s *ServiceSuite) TestSearchByCode() {
	s.T().Run("same-day code resolves the checked-in child", func(t *testing.T) {
		s.SetupTest()
		result, err := s.service.SearchByCode(s.ctx(), s.actor, "QF7D")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, s.attID, result.AttendanceID)
		assert.Equal(t, s.child, result.Child.PersonID)
		assert.Equal(t, s.family, result.Family.FamilyID)
	})

	s.T().Run("lookup is case-insensitive", func(t *testing.T) {
		s.SetupTest()
		result, err := s.service.SearchByCode(s.ctx(), s.actor, "qf7d")
		require.NoError(t, err)
		require.NotNil(t, result)
	})

	s.T().Run("a code issued yesterday does not match today", func(t *testing.T) {
		s.SetupTest()
		yesterday := s.now.AddDate(0, 0, -1)
		s.store.AddAttendance(models.AttendanceRecord{
			ID:           domain.NewAttendanceID(),
			PersonID:     s.child,
			SecurityCode: "OLD1",
			IssuedOn:     yesterday,
			StartedAt:    yesterday,
		})

		result, err := s.service.SearchByCode(s.ctx(), s.actor, "OLD1")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	s.T().Run("repeated misses lock the terminal", func(t *testing.T) {
		s.SetupTest()
		for i := 0; i < 3; i++ {
			result, err := s.service.SearchByCode(s.ctx(), s.actor, "NOPE")
			require.NoError(t, err)
			assert.Nil(t, result)
		}

		_, err := s.service.SearchByCode(s.ctx(), s.actor, "QF7D")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		var sawLockout bool
		for _, e := range s.auditLog.Events() {
			if e.Action == audit.ActionCodeLockout {
				sawLockout = true
			}
		}
		assert.True(t, sawLockout)
	})

	s.T().Run("hits never count toward the lockout", func(t *testing.T) {
		s.SetupTest()
		for i := 0; i < 5; i++ {
			result, err := s.service.SearchByCode(s.ctx(), s.actor, "QF7D")
			require.NoError(t, err)
			require.NotNil(t, result)
		}
	})
}

func (s *ServiceSuite) TestSearchDispatch() {
	s.T().Run("all digits routes to phone", func(t *testing.T) {
		s.SetupTest()
		result, err := s.service.Search(s.ctx(), s.actor, "1234")
		require.NoError(t, err)
		assert.Equal(t, "phone", result.Mode)
		assert.Len(t, result.Families, 1)
	})

	s.T().Run("short alphanumeric that matches a code routes to code", func(t *testing.T) {
		s.SetupTest()
		result, err := s.service.Search(s.ctx(), s.actor, "QF7D")
		require.NoError(t, err)
		assert.Equal(t, "code", result.Mode)
		require.NotNil(t, result.Code)
	})

	s.T().Run("short alphanumeric that misses falls back to name", func(t *testing.T) {
		s.SetupTest()
		result, err := s.service.Search(s.ctx(), s.actor, "Oka")
		require.NoError(t, err)
		assert.Equal(t, "name", result.Mode)
		assert.Len(t, result.Families, 1)
	})

	s.T().Run("longer text routes to name", func(t *testing.T) {
		s.SetupTest()
		result, err := s.service.Search(s.ctx(), s.actor, "Okafor")
		require.NoError(t, err)
		assert.Equal(t, "name", result.Mode)
	})
}

func (s *ServiceSuite) TestAuthorization() {
	s.T().Run("unauthenticated callers are rejected and audited", func(t *testing.T) {
		s.SetupTest()
		_, err := s.service.SearchByPhone(s.ctx(), domain.Actor{}, "1234")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

		events := s.auditLog.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionUnauthenticated, events[0].Action)
	})
}
