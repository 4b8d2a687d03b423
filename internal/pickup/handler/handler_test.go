package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steeple/internal/checkin/models"
	"steeple/internal/checkin/store"
	"steeple/internal/pickup"
	"steeple/pkg/domain"
	authmw "steeple/pkg/platform/middleware/auth"
	"steeple/pkg/requestcontext"
)

type env struct {
	store  *store.Memory
	router chi.Router
	actor  domain.Actor
	now    time.Time

	child  domain.PersonID
	mother domain.PersonID
	att    domain.AttendanceID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store: store.NewMemory(),
		actor: domain.Actor{ID: domain.NewActorID(), Name: "Front Desk"},
		now:   time.Date(2026, 3, 8, 10, 30, 0, 0, time.UTC),
	}

	svc, err := pickup.New(e.store)
	require.NoError(t, err)

	e.router = chi.NewRouter()
	New(svc, testLogger()).Register(e.router)

	family := domain.NewFamilyID()
	e.child = domain.NewPersonID()
	e.mother = domain.NewPersonID()
	e.store.AddFamily(models.Family{ID: family, Name: "Alvarez"})
	e.store.AddMember(models.FamilyMember{
		Person:   models.Person{ID: e.child, FirstName: "Mia", LastName: "Alvarez"},
		FamilyID: family, Role: models.RoleChild, IsActive: true,
	})
	e.store.AddMember(models.FamilyMember{
		Person:   models.Person{ID: e.mother, FirstName: "Rosa", LastName: "Alvarez", IsAdult: true},
		FamilyID: family, Role: models.RoleAdult, IsActive: true,
	})
	e.store.AddPickupEntry(models.AuthorizedPickupEntry{
		ID: domain.NewPickupEntryID(), ChildID: e.child, PersonID: &e.mother,
		Level: domain.LevelAlways, IsActive: true, CreatedAt: e.now,
	})

	e.att = domain.NewAttendanceID()
	e.store.AddAttendance(models.AttendanceRecord{
		ID: e.att, PersonID: e.child, SecurityCode: "ZXK4",
		IssuedOn: e.now, StartedAt: e.now.Add(-time.Hour),
	})
	return e
}

func (e *env) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	ctx := requestcontext.WithTime(req.Context(), e.now)
	ctx = authmw.WithActor(ctx, e.actor)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestHandleVerify(t *testing.T) {
	t.Run("authorized verdict", func(t *testing.T) {
		e := newEnv(t)
		rec := e.post(t, "/pickup/verify", map[string]any{
			"attendance_id":    e.att.String(),
			"security_code":    "ZXK4",
			"pickup_person_id": e.mother.String(),
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var v pickup.Verdict
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.True(t, v.Authorized)
	})

	t.Run("malformed attendance id", func(t *testing.T) {
		e := newEnv(t)
		rec := e.post(t, "/pickup/verify", map[string]any{
			"attendance_id": "not-a-uuid",
			"security_code": "ZXK4",
			"pickup_name":   "Rosa",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown json fields are rejected", func(t *testing.T) {
		e := newEnv(t)
		rec := e.post(t, "/pickup/verify", map[string]any{
			"attendance_id": e.att.String(),
			"security_code": "ZXK4",
			"pickup_name":   "Rosa",
			"surprise":      true,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleRecord(t *testing.T) {
	t.Run("created with log entry body", func(t *testing.T) {
		e := newEnv(t)
		rec := e.post(t, "/pickup/record", map[string]any{
			"attendance_id":    e.att.String(),
			"pickup_person_id": e.mother.String(),
			"was_authorized":   true,
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var logged models.PickupLogEntry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logged))
		assert.Equal(t, e.child, logged.ChildID)
	})

	t.Run("conflicting flags map to bad request", func(t *testing.T) {
		e := newEnv(t)
		rec := e.post(t, "/pickup/record", map[string]any{
			"attendance_id":       e.att.String(),
			"pickup_name":         "Rosa",
			"was_authorized":      true,
			"supervisor_override": true,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("blocked bypass maps to forbidden", func(t *testing.T) {
		e := newEnv(t)
		blocked := domain.NewPersonID()
		e.store.AddPickupEntry(models.AuthorizedPickupEntry{
			ID: domain.NewPickupEntryID(), ChildID: e.child, PersonID: &blocked,
			Level: domain.LevelNever, IsActive: true, CreatedAt: e.now,
		})
		rec := e.post(t, "/pickup/record", map[string]any{
			"attendance_id":       e.att.String(),
			"pickup_person_id":    blocked.String(),
			"supervisor_override": true,
			"supervisor_id":       domain.NewActorID().String(),
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandleAutoPopulate(t *testing.T) {
	e := newEnv(t)
	rec := e.post(t, "/pickup/auto-populate", map[string]any{
		"child_id": e.child.String(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Added int `json:"added"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// The mother already has an entry; nothing new to add.
	assert.Zero(t, resp.Added)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
