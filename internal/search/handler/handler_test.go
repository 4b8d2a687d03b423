package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steeple/internal/checkin/models"
	"steeple/internal/checkin/store"
	"steeple/internal/family/loader"
	"steeple/internal/search"
	"steeple/pkg/domain"
	authmw "steeple/pkg/platform/middleware/auth"
	"steeple/pkg/requestcontext"
)

type env struct {
	router chi.Router
	actor  domain.Actor
	now    time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		actor: domain.Actor{ID: domain.NewActorID(), Name: "Front Desk"},
		now:   time.Date(2026, 3, 8, 10, 30, 0, 0, time.UTC),
	}

	st := store.NewMemory()
	family := domain.NewFamilyID()
	mother := domain.NewPersonID()
	st.AddFamily(models.Family{ID: family, Name: "Okafor"})
	st.AddMember(models.FamilyMember{
		Person:   models.Person{ID: mother, FirstName: "Adaeze", LastName: "Okafor", IsAdult: true},
		FamilyID: family, Role: models.RoleAdult, IsActive: true,
	})
	st.AddPhone(mother, "5550101234")

	familyLoader, err := loader.New(st)
	require.NoError(t, err)
	svc, err := search.New(st, familyLoader)
	require.NoError(t, err)

	e.router = chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(e.router)
	return e
}

func (e *env) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	ctx := requestcontext.WithTime(req.Context(), e.now)
	ctx = authmw.WithActor(ctx, e.actor)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestSearchEndpoints(t *testing.T) {
	t.Run("phone search returns families", func(t *testing.T) {
		e := newEnv(t)
		rec := e.post(t, "/search/phone", `{"phone":"(555) 010-1234"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Families []search.FamilyResult `json:"families"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Families, 1)
		assert.Equal(t, "Okafor", resp.Families[0].Name)
	})

	t.Run("empty result is an empty array, not null", func(t *testing.T) {
		e := newEnv(t)
		rec := e.post(t, "/search/phone", `{"phone":"0000"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"families":[]`)
	})

	t.Run("name search returns families", func(t *testing.T) {
		e := newEnv(t)
		rec := e.post(t, "/search/name", `{"name":"Okafor"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Okafor")
	})

	t.Run("code miss reports found false", func(t *testing.T) {
		e := newEnv(t)
		rec := e.post(t, "/search/code", `{"code":"XXXX"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"found":false`)
	})

	t.Run("free-text dispatch reports its mode", func(t *testing.T) {
		e := newEnv(t)
		rec := e.post(t, "/search", `{"query":"1234"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp search.DispatchResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "phone", resp.Mode)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		e := newEnv(t)
		rec := e.post(t, "/search/phone", `{"phone":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unauthenticated request is unauthorized", func(t *testing.T) {
		e := newEnv(t)
		req := httptest.NewRequest(http.MethodPost, "/search/phone", strings.NewReader(`{"phone":"1234"}`))
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
