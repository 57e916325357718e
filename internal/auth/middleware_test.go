package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/firewatch/incident-service/internal/api/http"
	"github.com/firewatch/incident-service/internal/auth"
	"github.com/firewatch/incident-service/internal/domain"
	"github.com/firewatch/incident-service/internal/events"
	"github.com/firewatch/incident-service/internal/observability"
	"github.com/firewatch/incident-service/internal/session"
)

type guardFixture struct {
	app           *fiber.App
	stores        *session.MemoryStoreProvider
	clock         *session.FixedClock
	metrics       *observability.Metrics
	expiredEvents *int
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	stores := session.NewMemoryStoreProvider()
	clock := session.NewFixedClock(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
	metrics := observability.NewMetrics()

	dispatcher := events.NewInMemoryDispatcher()
	expiredEvents := new(int)
	dispatcher.Subscribe(events.EventSessionExpired, func(context.Context, events.Event) error {
		*expiredEvents++
		return nil
	})

	guard := auth.NewGuardMiddleware(auth.GuardDependencies{
		Stores:     stores,
		Policy:     session.Policy{MaxAge: 24 * time.Hour},
		LoginPath:  "/login",
		Cookie:     "fw_context",
		Clock:      clock,
		Logger:     zap.NewNop(),
		Metrics:    metrics,
		Dispatcher: dispatcher,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), metrics, 0)

	ok := func(c *fiber.Ctx) error {
		principal, found := auth.PrincipalFromContext(c)
		if !found {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"role": string(principal.Role)})
	}
	app.Get("/incidents", guard.RequireRole(domain.RoleStation), ok)
	app.Post("/incidents", guard.RequireAny(), ok)
	app.Patch("/incidents/:id/status", guard.RequireRole(domain.RoleStation), ok)

	return &guardFixture{app: app, stores: stores, clock: clock, metrics: metrics, expiredEvents: expiredEvents}
}

func (f *guardFixture) login(t *testing.T, group string, role domain.Role, issuedAt time.Time) {
	t.Helper()
	store := f.stores.ForContext(group, "seed")
	require.NoError(t, store.Write(context.Background(), domain.Credential{
		Token:    "tok-" + group,
		Role:     role,
		IssuedAt: issuedAt,
	}))
}

func withGroup(req *http.Request, group string) *http.Request {
	req.AddCookie(&http.Cookie{Name: "fw_context", Value: group})
	return req
}

func TestGuardMiddleware_AuthorizedPassesThrough(t *testing.T) {
	f := newGuardFixture(t)
	f.login(t, "g1", domain.RoleStation, f.clock.Now().Add(-time.Hour))

	req := withGroup(httptest.NewRequest(fiber.MethodGet, "/incidents", nil), "g1")
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "STATION", body["role"])
	assert.Equal(t, int64(1), f.metrics.DecisionCount("authorized"))
}

func TestGuardMiddleware_MissingCookieRedirectsGet(t *testing.T) {
	f := newGuardFixture(t)

	req := httptest.NewRequest(fiber.MethodGet, "/incidents", nil)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "not authenticated", loc.Query().Get("reason"))
	assert.Equal(t, "/incidents", loc.Query().Get("return_to"))
}

func TestGuardMiddleware_ExpiredSessionRedirectsAndClears(t *testing.T) {
	f := newGuardFixture(t)
	f.login(t, "g1", domain.RoleStation, f.clock.Now().Add(-25*time.Hour))

	req := withGroup(httptest.NewRequest(fiber.MethodGet, "/incidents", nil), "g1")
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "session expired", loc.Query().Get("reason"))

	_, present, readErr := f.stores.ForContext("g1", "seed").Read(context.Background())
	require.NoError(t, readErr)
	assert.False(t, present, "denial must clear the persisted credential")
	assert.Equal(t, int64(1), f.metrics.DecisionCount("session expired"))
	assert.Equal(t, 1, *f.expiredEvents)
}

func TestGuardMiddleware_RoleMismatchOnMutationReturnsForbidden(t *testing.T) {
	f := newGuardFixture(t)
	f.login(t, "g1", domain.RoleCitizen, f.clock.Now())

	req := withGroup(httptest.NewRequest(fiber.MethodPatch, "/incidents/42/status", nil), "g1")
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "insufficient role", body.Error.Message)
	assert.Equal(t, "/login", body.Error.Details["login"])
	assert.Equal(t, "/incidents/42/status", body.Error.Details["return_to"])
}

func TestGuardMiddleware_MissingCookieOnMutationReturnsUnauthorized(t *testing.T) {
	f := newGuardFixture(t)

	req := httptest.NewRequest(fiber.MethodPost, "/incidents", nil)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGuardMiddleware_AnyRoleAdmitsCitizen(t *testing.T) {
	f := newGuardFixture(t)
	f.login(t, "g1", domain.RoleCitizen, f.clock.Now())

	req := withGroup(httptest.NewRequest(fiber.MethodPost, "/incidents", nil), "g1")
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
