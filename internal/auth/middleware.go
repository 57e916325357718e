package auth

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firewatch/incident-service/internal/domain"
	"github.com/firewatch/incident-service/internal/events"
	"github.com/firewatch/incident-service/internal/observability"
	"github.com/firewatch/incident-service/internal/session"
	apperrors "github.com/firewatch/incident-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// HeaderContextID lets a browsing context identify itself so clears it
// performs are not signalled back to its own subscriptions. Absent the
// header, each request counts as its own context.
const HeaderContextID = "X-Context-Id"

// Principal carries the validated credential for downstream handlers.
type Principal struct {
	Role         domain.Role
	Token        string
	ContextGroup string
}

// GuardMiddleware binds a session-guard evaluation to every navigation
// into a protected route. Each request is one guard mount: read the
// caller's persisted credential store, run the validation algorithm,
// clear the store on denial, then render exactly one outcome: the
// protected handler, or a denial with a route back to login.
type GuardMiddleware struct {
	stores     session.StoreProvider
	maxAge     session.Policy
	loginPath  string
	cookie     string
	clock      session.Clock
	logger     *zap.Logger
	metrics    *observability.Metrics
	dispatcher events.Dispatcher
}

// GuardDependencies bundles construction inputs.
type GuardDependencies struct {
	Stores     session.StoreProvider
	Policy     session.Policy
	LoginPath  string
	Cookie     string
	Clock      session.Clock
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Dispatcher events.Dispatcher
}

// NewGuardMiddleware constructs the middleware.
func NewGuardMiddleware(deps GuardDependencies) *GuardMiddleware {
	clock := deps.Clock
	if clock == nil {
		clock = session.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loginPath := deps.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	cookie := deps.Cookie
	if cookie == "" {
		cookie = "fw_context"
	}
	return &GuardMiddleware{
		stores:     deps.Stores,
		maxAge:     deps.Policy,
		loginPath:  loginPath,
		cookie:     cookie,
		clock:      clock,
		logger:     logger,
		metrics:    deps.Metrics,
		dispatcher: deps.Dispatcher,
	}
}

// RequireAny admits any authenticated role.
func (m *GuardMiddleware) RequireAny() fiber.Handler {
	return m.require(nil)
}

// RequireRole admits only an exact role match.
func (m *GuardMiddleware) RequireRole(role domain.Role) fiber.Handler {
	return m.require(&role)
}

func (m *GuardMiddleware) require(role *domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		group := c.Cookies(m.cookie)
		if group == "" {
			// No persisted store to consult or clear; fail closed.
			return m.deny(c, session.ReasonNotAuthenticated)
		}

		contextID := c.Get(HeaderContextID)
		if contextID == "" {
			contextID = uuid.NewString()
		}
		store := m.stores.ForContext(group, contextID)

		policy := session.Policy{MaxAge: m.maxAge.MaxAge, RequiredRole: role}
		decision, cred := session.Check(c.UserContext(), store, policy, m.clock, m.logger)
		m.metrics.RecordDecision(string(decision.Reason), decision.Authorized())

		if !decision.Authorized() {
			if decision.Reason == session.ReasonSessionExpired && m.dispatcher != nil {
				_ = m.dispatcher.Publish(c.UserContext(), events.Event{
					ID:        uuid.NewString(),
					Type:      events.EventSessionExpired,
					SubjectID: group,
					Actor:     events.Actor{ContextGroup: group},
					Timestamp: time.Now(),
				})
			}
			return m.deny(c, decision.Reason)
		}

		c.Locals(principalKey, &Principal{
			Role:         cred.Role,
			Token:        cred.Token,
			ContextGroup: group,
		})
		return c.Next()
	}
}

// deny renders the denial outcome: browsers navigating with GET are sent to
// the login view carrying the reason and the original destination;
// everything else receives a structured error with the same context.
func (m *GuardMiddleware) deny(c *fiber.Ctx, reason session.Reason) error {
	returnTo := c.OriginalURL()
	m.logger.Info("navigation denied",
		zap.String("reason", string(reason)),
		zap.String("target", returnTo))

	if c.Method() == fiber.MethodGet {
		q := url.Values{}
		q.Set("reason", string(reason))
		q.Set("return_to", returnTo)
		return c.Redirect(m.loginPath+"?"+q.Encode(), fiber.StatusFound)
	}

	details := map[string]any{
		"reason":    string(reason),
		"return_to": returnTo,
		"login":     m.loginPath,
	}
	if reason == session.ReasonInsufficientRole {
		return apperrors.NewForbiddenWithDetails(string(reason), details)
	}
	return apperrors.NewUnauthorizedWithDetails(string(reason), details)
}

// PrincipalFromContext retrieves the validated credential, if any.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
