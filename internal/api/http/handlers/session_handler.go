package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firewatch/incident-service/internal/api/dto"
	"github.com/firewatch/incident-service/internal/auth"
	"github.com/firewatch/incident-service/internal/service"
	"github.com/firewatch/incident-service/internal/session"
	apperrors "github.com/firewatch/incident-service/pkg/util/errorutil"
)

// SessionHandler exposes the unauthenticated landing view, the manual
// logout action, and a watch stream that keeps a guard mounted for the
// lifetime of the connection.
type SessionHandler struct {
	sessions  *service.SessionService
	stores    session.StoreProvider
	policy    session.Policy
	recheck   time.Duration
	loginPath string
	cookie    string
	clock     session.Clock
	logger    *zap.Logger
}

// SessionHandlerConfig bundles construction inputs.
type SessionHandlerConfig struct {
	Sessions  *service.SessionService
	Stores    session.StoreProvider
	Policy    session.Policy
	Recheck   time.Duration
	LoginPath string
	Cookie    string
	Clock     session.Clock
	Logger    *zap.Logger
}

// NewSessionHandler constructs handler.
func NewSessionHandler(cfg SessionHandlerConfig) *SessionHandler {
	clock := cfg.Clock
	if clock == nil {
		clock = session.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{
		sessions:  cfg.Sessions,
		stores:    cfg.Stores,
		policy:    cfg.Policy,
		recheck:   cfg.Recheck,
		loginPath: cfg.LoginPath,
		cookie:    cfg.Cookie,
		clock:     clock,
		logger:    logger,
	}
}

// LoginView handles GET /login, the unauthenticated landing view. It only
// echoes the denial context a guard forwarded; credential issuance belongs
// to the external login collaborator.
func (h *SessionHandler) LoginView(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": dto.LoginViewResponse{
			Reason:   c.Query("reason"),
			ReturnTo: c.Query("return_to"),
			Message:  "sign in to continue",
		},
	})
}

// Logout handles POST /session/logout: the guard's fail-closed clear,
// exposed as the manual return-to-login action. Idempotent when nothing is
// stored.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	group := c.Cookies(h.cookie)
	if group == "" {
		// Nothing persisted for this caller; clearing is a no-op.
		return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
	}

	contextID := c.Get(auth.HeaderContextID)
	if contextID == "" {
		contextID = uuid.NewString()
	}

	if err := h.sessions.Logout(c.UserContext(), group, contextID); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// Watch handles GET /session/watch. It mounts a guard for the lifetime of
// the connection and streams state transitions as server-sent events, so a
// logout in a sibling context reaches this one without any navigation.
func (h *SessionHandler) Watch(c *fiber.Ctx) error {
	group := c.Cookies(h.cookie)
	if group == "" {
		return apperrors.NewUnauthorized(string(session.ReasonNotAuthenticated))
	}

	contextID := c.Get(auth.HeaderContextID)
	if contextID == "" {
		contextID = uuid.NewString()
	}

	// Capture everything before the handler returns; the fiber context is
	// recycled once streaming starts.
	store := h.stores.ForContext(group, contextID)
	channel := h.stores.ChannelFor(group)
	target := c.OriginalURL()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		nav := newStreamRedirector(w)
		guard := session.NewGuard(session.GuardConfig{
			Store:           store,
			Channel:         channel,
			Nav:             nav,
			Policy:          h.policy,
			Clock:           h.clock,
			Logger:          h.logger,
			ContextID:       contextID,
			LoginPath:       h.loginPath,
			RecheckInterval: h.recheck,
		})
		defer guard.Unmount()

		decision := guard.Mount(context.Background(), target)
		if decision.Authorized() {
			if err := nav.writeState("authorized", nil); err != nil {
				return
			}
		}

		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-nav.done:
				return
			case <-ticker.C:
				if err := nav.ping(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

// streamRedirector adapts the guard's navigation collaborator to a
// server-sent event stream: a denial becomes a "denied" event telling the
// client where to go. Repeated redirects and redirects racing the
// connection teardown are no-ops.
type streamRedirector struct {
	mu   sync.Mutex
	w    *bufio.Writer
	done chan struct{}
	once sync.Once
}

func newStreamRedirector(w *bufio.Writer) *streamRedirector {
	return &streamRedirector{w: w, done: make(chan struct{})}
}

// Redirect implements session.Redirector.
func (r *streamRedirector) Redirect(path string, reason session.Reason, returnTo string) {
	_ = r.writeState("denied", map[string]string{
		"reason":    string(reason),
		"login":     path,
		"return_to": returnTo,
	})
	r.once.Do(func() { close(r.done) })
}

func (r *streamRedirector) ping() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := fmt.Fprint(r.w, ": ping\n\n"); err != nil {
		return err
	}
	return r.w.Flush()
}

func (r *streamRedirector) writeState(event string, fields map[string]string) error {
	payload := map[string]string{"state": event}
	for k, v := range fields {
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := fmt.Fprintf(r.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return r.w.Flush()
}
