package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/firewatch/incident-service/internal/domain"
)

// State is the guard render state. Initializing is the only non-terminal
// state; Authorized and Denied hold until the next evaluation trigger.
type State int

const (
	StateInitializing State = iota
	StateAuthorized
	StateDenied
)

// String renders the state for logs.
func (s State) String() string {
	switch s {
	case StateAuthorized:
		return "authorized"
	case StateDenied:
		return "denied"
	default:
		return "initializing"
	}
}

// Reason explains a denial to the user. Each reason is deliberately
// distinct so the login view can display context.
type Reason string

const (
	ReasonNotAuthenticated Reason = "not authenticated"
	ReasonSessionExpired   Reason = "session expired"
	ReasonInsufficientRole Reason = "insufficient role"
	ReasonLoggedOut        Reason = "logged out"
)

// Decision is the derived, ephemeral outcome of one evaluation. Never
// persisted; it is a pure function of (credential, policy, now).
type Decision struct {
	State  State
	Reason Reason
}

// Authorized reports whether the protected content may render.
func (d Decision) Authorized() bool {
	return d.State == StateAuthorized
}

// Policy is the session validation configuration.
type Policy struct {
	// MaxAge bounds the session regardless of activity.
	MaxAge time.Duration
	// RequiredRole, when non-nil, restricts the view to an exact role
	// match. Nil means any authenticated role is sufficient.
	RequiredRole *domain.Role
}

// Evaluate runs the validation algorithm against a candidate credential.
// It is synchronous and side-effect free; callers own the fail-closed
// store clearing for denial outcomes.
func Evaluate(cred domain.Credential, present bool, policy Policy, now time.Time) Decision {
	if !present || !cred.Complete() {
		return Decision{State: StateDenied, Reason: ReasonNotAuthenticated}
	}
	if cred.Age(now) > policy.MaxAge {
		return Decision{State: StateDenied, Reason: ReasonSessionExpired}
	}
	if policy.RequiredRole != nil && cred.Role != *policy.RequiredRole {
		return Decision{State: StateDenied, Reason: ReasonInsufficientRole}
	}
	return Decision{State: StateAuthorized}
}

// Check reads the store, evaluates the policy and applies the fail-closed
// side effect: any denial clears the store so ambiguous or stale state
// never lingers as readable. Store errors are treated as absence. The
// validated credential accompanies an Authorized decision.
func Check(ctx context.Context, store Store, policy Policy, clock Clock, logger *zap.Logger) (Decision, domain.Credential) {
	cred, present, err := store.Read(ctx)
	if err != nil {
		logger.Warn("credential read failed, treating as absent", zap.Error(err))
		present = false
	}

	decision := Evaluate(cred, present, policy, clock.Now())
	if decision.State == StateDenied {
		if clearErr := store.Clear(ctx); clearErr != nil {
			logger.Warn("credential clear failed", zap.Error(clearErr))
		}
		return decision, domain.Credential{}
	}
	return decision, cred
}

// Redirector is the navigation collaborator. Redirect requests a transition
// to an unauthenticated landing view carrying a display reason and the
// original destination for post-login return. It must tolerate repeated
// calls with the same arguments.
type Redirector interface {
	Redirect(path string, reason Reason, returnTo string)
}

// GuardConfig bundles guard dependencies.
type GuardConfig struct {
	Store     Store
	Channel   RevocationChannel
	Nav       Redirector
	Policy    Policy
	Clock     Clock
	Logger    *zap.Logger
	ContextID string
	LoginPath string
	// RecheckInterval, when positive, re-runs the evaluation on a timer
	// while the guard stays mounted. Zero preserves the purely reactive
	// behavior: expiry is only enforced at mount, role-change and
	// revocation triggers.
	RecheckInterval time.Duration
}

// Guard gates one protected view. It evaluates the credential store on
// mount, on required-role changes and on cross-context revocation signals,
// holding exactly one render decision at all times.
type Guard struct {
	store     Store
	channel   RevocationChannel
	nav       Redirector
	clock     Clock
	logger    *zap.Logger
	contextID string
	loginPath string
	interval  time.Duration

	mu       sync.Mutex
	policy   Policy
	decision Decision
	target   string
	mounted  bool
	cancel   func()
	stopTick chan struct{}
}

// NewGuard builds an unmounted guard. Its decision starts at Initializing
// until the first evaluation completes.
func NewGuard(cfg GuardConfig) *Guard {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Guard{
		store:     cfg.Store,
		channel:   cfg.Channel,
		nav:       cfg.Nav,
		clock:     clock,
		logger:    logger,
		contextID: cfg.ContextID,
		loginPath: loginPath,
		interval:  cfg.RecheckInterval,
		policy:    cfg.Policy,
	}
}

// Mount evaluates the guard for a navigation to target and subscribes to
// the revocation channel for the lifetime of the mount.
func (g *Guard) Mount(ctx context.Context, target string) Decision {
	g.mu.Lock()
	g.target = target
	g.mounted = true
	g.mu.Unlock()

	// Subscribe before the first read so a removal racing the mount is
	// never missed; the converged Denied outcome is idempotent either way.
	if g.channel != nil {
		cancel, err := g.channel.Subscribe(g.contextID, g.onRevoked)
		if err != nil {
			g.logger.Warn("revocation subscribe failed", zap.Error(err))
		} else {
			g.mu.Lock()
			g.cancel = cancel
			g.mu.Unlock()
		}
	}

	decision := g.evaluate(ctx)

	if g.interval > 0 {
		g.startRecheck()
	}
	return decision
}

// SetRequiredRole re-evaluates a mounted guard under a new role
// requirement without remounting.
func (g *Guard) SetRequiredRole(ctx context.Context, role *domain.Role) Decision {
	g.mu.Lock()
	g.policy.RequiredRole = role
	mounted := g.mounted
	g.mu.Unlock()

	if !mounted {
		return g.Decision()
	}
	return g.evaluate(ctx)
}

// Unmount unsubscribes from the revocation channel and stops the optional
// recheck timer. Safe to call repeatedly.
func (g *Guard) Unmount() {
	g.mu.Lock()
	g.mounted = false
	cancel := g.cancel
	g.cancel = nil
	stop := g.stopTick
	g.stopTick = nil
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stop != nil {
		close(stop)
	}
}

// Decision returns the current render decision.
func (g *Guard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

func (g *Guard) evaluate(ctx context.Context) Decision {
	g.mu.Lock()
	policy := g.policy
	target := g.target
	g.mu.Unlock()

	decision, _ := Check(ctx, g.store, policy, g.clock, g.logger)

	g.mu.Lock()
	g.decision = decision
	mounted := g.mounted
	g.mu.Unlock()

	if decision.State == StateDenied {
		g.logger.Info("session denied",
			zap.String("reason", string(decision.Reason)),
			zap.String("target", target))
		if mounted && g.nav != nil {
			g.nav.Redirect(g.loginPath, decision.Reason, target)
		}
	}
	return decision
}

// onRevoked handles a cross-context token removal. The precipitating fact
// already implies an absent credential, so the full validation algorithm
// is skipped.
func (g *Guard) onRevoked() {
	g.mu.Lock()
	if !g.mounted {
		g.mu.Unlock()
		return
	}
	g.decision = Decision{State: StateDenied, Reason: ReasonLoggedOut}
	target := g.target
	g.mu.Unlock()

	g.logger.Info("session revoked by sibling context", zap.String("target", target))
	if g.nav != nil {
		g.nav.Redirect(g.loginPath, ReasonLoggedOut, target)
	}
}

func (g *Guard) startRecheck() {
	stop := make(chan struct{})
	g.mu.Lock()
	g.stopTick = stop
	g.mu.Unlock()

	go func() {
		ticker := time.NewTicker(g.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				g.mu.Lock()
				mounted := g.mounted
				g.mu.Unlock()
				if !mounted {
					return
				}
				g.evaluate(context.Background())
			}
		}
	}()
}
