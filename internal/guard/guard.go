// Package guard decides whether a navigation may proceed for the current
// session.
package guard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dtroode/storefront/internal/logger"
	"github.com/dtroode/storefront/internal/model"
)

// Outcome of a navigation.
type Outcome int

const (
	Allow Outcome = iota
	Redirect
)

func (o Outcome) String() string {
	if o == Redirect {
		return "redirect"
	}
	return "allow"
}

// Decision reasons.
const (
	ReasonUnmatched       = "unmatched"
	ReasonPublic          = "public"
	ReasonAuthorized      = "authorized"
	ReasonUnauthenticated = "unauthenticated"
	ReasonNotAdmin        = "not_admin"
	ReasonResolveTimeout  = "resolve_timeout"
)

// Decision is the result of a navigation attempt.
type Decision struct {
	Outcome Outcome
	// To is the redirect target. Empty when the navigation is allowed.
	To     string
	Reason string
	Match  Match
}

// Sessions is the read side of the session store the guard depends on.
type Sessions interface {
	Session() model.Session
	WaitResolved(ctx context.Context) (model.Session, error)
}

// Guard gates navigations on session resolution and role.
type Guard struct {
	table    *Table
	sessions Sessions
	timeout  time.Duration
	metrics  model.Metrics
	logger   *logger.Logger
}

// New creates a Guard. A non-positive timeout waits for resolution until the
// navigation context is done.
func New(table *Table, sessions Sessions, timeout time.Duration, metrics model.Metrics, logger *logger.Logger) *Guard {
	if metrics == nil {
		metrics = model.NopMetrics{}
	}
	return &Guard{
		table:    table,
		sessions: sessions,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}
}

// Navigate decides the navigation to target, a path with optional query.
// It blocks while the session is unresolved and the target needs a user.
// The only error returned is a malformed target or ctx's error.
func (g *Guard) Navigate(ctx context.Context, target string) (Decision, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to parse navigation target: %w", err)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	m, ok := g.table.Match(u.Path)
	if !ok {
		return g.decide(target, Decision{Outcome: Allow, Reason: ReasonUnmatched}), nil
	}
	if !m.RequiresAuth() {
		return g.decide(target, Decision{Outcome: Allow, Reason: ReasonPublic, Match: m}), nil
	}

	sess := g.sessions.Session()
	if !sess.Resolved() {
		sess, err = g.await(ctx, target)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return g.decide(target, Decision{
				Outcome: Redirect,
				To:      loginRedirect(u),
				Reason:  ReasonResolveTimeout,
				Match:   m,
			}), nil
		}
		if err != nil {
			return Decision{}, err
		}
	}

	switch {
	case sess.State == model.SessionAbsent:
		return g.decide(target, Decision{
			Outcome: Redirect,
			To:      loginRedirect(u),
			Reason:  ReasonUnauthenticated,
			Match:   m,
		}), nil
	case m.RequiresAdmin() && !sess.IsAdmin():
		return g.decide(target, Decision{
			Outcome: Redirect,
			To:      HomePath,
			Reason:  ReasonNotAdmin,
			Match:   m,
		}), nil
	default:
		return g.decide(target, Decision{Outcome: Allow, Reason: ReasonAuthorized, Match: m}), nil
	}
}

func (g *Guard) await(ctx context.Context, target string) (model.Session, error) {
	g.logger.Debug("Navigation guard: waiting for session resolution",
		"target", target)

	waitCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	sess, err := g.sessions.WaitResolved(waitCtx)
	g.metrics.RecordGuardWait(time.Since(start))

	if err != nil {
		g.logger.Warn("Navigation guard: session did not resolve",
			"target", target,
			"error", err.Error())
	}

	return sess, err
}

func (g *Guard) decide(target string, d Decision) Decision {
	g.metrics.RecordNavigation(d.Outcome.String(), d.Reason)

	if d.Outcome == Redirect {
		g.logger.Info("Navigation guard: redirecting",
			"target", target,
			"to", d.To,
			"reason", d.Reason)
	} else {
		g.logger.Debug("Navigation guard: allowing",
			"target", target,
			"reason", d.Reason)
	}

	return d
}

// loginRedirect builds the login URL carrying the originally requested path.
func loginRedirect(u *url.URL) string {
	q := url.Values{}
	q.Set(RedirectQueryKey, u.RequestURI())
	return LoginPath + "?" + q.Encode()
}
