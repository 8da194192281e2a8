// launcher.go -- Interactive authorization session state machine.
package oauth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Session opens an interactive, user-visible authorization surface at authorizeURL
// and blocks until the provider redirects to redirectURI, returning the full redirect URL.
// Implementations return ErrUserCancelled when the user dismisses the surface.
type Session interface {
	Authorize(ctx context.Context, authorizeURL, redirectURI string) (string, error)
}

// Phase is a Launcher's position in Idle -> AwaitingRedirect -> Succeeded|Cancelled|Failed.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingRedirect
	PhaseSucceeded
	PhaseCancelled
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingRedirect:
		return "awaiting_redirect"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseCancelled:
		return "cancelled"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Launcher drives a single authorization attempt through a Session.
// One Launcher per attempt; Launch on a used Launcher returns ErrLauncherUsed.
type Launcher struct {
	session Session

	mu    sync.Mutex
	phase Phase
}

// NewLauncher returns an idle Launcher backed by s.
func NewLauncher(s Session) *Launcher {
	return &Launcher{session: s}
}

// Phase reports the current phase. Safe to call while Launch is blocked.
func (l *Launcher) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

func (l *Launcher) setPhase(p Phase, req *AuthorizationRequest) {
	l.mu.Lock()
	l.phase = p
	l.mu.Unlock()
	slog.Debug("authorization phase", "provider", req.Provider, "phase", p.String())
}

// Launch opens authorizeURL, suspends until the session resolves, then validates the
// redirect against req.State. Context cancellation counts as the user backing out.
func (l *Launcher) Launch(ctx context.Context, authorizeURL string, req *AuthorizationRequest) (CallbackResult, error) {
	l.mu.Lock()
	if l.phase != PhaseIdle {
		l.mu.Unlock()
		return CallbackResult{}, ErrLauncherUsed
	}
	l.phase = PhaseAwaitingRedirect
	l.mu.Unlock()
	slog.Debug("authorization phase", "provider", req.Provider, "phase", PhaseAwaitingRedirect.String())

	callbackURL, err := l.session.Authorize(ctx, authorizeURL, req.RedirectURI)
	if err != nil {
		if errors.Is(err, ErrUserCancelled) || errors.Is(err, context.Canceled) {
			l.setPhase(PhaseCancelled, req)
			return CallbackResult{}, ErrUserCancelled
		}
		l.setPhase(PhaseFailed, req)
		return CallbackResult{}, &SessionError{Err: err}
	}

	res, err := ParseCallback(callbackURL, req.State)
	if err != nil {
		l.setPhase(PhaseFailed, req)
		return CallbackResult{}, err
	}
	l.setPhase(PhaseSucceeded, req)
	return res, nil
}
