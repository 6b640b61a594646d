package feed

import "context"

// Gate guards mutating actions behind a signed-in session.
type Gate struct {
	sessions SessionSource
	notifier Notifier
}

// NewGate creates a gate. A nil notifier discards reports.
func NewGate(sessions SessionSource, notifier Notifier) *Gate {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Gate{sessions: sessions, notifier: notifier}
}

// RequireSession returns the current session or reports and returns ErrAuthenticationRequired.
func (g *Gate) RequireSession(ctx context.Context) (Session, error) {
	if g.sessions != nil {
		if s, ok := g.sessions.CurrentSession(ctx); ok && s.UserID != "" {
			return s, nil
		}
	}
	g.notifier.Report(KindAuthenticationRequired, "Sign in to continue")
	return Session{}, ErrAuthenticationRequired
}
