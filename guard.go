package nexus

// GuardAction is the outcome of a guard evaluation.
type GuardAction string

const (
	// GuardDefer means the controller is still initializing: render a
	// neutral placeholder and decide later, never redirect early.
	GuardDefer GuardAction = "defer"
	// GuardAllow renders the protected content.
	GuardAllow GuardAction = "allow"
	// GuardRedirect sends an anonymous visitor to sign-in, carrying the
	// originally requested location.
	GuardRedirect GuardAction = "redirect"
	// GuardDeny renders an access-denied view in place. The user is known,
	// just not authorized, so no re-authentication is prompted.
	GuardDeny GuardAction = "deny"
)

// GuardDecision is the guard's instruction to the navigation layer. The guard
// never performs navigation itself.
type GuardDecision struct {
	Action GuardAction
	// RedirectTo is the sign-in route for GuardRedirect decisions.
	RedirectTo string
	// From is the originally requested location, preserved so sign-in can
	// return the user to it.
	From string
	// Required lists the acceptable roles for GuardDeny decisions.
	Required []Role
}

// Guard gates access to views that require a session or a specific role. It
// holds no mutable state: every evaluation is a pure function of the snapshot
// and the constraint, re-run on each navigation since role can change
// mid-session.
type Guard struct {
	signInPath string
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

// WithSignInPath overrides the sign-in route anonymous visitors redirect to.
func WithSignInPath(path string) GuardOption {
	return func(g *Guard) {
		if path != "" {
			g.signInPath = path
		}
	}
}

// NewGuard builds a route guard. The default sign-in route is /login.
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{signInPath: "/login"}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Evaluate decides whether the view at target may render for the given
// controller snapshot. An empty role constraint admits any authenticated
// user.
func (g *Guard) Evaluate(snap Snapshot, target string, roles ...Role) GuardDecision {
	if snap.Phase == PhaseInitializing {
		return GuardDecision{Action: GuardDefer}
	}

	if snap.User == nil {
		return GuardDecision{
			Action:     GuardRedirect,
			RedirectTo: g.signInPath,
			From:       target,
		}
	}

	if len(roles) > 0 && !roleAccepted(snap.User.Role, roles) {
		return GuardDecision{Action: GuardDeny, Required: roles}
	}

	return GuardDecision{Action: GuardAllow}
}

func roleAccepted(have Role, accepted []Role) bool {
	for _, r := range accepted {
		if have == r {
			return true
		}
	}
	return false
}
