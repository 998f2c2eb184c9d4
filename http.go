package nexus

import (
	"context"
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/laxmi-narasimha26/b2b-commerce-nexus/middleware/sessionware"
)

// RouteGuard adapts guard decisions to HTTP semantics. Deferred decisions
// hold the request, redirects remember the rejected route in a cookie so
// sign-in can send the user back, and denials render in place without
// changing the location.
type RouteGuard struct {
	controller       *Controller
	guard            *Guard
	cfg              Config
	cookieDuration   time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewRouteGuard(controller *Controller, guard *Guard, cfg Config) (*RouteGuard, error) {
	if controller == nil {
		return nil, errors.New("route guard requires a controller", errors.CategoryBadInput)
	}

	if guard == nil {
		guard = NewGuard()
	}

	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	g := &RouteGuard{
		controller:     controller,
		guard:          guard,
		cfg:            cfg,
		cookieDuration: cookieDuration,
		Logger:         defLogger{},
	}

	g.ErrorHandler = g.defaultErrHandler
	g.AuthErrorHandler = g.defaultAuthErrHandler

	return g, nil
}

func (g RouteGuard) GetCookieDuration() time.Duration {
	return g.cookieDuration
}

// Protect gates a route on the controller's session snapshot. Roles, when
// given, restrict the route to sessions holding one of them.
func (g *RouteGuard) Protect(roles ...Role) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			snapshot := g.controller.Snapshot()
			decision := g.guard.Evaluate(snapshot, ctx.OriginalURL(), roles...)

			switch decision.Action {
			case GuardDefer:
				return g.handleDefer(ctx)
			case GuardRedirect:
				return g.handleRedirect(ctx, decision)
			case GuardDeny:
				return g.handleDeny(ctx, decision)
			}

			ctx.Locals(g.cfg.GetContextKey(), snapshot.User)
			ctx.SetContext(WithUserContext(ctx.Context(), snapshot.User))

			return next(ctx)
		}
	}
}

// ProtectedRoute gates a route on a bearer token instead of the in-process
// snapshot, for API clients that carry the access token on each request.
func (g *RouteGuard) ProtectedRoute(validator TokenValidator, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = g.AuthErrorHandler
	}

	return sessionware.New(sessionware.Config{
		ErrorHandler: errorHandler,
		SigningKey: sessionware.SigningKey{
			Key:    []byte(g.cfg.GetSigningKey()),
			JWTAlg: "HS256",
		},
		AuthScheme:  g.cfg.GetAuthScheme(),
		ContextKey:  g.cfg.GetContextKey(),
		TokenLookup: g.cfg.GetTokenLookup(),
		TokenValidator: sessionwareValidator{
			inner: validator,
		},
		ContextEnricher: func(c context.Context, claims sessionware.SessionClaims) context.Context {
			if authClaims, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, authClaims)
			}
			return c
		},
	})
}

type sessionwareValidator struct {
	inner TokenValidator
}

func (v sessionwareValidator) Validate(tokenString string) (sessionware.SessionClaims, error) {
	claims, err := v.inner.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (g *RouteGuard) handleDefer(ctx router.Context) error {
	g.Logger.Debug("session check pending, holding request for %s", ctx.OriginalURL())
	return ctx.Status(http.StatusServiceUnavailable).Render("errors/retry", router.ViewContext{
		"retry_after": 1,
	})
}

func (g *RouteGuard) handleRedirect(ctx router.Context, decision GuardDecision) error {
	g.SetRedirect(ctx)

	statusCode := http.StatusSeeOther
	if ctx.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return ctx.Redirect(decision.RedirectTo, statusCode)
}

func (g *RouteGuard) handleDeny(ctx router.Context, decision GuardDecision) error {
	required := make([]string, 0, len(decision.Required))
	for _, role := range decision.Required {
		required = append(required, string(role))
	}

	g.Logger.Info("denied %s, requires one of %v", ctx.OriginalURL(), required)

	return ctx.Status(http.StatusForbidden).Render("errors/403", router.ViewContext{
		"required_roles": required,
	})
}

// SetSessionCookie stores the session access token for later requests.
func (g *RouteGuard) SetSessionCookie(ctx router.Context, session *StoreSession) {
	if session == nil {
		return
	}

	expires := time.Now().Add(g.cookieDuration)
	if session.ExpiresAt != nil {
		expires = *session.ExpiresAt
	}

	ctx.Cookie(&router.Cookie{
		Name:     g.cfg.GetContextKey(),
		Value:    session.AccessToken,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// ClearSessionCookie drops the session token cookie.
func (g *RouteGuard) ClearSessionCookie(ctx router.Context) {
	g.cookieDel(ctx, g.cfg.GetContextKey())
}

func (g *RouteGuard) GetRedirect(ctx router.Context, def ...string) string {
	rejectedRoute := g.cfg.GetRejectedRouteKey()
	r := ctx.Cookies(rejectedRoute)
	if r == "" {
		return def[0]
	}
	g.cookieDel(ctx, rejectedRoute)
	return r
}

func (g *RouteGuard) GetRedirectOrDefault(ctx router.Context) string {
	rejectedRoute := g.cfg.GetRejectedRouteKey()
	refererHeader := string(ctx.Referer())

	r := ctx.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = g.cfg.GetRejectedRouteDefault()
	}
	g.cookieDel(ctx, rejectedRoute)
	return r
}

func (g *RouteGuard) SetRedirect(ctx router.Context) {
	rejectedRoute := g.cfg.GetRejectedRouteKey()

	g.Logger.Info("setting redirect cookie %s to %s", rejectedRoute, ctx.OriginalURL())

	ctx.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *RouteGuard) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *RouteGuard) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	g.Logger.Info(
		"authentication error %s (%s), redirecting to sign in from %s",
		richErr.Message,
		richErr.TextCode,
		c.OriginalURL(),
	)

	g.SetRedirect(c)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect(g.cfg.GetSignInRoute(), statusCode)
}

func (g *RouteGuard) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	g.Logger.Info(
		"middleware error %s (%s): %s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return g.AuthErrorHandler(c, richErr)
	default:
		return c.Status(richErr.Code).Render("errors/500", router.ViewContext{
			"error": richErr,
		})
	}
}
