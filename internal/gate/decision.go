package gate

import (
	"net/url"

	"github.com/soley-bot/acadex-sub007/internal/auth"
)

// Reason explains why a request was redirected.
type Reason string

const (
	ReasonNone      Reason = "none"
	ReasonNoUser    Reason = "no_user"
	ReasonNotAdmin  Reason = "not_admin"
	ReasonAuthError Reason = "auth_error"
)

// Decision is the allow-or-redirect outcome for one request. It is computed
// and consumed within the request, never stored.
type Decision struct {
	Redirect bool
	Target   string
	Reason   Reason
}

var allow = Decision{Reason: ReasonNone}

// Engine combines a route class with a resolved identity into a decision.
type Engine struct {
	loginPath        string
	unauthorizedPath string
}

func NewEngine(loginPath, unauthorizedPath string) *Engine {
	return &Engine{loginPath: loginPath, unauthorizedPath: unauthorizedPath}
}

// Decide evaluates the access state machine. originalPath is carried on the
// login redirect so the user lands back where they were headed.
func (e *Engine) Decide(class RouteClass, user *auth.Identity, role, originalPath string) Decision {
	switch class {
	case Admin:
		if user == nil {
			return e.toLogin(originalPath, ReasonNoUser)
		}
		if role != auth.RoleAdmin {
			return Decision{Redirect: true, Target: e.unauthorizedPath, Reason: ReasonNotAdmin}
		}
		return allow
	case Protected:
		if user == nil {
			return e.toLogin(originalPath, ReasonNoUser)
		}
		return allow
	default:
		return allow
	}
}

// OnResolverFailure maps an identity-resolution failure to a decision:
// protected and admin paths force re-authentication, public traffic is
// never blocked by an identity outage.
func (e *Engine) OnResolverFailure(class RouteClass, originalPath string) Decision {
	if class == Public {
		return allow
	}
	return e.toLogin(originalPath, ReasonAuthError)
}

func (e *Engine) toLogin(originalPath string, reason Reason) Decision {
	return Decision{
		Redirect: true,
		Target:   e.loginPath + "?redirectTo=" + url.QueryEscape(originalPath),
		Reason:   reason,
	}
}
