package echoapi

import (
	"expvar"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/sms/core/access"
)

// gate decisions, exposed under /debug/vars
var decisions = expvar.NewMap("access_decisions")

// loginCheckMiddleware runs the access policy on every request, before the matched handler.
func (s *server) loginCheckMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		principal := contextPrincipal(ctx)
		module := s.moduleOf(ctx.Path())

		decision, err := access.Decide(principal, module)
		if err != nil {
			decisions.Add("invalid", 1)
			s.Logger.Warn("access: invalid input, redirecting to login", err, map[string]interface{}{
				"path":   ctx.Request().URL.Path,
				"module": module.String(),
			})
			return ctx.Redirect(http.StatusFound, s.Conf.Paths.Login)
		}

		if decision.Allowed() {
			if !module.Recognized() {
				decisions.Add("allow_unrecognized", 1)
				s.Logger.Warn("access: unrecognized module, allowing", access.ErrUnrecognizedModule, principal, map[string]interface{}{
					"path":   ctx.Request().URL.Path,
					"module": int(module),
				})
			} else {
				decisions.Add("allow", 1)
			}
			return next(ctx)
		}

		decisions.Add("redirect_"+decision.Target.String(), 1)
		return ctx.Redirect(http.StatusFound, s.locationPath(decision.Target))
	}
}

// locationPath returns the configured URL of a redirect location.
func (s *server) locationPath(loc access.Location) string {
	switch loc {
	case access.AdminHome:
		return s.Conf.Paths.AdminHome
	case access.StaffHome:
		return s.Conf.Paths.StaffHome
	case access.StudentHome:
		return s.Conf.Paths.StudentHome
	default:
		return s.Conf.Paths.Login
	}
}
