package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sms/core"
	"github.com/trezcool/sms/core/access"
	"github.com/trezcool/sms/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}

	EmailAvailabilityRequest struct {
		Email string `json:"email" form:"email" query:"email" validate:"required,email"`
	}

	EmailAvailabilityResponse struct {
		Email     string `json:"email"`
		Available bool   `json:"available"`
	}

	PageResponse struct {
		Page   string         `json:"page"`
		Module string         `json:"module"`
		User   *PrincipalInfo `json:"user"`
	}

	PrincipalInfo struct {
		Email    string      `json:"email"`
		UserType access.Role `json:"user_type"`
	}
)

func (er *EmailAvailabilityRequest) Validate(s *server) error {
	er.Email = core.CleanString(er.Email, true /* lower */)
	return s.Validate.Struct(er)
}

func newPageResponse(name string, module access.Module, principal *access.Principal) PageResponse {
	resp := PageResponse{Page: name, Module: module.String()}
	if principal.Authenticated() {
		resp.User = &PrincipalInfo{Email: principal.Email, UserType: principal.Role}
	}
	return resp
}

// loginPage sends authenticated principals to their home.
func (s *server) loginPage(ctx echo.Context) error {
	principal := contextPrincipal(ctx)
	if principal.Authenticated() {
		return ctx.Redirect(http.StatusFound, s.locationPath(access.HomeOf(principal.Role)))
	}
	return ctx.JSON(http.StatusOK, newPageResponse("login", access.Public, principal))
}

func (s *server) doLogin(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return s.loginFailed(ctx, data.Email, err)
	}

	usr, err := s.UserSvc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrAuthenticationFailed, user.ErrAccountDeactivated:
			return s.loginFailed(ctx, data.Email, err)
		}
		return errors.Wrap(err, "authenticating")
	}

	claims := NewClaims(usr, s.Conf)
	token, err := GenerateToken(claims, s.Conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	s.setSessionCookie(ctx, token, time.Unix(claims.ExpiresAt, 0))

	return ctx.Redirect(http.StatusFound, s.locationPath(access.HomeOf(usr.UserType)))
}

// loginFailed sends the client back to the login page without a session.
func (s *server) loginFailed(ctx echo.Context, email string, err error) error {
	s.Logger.Info(user.ErrAuthenticationFailed.Error(), map[string]interface{}{"email": email, "reason": err.Error()})
	return ctx.Redirect(http.StatusFound, s.Conf.Paths.Login)
}

func (s *server) logout(ctx echo.Context) error {
	if claims, ok := contextClaims(ctx); ok {
		if err := s.Sessions.Revoke(ctx.Request().Context(), claims.Id, time.Unix(claims.ExpiresAt, 0)); err != nil {
			return errors.Wrap(err, "revoking session")
		}
	}
	s.clearSessionCookie(ctx)
	return ctx.Redirect(http.StatusFound, s.Conf.Paths.Login)
}

func (s *server) checkEmailAvailability(ctx echo.Context) error {
	var data EmailAvailabilityRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailAvailabilityRequest")
	}
	if err := data.Validate(s); err != nil {
		return err
	}

	available, err := s.UserSvc.EmailAvailable(ctx.Request().Context(), data.Email)
	if err != nil {
		return errors.Wrap(err, "checking email availability")
	}
	return ctx.JSON(http.StatusOK, EmailAvailabilityResponse{Email: data.Email, Available: available})
}

func (s *server) renderPage(p page) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, newPageResponse(p.name, p.module, contextPrincipal(ctx)))
	}
}
