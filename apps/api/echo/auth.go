package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sms/core"
	"github.com/trezcool/sms/core/access"
	"github.com/trezcool/sms/core/user"
)

var (
	contextClaimsKey    = "claims"
	contextPrincipalKey = "principal"

	errNoSession = errors.New("no session")
	nowFunc      = time.Now // mockable
)

// Claims represents the session claims carried by the session cookie.
type Claims struct {
	jwt.StandardClaims
	Email    string      `json:"email"`
	UserType access.Role `json:"user_type"`
}

// NewClaims returns the claims of a new session of usr, valid for the configured session lifetime.
func NewClaims(usr user.User, conf *core.Config) *Claims {
	now := nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(conf.Server.SessionExpirationDelta).Unix(),
		},
		Email:    usr.Email,
		UserType: usr.UserType,
	}
}

func (c Claims) Principal() *access.Principal {
	return &access.Principal{Email: c.Email, Role: c.UserType}
}

// GenerateToken generates a signed JWT token string representing the session Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parseToken(tokenString, secretKey string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Id == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// sessionClaims returns the claims of the request's live session, or errNoSession.
func (s *server) sessionClaims(ctx echo.Context) (*Claims, error) {
	cookie, err := ctx.Cookie(s.Conf.Server.SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, errNoSession
	}
	claims, err := parseToken(cookie.Value, s.Conf.SecretKey)
	if err != nil {
		return nil, errNoSession
	}

	revoked, err := s.Sessions.IsRevoked(ctx.Request().Context(), claims.Id)
	if err != nil {
		return nil, errors.Wrap(err, "checking session revocation")
	}
	if revoked {
		return nil, errNoSession
	}
	return claims, nil
}

// sessionMiddleware resolves the request principal from the session cookie. Requests without a
// live session carry an anonymous (Guest) principal.
func (s *server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		principal := access.Anonymous()

		claims, err := s.sessionClaims(ctx)
		switch {
		case err == nil:
			ctx.Set(contextClaimsKey, claims)
			principal = claims.Principal()
		case err != errNoSession:
			return err
		}

		ctx.Set(contextPrincipalKey, principal)
		return next(ctx)
	}
}

func contextPrincipal(ctx echo.Context) *access.Principal {
	if principal, ok := ctx.Get(contextPrincipalKey).(*access.Principal); ok {
		return principal
	}
	return nil
}

func contextClaims(ctx echo.Context) (*Claims, bool) {
	claims, ok := ctx.Get(contextClaimsKey).(*Claims)
	return claims, ok
}

func (s *server) setSessionCookie(ctx echo.Context, token string, expires time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     s.Conf.Server.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   !(s.Conf.Debug || s.Conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     s.Conf.Server.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
}
