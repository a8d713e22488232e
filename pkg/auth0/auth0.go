package auth0

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Astemirdum/library-lending/pkg/auth"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	AuthorizationHeader = "Authorization"
	bearer              = "Bearer "
)

type Config struct {
	Issuer   string `yaml:"issuer" envconfig:"AUTH0_DOMAIN"`
	Audience string `yaml:"audience" envconfig:"AUTH0_AUDIENCE"`
	// Scope, when set, must be granted to every accepted token.
	Scope string `yaml:"scope" envconfig:"AUTH0_SCOPE"`
}

func (c Config) Enabled() bool {
	return c.Issuer != "" && c.Audience != ""
}

func (c Config) permits(claims *CustomClaims) bool {
	return c.Scope == "" || claims.HasScope(c.Scope)
}

// CustomClaims are the lending claims an Auth0 rule adds to the access token.
type CustomClaims struct {
	Username  string `json:"https://lending/username"`
	Role      string `json:"https://lending/role"`
	LibraryID int64  `json:"https://lending/library_id"`
	Scope     string `json:"scope"`
}

func (c *CustomClaims) Validate(context.Context) error {
	if c.Username == "" {
		return errors.New("username claim is empty")
	}
	if !auth.Role(c.Role).Valid() {
		return errors.Errorf("role claim %q is invalid", c.Role)
	}
	return nil
}

// HasScope reports whether the space separated scope claim grants expectedScope.
func (c *CustomClaims) HasScope(expectedScope string) bool {
	for _, s := range strings.Fields(c.Scope) {
		if s == expectedScope {
			return true
		}
	}
	return false
}

func (c *CustomClaims) Identity() auth.Identity {
	return auth.Identity{
		UserName:  c.Username,
		Role:      auth.Role(c.Role),
		LibraryID: c.LibraryID,
	}
}

// MiddleWareWithConfig validates RS256 access tokens against the issuer's JWKS
// and stores the identity they carry in the request context.
func MiddleWareWithConfig(cfg Config) (echo.MiddlewareFunc, error) {
	issuerURL, err := url.Parse("https://" + cfg.Issuer + "/")
	if err != nil {
		return nil, errors.Wrap(err, "parse issuer url")
	}
	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims { return &CustomClaims{} }),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, errors.Wrap(err, "set up the jwt validator")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authorization := c.Request().Header.Get(AuthorizationHeader)
			if authorization == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "No Authorization Header")
			}
			if !strings.HasPrefix(authorization, bearer) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization Header")
			}
			token := strings.TrimPrefix(authorization, bearer)

			req := c.Request()
			validated, err := jwtValidator.ValidateToken(req.Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Token")
			}
			claims, ok := validated.(*validator.ValidatedClaims).CustomClaims.(*CustomClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Token")
			}
			if !cfg.permits(claims) {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient scope")
			}

			c.SetRequest(req.WithContext(auth.SetAuthContext(req.Context(), claims.Identity())))
			return next(c)
		}
	}, nil
}
