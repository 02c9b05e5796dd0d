package transport

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap/zapcore"

	"github.com/Rogue-Bear-Innovations/bookmarker-back/internal/models"
)

const censored = "$censored"

var (
	publicPaths = map[string]struct{}{
		"/ping/":          {},
		"/auth/register/": {},
		"/auth/login/":    {},
		"/auth/logout/":   {},
	}

	sensitiveKeys = map[string]struct{}{
		"password":  {},
		"password1": {},
		"password2": {},
	}
)

// AuthMiddleware resolves the caller from the auth cookie or bearer token.
// Stale cookies on a rejected request are expired in the response.
func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := publicPaths[c.Path()]; ok {
			return next(c)
		}

		token := s.tokens.FromRequest(c.Request())
		if token == "" {
			return models.ErrUnauthorized
		}

		owner, err := s.tokens.Verify(token)
		if err != nil {
			if len(c.Request().Cookies()) > 0 {
				s.expireCookies(c)
			}
			return err
		}

		c.Set(ownerKey, owner)
		return next(c)
	}
}

func (s *HTTPServer) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Infow("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	})
}

// bodyLogger dumps request bodies at debug level.
func (s *HTTPServer) bodyLogger() echo.MiddlewareFunc {
	return middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().Method == http.MethodGet ||
				!s.logger.Desugar().Core().Enabled(zapcore.DebugLevel)
		},
		Handler: func(c echo.Context, reqBody, _ []byte) {
			if len(reqBody) == 0 {
				return
			}
			s.logger.Debugw("request body", "path", c.Path(), "body", string(censorBody(reqBody)))
		},
	})
}

// censorBody masks password fields of a JSON object. Anything else is
// returned unchanged.
func censorBody(body []byte) []byte {
	m := map[string]interface{}{}
	if err := json.Unmarshal(body, &m); err != nil {
		return body
	}
	censorMap(m)

	out, err := json.Marshal(m)
	if err != nil {
		return body
	}
	return out
}

func censorMap(m map[string]interface{}) {
	for k, v := range m {
		if _, ok := sensitiveKeys[k]; ok {
			m[k] = censored
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			censorMap(nested)
		}
	}
}
