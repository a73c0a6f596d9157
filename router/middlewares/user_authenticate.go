package middlewares

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/trackpoint-app/realtime/router/ctxkey"
)

const authScheme = "Bearer"

// UserAuthenticate verifies the access token and stashes the user id in the
// request context. The token is validated once per connection, at this
// middleware; a request without a valid token never reaches a handler or
// the websocket upgrade. Browser WebSocket clients cannot set headers, so a
// "token" query parameter is accepted as a fallback on the handshake.
func UserAuthenticate(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}

			token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, err := token.Claims.GetSubject()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			uid, err := uuid.FromString(sub)
			if err != nil || uid == uuid.Nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			c.Set("userID", uid)
			c.SetRequest(c.Request().WithContext(context.WithValue(c.Request().Context(), ctxkey.UserID, uid)))
			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context) string {
	if ah := c.Request().Header.Get(echo.HeaderAuthorization); len(ah) > len(authScheme)+1 && ah[:len(authScheme)] == authScheme {
		return ah[len(authScheme)+1:]
	}
	return c.QueryParam("token")
}

// GetRequestUserID fetches the user id set by UserAuthenticate
func GetRequestUserID(c echo.Context) uuid.UUID {
	return c.Get("userID").(uuid.UUID)
}
