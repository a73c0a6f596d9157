package router

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/trackpoint-app/realtime/model"
	"github.com/trackpoint-app/realtime/router/middlewares"
	"github.com/trackpoint-app/realtime/service/counter"
	"github.com/trackpoint-app/realtime/service/readstate"
	"github.com/trackpoint-app/realtime/service/ws"
)

// Config router settings
type Config struct {
	// JWTSecret HMAC key used to verify access tokens
	JWTSecret []byte
	// Origin allowed CORS origin; empty allows any
	Origin string
	// Version reported by /api/version
	Version string
}

type handlers struct {
	ws      *ws.Streamer
	oc      *counter.OnlineCounter
	tracker *readstate.Tracker
	logger  *zap.Logger
}

// Setup builds the echo server for the realtime API
func Setup(streamer *ws.Streamer, oc *counter.OnlineCounter, tracker *readstate.Tracker, logger *zap.Logger, config *Config) *echo.Echo {
	h := &handlers{
		ws:      streamer,
		oc:      oc,
		tracker: tracker,
		logger:  logger.Named("router"),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middlewares.RequestCounter())
	if config.Origin != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     []string{config.Origin},
			AllowCredentials: true,
		}))
	}

	api := e.Group("/api")
	api.GET("/metrics", echoprometheus.NewHandler())
	api.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, http.StatusText(http.StatusOK)) })
	api.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"version": config.Version})
	})

	authed := api.Group("", middlewares.UserAuthenticate(config.JWTSecret))
	authed.GET("/ws", echo.WrapHandler(streamer))
	authed.GET("/ws/state", h.GetWSState)
	authed.GET("/users/online", h.GetOnlineUsers)
	authed.POST("/conversations/:conversationID/read", h.PostConversationRead)

	return e
}

// GetWSState GET /api/ws/state
func (h *handlers) GetWSState(c echo.Context) error {
	type sessionState struct {
		Key         string    `json:"key"`
		ConnectedAt time.Time `json:"connectedAt"`
		Rooms       []string  `json:"rooms"`
	}
	res := make([]sessionState, 0)

	userID := middlewares.GetRequestUserID(c)
	h.ws.IterateSessions(func(session ws.Session) {
		if session.UserID() == userID {
			res = append(res, sessionState{
				Key:         session.Key(),
				ConnectedAt: session.ConnectedAt(),
				Rooms: lo.Map(session.Rooms(), func(rk model.RoomKey, _ int) string {
					return rk.String()
				}),
			})
		}
	})

	return c.JSON(http.StatusOK, res)
}

// GetOnlineUsers GET /api/users/online
// The polling counterpart of the users:online-count push frame.
func (h *handlers) GetOnlineUsers(c echo.Context) error {
	ids := h.oc.GetOnlineUserIDs()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(ids),
		"userIds": ids,
	})
}

// PostConversationRead POST /api/conversations/:conversationID/read
func (h *handlers) PostConversationRead(c echo.Context) error {
	conversationID, err := uuid.FromString(c.Param("conversationID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation id")
	}

	var req struct {
		ReadAt time.Time `json:"readAt"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ReadAt.IsZero() {
		req.ReadAt = time.Now()
	}

	h.tracker.MarkRead(conversationID, middlewares.GetRequestUserID(c), req.ReadAt)
	return c.NoContent(http.StatusNoContent)
}
