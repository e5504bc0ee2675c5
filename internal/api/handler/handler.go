// Package handler exposes the REST API and the real-time endpoint over gin.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"babelbye/backend/internal/auth"
	"babelbye/backend/internal/chathub"
	"babelbye/backend/internal/config"
	"babelbye/backend/internal/localization"
	"babelbye/backend/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

const userIDKey = "user_id"

// Handler holds everything the routes need.
type Handler struct {
	Storage   storage.Storage
	Registry  *chathub.Registry
	Relay     chathub.FrameHandler
	Handshake auth.Handshake
	Catalog   *localization.Catalog
	Config    config.Config
	Log       *slog.Logger

	upgrader websocket.Upgrader
}

func NewHandler(s storage.Storage, registry *chathub.Registry, relay chathub.FrameHandler,
	handshake auth.Handshake, catalog *localization.Catalog, cfg config.Config, log *slog.Logger) *Handler {
	h := &Handler{
		Storage:   s,
		Registry:  registry,
		Relay:     relay,
		Handshake: handshake,
		Catalog:   catalog,
		Config:    cfg,
		Log:       log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() (*gin.Engine, error) {
	if err := RegisterValidators(h.Catalog); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(h.requestLogger())
	r.Use(cors.New(h.corsConfig()))

	r.GET("/healthz", h.Healthz)
	r.GET("/ws", h.ServeWebSocket)
	r.GET("/api/languages", h.ListLanguages)
	if h.Config.AuthBypass && h.Config.DevTokenSecret != "" {
		r.GET("/api/dev/token", h.IssueDevToken)
	}

	api := r.Group("/api", h.RequireUser())
	api.GET("/profile", h.GetProfile)
	api.PUT("/profile", h.UpdateProfile)
	api.GET("/search", h.SearchUsers)
	api.GET("/connections", h.ListConnections)
	api.GET("/connections/requests", h.ListPendingRequests)
	api.POST("/connections/request", h.RequestConnection)
	api.POST("/connections/respond", h.RespondConnection)
	api.DELETE("/history", h.DeleteHistory)
	api.DELETE("/history/:peer_id", h.DeleteHistory)
	api.GET("/presence", h.Presence)

	return r, nil
}

// RegisterValidators adds the "locale" binding tag backed by catalog.
func RegisterValidators(catalog *localization.Catalog) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return v.RegisterValidation("locale", func(fl validator.FieldLevel) bool {
		return catalog.Supported(fl.Field().String())
	})
}

func (h *Handler) allowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(h.Config.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (h *Handler) allowAllOrigins() bool {
	origins := h.allowedOrigins()
	return len(origins) == 0 || (len(origins) == 1 && origins[0] == "*")
}

func (h *Handler) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", auth.UserIDHeader},
		MaxAge:       12 * time.Hour,
	}
	if h.allowAllOrigins() {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = h.allowedOrigins()
	}
	return cfg
}

// checkOrigin applies the CORS allow list to WebSocket upgrades. Requests
// without an Origin header come from non-browser clients and are let through.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowAllOrigins() {
		return true
	}
	for _, o := range h.allowedOrigins() {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		h.Log.Log(c.Request.Context(), level, "http_request",
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// RequireUser authenticates REST callers from headers and stores their id
// in the context.
func (h *Handler) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := h.Handshake.Authenticate(c.Request.Context(), auth.FromHeaders(c.Request.Header))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func (h *Handler) Healthz(c *gin.Context) {
	c.Status(http.StatusOK)
}
