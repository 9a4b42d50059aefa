package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/patientlink/web/internal/dashboard"
	"github.com/patientlink/web/internal/handler"
	"github.com/patientlink/web/internal/middleware"
	"github.com/patientlink/web/internal/session"
	"github.com/patientlink/web/internal/sessionstore"
)

// SessionStore is the subset of the session store the auth handler needs.
type SessionStore interface {
	Put(ctx context.Context, rec sessionstore.Record) (string, error)
	Delete(ctx context.Context, id string) error
}

// Handler exchanges identity-provider tokens for server-side sessions. The
// provider does the authenticating; this handler only records the result.
type Handler struct {
	store      SessionStore
	resolver   *session.Resolver
	machines   *dashboard.Machines
	cookieName string
}

func NewHandler(store SessionStore, resolver *session.Resolver, machines *dashboard.Machines, cookieName string) *Handler {
	return &Handler{
		store:      store,
		resolver:   resolver,
		machines:   machines,
		cookieName: cookieName,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/session", h.CreateSession)
		auth.POST("/logout", middleware.Authenticated(), h.Logout)
	}
}

type createSessionRequest struct {
	Token string `json:"token" binding:"required"`
}

// CreateSession accepts the identity token issued by the provider, stores
// it server-side and hands the browser an opaque session cookie.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	sess, err := h.resolver.DecodeToken(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid identity token"))
		return
	}

	id, err := h.store.Put(c.Request.Context(), sessionstore.Record{
		Token:   req.Token,
		Subject: sess.Subject,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to store session")
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to create session"))
		return
	}

	c.SetCookie(h.cookieName, id, 0, "/", "", false, true)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"subject": sess.Subject,
	}))
}

// Logout drops the server-side session record and the session's dashboard
// machines; the next request is unauthenticated and guarded back to "/".
func (h *Handler) Logout(c *gin.Context) {
	sessionID := middleware.SessionIDFrom(c)
	if sessionID != "" {
		if err := h.store.Delete(c.Request.Context(), sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
		h.machines.Drop(sessionID)
	}

	c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
