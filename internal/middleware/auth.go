package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/patientlink/web/internal/model"
	"github.com/patientlink/web/internal/session"
	"github.com/patientlink/web/internal/sessionstore"
)

const (
	ContextSession     = "session"
	ContextRoleContext = "role_context"
	ContextToken       = "access_token"
	ContextSessionID   = "session_id"
)

// SessionSource looks up server-side session records by cookie value.
type SessionSource interface {
	Get(ctx context.Context, id string) (*sessionstore.Record, error)
}

// AuthMiddleware turns the session cookie (or a bearer header) into a
// Session and its derived RoleContext. It never rejects a request itself;
// missing or broken credentials leave an unauthenticated context for the
// route guard to act on.
type AuthMiddleware struct {
	store      SessionSource
	resolver   *session.Resolver
	cookieName string
}

func NewAuthMiddleware(store SessionSource, resolver *session.Resolver, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		store:      store,
		resolver:   resolver,
		cookieName: cookieName,
	}
}

// Resolve populates the request context with session and role information.
func (m *AuthMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, sessionID := m.lookupToken(c)

		sess := model.Session{}
		if token != "" {
			decoded, err := m.resolver.DecodeToken(token)
			if err != nil {
				log.Warn().Err(err).Msg("failed to decode session token")
			} else {
				sess = decoded
			}
		}

		c.Set(ContextSession, sess)
		c.Set(ContextRoleContext, m.resolver.Resolve(sess))
		c.Set(ContextToken, token)
		c.Set(ContextSessionID, sessionID)
		c.Next()
	}
}

func (m *AuthMiddleware) lookupToken(c *gin.Context) (token, sessionID string) {
	if cookie, err := c.Cookie(m.cookieName); err == nil && cookie != "" {
		rec, err := m.store.Get(c.Request.Context(), cookie)
		if err != nil {
			log.Error().Err(err).Msg("session store lookup failed")
			return "", ""
		}
		if rec != nil {
			return rec.Token, cookie
		}
		return "", ""
	}

	// API callers may attach the identity token directly.
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1], ""
	}
	return "", ""
}

// RoleContextFrom pulls the derived role context out of the request.
func RoleContextFrom(c *gin.Context) model.RoleContext {
	if rc, ok := c.Get(ContextRoleContext); ok {
		return rc.(model.RoleContext)
	}
	return model.RoleContext{}
}

// SessionFrom pulls the session out of the request.
func SessionFrom(c *gin.Context) model.Session {
	if s, ok := c.Get(ContextSession); ok {
		return s.(model.Session)
	}
	return model.Session{}
}

// TokenFrom pulls the backend bearer token out of the request.
func TokenFrom(c *gin.Context) string {
	return c.GetString(ContextToken)
}

// SessionIDFrom pulls the opaque session cookie value out of the request.
func SessionIDFrom(c *gin.Context) string {
	return c.GetString(ContextSessionID)
}
