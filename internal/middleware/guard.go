package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patientlink/web/internal/guard"
)

// Guarded enforces a route guard decision on every request. Redirects are
// navigation, not errors: wrong-role access lands on the dashboard, missing
// authentication lands on the home page.
func Guarded(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := guard.Check(RoleContextFrom(c), requiredRole)
		if !decision.Allowed {
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Authenticated guards a route that needs a session but no specific role.
func Authenticated() gin.HandlerFunc {
	return Guarded("")
}
