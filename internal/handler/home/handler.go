package home

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patientlink/web/internal/guard"
	"github.com/patientlink/web/internal/handler"
	"github.com/patientlink/web/internal/middleware"
)

// Handler serves the public landing route.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.Home)
}

// Home redirects authenticated sessions to the dashboard landing and shows
// the login entry point to everyone else.
func (h *Handler) Home(c *gin.Context) {
	if middleware.RoleContextFrom(c).Authenticated {
		c.Redirect(http.StatusFound, guard.DashboardPath)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"page": "home",
	}))
}
