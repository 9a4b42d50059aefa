package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patientlink/web/internal/guard"
	"github.com/patientlink/web/internal/handler"
	"github.com/patientlink/web/internal/middleware"
)

// Handler serves the dashboard landing route.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", middleware.Authenticated(), h.Landing)
}

// Landing fans out to the role-specific dashboard, doctor first. A subject
// with neither role stays here; the page offers nothing but logout.
func (h *Handler) Landing(c *gin.Context) {
	rc := middleware.RoleContextFrom(c)

	if path, ok := guard.Fanout(rc); ok {
		c.Redirect(http.StatusFound, path)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"page":  "dashboard",
		"roles": rc.Roles,
	}))
}
