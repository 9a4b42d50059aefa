package patient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/patientlink/web/internal/dashboard"
	"github.com/patientlink/web/internal/dashboard/patient"
	"github.com/patientlink/web/internal/gateway"
	"github.com/patientlink/web/internal/handler"
	"github.com/patientlink/web/internal/middleware"
	"github.com/patientlink/web/internal/model"
)

// Handler serves the patient dashboard.
type Handler struct {
	machines  *dashboard.Machines
	documents gateway.Documents
}

func NewHandler(machines *dashboard.Machines, documents gateway.Documents) *Handler {
	return &Handler{
		machines:  machines,
		documents: documents,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	p := r.Group("/dashboard/patient", middleware.Guarded(model.RolePatient))
	{
		p.GET("", h.State)
		p.POST("/view", h.Navigate)
		p.GET("/documents/:docID/preview", h.PreviewURL)
		p.GET("/documents/:docID/download", h.DownloadURL)
	}
}

type viewModel struct {
	View            string                 `json:"view"`
	LoadingDocs     bool                   `json:"loading_documents"`
	LoadingProfile  bool                   `json:"loading_profile"`
	Documents       []model.Document       `json:"documents"`
	Profile         *model.VerifiedPatient `json:"profile,omitempty"`
	ProfileFullName string                 `json:"profile_full_name,omitempty"`
}

func (h *Handler) machine(c *gin.Context) *patient.Machine {
	sess := middleware.SessionFrom(c)
	key := middleware.SessionIDFrom(c)
	if key == "" {
		key = sess.ID
	}
	return h.machines.Patient(key, middleware.TokenFrom(c), sess.Subject)
}

// State renders the current view. Loading and empty document lists are
// render states of the same view, not separate views.
func (h *Handler) State(c *gin.Context) {
	m := h.machine(c)

	vm := viewModel{
		View:           patient.Name(m.View()),
		LoadingDocs:    m.LoadingDocuments(),
		LoadingProfile: m.LoadingProfile(),
		Documents:      m.Documents(),
	}
	if profile := m.Profile(); profile != nil {
		vm.Profile = profile
		vm.ProfileFullName = profile.FullName()
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(vm))
}

type navigateRequest struct {
	View string `json:"view" binding:"required,oneof=overview profile"`
}

func (h *Handler) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	m := h.machine(c)
	switch req.View {
	case "overview":
		m.ShowOverview()
	case "profile":
		m.ShowProfile()
	}

	h.State(c)
}

func (h *Handler) PreviewURL(c *gin.Context) {
	h.signedURL(c, h.documents.PatientPreviewURL)
}

func (h *Handler) DownloadURL(c *gin.Context) {
	h.signedURL(c, h.documents.PatientDownloadURL)
}

func (h *Handler) signedURL(c *gin.Context, fetch func(ctx context.Context, token string, docID int64) (string, error)) {
	docID, err := strconv.ParseInt(c.Param("docID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid document ID"))
		return
	}

	url, err := fetch(c.Request.Context(), middleware.TokenFrom(c), docID)
	if err != nil {
		log.Error().Err(err).Int64("document", docID).Msg("failed to fetch signed URL")
		c.JSON(http.StatusBadGateway, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.SignedURL{URL: url}))
}
