package doctor

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/patientlink/web/internal/dashboard"
	"github.com/patientlink/web/internal/dashboard/doctor"
	"github.com/patientlink/web/internal/gateway"
	"github.com/patientlink/web/internal/handler"
	"github.com/patientlink/web/internal/middleware"
	"github.com/patientlink/web/internal/model"
	apperrors "github.com/patientlink/web/pkg/errors"
)

// Handler serves the doctor dashboard: the view-state machine surface plus
// the per-patient document actions.
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
	d := r.Group("/dashboard/doctor", middleware.Guarded(model.RoleDoctor))
	{
		d.GET("", h.State)
		d.POST("/view", h.Navigate)
		d.POST("/patients", h.SubmitNewPatient)
		d.PUT("/patients/:id", h.SaveEdit)
		d.POST("/edit/cancel", h.CancelEdit)

		docs := d.Group("/patients/:id/documents")
		{
			docs.GET("", h.ListDocuments)
			docs.POST("", h.UploadDocuments)
			docs.GET("/:docID/preview", h.PreviewURL)
			docs.GET("/:docID/download", h.DownloadURL)
			docs.DELETE("/:docID", h.DeleteDocument)
		}
	}
}

type viewModel struct {
	View     string                  `json:"view"`
	Loading  bool                    `json:"loading"`
	Patients []model.VerifiedPatient `json:"patients"`
	Selected *model.VerifiedPatient  `json:"selected_patient,omitempty"`
	Editing  *model.VerifiedPatient  `json:"editing_patient,omitempty"`
}

func (h *Handler) machine(c *gin.Context) *doctor.Machine {
	sess := middleware.SessionFrom(c)
	key := middleware.SessionIDFrom(c)
	if key == "" {
		key = sess.ID
	}
	return h.machines.Doctor(key, middleware.TokenFrom(c), sess.Subject)
}

// State renders the current view. Detail and edit payloads come from the
// view variant itself, so they can never render without a selection.
func (h *Handler) State(c *gin.Context) {
	m := h.machine(c)
	view := m.View()

	vm := viewModel{
		View:     doctor.Name(view),
		Loading:  m.Loading(),
		Patients: m.Patients(),
	}
	switch v := view.(type) {
	case doctor.PatientDetails:
		vm.Selected = &v.Patient
	case doctor.EditPatient:
		vm.Editing = &v.Patient
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(vm))
}

type navigateRequest struct {
	View      string `json:"view" binding:"required,oneof=overview patients addPatient patientDetails editPatient"`
	PatientID string `json:"patient_id"`
}

// Navigate applies a user navigation action to the machine. Selecting an
// unknown patient is a silent no-op, mirroring the unrenderable branch.
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
	case "patients":
		m.ShowPatients()
	case "addPatient":
		m.ShowAddPatient()
	case "patientDetails":
		m.SelectPatient(req.PatientID)
	case "editPatient":
		m.StartEdit(req.PatientID)
	}

	h.State(c)
}

// SubmitNewPatient runs the verification flow for the add-patient form.
// Domain rejections surface inline; the view does not change on failure.
func (h *Handler) SubmitNewPatient(c *gin.Context) {
	var req model.PatientVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	added, err := h.machine(c).SubmitNewPatient(c.Request.Context(), req)
	if err != nil {
		if apperrors.IsVerificationRejected(err) {
			c.JSON(http.StatusUnprocessableEntity, handler.NewErrorResponse(err.Error()))
			return
		}
		log.Error().Err(err).Msg("add patient failed")
		c.JSON(http.StatusBadGateway, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(added))
}

// SaveEdit persists the edit form and returns to the list view.
func (h *Handler) SaveEdit(c *gin.Context) {
	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.machine(c).SaveEdit(c.Request.Context(), req); err != nil {
		log.Error().Err(err).Msg("save patient failed")
		c.JSON(http.StatusBadGateway, handler.NewErrorResponse(err.Error()))
		return
	}
	h.State(c)
}

// CancelEdit abandons the edit form without touching the backend.
func (h *Handler) CancelEdit(c *gin.Context) {
	h.machine(c).CancelEdit()
	h.State(c)
}

func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.documents.DoctorPatientDocuments(c.Request.Context(), middleware.TokenFrom(c), c.Param("id"))
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch patient documents")
		c.JSON(http.StatusOK, handler.NewSuccessResponse([]model.Document{}))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(docs))
}

// UploadDocuments uploads a batch one file at a time; the document store
// takes a single file per request. A failure surfaces as a user-facing
// alert, unlike list fetches.
func (h *Handler) UploadDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid upload payload"))
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("no files attached"))
		return
	}
	description := c.PostForm("description")

	files := make([]gateway.File, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read upload"))
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read upload"))
			return
		}
		files = append(files, gateway.File{Name: fh.Filename, Content: content})
	}

	uploaded, err := h.documents.Upload(c.Request.Context(), middleware.TokenFrom(c), c.Param("id"), files, description)
	if err != nil {
		log.Error().Err(err).Int("uploaded", len(uploaded)).Msg("document upload failed")
		c.JSON(http.StatusBadGateway, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(uploaded))
}

func (h *Handler) PreviewURL(c *gin.Context) {
	h.signedURL(c, h.documents.DoctorPreviewURL)
}

func (h *Handler) DownloadURL(c *gin.Context) {
	h.signedURL(c, h.documents.DoctorDownloadURL)
}

func (h *Handler) signedURL(c *gin.Context, fetch func(ctx context.Context, token, patientID string, docID int64) (string, error)) {
	docID, err := strconv.ParseInt(c.Param("docID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid document ID"))
		return
	}

	url, err := fetch(c.Request.Context(), middleware.TokenFrom(c), c.Param("id"), docID)
	if err != nil {
		log.Error().Err(err).Int64("document", docID).Msg("failed to fetch signed URL")
		c.JSON(http.StatusBadGateway, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.SignedURL{URL: url}))
}

// DeleteDocument removes a document; destructive failures surface to the
// user instead of degrading silently.
func (h *Handler) DeleteDocument(c *gin.Context) {
	docID, err := strconv.ParseInt(c.Param("docID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid document ID"))
		return
	}

	if err := h.documents.Delete(c.Request.Context(), middleware.TokenFrom(c), c.Param("id"), docID); err != nil {
		log.Error().Err(err).Int64("document", docID).Msg("failed to delete document")
		c.JSON(http.StatusBadGateway, handler.NewErrorResponse(err.Error()))
		return
	}

	c.Status(http.StatusNoContent)
}
