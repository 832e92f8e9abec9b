package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	printingapp "github.com/helenrm365/rm365-tools-testing-sub001/internal/application/printing"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/interfaces/http/middleware"
)

// LabelService is the part of the label application service the HTTP API uses
type LabelService interface {
	CreatePrintJob(ctx context.Context, req printingapp.CreateJobRequest) (*printingapp.CreateJobResponse, error)
	GetJobItems(ctx context.Context, jobID int64) (*printingapp.JobItemsResponse, error)
	DeleteJob(ctx context.Context, jobID int64) error
	RenderPDF(ctx context.Context, jobID int64) (*printingapp.RenderedFile, error)
	RenderCSV(ctx context.Context, jobID int64) (*printingapp.RenderedFile, error)
}

// LabelHandler handles label print job endpoints
type LabelHandler struct {
	BaseHandler
	service LabelService
}

// NewLabelHandler creates a new LabelHandler
func NewLabelHandler(service LabelService) *LabelHandler {
	return &LabelHandler{service: service}
}

// CreateJob resolves candidate SKUs against the catalog and snapshots them
// into a new print job.
//
//	POST /labels/jobs
func (h *LabelHandler) CreateJob(c *gin.Context) {
	var req printingapp.CreateJobRequest
	// An empty body means "everything on the allow-list"
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	resp, err := h.service.CreatePrintJob(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetJobItems returns the job header and its label rows ordered by SKU.
//
//	GET /labels/jobs/:id/items
func (h *LabelHandler) GetJobItems(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetJobItems(c.Request.Context(), jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteJob removes a job and its items.
//
//	DELETE /labels/jobs/:id
func (h *LabelHandler) DeleteJob(c *gin.Context) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteJob(c.Request.Context(), jobID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// DownloadPDF renders the job as a label sheet.
//
//	GET /labels/jobs/:id/pdf
func (h *LabelHandler) DownloadPDF(c *gin.Context) {
	h.download(c, h.service.RenderPDF)
}

// DownloadCSV exports the job rows.
//
//	GET /labels/jobs/:id/csv
func (h *LabelHandler) DownloadCSV(c *gin.Context) {
	h.download(c, h.service.RenderCSV)
}

func (h *LabelHandler) download(c *gin.Context, render func(context.Context, int64) (*printingapp.RenderedFile, error)) {
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}
	file, err := render(c.Request.Context(), jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *LabelHandler) jobID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, "Job ID must be a positive integer")
		return 0, false
	}
	return id, true
}
