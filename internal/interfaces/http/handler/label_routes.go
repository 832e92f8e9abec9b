package handler

import (
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/interfaces/http/router"
)

// LabelRoutes creates the route group for label print jobs
func LabelRoutes(handler *LabelHandler) *router.DomainGroup {
	group := router.NewDomainGroup("labels", "/labels")

	jobs := group.Group("jobs", "/jobs")
	jobs.POST("", handler.CreateJob)
	jobs.GET("/:id/items", handler.GetJobItems)
	jobs.DELETE("/:id", handler.DeleteJob)
	jobs.GET("/:id/pdf", handler.DownloadPDF)
	jobs.GET("/:id/csv", handler.DownloadCSV)

	return group
}
