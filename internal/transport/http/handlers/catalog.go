package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/usecase"
)

// CatalogHandler serves the directory catalog backing the request form.
type CatalogHandler struct {
	catalog *usecase.CatalogService
}

// NewCatalogHandler builds a catalog handler.
func NewCatalogHandler(catalog *usecase.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// RegisterRoutes attaches catalog endpoints to the provided router group.
func (h *CatalogHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/resources", h.Resources)
	group.GET("/workstations", h.Workstations)
	group.GET("/lines", h.Lines)
	group.POST("/refresh", h.Refresh)
}

func accountFromContext(c *gin.Context) string {
	return c.GetString("account")
}

// Resources godoc
// @Summary List catalog resources
// @Description Lists directory resources, optionally narrowed by the q parameter. The filter matches name or description, case-insensitively.
// @Tags Catalog
// @Produce json
// @Param q query string false "Substring filter"
// @Success 200 {object} CatalogResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/catalog/resources [get]
// @Security BearerAuth
func (h *CatalogHandler) Resources(c *gin.Context) {
	session, err := h.catalog.Session(c.Request.Context(), accountFromContext(c))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "directory unavailable"))
		return
	}

	resources := usecase.FilterResources(session.Resources, c.Query("q"))

	c.JSON(http.StatusOK, CatalogResponse{
		Applicant: toApplicantView(session.Applicant),
		Resources: toResourceSummaries(resources),
		Degraded:  session.Degraded,
		LoadedAt:  session.LoadedAt,
	})
}

// Workstations godoc
// @Summary List workstations
// @Description Lists known workstations. The entry matching the service host is surfaced as preselected.
// @Tags Catalog
// @Produce json
// @Success 200 {object} WorkstationsResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/catalog/workstations [get]
// @Security BearerAuth
func (h *CatalogHandler) Workstations(c *gin.Context) {
	session, err := h.catalog.Session(c.Request.Context(), accountFromContext(c))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "directory unavailable"))
		return
	}

	resp := WorkstationsResponse{
		Workstations: toResourceSummaries(session.Workstations),
		Degraded:     session.Degraded,
	}
	if session.LocalWorkstation != nil {
		resp.Preselected = session.LocalWorkstation.Name
	}

	c.JSON(http.StatusOK, resp)
}

// Lines godoc
// @Summary List reconciled request lines
// @Description Returns every catalog resource with its granted flag seeded from current memberships.
// @Tags Catalog
// @Produce json
// @Success 200 {object} LinesResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/catalog/lines [get]
// @Security BearerAuth
func (h *CatalogHandler) Lines(c *gin.Context) {
	session, err := h.catalog.Session(c.Request.Context(), accountFromContext(c))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "directory unavailable"))
		return
	}

	c.JSON(http.StatusOK, LinesResponse{
		Applicant: toApplicantView(session.Applicant),
		Lines:     toLineViews(session.Lines()),
		Degraded:  session.Degraded,
	})
}

// Refresh godoc
// @Summary Reload the catalog session
// @Description Discards the cached session and reloads it from the directory.
// @Tags Catalog
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/catalog/refresh [post]
// @Security BearerAuth
func (h *CatalogHandler) Refresh(c *gin.Context) {
	if _, err := h.catalog.Refresh(c.Request.Context(), accountFromContext(c)); err != nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "directory unavailable"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "catalog refreshed"})
}
