package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/guidebook/core/internal/domain/entities"
	"github.com/guidebook/core/internal/infrastructure/logger"
	"github.com/guidebook/core/internal/ports"
)

// GuideHandler handles guide-related requests
type GuideHandler struct {
	guideService ports.GuideService
	logger       *logger.Logger
}

// NewGuideHandler creates a new guide handler
func NewGuideHandler(guideService ports.GuideService, logger *logger.Logger) *GuideHandler {
	return &GuideHandler{
		guideService: guideService,
		logger:       logger,
	}
}

// ListGuides godoc
// @Summary List guides
// @Description List every guide as {id,title,hero}; sections are never included
// @Tags guides
// @Produce json
// @Success 200 {array} entities.GuideSummary
// @Router /guides [get]
func (h *GuideHandler) ListGuides(c echo.Context) error {
	guides, err := h.guideService.ListGuides(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, guides)
}

// GetGuide godoc
// @Summary Get guide by ID
// @Tags guides
// @Produce json
// @Param id path string true "Guide ID"
// @Success 200 {object} entities.Guide
// @Failure 404 {object} ports.ErrorResponse
// @Router /guides/{id} [get]
func (h *GuideHandler) GetGuide(c echo.Context) error {
	guide, err := h.guideService.GetGuide(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, guide)
}

// CreateGuide godoc
// @Summary Create a new guide
// @Description The id is generated as g_<unix millis> unless provided
// @Tags guides
// @Accept json
// @Produce json
// @Param request body ports.CreateGuideRequest true "Guide data"
// @Success 201 {object} entities.Guide
// @Failure 400 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Router /guides [post]
func (h *GuideHandler) CreateGuide(c echo.Context) error {
	var req ports.CreateGuideRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	guide, err := h.guideService.CreateGuide(c.Request().Context(), req)
	if err != nil {
		h.logger.Warnw("Create guide failed", "error", err, "guide_id", req.ID)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, guide)
}

// UpdateGuide godoc
// @Summary Update a guide
// @Description Fields omitted from the body keep their stored value
// @Tags guides
// @Accept json
// @Produce json
// @Param id path string true "Guide ID"
// @Param request body entities.GuidePatch true "Fields to replace"
// @Success 200 {object} entities.Guide
// @Failure 404 {object} ports.ErrorResponse
// @Router /guides/{id} [put]
func (h *GuideHandler) UpdateGuide(c echo.Context) error {
	var patch entities.GuidePatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	guide, err := h.guideService.UpdateGuide(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, guide)
}

// MoveSection godoc
// @Summary Move a section
// @Description Place a section right before another one, or last when beforeId is empty
// @Tags guides
// @Accept json
// @Produce json
// @Param id path string true "Guide ID"
// @Param sectionId path string true "Section ID"
// @Param request body ports.MoveSectionRequest false "Target position"
// @Success 200 {object} entities.Guide
// @Failure 404 {object} ports.ErrorResponse
// @Router /guides/{id}/sections/{sectionId}/move [post]
func (h *GuideHandler) MoveSection(c echo.Context) error {
	var req ports.MoveSectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	guide, err := h.guideService.MoveSection(c.Request().Context(), c.Param("id"), c.Param("sectionId"), req.BeforeID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, guide)
}
