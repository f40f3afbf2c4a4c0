package http

import (
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/guidebook/core/internal/domain/entities"
	"github.com/guidebook/core/internal/infrastructure/logger"
	"github.com/guidebook/core/internal/infrastructure/metrics"
	"github.com/guidebook/core/internal/ports"
)

// UploadHandler handles image upload requests
type UploadHandler struct {
	uploadService ports.UploadService
	storage       ports.UploadStorage
	metrics       *metrics.Metrics
	logger        *logger.Logger
}

// NewUploadHandler creates a new upload handler. m may be nil.
func NewUploadHandler(uploadService ports.UploadService, storage ports.UploadStorage, m *metrics.Metrics, logger *logger.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		storage:       storage,
		metrics:       m,
		logger:        logger,
	}
}

// UploadToGuide godoc
// @Summary Upload an image into a guide section
// @Description Appends an image item to sectionId, or to the first section when sectionId is absent or unknown
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Guide ID"
// @Param file formData file true "Image file"
// @Param sectionId formData string false "Target section ID"
// @Success 201 {object} ports.GuideUploadResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Failure 413 {object} ports.ErrorResponse
// @Router /guides/{id}/uploads [post]
func (h *UploadHandler) UploadToGuide(c echo.Context) error {
	file, err := formFile(c, "file")
	if err != nil {
		h.metrics.ObserveUpload("guide", err)
		return toHTTPError(err)
	}
	defer file.close()

	resp, err := h.uploadService.UploadToGuide(c.Request().Context(), c.Param("id"), c.FormValue("sectionId"), file.upload)
	h.metrics.ObserveUpload("guide", err)
	if err != nil {
		h.logger.Warnw("Guide upload failed", "error", err, "guide_id", c.Param("id"), "filename", file.upload.Filename)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, resp)
}

// UploadImage godoc
// @Summary Upload a standalone image
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file (jpeg, png, gif, webp)"
// @Success 200 {object} ports.UploadResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 413 {object} ports.ErrorResponse
// @Router /upload [post]
func (h *UploadHandler) UploadImage(c echo.Context) error {
	file, err := formFile(c, "image")
	if err != nil {
		h.metrics.ObserveUpload("image", err)
		return toHTTPError(err)
	}
	defer file.close()

	resp, err := h.uploadService.UploadImage(c.Request().Context(), file.upload)
	h.metrics.ObserveUpload("image", err)
	if err != nil {
		h.logger.Warnw("Image upload failed", "error", err, "filename", file.upload.Filename)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// ServeUpload streams a stored upload from the configured backend
func (h *UploadHandler) ServeUpload(c echo.Context) error {
	name := c.Param("*")
	if name == "" || path.Base(name) != name {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}

	rc, err := h.storage.Open(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return echo.NewHTTPError(http.StatusNotFound, "Not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)).SetInternal(err)
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, rc)
}

type openedFile struct {
	upload ports.FileUpload
	closer io.Closer
}

func (f *openedFile) close() {
	f.closer.Close()
}

func formFile(c echo.Context, field string) (*openedFile, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, entities.ErrMissingFile
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}

	return &openedFile{
		upload: ports.FileUpload{
			Filename: header.Filename,
			Size:     header.Size,
			Reader:   src,
		},
		closer: src,
	}, nil
}
