package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/guidebook/core/internal/domain/entities"
)

// errorStatus maps domain errors to HTTP status codes
var errorStatus = []struct {
	err  error
	code int
}{
	{entities.ErrGuideNotFound, http.StatusNotFound},
	{entities.ErrSectionNotFound, http.StatusNotFound},
	{entities.ErrItemNotFound, http.StatusNotFound},
	{entities.ErrGuideExists, http.StatusConflict},
	{entities.ErrDuplicateSection, http.StatusBadRequest},
	{entities.ErrNoSections, http.StatusBadRequest},
	{entities.ErrMissingFile, http.StatusBadRequest},
	{entities.ErrUnsupportedMedia, http.StatusBadRequest},
	{entities.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
}

// toHTTPError converts a service error into an echo.HTTPError. Unknown
// errors become a 500 with the cause kept as the internal error.
func toHTTPError(err error) *echo.HTTPError {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return echo.NewHTTPError(e.code, messageFor(e.err, err))
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)).SetInternal(err)
}

// messageFor keeps client-facing messages short for lookups and detailed
// for validation failures
func messageFor(sentinel, err error) string {
	switch sentinel {
	case entities.ErrGuideNotFound:
		return "Not found"
	case entities.ErrMissingFile:
		return "No file uploaded"
	}
	return err.Error()
}
