package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkwell/blog/internal/core/ports"
)

// UploadHandler serves stored images by their generated name.
type UploadHandler struct {
	images ports.ImageService
}

func NewUploadHandler(images ports.ImageService) *UploadHandler {
	return &UploadHandler{images: images}
}

// Serve handles GET /uploads/:filename.
//
// @Summary      Download an uploaded image
// @Tags         uploads
// @Produce      octet-stream
// @Param        filename  path  string  true  "Generated file name"
// @Success      200
// @Failure      404  {object}  messageResponse
// @Router       /uploads/{filename} [get]
func (h *UploadHandler) Serve(c echo.Context) error {
	rc, contentType, err := h.images.Open(c.Request().Context(), c.Param("filename"))
	if err != nil {
		return err
	}
	defer rc.Close()

	// Names are random and never reused.
	c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	return c.Stream(http.StatusOK, contentType, rc)
}
