package controller

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/config"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	apperrors "github.com/ikkim/gadgetshop-backend/internal/errors"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
)

const imageFormField = "image"

type UploadController struct {
	admin service.ProductAdminService
}

func NewUploadController(admin service.ProductAdminService) *UploadController {
	return &UploadController{admin: admin}
}

// ImageRequirements describes what the upload endpoint accepts
// GET /api/v1/admin/products/image-requirements
func (ctrl *UploadController) ImageRequirements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"max_size_bytes": config.MaxImageSize,
		"min_resolution": config.MinResolution,
		"max_resolution": config.MaxResolution,
		"help_text": fmt.Sprintf(
			"Upload an image of at least %dx%d. Images larger than %dx%d are resized to %dx%d.",
			config.MinResolution.Width, config.MinResolution.Height,
			config.MaxResolution.Width, config.MaxResolution.Height,
			config.OptimalResolution.Width, config.OptimalResolution.Height,
		),
	})
}

// UploadProductImage validates, normalizes and stores a product image
// POST /api/v1/admin/products/:id/image (multipart field "image")
func (ctrl *UploadController) UploadProductImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile(imageFormField)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "image file is required")
		return
	}
	if fileHeader.Size > config.MaxImageSize {
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "size exceeds 3MB")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "failed to read the upload")
		return
	}
	defer file.Close()

	// one byte over the limit is enough for the size check to trip
	data, err := io.ReadAll(io.LimitReader(file, config.MaxImageSize+1))
	if err != nil {
		log.Error("Failed to read uploaded file", err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "failed to read the upload")
		return
	}

	product, err := ctrl.admin.UploadProductImage(c.Request.Context(), id, data)
	if err != nil {
		log.Warn("Product image rejected", map[string]interface{}{
			"product_id": id,
			"filename":   fileHeader.Filename,
			"error":      err.Error(),
		})
		respondServiceError(c, err, "upload product image")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product":   product,
		"image_url": product.ImageURL,
	})
}
