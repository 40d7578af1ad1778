package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/tharun-raj/washtrack-api/services"
	"github.com/tharun-raj/washtrack-api/utils"
)

// UploadController handles damage photo uploads for order records.
type UploadController struct {
	images  services.ImageService
	records *services.RecordService
}

// NewUploadController creates a new upload controller
func NewUploadController(images services.ImageService, records *services.RecordService) *UploadController {
	return &UploadController{images: images, records: records}
}

// UploadDamagePhoto handles POST /api/v1/orders/:orderId/records/:recordId/damage-photo.
// Expects a multipart form with a "photo" file field. The image is stored
// in S3 and the resulting object key is attached to the record.
func (ctrl *UploadController) UploadDamagePhoto(c *gin.Context) {
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	recordID, ok := parseIDParam(c, "recordId")
	if !ok {
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		respondError(c, &utils.FileUploadError{
			Code:    "MISSING_FILE",
			Message: "A photo file is required",
		})
		return
	}

	key, err := ctrl.images.UploadImage(file)
	if err != nil {
		respondError(c, err)
		return
	}

	record, err := ctrl.records.AttachDamagePhoto(c.Request.Context(), orderID, recordID, key)
	if err != nil {
		respondError(c, err)
		return
	}

	if record.DamagePhotoKey != nil {
		if url, urlErr := ctrl.images.GetImageURL(*record.DamagePhotoKey); urlErr == nil {
			record.DamagePhotoURL = &url
		}
	}
	respondOK(c, record)
}
