package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tharun-raj/washtrack-api/models"
)

// ReferenceController serves the static lookup data the UI builds its
// forms from: wash types, process types and garment item types.
type ReferenceController struct {
	db *gorm.DB
}

// NewReferenceController creates a new reference controller
func NewReferenceController(db *gorm.DB) *ReferenceController {
	return &ReferenceController{db: db}
}

// WashTypes handles GET /api/v1/reference/wash-types
func (ctrl *ReferenceController) WashTypes(c *gin.Context) {
	respondOK(c, models.WashTypes)
}

// ProcessTypes handles GET /api/v1/reference/process-types
func (ctrl *ReferenceController) ProcessTypes(c *gin.Context) {
	respondOK(c, models.ProcessTypes)
}

// ItemTypes handles GET /api/v1/reference/item-types
func (ctrl *ReferenceController) ItemTypes(c *gin.Context) {
	var items []models.ItemType
	if err := ctrl.db.WithContext(c.Request.Context()).Order("name ASC").Find(&items).Error; err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}
