package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/tharun-raj/washtrack-api/services"
)

// DashboardController handles the /dashboard endpoints.
type DashboardController struct {
	dashboard *services.DashboardService
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(dashboard *services.DashboardService) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

// Summary handles GET /api/v1/dashboard/summary
func (ctrl *DashboardController) Summary(c *gin.Context) {
	summary, err := ctrl.dashboard.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, summary)
}
