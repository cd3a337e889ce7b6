package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	"github.com/campusops/admissions-api/pkg/response"
)

type statsService interface {
	Overview(ctx context.Context, department string, actor *models.Admin) ([]models.DepartmentStats, *models.SystemMetrics, error)
}

// StatsHandler serves the per-department progress counters.
type StatsHandler struct {
	stats statsService
	auth  adminLoader
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats statsService, auth adminLoader) *StatsHandler {
	return &StatsHandler{stats: stats, auth: auth}
}

// DepartmentStats godoc
// @Summary Department progress counters
// @Description Totals by status and attendance for the admin's scope; super admins also get a system snapshot
// @Tags Admin
// @Produce json
// @Param department path string true "Department name, or all"
// @Success 200 {object} dto.DepartmentStatsResponse
// @Failure 401 {object} response.ErrorBody
// @Router /admin/department-stats/{department} [get]
func (h *StatsHandler) DepartmentStats(c *gin.Context) {
	actor, err := currentAdmin(c, h.auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, system, err := h.stats.Overview(c.Request.Context(), c.Param("department"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.DepartmentStatsResponse{
		Base:   response.OK(),
		Stats:  stats,
		System: system,
	})
}
