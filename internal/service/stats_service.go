package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

type statsStudentRepository interface {
	Stats(ctx context.Context, departmentKey string) ([]models.DepartmentStats, error)
}

// StatsService aggregates per-department counters for the dashboards.
// Department admins see their own department; super admins see every
// department plus a live system snapshot.
type StatsService struct {
	repo    statsStudentRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewStatsService constructs a StatsService.
func NewStatsService(repo statsStudentRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Overview returns the department counters scoped to the caller, plus
// the system metrics snapshot for super admins. The counters are always
// computed from the students table, never from client-reported state.
// Department admins are pinned to their own department regardless of
// what they ask for; super admins may request one department or "all".
func (s *StatsService) Overview(ctx context.Context, department string, actor *models.Admin) ([]models.DepartmentStats, *models.SystemMetrics, error) {
	departmentKey := ""
	if department != "" && department != "all" {
		departmentKey = models.NormalizeDepartment(department)
	}
	if actor != nil && actor.Role == models.RoleDepartmentAdmin {
		departmentKey = models.NormalizeDepartment(actor.Department)
	}

	cacheKey := "stats:" + departmentKey
	var stats []models.DepartmentStats
	hit := false
	if s.cache != nil {
		var err error
		hit, err = s.cache.Get(ctx, cacheKey, &stats)
		if err != nil {
			hit = false
		}
	}

	if !hit {
		start := time.Now()
		rows, err := s.repo.Stats(ctx, departmentKey)
		if s.metrics != nil {
			s.metrics.ObserveDBQuery("students_stats", time.Since(start))
		}
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load statistics")
		}
		stats = rows
		if s.cache != nil {
			if err := s.cache.Set(ctx, cacheKey, stats, 0); err != nil {
				s.logger.Warn("failed to cache statistics", zap.Error(err))
			}
		}
	}

	if stats == nil {
		stats = []models.DepartmentStats{}
	}

	var system *models.SystemMetrics
	if s.metrics != nil && (actor == nil || actor.Role == models.RoleSuperAdmin) {
		snapshot := s.metrics.Snapshot()
		system = &snapshot
	}
	return stats, system, nil
}
