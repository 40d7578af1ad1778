package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tharun-raj/washtrack-api/cache"
	"github.com/tharun-raj/washtrack-api/models"
)

const dashboardCacheKey = "dashboard:summary"
const dashboardCacheTTL = 30 * time.Second

// DashboardService computes the back-office landing-page aggregates. The
// summary is a pure read model cached briefly in Redis when a cache is
// wired in.
type DashboardService struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB, c *cache.RedisCache) *DashboardService {
	if c == nil {
		c = cache.Disabled()
	}
	return &DashboardService{db: db, cache: c}
}

// DashboardSummary is the aggregate view across all orders.
type DashboardSummary struct {
	OrdersByStatus        map[string]int64 `json:"orders_by_status"`
	TotalOrders           int64            `json:"total_orders"`
	OpenQuantity          int64            `json:"open_quantity"` // requested quantity of non-delivered orders
	AssignmentsInProgress int64            `json:"assignments_in_progress"`
	ReturnQuantity        int64            `json:"return_quantity"`
	DamageCount           int64            `json:"damage_count"`
	ActualOutput          int64            `json:"actual_output"` // returned minus damaged across all records
	GeneratedAt           time.Time        `json:"generated_at"`
}

// Summary returns the dashboard aggregates, from cache when fresh.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	var cached DashboardSummary
	if err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil {
		return &cached, nil
	}

	summary, err := s.computeSummary(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, summary, dashboardCacheTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to cache dashboard summary")
	}
	return summary, nil
}

func (s *DashboardService) computeSummary(ctx context.Context) (*DashboardSummary, error) {
	db := s.db.WithContext(ctx)
	summary := DashboardSummary{
		OrdersByStatus: map[string]int64{},
		GeneratedAt:    time.Now(),
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	err := db.Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		summary.OrdersByStatus[c.Status] = c.Count
		summary.TotalOrders += c.Count
	}

	err = db.Model(&models.Order{}).
		Where("status <> ?", models.OrderStatusDelivered).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&summary.OpenQuantity).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.MachineAssignment{}).
		Where("status = ?", models.AssignmentStatusInProgress).
		Count(&summary.AssignmentsInProgress).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.MachineAssignment{}).
		Where("status <> ?", models.AssignmentStatusCancelled).
		Select("COALESCE(SUM(return_quantity), 0)").
		Scan(&summary.ReturnQuantity).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.OrderRecord{}).
		Select("COALESCE(SUM(damage_count), 0)").
		Scan(&summary.DamageCount).Error
	if err != nil {
		return nil, err
	}

	summary.ActualOutput = summary.ReturnQuantity - summary.DamageCount
	return &summary, nil
}
