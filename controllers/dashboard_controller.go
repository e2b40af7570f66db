package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"leadflow/models"
	"leadflow/store"
	"leadflow/utils"
)

type DashboardController struct {
	DB    *gorm.DB
	Store *store.LeadStore
}

func NewDashboardController(db *gorm.DB, leads *store.LeadStore) *DashboardController {
	return &DashboardController{DB: db, Store: leads}
}

// GetDashboardStats returns the summary cards: totals, per-status and
// per-source counts, conversion rate, average confidence.
func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := dc.Store.AggregateStats(c.Context())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to aggregate stats", err)
	}
	return c.JSON(utils.SuccessResponse(stats))
}

type eventVolume struct {
	EventType string `json:"event_type"`
	Count     int64  `json:"count"`
}

// GetEventVolume returns raw webhook event counts by type over a time frame
// (day, week, month; default week).
func (dc *DashboardController) GetEventVolume(c *fiber.Ctx) error {
	now := time.Now()
	var since time.Time
	switch c.Query("time_frame", "week") {
	case "day":
		since = now.AddDate(0, 0, -1)
	case "month":
		since = now.AddDate(0, -1, 0)
	default:
		since = now.AddDate(0, 0, -7)
	}

	var volumes []eventVolume
	err := dc.DB.WithContext(c.Context()).
		Model(&models.LeadEvent{}).
		Select("event_type, count(*) as count").
		Where("occurred_at >= ?", since).
		Group("event_type").
		Scan(&volumes).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to aggregate events", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"since":   since,
		"volumes": volumes,
	}))
}
