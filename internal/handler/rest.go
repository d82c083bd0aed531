// Package handler реализует HTTP API сервиса дневников поверх gin.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geodiary/diary-backend/internal/models"
	"github.com/geodiary/diary-backend/pkg/utils"
)

// DiaryProvider интерфейс получения дневника за день
type DiaryProvider interface {
	GetDiary(ctx context.Context, deviceID string, date time.Time) (*models.DiaryResponse, error)
}

// RESTHandler обработчик REST API endpoints
type RESTHandler struct {
	provider DiaryProvider
	logger   *utils.Logger
	timeout  time.Duration
}

// NewRESTHandler создает новый REST handler
func NewRESTHandler(provider DiaryProvider, logger *utils.Logger) *RESTHandler {
	return &RESTHandler{
		provider: provider,
		logger:   logger,
		timeout:  30 * time.Second,
	}
}

// diaryRequest тело запроса дневника
type diaryRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	Date     string `json:"date" binding:"required"`
}

// PostDiary возвращает дневник устройства за день
// POST /api/v1/diary {"device_id": "...", "date": "2026-03-14"}
func (h *RESTHandler) PostDiary(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var req diaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_request",
			"message": "device_id and date are required",
		})
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_date",
			"message": "Date must be in YYYY-MM-DD format",
		})
		return
	}

	response, err := h.provider.GetDiary(ctx, req.DeviceID, date)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"device_id": req.DeviceID,
			"date":      req.Date,
			"error":     err,
		}).Error("Failed to build diary")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "Failed to build diary",
		})
		return
	}

	// Пустой день отдается корректной пустой структурой, не null
	if response.Visits == nil {
		response.Visits = []models.Visit{}
	}
	if response.Journeys == nil {
		response.Journeys = []models.Journey{}
	}

	c.JSON(http.StatusOK, response)
}
