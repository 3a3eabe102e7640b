package main

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"bitbucket.org/mmdatafocus/tariff_backend/workflow"
	"github.com/gin-gonic/gin"
)

type outboxReplayRequest struct {
	RecordId int `json:"record_id"`
}

// outboxReplayHandler retries one outbox row, or every DEAD row of the caller's utility
// when no record is given.
func outboxReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if adminId, ok := utils.GetAdminIdFromContext(ctx); !ok || adminId <= 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		utilityId, err := utils.RequireUtilityId(ctx)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req outboxReplayRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}

		db := config.GetDB()
		if req.RecordId <= 0 {
			n, err := workflow.RequeueDead(ctx, db, utilityId)
			if err != nil {
				respondError(c, "OutboxReplay", err)
				return
			}
			respondData(c, http.StatusOK, gin.H{"utility_id": utilityId, "requeued": n})
			return
		}

		now := time.Now().UTC()
		result := db.WithContext(ctx).
			Model(&models.TariffEventRecord{}).
			Where("id = ? AND utility_id = ?", req.RecordId, utilityId).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusFailed,
				"publish_attempts":   0,
				"next_attempt_at":    &now,
				"locked_at":          nil,
				"locked_by":          nil,
				"last_publish_error": nil,
			})
		if result.Error != nil {
			respondError(c, "OutboxReplay", result.Error)
			return
		}
		if result.RowsAffected == 0 {
			respondError(c, "OutboxReplay", utils.ErrorRecordNotFound)
			return
		}
		respondData(c, http.StatusOK, gin.H{
			"utility_id":      utilityId,
			"record_id":       req.RecordId,
			"publish_status":  models.OutboxPublishStatusFailed,
			"next_attempt_at": now.Format(time.RFC3339Nano),
		})
	}
}
