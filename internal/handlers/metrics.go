package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lyhengdev/adtrack/internal/auth"
)

// RegisterMetricRoutes registers the serving-path endpoint.
//
// GET /metrics?ad_id=...&type=...&from=...&to=...
// - Requires X-API-Key (tenant context)
// - Returns the deduped event count for the window [from,to)
// - Optional page_key narrows the count to one canonical page
func RegisterMetricRoutes(r gin.IRoutes, st EventStore) {
	r.GET("/metrics", func(c *gin.Context) {
		tenantID := auth.TenantID(c)
		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		adID := c.Query("ad_id")
		eventType := c.Query("type")
		fromStr := c.Query("from")
		toStr := c.Query("to")
		pageKey := c.Query("page_key")

		// Required query params per contract.
		if adID == "" || eventType == "" || fromStr == "" || toStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ad_id, type, from, to are required"})
			return
		}
		if !validEventTypes[eventType] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be impression or click"})
			return
		}

		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}

		from = from.UTC()
		to = to.UTC()

		// Validate window to avoid confusing results.
		if !from.Before(to) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be < to"})
			return
		}

		count, err := st.CountAdEvents(c.Request.Context(), tenantID, adID, eventType, pageKey, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ad_id": adID,
			"type":  eventType,
			"count": count,
		})
	})
}
