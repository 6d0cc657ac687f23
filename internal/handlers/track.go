package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lyhengdev/adtrack/internal/auth"
	"github.com/lyhengdev/adtrack/internal/dedupe"
	"github.com/lyhengdev/adtrack/internal/models"
	"github.com/lyhengdev/adtrack/internal/store"
)

// EventStore is the persistence dependency of the tracking endpoints.
// *store.PostgresStore satisfies it.
type EventStore interface {
	InsertAdEvent(ctx context.Context, ev store.AdEvent) (bool, error)
	CountAdEvents(ctx context.Context, tenantID, adID, eventType, pageKey string, from, to time.Time) (int64, error)
}

// DedupeGuard is the optional short-TTL duplicate check consulted
// before the database write. *cache.Client satisfies it.
type DedupeGuard interface {
	CheckAndMark(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unmark(ctx context.Context, key string) error
}

// validEventTypes are the beacon types the service records.
var validEventTypes = map[string]bool{
	"impression": true,
	"click":      true,
}

// parseRFC3339 parses an RFC3339 timestamp and normalizes it to UTC.
func parseRFC3339(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// RegisterTrackRoutes registers the beacon ingestion endpoint.
//
// POST /track
// - Requires X-API-Key (tenant context)
// - Durable: returns success only after DB write completes
// - Idempotent: duplicates detected via (tenant_id, storage_key) uniqueness,
//   where the storage key is the composed dedup key when one can be built
// - guard, when non-nil, short-circuits rapid duplicates before the DB
func RegisterTrackRoutes(r gin.IRoutes, st EventStore, guard DedupeGuard, guardTTL time.Duration) {
	r.POST("/track", func(c *gin.Context) {
		tenantID := auth.TenantID(c)
		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req models.TrackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		// Required fields per contract.
		if !validEventTypes[req.Type] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be impression or click"})
			return
		}
		if req.AdID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ad_id required"})
			return
		}

		ts := time.Now().UTC()
		if req.Timestamp != "" {
			parsed, err := parseRFC3339(req.Timestamp)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "timestamp must be RFC3339"})
				return
			}
			ts = parsed
		}

		// Only derive a page key when the beacon carried page context;
		// deduping unknown pages into one bucket would falsely merge
		// events from different pages.
		pageKey := ""
		if req.PageType != "" || req.PageURL != "" {
			pageKey = dedupe.PageKey(dedupe.PageRef{
				PageType: req.PageType,
				PageURL:  req.PageURL,
			})
		}

		identityKey, _ := dedupe.IdentityKey(dedupe.IdentityRef{
			UserID:    req.UserID,
			SessionID: req.SessionID,
		})

		// Dedup key precedence mirrors the composer: a client event_id
		// gives per-event idempotency; otherwise identity+page form a
		// structural key; otherwise the event cannot be deduped and is
		// recorded unconditionally under a generated key.
		storageKey, deduped := dedupe.Key(dedupe.Request{
			Type:        req.Type,
			AdID:        req.AdID,
			PageKey:     pageKey,
			IdentityKey: identityKey,
			EventID:     req.EventID,
		})
		if !deduped {
			storageKey = uuid.New().String()
		}

		// The guard is advisory: on Redis errors we fall through to the
		// DB constraint rather than failing the beacon.
		guardKey := tenantID + ":" + storageKey
		marked := false
		if deduped && guard != nil {
			seen, err := guard.CheckAndMark(c.Request.Context(), guardKey, guardTTL)
			if err == nil && seen {
				c.JSON(http.StatusOK, models.TrackResponse{
					StorageKey:  storageKey,
					PageKey:     pageKey,
					IdentityKey: identityKey,
					Deduped:     true,
					Duplicate:   true,
				})
				return
			}
			marked = err == nil
		}

		inserted, err := st.InsertAdEvent(c.Request.Context(), store.AdEvent{
			TenantID:    tenantID,
			StorageKey:  storageKey,
			Type:        req.Type,
			AdID:        req.AdID,
			PageKey:     pageKey,
			IdentityKey: identityKey,
			EventID:     req.EventID,
			Deduped:     deduped,
			Timestamp:   ts,
		})
		if err != nil {
			// Release the guard mark so the retry is not swallowed as a
			// duplicate of an event that never reached the database.
			if marked {
				_ = guard.Unmark(c.Request.Context(), guardKey)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db insert failed"})
			return
		}

		// 201 for new events, 200 for duplicates (idempotent success).
		status := http.StatusCreated
		dup := false
		if !inserted {
			status = http.StatusOK
			dup = true
		}

		c.JSON(status, models.TrackResponse{
			StorageKey:  storageKey,
			PageKey:     pageKey,
			IdentityKey: identityKey,
			Deduped:     deduped,
			Duplicate:   dup,
		})
	})
}
