package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pureclarity/feedsync/internal/database"
	"github.com/pureclarity/feedsync/internal/entities"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthController reports whether the service can do its job: the database
// is reachable, the run-state table exists, and stores are configured.
type HealthController struct {
	db      *database.Database
	version string
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db == nil {
		checks["database"] = "not configured"
		status = "unhealthy"
	} else {
		if err := h.pingDatabase(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}

		// The state table is where every feed run writes its bookkeeping; if
		// it is unreadable, runs will start but report nothing.
		var stateRecords int64
		if err := h.db.DB.Model(&entities.StateRecord{}).Count(&stateRecords).Error; err != nil {
			checks["state"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["state"] = fmt.Sprintf("ok (%d records)", stateRecords)
		}

		// No active stores is not an error, but it means feeds have nothing
		// to do; surface it so a misconfigured install is obvious.
		stores, err := h.db.GetActiveStores()
		if err != nil {
			checks["stores"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["stores"] = fmt.Sprintf("%d active", len(stores))
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

func (h *HealthController) pingDatabase() error {
	sqlDB, err := h.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
