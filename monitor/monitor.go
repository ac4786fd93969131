package monitor

import (
	"bytes"
	"net/http"
	"os"
	"strconv"

	"protocol-review-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const defaultTailLines = 200

// RegisterMonitorRoutes mounts the operator endpoints on group. The caller is
// expected to restrict group to administrators.
func RegisterMonitorRoutes(group *gin.RouterGroup, db *gorm.DB, logPath string) {
	group.GET("/monitor/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, Status(db))
	})

	group.GET("/monitor/logs", func(c *gin.Context) {
		lines := defaultTailLines
		if raw := c.Query("lines"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				lines = n
			}
		}
		logData, err := os.ReadFile(logPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to read log"})
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", Tail(logData, lines))
	})
}

// StatusCount is the number of live protocols in one lifecycle state.
type StatusCount struct {
	Status models.ProtocolStatus `json:"status"`
	Total  int64                 `json:"total"`
}

// Status reports database reachability and the protocol workload per state.
func Status(db *gorm.DB) gin.H {
	report := gin.H{"database": "ok"}

	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		report["database"] = err.Error()
		return report
	}

	var counts []StatusCount
	if err := db.Model(&models.Protocol{}).
		Select("status, COUNT(*) AS total").
		Where("archived_at IS NULL").
		Group("status").
		Order("status").
		Scan(&counts).Error; err != nil {
		report["protocols_error"] = err.Error()
		return report
	}
	report["protocols"] = counts
	return report
}

// Tail returns the last n lines of data.
func Tail(data []byte, n int) []byte {
	data = bytes.TrimRight(data, "\n")
	if n <= 0 || len(data) == 0 {
		return nil
	}
	idx := len(data)
	for i := 0; i < n; i++ {
		prev := bytes.LastIndexByte(data[:idx], '\n')
		if prev < 0 {
			return append(data, '\n')
		}
		idx = prev
	}
	return append(data[idx+1:], '\n')
}
