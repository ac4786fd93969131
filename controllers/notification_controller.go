package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"protocol-review-api/middleware"
	"protocol-review-api/services"

	"github.com/gin-gonic/gin"
)

// NotificationController serves the caller's in-app inbox.
type NotificationController struct {
	notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// GET /api/v1/notifications?unreadOnly=1&limit=20&offset=0
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	unreadOnly := strings.TrimSpace(c.Query("unreadOnly"))
	limit, _ := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	offset, _ := strconv.Atoi(strings.TrimSpace(c.Query("offset")))

	items, err := nc.notifications.Inbox(c.Request.Context(), middleware.CurrentUserID(c),
		unreadOnly == "1" || strings.EqualFold(unreadOnly, "true"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (nc *NotificationController) GetNotificationCounter(c *gin.Context) {
	n, err := nc.notifications.UnreadCount(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

func (nc *NotificationController) MarkNotificationRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := nc.notifications.MarkRead(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (nc *NotificationController) MarkAllNotificationsRead(c *gin.Context) {
	if err := nc.notifications.MarkAllRead(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
