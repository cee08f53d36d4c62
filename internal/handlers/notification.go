package handlers

import (
	"log/slog"
	"net/http"
	"newsroom/internal/middleware"
	"newsroom/internal/services"
	"newsroom/internal/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	redelivery    *services.RedeliveryService
}

func NewNotificationHandler(notifications *services.NotificationService, redelivery *services.RedeliveryService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, redelivery: redelivery}
}

// List 我的通知列表
func (h *NotificationHandler) List(c *gin.Context) {
	limit := utils.StringToInt(c.Query("limit"), 0)
	notifications, err := h.notifications.ListNotifications(c.Request.Context(), middleware.CurrentUser(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// Redispatch POST /api/articles/:id/redispatch 编辑补发审核通知，已送达的收件人不会重复发送
func (h *NotificationHandler) Redispatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if h.redelivery == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "redelivery not configured"})
		return
	}
	report, err := h.redelivery.Redispatch(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		if report == nil {
			respondError(c, err)
			return
		}
		slog.Error("redispatch incomplete", "article_id", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "dispatch incomplete", "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}
