package handlers

import (
	"net/http"
	"newsroom/internal/middleware"
	"newsroom/internal/models"
	"newsroom/internal/services"
	"newsroom/internal/utils"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	subscriptions *services.SubscriptionService
}

func NewSubscriptionHandler(subscriptions *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

type subscriptionRequest struct {
	Type   string `json:"type" binding:"required"`
	ID     uint   `json:"id" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// Manage POST /api/subscriptions {type: publisher|journalist, id, action: subscribe|unsubscribe}
func (h *SubscriptionHandler) Manage(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	kind, ok := models.ParseSubscriptionKind(req.Type)
	if !ok {
		badRequest(c, "type must be publisher or journalist")
		return
	}

	ctx := c.Request.Context()
	actor := middleware.CurrentUser(c)
	var err error
	switch req.Action {
	case "subscribe":
		err = h.subscriptions.Subscribe(ctx, actor, kind, req.ID)
	case "unsubscribe":
		err = h.subscriptions.Unsubscribe(ctx, actor, kind, req.ID)
	default:
		badRequest(c, "action must be subscribe or unsubscribe")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":          kind,
		"id":            req.ID,
		"is_subscribed": req.Action == "subscribe",
	})
}

// Status GET /api/subscriptions/status?type=&id=
func (h *SubscriptionHandler) Status(c *gin.Context) {
	kind, ok := models.ParseSubscriptionKind(c.Query("type"))
	if !ok {
		badRequest(c, "type must be publisher or journalist")
		return
	}
	id, err := utils.ParseID(c.Query("id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	subscribed, err := h.subscriptions.IsSubscribed(c.Request.Context(), middleware.CurrentUser(c), kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": kind, "id": id, "is_subscribed": subscribed})
}
