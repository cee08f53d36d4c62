package handlers

import (
	"net/http"
	"newsroom/internal/middleware"
	"newsroom/internal/services"

	"github.com/gin-gonic/gin"
)

type PublisherHandler struct {
	publishers *services.PublisherService
}

func NewPublisherHandler(publishers *services.PublisherService) *PublisherHandler {
	return &PublisherHandler{publishers: publishers}
}

type createPublisherRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
}

type addStaffRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

func (h *PublisherHandler) List(c *gin.Context) {
	entries, err := h.publishers.ListPublishers(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *PublisherHandler) Create(c *gin.Context) {
	var req createPublisherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	publisher, err := h.publishers.CreatePublisher(c.Request.Context(), middleware.CurrentUser(c), req.Name, req.Description, req.Logo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, publisher)
}

func (h *PublisherHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.publishers.DeletePublisher(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PublisherHandler) AddStaff(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req addStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.publishers.AddStaff(c.Request.Context(), middleware.CurrentUser(c), id, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PublisherHandler) ListJournalists(c *gin.Context) {
	entries, err := h.publishers.ListJournalists(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
