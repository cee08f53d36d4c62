package handlers

import (
	"net/http"
	"newsroom/internal/middleware"
	"newsroom/internal/services"
	"newsroom/internal/utils"

	"github.com/gin-gonic/gin"
)

type NewsletterHandler struct {
	newsletters *services.NewsletterService
}

func NewNewsletterHandler(newsletters *services.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{newsletters: newsletters}
}

type createNewsletterRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *NewsletterHandler) List(c *gin.Context) {
	newsletters, err := h.newsletters.ListNewsletters(c.Request.Context(), utils.StringToInt(c.Query("limit"), 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newsletters)
}

func (h *NewsletterHandler) Create(c *gin.Context) {
	var req createNewsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	newsletter, err := h.newsletters.CreateNewsletter(c.Request.Context(), middleware.CurrentUser(c), req.Title, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newsletter)
}
