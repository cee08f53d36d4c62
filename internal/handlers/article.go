package handlers

import (
	"html/template"
	"net/http"
	"newsroom/internal/middleware"
	"newsroom/internal/models"
	"newsroom/internal/services"
	"newsroom/internal/utils"

	"github.com/gin-gonic/gin"
)

type ArticleHandler struct {
	articles *services.ArticleService
	importer *services.SyndicationImporter
}

func NewArticleHandler(articles *services.ArticleService, importer *services.SyndicationImporter) *ArticleHandler {
	return &ArticleHandler{articles: articles, importer: importer}
}

type articleResponse struct {
	*models.Article
	State models.ArticleState `json:"state"`
	HTML  template.HTML       `json:"html,omitempty"`
}

func newArticleResponse(a *models.Article, withHTML bool) articleResponse {
	resp := articleResponse{Article: a, State: a.State()}
	if withHTML {
		resp.HTML = utils.RenderArticleHTML(a.ID, a.UpdatedAt, a.Content)
	}
	return resp
}

type createArticleRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Publisher *uint  `json:"publisher"`
	Image     string `json:"image"`
}

// updateArticleRequest 未出现的字段保持不变
type updateArticleRequest struct {
	Title          *string `json:"title"`
	Content        *string `json:"content"`
	Publisher      *uint   `json:"publisher"`
	ClearPublisher bool    `json:"clear_publisher"`
	Image          *string `json:"image"`
	IsApproved     *bool   `json:"is_approved"`
	Author         *uint   `json:"author"`
}

type importRequest struct {
	FeedURL   string `json:"feed_url" binding:"required"`
	Publisher *uint  `json:"publisher"`
}

// List GET /api/articles?publisher=&author=&status=&limit=&offset=
func (h *ArticleHandler) List(c *gin.Context) {
	publisherID, err := utils.ParseOptionalID(c.Query("publisher"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	authorID, err := utils.ParseOptionalID(c.Query("author"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	articles, err := h.articles.ListVisibleArticles(c.Request.Context(), middleware.CurrentUser(c), services.ArticleFilter{
		PublisherID: publisherID,
		AuthorID:    authorID,
		Status:      c.Query("status"),
		Limit:       utils.StringToInt(c.Query("limit"), 0),
		Offset:      utils.StringToInt(c.Query("offset"), 0),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]articleResponse, 0, len(articles))
	for i := range articles {
		out = append(out, newArticleResponse(&articles[i], false))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ArticleHandler) Detail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	article, err := h.articles.GetArticle(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newArticleResponse(article, true))
}

func (h *ArticleHandler) Create(c *gin.Context) {
	var req createArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	article, err := h.articles.CreateArticle(c.Request.Context(), middleware.CurrentUser(c), services.ArticleInput{
		Title:       req.Title,
		Content:     req.Content,
		PublisherID: req.Publisher,
		Image:       req.Image,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newArticleResponse(article, false))
}

func (h *ArticleHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	article, err := h.articles.UpdateArticle(c.Request.Context(), middleware.CurrentUser(c), id, services.ArticleUpdate{
		Title:          req.Title,
		Content:        req.Content,
		PublisherID:    req.Publisher,
		ClearPublisher: req.ClearPublisher,
		Image:          req.Image,
		IsApproved:     req.IsApproved,
		AuthorID:       req.Author,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newArticleResponse(article, false))
}

func (h *ArticleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.articles.DeleteArticle(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Approve 重复审核返回 200 并带 already_approved 标记
func (h *ArticleHandler) Approve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	actor := middleware.CurrentUser(c)

	outcome, err := h.articles.ApproveArticle(ctx, actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	article, err := h.articles.GetArticle(ctx, actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outcome":          outcome,
		"already_approved": outcome == services.ApprovalAlreadyApproved,
		"article":          newArticleResponse(article, false),
	})
}

func (h *ArticleHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	result, err := h.importer.ImportFeed(c.Request.Context(), middleware.CurrentUser(c), req.FeedURL, req.Publisher)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
