package handlers

import (
	"net/http"
	"strconv"

	"codeloom/internal/models"
	"codeloom/internal/services"
	"codeloom/internal/utils"

	"github.com/gin-gonic/gin"
)

type ArticleHandler struct {
	articles *services.ArticleService
}

func NewArticleHandler(articles *services.ArticleService) *ArticleHandler {
	return &ArticleHandler{articles: articles}
}

// List supports ?limit, ?offset, ?category and ?premium=true|false.
func (h *ArticleHandler) List(c *gin.Context) {
	filter := services.ArticleFilter{
		Limit:    utils.StringToInt(c.Query("limit"), services.DefaultArticleLimit),
		Offset:   utils.StringToInt(c.Query("offset"), 0),
		Category: c.Query("category"),
	}
	if raw := c.Query("premium"); raw != "" {
		premium, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "Invalid premium filter")
			return
		}
		filter.Premium = &premium
	}

	articles, err := h.articles.List(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	viewer := currentUser(c)
	out := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		a = services.Present(a, viewer)
		// listings carry the excerpt only
		a.Content, a.ContentHTML = "", ""
		out = append(out, a)
	}
	c.JSON(http.StatusOK, out)
}

func (h *ArticleHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	article, err := h.articles.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.Present(*article, currentUser(c)))
}

func (h *ArticleHandler) GetBySlug(c *gin.Context) {
	article, err := h.articles.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.Present(*article, currentUser(c)))
}

func (h *ArticleHandler) Create(c *gin.Context) {
	var req services.CreateArticleInput
	if !bindJSON(c, &req) {
		return
	}
	article, err := h.articles.Create(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

func (h *ArticleHandler) Comments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	comments, err := h.articles.Comments(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *ArticleHandler) AddComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.CreateCommentInput
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.articles.AddComment(currentUser(c).ID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *ArticleHandler) IsLiked(c *gin.Context) {
	articleID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	liked, err := h.articles.IsLiked(userID, articleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isLiked": liked})
}

func (h *ArticleHandler) ToggleLike(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := h.articles.ToggleLike(currentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
