package handlers

import (
	"net/http"

	"codeloom/internal/services"
	"codeloom/internal/utils"

	"github.com/gin-gonic/gin"
)

// FeedHandler serves posts and videos.
type FeedHandler struct {
	feed *services.FeedService
}

func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

func page(c *gin.Context) services.Page {
	return services.Page{
		Limit:  utils.StringToInt(c.Query("limit"), services.DefaultFeedLimit),
		Offset: utils.StringToInt(c.Query("offset"), 0),
	}
}

func (h *FeedHandler) ListPosts(c *gin.Context) {
	posts, err := h.feed.ListPosts(page(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *FeedHandler) GetPost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.feed.GetPost(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *FeedHandler) CreatePost(c *gin.Context) {
	var req services.CreatePostInput
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.feed.CreatePost(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *FeedHandler) ListVideos(c *gin.Context) {
	videos, err := h.feed.ListVideos(page(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

func (h *FeedHandler) GetVideo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	video, err := h.feed.GetVideo(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *FeedHandler) CreateVideo(c *gin.Context) {
	var req services.CreateVideoInput
	if !bindJSON(c, &req) {
		return
	}
	video, err := h.feed.CreateVideo(currentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, video)
}
