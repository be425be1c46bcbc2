package services

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"codeloom/internal/log"
	"codeloom/internal/models"
	"codeloom/internal/utils"

	"github.com/juju/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 50
	MaxPostLength    = 2000
)

type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultFeedLimit
	}
	if p.Limit > MaxFeedLimit {
		p.Limit = MaxFeedLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type CreatePostInput struct {
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`
	VideoURL string `json:"videoUrl"`
	LinkURL  string `json:"linkUrl"`
}

type CreateVideoInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Thumbnail   string   `json:"thumbnail"`
	Tags        []string `json:"tags"`
}

// FeedService stores short posts and shared videos.
type FeedService struct {
	db       *gorm.DB
	previews LinkPreviewer
	now      func() time.Time
}

// NewFeedService wires the store. previews may be nil to skip link previews.
func NewFeedService(db *gorm.DB, previews LinkPreviewer) *FeedService {
	return &FeedService{db: db, previews: previews, now: func() time.Time { return time.Now().UTC() }}
}

// CreatePost stores a post. A shared link gets a best-effort preview; a
// failed fetch leaves it empty.
func (s *FeedService) CreatePost(ctx context.Context, authorID uint, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, invalidf("post content is required")
	}
	if utf8.RuneCountInString(content) > MaxPostLength {
		return nil, invalidf("post longer than %d characters", MaxPostLength)
	}
	for _, link := range []string{in.ImageURL, in.VideoURL, in.LinkURL} {
		if err := checkLink(link, false); err != nil {
			return nil, err
		}
	}

	post := &models.Post{
		Content:  content,
		ImageURL: strings.TrimSpace(in.ImageURL),
		VideoURL: strings.TrimSpace(in.VideoURL),
		LinkURL:  strings.TrimSpace(in.LinkURL),
		AuthorID: authorID,
	}
	if post.LinkURL != "" && s.previews != nil {
		if preview, err := s.previews.Preview(ctx, post.LinkURL); err == nil {
			post.LinkTitle = utils.Truncate(preview.Title, 200)
			post.LinkExcerpt = preview.Excerpt
		} else {
			logger := log.WithComponent("feed")
			logger.Debug().Err(err).Str("link", post.LinkURL).Msg("Link preview unavailable")
		}
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return recordActivity(tx, authorID, s.now())
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return s.GetPost(post.ID)
}

func (s *FeedService) ListPosts(p Page) ([]models.Post, error) {
	p = p.normalized()
	posts := []models.Post{}
	err := s.db.Preload("Author").
		Order("created_at DESC, id DESC").
		Limit(p.Limit).Offset(p.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return posts, nil
}

func (s *FeedService) GetPost(id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.Preload("Author").First(&post, id).Error; err != nil {
		return nil, notFound(err, "post %d", id)
	}
	return &post, nil
}

func (s *FeedService) CreateVideo(authorID uint, in CreateVideoInput) (*models.Video, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalidf("video title is required")
	}
	if err := checkLink(in.URL, true); err != nil {
		return nil, err
	}
	if err := checkLink(in.Thumbnail, false); err != nil {
		return nil, err
	}

	link := strings.TrimSpace(in.URL)
	thumbnail := strings.TrimSpace(in.Thumbnail)
	if thumbnail == "" {
		if id := utils.YouTubeID(link); id != "" {
			thumbnail = "https://img.youtube.com/vi/" + id + "/hqdefault.jpg"
		}
	}

	video := &models.Video{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		URL:         link,
		Thumbnail:   thumbnail,
		AuthorID:    authorID,
		Tags:        datatypes.JSONSlice[string](cleanTags(in.Tags)),
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(video).Error; err != nil {
			return err
		}
		return recordActivity(tx, authorID, s.now())
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return s.GetVideo(video.ID)
}

func (s *FeedService) ListVideos(p Page) ([]models.Video, error) {
	p = p.normalized()
	videos := []models.Video{}
	err := s.db.Preload("Author").
		Order("created_at DESC, id DESC").
		Limit(p.Limit).Offset(p.Offset).
		Find(&videos).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return videos, nil
}

func (s *FeedService) GetVideo(id uint) (*models.Video, error) {
	var video models.Video
	if err := s.db.Preload("Author").First(&video, id).Error; err != nil {
		return nil, notFound(err, "video %d", id)
	}
	return &video, nil
}

// checkLink accepts empty values unless required, otherwise absolute http(s) URLs.
func checkLink(raw string, required bool) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return invalidf("url is required")
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalidf("invalid url %q", raw)
	}
	return nil
}
