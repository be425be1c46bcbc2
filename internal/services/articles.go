package services

import (
	"context"
	"fmt"
	"strconv"
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
	DefaultArticleLimit = 10
	MaxArticleLimit     = 50
	MaxCommentLength    = 2000

	articleListTTL    = 30 * time.Second
	articleListPrefix = "articles:list:"
)

// Excerpter produces a short summary for an article body.
type Excerpter interface {
	GenerateExcerpt(ctx context.Context, title, content string) (string, error)
}

type ArticleFilter struct {
	Limit    int
	Offset   int
	Category string
	Premium  *bool
}

func (f ArticleFilter) normalized() ArticleFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultArticleLimit
	}
	if f.Limit > MaxArticleLimit {
		f.Limit = MaxArticleLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func (f ArticleFilter) cacheKey() string {
	premium := "any"
	if f.Premium != nil {
		premium = strconv.FormatBool(*f.Premium)
	}
	return fmt.Sprintf("%s%d:%d:%s:%s", articleListPrefix, f.Limit, f.Offset, f.Category, premium)
}

type CreateArticleInput struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Excerpt   string   `json:"excerpt"`
	ImageURL  string   `json:"imageUrl"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	IsPremium bool     `json:"isPremium"`
}

type CreateCommentInput struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parentId"`
}

type LikeResult struct {
	IsLiked   bool `json:"isLiked"`
	LikeCount int  `json:"likeCount"`
}

// ArticleService is the content store for articles, their comments and likes.
type ArticleService struct {
	db       *gorm.DB
	cache    *utils.Cache
	excerpts Excerpter
	now      func() time.Time
}

// NewArticleService wires the store. excerpts may be nil.
func NewArticleService(db *gorm.DB, cache *utils.Cache, excerpts Excerpter) *ArticleService {
	return &ArticleService{
		db:       db,
		cache:    cache,
		excerpts: excerpts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns articles newest first. Results are cached briefly per filter.
func (s *ArticleService) List(f ArticleFilter) ([]models.Article, error) {
	f = f.normalized()
	key := f.cacheKey()
	if cached, ok := s.cache.Get(key).([]models.Article); ok {
		return append([]models.Article(nil), cached...), nil
	}

	q := s.db.Model(&models.Article{}).Preload("Author")
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Premium != nil {
		q = q.Where("is_premium = ?", *f.Premium)
	}

	articles := []models.Article{}
	err := q.Order("published_at DESC, id DESC").Limit(f.Limit).Offset(f.Offset).Find(&articles).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	s.cache.Set(key, articles, articleListTTL)
	return append([]models.Article(nil), articles...), nil
}

// Recent returns up to limit articles newest first without counting views or
// touching the list cache.
func (s *ArticleService) Recent(limit int) ([]models.Article, error) {
	articles := []models.Article{}
	err := s.db.Preload("Author").Order("published_at DESC, id DESC").Limit(limit).Find(&articles).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return articles, nil
}

// Get returns an article by id, counting the read.
func (s *ArticleService) Get(id uint) (*models.Article, error) {
	return s.view(s.db.Where("id = ?", id), fmt.Sprintf("article %d", id))
}

// GetBySlug returns an article by slug, counting the read.
func (s *ArticleService) GetBySlug(slug string) (*models.Article, error) {
	return s.view(s.db.Where("slug = ?", slug), fmt.Sprintf("article %q", slug))
}

func (s *ArticleService) view(scope *gorm.DB, label string) (*models.Article, error) {
	var article models.Article
	if err := scope.First(&article).Error; err != nil {
		return nil, notFound(err, "%s", label)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Article{}).Where("id = ?", article.ID).
			UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
			return err
		}
		return bumpStat(tx, article.AuthorID, "total_views", 1)
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	if err := s.db.Preload("Author").First(&article, article.ID).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return &article, nil
}

// Create stores a new article with a unique slug and an excerpt.
func (s *ArticleService) Create(ctx context.Context, authorID uint, in CreateArticleInput) (*models.Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	switch {
	case in.Title == "":
		return nil, invalidf("title is required")
	case utf8.RuneCountInString(in.Title) > 200:
		return nil, invalidf("title longer than 200 characters")
	case in.Content == "":
		return nil, invalidf("content is required")
	case in.Category == "":
		return nil, invalidf("category is required")
	}

	slug, err := s.uniqueSlug(in.Title)
	if err != nil {
		return nil, err
	}

	now := s.now()
	article := &models.Article{
		Title:       in.Title,
		Slug:        slug,
		Content:     in.Content,
		Excerpt:     s.excerpt(ctx, in),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Category:    in.Category,
		Tags:        datatypes.JSONSlice[string](cleanTags(in.Tags)),
		IsPremium:   in.IsPremium,
		AuthorID:    authorID,
		PublishedAt: now,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(article).Error; err != nil {
			return err
		}
		return recordActivity(tx, authorID, now)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, errors.AlreadyExistsf("article with slug %q", slug)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}

	s.cache.DeletePrefix(articleListPrefix)
	return article, nil
}

func (s *ArticleService) excerpt(ctx context.Context, in CreateArticleInput) string {
	if e := strings.TrimSpace(in.Excerpt); e != "" {
		return utils.Truncate(e, 300)
	}
	if s.excerpts != nil {
		e, err := s.excerpts.GenerateExcerpt(ctx, in.Title, in.Content)
		if err == nil {
			return e
		}
		if !errors.Is(err, errors.NotSupported) {
			logger := log.WithComponent("articles")
			logger.Warn().Err(err).Str("title", in.Title).Msg("Excerpt generation failed, using fallback")
		}
	}
	return fallbackExcerpt(in.Content)
}

// uniqueSlug appends -2, -3... until the slug is free.
func (s *ArticleService) uniqueSlug(title string) (string, error) {
	base := utils.Slugify(title)
	if base == "" {
		base = "article"
	}
	candidate := base
	for i := 2; ; i++ {
		var n int64
		if err := s.db.Model(&models.Article{}).Where("slug = ?", candidate).Count(&n).Error; err != nil {
			return "", errors.Trace(err)
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
}

func cleanTags(tags []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Present prepares an article for a reader: rendered HTML, and the excerpt in
// place of the body when a premium article is read by a non-premium user.
func Present(a models.Article, viewer *models.User) models.Article {
	if a.IsPremium && !canReadPremium(a, viewer) {
		a.Content = a.Excerpt
		a.Locked = true
	}
	a.ContentHTML = utils.RenderMarkdown(a.Content)
	return a
}

func canReadPremium(a models.Article, viewer *models.User) bool {
	if viewer == nil {
		return false
	}
	return viewer.IsPremium || viewer.IsAdmin() || viewer.ID == a.AuthorID
}

func (s *ArticleService) exists(tx *gorm.DB, articleID uint) error {
	var n int64
	if err := tx.Model(&models.Article{}).Where("id = ?", articleID).Count(&n).Error; err != nil {
		return errors.Trace(err)
	}
	if n == 0 {
		return errors.NotFoundf("article %d", articleID)
	}
	return nil
}

// Comments lists an article's comments oldest first.
func (s *ArticleService) Comments(articleID uint) ([]models.Comment, error) {
	if err := s.exists(s.db, articleID); err != nil {
		return nil, err
	}
	comments := []models.Comment{}
	err := s.db.Preload("User").
		Where("article_id = ?", articleID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return comments, nil
}

func (s *ArticleService) AddComment(userID, articleID uint, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, invalidf("comment content is required")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, invalidf("comment longer than %d characters", MaxCommentLength)
	}

	comment := &models.Comment{Content: content, ArticleID: articleID, UserID: userID, ParentID: in.ParentID}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.exists(tx, articleID); err != nil {
			return err
		}
		if in.ParentID != nil {
			var n int64
			if err := tx.Model(&models.Comment{}).
				Where("id = ? AND article_id = ?", *in.ParentID, articleID).
				Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return invalidf("parent comment %d is not on this article", *in.ParentID)
			}
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		if err := bumpStat(tx, userID, "comments_count", 1); err != nil {
			return err
		}
		return recordActivity(tx, userID, s.now())
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	if err := s.db.Preload("User").First(comment, comment.ID).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return comment, nil
}

func (s *ArticleService) IsLiked(userID, articleID uint) (bool, error) {
	var n int64
	err := s.db.Model(&models.Like{}).Where("user_id = ? AND article_id = ?", userID, articleID).Count(&n).Error
	if err != nil {
		return false, errors.Trace(err)
	}
	return n > 0, nil
}

// ToggleLike likes or unlikes an article. The like row and both counters
// change in one transaction.
func (s *ArticleService) ToggleLike(userID, articleID uint) (*LikeResult, error) {
	result := &LikeResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.exists(tx, articleID); err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND article_id = ?", userID, articleID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		delta := -1
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.Like{UserID: userID, ArticleID: articleID}).Error; err != nil {
				return err
			}
			delta = 1
			result.IsLiked = true
		}

		if err := tx.Model(&models.Article{}).Where("id = ?", articleID).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error; err != nil {
			return err
		}
		if err := bumpStat(tx, userID, "articles_liked", delta); err != nil {
			return err
		}
		if delta > 0 {
			if err := recordActivity(tx, userID, s.now()); err != nil {
				return err
			}
		}
		return tx.Model(&models.Article{}).Where("id = ?", articleID).
			Select("like_count").Scan(&result.LikeCount).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, errors.AlreadyExistsf("like")
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return result, nil
}
