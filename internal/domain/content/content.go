package content

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const wordsPerMinute = 200

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Slugify derives a slug from a title: lower case, runs of anything other
// than letters and digits collapse to one hyphen.
func Slugify(title string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

type Content struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Title         string   `gorm:"column:title;type:varchar(300);not null"`
	Slug          string   `gorm:"column:slug;type:varchar(300);not null;uniqueIndex"`
	Body          string   `gorm:"column:body;type:text;not null"`
	Summary       string   `gorm:"column:summary;type:text"`
	Categories    []string `gorm:"column:categories;type:jsonb;serializer:json"`
	Tags          []string `gorm:"column:tags;type:jsonb;serializer:json"`
	FeaturedImage string   `gorm:"column:featured_image;type:varchar(500)"`
	ReadingTime   int      `gorm:"column:reading_time;default:0"`

	Published   bool       `gorm:"column:published;not null;default:false;index"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	Views       int64      `gorm:"column:views;not null;default:0"`

	AuthorID uuid.UUID `gorm:"column:author_id;type:uuid;not null;index"`
}

func (Content) TableName() string {
	return "clinical.educational_content"
}

// Publish marks the content published. PublishedAt is only ever set once.
func (c *Content) Publish(now time.Time) {
	c.Published = true
	if c.PublishedAt == nil {
		c.PublishedAt = &now
	}
}

func (c *Content) Unpublish() {
	c.Published = false
}

// EstimateReadingTime returns minutes at a steady reading pace, at least one.
func EstimateReadingTime(body string) int {
	words := len(strings.Fields(body))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

type CreateContentCommand struct {
	Title         string
	Slug          string
	Body          string
	Summary       string
	Categories    []string
	Tags          []string
	FeaturedImage string
	ReadingTime   int
	Published     bool
}

type UpdateContentCommand struct {
	Title         *string
	Slug          *string
	Body          *string
	Summary       *string
	Categories    []string
	Tags          []string
	FeaturedImage *string
	ReadingTime   *int
	Published     *bool
}

type ListContentQuery struct {
	// Published nil means both states.
	Published *bool
	AuthorID  *uuid.UUID
	Category  string
	Tag       string
	Search    string
	Page      int
	PageSize  int
}

type PagedContent struct {
	Items      []*Content
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
