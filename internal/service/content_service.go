package service

import (
	"context"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/content"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ContentService struct {
	repo    content.Repository
	auditor Auditor
	metrics *metrics.Collector
	log     *zap.Logger
	now     func() time.Time
}

func NewContentService(repo content.Repository, auditor Auditor, m *metrics.Collector, log *zap.Logger) *ContentService {
	return &ContentService{repo: repo, auditor: auditor, metrics: m, log: log, now: time.Now}
}

func (s *ContentService) Create(ctx context.Context, p *access.Principal, cmd *content.CreateContentCommand, ip string) (*content.Content, error) {
	if err := access.Require(p, access.ResourceEducationalContent, access.ActionCreate); err != nil {
		return nil, err
	}

	var v validation
	v.add(strings.TrimSpace(cmd.Title) == "", "title is required")
	v.add(strings.TrimSpace(cmd.Body) == "", "body is required")
	if err := v.err(); err != nil {
		return nil, err
	}

	slug := cmd.Slug
	if slug == "" {
		slug = content.Slugify(cmd.Title)
	}
	if err := s.checkSlug(ctx, slug, nil); err != nil {
		return nil, err
	}

	readingTime := cmd.ReadingTime
	if readingTime <= 0 {
		readingTime = content.EstimateReadingTime(cmd.Body)
	}

	c := &content.Content{
		Title:         strings.TrimSpace(cmd.Title),
		Slug:          slug,
		Body:          cmd.Body,
		Summary:       cmd.Summary,
		Categories:    cmd.Categories,
		Tags:          cmd.Tags,
		FeaturedImage: cmd.FeaturedImage,
		ReadingTime:   readingTime,
		AuthorID:      p.UserID,
	}
	if cmd.Published {
		c.Publish(s.now().UTC())
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionCreate, access.ResourceEducationalContent, c.ID, ip))
	return c, nil
}

// Get serves an article to anyone, counting the view. Drafts are only
// visible to their author and admins; for everyone else they do not exist.
func (s *ContentService) Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*content.Content, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p, c)
}

func (s *ContentService) GetBySlug(ctx context.Context, p *access.Principal, slug string) (*content.Content, error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p, c)
}

func (s *ContentService) view(ctx context.Context, p *access.Principal, c *content.Content) (*content.Content, error) {
	if !c.Published {
		if !canSeeDraft(p, c) {
			return nil, content.ErrContentNotFound
		}
		return c, nil
	}

	views, err := s.repo.IncrementViews(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Views = views
	if s.metrics != nil {
		s.metrics.ContentViewsTotal.Inc()
	}
	return c, nil
}

func (s *ContentService) Update(ctx context.Context, p *access.Principal, id uuid.UUID, cmd *content.UpdateContentCommand, ip string) (*content.Content, error) {
	if err := access.Require(p, access.ResourceEducationalContent, access.ActionUpdate); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, access.ResourceEducationalContent, access.ActionUpdate, c.AuthorID); err != nil {
		return nil, err
	}

	var v validation
	v.add(cmd.Title != nil && strings.TrimSpace(*cmd.Title) == "", "title cannot be empty")
	v.add(cmd.Body != nil && strings.TrimSpace(*cmd.Body) == "", "body cannot be empty")
	if err := v.err(); err != nil {
		return nil, err
	}

	if cmd.Slug != nil && *cmd.Slug != c.Slug {
		if err := s.checkSlug(ctx, *cmd.Slug, &c.ID); err != nil {
			return nil, err
		}
		c.Slug = *cmd.Slug
	}
	if cmd.Title != nil {
		c.Title = strings.TrimSpace(*cmd.Title)
	}
	if cmd.Body != nil {
		c.Body = *cmd.Body
		if cmd.ReadingTime == nil {
			c.ReadingTime = content.EstimateReadingTime(c.Body)
		}
	}
	if cmd.ReadingTime != nil {
		c.ReadingTime = *cmd.ReadingTime
	}
	if cmd.Summary != nil {
		c.Summary = *cmd.Summary
	}
	if cmd.Categories != nil {
		c.Categories = cmd.Categories
	}
	if cmd.Tags != nil {
		c.Tags = cmd.Tags
	}
	if cmd.FeaturedImage != nil {
		c.FeaturedImage = *cmd.FeaturedImage
	}
	if cmd.Published != nil {
		if *cmd.Published {
			c.Publish(s.now().UTC())
		} else {
			c.Unpublish()
		}
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionUpdate, access.ResourceEducationalContent, c.ID, ip))
	return c, nil
}

func (s *ContentService) UpdateBySlug(ctx context.Context, p *access.Principal, slug string, cmd *content.UpdateContentCommand, ip string) (*content.Content, error) {
	if err := access.Require(p, access.ResourceEducationalContent, access.ActionUpdate); err != nil {
		return nil, err
	}
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, p, c.ID, cmd, ip)
}

func (s *ContentService) Delete(ctx context.Context, p *access.Principal, id uuid.UUID, ip string) error {
	if err := access.Require(p, access.ResourceEducationalContent, access.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionDelete, access.ResourceEducationalContent, id, ip))
	return nil
}

func (s *ContentService) DeleteBySlug(ctx context.Context, p *access.Principal, slug string, ip string) error {
	if err := access.Require(p, access.ResourceEducationalContent, access.ActionDelete); err != nil {
		return err
	}
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.Delete(ctx, p, c.ID, ip)
}

// List shows published content by default. Asking for drafts narrows a
// doctor to their own; anonymous callers and patients only ever get
// published content.
func (s *ContentService) List(ctx context.Context, p *access.Principal, q *content.ListContentQuery) (*content.PagedContent, error) {
	published := true
	if q.Published != nil {
		published = *q.Published
	}

	if !published {
		switch {
		case p.IsAdmin():
		case p != nil && access.Authorize(p.Role, access.ResourceEducationalContent, access.ActionCreate):
			self := p.UserID
			q.AuthorID = &self
		default:
			published = true
		}
	}
	q.Published = &published

	return s.repo.List(ctx, q)
}

func (s *ContentService) checkSlug(ctx context.Context, slug string, exclude *uuid.UUID) error {
	if !content.ValidSlug(slug) {
		return content.ErrInvalidSlug
	}
	taken, err := s.repo.SlugExists(ctx, slug, exclude)
	if err != nil {
		return err
	}
	if taken {
		return content.ErrSlugTaken
	}
	return nil
}

func canSeeDraft(p *access.Principal, c *content.Content) bool {
	return p != nil && (p.IsAdmin() || p.UserID == c.AuthorID)
}
