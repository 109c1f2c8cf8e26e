package v1

import (
	"context"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/content"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ContentService interface {
	Create(ctx context.Context, p *access.Principal, cmd *content.CreateContentCommand, ip string) (*content.Content, error)
	Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*content.Content, error)
	GetBySlug(ctx context.Context, p *access.Principal, slug string) (*content.Content, error)
	Update(ctx context.Context, p *access.Principal, id uuid.UUID, cmd *content.UpdateContentCommand, ip string) (*content.Content, error)
	UpdateBySlug(ctx context.Context, p *access.Principal, slug string, cmd *content.UpdateContentCommand, ip string) (*content.Content, error)
	Delete(ctx context.Context, p *access.Principal, id uuid.UUID, ip string) error
	DeleteBySlug(ctx context.Context, p *access.Principal, slug string, ip string) error
	List(ctx context.Context, p *access.Principal, q *content.ListContentQuery) (*content.PagedContent, error)
}

type ContentHandler struct {
	svc ContentService
}

func NewContentHandler(svc ContentService) *ContentHandler {
	return &ContentHandler{svc: svc}
}

type createContentRequest struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Body          string   `json:"body"`
	Summary       string   `json:"summary"`
	Categories    []string `json:"categories"`
	Tags          []string `json:"tags"`
	FeaturedImage string   `json:"featuredImage"`
	ReadingTime   int      `json:"readingTime"`
	Published     bool     `json:"published"`
}

type updateContentRequest struct {
	Title         *string  `json:"title"`
	Slug          *string  `json:"slug"`
	Body          *string  `json:"body"`
	Summary       *string  `json:"summary"`
	Categories    []string `json:"categories"`
	Tags          []string `json:"tags"`
	FeaturedImage *string  `json:"featuredImage"`
	ReadingTime   *int     `json:"readingTime"`
	Published     *bool    `json:"published"`
}

func (r *updateContentRequest) command() *content.UpdateContentCommand {
	return &content.UpdateContentCommand{
		Title:         r.Title,
		Slug:          r.Slug,
		Body:          r.Body,
		Summary:       r.Summary,
		Categories:    r.Categories,
		Tags:          r.Tags,
		FeaturedImage: r.FeaturedImage,
		ReadingTime:   r.ReadingTime,
		Published:     r.Published,
	}
}

func (h *ContentHandler) Create(c *gin.Context) {
	var req createContentRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Create(c.Request.Context(), principal(c), &content.CreateContentCommand{
		Title:         req.Title,
		Slug:          req.Slug,
		Body:          req.Body,
		Summary:       req.Summary,
		Categories:    req.Categories,
		Tags:          req.Tags,
		FeaturedImage: req.FeaturedImage,
		ReadingTime:   req.ReadingTime,
		Published:     req.Published,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, toContentResponse(item))
}

func (h *ContentHandler) List(c *gin.Context) {
	q := &content.ListContentQuery{
		Published: parseQueryBool(c, "published"),
		Category:  c.Query("category"),
		Tag:       c.Query("tag"),
		Search:    c.Query("search"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "pageSize", 20),
	}
	res, err := h.svc.List(c.Request.Context(), principal(c), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pageOf(res.Items, res.TotalCount, res.Page, res.PageSize, res.TotalPages, toContentResponse))
}

func (h *ContentHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	item, err := h.svc.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toContentResponse(item))
}

func (h *ContentHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateContentRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Update(c.Request.Context(), principal(c), id, req.command(), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toContentResponse(item))
}

func (h *ContentHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), principal(c), id, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ContentHandler) GetBySlug(c *gin.Context) {
	item, err := h.svc.GetBySlug(c.Request.Context(), principal(c), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toContentResponse(item))
}

func (h *ContentHandler) UpdateBySlug(c *gin.Context) {
	var req updateContentRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.UpdateBySlug(c.Request.Context(), principal(c), c.Param("slug"), req.command(), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toContentResponse(item))
}

func (h *ContentHandler) DeleteBySlug(c *gin.Context) {
	if err := h.svc.DeleteBySlug(c.Request.Context(), principal(c), c.Param("slug"), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes mounts reads on public, which should attach the caller when
// a token is present so authors can see their drafts.
func (h *ContentHandler) RegisterRoutes(public, authed *gin.RouterGroup) {
	public.GET("/educational-content", h.List)
	public.GET("/educational-content/:id", h.Get)
	authed.POST("/educational-content", h.Create)
	authed.PUT("/educational-content/:id", h.Update)
	authed.DELETE("/educational-content/:id", h.Delete)

	public.GET("/articles/:slug", h.GetBySlug)
	authed.PUT("/articles/:slug", h.UpdateBySlug)
	authed.DELETE("/articles/:slug", h.DeleteBySlug)
}
