// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/custodahq/custoda/internal/blog"
	"github.com/custodahq/custoda/internal/cache"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/models"
)

// handleListPublishedBlogPosts is the public, cached list of published
// posts.
//
//	@Summary	List published blog posts
//	@Tags		blog
//	@Produce	json
//	@Param		tag	query		string	false	"Filter by tag"
//	@Success	200	{object}	models.APIResponse{data=models.ListResponse}
//	@Router		/api/v1/blog [get]
func (s *Server) handleListPublishedBlogPosts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset := s.pagination(r)
	tag := r.URL.Query().Get("tag")

	key := cache.BlogListKey(cache.Fingerprint(tag, strconv.Itoa(limit), strconv.Itoa(offset)))
	if raw, hit := s.cache.Get(r.Context(), key); hit {
		rw.SuccessCached(json.RawMessage(raw))
		return
	}

	posts, total, err := s.db.ListBlogPosts(r.Context(), database.BlogPostFilter{
		PublishedOnly: true,
		Tag:           tag,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		rw.DomainError(err)
		return
	}

	list := models.NewListResponse(posts, limit, offset, total)
	if raw, err := json.Marshal(list); err == nil {
		s.cache.Set(r.Context(), key, raw)
	}
	rw.Success(list)
}

// handleGetPublishedBlogPost is the public, cached read of one published
// post by slug.
func (s *Server) handleGetPublishedBlogPost(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		rw.BadRequest("missing slug")
		return
	}

	key := cache.BlogPostKey(slug)
	if raw, hit := s.cache.Get(r.Context(), key); hit {
		rw.SuccessCached(json.RawMessage(raw))
		return
	}

	post, err := s.db.GetPublishedBlogPost(r.Context(), slug)
	if err != nil {
		rw.DomainError(err)
		return
	}

	if raw, err := json.Marshal(post); err == nil {
		s.cache.Set(r.Context(), key, raw)
	}
	rw.Success(post)
}

// handleListBlogPosts is the admin list including drafts.
func (s *Server) handleListBlogPosts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset := s.pagination(r)
	posts, total, err := s.db.ListBlogPosts(r.Context(), database.BlogPostFilter{
		Tag:    r.URL.Query().Get("tag"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(models.NewListResponse(posts, limit, offset, total))
}

// handleGetBlogPost is the admin read of one post by id.
func (s *Server) handleGetBlogPost(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	post, err := s.db.GetBlogPost(r.Context(), id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(post)
}

// handleCreateBlogPost creates a staff-authored post.
func (s *Server) handleCreateBlogPost(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	var req models.CreateBlogPostRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	status := models.BlogPostStatusDraft
	if req.Publish {
		status = models.BlogPostStatusPublished
	}
	author := c.UserID
	post := &models.BlogPost{
		Title:    req.Title,
		Body:     req.Body,
		Excerpt:  req.Excerpt,
		Tags:     req.Tags,
		Status:   status,
		Source:   models.BlogPostSourceManual,
		AuthorID: &author,
	}
	if err := s.db.CreateBlogPost(r.Context(), post); err != nil {
		rw.DomainError(err)
		return
	}

	s.invalidateBlogCache(r)
	rw.Created(post)
}

// handleUpdateBlogPost applies post edits.
func (s *Server) handleUpdateBlogPost(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.UpdateBlogPostRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	post, err := s.db.UpdateBlogPost(r.Context(), id, &req)
	if err != nil {
		rw.DomainError(err)
		return
	}

	s.invalidateBlogCache(r)
	rw.Success(post)
}

// handleDeleteBlogPost soft-deletes a post.
func (s *Server) handleDeleteBlogPost(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	if err := s.db.DeleteBlogPost(r.Context(), id); err != nil {
		rw.DomainError(err)
		return
	}

	s.invalidateBlogCache(r)
	rw.NoContent()
}

// handleGenerateBlogPost runs one AI generation synchronously. Gated on
// the pro plan's AI content entitlement; the caller is notified through
// the outbox when the post lands.
func (s *Server) handleGenerateBlogPost(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	if s.generator == nil {
		rw.ServiceUnavailable("content generation is not configured")
		return
	}

	var req models.GenerateBlogPostRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	if err := s.entitlements.CheckAIContent(r.Context(), c.OrgID); err != nil {
		rw.DomainError(err)
		return
	}

	post, err := s.generator.Generate(r.Context(), blog.GenerateOptions{
		Topic:        req.Topic,
		Publish:      req.Publish,
		Trigger:      blog.TriggerManual,
		NotifyOrgID:  c.OrgID,
		NotifyUserID: c.UserID,
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Blog generation failed")
		rw.ExternalServiceError("content generator", err)
		return
	}

	s.invalidateBlogCache(r)
	rw.Created(post)
}

func (s *Server) invalidateBlogCache(r *http.Request) {
	s.cache.DeletePrefix(r.Context(), cache.BlogPrefix)
}
