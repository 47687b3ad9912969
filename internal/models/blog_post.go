// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Blog post statuses.
const (
	BlogPostStatusDraft     = "draft"
	BlogPostStatusPublished = "published"
)

// Blog post sources.
const (
	BlogPostSourceManual    = "manual"
	BlogPostSourceGenerated = "generated"
)

// BlogPost is platform-level marketing content, not org-scoped. Published
// posts are served without authentication; drafts are admin-only. Posts
// are either written by staff or produced by the content generator in
// internal/blog.
type BlogPost struct {
	Base
	Title string `gorm:"size:200;not null" json:"title"`
	// Slug is the unique URL key; collisions get a numeric suffix.
	Slug string `gorm:"size:220;uniqueIndex;not null" json:"slug"`
	// Body is markdown.
	Body string `gorm:"type:text;not null" json:"body"`
	// Excerpt is a short teaser for list views.
	Excerpt string `gorm:"size:500" json:"excerpt,omitempty"`
	// Tags classify the post for list filtering.
	Tags []string `gorm:"serializer:json" json:"tags,omitempty"`

	// Status is draft or published.
	Status string `gorm:"size:16;not null;default:draft;index" json:"status"`
	// Source records whether staff or the generator wrote the post.
	Source string `gorm:"size:16;not null;default:manual" json:"source"`
	// Model is the LLM identifier for generated posts, empty otherwise.
	Model string `gorm:"size:100" json:"model,omitempty"`

	// PublishedAt is stamped when the post first goes live.
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
	// AuthorID is the staff author. Nil for generated posts.
	AuthorID *uuid.UUID `gorm:"type:uuid" json:"author_id,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsPublished reports whether the post is publicly visible.
func (p *BlogPost) IsPublished() bool {
	return p.Status == BlogPostStatusPublished
}

// CreateBlogPostRequest is the payload for POST /api/v1/blog.
type CreateBlogPostRequest struct {
	Title   string   `json:"title" validate:"required,min=3,max=200"`
	Body    string   `json:"body" validate:"required,min=1"`
	Excerpt string   `json:"excerpt,omitempty" validate:"omitempty,max=500"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
	Publish bool     `json:"publish,omitempty"`
}

// UpdateBlogPostRequest carries mutable post fields. Setting Status to
// published stamps PublishedAt on first publish.
type UpdateBlogPostRequest struct {
	Title   *string  `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Body    *string  `json:"body,omitempty" validate:"omitempty,min=1"`
	Excerpt *string  `json:"excerpt,omitempty" validate:"omitempty,max=500"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
	Status  *string  `json:"status,omitempty" validate:"omitempty,oneof=draft published"`
}

// GenerateBlogPostRequest is the payload for POST /api/v1/blog/generate.
// Topic overrides the configured rotation for a one-off generation.
type GenerateBlogPostRequest struct {
	Topic   string `json:"topic,omitempty" validate:"omitempty,min=3,max=200"`
	Publish bool   `json:"publish,omitempty"`
}
