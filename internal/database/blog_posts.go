// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/custodahq/custoda/internal/models"
)

// BlogPostFilter narrows ListBlogPosts results.
type BlogPostFilter struct {
	PublishedOnly bool
	Tag           string
	Limit         int
	Offset        int
}

// CreateBlogPost inserts a post, uniquifying the slug with a numeric
// suffix on collision.
func (db *DB) CreateBlogPost(ctx context.Context, post *models.BlogPost) error {
	return db.withTx(ctx, func(tx *gorm.DB) error {
		slug, err := uniqueSlugTx(tx, models.Slugify(post.Title))
		if err != nil {
			return err
		}
		post.Slug = slug
		if post.Status == models.BlogPostStatusPublished && post.PublishedAt == nil {
			now := time.Now().UTC()
			post.PublishedAt = &now
		}
		return tx.Create(post).Error
	})
}

// GetBlogPost fetches a post by id regardless of status. Admin reads.
func (db *DB) GetBlogPost(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	var post models.BlogPost
	err := db.gorm.WithContext(ctx).First(&post, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

// GetPublishedBlogPost fetches a published post by slug. Public reads.
func (db *DB) GetPublishedBlogPost(ctx context.Context, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	err := db.gorm.WithContext(ctx).
		Where("slug = ? AND status = ?", slug, models.BlogPostStatusPublished).
		First(&post).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

// ListBlogPosts returns a page of posts plus the total count. Public
// callers set PublishedOnly; admin sees drafts too.
func (db *DB) ListBlogPosts(ctx context.Context, filter BlogPostFilter) ([]models.BlogPost, int64, error) {
	q := db.gorm.WithContext(ctx).Model(&models.BlogPost{})

	if filter.PublishedOnly {
		q = q.Where("status = ?", models.BlogPostStatusPublished)
	}
	if filter.Tag != "" {
		// Tags serialize to a JSON array; a LIKE match on the quoted tag
		// keeps this portable across postgres and sqlite.
		q = q.Where("tags LIKE ?", `%"`+filter.Tag+`"%`)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var posts []models.BlogPost
	err := q.Order("COALESCE(published_at, created_at) DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return posts, total, nil
}

// UpdateBlogPost applies non-nil fields. First publish stamps
// PublishedAt.
func (db *DB) UpdateBlogPost(ctx context.Context, id uuid.UUID, req *models.UpdateBlogPostRequest) (*models.BlogPost, error) {
	var post models.BlogPost
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", id).Error; err != nil {
			return err
		}
		if req.Title != nil {
			post.Title = *req.Title
		}
		if req.Body != nil {
			post.Body = *req.Body
		}
		if req.Excerpt != nil {
			post.Excerpt = *req.Excerpt
		}
		if req.Tags != nil {
			post.Tags = req.Tags
		}
		if req.Status != nil {
			if *req.Status == models.BlogPostStatusPublished && post.PublishedAt == nil {
				now := time.Now().UTC()
				post.PublishedAt = &now
			}
			post.Status = *req.Status
		}
		return tx.Save(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CountGeneratedBlogPosts counts machine-written posts. The content
// generator uses this to rotate through its topic list.
func (db *DB) CountGeneratedBlogPosts(ctx context.Context) (int64, error) {
	var count int64
	err := db.gorm.WithContext(ctx).
		Model(&models.BlogPost{}).
		Where("source = ?", models.BlogPostSourceGenerated).
		Count(&count).Error
	return count, translateError(err)
}

// DeleteBlogPost soft-deletes a post.
func (db *DB) DeleteBlogPost(ctx context.Context, id uuid.UUID) error {
	res := db.gorm.WithContext(ctx).Delete(&models.BlogPost{}, "id = ?", id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// uniqueSlugTx appends -2, -3, ... until the slug is free. Soft-deleted
// posts still hold their slug.
func uniqueSlugTx(tx *gorm.DB, base string) (string, error) {
	if base == "" {
		base = "post"
	}
	slug := base
	for i := 2; ; i++ {
		var count int64
		err := tx.Unscoped().
			Model(&models.BlogPost{}).
			Where("slug = ?", slug).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
