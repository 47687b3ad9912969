// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/metrics"
	"github.com/custodahq/custoda/internal/models"
)

const systemPrompt = `You are a content writer for Custoda, a property
operations platform for property managers, maintenance technicians, and
landlords. Write practical, experience-grounded blog posts about property
management, preventive maintenance, tenant relations, and rental
operations. Avoid fluff and sales language.`

const responseFormat = `Respond in exactly this format:

Title: <post title, at most 120 characters>
Excerpt: <one or two sentence teaser, at most 400 characters>
Tags: <two to five comma-separated lowercase tags>

<the full post body in markdown, starting after a blank line>`

// Generation triggers, used as a metrics label.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// Completer is the LLM surface the generator needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, Usage, error)
}

// GenerateOptions controls a single generation run.
type GenerateOptions struct {
	// Topic overrides the configured rotation when set.
	Topic string
	// Publish publishes the post immediately instead of drafting it.
	Publish bool
	// Trigger labels the run in metrics (manual, scheduled).
	Trigger string
	// NotifyOrgID/NotifyUserID address a completion notification to the
	// requesting admin. Zero values skip the notification.
	NotifyOrgID  uuid.UUID
	NotifyUserID uuid.UUID
}

// Generator turns a topic into a stored BlogPost.
type Generator struct {
	db  *database.DB
	llm Completer
	cfg config.BlogConfig
}

// NewGenerator creates a blog post generator.
func NewGenerator(db *database.DB, llm Completer, cfg config.BlogConfig) *Generator {
	return &Generator{db: db, llm: llm, cfg: cfg}
}

// Generate runs one generation: pick a topic, prompt the model, parse
// the response, and store the post.
func (g *Generator) Generate(ctx context.Context, opts GenerateOptions) (post *models.BlogPost, err error) {
	start := time.Now()
	var usage Usage
	defer func() {
		metrics.RecordBlogGeneration(opts.Trigger, time.Since(start), usage.InputTokens, usage.OutputTokens, err)
	}()

	topic := opts.Topic
	if topic == "" {
		topic, err = g.nextTopic(ctx)
		if err != nil {
			return nil, err
		}
	}

	userPrompt := fmt.Sprintf("Write a blog post about: %s\n\n%s", topic, responseFormat)

	var text string
	text, usage, err = g.llm.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	parsed, err := parseGeneratedPost(text)
	if err != nil {
		return nil, fmt.Errorf("unusable completion: %w", err)
	}

	status := models.BlogPostStatusDraft
	if opts.Publish || g.cfg.AutoPublish {
		status = models.BlogPostStatusPublished
	}

	post = &models.BlogPost{
		Title:   parsed.title,
		Body:    parsed.body,
		Excerpt: parsed.excerpt,
		Tags:    parsed.tags,
		Status:  status,
		Source:  models.BlogPostSourceGenerated,
		Model:   g.cfg.Model,
	}
	if err = g.db.CreateBlogPost(ctx, post); err != nil {
		return nil, fmt.Errorf("store generated post: %w", err)
	}

	logging.Info().
		Str("post_id", post.ID.String()).
		Str("slug", post.Slug).
		Str("status", post.Status).
		Str("trigger", opts.Trigger).
		Int("output_tokens", usage.OutputTokens).
		Msg("blog post generated")

	g.notifyRequester(ctx, opts, post)
	return post, nil
}

// nextTopic rotates through the configured topic list, keyed on how
// many generated posts already exist.
func (g *Generator) nextTopic(ctx context.Context) (string, error) {
	if len(g.cfg.Topics) == 0 {
		return "", errors.New("no topic given and no topic rotation configured")
	}
	count, err := g.db.CountGeneratedBlogPosts(ctx)
	if err != nil {
		return "", fmt.Errorf("count generated posts: %w", err)
	}
	return g.cfg.Topics[count%int64(len(g.cfg.Topics))], nil
}

// notifyRequester enqueues a completion notification for manual runs.
// Scheduled runs have no requesting user and skip this.
func (g *Generator) notifyRequester(ctx context.Context, opts GenerateOptions, post *models.BlogPost) {
	if opts.NotifyOrgID == uuid.Nil || opts.NotifyUserID == uuid.Nil {
		return
	}
	n := models.NewNotification(opts.NotifyOrgID, opts.NotifyUserID, models.NotificationTypeSystem,
		"Blog post generated",
		fmt.Sprintf("%q is ready for review (%s).", post.Title, post.Status),
		map[string]string{"blog_post_id": post.ID.String(), "slug": post.Slug})
	if err := g.db.CreateNotification(ctx, n); err != nil {
		logging.Error().Err(err).Str("post_id", post.ID.String()).
			Msg("failed to enqueue generation notification")
	}
}

type parsedPost struct {
	title   string
	excerpt string
	tags    []string
	body    string
}

// parseGeneratedPost extracts the structured header and markdown body
// from a completion, tolerating code fences around the whole response.
func parseGeneratedPost(text string) (*parsedPost, error) {
	text = stripCodeFences(text)

	lines := strings.Split(text, "\n")
	post := &parsedPost{}
	bodyStart := len(lines)

header:
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Title:"):
			post.title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Title:"))
		case strings.HasPrefix(trimmed, "Excerpt:"):
			post.excerpt = strings.TrimSpace(strings.TrimPrefix(trimmed, "Excerpt:"))
		case strings.HasPrefix(trimmed, "Tags:"):
			post.tags = splitTags(strings.TrimPrefix(trimmed, "Tags:"))
		case trimmed == "":
			if post.title != "" {
				bodyStart = i + 1
				break header
			}
		default:
			// Model skipped the header; treat everything as body.
			bodyStart = i
			break header
		}
	}

	post.body = strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))

	if post.title == "" {
		// Fall back to a leading markdown heading.
		if h, rest, ok := strings.Cut(post.body, "\n"); ok && strings.HasPrefix(h, "# ") {
			post.title = strings.TrimSpace(strings.TrimPrefix(h, "# "))
			post.body = strings.TrimSpace(rest)
		}
	}
	if post.title == "" || post.body == "" {
		return nil, errors.New("completion has no title or body")
	}
	if len(post.title) > 200 {
		post.title = post.title[:200]
	}
	if len(post.excerpt) > 500 {
		post.excerpt = post.excerpt[:500]
	}
	return post, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) > 10 {
		tags = tags[:10]
	}
	return tags
}

// stripCodeFences unwraps a response the model wrapped in a markdown
// code fence.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
