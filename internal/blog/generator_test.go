// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package blog

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/models"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close test database: %v", err)
		}
	})
	return db
}

// fakeCompleter returns a canned completion and records prompts.
type fakeCompleter struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, _, userPrompt string) (string, Usage, error) {
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return "", Usage{}, f.err
	}
	return f.text, Usage{InputTokens: 50, OutputTokens: 300}, nil
}

const goodCompletion = `Title: Five Signs a Water Heater Needs Replacing
Excerpt: Catch water heater failure before the flood.
Tags: maintenance, plumbing, prevention

## Watch the age

Most tank heaters last eight to twelve years.`

func TestGenerateStoresDraft(t *testing.T) {
	db := setupTestDB(t)
	g := NewGenerator(db, &fakeCompleter{text: goodCompletion}, config.BlogConfig{
		Model:  "claude-sonnet-4-20250514",
		Topics: []string{"water heaters"},
	})

	post, err := g.Generate(context.Background(), GenerateOptions{Trigger: TriggerScheduled})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if post.Title != "Five Signs a Water Heater Needs Replacing" {
		t.Errorf("title = %q", post.Title)
	}
	if post.Status != models.BlogPostStatusDraft {
		t.Errorf("status = %q, want draft", post.Status)
	}
	if post.Source != models.BlogPostSourceGenerated {
		t.Errorf("source = %q, want generated", post.Source)
	}
	if post.Model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", post.Model)
	}
	if post.Slug == "" {
		t.Error("expected a slug")
	}
	if !reflect.DeepEqual(post.Tags, []string{"maintenance", "plumbing", "prevention"}) {
		t.Errorf("tags = %v", post.Tags)
	}

	stored, err := db.GetBlogPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("stored post not found: %v", err)
	}
	if !strings.Contains(stored.Body, "Watch the age") {
		t.Errorf("stored body = %q", stored.Body)
	}
}

func TestGenerateAutoPublish(t *testing.T) {
	db := setupTestDB(t)
	g := NewGenerator(db, &fakeCompleter{text: goodCompletion}, config.BlogConfig{
		Model:       "claude-sonnet-4-20250514",
		AutoPublish: true,
	})

	post, err := g.Generate(context.Background(), GenerateOptions{Topic: "roof inspections", Trigger: TriggerManual})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if post.Status != models.BlogPostStatusPublished {
		t.Errorf("status = %q, want published", post.Status)
	}
	if post.PublishedAt == nil {
		t.Error("expected PublishedAt to be stamped")
	}
}

func TestGenerateTopicRotation(t *testing.T) {
	db := setupTestDB(t)
	llm := &fakeCompleter{text: goodCompletion}
	g := NewGenerator(db, llm, config.BlogConfig{
		Model:  "claude-sonnet-4-20250514",
		Topics: []string{"first topic", "second topic"},
	})

	for range 3 {
		if _, err := g.Generate(context.Background(), GenerateOptions{Trigger: TriggerScheduled}); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
	}

	wantOrder := []string{"first topic", "second topic", "first topic"}
	for i, want := range wantOrder {
		if !strings.Contains(llm.prompts[i], want) {
			t.Errorf("run %d prompt missing topic %q", i, want)
		}
	}
}

func TestGenerateNoTopicsConfigured(t *testing.T) {
	db := setupTestDB(t)
	g := NewGenerator(db, &fakeCompleter{text: goodCompletion}, config.BlogConfig{})

	if _, err := g.Generate(context.Background(), GenerateOptions{Trigger: TriggerScheduled}); err == nil {
		t.Fatal("expected error with no topic and empty rotation")
	}
}

func TestGenerateCompletionFailure(t *testing.T) {
	db := setupTestDB(t)
	g := NewGenerator(db, &fakeCompleter{err: errors.New("api down")}, config.BlogConfig{
		Topics: []string{"anything"},
	})

	if _, err := g.Generate(context.Background(), GenerateOptions{Trigger: TriggerScheduled}); err == nil {
		t.Fatal("expected completion failure to surface")
	}

	posts, total, err := db.ListBlogPosts(context.Background(), database.BlogPostFilter{Limit: 10})
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if total != 0 || len(posts) != 0 {
		t.Errorf("expected no stored posts, got %d", total)
	}
}

func TestGenerateNotifiesRequester(t *testing.T) {
	db := setupTestDB(t)
	org := models.NewOrg("Test Management Co", "admin@blog.test")
	admin := models.NewUser(uuid.Nil, "Ada", "Admin", "admin@blog.test", "hash", models.RoleAdmin)
	if err := db.CreateOrgWithAdmin(context.Background(), org, admin); err != nil {
		t.Fatalf("seed org: %v", err)
	}
	user, err := db.GetUserByEmail(context.Background(), "admin@blog.test")
	if err != nil {
		t.Fatalf("load admin: %v", err)
	}

	g := NewGenerator(db, &fakeCompleter{text: goodCompletion}, config.BlogConfig{})
	post, err := g.Generate(context.Background(), GenerateOptions{
		Topic:        "lease renewals",
		Trigger:      TriggerManual,
		NotifyOrgID:  org.ID,
		NotifyUserID: user.ID,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	pending, err := db.PendingNotifications(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("poll notifications: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending notifications = %d, want 1", len(pending))
	}
	if pending[0].Type != models.NotificationTypeSystem {
		t.Errorf("type = %q", pending[0].Type)
	}
	if pending[0].Data["blog_post_id"] != post.ID.String() {
		t.Errorf("data = %v", pending[0].Data)
	}
}

func TestParseGeneratedPost(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    *parsedPost
		wantErr bool
	}{
		{
			name: "structured header",
			text: "Title: A Post\nExcerpt: Teaser.\nTags: one, Two\n\nBody here.",
			want: &parsedPost{title: "A Post", excerpt: "Teaser.", tags: []string{"one", "two"}, body: "Body here."},
		},
		{
			name: "fenced response",
			text: "```markdown\nTitle: Fenced\n\nBody.\n```",
			want: &parsedPost{title: "Fenced", body: "Body."},
		},
		{
			name: "heading fallback",
			text: "# Heading Title\nBody follows.",
			want: &parsedPost{title: "Heading Title", body: "Body follows."},
		},
		{
			name:    "no usable content",
			text:    "Title: Only a title",
			wantErr: true,
		},
		{
			name:    "empty",
			text:    "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGeneratedPost(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseGeneratedPost() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parsed = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSchedulerValidatesConfig(t *testing.T) {
	g := &Generator{}

	if _, err := NewScheduler(g, config.BlogConfig{Cron: "not a cron"}); err == nil {
		t.Error("expected invalid cron to fail")
	}
	if _, err := NewScheduler(g, config.BlogConfig{Cron: "0 9 * * 1", Timezone: "Mars/Olympus"}); err == nil {
		t.Error("expected invalid timezone to fail")
	}
	if _, err := NewScheduler(g, config.BlogConfig{Cron: "0 9 * * 1", Timezone: "America/New_York"}); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

// blockingCompleter holds Generate open until released, counting calls.
type blockingCompleter struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingCompleter) Complete(ctx context.Context, _, _ string) (string, Usage, error) {
	b.calls.Add(1)
	select {
	case b.started <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return "", Usage{}, ctx.Err()
	}
	return goodCompletion, Usage{InputTokens: 10, OutputTokens: 20}, nil
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	db := setupTestDB(t)
	llm := &blockingCompleter{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	gen := NewGenerator(db, llm, config.BlogConfig{Topics: []string{"gutters"}})
	s, err := NewScheduler(gen, config.BlogConfig{Cron: "0 9 * * 1"})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	ctx := context.Background()
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		s.runOnce(ctx)
	}()
	<-llm.started

	// The first run still holds the gate, so this one must bail out
	// without touching the generator.
	s.runOnce(ctx)
	if got := llm.calls.Load(); got != 1 {
		t.Fatalf("generator calls = %d, want 1 while a run is in flight", got)
	}

	close(llm.release)
	<-firstDone

	// With the gate released the next fire generates again.
	s.runOnce(ctx)
	if got := llm.calls.Load(); got != 2 {
		t.Fatalf("generator calls = %d, want 2 after the first run finished", got)
	}
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	s, err := NewScheduler(&Generator{}, config.BlogConfig{
		Cron:          "0 9 * * 1",
		CheckInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop after context cancel")
	}
}
