// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/custodahq/custoda/internal/cache"
	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/models"
)

const (
	testAdminEmail    = "admin@acme.test"
	testAdminPassword = "correct-horse-battery"
)

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:              "0123456789abcdef0123456789abcdef",
			SessionTimeout:         time.Hour,
			BcryptCost:             4,
			CORSOrigins:            []string{"*"},
			RateLimitDisabled:      true,
			LoginRateLimitRequests: 1000,
			LoginRateLimitWindow:   time.Minute,
		},
		API: config.APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			MaxBodyBytes:    1 << 20,
		},
		Cache: config.CacheConfig{
			Backend: "memory",
			TTL:     time.Minute,
		},
		Cloudinary: config.CloudinaryConfig{MaxUploadBytes: 1 << 20},
		Stripe:     config.StripeConfig{WebhookSecret: "whsec_test"},
	}
}

type testServer struct {
	srv     *Server
	handler http.Handler
	db      *database.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := testConfig()
	db, err := database.New(&config.DatabaseConfig{
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cacher, err := cache.New(context.Background(), &cfg.Cache)
	if err != nil {
		t.Fatalf("create test cache: %v", err)
	}
	t.Cleanup(func() { _ = cacher.Close() })

	srv, err := NewServer(cfg, db, cacher, nil, nil, nil)
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, handler: srv.Router(), db: db}
}

// do issues a request against the router with an optional bearer token
// and JSON body.
func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors models.APIResponse with raw data for per-test
// decoding.
type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *models.APIError `json:"error"`
	Meta    *models.Meta     `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope, got error %+v", env.Error)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

// register bootstraps an org through the public endpoint and returns the
// admin's token.
func (ts *testServer) register(t *testing.T) (token string, admin models.User) {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":           "Acme Property Group",
		"contact_email":  "ops@acme.test",
		"admin_name":     "Ada Admin",
		"admin_email":    testAdminEmail,
		"admin_password": testAdminPassword,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp models.LoginResponse
	decodeData(t, rec, &resp)
	if resp.Token == "" || resp.User == nil {
		t.Fatal("register: missing token or user in response")
	}
	return resp.Token, *resp.User
}

// createUser invites a user through the admin API and logs them in.
func (ts *testServer) createUser(t *testing.T, adminToken, email, role string) (token string, user models.User) {
	t.Helper()

	const password = "another-safe-password"
	rec := ts.do(t, http.MethodPost, "/api/v1/users", adminToken, map[string]string{
		"first_name": "Tess",
		"last_name":  "User",
		"email":      email,
		"password":   password,
		"role":       role,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &user)

	login := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if login.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%s)", email, login.Code, login.Body.String())
	}
	var resp models.LoginResponse
	decodeData(t, login, &resp)
	return resp.Token, user
}

// createProperty makes one property and returns it.
func (ts *testServer) createProperty(t *testing.T, token, name string) models.Property {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/v1/properties", token, map[string]interface{}{
		"name":          name,
		"address_line1": "1 Main St",
		"city":          "Springfield",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create property: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var property models.Property
	decodeData(t, rec, &property)
	return property
}
