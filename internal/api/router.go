// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/custodahq/custoda/internal/authz"
	"github.com/custodahq/custoda/internal/middleware"
	"github.com/custodahq/custoda/internal/models"
)

// Router builds the full route tree. Middleware order matters: request
// ids and panic recovery wrap everything, metrics run after routing so
// the chi pattern is available, auth runs before authz.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compression)
	r.Use(middleware.PrometheusMetrics)

	// Operational endpoints sit outside the versioned API.
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitHealth())
		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface: registration, login, webhooks, published blog.
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitPublic())
			r.Post("/auth/register", s.handleRegister)
			r.With(s.authmw.LoginRateLimit).Post("/auth/login", s.handleLogin)
			r.Get("/blog", s.handleListPublishedBlogPosts)
			r.Get("/blog/{slug}", s.handleGetPublishedBlogPost)
		})
		r.With(s.rateLimitWebhook()).Post("/webhooks/stripe", s.handleStripeWebhook)

		// Websocket upgrade authenticates from the token itself; the
		// standard middleware chain would reject the upgrade handshake.
		r.Get("/ws", s.handleWebSocket)

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitAPI())
			r.Use(s.authmw.Authenticate)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			r.Route("/orgs", func(r chi.Router) {
				r.With(s.authz.RequirePermission(authz.ObjectOrgs, authz.ActionRead)).
					Get("/current", s.handleGetOrg)
				r.With(s.authz.RequirePermission(authz.ObjectOrgs, authz.ActionWrite)).
					Put("/current", s.handleUpdateOrg)
			})

			r.Route("/users", func(r chi.Router) {
				// PMs may list technicians and tenants; the handler
				// narrows the visible roles below admin.
				r.With(s.authmw.RequireRole(models.RoleAdmin, models.RolePropertyManager)).
					Get("/", s.handleListUsers)
				r.Group(func(r chi.Router) {
					r.Use(s.authz.RequirePermission(authz.ObjectUsers, authz.ActionWrite))
					r.Post("/", s.handleCreateUser)
					r.Put("/{id}", s.handleUpdateUser)
				})
				r.With(s.authz.RequirePermission(authz.ObjectUsers, authz.ActionRead)).
					Get("/{id}", s.handleGetUser)
				r.With(s.authz.RequirePermission(authz.ObjectUsers, authz.ActionDelete)).
					Delete("/{id}", s.handleDeleteUser)
				// Self-service profile edits bypass the admin policy.
				r.Patch("/me", s.handleUpdateProfile)
			})

			r.Route("/properties", func(r chi.Router) {
				r.With(s.authz.RequirePermission(authz.ObjectProperties, authz.ActionRead)).
					Get("/", s.handleListProperties)
				r.With(s.authz.RequirePermission(authz.ObjectProperties, authz.ActionRead)).
					Get("/{id}", s.handleGetProperty)
				r.Group(func(r chi.Router) {
					r.Use(s.authz.RequirePermission(authz.ObjectProperties, authz.ActionWrite))
					r.Post("/", s.handleCreateProperty)
					r.Put("/{id}", s.handleUpdateProperty)
				})
				r.With(s.authz.RequirePermission(authz.ObjectProperties, authz.ActionDelete)).
					Delete("/{id}", s.handleDeleteProperty)

				r.Route("/{propertyID}/units", func(r chi.Router) {
					r.With(s.authz.RequirePermission(authz.ObjectUnits, authz.ActionRead)).
						Get("/", s.handleListUnits)
					r.With(s.authz.RequirePermission(authz.ObjectUnits, authz.ActionWrite)).
						Post("/", s.handleCreateUnit)
				})
			})

			r.Route("/units", func(r chi.Router) {
				r.With(s.authz.RequirePermission(authz.ObjectUnits, authz.ActionRead)).
					Get("/{id}", s.handleGetUnit)
				r.With(s.authz.RequirePermission(authz.ObjectUnits, authz.ActionWrite)).
					Put("/{id}", s.handleUpdateUnit)
				r.With(s.authz.RequirePermission(authz.ObjectUnits, authz.ActionDelete)).
					Delete("/{id}", s.handleDeleteUnit)
			})

			r.Route("/jobs", func(r chi.Router) {
				r.Use(s.authz.RequirePermission(authz.ObjectJobs, authz.ActionRead))
				r.Get("/", s.handleListJobs)
				r.Get("/{id}", s.handleGetJob)
				r.Group(func(r chi.Router) {
					r.Use(s.authz.RequirePermission(authz.ObjectJobs, authz.ActionWrite))
					r.Post("/", s.handleCreateJob)
					r.Put("/{id}", s.handleUpdateJob)
					r.Post("/{id}/assign", s.handleAssignJob)
					r.Post("/{id}/status", s.handleJobStatus)
				})
				r.With(s.authz.RequirePermission(authz.ObjectJobs, authz.ActionDelete)).
					Delete("/{id}", s.handleDeleteJob)
			})

			r.Route("/maintenance-plans", func(r chi.Router) {
				r.Use(s.authz.RequirePermission(authz.ObjectMaintenancePlans, authz.ActionRead))
				r.Get("/", s.handleListMaintenancePlans)
				r.Get("/{id}", s.handleGetMaintenancePlan)
				r.Group(func(r chi.Router) {
					r.Use(s.authz.RequirePermission(authz.ObjectMaintenancePlans, authz.ActionWrite))
					r.Post("/", s.handleCreateMaintenancePlan)
					r.Put("/{id}", s.handleUpdateMaintenancePlan)
					r.Post("/{id}/run", s.handleRunMaintenancePlan)
				})
				r.With(s.authz.RequirePermission(authz.ObjectMaintenancePlans, authz.ActionDelete)).
					Delete("/{id}", s.handleDeleteMaintenancePlan)
			})

			r.Route("/inspections", func(r chi.Router) {
				r.Use(s.authz.RequirePermission(authz.ObjectInspections, authz.ActionRead))
				r.Get("/", s.handleListInspections)
				r.Get("/{id}", s.handleGetInspection)
				r.Group(func(r chi.Router) {
					r.Use(s.authz.RequirePermission(authz.ObjectInspections, authz.ActionWrite))
					r.Post("/", s.handleCreateInspection)
					r.Put("/{id}", s.handleUpdateInspection)
					r.Post("/{id}/complete", s.handleCompleteInspection)
				})
				r.With(s.authz.RequirePermission(authz.ObjectInspections, authz.ActionDelete)).
					Delete("/{id}", s.handleDeleteInspection)
			})

			r.Route("/recommendations", func(r chi.Router) {
				r.Use(s.authz.RequirePermission(authz.ObjectRecommendations, authz.ActionRead))
				r.Get("/", s.handleListRecommendations)
				r.Get("/{id}", s.handleGetRecommendation)
				r.Group(func(r chi.Router) {
					r.Use(s.authz.RequirePermission(authz.ObjectRecommendations, authz.ActionWrite))
					r.Put("/{id}", s.handleUpdateRecommendation)
					r.Post("/{id}/convert", s.handleConvertRecommendation)
				})
			})

			r.Route("/service-requests", func(r chi.Router) {
				r.Use(s.authz.RequirePermission(authz.ObjectServiceRequests, authz.ActionRead))
				r.Get("/", s.handleListServiceRequests)
				r.Get("/{id}", s.handleGetServiceRequest)
				r.With(s.authz.RequirePermission(authz.ObjectServiceRequests, authz.ActionWrite)).
					Post("/", s.handleCreateServiceRequest)
				// Triage and conversion are staff operations on top of
				// the write permission tenants also hold.
				r.Group(func(r chi.Router) {
					r.Use(s.authmw.RequireRole(models.RoleAdmin, models.RolePropertyManager))
					r.Post("/{id}/triage", s.handleTriageServiceRequest)
					r.Post("/{id}/convert", s.handleConvertServiceRequest)
					r.Delete("/{id}", s.handleDeleteServiceRequest)
				})
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.With(s.authz.RequirePermission(authz.ObjectSubscriptions, authz.ActionRead)).
					Get("/current", s.handleGetSubscription)
				r.Group(func(r chi.Router) {
					r.Use(s.authz.RequirePermission(authz.ObjectSubscriptions, authz.ActionWrite))
					r.Post("/checkout", s.handleCheckout)
					r.Post("/portal", s.handlePortal)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.handleListNotifications)
				r.Get("/unread-count", s.handleUnreadCount)
				r.Post("/{id}/read", s.handleMarkNotificationRead)
				r.Post("/read-all", s.handleMarkAllNotificationsRead)
			})

			// Admin blog routes are registered flat so the static
			// /blog/admin segments take precedence over the public
			// /blog/{slug} param route on the same trie.
			r.Group(func(r chi.Router) {
				r.Use(s.authz.RequirePermission(authz.ObjectBlog, authz.ActionWrite))
				r.Get("/blog/admin", s.handleListBlogPosts)
				r.Get("/blog/admin/{id}", s.handleGetBlogPost)
				r.Post("/blog", s.handleCreateBlogPost)
				r.Put("/blog/{id}", s.handleUpdateBlogPost)
				r.Post("/blog/generate", s.handleGenerateBlogPost)
			})
			r.With(s.authz.RequirePermission(authz.ObjectBlog, authz.ActionDelete)).
				Delete("/blog/{id}", s.handleDeleteBlogPost)

			r.With(s.authz.RequirePermission(authz.ObjectUploads, authz.ActionWrite)).
				Post("/uploads", s.handleUpload)
		})
	})

	return r
}
