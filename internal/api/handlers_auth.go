// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"
	"strings"

	"github.com/custodahq/custoda/internal/auth"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/models"
)

// handleRegister bootstraps a new organization with its first admin user
// and a free subscription in a single transaction.
//
//	@Summary	Register a new organization
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		models.CreateOrgRequest	true	"Registration payload"
//	@Success	201		{object}	models.APIResponse{data=models.LoginResponse}
//	@Router		/api/v1/auth/register [post]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.CreateOrgRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.AdminPassword, s.cfg.Security.BcryptCost)
	if err != nil {
		rw.InternalError(err)
		return
	}

	first, last := splitName(req.AdminName)
	org := models.NewOrg(req.Name, req.ContactEmail)
	admin := models.NewUser(org.ID, first, last, req.AdminEmail, hash, models.RoleAdmin)

	if err := s.db.CreateOrgWithAdmin(r.Context(), org, admin); err != nil {
		rw.DomainError(err)
		return
	}

	token, err := s.jwt.GenerateToken(admin)
	if err != nil {
		rw.InternalError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("org_id", org.ID.String()).
		Str("org_slug", org.Slug).
		Msg("Organization registered")

	rw.Created(&models.LoginResponse{
		Token:     token,
		ExpiresIn: int(s.jwt.Timeout().Seconds()),
		User:      admin,
	})
}

// handleLogin authenticates a user and returns a signed session token.
// Failures are deliberately indistinguishable: unknown email, wrong
// password and a deactivated account all answer the same 401.
//
//	@Summary	Log in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		models.LoginRequest	true	"Credentials"
//	@Success	200		{object}	models.APIResponse{data=models.LoginResponse}
//	@Router		/api/v1/auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.LoginRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	user, err := s.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		// Burn a bcrypt round so response timing does not reveal
		// whether the account exists.
		auth.CheckPassword("$2a$10$000000000000000000000uGyGOPq1LdeangIBWFrGJpgli5Domoim", req.Password)
		rw.Unauthorized("invalid credentials")
		return
	}

	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		rw.Unauthorized("invalid credentials")
		return
	}

	token, err := s.jwt.GenerateToken(user)
	if err != nil {
		rw.InternalError(err)
		return
	}

	if err := s.db.TouchLastLogin(r.Context(), user.ID); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to record last login")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.jwt.Timeout().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	rw.Success(&models.LoginResponse{
		Token:     token,
		ExpiresIn: int(s.jwt.Timeout().Seconds()),
		User:      user,
	})
}

// handleLogout clears the session cookie. Tokens are stateless, so the
// bearer token itself stays valid until expiry.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	rw.Success(map[string]string{"status": "logged out"})
}

// handleMe returns the authenticated user's profile.
//
//	@Summary	Current user profile
//	@Tags		auth
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	models.APIResponse{data=models.User}
//	@Router		/api/v1/auth/me [get]
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	user, err := s.db.GetUser(r.Context(), c.OrgID, c.UserID)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(user)
}

// splitName divides a display name into first and last parts at the
// first space. Single-word names leave the last name empty.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i >= 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}
