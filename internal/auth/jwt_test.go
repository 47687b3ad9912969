// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/models"
)

const testSecret = "this_is_a_very_long_secret_key_with_32_plus_characters"

func testUser() *models.User {
	return models.NewUser(uuid.New(), "Dana", "Reyes", "dana@example.com", "x", models.RolePropertyManager)
}

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.SecurityConfig
		wantErr bool
	}{
		{
			name: "valid secret",
			cfg: &config.SecurityConfig{
				JWTSecret:      testSecret,
				SessionTimeout: 24 * time.Hour,
			},
			wantErr: false,
		},
		{
			name: "empty secret",
			cfg: &config.SecurityConfig{
				JWTSecret:      "",
				SessionTimeout: 24 * time.Hour,
			},
			wantErr: true,
		},
		{
			name: "short secret",
			cfg: &config.SecurityConfig{
				JWTSecret:      "too_short",
				SessionTimeout: 24 * time.Hour,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewJWTManager(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewJWTManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("NewJWTManager() unexpected error = %v", err)
				return
			}
			if manager == nil {
				t.Error("NewJWTManager() returned nil manager")
			}
		})
	}
}

func TestNewJWTManagerDefaultTimeout(t *testing.T) {
	manager, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	if manager.Timeout() != 24*time.Hour {
		t.Errorf("Timeout() = %v, want %v", manager.Timeout(), 24*time.Hour)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	manager, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      testSecret,
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	user := testUser()
	token, err := manager.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("ValidateToken() user id = %v, want %v", claims.UserID, user.ID)
	}
	if claims.OrgID != user.OrgID {
		t.Errorf("ValidateToken() org id = %v, want %v", claims.OrgID, user.OrgID)
	}
	if claims.Email != user.Email {
		t.Errorf("ValidateToken() email = %v, want %v", claims.Email, user.Email)
	}
	if claims.Role != user.Role {
		t.Errorf("ValidateToken() role = %v, want %v", claims.Role, user.Role)
	}
	if claims.Subject != user.ID.String() {
		t.Errorf("ValidateToken() subject = %v, want %v", claims.Subject, user.ID.String())
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	manager, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      testSecret,
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "invalid token format",
			token: "invalid.token.format",
		},
		{
			name:  "empty token",
			token: "",
		},
		{
			name:  "malformed token",
			token: "not_a_jwt_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := manager.ValidateToken(tt.token)
			if err == nil {
				t.Error("ValidateToken() expected error for invalid token, got nil")
			}
			if claims != nil {
				t.Error("ValidateToken() expected nil claims for invalid token")
			}
		})
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	manager1, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "first_secret_key_that_is_long_enough_for_testing_12345",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	manager2, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "second_secret_key_that_is_different_from_first_12345",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token, err := manager1.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := manager2.ValidateToken(token)
	if err == nil {
		t.Error("ValidateToken() expected error when using wrong secret, got nil")
	}
	if claims != nil {
		t.Error("ValidateToken() expected nil claims when using wrong secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	// Constructed directly so the token is issued already expired.
	manager := &JWTManager{secret: []byte(testSecret), timeout: -time.Hour}

	token, err := manager.GenerateToken(testUser())
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err == nil {
		t.Error("ValidateToken() expected error for expired token, got nil")
	}
	if claims != nil {
		t.Error("ValidateToken() expected nil claims for expired token")
	}
}

func TestValidateToken_MissingIdentity(t *testing.T) {
	manager, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      testSecret,
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	// A token for a zero-value user carries nil identity claims.
	token, err := manager.GenerateToken(&models.User{})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("ValidateToken() expected error for token without identity claims, got nil")
	}
}
