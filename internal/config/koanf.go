// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CUSTODA_CONFIG"

// DefaultConfigPaths are searched in order when CUSTODA_CONFIG is unset.
var DefaultConfigPaths = []string{
	"custoda.yaml",
	"config/custoda.yaml",
	"/etc/custoda/custoda.yaml",
}

// Load builds the configuration from three layers, later layers overriding
// earlier ones:
//
//  1. struct defaults (defaultConfig)
//  2. optional YAML file (findConfigFile)
//  3. environment variables (envTransformFunc mapping table)
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated env strings into slices.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
	"blog.topics",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars arrive as strings; YAML arrays pass through.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unknown variables return "" and are skipped, so unrelated environment
// noise never leaks into the configuration.
//
// Examples:
//   - CUSTODA_HTTP_PORT        -> server.port
//   - DATABASE_DSN             -> database.dsn
//   - STRIPE_WEBHOOK_SECRET    -> stripe.webhook_secret
//   - ANTHROPIC_API_KEY        -> blog.anthropic_api_key
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"custoda_http_host":        "server.host",
		"custoda_http_port":        "server.port",
		"custoda_base_url":         "server.base_url",
		"custoda_shutdown_timeout": "server.shutdown_timeout",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Database
		"database_dsn":           "database.dsn",
		"database_max_open":      "database.max_open_conns",
		"database_max_idle":      "database.max_idle_conns",
		"database_auto_migrate":  "database.auto_migrate",
		"seed_org_name":          "database.seed_org_name",
		"seed_admin_email":       "database.seed_admin_email",
		"seed_admin_pass":        "database.seed_admin_pass",

		// Security
		"jwt_secret":                "security.jwt_secret",
		"session_timeout":           "security.session_timeout",
		"bcrypt_cost":               "security.bcrypt_cost",
		"cors_origins":              "security.cors_origins",
		"trusted_proxies":           "security.trusted_proxies",
		"rate_limit_requests":       "security.rate_limit_requests",
		"rate_limit_window":         "security.rate_limit_window",
		"rate_limit_disabled":       "security.rate_limit_disabled",
		"login_rate_limit_requests": "security.login_rate_limit_requests",
		"login_rate_limit_window":   "security.login_rate_limit_window",

		// API
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",
		"api_max_body_bytes":    "api.max_body_bytes",

		// Cache
		"cache_backend":  "cache.backend",
		"cache_ttl":      "cache.ttl",
		"redis_addr":     "cache.redis_addr",
		"redis_password": "cache.redis_password",
		"redis_db":       "cache.redis_db",

		// Stripe
		"stripe_enabled":              "stripe.enabled",
		"stripe_secret_key":           "stripe.secret_key",
		"stripe_webhook_secret":       "stripe.webhook_secret",
		"stripe_starter_price_id":     "stripe.starter_price_id",
		"stripe_pro_price_id":         "stripe.pro_price_id",
		"stripe_checkout_success_url": "stripe.checkout_success_url",
		"stripe_checkout_cancel_url":  "stripe.checkout_cancel_url",
		"stripe_portal_return_url":    "stripe.portal_return_url",

		// Email
		"email_enabled":  "email.enabled",
		"smtp_host":      "email.smtp_host",
		"smtp_port":      "email.smtp_port",
		"smtp_username":  "email.username",
		"smtp_password":  "email.password",
		"email_from":     "email.from",
		"email_from_name": "email.from_name",
		"smtp_starttls":  "email.starttls",

		// Notification dispatcher
		"notify_dispatch_interval": "notify.dispatch_interval",
		"notify_batch_size":        "notify.batch_size",
		"notify_workers":           "notify.workers",
		"notify_max_attempts":      "notify.max_attempts",

		// Maintenance plan runner
		"plans_run_interval": "plans.run_interval",
		"plans_batch_size":   "plans.batch_size",

		// Blog generation
		"blog_enabled":           "blog.enabled",
		"anthropic_api_key":      "blog.anthropic_api_key",
		"anthropic_model":        "blog.model",
		"anthropic_max_tokens":   "blog.max_tokens",
		"blog_cron":              "blog.cron",
		"blog_timezone":          "blog.timezone",
		"blog_topics":            "blog.topics",
		"blog_auto_publish":      "blog.auto_publish",
		"blog_check_interval":    "blog.check_interval",
		"blog_execution_timeout": "blog.execution_timeout",

		// Cloudinary
		"cloudinary_enabled":          "cloudinary.enabled",
		"cloudinary_url":              "cloudinary.url",
		"cloudinary_folder":           "cloudinary.folder",
		"cloudinary_max_upload_bytes": "cloudinary.max_upload_bytes",

		// Metrics
		"metrics_enabled": "metrics.enabled",
	}

	if path, ok := envMappings[key]; ok {
		return path
	}

	// Unmapped variables are dropped.
	return ""
}
