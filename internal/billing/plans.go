// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/models"
)

// Unlimited marks a limit with no cap.
const Unlimited = -1

// Plan describes what a subscription tier entitles an org to.
type Plan struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MaxProperties int    `json:"max_properties"`
	MaxUnits      int    `json:"max_units"`
	// AIContent gates the blog generator.
	AIContent bool `json:"ai_content"`
}

// The plan catalog. Limits are enforced at resource creation, so a
// downgraded org keeps existing resources but cannot add more.
var plans = map[string]Plan{
	models.PlanFree: {
		ID:            models.PlanFree,
		Name:          "Free",
		MaxProperties: 1,
		MaxUnits:      20,
	},
	models.PlanStarter: {
		ID:            models.PlanStarter,
		Name:          "Starter",
		MaxProperties: 10,
		MaxUnits:      500,
	},
	models.PlanPro: {
		ID:            models.PlanPro,
		Name:          "Pro",
		MaxProperties: Unlimited,
		MaxUnits:      Unlimited,
		AIContent:     true,
	},
}

// PlanByID returns the catalog entry for a plan id, falling back to free
// for unrecognized ids.
func PlanByID(id string) Plan {
	if p, ok := plans[id]; ok {
		return p
	}
	return plans[models.PlanFree]
}

// Plans returns the catalog in display order.
func Plans() []Plan {
	return []Plan{plans[models.PlanFree], plans[models.PlanStarter], plans[models.PlanPro]}
}

// ErrPlanLimit is returned when an org's plan does not cover the
// attempted operation. The API layer maps it to PAYMENT_REQUIRED.
type ErrPlanLimit struct {
	Plan    string
	Limit   string
	Message string
}

func (e *ErrPlanLimit) Error() string {
	return fmt.Sprintf("plan %s: %s", e.Plan, e.Message)
}

// Entitlements answers "may this org do X right now" questions against
// the org's effective plan.
type Entitlements struct {
	db *database.DB
}

// NewEntitlements creates the entitlement checker.
func NewEntitlements(db *database.DB) *Entitlements {
	return &Entitlements{db: db}
}

// effectivePlan loads the org's subscription and resolves the plan it is
// entitled to right now. Orgs with no subscription row (should not
// happen) are treated as free.
func (e *Entitlements) effectivePlan(ctx context.Context, orgID uuid.UUID) (Plan, error) {
	sub, err := e.db.GetSubscription(ctx, orgID)
	if err != nil {
		if err == database.ErrNotFound {
			return PlanByID(models.PlanFree), nil
		}
		return Plan{}, err
	}
	return PlanByID(sub.EffectivePlan()), nil
}

// CheckPropertyCreate verifies the org may add another property.
func (e *Entitlements) CheckPropertyCreate(ctx context.Context, orgID uuid.UUID) error {
	plan, err := e.effectivePlan(ctx, orgID)
	if err != nil {
		return err
	}
	if plan.MaxProperties == Unlimited {
		return nil
	}

	count, err := e.db.CountProperties(ctx, orgID)
	if err != nil {
		return err
	}
	if count >= int64(plan.MaxProperties) {
		return &ErrPlanLimit{
			Plan:    plan.ID,
			Limit:   "properties",
			Message: fmt.Sprintf("property limit of %d reached, upgrade to add more", plan.MaxProperties),
		}
	}
	return nil
}

// CheckUnitCreate verifies the org may add another unit.
func (e *Entitlements) CheckUnitCreate(ctx context.Context, orgID uuid.UUID) error {
	plan, err := e.effectivePlan(ctx, orgID)
	if err != nil {
		return err
	}
	if plan.MaxUnits == Unlimited {
		return nil
	}

	count, err := e.db.CountUnits(ctx, orgID)
	if err != nil {
		return err
	}
	if count >= int64(plan.MaxUnits) {
		return &ErrPlanLimit{
			Plan:    plan.ID,
			Limit:   "units",
			Message: fmt.Sprintf("unit limit of %d reached, upgrade to add more", plan.MaxUnits),
		}
	}
	return nil
}

// CheckAIContent verifies the org's plan includes AI content generation.
func (e *Entitlements) CheckAIContent(ctx context.Context, orgID uuid.UUID) error {
	plan, err := e.effectivePlan(ctx, orgID)
	if err != nil {
		return err
	}
	if !plan.AIContent {
		return &ErrPlanLimit{
			Plan:    plan.ID,
			Limit:   "ai_content",
			Message: "AI content generation requires the pro plan",
		}
	}
	return nil
}
