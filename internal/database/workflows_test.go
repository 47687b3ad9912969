// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

// Workflow tests cover the multi-row transactions: job state changes,
// maintenance plan runs, inspection completion and the two conversion
// paths. Each asserts both the primary state change and the notification
// rows written alongside it.

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/custodahq/custoda/internal/models"
)

// countNotifications counts a user's notifications of the given type.
func countNotifications(t *testing.T, db *DB, orgID, userID uuid.UUID, typ string) int {
	t.Helper()

	notifications, _, err := db.ListNotifications(context.Background(), orgID, userID, false, 100, 0)
	if err != nil {
		t.Fatalf("ListNotifications() failed: %v", err)
	}
	count := 0
	for _, n := range notifications {
		if n.Type == typ {
			count++
		}
	}
	return count
}

// TestJobLifecycle tests the work order state machine end to end
func TestJobLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")
	tech := createTestUser(t, db, org.ID, models.RoleTechnician, "tech@orga.test")

	job := &models.Job{
		OrgID:      org.ID,
		PropertyID: property.ID,
		Title:      "Replace water heater",
		Category:   models.JobCategoryPlumbing,
		Priority:   models.JobPriorityHigh,
		Source:     models.JobSourceManual,
		Status:     models.JobStatusOpen,
	}
	if err := db.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() failed: %v", err)
	}

	t.Run("open job cannot start directly", func(t *testing.T) {
		_, err := db.TransitionJob(ctx, org.ID, job.ID, &models.JobStatusRequest{Status: models.JobStatusInProgress})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("TransitionJob(open -> in_progress) = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("assignment moves to assigned and notifies", func(t *testing.T) {
		got, err := db.AssignJob(ctx, org.ID, job.ID, tech.ID)
		if err != nil {
			t.Fatalf("AssignJob() failed: %v", err)
		}
		if got.Status != models.JobStatusAssigned {
			t.Errorf("Status = %q, want %q", got.Status, models.JobStatusAssigned)
		}
		if got.AssigneeID == nil || *got.AssigneeID != tech.ID {
			t.Errorf("AssigneeID = %v, want %v", got.AssigneeID, tech.ID)
		}
		if n := countNotifications(t, db, org.ID, tech.ID, models.NotificationTypeJobAssigned); n != 1 {
			t.Errorf("assignee notifications = %d, want 1", n)
		}
	})

	t.Run("starting work stamps StartedAt once", func(t *testing.T) {
		got, err := db.TransitionJob(ctx, org.ID, job.ID, &models.JobStatusRequest{Status: models.JobStatusInProgress})
		if err != nil {
			t.Fatalf("TransitionJob() failed: %v", err)
		}
		if got.StartedAt == nil {
			t.Fatal("StartedAt not stamped")
		}
		started := *got.StartedAt

		if _, err := db.TransitionJob(ctx, org.ID, job.ID, &models.JobStatusRequest{Status: models.JobStatusOnHold}); err != nil {
			t.Fatalf("TransitionJob(on_hold) failed: %v", err)
		}
		got, err = db.TransitionJob(ctx, org.ID, job.ID, &models.JobStatusRequest{Status: models.JobStatusInProgress})
		if err != nil {
			t.Fatalf("TransitionJob(resume) failed: %v", err)
		}
		if !got.StartedAt.Equal(started) {
			t.Errorf("StartedAt changed on resume: %v != %v", got.StartedAt, started)
		}
	})

	t.Run("completion records resolution", func(t *testing.T) {
		got, err := db.TransitionJob(ctx, org.ID, job.ID, &models.JobStatusRequest{
			Status:          models.JobStatusCompleted,
			ResolutionNotes: "Installed new 50 gal unit",
			CostCents:       125000,
		})
		if err != nil {
			t.Fatalf("TransitionJob(completed) failed: %v", err)
		}
		if got.CompletedAt == nil {
			t.Error("CompletedAt not stamped")
		}
		if got.ResolutionNotes != "Installed new 50 gal unit" {
			t.Errorf("ResolutionNotes = %q", got.ResolutionNotes)
		}
		if got.CostCents != 125000 {
			t.Errorf("CostCents = %d, want 125000", got.CostCents)
		}
	})

	t.Run("terminal job rejects everything", func(t *testing.T) {
		if _, err := db.TransitionJob(ctx, org.ID, job.ID, &models.JobStatusRequest{Status: models.JobStatusOpen}); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("TransitionJob() on completed = %v, want ErrInvalidTransition", err)
		}
		title := "New title"
		if _, err := db.UpdateJob(ctx, org.ID, job.ID, &models.UpdateJobRequest{Title: &title}); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("UpdateJob() on completed = %v, want ErrInvalidTransition", err)
		}
		if _, err := db.AssignJob(ctx, org.ID, job.ID, tech.ID); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("AssignJob() on completed = %v, want ErrInvalidTransition", err)
		}
	})
}

// TestCreateJobWithAssignee tests that a pre-assigned job starts assigned
// and notifies
func TestCreateJobWithAssignee(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")
	tech := createTestUser(t, db, org.ID, models.RoleTechnician, "tech@orga.test")

	job := &models.Job{
		OrgID:      org.ID,
		PropertyID: property.ID,
		Title:      "Gutter cleaning",
		Category:   models.JobCategoryCleaning,
		Priority:   models.JobPriorityLow,
		Source:     models.JobSourceManual,
		AssigneeID: &tech.ID,
	}
	if err := db.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() failed: %v", err)
	}
	if job.Status != models.JobStatusAssigned {
		t.Errorf("Status = %q, want %q", job.Status, models.JobStatusAssigned)
	}
	if n := countNotifications(t, db, org.ID, tech.ID, models.NotificationTypeJobAssigned); n != 1 {
		t.Errorf("assignee notifications = %d, want 1", n)
	}
}

// TestTransitionJobBackToOpen tests that unassigning clears the assignee
func TestTransitionJobBackToOpen(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")
	tech := createTestUser(t, db, org.ID, models.RoleTechnician, "tech@orga.test")

	job := &models.Job{
		OrgID:      org.ID,
		PropertyID: property.ID,
		Title:      "Broken intercom",
		Category:   models.JobCategoryElectrical,
		Priority:   models.JobPriorityMedium,
		Source:     models.JobSourceManual,
		AssigneeID: &tech.ID,
	}
	if err := db.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() failed: %v", err)
	}

	got, err := db.TransitionJob(ctx, org.ID, job.ID, &models.JobStatusRequest{Status: models.JobStatusOpen})
	if err != nil {
		t.Fatalf("TransitionJob(open) failed: %v", err)
	}
	if got.Status != models.JobStatusOpen {
		t.Errorf("Status = %q, want %q", got.Status, models.JobStatusOpen)
	}
	if got.AssigneeID != nil {
		t.Errorf("AssigneeID = %v, want nil", got.AssigneeID)
	}
}

// TestListJobsPriorityOrder tests that urgent jobs list first
func TestListJobsPriorityOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")

	for _, priority := range []string{models.JobPriorityLow, models.JobPriorityUrgent, models.JobPriorityMedium} {
		job := &models.Job{
			OrgID:      org.ID,
			PropertyID: property.ID,
			Title:      priority + " job",
			Category:   models.JobCategoryOther,
			Priority:   priority,
			Source:     models.JobSourceManual,
			Status:     models.JobStatusOpen,
		}
		if err := db.CreateJob(ctx, job); err != nil {
			t.Fatalf("CreateJob() failed: %v", err)
		}
	}

	jobs, _, err := db.ListJobs(ctx, org.ID, JobFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListJobs() failed: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("len(jobs) = %d, want 3", len(jobs))
	}
	want := []string{models.JobPriorityUrgent, models.JobPriorityMedium, models.JobPriorityLow}
	for i, w := range want {
		if jobs[i].Priority != w {
			t.Errorf("jobs[%d].Priority = %q, want %q", i, jobs[i].Priority, w)
		}
	}
}

// TestRunMaintenancePlan tests manual plan execution
func TestRunMaintenancePlan(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")
	tech := createTestUser(t, db, org.ID, models.RoleTechnician, "tech@orga.test")

	plan := &models.MaintenancePlan{
		OrgID:      org.ID,
		PropertyID: property.ID,
		Title:      "Quarterly HVAC filter swap",
		Category:   models.JobCategoryHVAC,
		Priority:   models.JobPriorityMedium,
		AssigneeID: &tech.ID,
		CronExpr:   "0 9 * * 1",
		IsActive:   true,
	}
	if err := db.CreateMaintenancePlan(ctx, plan); err != nil {
		t.Fatalf("CreateMaintenancePlan() failed: %v", err)
	}
	if plan.NextRunAt.IsZero() {
		t.Fatal("NextRunAt not computed from cron expression")
	}

	job, err := db.RunMaintenancePlan(ctx, org.ID, plan.ID)
	if err != nil {
		t.Fatalf("RunMaintenancePlan() failed: %v", err)
	}

	t.Run("job carries the plan template", func(t *testing.T) {
		if job.Source != models.JobSourceMaintenancePlan {
			t.Errorf("Source = %q, want %q", job.Source, models.JobSourceMaintenancePlan)
		}
		if job.MaintenancePlanID == nil || *job.MaintenancePlanID != plan.ID {
			t.Errorf("MaintenancePlanID = %v, want %v", job.MaintenancePlanID, plan.ID)
		}
		if job.Status != models.JobStatusAssigned {
			t.Errorf("Status = %q, want %q", job.Status, models.JobStatusAssigned)
		}
		if job.Title != plan.Title {
			t.Errorf("Title = %q, want %q", job.Title, plan.Title)
		}
	})

	t.Run("schedule advances", func(t *testing.T) {
		got, err := db.GetMaintenancePlan(ctx, org.ID, plan.ID)
		if err != nil {
			t.Fatalf("GetMaintenancePlan() failed: %v", err)
		}
		if got.LastRunAt == nil {
			t.Error("LastRunAt not stamped")
		}
		if !got.NextRunAt.After(time.Now().UTC()) {
			t.Errorf("NextRunAt = %v, want a future time", got.NextRunAt)
		}
	})

	t.Run("assignee is notified", func(t *testing.T) {
		if n := countNotifications(t, db, org.ID, tech.ID, models.NotificationTypeJobAssigned); n != 1 {
			t.Errorf("assignee notifications = %d, want 1", n)
		}
	})
}

// TestRunDuePlans tests the batch runner
func TestRunDuePlans(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")

	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	due := &models.MaintenancePlan{
		OrgID:      org.ID,
		PropertyID: property.ID,
		Title:      "Weekly landscaping",
		Category:   models.JobCategoryLandscaping,
		Priority:   models.JobPriorityLow,
		CronExpr:   "0 8 * * *",
		NextRunAt:  past,
		IsActive:   true,
	}
	paused := &models.MaintenancePlan{
		OrgID:      org.ID,
		PropertyID: property.ID,
		Title:      "Paused plan",
		Category:   models.JobCategoryOther,
		Priority:   models.JobPriorityLow,
		CronExpr:   "0 8 * * *",
		NextRunAt:  past,
		IsActive:   false,
	}
	future := &models.MaintenancePlan{
		OrgID:      org.ID,
		PropertyID: property.ID,
		Title:      "Future plan",
		Category:   models.JobCategoryOther,
		Priority:   models.JobPriorityLow,
		CronExpr:   "0 8 * * *",
		NextRunAt:  now.Add(24 * time.Hour),
		IsActive:   true,
	}
	for _, p := range []*models.MaintenancePlan{due, paused, future} {
		if err := db.CreateMaintenancePlan(ctx, p); err != nil {
			t.Fatalf("CreateMaintenancePlan(%q) failed: %v", p.Title, err)
		}
	}

	jobs, err := db.RunDuePlans(ctx, now, 50)
	if err != nil {
		t.Fatalf("RunDuePlans() failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("RunDuePlans() created %d jobs, want 1", len(jobs))
	}
	if jobs[0].MaintenancePlanID == nil || *jobs[0].MaintenancePlanID != due.ID {
		t.Errorf("job came from plan %v, want %v", jobs[0].MaintenancePlanID, due.ID)
	}

	// The due plan advanced past now, so an immediate second sweep finds
	// nothing.
	jobs, err = db.RunDuePlans(ctx, now, 50)
	if err != nil {
		t.Fatalf("RunDuePlans() second sweep failed: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("second sweep created %d jobs, want 0", len(jobs))
	}
}

// TestPlanRunConflict tests the guarded schedule advance under a racing
// runner
func TestPlanRunConflict(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")

	plan := &models.MaintenancePlan{
		OrgID:      org.ID,
		PropertyID: property.ID,
		Title:      "Monthly roof check",
		Category:   models.JobCategoryStructural,
		Priority:   models.JobPriorityMedium,
		CronExpr:   "0 9 1 * *",
		IsActive:   true,
	}
	if err := db.CreateMaintenancePlan(ctx, plan); err != nil {
		t.Fatalf("CreateMaintenancePlan() failed: %v", err)
	}

	// Stale snapshot, as a second runner would hold after both polled the
	// same due plan.
	stale := *plan

	if _, err := db.RunMaintenancePlan(ctx, org.ID, plan.ID); err != nil {
		t.Fatalf("RunMaintenancePlan() failed: %v", err)
	}

	err := db.withTx(ctx, func(tx *gorm.DB) error {
		_, err := runPlanTx(tx, &stale, time.Now().UTC())
		return err
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("runPlanTx() with stale NextRunAt = %v, want ErrConflict", err)
	}

	// Exactly one job exists despite two attempted runs.
	_, total, err := db.ListJobs(ctx, org.ID, JobFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListJobs() failed: %v", err)
	}
	if total != 1 {
		t.Errorf("jobs = %d, want 1", total)
	}
}

// TestCompleteInspection tests completion and finding materialization
func TestCompleteInspection(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")
	inspector := createTestUser(t, db, org.ID, models.RolePropertyManager, "insp@orga.test")

	inspection := &models.Inspection{
		OrgID:        org.ID,
		PropertyID:   property.ID,
		InspectorID:  inspector.ID,
		ScheduledFor: time.Now().UTC().Add(24 * time.Hour),
		Status:       models.InspectionStatusScheduled,
	}
	if err := db.CreateInspection(ctx, inspection); err != nil {
		t.Fatalf("CreateInspection() failed: %v", err)
	}

	t.Run("inspector notified on scheduling", func(t *testing.T) {
		if n := countNotifications(t, db, org.ID, inspector.ID, models.NotificationTypeInspectionScheduled); n != 1 {
			t.Errorf("inspector notifications = %d, want 1", n)
		}
	})

	got, recs, err := db.CompleteInspection(ctx, org.ID, inspection.ID, &models.CompleteInspectionRequest{
		Summary: "Roof aging, water stain in 2B",
		Score:   72,
		Findings: []models.InspectionFindingItem{
			{Title: "Replace roof flashing", Details: "North side", Priority: models.JobPriorityHigh},
			{Title: "Repaint ceiling in 2B"},
		},
	})
	if err != nil {
		t.Fatalf("CompleteInspection() failed: %v", err)
	}

	t.Run("inspection is stamped", func(t *testing.T) {
		if got.Status != models.InspectionStatusCompleted {
			t.Errorf("Status = %q, want %q", got.Status, models.InspectionStatusCompleted)
		}
		if got.CompletedAt == nil {
			t.Error("CompletedAt not stamped")
		}
		if got.Score == nil || *got.Score != 72 {
			t.Errorf("Score = %v, want 72", got.Score)
		}
	})

	t.Run("findings become open recommendations", func(t *testing.T) {
		if len(recs) != 2 {
			t.Fatalf("len(recs) = %d, want 2", len(recs))
		}
		for _, rec := range recs {
			if rec.Status != models.RecommendationStatusOpen {
				t.Errorf("rec %q Status = %q, want open", rec.Title, rec.Status)
			}
			if rec.InspectionID == nil || *rec.InspectionID != inspection.ID {
				t.Errorf("rec %q InspectionID = %v, want %v", rec.Title, rec.InspectionID, inspection.ID)
			}
		}
		if recs[1].Priority != models.JobPriorityMedium {
			t.Errorf("default priority = %q, want medium", recs[1].Priority)
		}
	})

	t.Run("completing twice is rejected", func(t *testing.T) {
		_, _, err := db.CompleteInspection(ctx, org.ID, inspection.ID, &models.CompleteInspectionRequest{Summary: "again", Score: 50})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("CompleteInspection() twice = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("completed inspection rejects edits", func(t *testing.T) {
		future := time.Now().UTC().Add(48 * time.Hour)
		_, err := db.UpdateInspection(ctx, org.ID, inspection.ID, &models.UpdateInspectionRequest{ScheduledFor: &future})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("UpdateInspection() on completed = %v, want ErrInvalidTransition", err)
		}
	})
}

// TestUpdateInspectionRejectsCompletionStatus tests that completion must
// go through CompleteInspection
func TestUpdateInspectionRejectsCompletionStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")
	inspector := createTestUser(t, db, org.ID, models.RolePropertyManager, "insp@orga.test")

	inspection := &models.Inspection{
		OrgID:        org.ID,
		PropertyID:   property.ID,
		InspectorID:  inspector.ID,
		ScheduledFor: time.Now().UTC().Add(24 * time.Hour),
		Status:       models.InspectionStatusScheduled,
	}
	if err := db.CreateInspection(ctx, inspection); err != nil {
		t.Fatalf("CreateInspection() failed: %v", err)
	}

	completed := models.InspectionStatusCompleted
	_, err := db.UpdateInspection(ctx, org.ID, inspection.ID, &models.UpdateInspectionRequest{Status: &completed})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("UpdateInspection(status=completed) = %v, want ErrInvalidTransition", err)
	}
}

// TestConvertRecommendation tests the recommendation to job conversion
func TestConvertRecommendation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, admin := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")
	tech := createTestUser(t, db, org.ID, models.RoleTechnician, "tech@orga.test")

	rec := &models.Recommendation{
		OrgID:      org.ID,
		PropertyID: property.ID,
		Title:      "Install smoke detectors",
		Details:    "Units on floors 2-3",
		Priority:   models.JobPriorityHigh,
		Status:     models.RecommendationStatusOpen,
	}
	if err := db.CreateRecommendation(ctx, rec); err != nil {
		t.Fatalf("CreateRecommendation() failed: %v", err)
	}

	job, err := db.ConvertRecommendation(ctx, org.ID, rec.ID, &models.ConvertRecommendationRequest{
		AssigneeID: &tech.ID,
		Category:   models.JobCategoryElectrical,
	}, admin.ID)
	if err != nil {
		t.Fatalf("ConvertRecommendation() failed: %v", err)
	}

	t.Run("job carries the recommendation", func(t *testing.T) {
		if job.Source != models.JobSourceRecommendation {
			t.Errorf("Source = %q, want %q", job.Source, models.JobSourceRecommendation)
		}
		if job.Priority != models.JobPriorityHigh {
			t.Errorf("Priority = %q, want high", job.Priority)
		}
		if job.Status != models.JobStatusAssigned {
			t.Errorf("Status = %q, want assigned", job.Status)
		}
	})

	t.Run("recommendation is linked and final", func(t *testing.T) {
		got, err := db.GetRecommendation(ctx, org.ID, rec.ID)
		if err != nil {
			t.Fatalf("GetRecommendation() failed: %v", err)
		}
		if got.Status != models.RecommendationStatusConverted {
			t.Errorf("Status = %q, want converted", got.Status)
		}
		if got.JobID == nil || *got.JobID != job.ID {
			t.Errorf("JobID = %v, want %v", got.JobID, job.ID)
		}
	})

	t.Run("assignee notified", func(t *testing.T) {
		if n := countNotifications(t, db, org.ID, tech.ID, models.NotificationTypeJobAssigned); n != 1 {
			t.Errorf("assignee notifications = %d, want 1", n)
		}
	})

	t.Run("converting twice is rejected", func(t *testing.T) {
		_, err := db.ConvertRecommendation(ctx, org.ID, rec.ID, &models.ConvertRecommendationRequest{}, admin.ID)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("ConvertRecommendation() twice = %v, want ErrInvalidTransition", err)
		}
	})
}

// TestServiceRequestLifecycle tests submit, triage and conversion
func TestServiceRequestLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, admin := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")
	unit := createTestUnit(t, db, org.ID, property.ID, "2B")
	tenant := createTestUser(t, db, org.ID, models.RoleTenant, "tenant@orga.test")
	tech := createTestUser(t, db, org.ID, models.RoleTechnician, "tech@orga.test")

	sr := &models.ServiceRequest{
		OrgID:       org.ID,
		UnitID:      unit.ID,
		RequesterID: tenant.ID,
		Title:       "Kitchen sink leaking",
		Category:    models.JobCategoryPlumbing,
		Priority:    models.JobPriorityMedium,
	}
	if err := db.CreateServiceRequest(ctx, sr); err != nil {
		t.Fatalf("CreateServiceRequest() failed: %v", err)
	}

	t.Run("property derived from unit", func(t *testing.T) {
		if sr.PropertyID != property.ID {
			t.Errorf("PropertyID = %v, want %v", sr.PropertyID, property.ID)
		}
		if sr.Status != models.ServiceRequestStatusSubmitted {
			t.Errorf("Status = %q, want submitted", sr.Status)
		}
	})

	t.Run("triage notifies the requester", func(t *testing.T) {
		urgent := models.JobPriorityUrgent
		got, err := db.TriageServiceRequest(ctx, org.ID, sr.ID, &models.TriageServiceRequestRequest{
			Status:      models.ServiceRequestStatusTriaged,
			Priority:    &urgent,
			TriageNotes: "Plumber scheduled",
		})
		if err != nil {
			t.Fatalf("TriageServiceRequest() failed: %v", err)
		}
		if got.Status != models.ServiceRequestStatusTriaged {
			t.Errorf("Status = %q, want triaged", got.Status)
		}
		if got.Priority != models.JobPriorityUrgent {
			t.Errorf("Priority = %q, want urgent", got.Priority)
		}
		if n := countNotifications(t, db, org.ID, tenant.ID, models.NotificationTypeServiceRequest); n != 1 {
			t.Errorf("requester notifications = %d, want 1", n)
		}
	})

	t.Run("conversion creates a linked job", func(t *testing.T) {
		job, err := db.ConvertServiceRequest(ctx, org.ID, sr.ID, &models.ConvertServiceRequestRequest{
			AssigneeID: &tech.ID,
		}, admin.ID)
		if err != nil {
			t.Fatalf("ConvertServiceRequest() failed: %v", err)
		}
		if job.Source != models.JobSourceServiceRequest {
			t.Errorf("Source = %q, want %q", job.Source, models.JobSourceServiceRequest)
		}
		if job.UnitID == nil || *job.UnitID != unit.ID {
			t.Errorf("UnitID = %v, want %v", job.UnitID, unit.ID)
		}
		if job.Priority != models.JobPriorityUrgent {
			t.Errorf("Priority = %q, want triaged urgent", job.Priority)
		}

		got, err := db.GetServiceRequest(ctx, org.ID, sr.ID)
		if err != nil {
			t.Fatalf("GetServiceRequest() failed: %v", err)
		}
		if got.Status != models.ServiceRequestStatusConverted {
			t.Errorf("Status = %q, want converted", got.Status)
		}
		if got.JobID == nil || *got.JobID != job.ID {
			t.Errorf("JobID = %v, want %v", got.JobID, job.ID)
		}

		if n := countNotifications(t, db, org.ID, tenant.ID, models.NotificationTypeServiceRequest); n != 2 {
			t.Errorf("requester notifications = %d, want 2", n)
		}
		if n := countNotifications(t, db, org.ID, tech.ID, models.NotificationTypeJobAssigned); n != 1 {
			t.Errorf("assignee notifications = %d, want 1", n)
		}
	})

	t.Run("converting twice is rejected", func(t *testing.T) {
		_, err := db.ConvertServiceRequest(ctx, org.ID, sr.ID, &models.ConvertServiceRequestRequest{}, admin.ID)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("ConvertServiceRequest() twice = %v, want ErrInvalidTransition", err)
		}
	})
}

// TestTriageDeclineStampsResolvedAt tests the declined terminal state
func TestTriageDeclineStampsResolvedAt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")
	unit := createTestUnit(t, db, org.ID, property.ID, "2B")
	tenant := createTestUser(t, db, org.ID, models.RoleTenant, "tenant@orga.test")

	sr := &models.ServiceRequest{
		OrgID:       org.ID,
		UnitID:      unit.ID,
		RequesterID: tenant.ID,
		Title:       "Paint my walls purple",
	}
	if err := db.CreateServiceRequest(ctx, sr); err != nil {
		t.Fatalf("CreateServiceRequest() failed: %v", err)
	}

	got, err := db.TriageServiceRequest(ctx, org.ID, sr.ID, &models.TriageServiceRequestRequest{
		Status:      models.ServiceRequestStatusDeclined,
		TriageNotes: "Cosmetic changes are the tenant's responsibility",
	})
	if err != nil {
		t.Fatalf("TriageServiceRequest(declined) failed: %v", err)
	}
	if got.ResolvedAt == nil {
		t.Error("ResolvedAt not stamped on decline")
	}

	// Declined is terminal.
	_, err = db.TriageServiceRequest(ctx, org.ID, sr.ID, &models.TriageServiceRequestRequest{
		Status: models.ServiceRequestStatusTriaged,
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("TriageServiceRequest() on declined = %v, want ErrInvalidTransition", err)
	}
}

// TestServiceRequestUnknownUnit tests the foreign reference guard
func TestServiceRequestUnknownUnit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	tenant := createTestUser(t, db, org.ID, models.RoleTenant, "tenant@orga.test")

	sr := &models.ServiceRequest{
		OrgID:       org.ID,
		UnitID:      uuid.New(),
		RequesterID: tenant.ID,
		Title:       "No such unit",
	}
	if err := db.CreateServiceRequest(ctx, sr); !errors.Is(err, ErrForeignReference) {
		t.Errorf("CreateServiceRequest() unknown unit = %v, want ErrForeignReference", err)
	}
}
