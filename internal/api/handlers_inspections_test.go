// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/custodahq/custoda/internal/models"
)

func (ts *testServer) createInspection(t *testing.T, token string, propertyID, inspectorID interface{}) models.Inspection {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/v1/inspections", token, map[string]interface{}{
		"property_id":   propertyID,
		"inspector_id":  inspectorID,
		"scheduled_for": time.Now().UTC().Add(24 * time.Hour),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create inspection: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var inspection models.Inspection
	decodeData(t, rec, &inspection)
	return inspection
}

func TestInspectionScheduleNotifiesInspector(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t)
	property := ts.createProperty(t, adminToken, "Birch Row")
	techToken, tech := ts.createUser(t, adminToken, "inspector@acme.test", models.RoleTechnician)

	inspection := ts.createInspection(t, adminToken, property.ID, tech.ID)
	if inspection.Status != models.InspectionStatusScheduled {
		t.Fatalf("expected scheduled status, got %q", inspection.Status)
	}

	var unread map[string]int64
	decodeData(t, ts.do(t, http.MethodGet, "/api/v1/notifications/unread-count", techToken, nil), &unread)
	if unread["unread"] == 0 {
		t.Fatal("expected scheduling notification for the inspector")
	}
}

func TestInspectionCompleteSpawnsRecommendations(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t)
	property := ts.createProperty(t, adminToken, "Birch Row")
	techToken, tech := ts.createUser(t, adminToken, "inspector@acme.test", models.RoleTechnician)

	inspection := ts.createInspection(t, adminToken, property.ID, tech.ID)

	rec := ts.do(t, http.MethodPost, "/api/v1/inspections/"+inspection.ID.String()+"/complete", techToken, map[string]interface{}{
		"summary": "Common areas in good shape, two issues in the stairwell.",
		"score":   78,
		"findings": []map[string]interface{}{
			{"title": "Cracked stair tread on level 2", "priority": "high"},
			{"title": "Flickering stairwell light", "details": "Ballast likely failing."},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var result struct {
		Inspection      models.Inspection       `json:"inspection"`
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	decodeData(t, rec, &result)

	if result.Inspection.Status != models.InspectionStatusCompleted {
		t.Fatalf("expected completed status, got %q", result.Inspection.Status)
	}
	if result.Inspection.Score == nil || *result.Inspection.Score != 78 {
		t.Fatalf("expected score 78, got %v", result.Inspection.Score)
	}
	if result.Inspection.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be stamped")
	}
	if len(result.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(result.Recommendations))
	}
	first := result.Recommendations[0]
	if first.Status != models.RecommendationStatusOpen {
		t.Fatalf("expected open recommendation, got %q", first.Status)
	}
	if first.Priority != models.JobPriorityHigh {
		t.Fatalf("expected high priority carried over, got %q", first.Priority)
	}
	if first.InspectionID == nil || *first.InspectionID != inspection.ID {
		t.Fatal("expected recommendation to backlink the inspection")
	}
	// Unstated priority defaults to medium.
	if result.Recommendations[1].Priority != models.JobPriorityMedium {
		t.Fatalf("expected medium default priority, got %q", result.Recommendations[1].Priority)
	}
}

func TestInspectionCompleteTwiceRejected(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t)
	property := ts.createProperty(t, adminToken, "Birch Row")
	_, tech := ts.createUser(t, adminToken, "inspector@acme.test", models.RoleTechnician)

	inspection := ts.createInspection(t, adminToken, property.ID, tech.ID)

	body := map[string]interface{}{"summary": "All clear.", "score": 95}
	first := ts.do(t, http.MethodPost, "/api/v1/inspections/"+inspection.ID.String()+"/complete", adminToken, body)
	if first.Code != http.StatusOK {
		t.Fatalf("first complete: expected 200, got %d (%s)", first.Code, first.Body.String())
	}

	second := ts.do(t, http.MethodPost, "/api/v1/inspections/"+inspection.ID.String()+"/complete", adminToken, body)
	if second.Code != http.StatusConflict {
		t.Fatalf("second complete: expected 409, got %d (%s)", second.Code, second.Body.String())
	}
}

func TestRecommendationConvertCreatesLinkedJob(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t)
	property := ts.createProperty(t, adminToken, "Birch Row")
	_, tech := ts.createUser(t, adminToken, "inspector@acme.test", models.RoleTechnician)

	inspection := ts.createInspection(t, adminToken, property.ID, tech.ID)
	complete := ts.do(t, http.MethodPost, "/api/v1/inspections/"+inspection.ID.String()+"/complete", adminToken, map[string]interface{}{
		"summary": "One urgent issue.",
		"score":   60,
		"findings": []map[string]interface{}{
			{"title": "Water heater leaking", "priority": "urgent"},
		},
	})
	var result struct {
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, complete).Data, &result); err != nil {
		t.Fatalf("decode complete response: %v", err)
	}
	if len(result.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(result.Recommendations))
	}
	recID := result.Recommendations[0].ID

	convert := ts.do(t, http.MethodPost, "/api/v1/recommendations/"+recID.String()+"/convert", adminToken, map[string]interface{}{
		"assignee_id": tech.ID,
		"category":    "plumbing",
	})
	if convert.Code != http.StatusCreated {
		t.Fatalf("convert: expected 201, got %d (%s)", convert.Code, convert.Body.String())
	}
	var job models.Job
	decodeData(t, convert, &job)
	if job.Source != models.JobSourceRecommendation {
		t.Fatalf("expected recommendation source, got %q", job.Source)
	}
	if job.Priority != models.JobPriorityUrgent {
		t.Fatalf("expected urgent priority carried over, got %q", job.Priority)
	}
	if job.Status != models.JobStatusAssigned {
		t.Fatalf("expected assigned status, got %q", job.Status)
	}

	// The recommendation is now final: converted, job-linked, immutable.
	var converted models.Recommendation
	decodeData(t, ts.do(t, http.MethodGet, "/api/v1/recommendations/"+recID.String(), adminToken, nil), &converted)
	if converted.Status != models.RecommendationStatusConverted {
		t.Fatalf("expected converted status, got %q", converted.Status)
	}
	if converted.JobID == nil || *converted.JobID != job.ID {
		t.Fatal("expected recommendation to link the created job")
	}

	again := ts.do(t, http.MethodPost, "/api/v1/recommendations/"+recID.String()+"/convert", adminToken, map[string]interface{}{})
	if again.Code != http.StatusConflict {
		t.Fatalf("second convert: expected 409, got %d (%s)", again.Code, again.Body.String())
	}
}

func TestRecommendationDismissIsFinal(t *testing.T) {
	ts := newTestServer(t)
	adminToken, _ := ts.register(t)
	property := ts.createProperty(t, adminToken, "Birch Row")
	_, tech := ts.createUser(t, adminToken, "inspector@acme.test", models.RoleTechnician)

	inspection := ts.createInspection(t, adminToken, property.ID, tech.ID)
	complete := ts.do(t, http.MethodPost, "/api/v1/inspections/"+inspection.ID.String()+"/complete", adminToken, map[string]interface{}{
		"summary":  "Cosmetic only.",
		"score":    90,
		"findings": []map[string]interface{}{{"title": "Scuffed lobby paint"}},
	})
	var result struct {
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, complete).Data, &result); err != nil {
		t.Fatalf("decode complete response: %v", err)
	}
	recID := result.Recommendations[0].ID

	dismiss := ts.do(t, http.MethodPut, "/api/v1/recommendations/"+recID.String(), adminToken, map[string]interface{}{
		"status": "dismissed",
	})
	if dismiss.Code != http.StatusOK {
		t.Fatalf("dismiss: expected 200, got %d (%s)", dismiss.Code, dismiss.Body.String())
	}

	reopen := ts.do(t, http.MethodPut, "/api/v1/recommendations/"+recID.String(), adminToken, map[string]interface{}{
		"status": "open",
	})
	if reopen.Code != http.StatusConflict {
		t.Fatalf("reopen after dismiss: expected 409, got %d (%s)", reopen.Code, reopen.Body.String())
	}

	convert := ts.do(t, http.MethodPost, "/api/v1/recommendations/"+recID.String()+"/convert", adminToken, map[string]interface{}{})
	if convert.Code != http.StatusConflict {
		t.Fatalf("convert after dismiss: expected 409, got %d (%s)", convert.Code, convert.Body.String())
	}
}
