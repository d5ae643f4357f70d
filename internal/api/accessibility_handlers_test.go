package api

import (
	"net/http"
	"testing"
)

func TestAccessibilityProfileRoundTrip(t *testing.T) {
	handler := newTestHandler(t)

	recorder := doJSON(t, handler.AccessibilityByVisitor, http.MethodGet, "/api/accessibility/visitor-1", "", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before save, got %d", recorder.Code)
	}

	recorder = doJSON(t, handler.AccessibilityByVisitor, http.MethodPut, "/api/accessibility/visitor-1", "", map[string]interface{}{
		"highContrast":  true,
		"reducedMotion": false,
		"fontScale":     1.25,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 for save, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doJSON(t, handler.AccessibilityByVisitor, http.MethodGet, "/api/accessibility/visitor-1", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 after save, got %d", recorder.Code)
	}
	var profile struct {
		VisitorID    string  `json:"visitorId"`
		HighContrast bool    `json:"highContrast"`
		FontScale    float64 `json:"fontScale"`
	}
	decodeBody(t, recorder, &profile)
	if profile.VisitorID != "visitor-1" || !profile.HighContrast || profile.FontScale != 1.25 {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestAccessibilityRejectsFontScaleOutOfRange(t *testing.T) {
	handler := newTestHandler(t)

	recorder := doJSON(t, handler.AccessibilityByVisitor, http.MethodPut, "/api/accessibility/visitor-1", "", map[string]interface{}{
		"fontScale": 10.0,
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range fontScale, got %d", recorder.Code)
	}
}
