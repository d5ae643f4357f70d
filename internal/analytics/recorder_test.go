package analytics

import "testing"

func TestRecorderSnapshot(t *testing.T) {
	recorder := NewRecorder()

	recorder.RecordRequest("/api/content", 200)
	recorder.RecordRequest("/api/content", 200)
	recorder.RecordRequest("/api/themes", 200)
	recorder.RecordRequest("/missing", 404)
	recorder.RecordEvent("page_view")
	recorder.RecordEvent("page_view")
	recorder.RecordEvent("click")
	recorder.RecordEvent("")

	summary := recorder.Snapshot(10)
	if summary.TotalRequests != 4 {
		t.Fatalf("expected 4 requests, got %d", summary.TotalRequests)
	}
	if summary.StatusClasses["2xx"] != 3 || summary.StatusClasses["4xx"] != 1 {
		t.Fatalf("unexpected status classes %v", summary.StatusClasses)
	}
	if summary.EventCounts["page_view"] != 2 || summary.EventCounts["click"] != 1 {
		t.Fatalf("unexpected event counts %v", summary.EventCounts)
	}
	if _, ok := summary.EventCounts[""]; ok {
		t.Fatal("unnamed event recorded")
	}
	if len(summary.TopPaths) != 3 || summary.TopPaths[0].Path != "/api/content" {
		t.Fatalf("unexpected top paths %v", summary.TopPaths)
	}
	if summary.Since.IsZero() {
		t.Fatal("expected non-zero since timestamp")
	}
}

func TestRecorderSnapshotLimitsTopPaths(t *testing.T) {
	recorder := NewRecorder()
	recorder.RecordRequest("/a", 200)
	recorder.RecordRequest("/b", 200)
	recorder.RecordRequest("/c", 200)

	summary := recorder.Snapshot(2)
	if len(summary.TopPaths) != 2 {
		t.Fatalf("expected 2 top paths, got %d", len(summary.TopPaths))
	}
	// Ties break alphabetically.
	if summary.TopPaths[0].Path != "/a" || summary.TopPaths[1].Path != "/b" {
		t.Fatalf("unexpected ordering %v", summary.TopPaths)
	}
}
