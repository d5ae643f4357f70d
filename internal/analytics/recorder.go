package analytics

import (
	"sort"
	"sync"
	"time"
)

// Recorder keeps in-memory request counters for the admin summary. Counts
// reset on restart; the durable record lives in the datastore via the worker.
type Recorder struct {
	mu            sync.RWMutex
	startedAt     time.Time
	totalRequests uint64
	statusClasses map[int]uint64
	pathHits      map[string]uint64
	eventCounts   map[string]uint64
}

// NewRecorder initialises an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		startedAt:     time.Now().UTC(),
		statusClasses: make(map[int]uint64),
		pathHits:      make(map[string]uint64),
		eventCounts:   make(map[string]uint64),
	}
}

// RecordRequest tallies one served HTTP request.
func (r *Recorder) RecordRequest(path string, status int) {
	r.mu.Lock()
	r.totalRequests++
	r.statusClasses[status/100]++
	r.pathHits[path]++
	r.mu.Unlock()
}

// RecordEvent tallies one ingested analytics event by name.
func (r *Recorder) RecordEvent(name string) {
	if name == "" {
		return
	}
	r.mu.Lock()
	r.eventCounts[name]++
	r.mu.Unlock()
}

// PathCount reports a tallied entry of the summary.
type PathCount struct {
	Path  string `json:"path"`
	Count uint64 `json:"count"`
}

// Summary is the snapshot served by the admin analytics endpoint.
type Summary struct {
	Since         time.Time         `json:"since"`
	TotalRequests uint64            `json:"totalRequests"`
	StatusClasses map[string]uint64 `json:"statusClasses"`
	TopPaths      []PathCount       `json:"topPaths"`
	EventCounts   map[string]uint64 `json:"eventCounts"`
}

// Snapshot returns a copy of the current counters. TopPaths is limited to the
// busiest entries, ties broken alphabetically for stable output.
func (r *Recorder) Snapshot(topPaths int) Summary {
	if topPaths <= 0 {
		topPaths = 10
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := Summary{
		Since:         r.startedAt,
		TotalRequests: r.totalRequests,
		StatusClasses: make(map[string]uint64, len(r.statusClasses)),
		EventCounts:   make(map[string]uint64, len(r.eventCounts)),
	}
	for class, count := range r.statusClasses {
		summary.StatusClasses[statusClassLabel(class)] = count
	}
	for name, count := range r.eventCounts {
		summary.EventCounts[name] = count
	}

	paths := make([]PathCount, 0, len(r.pathHits))
	for path, count := range r.pathHits {
		paths = append(paths, PathCount{Path: path, Count: count})
	}
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Count != paths[j].Count {
			return paths[i].Count > paths[j].Count
		}
		return paths[i].Path < paths[j].Path
	})
	if len(paths) > topPaths {
		paths = paths[:topPaths]
	}
	summary.TopPaths = paths
	return summary
}

func statusClassLabel(class int) string {
	switch class {
	case 1:
		return "1xx"
	case 2:
		return "2xx"
	case 3:
		return "3xx"
	case 4:
		return "4xx"
	case 5:
		return "5xx"
	default:
		return "other"
	}
}
