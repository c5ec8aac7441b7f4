package services

import (
	"context"

	"github.com/gcbaptista/go-facet-browser/internal/filters"
	"github.com/gcbaptista/go-facet-browser/model"
)

// HitInfo describes how a hit matched the query.
type HitInfo struct {
	NumTypos         int `json:"num_typos"`          // Query terms that matched only through typo tolerance
	NumberExactWords int `json:"number_exact_words"` // Query terms that matched a complete word
}

// Hit is one item returned by the text index, enriched with the stored item.
type Hit struct {
	ID    string     `json:"id"`
	Item  model.Item `json:"item"`
	Score float64    `json:"score"`
	Info  HitInfo    `json:"hit_info"`
}

// QueryOptions tunes a text query. Limit <= 0 returns every hit.
type QueryOptions struct {
	Limit int
}

// TextIndex is the full-text engine the browser narrows its working set with.
// AddDocument and Query may block on large datasets and honour ctx.
type TextIndex interface {
	Clear()
	AddDocument(ctx context.Context, item model.Item) error
	Query(ctx context.Context, q string, opts QueryOptions) ([]Hit, error)
}

// LoadState is the lifecycle state of the current dataset.
type LoadState string

const (
	LoadStateIdle    LoadState = "idle"    // Nothing requested yet
	LoadStateLoading LoadState = "loading" // Fetch in flight
	LoadStateReady   LoadState = "ready"   // Dataset loaded, possibly empty
	LoadStateFailed  LoadState = "failed"  // Fetch or decode failed
)

// Status is a point-in-time view of the browser.
type Status struct {
	Generation     uint64    `json:"generation"`
	LoadState      LoadState `json:"load_state"`
	Error          string    `json:"error,omitempty"`
	Source         string    `json:"source,omitempty"`
	Indexing       bool      `json:"indexing"`
	IndexJobID     string    `json:"index_job_id,omitempty"`
	DatasetSize    int       `json:"dataset_size"`
	WorkingSetSize int       `json:"working_set_size"`
	MatchingCount  int       `json:"matching_count"`
	Query          string    `json:"query"`
	FilterVersion  uint64    `json:"filter_version"`
}

// ResultsPage is a window over the matching items of the working set.
type ResultsPage struct {
	Generation uint64                       `json:"generation"`
	Query      string                       `json:"query"`
	Offset     int                          `json:"offset"`
	Limit      int                          `json:"limit"`
	Total      int                          `json:"total"`
	HasMore    bool                         `json:"has_more"`
	Items      []model.Item                 `json:"items"`
	Facets     map[string]model.FacetCounts `json:"facets"`
	Filters    *filters.State               `json:"filters"`
}

// SearchOutcome reports the working set a search produced.
type SearchOutcome struct {
	Generation     uint64 `json:"generation"`
	Query          string `json:"query"`
	WorkingSetSize int    `json:"working_set_size"`
	MatchingCount  int    `json:"matching_count"`
}

// FilterChange is the result of a filter mutation.
type FilterChange struct {
	Changed bool           `json:"changed"`
	Version uint64         `json:"version"`
	Filters *filters.State `json:"filters"`
}

// Browser is the faceted browsing surface exposed over HTTP and the CLI.
type Browser interface {
	Status() Status
	Reload(ctx context.Context) (string, error)
	Search(ctx context.Context, query string) (SearchOutcome, error)
	Results(offset, limit int) (ResultsPage, error)
	Facets() (map[string]model.FacetCounts, error)
	Filters() *filters.State
	ToggleValue(field, value string) FilterChange
	SetRange(field string, min, max *float64) FilterChange
	ClearRange(field string) FilterChange
	ClearField(field string) FilterChange
	ClearAll() FilterChange
	Subscribe() (<-chan Status, func())
}

// JobManager defines operations for inspecting background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(jobType model.JobType, status *model.JobStatus) []*model.Job
}
