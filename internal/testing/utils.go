// Package testing provides fixtures and helpers for testing the facet browser.
package testing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/internal/engine"
	"github.com/gcbaptista/go-facet-browser/model"
	"github.com/gcbaptista/go-facet-browser/services"
)

// GoCamRegistry returns the built-in GO-CAM field registry.
func GoCamRegistry(t *testing.T) *config.Registry {
	t.Helper()
	reg, err := config.NewRegistry(config.GoCamFields())
	require.NoError(t, err, "Failed to build GO-CAM registry")
	return reg
}

// Field names of the GO-CAM fixture.
const (
	FieldID         = "id"
	FieldTitle      = "title"
	FieldTaxon      = "taxon_label"
	FieldPartOf     = "model_activity_part_of_rollup_label"
	FieldOccursIn   = "model_activity_occurs_in_rollup_label"
	FieldGenes      = "model_activity_enabled_by_terms_label"
	FieldActivities = "number_of_activities"
	FieldPathLength = "length_of_longest_causal_association_path"
)

// GoCamItems returns a small GO-CAM-like dataset. Values are shaped the way
// encoding/json decodes them: numbers are float64 and arrays []interface{}.
func GoCamItems() []model.Item {
	return []model.Item{
		{
			FieldID:         "gomodel:0001",
			FieldTitle:      "Insulin signaling pathway",
			FieldTaxon:      "Homo sapiens",
			FieldPartOf:     []interface{}{"insulin receptor signaling pathway", "glucose homeostasis"},
			FieldOccursIn:   []interface{}{"plasma membrane"},
			FieldGenes:      []interface{}{"INS", "INSR"},
			FieldActivities: float64(4),
			FieldPathLength: float64(3),
		},
		{
			FieldID:         "gomodel:0002",
			FieldTitle:      "Wnt signaling in development",
			FieldTaxon:      "Mus musculus",
			FieldPartOf:     []interface{}{"Wnt signaling pathway"},
			FieldOccursIn:   []interface{}{"cytosol", "nucleus"},
			FieldGenes:      []interface{}{"Wnt1"},
			FieldActivities: float64(7),
			FieldPathLength: float64(5),
		},
		{
			FieldID:         "gomodel:0003",
			FieldTitle:      "Glucose uptake by insulin",
			FieldTaxon:      "Homo sapiens",
			FieldPartOf:     []interface{}{"glucose homeostasis"},
			FieldOccursIn:   []interface{}{"plasma membrane", "cytosol"},
			FieldGenes:      []interface{}{"SLC2A4", "INSR"},
			FieldActivities: float64(2),
			FieldPathLength: float64(1),
		},
		{
			FieldID:         "gomodel:0004",
			FieldTitle:      "Café au lait spot formation",
			FieldTaxon:      "Danio rerio",
			FieldPartOf:     []interface{}{},
			FieldOccursIn:   []interface{}{"nucleus"},
			FieldGenes:      []interface{}{"NF1"},
			FieldActivities: float64(1),
		},
		{
			FieldID:         "gomodel:0005",
			FieldTaxon:      "Homo sapiens",
			FieldPartOf:     []interface{}{"Wnt signaling pathway", "glucose homeostasis"},
			FieldOccursIn:   nil,
			FieldGenes:      []interface{}{"CTNNB1"},
			FieldActivities: "n/a",
			FieldPathLength: float64(2),
		},
	}
}

// NewTestTextIndex creates an empty text index configured from reg.
func NewTestTextIndex(t *testing.T, reg *config.Registry) *engine.TextIndex {
	t.Helper()
	idx, err := engine.NewTextIndex(reg.SearchSettings())
	require.NoError(t, err, "Failed to create text index")
	return idx
}

// ItemIDs returns the ids of items, in order.
func ItemIDs(items []model.Item) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id, _ := item.GetID(FieldID)
		ids = append(ids, id)
	}
	return ids
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      10 * time.Second,
		PollInterval: 10 * time.Millisecond,
		LogProgress:  false,
	}
}

// WaitForJobCompletion polls a job until it reaches a terminal status or times out
func WaitForJobCompletion(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not complete within %v timeout", jobID, opts.Timeout)
		case <-ticker.C:
			job, err := jobManager.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			if job.Status.IsTerminal() {
				return job
			}
			if opts.LogProgress && job.Progress != nil {
				t.Logf("Job %s progress: %d/%d - %s",
					jobID,
					job.Progress.Current,
					job.Progress.Total,
					job.Progress.Message)
			}
		}
	}
}

// AssertJobCompleted verifies that a job completed successfully
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedGeneration uint64) {
	t.Helper()
	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.Equal(t, expectedGeneration, job.Generation, "Job generation should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
}

// SearchTestCase represents a test case for the browser's search
type SearchTestCase struct {
	Name          string
	Query         string
	ExpectedCount int    // Expected working set size
	ExpectedFirst string // Expected first item id of the results, if any
	ValidateFunc  func(t *testing.T, page services.ResultsPage)
}

// RunSearchTests runs a suite of search tests against a browser
func RunSearchTests(t *testing.T, b services.Browser, tests []SearchTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			outcome, err := b.Search(t.Context(), tt.Query)
			require.NoError(t, err, "Search should not fail")
			assert.Equal(t, tt.ExpectedCount, outcome.WorkingSetSize, "Working set size should match")

			page, err := b.Results(0, 0)
			require.NoError(t, err, "Results should not fail")

			if tt.ExpectedFirst != "" {
				require.NotEmpty(t, page.Items, "Expected at least one result")
				id, ok := page.Items[0].GetID(FieldID)
				require.True(t, ok, "First result should have an id")
				assert.Equal(t, tt.ExpectedFirst, id, "First result should match expected")
			}

			if tt.ValidateFunc != nil {
				tt.ValidateFunc(t, page)
			}
		})
	}
}
