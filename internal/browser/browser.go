// Package browser ties the dataset, the text index and the facet evaluator
// together into the faceted browsing surface.
//
// Every dataset load starts a new generation. Fetches, index builds and
// search results are tagged with the generation they were started for and
// discarded when a newer load has begun. Within a generation the working set
// is the full dataset (blank query) or the text index hits (non-blank query),
// and all matching and facet counting is relative to it.
package browser

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/internal/dataset"
	"github.com/gcbaptista/go-facet-browser/internal/engine"
	"github.com/gcbaptista/go-facet-browser/internal/errors"
	"github.com/gcbaptista/go-facet-browser/internal/facets"
	"github.com/gcbaptista/go-facet-browser/internal/filters"
	"github.com/gcbaptista/go-facet-browser/internal/jobs"
	"github.com/gcbaptista/go-facet-browser/model"
	"github.com/gcbaptista/go-facet-browser/services"
)

// DefaultPageSize is the window size of Results when no limit is given.
const DefaultPageSize = 50

// Options configures a Browser.
type Options struct {
	Registry *config.Registry
	Index    services.TextIndex
	Jobs     *jobs.Manager  // Runs fetches and index builds; nil creates a single-worker manager
	Source   dataset.Source // Used by Reload; may be set later by LoadFrom
}

// workingSet is the item list evaluation runs over. A new value is created
// whenever the list changes, so its pointer identifies its content.
type workingSet struct {
	query string
	items []model.Item
}

// evaluation memoizes the last evaluator result by input identity.
type evaluation struct {
	ws     *workingSet
	reg    *config.Registry
	state  *filters.State
	result facets.Result
}

// Browser implements services.Browser.
type Browser struct {
	registry *config.Registry
	index    services.TextIndex
	jobs     *jobs.Manager
	ownsJobs bool
	filters  *filters.Store

	mu         sync.RWMutex
	source     dataset.Source
	generation uint64
	loadState  services.LoadState
	loadErr    error
	items      []model.Item
	ws         *workingSet
	indexing   bool
	indexJobID string
	fetchJobID string
	changed    chan struct{} // Closed and replaced on every state change

	searchSeq atomic.Uint64

	memoMu sync.Mutex
	memo   *evaluation

	subMu       sync.Mutex
	subscribers map[int]chan services.Status
	nextSubID   int
	closed      bool
}

var _ services.Browser = (*Browser)(nil)

// New creates an idle Browser.
func New(opts Options) (*Browser, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if opts.Index == nil {
		return nil, fmt.Errorf("text index cannot be nil")
	}

	b := &Browser{
		registry:    opts.Registry,
		index:       opts.Index,
		jobs:        opts.Jobs,
		filters:     filters.NewStore(opts.Registry),
		source:      opts.Source,
		loadState:   services.LoadStateIdle,
		changed:     make(chan struct{}),
		subscribers: make(map[int]chan services.Status),
	}
	if b.jobs == nil {
		b.jobs = jobs.NewManager(1)
		b.ownsJobs = true
	}
	return b, nil
}

// Registry returns the field registry.
func (b *Browser) Registry() *config.Registry {
	return b.registry
}

// Jobs returns the manager running fetches and index builds.
func (b *Browser) Jobs() *jobs.Manager {
	return b.jobs
}

// Close cancels background work and closes every subscription.
func (b *Browser) Close() {
	b.mu.Lock()
	b.cancelJobsLocked()
	b.mu.Unlock()

	if b.ownsJobs {
		b.jobs.Stop()
	}

	b.subMu.Lock()
	defer b.subMu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
	b.closed = true
}

// --- Dataset lifecycle ---

// BeginLoad starts a new generation and returns it. Pending fetches and
// index builds of earlier generations are cancelled, the working set is
// emptied and the filters are reset. src replaces the current source when
// not nil.
func (b *Browser) BeginLoad(src dataset.Source) uint64 {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	if src != nil {
		b.source = src
	}
	b.loadState = services.LoadStateLoading
	b.loadErr = nil
	b.items = nil
	b.ws = nil
	b.indexing = false
	b.cancelJobsLocked()
	b.signalLocked()
	b.mu.Unlock()

	b.filters.ClearAll()
	b.notify()
	return gen
}

// FinishLoad installs the items fetched for gen and starts indexing them.
// It returns the index job id, or a StaleGenerationError when a newer load
// has begun since.
func (b *Browser) FinishLoad(gen uint64, items []model.Item) (string, error) {
	b.mu.Lock()
	if gen != b.generation {
		current := b.generation
		b.mu.Unlock()
		return "", errors.NewStaleGenerationError(gen, current)
	}
	if items == nil {
		items = []model.Item{}
	}
	b.items = items
	b.ws = &workingSet{items: items}
	b.loadState = services.LoadStateReady
	jobID, err := b.startIndexLocked(gen, items)
	source := b.sourceNameLocked()
	b.signalLocked()
	b.mu.Unlock()

	b.notify()
	log.Printf("Info: Loaded %d items from %s (generation %d)", len(items), source, gen)
	return jobID, err
}

// Fail records that the fetch for gen failed. It returns a
// StaleGenerationError when a newer load has begun since.
func (b *Browser) Fail(gen uint64, cause error) error {
	b.mu.Lock()
	if gen != b.generation {
		current := b.generation
		b.mu.Unlock()
		return errors.NewStaleGenerationError(gen, current)
	}
	b.loadState = services.LoadStateFailed
	b.loadErr = errors.NewDatasetLoadError(b.sourceNameLocked(), cause)
	b.items = nil
	b.ws = nil
	b.signalLocked()
	loadErr := b.loadErr
	b.mu.Unlock()

	b.notify()
	log.Printf("Warning: %v", loadErr)
	return nil
}

// LoadFrom fetches src in the calling goroutine and installs it as a new
// generation. Indexing continues in the background; see WaitIndexed.
func (b *Browser) LoadFrom(ctx context.Context, src dataset.Source) (uint64, error) {
	gen := b.BeginLoad(src)
	items, err := src.Load(ctx)
	if err != nil {
		if staleErr := b.Fail(gen, err); staleErr != nil {
			return gen, staleErr
		}
		return gen, b.currentLoadErr()
	}
	if _, err := b.FinishLoad(gen, items); err != nil {
		return gen, err
	}
	return gen, nil
}

// Reload starts a new generation and fetches the current source in a
// background job. It returns the fetch job id.
func (b *Browser) Reload(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.RLock()
	src := b.source
	b.mu.RUnlock()
	if src == nil {
		return "", errors.NewValidationError("source", "no dataset source configured")
	}

	gen := b.BeginLoad(nil)
	jobID := b.jobs.CreateJob(model.JobTypeFetchDataset, gen, map[string]string{"source": src.String()})

	b.mu.Lock()
	if b.generation != gen {
		// Overtaken by another load before the job was recorded
		b.mu.Unlock()
		_ = b.jobs.CancelJob(jobID)
		return jobID, nil
	}
	b.fetchJobID = jobID
	b.mu.Unlock()

	err := b.jobs.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		items, err := src.Load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if staleErr := b.Fail(job.Generation, err); staleErr != nil {
				return staleErr
			}
			return err
		}
		_, err = b.FinishLoad(job.Generation, items)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to start fetch job: %w", err)
	}
	return jobID, nil
}

// WaitIndexed blocks until the current generation is loaded and indexed.
// It returns the load error when the fetch failed.
func (b *Browser) WaitIndexed(ctx context.Context) error {
	for {
		b.mu.RLock()
		state, indexing, loadErr, changed := b.loadState, b.indexing, b.loadErr, b.changed
		b.mu.RUnlock()

		switch {
		case state == services.LoadStateFailed:
			return loadErr
		case state == services.LoadStateReady && !indexing:
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *Browser) startIndexLocked(gen uint64, items []model.Item) (string, error) {
	jobID := b.jobs.CreateJob(model.JobTypeIndexDataset, gen, map[string]string{
		"source": b.sourceNameLocked(),
		"items":  strconv.Itoa(len(items)),
	})
	b.indexing = true
	b.indexJobID = jobID

	err := b.jobs.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		skipped, err := engine.Rebuild(ctx, b.index, items, func(done, total int) {
			b.jobs.UpdateJobProgress(jobID, done, total, "Indexing items")
		})
		if err != nil {
			return err
		}
		return b.completeIndex(gen, jobID, len(items)-skipped, skipped)
	})
	if err != nil {
		b.indexing = false
		b.indexJobID = ""
		return "", fmt.Errorf("failed to start index job: %w", err)
	}
	return jobID, nil
}

// completeIndex marks the index build of gen as done unless it is stale.
func (b *Browser) completeIndex(gen uint64, jobID string, indexed, skipped int) error {
	b.mu.Lock()
	if gen != b.generation || jobID != b.indexJobID {
		current := b.generation
		b.mu.Unlock()
		log.Printf("Info: Discarding index build %s of generation %d", jobID, gen)
		return errors.NewStaleGenerationError(gen, current)
	}
	b.indexing = false
	b.signalLocked()
	b.mu.Unlock()

	b.notify()
	log.Printf("Info: Indexed %d items for generation %d (%d skipped)", indexed, gen, skipped)
	return nil
}

func (b *Browser) cancelJobsLocked() {
	for _, jobID := range []string{b.fetchJobID, b.indexJobID} {
		if jobID != "" {
			// Finished jobs report an error, which is expected here
			_ = b.jobs.CancelJob(jobID)
		}
	}
	b.fetchJobID = ""
	b.indexJobID = ""
}

func (b *Browser) signalLocked() {
	close(b.changed)
	b.changed = make(chan struct{})
}

func (b *Browser) sourceNameLocked() string {
	if b.source == nil {
		return ""
	}
	return b.source.String()
}

func (b *Browser) currentLoadErr() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loadErr
}

// --- Search ---

// Search narrows the working set. A blank query selects the full dataset in
// original order; any other query selects exactly the text index hits in
// hit order. Queries are rejected while the index is building, and a search
// overtaken by a newer one returns ErrSuperseded without changing anything.
func (b *Browser) Search(ctx context.Context, query string) (services.SearchOutcome, error) {
	seq := b.searchSeq.Add(1)
	query = strings.TrimSpace(query)

	b.mu.RLock()
	gen, state, indexing, loadErr, items := b.generation, b.loadState, b.indexing, b.loadErr, b.items
	b.mu.RUnlock()

	switch state {
	case services.LoadStateReady:
	case services.LoadStateFailed:
		return services.SearchOutcome{}, loadErr
	default:
		return services.SearchOutcome{}, errors.ErrDatasetNotLoaded
	}

	var selected []model.Item
	if query == "" {
		selected = items
	} else {
		if indexing {
			return services.SearchOutcome{}, errors.ErrIndexInProgress
		}
		hits, err := b.index.Query(ctx, query, services.QueryOptions{})
		if err != nil {
			return services.SearchOutcome{}, fmt.Errorf("text query failed: %w", err)
		}
		selected = make([]model.Item, len(hits))
		for i, hit := range hits {
			selected[i] = hit.Item
		}
	}

	b.mu.Lock()
	if gen != b.generation {
		current := b.generation
		b.mu.Unlock()
		return services.SearchOutcome{}, errors.NewStaleGenerationError(gen, current)
	}
	if seq != b.searchSeq.Load() {
		b.mu.Unlock()
		return services.SearchOutcome{}, errors.ErrSuperseded
	}
	ws := b.ws
	if ws == nil || query != "" || ws.query != "" {
		ws = &workingSet{query: query, items: selected}
		b.ws = ws
	}
	b.mu.Unlock()

	result := b.evaluate(ws, b.filters.State())
	b.notify()
	return services.SearchOutcome{
		Generation:     gen,
		Query:          query,
		WorkingSetSize: len(ws.items),
		MatchingCount:  len(result.Matching),
	}, nil
}

// --- Results ---

// evaluate runs the evaluator, reusing the previous result when the working
// set, registry and filter state are the very same values.
func (b *Browser) evaluate(ws *workingSet, state *filters.State) facets.Result {
	b.memoMu.Lock()
	defer b.memoMu.Unlock()

	if m := b.memo; m != nil && m.ws == ws && m.reg == b.registry && m.state == state {
		return m.result
	}
	result := facets.Evaluate(ws.items, b.registry, state)
	b.memo = &evaluation{ws: ws, reg: b.registry, state: state, result: result}
	return result
}

// readyWorkingSet returns the working set of a loaded dataset.
func (b *Browser) readyWorkingSet() (*workingSet, uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	switch b.loadState {
	case services.LoadStateReady:
		return b.ws, b.generation, nil
	case services.LoadStateFailed:
		return nil, b.generation, b.loadErr
	}
	return nil, b.generation, errors.ErrDatasetNotLoaded
}

// Results returns a window of the matching items with the facet counts of
// the whole working set. limit <= 0 uses DefaultPageSize.
func (b *Browser) Results(offset, limit int) (services.ResultsPage, error) {
	ws, gen, err := b.readyWorkingSet()
	if err != nil {
		return services.ResultsPage{}, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	state := b.filters.State()
	result := b.evaluate(ws, state)

	total := len(result.Matching)
	start := min(offset, total)
	end := min(start+limit, total)
	items := make([]model.Item, 0, end-start)
	for _, idx := range result.Matching[start:end] {
		items = append(items, ws.items[idx])
	}

	return services.ResultsPage{
		Generation: gen,
		Query:      ws.query,
		Offset:     offset,
		Limit:      limit,
		Total:      total,
		HasMore:    end < total,
		Items:      items,
		Facets:     result.Counts,
		Filters:    state,
	}, nil
}

// Facets returns the facet counts of the working set under the active filters.
func (b *Browser) Facets() (map[string]model.FacetCounts, error) {
	ws, _, err := b.readyWorkingSet()
	if err != nil {
		return nil, err
	}
	return b.evaluate(ws, b.filters.State()).Counts, nil
}

// --- Filters ---

// Filters returns the active filter state.
func (b *Browser) Filters() *filters.State {
	return b.filters.State()
}

// ToggleValue toggles a facet value.
func (b *Browser) ToggleValue(field, value string) services.FilterChange {
	return b.filterChange(b.filters.ToggleValue(field, value))
}

// SetRange sets the numeric range of a field.
func (b *Browser) SetRange(field string, min, max *float64) services.FilterChange {
	return b.filterChange(b.filters.SetRange(field, min, max))
}

// ClearRange removes the numeric range of a field.
func (b *Browser) ClearRange(field string) services.FilterChange {
	return b.filterChange(b.filters.ClearRange(field))
}

// ClearField removes any filter of a field.
func (b *Browser) ClearField(field string) services.FilterChange {
	return b.filterChange(b.filters.ClearField(field))
}

// ClearAll removes every filter.
func (b *Browser) ClearAll() services.FilterChange {
	return b.filterChange(b.filters.ClearAll())
}

func (b *Browser) filterChange(snap filters.Snapshot, changed bool) services.FilterChange {
	if changed {
		b.notify()
	}
	return services.FilterChange{Changed: changed, Version: snap.Version, Filters: snap.State}
}

// --- Status ---

// Status returns a point-in-time view of the browser.
func (b *Browser) Status() services.Status {
	b.mu.RLock()
	st := services.Status{
		Generation:  b.generation,
		LoadState:   b.loadState,
		Source:      b.sourceNameLocked(),
		Indexing:    b.indexing,
		IndexJobID:  b.indexJobID,
		DatasetSize: len(b.items),
	}
	if b.loadErr != nil {
		st.Error = b.loadErr.Error()
	}
	ws := b.ws
	b.mu.RUnlock()

	snap := b.filters.Snapshot()
	st.FilterVersion = snap.Version
	if ws != nil {
		st.Query = ws.query
		st.WorkingSetSize = len(ws.items)
		st.MatchingCount = len(b.evaluate(ws, snap.State).Matching)
	}
	return st
}

// Subscribe returns a channel receiving the status after every change,
// starting with the current one. Slow receivers only see the latest status.
// The returned func ends the subscription.
func (b *Browser) Subscribe() (<-chan services.Status, func()) {
	ch := make(chan services.Status, 1)
	ch <- b.Status()

	b.subMu.Lock()
	if b.closed {
		b.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextSubID
	b.nextSubID++
	b.subscribers[id] = ch
	b.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.subMu.Lock()
			defer b.subMu.Unlock()
			if c, ok := b.subscribers[id]; ok {
				delete(b.subscribers, id)
				close(c)
			}
		})
	}
}

// notify sends the current status to every subscriber. It must not be
// called with b.mu held.
func (b *Browser) notify() {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	if len(b.subscribers) == 0 {
		return
	}

	st := b.Status()
	for _, ch := range b.subscribers {
		select {
		case <-ch: // Drop the status the receiver has not read yet
		default:
		}
		ch <- st
	}
}
