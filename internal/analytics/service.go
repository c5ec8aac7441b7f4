// Package analytics keeps a rolling log of searches and filter changes and
// summarizes it for the dashboard.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gcbaptista/go-facet-browser/internal/persistence"
	"github.com/gcbaptista/go-facet-browser/model"
)

const (
	maxEventsToKeep = 10000 // Keep last 10k events for performance
	topN            = 5

	dataVersion = 1
)

// snapshot is the on-disk form of the event log.
type snapshot struct {
	Version  int
	Searches []model.SearchEvent
	Filters  []model.FilterEvent
}

// Service implements analytics tracking and reporting
type Service struct {
	mutex        sync.RWMutex
	searches     []model.SearchEvent
	filters      []model.FilterEvent
	dirty        bool
	dataFilePath string
	now          func() time.Time

	saveMu sync.Mutex
}

// NewService creates a new analytics service. An empty dataFilePath keeps
// the events in memory only.
func NewService(dataFilePath string) *Service {
	service := &Service{
		dataFilePath: dataFilePath,
		now:          time.Now,
	}

	// Load existing analytics data
	if err := service.loadData(); err != nil {
		log.Printf("Warning: Failed to load analytics data: %v", err)
	}

	return service
}

// TrackSearch records a completed search.
func (s *Service) TrackSearch(event model.SearchEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	event.Query = strings.TrimSpace(event.Query)
	event.Timestamp = s.now()
	s.searches = append(s.searches, event)

	// Keep only the latest events to prevent unbounded growth
	if len(s.searches) > maxEventsToKeep {
		s.searches = s.searches[len(s.searches)-maxEventsToKeep:]
	}
	s.dirty = true
}

// TrackFilter records a filter change that altered the filter state.
func (s *Service) TrackFilter(field, value string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.filters = append(s.filters, model.FilterEvent{Field: field, Value: value, Timestamp: s.now()})
	if len(s.filters) > maxEventsToKeep {
		s.filters = s.filters[len(s.filters)-maxEventsToKeep:]
	}
	s.dirty = true
}

// GetDashboardData returns complete analytics dashboard data
func (s *Service) GetDashboardData() model.AnalyticsDashboard {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := s.now()
	yesterday := now.Add(-24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	last24h := filterEventsByTimeRange(s.searches, yesterday, now)
	prev24h := filterEventsByTimeRange(s.searches, yesterday.Add(-24*time.Hour), yesterday)
	lastWeekSearches := filterEventsByTimeRange(s.searches, lastWeek, now)

	var zeroResult []model.SearchEvent
	for _, event := range last24h {
		if event.MatchingCount == 0 {
			zeroResult = append(zeroResult, event)
		}
	}

	channels := make(map[model.SearchChannel]int)
	for _, event := range last24h {
		channels[event.Channel]++
	}

	return model.AnalyticsDashboard{
		TotalSearches:            len(last24h),
		SearchesChangePercent:    calculateChangePercent(len(last24h), len(prev24h)),
		AvgResponseTime:          calculateAvgResponseTime(last24h),
		ResponseTimeChange:       calculateResponseTimeChange(last24h, prev24h),
		ZeroResultSearches:       len(zeroResult),
		SearchPerformance24h:     getHourlyPerformance(last24h),
		PopularSearches:          getPopularSearches(lastWeekSearches),
		ZeroResultQueries:        getPopularSearches(zeroResult),
		PopularFilters:           s.getPopularFilters(lastWeek),
		Channels:                 channels,
		ResponseTimeDistribution: getResponseTimeDistribution(last24h),
	}
}

// Flush writes the event log to disk when it changed since the last write.
func (s *Service) Flush() error {
	if s.dataFilePath == "" {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mutex.Lock()
	if !s.dirty {
		s.mutex.Unlock()
		return nil
	}
	snap := snapshot{
		Version:  dataVersion,
		Searches: append([]model.SearchEvent(nil), s.searches...),
		Filters:  append([]model.FilterEvent(nil), s.filters...),
	}
	s.dirty = false
	s.mutex.Unlock()

	if err := persistence.SaveGob(s.dataFilePath, snap); err != nil {
		s.mutex.Lock()
		s.dirty = true
		s.mutex.Unlock()
		return fmt.Errorf("failed to save analytics data: %w", err)
	}
	return nil
}

// Run flushes the event log every interval until ctx is done, then flushes
// once more.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				log.Printf("Warning: %v", err)
			}
		case <-ctx.Done():
			if err := s.Flush(); err != nil {
				log.Printf("Warning: %v", err)
			}
			return
		}
	}
}

// filterEventsByTimeRange returns events in (start, end]
func filterEventsByTimeRange(events []model.SearchEvent, start, end time.Time) []model.SearchEvent {
	var filtered []model.SearchEvent
	for _, event := range events {
		if event.Timestamp.After(start) && !event.Timestamp.After(end) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// calculateChangePercent calculates percentage change between current and previous values
func calculateChangePercent(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	return float64(current-previous) / float64(previous) * 100.0
}

// calculateAvgResponseTime calculates average response time for events in milliseconds
func calculateAvgResponseTime(events []model.SearchEvent) int64 {
	if len(events) == 0 {
		return 0
	}

	var total time.Duration
	for _, event := range events {
		total += event.ResponseTime
	}
	return (total / time.Duration(len(events))).Milliseconds()
}

func calculateResponseTimeChange(current, previous []model.SearchEvent) string {
	currentAvg := calculateAvgResponseTime(current)
	previousAvg := calculateAvgResponseTime(previous)

	if previousAvg == 0 {
		return "stable"
	}

	change := float64(currentAvg-previousAvg) / float64(previousAvg)
	if change > 0.1 {
		return "up"
	} else if change < -0.1 {
		return "down"
	}
	return "stable"
}

// getHourlyPerformance buckets events by hour of day
func getHourlyPerformance(events []model.SearchEvent) []model.SearchPerformanceHourly {
	hourlyData := make(map[int][]model.SearchEvent)
	for _, event := range events {
		hour := event.Timestamp.Hour()
		hourlyData[hour] = append(hourlyData[hour], event)
	}

	performance := make([]model.SearchPerformanceHourly, 0, 24)
	for hour := 0; hour < 24; hour++ {
		events := hourlyData[hour]
		performance = append(performance, model.SearchPerformanceHourly{
			Hour:            hour,
			SearchCount:     len(events),
			AvgResponseTime: calculateAvgResponseTime(events),
		})
	}
	return performance
}

// getPopularSearches returns the most frequent non-blank queries, ties in
// query order.
func getPopularSearches(events []model.SearchEvent) []model.PopularSearch {
	queryCounts := make(map[string]int)
	for _, event := range events {
		if event.Query != "" {
			queryCounts[event.Query]++
		}
	}

	popular := make([]model.PopularSearch, 0, len(queryCounts))
	for query, count := range queryCounts {
		popular = append(popular, model.PopularSearch{Query: query, SearchCount: count})
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].SearchCount != popular[j].SearchCount {
			return popular[i].SearchCount > popular[j].SearchCount
		}
		return popular[i].Query < popular[j].Query
	})

	if len(popular) > topN {
		popular = popular[:topN]
	}
	return popular
}

func (s *Service) getPopularFilters(after time.Time) []model.PopularFilter {
	type key struct{ field, value string }
	counts := make(map[key]int)
	for _, event := range s.filters {
		if event.Timestamp.After(after) {
			counts[key{event.Field, event.Value}]++
		}
	}

	popular := make([]model.PopularFilter, 0, len(counts))
	for k, count := range counts {
		popular = append(popular, model.PopularFilter{Field: k.field, Value: k.value, ToggleCount: count})
	}
	sort.Slice(popular, func(i, j int) bool {
		a, b := popular[i], popular[j]
		if a.ToggleCount != b.ToggleCount {
			return a.ToggleCount > b.ToggleCount
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.Value < b.Value
	})

	if len(popular) > topN {
		popular = popular[:topN]
	}
	return popular
}

// getResponseTimeDistribution returns response time distribution
func getResponseTimeDistribution(events []model.SearchEvent) model.ResponseTimeDistribution {
	dist := model.ResponseTimeDistribution{}
	total := len(events)
	if total == 0 {
		return dist
	}

	for _, event := range events {
		ms := event.ResponseTime.Milliseconds()
		switch {
		case ms <= 25:
			dist.Bucket0To25ms++
		case ms <= 50:
			dist.Bucket25To50ms++
		case ms <= 100:
			dist.Bucket50To100ms++
		default:
			dist.Bucket100msPlus++
		}
	}

	// Calculate percentages
	dist.Percentage0To25 = float64(dist.Bucket0To25ms) / float64(total) * 100
	dist.Percentage25To50 = float64(dist.Bucket25To50ms) / float64(total) * 100
	dist.Percentage50To100 = float64(dist.Bucket50To100ms) / float64(total) * 100
	dist.Percentage100Plus = float64(dist.Bucket100msPlus) / float64(total) * 100

	return dist
}

// loadData loads analytics data from file
func (s *Service) loadData() error {
	if s.dataFilePath == "" {
		return nil
	}

	var snap snapshot
	if err := persistence.LoadGob(s.dataFilePath, &snap); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // File doesn't exist yet, that's okay
		}
		return err
	}
	if snap.Version != dataVersion {
		return fmt.Errorf("analytics data version %d, want %d", snap.Version, dataVersion)
	}

	s.searches = snap.Searches
	s.filters = snap.Filters
	return nil
}
