package analytics

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-facet-browser/model"
)

// fixedClock returns a service whose clock is set by the returned func.
func fixedClock(s *Service, start time.Time) func(time.Time) {
	now := start
	s.now = func() time.Time { return now }
	return func(t time.Time) { now = t }
}

func TestAnalyticsService_TrackSearch(t *testing.T) {
	service := NewService("")
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(service, start)

	service.TrackSearch(model.SearchEvent{
		Query:         "  kinase ",
		Channel:       model.SearchChannelHTTP,
		ResponseTime:  30 * time.Millisecond,
		MatchingCount: 4,
	})

	require.Len(t, service.searches, 1)
	stored := service.searches[0]
	if stored.Query != "kinase" {
		t.Errorf("Expected trimmed query 'kinase', got %q", stored.Query)
	}
	if !stored.Timestamp.Equal(start) {
		t.Errorf("Expected timestamp %v, got %v", start, stored.Timestamp)
	}
}

func TestAnalyticsService_GetDashboardData(t *testing.T) {
	service := NewService("")
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	setNow := fixedClock(service, start.Add(-30*time.Hour))

	// One search in the previous 24 hour window
	service.TrackSearch(model.SearchEvent{Query: "old", Channel: model.SearchChannelHTTP, ResponseTime: 10 * time.Millisecond, MatchingCount: 1})

	setNow(start)
	events := []model.SearchEvent{
		{Query: "kinase", Channel: model.SearchChannelHTTP, ResponseTime: 10 * time.Millisecond, MatchingCount: 3},
		{Query: "kinase", Channel: model.SearchChannelWebSocket, ResponseTime: 40 * time.Millisecond, MatchingCount: 3},
		{Query: "zzz", Channel: model.SearchChannelWebSocket, ResponseTime: 80 * time.Millisecond, MatchingCount: 0},
		{Query: "", Channel: model.SearchChannelHTTP, ResponseTime: 200 * time.Millisecond, MatchingCount: 10},
	}
	for _, e := range events {
		service.TrackSearch(e)
	}
	service.TrackFilter("taxon_label", "Homo sapiens")
	service.TrackFilter("taxon_label", "Homo sapiens")
	service.TrackFilter("number_of_activities", "")

	dashboard := service.GetDashboardData()

	assert.Equal(t, 4, dashboard.TotalSearches)
	assert.Equal(t, 300.0, dashboard.SearchesChangePercent)
	assert.Equal(t, int64(82), dashboard.AvgResponseTime)
	assert.Equal(t, "up", dashboard.ResponseTimeChange)
	assert.Equal(t, 1, dashboard.ZeroResultSearches)

	assert.Equal(t, []model.PopularSearch{
		{Query: "kinase", SearchCount: 2},
		{Query: "old", SearchCount: 1},
		{Query: "zzz", SearchCount: 1},
	}, dashboard.PopularSearches)
	assert.Equal(t, []model.PopularSearch{{Query: "zzz", SearchCount: 1}}, dashboard.ZeroResultQueries)
	assert.Equal(t, []model.PopularFilter{
		{Field: "taxon_label", Value: "Homo sapiens", ToggleCount: 2},
		{Field: "number_of_activities", ToggleCount: 1},
	}, dashboard.PopularFilters)
	assert.Equal(t, map[model.SearchChannel]int{
		model.SearchChannelHTTP:      2,
		model.SearchChannelWebSocket: 2,
	}, dashboard.Channels)

	dist := dashboard.ResponseTimeDistribution
	assert.Equal(t, 1, dist.Bucket0To25ms)
	assert.Equal(t, 1, dist.Bucket25To50ms)
	assert.Equal(t, 1, dist.Bucket50To100ms)
	assert.Equal(t, 1, dist.Bucket100msPlus)
	assert.Equal(t, 25.0, dist.Percentage100Plus)

	require.Len(t, dashboard.SearchPerformance24h, 24)
	assert.Equal(t, 4, dashboard.SearchPerformance24h[12].SearchCount)
}

func TestAnalyticsService_TopQueriesCapped(t *testing.T) {
	service := NewService("")
	for i := 0; i < 8; i++ {
		service.TrackSearch(model.SearchEvent{Query: fmt.Sprintf("q%d", i), MatchingCount: 1})
	}
	assert.Len(t, service.GetDashboardData().PopularSearches, topN)
}

func TestAnalyticsService_EventCap(t *testing.T) {
	service := NewService("")
	for i := 0; i < maxEventsToKeep+5; i++ {
		service.TrackSearch(model.SearchEvent{Query: "q"})
	}
	assert.Len(t, service.searches, maxEventsToKeep)
}

func TestAnalyticsService_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.gob")

	service := NewService(path)
	// Nothing tracked, nothing written
	require.NoError(t, service.Flush())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	service.TrackSearch(model.SearchEvent{Query: "kinase", Channel: model.SearchChannelCLI, MatchingCount: 2})
	service.TrackFilter("taxon_label", "Mus musculus")
	require.NoError(t, service.Flush())

	reopened := NewService(path)
	require.Len(t, reopened.searches, 1)
	assert.Equal(t, "kinase", reopened.searches[0].Query)
	require.Len(t, reopened.filters, 1)
	assert.Equal(t, "Mus musculus", reopened.filters[0].Value)
}

func TestAnalyticsService_CorruptDataIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.gob")
	require.NoError(t, os.WriteFile(path, []byte("not gob"), 0600))

	service := NewService(path)
	assert.Empty(t, service.searches)
	assert.Equal(t, 0, service.GetDashboardData().TotalSearches)
}
