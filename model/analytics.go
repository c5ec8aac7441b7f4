package model

import "time"

// SearchChannel names where a search came from.
type SearchChannel string

const (
	SearchChannelHTTP      SearchChannel = "http"
	SearchChannelWebSocket SearchChannel = "websocket"
	SearchChannelCLI       SearchChannel = "cli"
)

// SearchEvent represents a single search event for analytics tracking
type SearchEvent struct {
	Generation     uint64        `json:"generation"`
	Query          string        `json:"query"`
	Channel        SearchChannel `json:"channel"`
	ResponseTime   time.Duration `json:"response_time"`
	WorkingSetSize int           `json:"working_set_size"`
	MatchingCount  int           `json:"matching_count"`
	Timestamp      time.Time     `json:"timestamp"`
}

// FilterEvent records one effective filter change.
type FilterEvent struct {
	Field     string    `json:"field"`
	Value     string    `json:"value,omitempty"` // Empty for range changes
	Timestamp time.Time `json:"timestamp"`
}

// PopularSearch represents aggregated data for popular search terms
type PopularSearch struct {
	Query       string `json:"query"`
	SearchCount int    `json:"search_count"`
}

// PopularFilter is a facet value users keep selecting.
type PopularFilter struct {
	Field       string `json:"field"`
	Value       string `json:"value,omitempty"`
	ToggleCount int    `json:"toggle_count"`
}

// ResponseTimeDistribution represents response time distribution buckets
type ResponseTimeDistribution struct {
	Bucket0To25ms     int     `json:"bucket_0_25ms"`
	Bucket25To50ms    int     `json:"bucket_25_50ms"`
	Bucket50To100ms   int     `json:"bucket_50_100ms"`
	Bucket100msPlus   int     `json:"bucket_100ms_plus"`
	Percentage0To25   float64 `json:"percentage_0_25"`
	Percentage25To50  float64 `json:"percentage_25_50"`
	Percentage50To100 float64 `json:"percentage_50_100"`
	Percentage100Plus float64 `json:"percentage_100_plus"`
}

// SearchPerformanceHourly represents hourly search performance data
type SearchPerformanceHourly struct {
	Hour            int   `json:"hour"`
	SearchCount     int   `json:"search_count"`
	AvgResponseTime int64 `json:"avg_response_time"` // in milliseconds
}

// AnalyticsDashboard represents the complete analytics dashboard data
type AnalyticsDashboard struct {
	// Summary metrics, over the last 24 hours
	TotalSearches         int     `json:"total_searches"`
	SearchesChangePercent float64 `json:"searches_change_percent"` // Against the 24 hours before
	AvgResponseTime       int64   `json:"avg_response_time"`       // in milliseconds
	ResponseTimeChange    string  `json:"response_time_change"`    // "up", "down", "stable"
	ZeroResultSearches    int     `json:"zero_result_searches"`

	// Detailed analytics
	SearchPerformance24h     []SearchPerformanceHourly `json:"search_performance_24h"`
	PopularSearches          []PopularSearch           `json:"popular_searches"`
	ZeroResultQueries        []PopularSearch           `json:"zero_result_queries"`
	PopularFilters           []PopularFilter           `json:"popular_filters"`
	Channels                 map[SearchChannel]int     `json:"channels"`
	ResponseTimeDistribution ResponseTimeDistribution  `json:"response_time_distribution"`
}
