package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/internal/analytics"
	"github.com/gcbaptista/go-facet-browser/internal/browser"
	"github.com/gcbaptista/go-facet-browser/internal/settings"
)

// API holds dependencies for API handlers, primarily the browser.
type API struct {
	browser   *browser.Browser
	settings  *settings.Store
	analytics *analytics.Service
	app       *config.AppConfig
	debounce  time.Duration
}

// NewAPI creates a new API handler structure. A nil tracker keeps analytics
// in memory; a nil app uses the built-in GO-CAM configuration for the
// metadata served at /config.
func NewAPI(b *browser.Browser, store *settings.Store, tracker *analytics.Service, app *config.AppConfig) *API {
	if app == nil {
		app = config.DefaultGoCamConfig()
	}
	if tracker == nil {
		tracker = analytics.NewService("")
	}
	return &API{
		browser:   b,
		settings:  store,
		analytics: tracker,
		app:       app,
		debounce:  app.Search.Debounce.Duration,
	}
}

// SetupRoutes defines all the API routes of the facet browser.
func SetupRoutes(router *gin.Engine, apiHandler *API) {
	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)

	router.GET("/config", apiHandler.GetConfigHandler)
	router.GET("/status", apiHandler.GetStatusHandler)
	router.GET("/ws/status", apiHandler.StatusWebSocketHandler)
	router.POST("/dataset/reload", apiHandler.ReloadDatasetHandler)
	router.GET("/analytics", apiHandler.GetAnalyticsHandler)

	// Browsing routes
	router.POST("/search", apiHandler.SearchHandler)
	router.GET("/results", apiHandler.GetResultsHandler)
	router.GET("/facets", apiHandler.GetFacetsHandler)

	// Filter routes
	filterRoutes := router.Group("/filters")
	{
		filterRoutes.GET("", apiHandler.GetFiltersHandler)                 // Active filter state
		filterRoutes.DELETE("", apiHandler.ClearAllFiltersHandler)         // Remove every filter
		filterRoutes.DELETE("/:field", apiHandler.ClearFieldHandler)       // Remove the filter of one field
		filterRoutes.POST("/:field/toggle", apiHandler.ToggleValueHandler) // Toggle a facet value
		filterRoutes.PUT("/:field/range", apiHandler.SetRangeHandler)      // Set a numeric range
		filterRoutes.DELETE("/:field/range", apiHandler.ClearRangeHandler) // Remove a numeric range
	}

	// User settings routes
	settingsRoutes := router.Group("/settings")
	{
		settingsRoutes.GET("", apiHandler.GetSettingsHandler)
		settingsRoutes.POST("/fields/:field/toggle", apiHandler.ToggleVisibleFieldHandler)
		settingsRoutes.PUT("/display", apiHandler.SetDisplayHandler)
		settingsRoutes.DELETE("", apiHandler.ResetSettingsHandler)
	}

	// Job management routes
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)              // List jobs, optionally by type and status
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)         // Get job status by ID
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler) // Get job performance metrics
	}
}

// HealthCheckHandler handles health check requests.
func (api *API) HealthCheckHandler(c *gin.Context) {
	status := api.browser.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().Unix(),
		"service":    "go-facet-browser",
		"version":    "1.0.0",
		"load_state": status.LoadState,
		"indexing":   status.Indexing,
	})
}

// GetConfigHandler returns the application metadata and the field registry.
func (api *API) GetConfigHandler(c *gin.Context) {
	reg := api.browser.Registry()
	c.JSON(http.StatusOK, gin.H{
		"title":              api.app.Title,
		"description":        api.app.Description,
		"search_placeholder": api.app.SearchPlaceholder,
		"data_url":           api.app.DataURL,
		"header_links":       api.app.HeaderLinks,
		"id_field":           reg.IDField(),
		"fields":             reg.Fields(),
	})
}

// GetAnalyticsHandler returns the search and filter usage dashboard.
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.analytics.GetDashboardData())
}

// GetStatusHandler returns the current browser status.
func (api *API) GetStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.browser.Status())
}

// ReloadDatasetHandler starts a new dataset generation by refetching the
// configured source in the background.
func (api *API) ReloadDatasetHandler(c *gin.Context) {
	jobID, err := api.browser.Reload(c.Request.Context())
	if err != nil {
		SendBrowserError(c, "dataset reload", err)
		return
	}

	status := api.browser.Status()
	c.JSON(http.StatusAccepted, gin.H{
		"status":     "accepted",
		"message":    "Dataset reload started",
		"job_id":     jobID,
		"generation": status.Generation,
	})
}
