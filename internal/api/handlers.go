// Package api exposes the property search subsystem over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/domain"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/logger"
	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/service"
)

// Handler holds HTTP request handlers
type Handler struct {
	searchService    *service.SearchService
	analyticsService *service.AnalyticsService
	trendsService    *service.TrendsService
	recommendService *service.RecommendationService
	indexer          *service.Indexer
	logger           logger.Logger
}

// NewHandler creates a new handler instance
func NewHandler(
	searchService *service.SearchService,
	analyticsService *service.AnalyticsService,
	trendsService *service.TrendsService,
	recommendService *service.RecommendationService,
	indexer *service.Indexer,
	log logger.Logger,
) *Handler {
	return &Handler{
		searchService:    searchService,
		analyticsService: analyticsService,
		trendsService:    trendsService,
		recommendService: recommendService,
		indexer:          indexer,
		logger:           log,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	})
}

// Search handles search requests (both GET and POST)
func (h *Handler) Search(c *gin.Context) {
	var req domain.SearchRequest

	// Support both GET and POST
	if c.Request.Method == http.MethodGet {
		parsed, err := parseSearchQueryParams(c)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		req = parsed
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("Invalid search request body",
				logger.Error(err),
			)
			errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error())
			return
		}
	}

	result, err := h.searchService.Search(c.Request.Context(), &req)
	if err != nil {
		if domain.IsValidationError(err) {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		h.logger.Error("Search failed",
			logger.Error(err),
			logger.String("query", req.Query),
		)
		errorJSON(c, http.StatusInternalServerError, "SEARCH_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

// Suggest handles autocomplete requests
func (h *Handler) Suggest(c *gin.Context) {
	result, err := h.searchService.Suggest(c.Request.Context(), c.Query("q"))
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "SUGGEST_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// Analytics handles market report requests
func (h *Handler) Analytics(c *gin.Context) {
	req := &domain.AnalyticsRequest{
		Country:      c.Query("country"),
		City:         c.Query("city"),
		PropertyType: c.Query("property_type"),
		ListingType:  c.Query("listing_type"),
	}

	report, err := h.analyticsService.GetMarketReport(c.Request.Context(), req)
	if err != nil {
		if domain.IsValidationError(err) {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		h.logger.Error("Analytics failed",
			logger.Error(err),
			logger.String("country", req.Country),
		)
		errorJSON(c, http.StatusInternalServerError, "ANALYTICS_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusOK, report)
}

// Trends handles price trend requests
func (h *Handler) Trends(c *gin.Context) {
	req := &domain.TrendsRequest{
		Country:      c.Query("country"),
		City:         c.Query("city"),
		Period:       domain.TrendPeriod(c.DefaultQuery("period", string(domain.PeriodMonth))),
		PropertyType: c.Query("property_type"),
		ListingType:  c.Query("listing_type"),
	}

	series, err := h.trendsService.GetPriceTrends(c.Request.Context(), req)
	if err != nil {
		if domain.IsValidationError(err) {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		h.logger.Error("Trends failed",
			logger.Error(err),
			logger.String("country", req.Country),
		)
		errorJSON(c, http.StatusInternalServerError, "TRENDS_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusOK, series)
}

// Recommendations handles personalized recommendation requests
func (h *Handler) Recommendations(c *gin.Context) {
	userID := c.Param("id")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer")
			return
		}
		limit = parsed
	}

	recommendations, err := h.recommendService.GetRecommendations(c.Request.Context(), userID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			errorJSON(c, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
			return
		}
		h.logger.Error("Recommendations failed",
			logger.Error(err),
			logger.String("user_id", userID),
		)
		errorJSON(c, http.StatusInternalServerError, "RECOMMENDATION_ERROR", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}

// IndexProperty handles property change notifications
func (h *Handler) IndexProperty(c *gin.Context) {
	propertyID := c.Param("id")

	if err := h.indexer.IndexProperty(c.Request.Context(), propertyID); err != nil {
		errorJSON(c, http.StatusInternalServerError, "INDEX_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "indexed", "property_id": propertyID})
}

// RemoveProperty handles property deletion notifications
func (h *Handler) RemoveProperty(c *gin.Context) {
	propertyID := c.Param("id")

	if err := h.indexer.RemoveProperty(c.Request.Context(), propertyID); err != nil {
		errorJSON(c, http.StatusInternalServerError, "INDEX_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "removed", "property_id": propertyID})
}

// RebuildIndex handles full index rebuild requests. The rebuild runs in the
// background so the request is not held open for the duration of the reindex.
// Completion is reported through logs and the rebuild metrics.
func (h *Handler) RebuildIndex(c *gin.Context) {
	go func() {
		count, err := h.indexer.RebuildAll(context.Background())
		if err != nil {
			h.logger.Error("Index rebuild failed", logger.Error(err))
			return
		}
		h.logger.Info("Index rebuild complete", logger.Int("document_count", count))
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "rebuild started"})
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	status := h.searchService.HealthCheck(c.Request.Context())

	if status.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ReadinessCheck handles readiness check requests
func (h *Handler) ReadinessCheck(c *gin.Context) {
	h.HealthCheck(c)
}

// parseSearchQueryParams parses search parameters from query string (GET
// requests). Malformed numeric parameters are rejected, not silently dropped.
func parseSearchQueryParams(c *gin.Context) (domain.SearchRequest, error) {
	filters, err := parseFilters(c)
	if err != nil {
		return domain.SearchRequest{}, err
	}
	pagination, err := parsePagination(c)
	if err != nil {
		return domain.SearchRequest{}, err
	}
	return domain.SearchRequest{
		Query:      c.Query("q"),
		Filters:    filters,
		Pagination: pagination,
		Sort:       parseSort(c),
	}, nil
}

// parseFilters parses filter parameters from query string
func parseFilters(c *gin.Context) (*domain.Filters, error) {
	filters := &domain.Filters{}

	if types := c.Query("property_types"); types != "" {
		filters.PropertyTypes = strings.Split(types, ",")
	}
	if types := c.Query("listing_types"); types != "" {
		filters.ListingTypes = strings.Split(types, ",")
	}
	filters.City = c.Query("city")
	filters.Country = c.Query("country")

	var err error
	if filters.PriceMin, err = floatParam(c, "price_min"); err != nil {
		return nil, err
	}
	if filters.PriceMax, err = floatParam(c, "price_max"); err != nil {
		return nil, err
	}
	if filters.BedroomsMin, err = intParam(c, "bedrooms_min"); err != nil {
		return nil, err
	}
	if filters.BedroomsMax, err = intParam(c, "bedrooms_max"); err != nil {
		return nil, err
	}
	if filters.BathroomsMin, err = intParam(c, "bathrooms_min"); err != nil {
		return nil, err
	}
	if filters.BathroomsMax, err = intParam(c, "bathrooms_max"); err != nil {
		return nil, err
	}
	if filters.FloorAreaMin, err = floatParam(c, "floor_area_min"); err != nil {
		return nil, err
	}
	if filters.FloorAreaMax, err = floatParam(c, "floor_area_max"); err != nil {
		return nil, err
	}

	lat, err := floatParam(c, "lat")
	if err != nil {
		return nil, err
	}
	lon, err := floatParam(c, "lon")
	if err != nil {
		return nil, err
	}
	radius, err := floatParam(c, "radius_km")
	if err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		filters.Center = &domain.GeoPoint{Lat: *lat, Lon: *lon}
		if radius != nil {
			filters.RadiusKm = *radius
		}
	}

	if features := c.Query("features"); features != "" {
		filters.Features = make(map[string]bool)
		for _, feature := range strings.Split(features, ",") {
			if feature = strings.TrimSpace(feature); feature != "" {
				filters.Features[feature] = true
			}
		}
	}
	if amenities := c.Query("amenities"); amenities != "" {
		filters.Amenities = strings.Split(amenities, ",")
	}

	return filters, nil
}

// parsePagination parses pagination parameters from query string
func parsePagination(c *gin.Context) (*domain.Pagination, error) {
	pagination := &domain.Pagination{Page: 1}

	if page := c.Query("page"); page != "" {
		p, err := strconv.Atoi(page)
		if err != nil {
			return nil, &domain.ValidationError{Field: "page", Message: "must be an integer"}
		}
		pagination.Page = p
	}
	if size := c.Query("size"); size != "" {
		s, err := strconv.Atoi(size)
		if err != nil {
			return nil, &domain.ValidationError{Field: "size", Message: "must be an integer"}
		}
		pagination.Size = s
	}

	return pagination, nil
}

// parseSort parses sort parameters from query string
func parseSort(c *gin.Context) *domain.Sort {
	field := c.Query("sort")
	if field == "" {
		return nil
	}
	return &domain.Sort{
		Field: field,
		Order: c.DefaultQuery("order", "desc"),
	}
}

func floatParam(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &domain.ValidationError{Field: name, Message: "must be a number"}
	}
	return &v, nil
}

func intParam(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &domain.ValidationError{Field: name, Message: "must be an integer"}
	}
	return &v, nil
}
