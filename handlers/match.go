package handlers

import (
	"net/http"
	"strconv"

	"servimatch/models"
	"servimatch/services/matching"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MatchHandler serves provider matching and proximity search.
type MatchHandler struct {
	Service           matching.MatchingService
	DefaultMaxResults int
}

type matchRequest struct {
	models.MatchCriteria
	MaxResults *int `json:"maxResults"`
}

// MatchProvidersHandler ranks eligible providers for the posted criteria.
func (h *MatchHandler) MatchProvidersHandler(c *gin.Context) {
	logger := getLogger(c)

	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Debug("Invalid match request", zap.Error(err))
		badRequest(c, "body", nil, "Invalid request payload: "+err.Error())
		return
	}
	maxResults := h.DefaultMaxResults
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
	}

	resp, err := h.Service.MatchProviders(c.Request.Context(), req.MatchCriteria, maxResults)
	if err != nil {
		respondError(c, "Failed to match providers", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SearchNearbyHandler lists providers of a category around a point.
func (h *MatchHandler) SearchNearbyHandler(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Query("categoryId"), 10, 64)
	if err != nil {
		badRequest(c, "categoryId", c.Query("categoryId"), "must be an integer")
		return
	}
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		badRequest(c, "lat", c.Query("lat"), "must be a number")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		badRequest(c, "lng", c.Query("lng"), "must be a number")
		return
	}
	var radius float64
	if raw := c.Query("radiusKm"); raw != "" {
		if radius, err = strconv.ParseFloat(raw, 64); err != nil {
			badRequest(c, "radiusKm", raw, "must be a number")
			return
		}
	}

	providers, err := h.Service.SearchNearby(c.Request.Context(), categoryID, lat, lng, radius)
	if err != nil {
		respondError(c, "Failed to search providers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}
