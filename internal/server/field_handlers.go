package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterFieldRequest registers a farm field for satellite monitoring.
// Coordinates are [lng, lat] pairs forming the polygon ring.
type RegisterFieldRequest struct {
	Name            string       `json:"name" binding:"required"`
	Coordinates     [][2]float64 `json:"coordinates" binding:"required,min=3"`
	RefreshSchedule string       `json:"refreshSchedule"` // optional cron expression
}

// @Summary Register a field
// @Tags fields
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RegisterFieldRequest true "Field definition"
// @Success 201 {object} models.Field
// @Failure 400 {object} map[string]interface{}
// @Router /api/fields [post]
func (s *Server) registerField(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req RegisterFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.validator.Var(req.Name, "fieldname"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Field name may only contain letters, numbers, spaces, hyphens and underscores"})
		return
	}

	field, err := s.fieldsService.Register(c.Request.Context(), user.ID, req.Name, req.Coordinates, req.RefreshSchedule)
	if err != nil {
		s.logger.Error().Err(err).Str("name", req.Name).Msg("Failed to register field")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, field)
}

// @Summary List fields
// @Tags fields
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Field
// @Router /api/fields [get]
func (s *Server) listFields(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	fieldList, err := s.fieldsService.List(c.Request.Context(), user.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list fields")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, fieldList)
}

// @Summary Get a field
// @Tags fields
// @Produce json
// @Security BearerAuth
// @Param id path string true "Field ID"
// @Success 200 {object} models.Field
// @Failure 404 {object} map[string]interface{}
// @Router /api/fields/{id} [get]
func (s *Server) getField(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	field, err := s.fieldsService.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Field not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load field")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, field)
}

// @Summary Delete a field
// @Tags fields
// @Produce json
// @Security BearerAuth
// @Param id path string true "Field ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/fields/{id} [delete]
func (s *Server) deleteField(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := s.fieldsService.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Field not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to delete field")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Stored NDVI readings for a field
// @Tags fields
// @Produce json
// @Security BearerAuth
// @Param id path string true "Field ID"
// @Param limit query int false "Max readings (default 50)"
// @Success 200 {array} models.NDVIReading
// @Router /api/fields/{id}/ndvi [get]
func (s *Server) fieldNDVI(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	readings, err := s.fieldsService.Readings(c.Request.Context(), user.ID, c.Param("id"), limit)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Field not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load readings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, readings)
}

// @Summary Available satellite imagery for a field
// @Tags fields
// @Produce json
// @Security BearerAuth
// @Param id path string true "Field ID"
// @Param days query int false "Lookback window in days (default 30)"
// @Success 200 {array} agro.SatelliteImage
// @Router /api/fields/{id}/images [get]
func (s *Server) fieldImages(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	field, err := s.fieldsService.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Field not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load field")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	days := 30
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	images, err := s.agroClient.SearchImages(c.Request.Context(), field.PolygonID, start, end)
	if err != nil {
		s.logger.Error().Err(err).Str("polygon_id", field.PolygonID).Msg("Failed to search imagery")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch imagery"})
		return
	}

	c.JSON(http.StatusOK, images)
}

// @Summary Current weather by coordinate
// @Tags weather
// @Produce json
// @Security BearerAuth
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} agro.Weather
// @Router /api/weather [get]
func (s *Server) getWeather(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon query parameters are required"})
		return
	}

	weather, err := s.agroClient.CurrentWeather(c.Request.Context(), lat, lon)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to fetch weather")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch weather"})
		return
	}

	c.JSON(http.StatusOK, weather)
}
