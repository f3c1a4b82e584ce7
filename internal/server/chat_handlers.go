package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/chat"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/models"
)

// ChatRequest is one question for the assistant. When FieldID is set the
// field's current weather is folded into the prompt.
type ChatRequest struct {
	Message  string `json:"message" binding:"required"`
	Language string `json:"language"` // "en" (default) or "hi"
	FieldID  string `json:"fieldId"`
}

// ChatResponse carries the assistant's reply
type ChatResponse struct {
	Reply string `json:"reply"`
}

// @Summary Ask the assistant
// @Description Sends a question to KrishiBot, optionally with live weather
// @Description context from one of the caller's fields.
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChatRequest true "Question"
// @Success 200 {object} ChatResponse
// @Failure 502 {object} map[string]interface{}
// @Router /api/chat [post]
func (s *Server) askAssistant(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !s.chatService.IsConfigured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant not configured"})
		return
	}

	language := req.Language
	if language == "" {
		language = "en"
	}

	// Weather context is best effort; the assistant answers without it
	var weather *chat.WeatherContext
	var location *chat.LocationContext
	if req.FieldID != "" {
		field, err := s.fieldsService.Get(c.Request.Context(), user.ID, req.FieldID)
		if err == nil {
			if current, werr := s.agroClient.CurrentWeather(c.Request.Context(), field.CenterLat, field.CenterLon); werr == nil {
				description := ""
				if len(current.Weather) > 0 {
					description = current.Weather[0].Description
				}
				weather = &chat.WeatherContext{
					Temperature: current.TempCelsius(),
					Humidity:    current.Main.Humidity,
					Description: description,
					WindSpeed:   current.Wind.Speed * 3.6, // m/s to km/h
				}
				location = &chat.LocationContext{
					Lat:     field.CenterLat,
					Lon:     field.CenterLon,
					Address: field.Name,
				}
			} else {
				s.logger.Warn().Err(werr).Str("field_id", field.ID).Msg("Failed to fetch weather context")
			}
		}
	}

	reply, err := s.chatService.Ask(c.Request.Context(), req.Message, language, weather, location)
	if err != nil {
		s.logger.Error().Err(err).Msg("Assistant request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant request failed"})
		return
	}

	// Persist the exchange; history failures must not lose the reply
	exchange := []models.ChatMessage{
		{UserID: user.ID, Role: "user", Language: language, Content: req.Message},
		{UserID: user.ID, Role: "assistant", Language: language, Content: reply},
	}
	if err := s.db.Create(&exchange).Error; err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist chat history")
	}

	c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}

// @Summary Chat history
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ChatMessage
// @Router /api/chat/history [get]
func (s *Server) chatHistory(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var history []models.ChatMessage
	if err := s.db.
		Where("user_id = ?", user.ID).
		Order("created_at ASC").
		Limit(200).
		Find(&history).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load chat history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, history)
}
