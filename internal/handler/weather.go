package handler

import (
	"net/http"

	"github.com/lovechedule/lovechedule/internal/weather"
)

type WeatherHandler struct {
	service *weather.Service
}

func NewWeatherHandler(svc *weather.Service) *WeatherHandler {
	return &WeatherHandler{service: svc}
}

// Get handles GET /api/weather
func (h *WeatherHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Get())
}
