// Package weather keeps a small in-process forecast for the couple's
// home screen, refreshed on a cron schedule rather than per request.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Config holds weather service configuration.
type Config struct {
	Latitude        string
	Longitude       string
	TemperatureUnit string // "celsius" or "fahrenheit"
}

// Data holds the current and daily weather information.
type Data struct {
	CurrentTemp float64 `json:"current_temp"`
	CurrentCode int     `json:"current_code"`
	CurrentDesc string  `json:"current_desc"`
	CurrentIcon string  `json:"current_icon"`
	HighTemp    float64 `json:"high_temp"`
	LowTemp     float64 `json:"low_temp"`
	Unit        string  `json:"unit"` // "C" or "F"
	Available   bool    `json:"available"`
	Configured  bool    `json:"configured"`
}

// Service fetches and caches Open-Meteo data. Get always answers from
// the cache; Refresh is driven by the cron runner.
type Service struct {
	config  Config
	client  *http.Client
	baseURL string
	logger  *slog.Logger

	mu     sync.RWMutex
	cached Data
}

func NewService(cfg Config, logger *slog.Logger) *Service {
	if cfg.TemperatureUnit == "" {
		cfg.TemperatureUnit = "celsius"
	}
	unit := "C"
	if cfg.TemperatureUnit == "fahrenheit" {
		unit = "F"
	}
	configured := cfg.Latitude != "" && cfg.Longitude != ""
	return &Service{
		config:  cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.open-meteo.com/v1/forecast",
		logger:  logger,
		cached: Data{
			Unit:       unit,
			Configured: configured,
		},
	}
}

// Get returns the cached weather. It never blocks on the network.
func (s *Service) Get() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached
}

// Refresh fetches fresh data. Failures keep the stale cache.
func (s *Service) Refresh(ctx context.Context) {
	if !s.Get().Configured {
		return
	}

	data, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("weather refresh failed, keeping stale data", "error", err)
		return
	}

	s.mu.Lock()
	s.cached = data
	s.mu.Unlock()
}

type apiResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		TempMax []float64 `json:"temperature_2m_max"`
		TempMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

func (s *Service) fetch(ctx context.Context) (Data, error) {
	url := fmt.Sprintf(
		"%s?latitude=%s&longitude=%s&current=temperature_2m,weather_code&daily=temperature_2m_max,temperature_2m_min&timezone=auto&forecast_days=1&temperature_unit=%s",
		s.baseURL, s.config.Latitude, s.config.Longitude, s.config.TemperatureUnit,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Data{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Data{}, fmt.Errorf("weather API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Data{}, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Data{}, fmt.Errorf("decode weather response: %w", err)
	}

	desc, icon := WMOCodeToDescIcon(apiResp.Current.WeatherCode)

	unit := "C"
	if s.config.TemperatureUnit == "fahrenheit" {
		unit = "F"
	}

	data := Data{
		CurrentTemp: apiResp.Current.Temperature,
		CurrentCode: apiResp.Current.WeatherCode,
		CurrentDesc: desc,
		CurrentIcon: icon,
		Unit:        unit,
		Available:   true,
		Configured:  true,
	}
	if len(apiResp.Daily.TempMax) > 0 {
		data.HighTemp = apiResp.Daily.TempMax[0]
	}
	if len(apiResp.Daily.TempMin) > 0 {
		data.LowTemp = apiResp.Daily.TempMin[0]
	}
	return data, nil
}

// WMOCodeToDescIcon maps a WMO weather code to a human-readable description and emoji icon.
func WMOCodeToDescIcon(code int) (string, string) {
	switch code {
	case 0:
		return "Clear sky", "☀️"
	case 1:
		return "Mainly clear", "🌤️"
	case 2:
		return "Partly cloudy", "⛅"
	case 3:
		return "Overcast", "☁️"
	case 45, 48:
		return "Foggy", "🌫️"
	case 51:
		return "Light drizzle", "🌦️"
	case 53:
		return "Moderate drizzle", "🌦️"
	case 55:
		return "Dense drizzle", "🌧️"
	case 56, 57:
		return "Freezing drizzle", "🌧️"
	case 61:
		return "Slight rain", "🌦️"
	case 63:
		return "Moderate rain", "🌧️"
	case 65:
		return "Heavy rain", "🌧️"
	case 66, 67:
		return "Freezing rain", "🌧️"
	case 71:
		return "Slight snow", "🌨️"
	case 73:
		return "Moderate snow", "🌨️"
	case 75:
		return "Heavy snow", "❄️"
	case 77:
		return "Snow grains", "❄️"
	case 80:
		return "Slight showers", "🌦️"
	case 81:
		return "Moderate showers", "🌧️"
	case 82:
		return "Violent showers", "⛈️"
	case 85:
		return "Slight snow showers", "🌨️"
	case 86:
		return "Heavy snow showers", "❄️"
	case 95:
		return "Thunderstorm", "⛈️"
	case 96, 99:
		return "Thunderstorm with hail", "⛈️"
	default:
		return "Unknown", "🌡️"
	}
}
