package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	openWeatherRateKey     = "openweather"
	openWeatherMaxRequests = 30
	openWeatherRateWindow  = time.Minute
)

// WeatherSnapshot is the subset of conditions the stylist and the advisory
// banner care about.
type WeatherSnapshot struct {
	TempC       float64 `json:"tempC"`
	FeelsLikeC  float64 `json:"feelsLikeC"`
	Conditions  string  `json:"conditions"`
	WindKph     float64 `json:"windKph"`
	Humidity    int     `json:"humidity"`
	UVIndex     float64 `json:"uvIndex"`
	AQI         int     `json:"aqi"`
	Mocked      bool    `json:"mocked"`
	RetrievedAt string  `json:"retrievedAt"`
}

func (w WeatherSnapshot) Summary() string {
	return fmt.Sprintf("%.0f°C (feels like %.0f°C), %s, wind %.0f km/h, humidity %d%%",
		w.TempC, w.FeelsLikeC, w.Conditions, w.WindKph, w.Humidity)
}

type WeatherProvider interface {
	Current(ctx context.Context, lat, lon float64) (*WeatherSnapshot, error)
}

type OpenWeatherService struct {
	Limiter *SlidingWindowLimiter
	Client  *http.Client
}

func NewOpenWeatherService(limiter *SlidingWindowLimiter) *OpenWeatherService {
	return &OpenWeatherService{
		Limiter: limiter,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type openWeatherCurrent struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type openWeatherAir struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
	} `json:"list"`
}

type openWeatherUV struct {
	Value float64 `json:"value"`
}

func (s *OpenWeatherService) Current(ctx context.Context, lat, lon float64) (*WeatherSnapshot, error) {
	apiKey := os.Getenv("OPENWEATHER_API_KEY")
	if apiKey == "" {
		return nil, &ConfigurationError{Missing: "OPENWEATHER_API_KEY"}
	}
	if s.Limiter != nil {
		if err := s.Limiter.Acquire(openWeatherRateKey, openWeatherMaxRequests, openWeatherRateWindow); err != nil {
			return nil, err
		}
	}

	var current openWeatherCurrent
	if err := s.getJSON(ctx, "/data/2.5/weather", lat, lon, apiKey, &current); err != nil {
		return nil, err
	}

	snapshot := &WeatherSnapshot{
		TempC:       current.Main.Temp,
		FeelsLikeC:  current.Main.FeelsLike,
		Humidity:    current.Main.Humidity,
		WindKph:     current.Wind.Speed * 3.6,
		RetrievedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if len(current.Weather) > 0 {
		snapshot.Conditions = current.Weather[0].Description
	}

	// Air quality and UV are best effort, the outfit still renders without
	// them.
	var air openWeatherAir
	if err := s.getJSON(ctx, "/data/2.5/air_pollution", lat, lon, apiKey, &air); err != nil {
		fmt.Printf("[Note: air pollution fetch failed] %v\n", err)
	} else if len(air.List) > 0 {
		snapshot.AQI = air.List[0].Main.AQI
	}

	var uv openWeatherUV
	if err := s.getJSON(ctx, "/data/2.5/uvi", lat, lon, apiKey, &uv); err != nil {
		fmt.Printf("[Note: uv index fetch failed] %v\n", err)
	} else {
		snapshot.UVIndex = uv.Value
	}

	return snapshot, nil
}

func (s *OpenWeatherService) getJSON(ctx context.Context, path string, lat, lon float64, apiKey string, out interface{}) error {
	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%f", lat))
	query.Set("lon", fmt.Sprintf("%f", lon))
	query.Set("units", "metric")
	query.Set("appid", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.openweathermap.org"+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return &ExternalServiceError{Service: "openweather", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &ExternalServiceError{
			Service: "openweather",
			Err:     fmt.Errorf("status %d: %s", resp.StatusCode, string(body)),
		}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// FallbackWeather is the deterministic snapshot used when the provider is
// unconfigured or down. Mild and uncontroversial on purpose.
func FallbackWeather() *WeatherSnapshot {
	return &WeatherSnapshot{
		TempC:       18,
		FeelsLikeC:  18,
		Conditions:  "partly cloudy",
		WindKph:     10,
		Humidity:    55,
		UVIndex:     3,
		AQI:         1,
		Mocked:      true,
		RetrievedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// Advisories turns raw UV / air quality numbers into user-facing warnings.
func Advisories(snapshot *WeatherSnapshot) []string {
	var advisories []string
	switch {
	case snapshot.UVIndex >= 11:
		advisories = append(advisories, "Extreme UV: avoid sun exposure, cover up fully")
	case snapshot.UVIndex >= 8:
		advisories = append(advisories, "Very high UV: long sleeves and headwear recommended")
	case snapshot.UVIndex >= 6:
		advisories = append(advisories, "High UV: consider headwear and sunglasses")
	case snapshot.UVIndex >= 3:
		advisories = append(advisories, "Moderate UV: sunscreen recommended for extended time outside")
	}
	switch snapshot.AQI {
	case 5:
		advisories = append(advisories, "Very poor air quality: limit time outdoors, consider a mask")
	case 4:
		advisories = append(advisories, "Poor air quality: sensitive groups should limit outdoor time")
	case 3:
		advisories = append(advisories, "Moderate air pollution: fine for most, sensitive groups take care")
	}
	return advisories
}
