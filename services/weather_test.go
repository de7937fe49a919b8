package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentWithoutAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")
	service := NewOpenWeatherService(nil)
	_, err := service.Current(context.Background(), 40.4, 49.8)
	var confErr *ConfigurationError
	assert.True(t, errors.As(err, &confErr), err)
	assert.Equal(t, "OPENWEATHER_API_KEY", confErr.Missing)
}

func TestFallbackWeather(t *testing.T) {
	snapshot := FallbackWeather()
	assert.True(t, snapshot.Mocked)
	assert.Equal(t, float64(18), snapshot.TempC)
	assert.NotEmpty(t, snapshot.RetrievedAt)
	assert.Contains(t, snapshot.Summary(), "18°C")
}

func TestAdvisories(t *testing.T) {
	assert.Empty(t, Advisories(&WeatherSnapshot{UVIndex: 1, AQI: 1}))

	advisories := Advisories(&WeatherSnapshot{UVIndex: 3, AQI: 2})
	assert.Len(t, advisories, 1)
	assert.Contains(t, advisories[0], "Moderate UV")

	advisories = Advisories(&WeatherSnapshot{UVIndex: 7, AQI: 3})
	assert.Len(t, advisories, 2)
	assert.Contains(t, advisories[0], "High UV")
	assert.Contains(t, advisories[1], "Moderate air pollution")

	advisories = Advisories(&WeatherSnapshot{UVIndex: 11.5, AQI: 5})
	assert.Len(t, advisories, 2)
	assert.Contains(t, advisories[0], "Extreme UV")
	assert.Contains(t, advisories[1], "Very poor air quality")

	// only the highest matching UV bracket fires
	advisories = Advisories(&WeatherSnapshot{UVIndex: 8, AQI: 1})
	assert.Len(t, advisories, 1)
	assert.Contains(t, advisories[0], "Very high UV")
}
