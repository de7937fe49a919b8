package controllers

import (
	"fmt"
	"net/http"

	"vestiapi/services"

	"github.com/labstack/echo/v4"
)

type WeatherController struct {
	Weather services.WeatherProvider
}

func (controller *WeatherController) WeatherRoutes(g *echo.Group) {
	g.GET("/current", func(c echo.Context) error {
		var lat, lon float64
		err := echo.QueryParamsBinder(c).
			Float64("lat", &lat).
			Float64("lon", &lon).
			BindError()
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "lat and lon query parameters are required"})
		}

		snapshot, fetchErr := controller.Weather.Current(c.Request().Context(), lat, lon)
		if fetchErr != nil {
			fmt.Printf("[Note: weather fetch failed, serving fallback] %v\n", fetchErr)
			snapshot = services.FallbackWeather()
		}

		return c.JSON(http.StatusOK, echo.Map{
			"weather":    snapshot,
			"advisories": services.Advisories(snapshot),
		})
	})
}
