package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"vestiapi/models"
	"vestiapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type RecommendIn struct {
	Occasion    string   `json:"occasion" validate:"required,max=100"`
	LockedItems []string `json:"lockedItems" validate:"omitempty,max=10,dive,max=20"`
	Season      string   `json:"season" validate:"omitempty,max=40"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
}

type RecommendData struct {
	Outfit          []ItemResponse           `json:"outfit"`
	ValidationScore int                      `json:"validationScore"`
	Iterations      int                      `json:"iterations"`
	AnalysisLog     []string                 `json:"analysisLog"`
	Reasoning       services.ReasoningFields `json:"reasoning"`
}

type RecommendEnvelope struct {
	Success bool           `json:"success"`
	Data    *RecommendData `json:"data,omitempty"`
	Error   *string        `json:"error,omitempty"`
}

type RecommendController struct {
	LLM     services.OutfitLLMProvider
	Weather services.WeatherProvider
	Limiter *services.SlidingWindowLimiter
}

func (controller *RecommendController) RecommendRoutes(g *echo.Group) {
	g.POST("", controller.Recommend)
	g.GET("/history", controller.History)
}

func errorEnvelope(c echo.Context, status int, message string) error {
	return c.JSON(status, RecommendEnvelope{Success: false, Error: StrPointer(message)})
}

func (controller *RecommendController) Recommend(c echo.Context) error {
	var req RecommendIn
	if err := c.Bind(&req); err != nil {
		return errorEnvelope(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return errorEnvelope(c, http.StatusBadRequest, err.Error())
	}

	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var wardrobe []models.ClothingItem
	if err := db.Where("owner_id = ?", user.ID).Find(&wardrobe).Error; err != nil {
		sentry.CaptureException(err)
		return errorEnvelope(c, http.StatusInternalServerError, "Failed to fetch your wardrobe")
	}
	if len(wardrobe) == 0 {
		return errorEnvelope(c, http.StatusBadRequest, "Your wardrobe is empty, add some items first")
	}

	// weather is advisory context, the fallback snapshot keeps the flow going
	snapshot := services.FallbackWeather()
	if req.Lat != nil && req.Lon != nil {
		fetched, err := controller.Weather.Current(c.Request().Context(), *req.Lat, *req.Lon)
		if err != nil {
			fmt.Printf("[Note: weather fetch failed, using fallback] %v\n", err)
		} else {
			snapshot = fetched
		}
	}

	silhouette := ""
	if user.Silhouette != nil {
		silhouette = *user.Silhouette
	}
	genderContext := ""
	if user.GenderContext != nil {
		genderContext = *user.GenderContext
	}
	rc := services.RecommendationContext{
		Weather:         snapshot.Summary(),
		Occasion:        req.Occasion,
		Season:          req.Season,
		PreferredStyles: user.PreferredStyles,
		Silhouette:      silhouette,
		GenderContext:   genderContext,
		LockedItemIDs:   req.LockedItems,
	}

	orchestrator := services.OutfitOrchestrator{LLM: controller.LLM, Limiter: controller.Limiter}
	result, err := orchestrator.Generate(c.Request().Context(), wardrobe, rc)
	if err != nil {
		var configErr *services.ConfigurationError
		var rateErr *services.RateLimitedError
		var malformedErr *services.MalformedResponseError
		var serviceErr *services.ExternalServiceError
		switch {
		case errors.As(err, &configErr):
			sentry.CaptureException(err)
			return errorEnvelope(c, http.StatusInternalServerError, "Recommendation service is not configured")
		case errors.As(err, &rateErr):
			return errorEnvelope(c, http.StatusTooManyRequests, "Too many recommendation requests, please wait a moment")
		case errors.As(err, &malformedErr):
			sentry.CaptureException(err)
			return errorEnvelope(c, http.StatusBadGateway, "The stylist returned an unreadable answer, please try again")
		case errors.As(err, &serviceErr):
			sentry.CaptureException(err)
			return errorEnvelope(c, http.StatusBadGateway, "The stylist is unavailable right now, please try again")
		default:
			sentry.CaptureException(err)
			return errorEnvelope(c, http.StatusInternalServerError, "Something went wrong, please try again")
		}
	}

	controller.persistRecommendation(db, user, req, snapshot, result)

	outfit := make([]ItemResponse, 0, len(result.Outfit))
	for _, item := range result.Outfit {
		outfit = append(outfit, itemToResponse(item, nil))
	}
	return c.JSON(http.StatusOK, RecommendEnvelope{
		Success: true,
		Data: &RecommendData{
			Outfit:          outfit,
			ValidationScore: result.ValidationScore,
			Iterations:      result.Iterations,
			AnalysisLog:     result.AnalysisLog,
			Reasoning:       result.Reasoning,
		},
	})
}

// persistRecommendation records the result for history and the retention
// sweep. Failures here never fail the user request.
func (controller *RecommendController) persistRecommendation(db *gorm.DB, user models.UserAccount, req RecommendIn, snapshot *services.WeatherSnapshot, result *services.RecommendationResult) {
	selected := make([]string, 0, len(result.Outfit))
	for _, item := range result.Outfit {
		selected = append(selected, fmt.Sprint(item.ID))
	}
	var reasoningJSON *string
	if raw, err := json.Marshal(result.Reasoning); err == nil {
		reasoningJSON = StrPointer(string(raw))
	}
	record := models.OutfitRecommendation{
		OwnerID:             user.ID,
		Occasion:            req.Occasion,
		Season:              req.Season,
		WeatherSummary:      snapshot.Summary(),
		LockedItemIDs:       req.LockedItems,
		SelectedItemIDs:     selected,
		ValidationScore:     result.ValidationScore,
		ReasoningJSON:       reasoningJSON,
		LLMModel:            StrPointer(result.LLMModel),
		LLMInputTokenCount:  &result.LLMInputTokenCount,
		LLMOutputTokenCount: &result.LLMOutputTokenCount,
		LLMTotalTokenCount:  &result.LLMTotalTokenCount,
	}
	if err := db.Create(&record).Error; err != nil {
		fmt.Println("Error saving recommendation history", err)
		sentry.CaptureException(err)
	}
}

func (controller *RecommendController) History(c echo.Context) error {
	user := c.Get("currentUser").(models.UserAccount)
	db := c.Get("__db").(*gorm.DB)

	var history []models.OutfitRecommendation
	if err := db.Where("owner_id = ?", user.ID).Order("created_at desc").Limit(50).Find(&history).Error; err != nil {
		sentry.CaptureException(err)
		return echo.ErrInternalServerError
	}
	return c.JSON(http.StatusOK, echo.Map{"recommendations": history})
}
