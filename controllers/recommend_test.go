package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"vestiapi/dbhelper"
	"vestiapi/models"
	"vestiapi/services"
	"vestiapi/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func recommendServer(db *gorm.DB, llm *test.MockOutfitLLM, weather *test.WeatherMock) *echo.Echo {
	return SetupServer(
		db, test.GoogleServiceMock{}, &test.AWSProviderMock{}, &test.URLCacheMock{},
		weather, llm, services.NewSlidingWindowLimiter(), nil, nil, nil,
	)
}

func TestRecommendSuccess(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	llm := &test.MockOutfitLLM{}
	e := recommendServer(db, llm, &test.WeatherMock{})

	user := test.FakeUser(db)
	tee := test.FakeItem(db, user.ID, "White tee", models.CategoryTop)
	jeans := test.FakeItem(db, user.ID, "Blue jeans", models.CategoryBottom)
	test.FakeItem(db, user.ID, "Sneakers", models.CategoryFootwear)

	// ids are assigned by the database, the canned answer must reference them
	llm.Response = fmt.Sprintf(`{
		"selectedItemIds": ["%v", "%v"],
		"reasoning": {"weatherMatch": "mild day", "statementPiece": "the tee", "styleScore": 8}
	}`, tee.ID, jeans.ID)

	param := RecommendIn{Occasion: "casual walk", Season: "summer"}
	req := test.NewJSONAuthRequest("POST", "/api/recommendations", fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp RecommendEnvelope
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Len(t, resp.Data.Outfit, 2)
	assert.Equal(t, "White tee", resp.Data.Outfit[0].Name)
	assert.Equal(t, 80, resp.Data.ValidationScore)
	assert.Equal(t, 1, resp.Data.Iterations)
	assert.Equal(t, "mild day", resp.Data.Reasoning.WeatherMatch)
	assert.NotEmpty(t, resp.Data.AnalysisLog)

	// whole wardrobe went into the prompt
	assert.Contains(t, llm.LastPrompt, "Sneakers")
	assert.Contains(t, llm.LastPrompt, "casual walk")

	// history row persisted
	var record models.OutfitRecommendation
	db.First(&record)
	assert.Equal(t, user.ID, record.OwnerID)
	assert.Equal(t, "casual walk", record.Occasion)
	assert.Equal(t, 80, record.ValidationScore)
	assert.Len(t, record.SelectedItemIDs, 2)
}

func TestRecommendLockedItemEnforced(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	llm := &test.MockOutfitLLM{}
	e := recommendServer(db, llm, &test.WeatherMock{})

	user := test.FakeUser(db)
	tee := test.FakeItem(db, user.ID, "White tee", models.CategoryTop)
	jeans := test.FakeItem(db, user.ID, "Blue jeans", models.CategoryBottom)
	boots := test.FakeItem(db, user.ID, "Brown boots", models.CategoryFootwear)

	// model ignores the locked boots, the orchestrator puts them back
	llm.Response = fmt.Sprintf(`{"selectedItemIds": ["%v", "%v"], "reasoning": {"styleScore": 7}}`, tee.ID, jeans.ID)

	param := RecommendIn{Occasion: "hike", LockedItems: []string{fmt.Sprint(boots.ID)}}
	req := test.NewJSONAuthRequest("POST", "/api/recommendations", fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp RecommendEnvelope
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data.Outfit, 3)
	assert.Equal(t, "Brown boots", resp.Data.Outfit[2].Name)
	assert.Contains(t, llm.LastPrompt, "MUST appear in selectedItemIds")
}

func TestRecommendEmptyWardrobe(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := recommendServer(db, &test.MockOutfitLLM{}, &test.WeatherMock{})

	user := test.FakeUser(db)
	param := RecommendIn{Occasion: "dinner"}
	req := test.NewJSONAuthRequest("POST", "/api/recommendations", fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var resp RecommendEnvelope
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Contains(t, *resp.Error, "wardrobe is empty")
}

func TestRecommendMissingOccasion(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := recommendServer(db, &test.MockOutfitLLM{}, &test.WeatherMock{})

	user := test.FakeUser(db)
	req := test.NewJSONAuthRequest("POST", "/api/recommendations", fmt.Sprint(user.ID), RecommendIn{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var resp RecommendEnvelope
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.False(t, resp.Success)
}

func TestRecommendMalformedAnswer(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	llm := &test.MockOutfitLLM{Response: "I would suggest something nice and cozy."}
	e := recommendServer(db, llm, &test.WeatherMock{})

	user := test.FakeUser(db)
	test.FakeItem(db, user.ID, "White tee", models.CategoryTop)

	param := RecommendIn{Occasion: "dinner"}
	req := test.NewJSONAuthRequest("POST", "/api/recommendations", fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
	var resp RecommendEnvelope
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.False(t, resp.Success)
	assert.Contains(t, *resp.Error, "unreadable")

	// nothing persisted on failure
	var count int64
	db.Model(&models.OutfitRecommendation{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestRecommendProviderDown(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	llm := &test.MockOutfitLLM{Err: fmt.Errorf("deadline exceeded")}
	e := recommendServer(db, llm, &test.WeatherMock{})

	user := test.FakeUser(db)
	test.FakeItem(db, user.ID, "White tee", models.CategoryTop)

	req := test.NewJSONAuthRequest("POST", "/api/recommendations", fmt.Sprint(user.ID), RecommendIn{Occasion: "dinner"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
	var resp RecommendEnvelope
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.False(t, resp.Success)
	assert.Contains(t, *resp.Error, "unavailable")
}

func TestRecommendWeatherFallback(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	llm := &test.MockOutfitLLM{}
	// weather provider down, the fallback snapshot feeds the prompt
	e := recommendServer(db, llm, &test.WeatherMock{Err: fmt.Errorf("openweather down")})

	user := test.FakeUser(db)
	tee := test.FakeItem(db, user.ID, "White tee", models.CategoryTop)
	llm.Response = fmt.Sprintf(`{"selectedItemIds": ["%v"], "reasoning": {"styleScore": 6}}`, tee.ID)

	lat, lon := 40.4, 49.8
	param := RecommendIn{Occasion: "walk", Lat: &lat, Lon: &lon}
	req := test.NewJSONAuthRequest("POST", "/api/recommendations", fmt.Sprint(user.ID), param)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, llm.LastPrompt, "partly cloudy")
}

func TestRecommendHistory(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := recommendServer(db, &test.MockOutfitLLM{}, &test.WeatherMock{})

	user := test.FakeUser(db)
	record := models.OutfitRecommendation{
		OwnerID:         user.ID,
		Occasion:        "dinner",
		ValidationScore: 75,
		SelectedItemIDs: []string{"1", "2"},
	}
	db.Create(&record)

	req := test.NewJSONAuthRequest("GET", "/api/recommendations/history", fmt.Sprint(user.ID), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Recommendations []models.OutfitRecommendation `json:"recommendations"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "dinner", resp.Recommendations[0].Occasion)
	assert.Equal(t, 75, resp.Recommendations[0].ValidationScore)
}
